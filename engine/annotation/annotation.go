package annotation

import (
	"strconv"

	"github.com/go-gl/mathgl/mgl64"
)

// Kind identifies one of the four annotation containers.
type Kind int

const (
	KindTransition Kind = iota
	KindParamTransition
	KindPlantConstraint
	KindSimEvent

	kindCount
)

// Kinds lists every annotation kind in container order.
var Kinds = [kindCount]Kind{KindTransition, KindParamTransition, KindPlantConstraint, KindSimEvent}

func (k Kind) String() string {
	switch k {
	case KindTransition:
		return "transition"
	case KindParamTransition:
		return "param_transition"
	case KindPlantConstraint:
		return "plant_constraint"
	case KindSimEvent:
		return "sim_event"
	}
	return "unknown"
}

// Annotation is a time interval on a clip carrying a kind-specific payload.
type Annotation interface {
	// Kind returns the container the annotation belongs to.
	Kind() Kind

	// Bounds returns the start and end time in clip time.
	//
	// Returns:
	//   - float64: the start time
	//   - float64: the end time
	Bounds() (float64, float64)

	// Key returns the semantic identity used to match annotations across clips.
	//
	// Returns:
	//   - string: the key
	Key() string
}

// Transition marks a window in which the clip may hand over to Target.
type Transition struct {
	Start, End float64

	// Target names the node to transition to.
	Target string

	// TargetTime is the play time the target starts at when the window opens.
	TargetTime float64
}

// ParamTransition is a Transition into a parametric blend, carrying the control
// parameters to seed the target with and the range they are valid over.
type ParamTransition struct {
	Start, End float64
	Target     string
	TargetTime float64

	Params   []float64
	ParamMin []float64
	ParamMax []float64
}

// PlantConstraint pins a bone to a world placement over the interval, typically a footplant.
type PlantConstraint struct {
	Start, End float64

	BoneID      int
	Position    mgl64.Vec3
	Orientation mgl64.Quat
}

// SimEvent is a gameplay notification such as a footstep or a hit frame.
type SimEvent struct {
	Start, End float64

	EventID   string
	Magnitude float64
}

var (
	_ Annotation = &Transition{}
	_ Annotation = &ParamTransition{}
	_ Annotation = &PlantConstraint{}
	_ Annotation = &SimEvent{}
)

func (a *Transition) Kind() Kind                 { return KindTransition }
func (a *Transition) Bounds() (float64, float64) { return a.Start, a.End }
func (a *Transition) Key() string                { return a.Target }

func (a *ParamTransition) Kind() Kind                 { return KindParamTransition }
func (a *ParamTransition) Bounds() (float64, float64) { return a.Start, a.End }
func (a *ParamTransition) Key() string                { return a.Target }

func (a *PlantConstraint) Kind() Kind                 { return KindPlantConstraint }
func (a *PlantConstraint) Bounds() (float64, float64) { return a.Start, a.End }
func (a *PlantConstraint) Key() string                { return strconv.Itoa(a.BoneID) }

func (a *SimEvent) Kind() Kind                 { return KindSimEvent }
func (a *SimEvent) Bounds() (float64, float64) { return a.Start, a.End }
func (a *SimEvent) Key() string                { return a.EventID }
