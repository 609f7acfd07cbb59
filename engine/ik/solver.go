package ik

import (
	"sort"

	"github.com/Carmen-Shannon/oxy-anim/engine/skeleton"
)

// goalSet is the goal bookkeeping shared by every solver kind.
type goalSet struct {
	priority int
	chain    []*skeleton.Bone
	goals    map[int]skeleton.IKGoal
	bones    func(id int) *skeleton.Bone
}

func newGoalSet(sk skeleton.Skeleton) goalSet {
	return goalSet{
		goals: make(map[int]skeleton.IKGoal),
		bones: sk.Bone,
	}
}

func (g *goalSet) Priority() int {
	return g.priority
}

func (g *goalSet) Chain() []*skeleton.Bone {
	return g.chain
}

func (g *goalSet) SetGoal(goal skeleton.IKGoal) {
	g.goals[goal.BoneID] = goal
}

func (g *goalSet) RemoveGoal(boneID int) {
	delete(g.goals, boneID)
}

func (g *goalSet) ClearGoals() {
	clear(g.goals)
}

func (g *goalSet) Goals() []skeleton.IKGoal {
	out := make([]skeleton.IKGoal, 0, len(g.goals))
	for _, goal := range g.goals {
		out = append(out, goal)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BoneID < out[j].BoneID })
	return out
}

func (g *goalSet) GoalError(boneID int) (float64, bool) {
	goal, ok := g.goals[boneID]
	if !ok {
		return 0, false
	}
	return goal.Position.Sub(g.bones(boneID).WorldPosition()).Len(), true
}

func (g *goalSet) Error() float64 {
	total := 0.0
	for id := range g.goals {
		e, _ := g.GoalError(id)
		total += e
	}
	return total
}
