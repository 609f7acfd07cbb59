package animation

import (
	"fmt"

	"github.com/tiendc/go-deepcopy"
)

// copyValue deep copies plain node state such as weight vectors and masks.
func copyValue[T any](src T) T {
	var dst T
	if err := deepcopy.Copy(&dst, src); err != nil {
		panic(fmt.Sprintf("animation: failed to copy %T: %v", src, err))
	}
	return dst
}
