//go:build morphdebug

package morph

import "fmt"

// Built with -tags morphdebug, out-of-range reads panic instead of
// returning zero values.
func checkIndex(i, n int) {
	panic(fmt.Errorf("%w: %d not in [0, %d)", ErrIndex, i, n))
}
