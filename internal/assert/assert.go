// Package assert provides the teacher's panic-on-broken-invariant idiom
// (common.Assert in the teacher repository) for conditions that indicate a
// programmer error rather than a reportable runtime failure.
package assert

import "fmt"

// That panics with a formatted message if cond is false. Reserved for
// invariants whose violation means a bug in this package, never for
// conditions a caller can trigger (those return errors instead).
func That(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(fmt.Sprintf("ozks: assertion failed: "+format, args...))
	}
}
