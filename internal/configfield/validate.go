package configfield

import (
	"fmt"
	"math"
)

// Result is the outcome of validating a single wire value against its class.
type Result struct {
	Valid   bool
	Message string
}

func ok() Result                              { return Result{Valid: true} }
func invalid(format string, args ...interface{}) Result {
	return Result{Valid: false, Message: fmt.Sprintf(format, args...)}
}

// Validate checks a wire value against its field class. Monetary values are
// validated in minor units, so the amount must be a non-negative integer.
func Validate(class Class, wire interface{}) Result {
	switch class.Kind {
	case KindMonetary:
		v, isNum := asNumber(wire)
		if !isNum || math.IsNaN(v) || math.IsInf(v, 0) {
			return invalid("must be a number")
		}
		if v != math.Trunc(v) {
			return invalid("must be a whole amount in minor units")
		}
		if v < 0 {
			return invalid("must not be negative")
		}
		return ok()

	case KindPercentage:
		v, isNum := asNumber(wire)
		if !isNum || math.IsNaN(v) || math.IsInf(v, 0) {
			return invalid("must be a number")
		}
		if v < 0 || v > 100 {
			return invalid("must be between 0 and 100")
		}
		return ok()

	case KindBoundedCount:
		v, isNum := asNumber(wire)
		if !isNum || v != math.Trunc(v) {
			return invalid("must be a whole number")
		}
		n := int(v)
		if n < class.Min {
			return invalid("must be at least %d", class.Min)
		}
		if class.Max > 0 && n > class.Max {
			return invalid("must be at most %d", class.Max)
		}
		return ok()

	case KindFixedLengthText:
		s, isStr := wire.(string)
		if !isStr || len(s) != class.Length {
			return invalid("must be exactly %d characters", class.Length)
		}
		return ok()
	}

	return ok()
}
