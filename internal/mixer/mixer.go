// Package mixer adjusts bounded speaker settings: volume, bass and
// treble. Each setting is described by a Control so the adjustment
// logic is written once and the shell decides which device knobs it
// binds to.
package mixer

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Control binds an adjustable device setting to its valid range.
type Control struct {
	Min int
	Max int
	Get func(ctx context.Context) (int, error)
	Set func(ctx context.Context, value int) error
}

// Adjust applies an operator such as "+10", "-3", "+" or "-" to the
// control, clamping the result to the control's range, and returns the
// value the device reports afterwards.
func Adjust(ctx context.Context, c Control, operator string) (int, error) {
	factor, err := Factor(operator)
	if err != nil {
		return 0, err
	}
	current, err := c.Get(ctx)
	if err != nil {
		return 0, err
	}
	if err := c.Set(ctx, clamp(current+factor, c.Min, c.Max)); err != nil {
		return 0, err
	}
	return c.Get(ctx)
}

// Factor parses an adjustment operator into a signed step. A bare "+"
// or "-" means a step of one.
func Factor(operator string) (int, error) {
	if !strings.HasPrefix(operator, "+") && !strings.HasPrefix(operator, "-") {
		return 0, fmt.Errorf("valid operators are + and -")
	}
	if len(operator) == 1 {
		operator += "1"
	}
	factor, err := strconv.Atoi(operator)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number or +/-", operator)
	}
	return factor, nil
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
