package shell

import (
	"fmt"
	"regexp"
	"strconv"
)

// rangePattern matches single numbers ("123") or ranges ("12..34").
var rangePattern = regexp.MustCompile(`^(\d+)(\.\.(\d+))?$`)

// parseRange parses a single number A or an inclusive range A..B into
// the list of numbers it covers.
func parseRange(text string) ([]int, error) {
	matches := rangePattern.FindStringSubmatch(text)
	if matches == nil {
		return nil, fmt.Errorf("invalid number or range: %q", text)
	}

	first, err := strconv.Atoi(matches[1])
	if err != nil {
		return nil, fmt.Errorf("invalid number or range: %q", text)
	}
	last := first
	if matches[3] != "" {
		last, err = strconv.Atoi(matches[3])
		if err != nil {
			return nil, fmt.Errorf("invalid number or range: %q", text)
		}
	}
	if last < first {
		return nil, fmt.Errorf("invalid range: %q", text)
	}

	values := make([]int, 0, last-first+1)
	for v := first; v <= last; v++ {
		values = append(values, v)
	}
	return values, nil
}
