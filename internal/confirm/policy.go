// Package confirm implements the run-scoped overwrite confirmation policy.
//
// A Policy starts in Ask (unless chosen otherwise on the command line) and may
// move once, permanently, to AlwaysYes or AlwaysNo when the operator answers
// always_yes or always_no. The policy value is owned by the batch loop and
// passed by pointer to every Confirm call of that run.
package confirm

import (
	"errors"
	"fmt"
	"strings"
)

// Policy is the overwrite decision state of one batch run.
type Policy int

const (
	// Ask prompts the operator for every overwrite.
	Ask Policy = iota
	// AlwaysYes overwrites without asking.
	AlwaysYes
	// AlwaysNo never overwrites and never asks.
	AlwaysNo
)

// ErrNoAnswer is returned when the input ends before a valid answer was read.
var ErrNoAnswer = errors.New("no answer to confirmation prompt (end of input)")

// Choices is the hint printed after every question.
const Choices = "[y/n/always_yes/always_no]"

// String returns the command-line spelling of p.
func (p Policy) String() string {
	switch p {
	case Ask:
		return "ask"
	case AlwaysYes:
		return "always_yes"
	case AlwaysNo:
		return "always_no"
	default:
		return "unknown"
	}
}

// ParsePolicy parses "ask", "always_yes" or "always_no" (case-insensitive).
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ask":
		return Ask, nil
	case "always_yes", "yes":
		return AlwaysYes, nil
	case "always_no", "no":
		return AlwaysNo, nil
	}
	return Ask, fmt.Errorf("invalid overwrite policy %q (valid: ask, always_yes, always_no)", s)
}

// decided reports the answer for a policy that no longer asks.
func (p Policy) decided() (answer, ok bool) {
	switch p {
	case AlwaysYes:
		return true, true
	case AlwaysNo:
		return false, true
	}
	return false, false
}

// apply interprets one operator token. It returns ok=false for tokens that
// are not a valid answer. always_* tokens move *p out of Ask for good.
func apply(token string, p *Policy) (answer, ok bool) {
	switch strings.ToLower(token) {
	case "y", "yes":
		return true, true
	case "n", "no":
		return false, true
	case "always_yes":
		*p = AlwaysYes
		return true, true
	case "always_no":
		*p = AlwaysNo
		return false, true
	}
	return false, false
}
