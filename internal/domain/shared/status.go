package shared

import "fmt"

// Transitions lists, for every status, the statuses it may move to
type Transitions[S ~string] map[S][]S

// Can reports whether from -> to is allowed
func (t Transitions[S]) Can(from, to S) bool {
	for _, next := range t[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Check returns an INVALID_STATE error when from -> to is not allowed
func (t Transitions[S]) Check(entity string, from, to S) error {
	if t.Can(from, to) {
		return nil
	}
	return NewDomainError(CodeInvalidState, fmt.Sprintf("%s cannot move from %s to %s", entity, from, to))
}

// Known reports whether s is a status of this machine
func (t Transitions[S]) Known(s S) bool {
	if _, ok := t[s]; ok {
		return true
	}
	for _, nexts := range t {
		for _, n := range nexts {
			if n == s {
				return true
			}
		}
	}
	return false
}
