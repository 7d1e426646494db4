package api

import "regexp"

type (
	// PlanID names a stored plan. It doubles as the plan's storage key and
	// its route under /run
	PlanID string

	// ExecutionID uniquely identifies one execution of a plan
	ExecutionID string
)

var validPlanID = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Valid reports whether id is usable as a plan name: letters, digits,
// underscore and hyphen only
func (id PlanID) Valid() bool {
	return validPlanID.MatchString(string(id))
}
