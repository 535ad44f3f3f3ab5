package models

// Status is a branch lifecycle state communicated through events.
//
// Transitions: requested -> activating -> active, and requested/active ->
// deactivating -> inactive. Any in-flight state may land on error instead of
// its success target. error and inactive end an attempt but not the branch:
// a branch that reached inactive may be re-requested, restarting the cycle.
type Status string

const (
	StatusRequested    Status = "requested"
	StatusActivating   Status = "activating"
	StatusActive       Status = "active"
	StatusDeactivating Status = "deactivating"
	StatusInactive     Status = "inactive"
	StatusError        Status = "error"
)

// Valid reports whether s is a member of the closed status enum.
func (s Status) Valid() bool {
	switch s {
	case StatusRequested, StatusActivating, StatusActive, StatusDeactivating, StatusInactive, StatusError:
		return true
	}
	return false
}
