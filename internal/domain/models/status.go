// internal/domain/models/status.go
package models

// RoleStatusCounts summarizes a collaboration's role set. Filled counts
// roles in FILLED or COMPLETED, mirroring the filled_role_count counter.
type RoleStatusCounts struct {
	Total     int
	Open      int
	Filled    int
	Completed int
}

// CountRoleStatuses tallies a role list for status derivation.
func CountRoleStatuses(roles []Role) RoleStatusCounts {
	var c RoleStatusCounts
	c.Total = len(roles)
	for _, r := range roles {
		switch r.Status {
		case RoleOpen:
			c.Open++
		case RoleFilled:
			c.Filled++
		case RoleCompleted:
			c.Filled++
			c.Completed++
		}
	}
	return c
}

// Status derives the overall collaboration status from the counts:
// RECRUITING when every role is still open, COMPLETED when every role is
// completed, ABANDONED when nothing was ever filled (and roles exist),
// IN_PROGRESS otherwise.
//
// An empty role set derives RECRUITING: zero open roles equals a total of
// zero. That is the defined policy for freshly created collaborations.
func (c RoleStatusCounts) Status() CollaborationStatus {
	switch {
	case c.Open == c.Total:
		return CollabRecruiting
	case c.Completed == c.Total:
		return CollabCompleted
	case c.Filled == 0 && c.Total > 0:
		return CollabAbandoned
	default:
		return CollabInProgress
	}
}

// DeriveCollaborationStatus is the one-step form used by API responses and
// by lifecycle transactions when they refresh the stored status.
func DeriveCollaborationStatus(roles []Role) CollaborationStatus {
	return CountRoleStatuses(roles).Status()
}
