// internal/app/system/search/search.go
package search

import "strings"

// EmailPivotOK reports whether it’s safe & useful to pivot a paged user
// search from name-based sorting to email-based sorting.
//
// We consider it safe to pivot when:
//   - The user is clearly searching by email (the query contains '@'), and
//   - The result set is constrained by status (active/disabled), which keeps
//     the indexed {role, status, email, _id} path selective enough.
//
// Typical usage in directory lists:
//
//	pivot := search.EmailPivotOK(query, status)
//	sortField := "full_name_ci"
//	if pivot {
//	    sortField = "email"
//	}
func EmailPivotOK(search, status string) bool {
	qHasAt := strings.Contains(search, "@")
	statusFixed := equalsAnyFold(status, "active", "disabled")
	return qHasAt && statusFixed
}

func equalsAnyFold(s string, vals ...string) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	for _, v := range vals {
		if s == strings.ToLower(v) {
			return true
		}
	}
	return false
}
