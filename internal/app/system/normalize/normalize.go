// Package normalize provides canonicalization helpers for user-supplied
// values before validation and storage.
//
// Every handler that accepts form or JSON input runs the relevant fields
// through these helpers so that lookups, uniqueness checks, and stored
// documents agree on one canonical form.
package normalize

import "strings"

// Email canonicalizes an email address: trimmed and lowercased.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace but preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// AuthMethod canonicalizes an authentication method name: trimmed and
// lowercased ("password", "google").
func AuthMethod(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Status canonicalizes a lowercase status value such as an account status
// ("active", "disabled") or a challenge status ("pending", "live",
// "archived").
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Role canonicalizes an account role: trimmed and lowercased
// ("member", "admin", "superadmin").
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// RoleStatus canonicalizes a role lifecycle state: trimmed and uppercased
// ("OPEN", "FILLED", "COMPLETED", "ABANDONED").
func RoleStatus(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// QueryParam trims a free-text query parameter, preserving case.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// FilterID canonicalizes an ID filter query parameter. The literal "all"
// (any case) means no filter and maps to the empty string.
func FilterID(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "all") {
		return ""
	}
	return s
}

// Skills canonicalizes a skill list: each entry trimmed, empties dropped,
// and duplicates removed case-insensitively while preserving the casing of
// the first occurrence. Order is preserved.
func Skills(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
