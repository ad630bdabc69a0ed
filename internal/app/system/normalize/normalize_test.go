package normalize

import (
	"reflect"
	"testing"
)

func TestEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"user@example.com", "user@example.com"},
		{"USER@EXAMPLE.COM", "user@example.com"},
		{"  User@Example.Com  ", "user@example.com"},
		{"", ""},
		{"   ", ""},
		{"Mixed.Case@Domain.ORG", "mixed.case@domain.org"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Email(tt.input)
			if got != tt.want {
				t.Errorf("Email(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"John Doe", "John Doe"},
		{"  John Doe  ", "John Doe"},
		{"", ""},
		{"   ", ""},
		{"UPPERCASE NAME", "UPPERCASE NAME"}, // Name preserves case
		{"lowercase name", "lowercase name"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Name(tt.input)
			if got != tt.want {
				t.Errorf("Name(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestAuthMethod(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"password", "password"},
		{"PASSWORD", "password"},
		{"  Google  ", "google"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := AuthMethod(tt.input)
			if got != tt.want {
				t.Errorf("AuthMethod(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"active", "active"},
		{"ACTIVE", "active"},
		{"  Disabled  ", "disabled"},
		{"  Pending  ", "pending"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Status(tt.input)
			if got != tt.want {
				t.Errorf("Status(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRole(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"admin", "admin"},
		{"ADMIN", "admin"},
		{"  SuperAdmin  ", "superadmin"},
		{"MEMBER", "member"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Role(tt.input)
			if got != tt.want {
				t.Errorf("Role(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRoleStatus(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"OPEN", "OPEN"},
		{"open", "OPEN"},
		{"  Filled  ", "FILLED"},
		{"completed", "COMPLETED"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := RoleStatus(tt.input)
			if got != tt.want {
				t.Errorf("RoleStatus(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestQueryParam(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"search term", "search term"},
		{"  trimmed  ", "trimmed"},
		{"", ""},
		{"   ", ""},
		{"UPPERCASE", "UPPERCASE"}, // Preserves case
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := QueryParam(tt.input)
			if got != tt.want {
				t.Errorf("QueryParam(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFilterID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"507f1f77bcf86cd799439011", "507f1f77bcf86cd799439011"},
		{"  507f1f77bcf86cd799439011  ", "507f1f77bcf86cd799439011"},
		{"all", ""},     // "all" converts to empty
		{"ALL", ""},     // case-insensitive
		{"  All  ", ""}, // with whitespace
		{"", ""},
		{"   ", ""},
		{"somevalue", "somevalue"}, // non-"all" values preserved
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := FilterID(tt.input)
			if got != tt.want {
				t.Errorf("FilterID(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSkills(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{"nil", nil, nil},
		{"empty", []string{}, nil},
		{"trims entries", []string{"  Go  ", "Design"}, []string{"Go", "Design"}},
		{"drops blanks", []string{"Go", "", "   ", "Rust"}, []string{"Go", "Rust"}},
		{"dedupes case-insensitively", []string{"Go", "go", "GO", "Rust"}, []string{"Go", "Rust"}},
		{"keeps first casing", []string{"writing", "Writing"}, []string{"writing"}},
		{"all blank", []string{"", "  "}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Skills(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Skills(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
