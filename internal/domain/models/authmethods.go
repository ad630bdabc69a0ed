// internal/domain/models/authmethods.go
package models

// Supported authentication methods. The stored value on User.AuthMethod is
// one of these.
const (
	AuthPassword = "password"
	AuthGoogle   = "google"
)

// IsValidAuthMethod checks if a value is a supported auth method.
func IsValidAuthMethod(value string) bool {
	return value == AuthPassword || value == AuthGoogle
}
