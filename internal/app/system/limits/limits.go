// internal/app/system/limits/limits.go
package limits

// Request body size limits for various features.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxJSONBodySize is the maximum size for most JSON request bodies
	// (role updates, challenge actions, auth requests).
	MaxJSONBodySize = 256 << 10 // 256 KB

	// MaxCollaborationBodySize is the maximum size for collaboration
	// create/update bodies, which carry a full role set with rich-text
	// descriptions.
	MaxCollaborationBodySize = 1 << 20 // 1 MB
)
