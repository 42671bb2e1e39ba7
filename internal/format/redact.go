package format

import "strings"

// Redacted replaces sensitive header values on screen
const Redacted = "[REDACTED]"

// sensitiveHeaders lists headers whose values are hidden when displayed.
// Stored values are never changed.
var sensitiveHeaders = map[string]bool{
	// Standard authentication headers
	"authorization":       true,
	"proxy-authorization": true,
	"www-authenticate":    true,

	// Session and token headers
	"cookie":       true,
	"set-cookie":   true,
	"x-api-key":    true,
	"api-key":      true,
	"x-auth-token": true,
	"x-csrf-token": true,
	"x-xsrf-token": true,

	// Cloud credentials
	"x-amz-security-token":     true,
	"x-amz-credential":         true,
	"x-amz-signature":          true,
	"x-goog-iap-jwt-assertion": true,
	"x-ms-token-aad-id-token":  true,

	"x-access-token":  true,
	"x-refresh-token": true,
	"x-session-token": true,
	"x-secret-key":    true,
	"x-private-key":   true,
}

// IsSensitiveHeader reports whether key names a credential-bearing header
func IsSensitiveHeader(key string) bool {
	return sensitiveHeaders[strings.ToLower(strings.TrimSpace(key))]
}

// RedactHeader returns Redacted for sensitive keys and value otherwise
func RedactHeader(key, value string) string {
	if IsSensitiveHeader(key) && value != "" {
		return Redacted
	}
	return value
}
