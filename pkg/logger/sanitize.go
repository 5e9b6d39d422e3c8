package logger

import (
	"log/slog"
	"strings"
)

// MaskEmail masks the local part of an email for logging and audit storage.
// The first and last characters of the local part are kept, the middle is
// starred, and the domain is preserved ("johndoe@x.com" -> "j*****e@x.com").
// The sentinel "unknown" and anything that does not look like an email pass
// through unchanged.
func MaskEmail(email string) string {
	if email == "unknown" {
		return email
	}

	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return email
	}

	local := email[:at]
	domain := email[at+1:]

	if len(local) <= 2 {
		return string(local[0]) + "*@" + domain
	}

	masked := string(local[0]) + strings.Repeat("*", len(local)-2) + string(local[len(local)-1])
	return masked + "@" + domain
}

// RedactedAttr returns a redacted slog attribute for sensitive values
// In production, returns "[REDACTED]"; in development, returns the actual value
func RedactedAttr(key, value, env string) slog.Attr {
	if env == "production" {
		return slog.String(key, "[REDACTED]")
	}
	return slog.String(key, value)
}

// SanitizeQueryString checks if query string contains sensitive parameters
// and returns true if the entire query string should be redacted
func SanitizeQueryString(rawQuery string) bool {
	sensitiveParams := map[string]bool{
		"password": true,
		"token":    true,
		"secret":   true,
		"api_key":  true,
		"apikey":   true,
		"email":    true,
		"oobcode":  true,
		"auth":     true,
		"csrf":     true,
	}

	query := strings.ToLower(rawQuery)
	for param := range sensitiveParams {
		if strings.Contains(query, param) {
			return true
		}
	}
	return false
}
