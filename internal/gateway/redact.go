package gateway

import (
	"net/url"
	"regexp"
	"strings"
)

const redactedPlaceholder = "[REDACTED]"

// Field names whose values are personal data and must never reach the logs.
var sensitiveKeys = []string{
	"name", "email", "phone", "mobile", "contact",
	"address", "city", "state", "pincode", "zip",
	"pass", "secret", "token", "udf",
}

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`(\+?91[\-\s]?)?[6-9]\d{9}`)
)

// Redact copies callback fields into a loggable map with personal data
// stripped. Keys that name personal fields are blanked wholesale; remaining
// values are scrubbed of anything shaped like an email or an Indian phone
// number.
func Redact(values url.Values) map[string]string {
	out := make(map[string]string, len(values))
	for key, list := range values {
		value := ""
		if len(list) > 0 {
			value = list[0]
		}
		if isSensitiveKey(key) {
			out[key] = redactedPlaceholder
			continue
		}
		value = emailPattern.ReplaceAllString(value, redactedPlaceholder)
		value = phonePattern.ReplaceAllString(value, redactedPlaceholder)
		out[key] = value
	}
	return out
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, marker := range sensitiveKeys {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
