package logger

import (
	"net/http"
	"strings"
)

const maskPrefix = "****"

// headerMaskers covers the request headers that carry credentials.
var headerMaskers = map[string]func(string) string{
	"authorization": MaskAuthorization,
	"cookie":        MaskCookie,
}

// MaskAuthorization keeps the Bearer scheme and the last four characters
// of the token.
func MaskAuthorization(value string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(value), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		return "Bearer " + keepLast(token, 4)
	}
	return keepLast(value, 4)
}

// MaskCookie masks every cookie value and keeps the names.
func MaskCookie(value string) string {
	var out []string
	for _, part := range strings.Split(value, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if name, val, ok := strings.Cut(part, "="); ok {
			part = strings.TrimSpace(name) + "=" + keepLast(val, 4)
		} else {
			part = keepLast(part, 4)
		}
		out = append(out, part)
	}
	return strings.Join(out, "; ")
}

// MaskAccountNumber keeps the last four digits of a bank account number.
func MaskAccountNumber(value string) string {
	return keepLast(value, 4)
}

// MaskIFSC keeps the four-letter bank code and hides the branch part.
func MaskIFSC(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if len(value) <= 4 {
		return maskPrefix
	}
	return value[:4] + maskPrefix
}

// MaskHeaders flattens headers for logging with credentials masked.
func MaskHeaders(headers http.Header) map[string]string {
	masked := make(map[string]string, len(headers))
	for key, values := range headers {
		joined := strings.Join(values, ",")
		if mask, ok := headerMaskers[strings.ToLower(key)]; ok {
			joined = mask(joined)
		}
		masked[key] = joined
	}
	return masked
}

func keepLast(value string, n int) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	runes := []rune(value)
	if len(runes) <= n {
		return maskPrefix + value
	}
	return maskPrefix + string(runes[len(runes)-n:])
}
