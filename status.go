package fetch

import "net/http"

// lookupStatusText returns the reason phrase for code, "" when unknown.
func lookupStatusText(code int) string {
	return http.StatusText(code)
}
