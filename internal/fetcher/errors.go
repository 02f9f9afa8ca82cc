package fetcher

import (
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"
)

// Error is returned when the server answers a fetch with a non-2xx status
type Error struct {
	URL    string
	Code   int
	Status string
	Detail []byte
}

func (e *Error) Error() string {
	if len(e.Detail) == 0 {
		return fmt.Sprintf("fetching %s: %s", e.URL, e.Status)
	}
	return fmt.Sprintf("fetching %s: %s: %s", e.URL, e.Status, truncate(e.Detail, 200))
}

// IsNotFound reports whether err is a 404 answer
func IsNotFound(err error) bool {
	return statusCode(err) == http.StatusNotFound
}

// IsUnauthorized reports whether err is a 401 or 403 answer
func IsUnauthorized(err error) bool {
	code := statusCode(err)
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

func statusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}

// truncate cuts b to at most n bytes without splitting a rune
func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	for n > 0 && !utf8.RuneStart(b[n]) {
		n--
	}
	return string(b[:n]) + "..."
}
