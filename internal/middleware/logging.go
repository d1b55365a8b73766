package myMiddleware

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// TokenParam is the query parameter websocket clients may use instead of a
// cookie or header.
const TokenParam = "token"

type redactingFormatter struct {
	next middleware.LogFormatter
}

// RedactToken wraps an access-log formatter so session tokens passed as
// ?token= never reach the log. The request served downstream is untouched.
func RedactToken(next middleware.LogFormatter) middleware.LogFormatter {
	return redactingFormatter{next: next}
}

func (f redactingFormatter) NewLogEntry(r *http.Request) middleware.LogEntry {
	q := r.URL.Query()
	if !q.Has(TokenParam) {
		return f.next.NewLogEntry(r)
	}
	q.Set(TokenParam, "REDACTED")

	u := *r.URL
	u.RawQuery = q.Encode()
	logged := r.WithContext(r.Context())
	logged.URL = &u
	logged.RequestURI = u.RequestURI()
	return f.next.NewLogEntry(logged)
}
