package domain

import "errors"

// Backend failure kinds. Callers match them with errors.Is.
var (
	ErrQuotaExceeded = errors.New("quota exceeded")
	ErrNotFound      = errors.New("resource not found")
	ErrRemote        = errors.New("remote error")
	ErrParse         = errors.New("embedded data not found or malformed")
)

// Kind names the failure kind of err, or "" when err is not a backend failure.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrQuotaExceeded):
		return "QuotaExceeded"
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrParse):
		return "ParseError"
	case errors.Is(err, ErrRemote):
		return "RemoteError"
	}
	return ""
}
