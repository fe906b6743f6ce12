package authgate

import "errors"

// Validation failures. All of them are terminal for the calling request.
var (
	ErrBadArgs            = errors.New("authgate: empty payload or secret")
	ErrBadData            = errors.New("authgate: payload is not valid url-encoded data")
	ErrMissingField       = errors.New("authgate: required field is missing")
	ErrTooOld             = errors.New("authgate: payload is too old")
	ErrHashMismatch       = errors.New("authgate: hash mismatch")
	ErrMalformedPrincipal = errors.New("authgate: malformed user")
)

// Kind returns a short stable label for err, suitable for metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrBadArgs):
		return "bad_args"
	case errors.Is(err, ErrBadData):
		return "bad_data"
	case errors.Is(err, ErrMissingField):
		return "missing_field"
	case errors.Is(err, ErrTooOld):
		return "too_old"
	case errors.Is(err, ErrHashMismatch):
		return "hash_mismatch"
	case errors.Is(err, ErrMalformedPrincipal):
		return "malformed_principal"
	default:
		return "unknown"
	}
}
