// Package authgate verifies the init-data a Telegram mini-app hands to the
// backend and extracts the caller's identity from it.
//
// The payload is URL-encoded key/value pairs signed by the platform with
// HMAC-SHA256(HMAC-SHA256("WebAppData", botToken), dataCheckString), see
// https://core.telegram.org/bots/webapps#validating-data-received-via-the-mini-app.
package authgate

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	hashField     = "hash"
	authDateField = "auth_date"
	userField     = "user"

	keyDerivationLabel = "WebAppData"
)

// NoMaxAge disables the auth_date freshness check.
const NoMaxAge time.Duration = 0

// Validate checks payload against secret (the bot token) and, when maxAge is
// positive, requires auth_date to be no older than maxAge.
func Validate(payload, secret []byte, maxAge time.Duration) (*Principal, error) {
	return ValidateAt(payload, secret, maxAge, time.Now())
}

// ValidateAt is Validate with an explicit clock.
func ValidateAt(payload, secret []byte, maxAge time.Duration, now time.Time) (*Principal, error) {
	if len(payload) == 0 || len(secret) == 0 {
		return nil, ErrBadArgs
	}

	fields, err := parseFields(payload)
	if err != nil {
		return nil, err
	}

	hash, ok := fields[hashField]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, hashField)
	}
	delete(fields, hashField)

	if maxAge > 0 {
		if err := checkFreshness(fields, maxAge, now); err != nil {
			return nil, err
		}
	}

	expected := signature(DataCheckString(fields), secret)

	given, err := hex.DecodeString(hash)
	if err != nil || !hmac.Equal(expected, given) {
		return nil, ErrHashMismatch
	}

	raw, ok := fields[userField]
	if !ok {
		return nil, fmt.Errorf("%w: %s field is missing", ErrMalformedPrincipal, userField)
	}

	var u webAppUser
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPrincipal, err)
	}
	return u.principal()
}

// DataCheckString renders fields sorted by key as key=value lines joined by
// '\n', without a trailing newline. Input order never affects the result.
func DataCheckString(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(fields[k])
	}
	return b.String()
}

// Sign returns fields encoded as init-data with a valid hash for secret.
// Any hash already present in fields is ignored.
func Sign(fields url.Values, secret []byte) string {
	flat := make(map[string]string, len(fields))
	for k, v := range fields {
		if k == hashField || len(v) == 0 {
			continue
		}
		flat[k] = v[len(v)-1]
	}

	out := url.Values{}
	for k, v := range flat {
		out.Set(k, v)
	}
	out.Set(hashField, hex.EncodeToString(signature(DataCheckString(flat), secret)))
	return out.Encode()
}

// parseFields decodes payload keeping the last value of a repeated key.
func parseFields(payload []byte) (map[string]string, error) {
	values, err := url.ParseQuery(string(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadData, err)
	}

	fields := make(map[string]string, len(values))
	for k, v := range values {
		fields[k] = v[len(v)-1]
	}
	return fields, nil
}

func checkFreshness(fields map[string]string, maxAge time.Duration, now time.Time) error {
	raw, ok := fields[authDateField]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMissingField, authDateField)
	}

	seconds, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBadData, authDateField, err)
	}

	if now.Sub(time.Unix(int64(seconds), 0)) > maxAge {
		return ErrTooOld
	}
	return nil
}

func signature(dataCheckString string, secret []byte) []byte {
	inner := hmac.New(sha256.New, []byte(keyDerivationLabel))
	inner.Write(secret)

	mac := hmac.New(sha256.New, inner.Sum(nil))
	mac.Write([]byte(dataCheckString))
	return mac.Sum(nil)
}
