package auth

import (
	"fmt"
	"net/url"
	"time"
)

// EditQueryParam is the mini-app query parameter carrying an edit token.
const EditQueryParam = "edit"

// Links builds mini-app URLs that open the ad form in edit mode.
type Links struct {
	AppURL   *url.URL
	Secret   []byte
	Validity time.Duration
}

// EditURL returns the app URL with a fresh token for target.
func (l *Links) EditURL(target EditTarget) (string, error) {
	tok, err := GenerateToken(target, l.Secret, l.Validity)
	if err != nil {
		return "", fmt.Errorf("edit token: %w", err)
	}

	u := *l.AppURL
	q := u.Query()
	q.Set(EditQueryParam, tok)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Parse validates a token taken from EditQueryParam.
func (l *Links) Parse(token string) (EditTarget, error) {
	return ParseToken(token, l.Secret)
}
