package authgate

import (
	"fmt"
	"html"
	"strings"
)

// Principal is the verified identity of a mini-app caller. It only ever comes
// out of a successful Validate and is never persisted.
type Principal struct {
	ID           uint64 `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
	IsPremium    bool   `json:"is_premium,omitempty"`
}

// webAppUser mirrors the init-data "user" object. Pointers mark the fields
// that must be present.
type webAppUser struct {
	ID           *uint64 `json:"id"`
	FirstName    *string `json:"first_name"`
	LastName     string  `json:"last_name"`
	Username     string  `json:"username"`
	LanguageCode string  `json:"language_code"`
	IsPremium    bool    `json:"is_premium"`
}

func (u webAppUser) principal() (*Principal, error) {
	if u.ID == nil {
		return nil, fmt.Errorf("%w: user.id is missing", ErrMalformedPrincipal)
	}
	if u.FirstName == nil {
		return nil, fmt.Errorf("%w: user.first_name is missing", ErrMalformedPrincipal)
	}
	return &Principal{
		ID:           *u.ID,
		FirstName:    *u.FirstName,
		LastName:     u.LastName,
		Username:     u.Username,
		LanguageCode: u.LanguageCode,
		IsPremium:    u.IsPremium,
	}, nil
}

// UserID returns the principal id in the signed form used by chat APIs.
func (p *Principal) UserID() int64 { return int64(p.ID) }

// FullName joins first and last name.
func (p *Principal) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Mention renders an HTML link to the principal's profile.
func (p *Principal) Mention() string {
	return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, p.ID, html.EscapeString(p.FullName()))
}
