// Package auth issues the signed tokens embedded in "edit ad" links.
//
// When a user asks to edit an ad, the bot opens the mini-app with an
// EditToken in the URL; the mini-app posts it back with the new form so the
// backend knows which group message and which report to replace.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/swappy/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// EditTarget identifies the ad being edited.
type EditTarget struct {
	UserID    int64 `json:"uid"`
	MessageID int   `json:"mid"`
	ReportID  int   `json:"rid"`
}

// Claims include the standard claims plus the edit target.
type Claims struct {
	jwt.RegisteredClaims
	EditTarget
}

func GenerateToken(target EditTarget, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		EditTarget: target,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func ParseToken(tokenString string, secretKey []byte) (EditTarget, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return EditTarget{}, common.ErrTokenExpired
		}
		return EditTarget{}, fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}

	if !token.Valid {
		return EditTarget{}, common.ErrInvalidToken
	}

	return claims.EditTarget, nil
}
