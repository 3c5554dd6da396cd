package authUtils

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

const (
	BrowserCookie   = "civicsync_browser"
	BrowserTokenTTL = 365 * 24 * time.Hour
)

// NewBrowserID returns a fresh browser identity.
func NewBrowserID() string {
	return uuid.NewString()
}

// GenerateBrowserToken signs a token carrying browserID.
func GenerateBrowserToken(secret, browserID string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("JWT secret is not configured")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"browser_id": browserID,
		"exp":        time.Now().Add(BrowserTokenTTL).Unix(),
	})

	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseBrowserToken validates tokenString and returns its browser id.
func ParseBrowserToken(secret, tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid browser token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid token claims")
	}
	browserID, ok := claims["browser_id"].(string)
	if !ok || browserID == "" {
		return "", errors.New("invalid token claims")
	}
	return browserID, nil
}
