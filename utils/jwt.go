package utils

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt"

	"github.com/gabedeluna/kambo-klarity/config"
)

// ErrWaiverSecretMissing means no signing secret is configured. Tokens signed
// with an empty key would be forgeable, so signing and parsing both refuse.
var ErrWaiverSecretMissing = errors.New("waiver secret is not configured")

func waiverSecret() ([]byte, error) {
	secret := config.AppConfig.WaiverSecret
	if secret == "" {
		secret = os.Getenv("WAIVER_SECRET")
	}
	if secret == "" {
		return nil, ErrWaiverSecretMissing
	}
	return []byte(secret), nil
}

// GenerateWaiverToken signs a short-lived token that identifies who a waiver
// link was issued to and for which session type. The waiver mini-app
// validates it before accepting a signature.
func GenerateWaiverToken(telegramID, sessionType string, duration time.Duration) (string, error) {
	secret, err := waiverSecret()
	if err != nil {
		return "", err
	}
	claims := jwt.MapClaims{
		"sub":         telegramID,
		"sessionType": sessionType,
		"iat":         time.Now().Unix(),
		"exp":         time.Now().Add(duration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseWaiverToken validates a waiver token and returns who it was issued to
// and the session type it covers.
func ParseWaiverToken(tokenString string) (telegramID, sessionType string, err error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return waiverSecret()
	})
	if err != nil {
		return "", "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", "", errors.New("invalid waiver token")
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", "", errors.New("waiver token missing subject")
	}
	sessionType, _ = claims["sessionType"].(string)
	return sub, sessionType, nil
}
