package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/shamseergtct/gtct-analytics/config"
)

type JwtCustomClaim struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.StandardClaims
}

func jwtSecret() []byte {
	secret := config.GetSettings().Auth.ApiSecret
	if secret == "" {
		return []byte("gtct-analytics-secret")
	}
	return []byte(secret)
}

func JwtGenerate(userID int, username string, role string) (string, error) {
	lifespan := config.GetSettings().Auth.TokenHourLifespan
	if lifespan <= 0 {
		return "", fmt.Errorf("invalid token lifespan %d", lifespan)
	}

	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, &JwtCustomClaim{
		ID:       userID,
		Username: username,
		Role:     role,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(time.Hour * time.Duration(lifespan)).Unix(),
			IssuedAt:  now.Unix(),
		},
	})
	return t.SignedString(jwtSecret())
}

func JwtValidate(token string) (*jwt.Token, error) {
	return jwt.ParseWithClaims(token, &JwtCustomClaim{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("there's a problem with the signing method")
		}
		return jwtSecret(), nil
	})
}

// JwtClaims validates the token and returns its claims.
func JwtClaims(token string) (*JwtCustomClaim, error) {
	t, err := JwtValidate(token)
	if err != nil {
		return nil, err
	}
	claims, ok := t.Claims.(*JwtCustomClaim)
	if !ok || !t.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
