package jwthandling

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ProgressHintClaims is what the browser carries between screens. It is only ever used to
// spot disagreement with the records service, never to decide anything.
type ProgressHintClaims struct {
	CompletedScreen int `json:"completed_screen"`
	jwt.RegisteredClaims
}

func GenerateProgressHintToken(expiresIn time.Duration, accessKey string, completedScreen int, secretKey string) (tokenString string, err error) {
	claims := ProgressHintClaims{
		completedScreen,
		jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   accessKey,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err = token.SignedString([]byte(secretKey))
	return
}

func ValidateProgressHintToken(tokenString string, secretKey string) (claims *ProgressHintClaims, valid bool, err error) {
	token, err := jwt.ParseWithClaims(tokenString, &ProgressHintClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	})
	if token == nil {
		return
	}
	claims, valid = token.Claims.(*ProgressHintClaims)
	valid = valid && token.Valid
	return
}
