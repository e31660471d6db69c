// Package identity resolves optional checkout identity tokens. Resolution
// failure is never fatal: a token that does not parse degrades to a guest
// checkout.
package identity

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

// Resolution is a closed two-variant result: either the token resolved to a
// customer id, or the order proceeds as guest. Call sites switch on the
// concrete type so the guest case cannot be skipped.
type Resolution interface {
	isResolution()
}

type Identified struct {
	CustomerID string
}

type Guest struct{}

func (Identified) isResolution() {}
func (Guest) isResolution()      {}

type Resolver struct {
	secret []byte
	logger *logrus.Logger
}

func NewResolver(secret string, logger *logrus.Logger) *Resolver {
	return &Resolver{
		secret: []byte(secret),
		logger: logger,
	}
}

// Resolve maps an identity token to a customer id. Any failure (empty token,
// bad signature, missing subject) resolves to Guest.
func (r *Resolver) Resolve(token string) Resolution {
	if token == "" || len(r.secret) == 0 {
		return Guest{}
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return r.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		r.logger.WithError(err).Debug("Identity token did not resolve, continuing as guest")
		return Guest{}
	}

	sub, err := parsed.Claims.GetSubject()
	if err != nil || sub == "" {
		r.logger.Debug("Identity token has no subject, continuing as guest")
		return Guest{}
	}

	return Identified{CustomerID: sub}
}
