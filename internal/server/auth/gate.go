// Package auth guards the session channel with the shared application
// password and short-lived HMAC session tokens.
package auth

import (
	"crypto/subtle"
	"time"
)

const sessionSubject = "seedpipe-user"

// Gate checks the shared password and issues tokens that stand in for it.
type Gate struct {
	password string
	secret   []byte
	ttl      time.Duration
}

func NewGate(password, secretKey string, ttl time.Duration) *Gate {
	return &Gate{password: password, secret: []byte(secretKey), ttl: ttl}
}

// CheckPassword reports an exact match with the configured password.
func (g *Gate) CheckPassword(password string) bool {
	return subtle.ConstantTimeCompare([]byte(password), []byte(g.password)) == 1
}

// Issue returns a new session token.
func (g *Gate) Issue() (string, error) {
	return GenerateToken(sessionSubject, g.secret, g.ttl)
}

// Authenticate accepts either the password itself or a valid session token.
func (g *Gate) Authenticate(credential string) bool {
	if credential == "" {
		return false
	}
	if g.CheckPassword(credential) {
		return true
	}
	_, err := ParseToken(credential, g.secret)
	return err == nil
}
