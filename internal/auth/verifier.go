package auth

import (
	"context"
	"errors"
)

// Role names carried by principals. A connection's role decides its
// baseline role room.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
	RoleDelivery = "delivery"
)

var (
	ErrTokenMissing     = errors.New("credential missing")
	ErrTokenInvalid     = errors.New("credential invalid")
	ErrTokenExpired     = errors.New("credential expired")
	ErrUnknownPrincipal = errors.New("unknown principal")
	ErrAccountBlocked   = errors.New("account blocked")
)

// Principal is the authenticated identity bound to a connection.
type Principal struct {
	ID   string
	Name string
	Role string
}

// PrincipalSource resolves a token subject to a live principal record.
// It must return ErrUnknownPrincipal for missing users and
// ErrAccountBlocked for deactivated ones.
type PrincipalSource interface {
	Principal(ctx context.Context, userID string) (Principal, error)
}

// Verifier turns a handshake bearer credential into a Principal.
type Verifier struct {
	issuer *TokenIssuer
	users  PrincipalSource
}

func NewVerifier(issuer *TokenIssuer, users PrincipalSource) *Verifier {
	return &Verifier{issuer: issuer, users: users}
}

// Authenticate verifies the credential and resolves its subject. Any
// returned error means the connection must be refused before it joins
// any room.
func (v *Verifier) Authenticate(ctx context.Context, credential string) (Principal, error) {
	if credential == "" {
		return Principal{}, ErrTokenMissing
	}
	claims, err := v.issuer.parse(credential)
	if err != nil {
		return Principal{}, err
	}
	return v.users.Principal(ctx, claims.UserID)
}
