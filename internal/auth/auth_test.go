package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	users   map[string]Principal
	blocked map[string]bool
}

func (f *fakeSource) Principal(_ context.Context, id string) (Principal, error) {
	if f.blocked[id] {
		return Principal{}, ErrAccountBlocked
	}
	p, ok := f.users[id]
	if !ok {
		return Principal{}, ErrUnknownPrincipal
	}
	return p, nil
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		users: map[string]Principal{
			"u1": {ID: "u1", Name: "Ana", Role: RoleCustomer},
		},
		blocked: map[string]bool{"u2": true},
	}
}

func TestAuthenticate_RoundTrip(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenIssuer("some_secret", time.Hour)
	v := NewVerifier(issuer, newFakeSource())

	token, err := issuer.Generate("u1", RoleCustomer)
	req.NoError(err)

	p, err := v.Authenticate(context.Background(), token)
	req.NoError(err)
	req.Equal("u1", p.ID)
	req.Equal("Ana", p.Name)
	req.Equal(RoleCustomer, p.Role)
}

func TestAuthenticate_Failures(t *testing.T) {
	issuer := NewTokenIssuer("some_secret", time.Hour)
	v := NewVerifier(issuer, newFakeSource())

	goodToken := func(userID string) string {
		tok, err := issuer.Generate(userID, RoleCustomer)
		require.NoError(t, err)
		return tok
	}
	expiredToken := func() string {
		tok, err := NewTokenIssuer("some_secret", -time.Minute).Generate("u1", RoleCustomer)
		require.NoError(t, err)
		return tok
	}
	foreignToken := func() string {
		tok, err := NewTokenIssuer("other_secret", time.Hour).Generate("u1", RoleCustomer)
		require.NoError(t, err)
		return tok
	}

	tests := []struct {
		name       string
		credential string
		wantErr    error
	}{
		{"missing credential", "", ErrTokenMissing},
		{"garbage credential", "not-a-jwt", ErrTokenInvalid},
		{"wrong signing key", foreignToken(), ErrTokenInvalid},
		{"expired credential", expiredToken(), ErrTokenExpired},
		{"unknown subject", goodToken("ghost"), ErrUnknownPrincipal},
		{"blocked account", goodToken("u2"), ErrAccountBlocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Authenticate(context.Background(), tt.credential)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}
