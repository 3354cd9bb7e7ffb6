package user

import (
	"context"
	"database/sql"
	"errors"

	"ordercastgo/internal/auth"
)

var ErrNotFound = errors.New("user not found")

// User is the durable account record behind a principal.
type User struct {
	ID     string
	Name   string
	Role   string
	Active bool
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Get(ctx context.Context, id string) (*User, error) {
	const q = `SELECT id, name, role, active FROM users WHERE id = $1`
	u := &User{}
	err := s.db.QueryRowContext(ctx, q, id).Scan(&u.ID, &u.Name, &u.Role, &u.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Principal implements auth.PrincipalSource: a deleted account is
// unknown, a deactivated one is blocked; both refuse the handshake.
func (s *Store) Principal(ctx context.Context, userID string) (auth.Principal, error) {
	u, err := s.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return auth.Principal{}, auth.ErrUnknownPrincipal
	}
	if err != nil {
		return auth.Principal{}, err
	}
	if !u.Active {
		return auth.Principal{}, auth.ErrAccountBlocked
	}
	return auth.Principal{ID: u.ID, Name: u.Name, Role: u.Role}, nil
}
