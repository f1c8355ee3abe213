package store

import (
	"context"

	"github.com/example/crm-platform/internal/platform/record"
)

// User is a row in the app user directory, used to resolve @mentions to ids.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
}

type UserStore struct {
	rs record.Store
}

func NewUserStore(rs record.Store) *UserStore {
	return &UserStore{rs: rs}
}

func userFromRow(r record.Row) User {
	return User{
		ID:        r.ID,
		Username:  r.String(fieldUsername),
		FirstName: r.String(fieldFirstName),
		LastName:  r.String(fieldLastName),
		Email:     r.String(fieldEmail),
	}
}

// ByUsername looks a user up by exact username. Returns record.ErrNotFound
// when no such user exists.
func (s *UserStore) ByUsername(ctx context.Context, username string) (User, error) {
	rows, err := s.rs.Fetch(ctx, TableUsers, record.Query{
		Where: []record.Filter{record.Eq(fieldUsername, username)},
		Limit: 1,
	})
	if err != nil {
		return User{}, err
	}
	if len(rows) == 0 {
		return User{}, record.ErrNotFound
	}
	return userFromRow(rows[0]), nil
}

func (s *UserStore) Get(ctx context.Context, id int64) (User, error) {
	row, err := s.rs.GetByID(ctx, TableUsers, id)
	if err != nil {
		return User{}, err
	}
	return userFromRow(row), nil
}
