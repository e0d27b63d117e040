package sqlite

import (
	"context"

	"github.com/carrec/platform/internal/domain/model"
)

const userColumns = `id, name, email, hashed_password, bio, avatar_url`

// CreateUser fails with model.ErrConflict when the email is taken.
func (s *Store) CreateUser(ctx context.Context, name, email, passwordHash string) (*model.User, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users(name, email, hashed_password) VALUES (?, ?, ?)`,
		name, email, passwordHash)
	if err != nil {
		return nil, storageErr("create user", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, storageErr("create user", err)
	}
	return &model.User{ID: id, Name: name, Email: email, PasswordHash: passwordHash}, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	err := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Bio, &u.AvatarURL)
	if err != nil {
		return nil, storageErr("get user", err)
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Bio, &u.AvatarURL)
	if err != nil {
		return nil, storageErr("get user by email", err)
	}
	return &u, nil
}

func (s *Store) UpdateUser(ctx context.Context, id int64, in model.UserUpdate) (*model.User, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET name = ?, bio = ?, avatar_url = ? WHERE id = ?`,
		in.Name, in.Bio, in.AvatarURL, id)
	if err != nil {
		return nil, storageErr("update user", err)
	}
	if err := requireRow(res, "update user"); err != nil {
		return nil, err
	}
	return s.GetUser(ctx, id)
}
