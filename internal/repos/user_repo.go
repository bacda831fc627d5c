package repos

import (
	"database/sql"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

func (r *UserRepo) ByEmail(email string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `SELECT id,email,name,password_hash,created_at FROM users WHERE LOWER(email)=LOWER(?)`, email)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByID(id string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `SELECT id,email,name,password_hash,created_at FROM users WHERE id=?`, id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) UpdateName(id, name string) error {
	res, err := r.DB.Exec(`UPDATE users SET name=? WHERE id=?`, name, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return err
}

// Create inserts a user and returns it with its generated id.
func (r *UserRepo) Create(email, name, hash string) (*domain.User, error) {
	id := uuid.NewString()
	if _, err := r.DB.Exec(`INSERT INTO users(id,email,name,password_hash) VALUES(?,?,?,?)`,
		id, email, name, hash); err != nil {
		return nil, err
	}
	return r.ByID(id)
}
