package services

import (
	"database/sql"
	"errors"

	"storefront/internal/domain"
	"storefront/internal/repos"

	"golang.org/x/crypto/bcrypt"
)

// AuthService is the mock login gate. The logged-in user lives in the
// session's storage under KeyUser.
type AuthService struct {
	Users *repos.UserRepo
}

func NewAuthService(users *repos.UserRepo) *AuthService { return &AuthService{Users: users} }

func (s *AuthService) Login(sess *Session, email, password string) (*domain.User, error) {
	u, err := s.Users.ByEmail(email)
	if err != nil {
		return nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	if err := repos.Save(sess.Store, KeyUser, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Signup registers email and logs the new user in.
func (s *AuthService) Signup(sess *Session, email, password string) (*domain.User, error) {
	if _, err := s.Users.ByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u, err := s.Users.Create(email, "New User", string(h))
	if err != nil {
		return nil, err
	}
	if err := repos.Save(sess.Store, KeyUser, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Logout(sess *Session) error {
	return sess.Store.Delete(KeyUser)
}

// UpdateName renames the logged-in user and refreshes the session's copy.
func (s *AuthService) UpdateName(sess *Session, name string) (*domain.User, error) {
	cur := sess.CurrentUser()
	if cur == nil {
		return nil, ErrNotLoggedIn
	}
	if err := s.Users.UpdateName(cur.ID, name); err != nil {
		return nil, err
	}
	u, err := s.Users.ByID(cur.ID)
	if err != nil {
		return nil, err
	}
	if err := repos.Save(sess.Store, KeyUser, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) CurrentUser(sess *Session) (*domain.User, error) {
	if u := sess.CurrentUser(); u != nil {
		return u, nil
	}
	return nil, ErrNotLoggedIn
}
