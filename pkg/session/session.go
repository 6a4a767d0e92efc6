// Package session holds the signed-in user shared by the page. Widgets get the
// user from here at construction and never write back.
package session

import (
	"errors"
	"sync"

	"videocomments/pkg/models"
)

var ErrNoUser = errors.New("no user signed in")

type Store struct {
	mu   sync.RWMutex
	user *models.User
}

// New returns a store with user signed in. A zero user leaves the store empty.
func New(user models.User) *Store {
	s := &Store{}
	if user.ID != "" {
		s.SignIn(user)
	}

	return s
}

func (s *Store) SignIn(user models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = &user
}

func (s *Store) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = nil
}

// CurrentUser returns a copy of the signed-in user or ErrNoUser.
func (s *Store) CurrentUser() (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return models.User{}, ErrNoUser
	}

	return *s.user, nil
}
