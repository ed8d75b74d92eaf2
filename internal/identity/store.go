// Package identity owns user records and the login session. All user
// mutation goes through the store; other components read users through the
// lookup methods and never write them.
package identity

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/modditech/moddi-social/internal/models"
	"github.com/modditech/moddi-social/internal/persistence"
)

var (
	ErrUserNotFound       = fmt.Errorf("user %w", models.ErrNotFound)
	ErrEmailTaken         = fmt.Errorf("%w: user already exists with this email", models.ErrConflict)
	ErrInvalidEmail       = fmt.Errorf("%w: invalid email address", models.ErrInvalidInput)
	ErrMissingField       = fmt.Errorf("%w: missing required field", models.ErrInvalidInput)
	ErrInvalidCredentials = fmt.Errorf("%w: incorrect email or password", models.ErrUnauthorized)
	ErrNoSession          = fmt.Errorf("session %w", models.ErrNotFound)
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// CredentialVerifier checks an email/secret pair against stored credentials.
// The store treats it as opaque: hashing scheme and storage policy belong to
// the implementation (see internal/auth for the default).
type CredentialVerifier interface {
	Verify(email, secret string) (*models.User, error)
}

// Store holds user records and active sessions in memory.
type Store struct {
	mu       sync.Mutex
	users    map[int64]*models.User
	order    []int64 // registration order, for stable listings
	byEmail  map[string]int64
	sessions map[uuid.UUID]int64
	log      *logrus.Logger
}

// NewStore returns an empty identity store. logger may be nil.
func NewStore(logger *logrus.Logger) *Store {
	if logger == nil {
		logger = logrus.New()
	}
	return &Store{
		users:    make(map[int64]*models.User),
		byEmail:  make(map[string]int64),
		sessions: make(map[uuid.UUID]int64),
		log:      logger,
	}
}

// RegisterInput carries the fields collected at signup. Password must already
// be encoded by the caller's credential capability.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      models.Role
}

// Register creates a new account and logs it in, returning the user and the
// fresh session token.
func (s *Store) Register(in RegisterInput) (*models.User, uuid.UUID, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if in.FirstName == "" || in.Email == "" || in.Password == "" || in.Role == "" {
		return nil, uuid.Nil, ErrMissingField
	}
	if !emailRe.MatchString(in.Email) {
		return nil, uuid.Nil, ErrInvalidEmail
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[in.Email]; exists {
		return nil, uuid.Nil, ErrEmailTaken
	}

	u := &models.User{
		ID:        models.NewID(),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Password:  in.Password,
		Role:      in.Role,
		Avatar:    models.AvatarForRole(in.Role),
		JoinDate:  time.Now().UTC(),
	}
	s.users[u.ID] = u
	s.order = append(s.order, u.ID)
	s.byEmail[u.Email] = u.ID

	token := uuid.New()
	s.sessions[token] = u.ID

	s.log.WithFields(logrus.Fields{"user_id": u.ID, "role": u.Role}).Info("user registered")
	return u, token, nil
}

// Login verifies credentials through the supplied capability and opens a
// session. The session token is how a presentation layer refers back to the
// viewer; every query still takes the viewer id explicitly.
func (s *Store) Login(v CredentialVerifier, email, secret string) (*models.User, uuid.UUID, error) {
	u, err := v.Verify(strings.TrimSpace(strings.ToLower(email)), secret)
	if err != nil {
		return nil, uuid.Nil, ErrInvalidCredentials
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	token := uuid.New()
	s.sessions[token] = u.ID
	return u, token, nil
}

// Logout closes the session for token.
func (s *Store) Logout(token uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[token]; !ok {
		return ErrNoSession
	}
	delete(s.sessions, token)
	return nil
}

// SessionUser resolves a session token to its user.
func (s *Store) SessionUser(token uuid.UUID) (*models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.sessions[token]
	if !ok {
		return nil, false
	}
	u, ok := s.users[id]
	return u, ok
}

// UserByID looks up a user record.
func (s *Store) UserByID(id int64) (*models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	return u, ok
}

// UserByEmail looks up a user record by normalized email.
func (s *Store) UserByEmail(email string) (*models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[strings.TrimSpace(strings.ToLower(email))]
	if !ok {
		return nil, false
	}
	u, ok := s.users[id]
	return u, ok
}

// Exists reports whether a user id is known.
func (s *Store) Exists(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[id]
	return ok
}

// ListVisible returns every user except the viewer and the excluded ids, in
// registration order. Callers pass the viewer's block list as the exclusions.
func (s *Store) ListVisible(viewerID int64, excluded ...int64) []*models.User {
	skip := make(map[int64]bool, len(excluded)+1)
	skip[viewerID] = true
	for _, id := range excluded {
		skip[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.User
	for _, id := range s.order {
		if skip[id] {
			continue
		}
		out = append(out, s.users[id])
	}
	return out
}

// Count returns the number of registered users.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// Update applies a partial profile update. Nil fields are left untouched.
type Update struct {
	FirstName       *string
	LastName        *string
	Bio             *string
	Website         *string
	Location        *string
	Privacy         *models.ProfilePrivacy
	RestrictedUsers *[]int64
}

// UpdateUser mutates the stored record for userID.
func (s *Store) UpdateUser(userID int64, up Update) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	if up.FirstName != nil {
		u.FirstName = *up.FirstName
	}
	if up.LastName != nil {
		u.LastName = *up.LastName
	}
	if up.Bio != nil {
		u.Bio = *up.Bio
	}
	if up.Website != nil {
		u.Website = *up.Website
	}
	if up.Location != nil {
		u.Location = *up.Location
	}
	if up.Privacy != nil {
		u.Privacy = *up.Privacy
	}
	if up.RestrictedUsers != nil {
		u.RestrictedUsers = append([]int64(nil), (*up.RestrictedUsers)...)
	}
	return u, nil
}

// Save writes the user collection through the persistence capability.
// Sessions are deliberately not persisted.
func (s *Store) Save(ctx context.Context, ps persistence.Store) error {
	s.mu.Lock()
	users := make([]*models.User, 0, len(s.order))
	for _, id := range s.order {
		users = append(users, s.users[id])
	}
	s.mu.Unlock()

	data, err := persistence.MarshalSnapshot(users)
	if err != nil {
		return err
	}
	return ps.Save(ctx, persistence.KeyUsers, data)
}

// Load replaces the user collection from the persistence capability. A
// missing snapshot leaves the store empty.
func (s *Store) Load(ctx context.Context, ps persistence.Store) error {
	data, ok, err := ps.Load(ctx, persistence.KeyUsers)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	var users []*models.User
	if err := persistence.UnmarshalSnapshot(data, &users); err != nil {
		return err
	}
	// Stored order may predate the order index; rebuild it by join date, then id.
	sort.SliceStable(users, func(i, j int) bool {
		if users[i].JoinDate.Equal(users[j].JoinDate) {
			return users[i].ID < users[j].ID
		}
		return users[i].JoinDate.Before(users[j].JoinDate)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = make(map[int64]*models.User, len(users))
	s.byEmail = make(map[string]int64, len(users))
	s.order = s.order[:0]
	for _, u := range users {
		s.users[u.ID] = u
		s.byEmail[u.Email] = u.ID
		s.order = append(s.order, u.ID)
	}
	return nil
}
