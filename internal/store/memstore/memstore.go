// Package memstore keeps users, classes and messages in process memory. It
// backs the server's "-d memory" mode and the service tests.
package memstore

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"courseconnect/internal/apperr"
	"courseconnect/internal/chat"
	"courseconnect/internal/class"
	"courseconnect/internal/user"

	"github.com/google/uuid"
)

type membership struct {
	classID uuid.UUID
	userID  uuid.UUID
}

// Store holds every table behind one lock. Slices keep insertion order, which
// stands in for the sequence columns of the SQL schema.
type Store struct {
	mu       sync.RWMutex
	now      func() time.Time
	users    []user.User
	classes  []class.Class
	members  []membership
	messages []chat.Message
}

func New() *Store {
	return &Store{now: time.Now}
}

func (s *Store) Users() *Users       { return &Users{s} }
func (s *Store) Classes() *Classes   { return &Classes{s} }
func (s *Store) Messages() *Messages { return &Messages{s} }

func (s *Store) userIndex(id uuid.UUID) int {
	return slices.IndexFunc(s.users, func(u user.User) bool { return u.ID == id })
}

// Users implements user.Repository.
type Users struct{ s *Store }

var _ user.Repository = (*Users)(nil)

func (r *Users) CreateUser(_ context.Context, u *user.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return apperr.ErrConflict
		}
	}
	u.CreatedAt = r.s.now()
	r.s.users = append(r.s.users, *u)
	return nil
}

func (r *Users) GetUserByEmail(_ context.Context, email string) (*user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (r *Users) GetUserByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	i := r.s.userIndex(id)
	if i < 0 {
		return nil, apperr.ErrNotFound
	}
	u := r.s.users[i]
	return &u, nil
}

func (r *Users) ListUsersExcept(_ context.Context, id uuid.UUID) ([]user.Summary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []user.Summary{}
	for i := range r.s.users {
		if r.s.users[i].ID != id {
			out = append(out, r.s.users[i].Summary())
		}
	}
	slices.SortStableFunc(out, func(a, b user.Summary) int {
		return cmp.Or(cmp.Compare(a.FullName, b.FullName), strings.Compare(a.ID.String(), b.ID.String()))
	})
	return out, nil
}

func (r *Users) ListUsers(_ context.Context) ([]user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return slices.Clone(r.s.users), nil
}

func (r *Users) UpdateProfilePic(_ context.Context, id uuid.UUID, url string) (*user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	i := r.s.userIndex(id)
	if i < 0 {
		return nil, apperr.ErrNotFound
	}
	r.s.users[i].ProfilePic = url
	u := r.s.users[i]
	return &u, nil
}

// Classes implements class.Repository.
type Classes struct{ s *Store }

var _ class.Repository = (*Classes)(nil)

func (r *Classes) CreateClass(_ context.Context, c *class.Class) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.classes {
		if existing.Code == c.Code {
			return apperr.ErrConflict
		}
	}
	c.CreatedAt = r.s.now()
	r.s.classes = append(r.s.classes, *c)
	r.s.members = append(r.s.members, membership{classID: c.ID, userID: c.CreatedBy})
	return nil
}

func (r *Classes) GetClassByCode(_ context.Context, code string) (*class.Class, error) {
	return r.find(func(c class.Class) bool { return c.Code == code })
}

func (r *Classes) GetClassByID(_ context.Context, id uuid.UUID) (*class.Class, error) {
	return r.find(func(c class.Class) bool { return c.ID == id })
}

func (r *Classes) find(match func(class.Class) bool) (*class.Class, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	i := slices.IndexFunc(r.s.classes, match)
	if i < 0 {
		return nil, apperr.ErrNotFound
	}
	c := r.s.classes[i]
	return &c, nil
}

// AddMember checks and appends under the write lock, so concurrent joins of
// the same user cannot both succeed.
func (r *Classes) AddMember(_ context.Context, classID, userID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	m := membership{classID: classID, userID: userID}
	if slices.Contains(r.s.members, m) {
		return false, nil
	}
	r.s.members = append(r.s.members, m)
	return true, nil
}

func (r *Classes) ResetMembers(_ context.Context, classID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.members = slices.DeleteFunc(r.s.members, func(m membership) bool { return m.classID == classID })
	return nil
}

func (r *Classes) ListMembers(_ context.Context, classID uuid.UUID) ([]user.Summary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []user.Summary{}
	for _, m := range r.s.members {
		if m.classID != classID {
			continue
		}
		if i := r.s.userIndex(m.userID); i >= 0 {
			out = append(out, r.s.users[i].Summary())
		}
	}
	return out, nil
}

func (r *Classes) ListClassesForUser(_ context.Context, userID uuid.UUID) ([]class.Class, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []class.Class
	for _, m := range r.s.members {
		if m.userID != userID {
			continue
		}
		if i := slices.IndexFunc(r.s.classes, func(c class.Class) bool { return c.ID == m.classID }); i >= 0 {
			out = append(out, r.s.classes[i])
		}
	}
	return out, nil
}

// Messages implements chat.Repository.
type Messages struct{ s *Store }

var _ chat.Repository = (*Messages)(nil)

func (r *Messages) SaveMessage(_ context.Context, m *chat.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	m.CreatedAt = r.s.now()
	r.s.messages = append(r.s.messages, *m)
	return nil
}

func (r *Messages) GetConversation(_ context.Context, a, b uuid.UUID) ([]chat.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []chat.Message{}
	for _, m := range r.s.messages {
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			out = append(out, m)
		}
	}
	return out, nil
}
