package class_test

import (
	"context"
	"sync"
	"testing"

	"courseconnect/internal/apperr"
	"courseconnect/internal/class"
	"courseconnect/internal/logging"
	"courseconnect/internal/store/memstore"
	"courseconnect/internal/user"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*class.Service, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	return class.NewService(store.Classes(), store.Users(), logging.Discard()), store
}

func addUser(t *testing.T, store *memstore.Store, name string) user.User {
	t.Helper()
	u := user.User{ID: uuid.New(), FullName: name, Email: name + "@example.com"}
	require.NoError(t, store.Users().CreateUser(context.Background(), &u))
	return u
}

func ids(summaries []user.Summary) []uuid.UUID {
	out := make([]uuid.UUID, len(summaries))
	for i, s := range summaries {
		out[i] = s.ID
	}
	return out
}

func TestCreateAndJoin(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()
	creator := addUser(t, store, "creator")
	student := addUser(t, store, "student")

	created, err := svc.CreateClass(ctx, creator.ID, &class.CreateRequest{
		Name:        " Databases ",
		Code:        "CS301",
		Description: "Relational theory",
		Instructor:  "Dr. Codd",
	})
	require.NoError(t, err)
	assert.Equal(t, "Databases", created.Name)
	assert.Equal(t, creator.ID, created.CreatedBy.ID)
	assert.Equal(t, "creator", created.CreatedBy.FullName)
	assert.Equal(t, []uuid.UUID{creator.ID}, ids(created.Students))

	joined, err := svc.JoinClass(ctx, student.ID, &class.JoinRequest{Code: "CS301"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, joined.ID)
	assert.Equal(t, []uuid.UUID{creator.ID, student.ID}, ids(joined.Students))

	_, err = svc.JoinClass(ctx, student.ID, &class.JoinRequest{Code: "CS301"})
	require.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, "You are already enrolled in this class", apperr.PublicMessage(err, ""))

	classes, err := svc.ListUserClasses(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "CS301", classes[0].Code)
	assert.Len(t, classes[0].Students, 2)

	mates, err := svc.ListClassmates(ctx, created.ID.String(), student.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{creator.ID}, ids(mates))
}

func TestCreateClass_Errors(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()
	creator := addUser(t, store, "creator")

	_, err := svc.CreateClass(ctx, creator.ID, &class.CreateRequest{Name: "A", Code: "DUP", Instructor: "I"})
	require.NoError(t, err)

	tests := []struct {
		name string
		req  class.CreateRequest
		kind error
		msg  string
	}{
		{"missing name", class.CreateRequest{Code: "X1", Instructor: "I"}, apperr.ErrValidation, "Name, code, and instructor are required"},
		{"blank instructor", class.CreateRequest{Name: "A", Code: "X1", Instructor: "  "}, apperr.ErrValidation, "Name, code, and instructor are required"},
		{"duplicate code", class.CreateRequest{Name: "B", Code: "DUP", Instructor: "I"}, apperr.ErrConflict, "Class code already exists"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateClass(ctx, creator.ID, &tt.req)
			require.ErrorIs(t, err, tt.kind)
			assert.Equal(t, tt.msg, apperr.PublicMessage(err, ""))
		})
	}
}

func TestCreateAndJoin_UnknownUserIsUnauthenticated(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()
	creator := addUser(t, store, "creator")
	_, err := svc.CreateClass(ctx, creator.ID, &class.CreateRequest{Name: "A", Code: "REAL", Instructor: "I"})
	require.NoError(t, err)

	ghost := uuid.New()
	_, err = svc.CreateClass(ctx, ghost, &class.CreateRequest{Name: "A", Code: "X1", Instructor: "I"})
	require.ErrorIs(t, err, apperr.ErrUnauthenticated)
	_, err = store.Classes().GetClassByCode(ctx, "X1")
	assert.ErrorIs(t, err, apperr.ErrNotFound, "no class is created")

	_, err = svc.JoinClass(ctx, ghost, &class.JoinRequest{Code: "REAL"})
	require.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestCreateClass_ConcurrentSameCodeYieldsOneClass(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()
	creator := addUser(t, store, "creator")

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateClass(ctx, creator.ID, &class.CreateRequest{Name: "Race", Code: "RACE", Instructor: "I"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, apperr.ErrConflict)
	}
	assert.Equal(t, 1, ok)
}

func TestJoinClass_Errors(t *testing.T) {
	svc, store := setup(t)
	u := addUser(t, store, "u")

	_, err := svc.JoinClass(context.Background(), u.ID, &class.JoinRequest{Code: " "})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.JoinClass(context.Background(), u.ID, &class.JoinRequest{Code: "NOPE"})
	require.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, "Class not found", apperr.PublicMessage(err, ""))
}

func TestJoinClass_ConcurrentJoinsAddOnce(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()
	creator := addUser(t, store, "creator")
	c, err := svc.CreateClass(ctx, creator.ID, &class.CreateRequest{Name: "A", Code: "JOIN", Instructor: "I"})
	require.NoError(t, err)

	students := make([]user.User, 5)
	for i := range students {
		students[i] = addUser(t, store, "s"+string(rune('a'+i)))
	}

	var wg sync.WaitGroup
	for _, s := range students {
		for range 3 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = svc.JoinClass(ctx, s.ID, &class.JoinRequest{Code: "JOIN"})
			}()
		}
	}
	wg.Wait()

	mates, err := svc.ListClassmates(ctx, c.ID.String(), creator.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{students[0].ID, students[1].ID, students[2].ID, students[3].ID, students[4].ID}, ids(mates))
}

func TestListClassmates_Access(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()
	creator := addUser(t, store, "creator")
	outsider := addUser(t, store, "outsider")
	c, err := svc.CreateClass(ctx, creator.ID, &class.CreateRequest{Name: "A", Code: "ACL", Instructor: "I"})
	require.NoError(t, err)

	mates, err := svc.ListClassmates(ctx, c.ID.String(), creator.ID)
	require.NoError(t, err)
	assert.Empty(t, mates, "requester is excluded")

	_, err = svc.ListClassmates(ctx, c.ID.String(), outsider.ID)
	require.ErrorIs(t, err, apperr.ErrForbidden)
	assert.Equal(t, "You are not enrolled in this class", apperr.PublicMessage(err, ""))

	_, err = svc.ListClassmates(ctx, uuid.NewString(), creator.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.ListClassmates(ctx, "not-a-uuid", creator.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListUserClasses_Empty(t *testing.T) {
	svc, store := setup(t)
	u := addUser(t, store, "loner")

	classes, err := svc.ListUserClasses(context.Background(), u.ID)
	require.NoError(t, err)
	assert.NotNil(t, classes)
	assert.Empty(t, classes)
}
