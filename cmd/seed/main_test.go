package main

import (
	"context"
	"fmt"
	"testing"

	"courseconnect/internal/logging"
	"courseconnect/internal/store/memstore"
	"courseconnect/internal/user"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeed(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()

	var ids []uuid.UUID
	for i := range 5 {
		u := &user.User{ID: uuid.New(), FullName: fmt.Sprintf("user %d", i), Email: fmt.Sprintf("u%d@example.com", i)}
		require.NoError(t, store.Users().CreateUser(ctx, u))
		ids = append(ids, u.ID)
	}

	// Running twice must not duplicate classes or members.
	for range 2 {
		require.NoError(t, seed(ctx, store.Users(), store.Classes(), logging.Discard()))
	}

	cs, err := store.Classes().GetClassByCode(ctx, "CS 1000")
	require.NoError(t, err)
	assert.Equal(t, ids[0], cs.CreatedBy)
	assert.Equal(t, "Dr. Alan Turing", cs.Instructor)

	phys, err := store.Classes().GetClassByCode(ctx, "PHYS 2200")
	require.NoError(t, err)

	csMembers, err := store.Classes().ListMembers(ctx, cs.ID)
	require.NoError(t, err)
	physMembers, err := store.Classes().ListMembers(ctx, phys.ID)
	require.NoError(t, err)

	assert.Len(t, csMembers, 3)
	assert.Len(t, physMembers, 2)
	assert.Equal(t, ids[3], physMembers[0].ID)
}

func TestSeed_NoUsers(t *testing.T) {
	store := memstore.New()
	require.NoError(t, seed(context.Background(), store.Users(), store.Classes(), logging.Discard()))

	_, err := store.Classes().GetClassByCode(context.Background(), "CS 1000")
	assert.Error(t, err)
}
