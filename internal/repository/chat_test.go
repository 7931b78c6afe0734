package repository

import (
	"context"
	"testing"
	"time"

	"look/internal/models"
	"look/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatRepository(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewChatRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	carol := testutil.CreateUser(t, db, "carol")

	chat := &models.Chat{User1ID: bob.ID, User2ID: alice.ID}
	require.NoError(t, repo.Create(ctx, chat))
	assert.NotZero(t, chat.ID)
	assert.Equal(t, models.ChatPairKey(alice.ID, bob.ID), chat.PairKey)

	t.Run("FindByPairEitherOrder", func(t *testing.T) {
		got, err := repo.FindByPair(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, chat.ID, got.ID)

		got, err = repo.FindByPair(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, chat.ID, got.ID)

		got, err = repo.FindByPair(ctx, alice.ID, carol.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("CreateDuplicatePair", func(t *testing.T) {
		err := repo.Create(ctx, &models.Chat{User1ID: alice.ID, User2ID: bob.ID})
		_, dup := DuplicateField(err)
		assert.True(t, dup)
	})

	t.Run("GetByID", func(t *testing.T) {
		got, err := repo.GetByID(ctx, chat.ID)
		require.NoError(t, err)
		assert.True(t, got.HasParticipant(alice.ID))

		_, err = repo.GetByID(ctx, 999)
		assert.True(t, models.IsNotFound(err))
	})

	t.Run("MessagesInTimestampOrder", func(t *testing.T) {
		now := time.Now()
		require.NoError(t, repo.AppendMessage(ctx, &models.Message{ChatID: chat.ID, SenderID: alice.ID, Content: "later", Timestamp: now}))
		require.NoError(t, repo.AppendMessage(ctx, &models.Message{ChatID: chat.ID, SenderID: bob.ID, Content: "earlier", Timestamp: now.Add(-time.Minute)}))
		require.NoError(t, repo.AppendMessage(ctx, &models.Message{ChatID: chat.ID, SenderID: bob.ID, Content: "same-time", Timestamp: now}))

		msgs, err := repo.Messages(ctx, chat.ID)
		require.NoError(t, err)
		require.Len(t, msgs, 3)
		assert.Equal(t, []string{"earlier", "later", "same-time"}, []string{msgs[0].Content, msgs[1].Content, msgs[2].Content})
	})

	t.Run("ListForUserAndBatchMessages", func(t *testing.T) {
		other := &models.Chat{User1ID: alice.ID, User2ID: carol.ID}
		require.NoError(t, repo.Create(ctx, other))

		chats, err := repo.ListForUser(ctx, alice.ID)
		require.NoError(t, err)
		assert.Len(t, chats, 2)

		chats, err = repo.ListForUser(ctx, carol.ID)
		require.NoError(t, err)
		require.Len(t, chats, 1)
		assert.Equal(t, other.ID, chats[0].ID)

		logs, err := repo.MessagesForChats(ctx, []uint{chat.ID, other.ID})
		require.NoError(t, err)
		assert.Len(t, logs[chat.ID], 3)
		assert.Empty(t, logs[other.ID])

		logs, err = repo.MessagesForChats(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, logs)
	})
}

func TestRoleRepository(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewRoleRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.EnsureRoles(ctx, models.DefaultRoles...), "existing roles are skipped")
	require.NoError(t, repo.EnsureRoles(ctx, "ROLE_MODERATOR"))

	names, err := repo.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{models.RoleAdmin, "ROLE_MODERATOR", models.RoleSuperAdmin, models.RoleUser}, names)

	found, err := repo.FindExisting(ctx, []string{models.RoleUser, "ROLE_BOGUS"})
	require.NoError(t, err)
	assert.Equal(t, []string{models.RoleUser}, found)
}
