package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"look/internal/models"
	"look/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	comment := &models.Comment{PostID: 1, UserID: 2, Content: "Nice"}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "comments"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(ctx, comment))
	assert.Equal(t, uint(7), comment.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepository_ListByPost_QueryShape(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCommentRepository(db)

	mock.ExpectQuery(`SELECT comments\.\*, COALESCE\(users\.username, \$1\) AS username FROM "comments" LEFT JOIN users ON users\.id = comments\.user_id WHERE comments\.post_id = \$2 ORDER BY comments\.created_at ASC, comments\.id ASC`).
		WithArgs(models.UnknownUsername, 3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "post_id", "user_id", "content", "username"}).
			AddRow(1, 3, 2, "first", "bob"))

	comments, err := repo.ListByPost(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "bob", comments[0].Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepository_SQLite(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	post := testutil.CreatePost(t, db, alice.ID, "Hello")

	now := time.Now()
	second := &models.Comment{PostID: post.ID, UserID: alice.ID, Content: "second", CreatedAt: now}
	first := &models.Comment{PostID: post.ID, UserID: bob.ID, Content: "first", CreatedAt: now.Add(-time.Minute)}
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, first))

	t.Run("ListByPostOldestFirst", func(t *testing.T) {
		got, err := repo.ListByPost(ctx, post.ID)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "first", got[0].Content)
		assert.Equal(t, "bob", got[0].Username)
		assert.Equal(t, "second", got[1].Content)
	})

	t.Run("ListByUser", func(t *testing.T) {
		got, err := repo.ListByUser(ctx, bob.ID)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, first.ID, got[0].ID)
	})

	t.Run("Update", func(t *testing.T) {
		c, err := repo.GetByID(ctx, first.ID)
		require.NoError(t, err)
		c.Content = "edited"
		require.NoError(t, repo.Update(ctx, c))

		c, err = repo.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "edited", c.Content)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, second.ID))
		_, err := repo.GetByID(ctx, second.ID)
		assert.True(t, models.IsNotFound(err))
		assert.True(t, models.IsNotFound(repo.Delete(ctx, second.ID)))
	})
}
