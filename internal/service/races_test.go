package service

import (
	"context"
	"sync"
	"testing"

	"look/internal/auth"
	"look/internal/models"
	"look/internal/repository"
	"look/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Two like requests for the same pair can both pass the HasLike check. The
// unique index decides, and the loser sees the ordinary duplicate error.
func TestPostService_ConcurrentLikes_ExactlyOneWins(t *testing.T) {
	db := testutil.NewTestDB(t)
	author := testutil.CreateUser(t, db, "author")
	fan := testutil.CreateUser(t, db, "fan")
	post := testutil.CreatePost(t, db, author.ID, "hot take")

	svc := NewPostService(repository.NewPostRepository(db), repository.NewUserRepository(db))
	actor := auth.NewIdentity(fan)

	const n = 6
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.LikePost(context.Background(), actor, post.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assertValidationError(t, err, "User already liked this post")
	}
	assert.Equal(t, 1, succeeded)

	got, err := svc.GetPost(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.LikeCount)
}

// Role replacement is not serialized: concurrent updates each succeed and
// whichever write lands last is what remains.
func TestUserService_ConcurrentRoleUpdates_LastWriterWins(t *testing.T) {
	db := testutil.NewTestDB(t)
	super := testutil.CreateUser(t, db, "root", models.RoleSuperAdmin)
	target := testutil.CreateUser(t, db, "target")

	users := repository.NewUserRepository(db)
	svc := NewUserService(users, repository.NewRoleRepository(db))
	actor := auth.NewIdentity(super)

	sets := [][]string{
		{models.RoleAdmin},
		{models.RoleUser, models.RoleSuperAdmin},
		{models.RoleUser},
		{models.RoleAdmin, models.RoleUser},
	}
	var wg sync.WaitGroup
	for _, set := range sets {
		wg.Add(1)
		go func(set []string) {
			defer wg.Done()
			_, err := svc.UpdateUserRoles(context.Background(), actor, target.ID, set)
			assert.NoError(t, err)
		}(set)
	}
	wg.Wait()

	final, err := users.GetByID(context.Background(), target.ID)
	require.NoError(t, err)

	candidates := make([]models.RoleSet, 0, len(sets))
	for _, set := range sets {
		candidates = append(candidates, models.NewRoleSet(set...))
	}
	assert.Contains(t, candidates, final.Roles, "the stored set is exactly one of the writes, never a merge")
}
