package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"look/internal/middleware"
	"look/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// FakePassword is the plaintext password of every generated user.
const FakePassword = "password123"

// FactoryOptions tune generated data.
type FactoryOptions struct {
	// Seed makes generation reproducible; zero picks a time-based seed.
	Seed int64
	// MaxDays bounds how far back post timestamps are spread. Defaults to 90.
	MaxDays int
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// Factory builds domain entities with gofakeit and persists them.
type Factory struct {
	db    *gorm.DB
	opts  FactoryOptions
	faker *gofakeit.Faker
	rnd   *rand.Rand
	hash  string
}

// NewFactory creates a Factory bound to db. db may be nil when only the
// Build* helpers are used.
func NewFactory(db *gorm.DB, opts FactoryOptions) *Factory {
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &Factory{
		db:    db,
		opts:  opts,
		faker: gofakeit.New(opts.Seed),
		//nolint:gosec // Weak random number generator is fine for seeding
		rnd: rand.New(rand.NewSource(opts.Seed)),
	}
}

func (f *Factory) passwordHash() (string, error) {
	if f.hash != "" {
		return f.hash, nil
	}
	h, err := bcrypt.GenerateFromPassword([]byte(FakePassword), f.opts.BcryptCost)
	if err != nil {
		return "", err
	}
	f.hash = string(h)
	return f.hash, nil
}

// BuildUser returns an unsaved ROLE_USER account. Overrides run last.
func (f *Factory) BuildUser(overrides ...func(*models.User)) (*models.User, error) {
	hash, err := f.passwordHash()
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		Username:              fmt.Sprintf("%s%d", f.faker.Username(), f.faker.Number(100, 999)),
		Email:                 f.faker.Email(),
		Password:              hash,
		ProfilePictureURI:     fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID()),
		Roles:                 models.NewRoleSet(models.RoleUser),
		Enabled:               true,
		AccountNonExpired:     true,
		AccountNonLocked:      true,
		CredentialsNonExpired: true,
	}
	if len(user.Username) > 50 {
		user.Username = user.Username[:50]
	}
	for _, override := range overrides {
		override(user)
	}
	return user, nil
}

// BuildPost returns an unsaved post by user with a created_at spread over
// the last MaxDays days.
func (f *Factory) BuildPost(user *models.User, overrides ...func(*models.Post)) *models.Post {
	post := &models.Post{
		UserID:  user.ID,
		Title:   f.faker.Sentence(5),
		Content: f.faker.Paragraph(1, 3, 5, "\n"),
	}
	if f.rnd.Intn(2) == 0 {
		post.ImageURI = fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.faker.UUID())
	}

	back := time.Duration(f.rnd.Intn(f.opts.MaxDays))*24*time.Hour +
		time.Duration(f.rnd.Intn(24))*time.Hour +
		time.Duration(f.rnd.Intn(60))*time.Minute
	post.CreatedAt = time.Now().Add(-back)

	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreateUser builds and persists a user.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	user, err := f.BuildUser(overrides...)
	if err != nil {
		return nil, err
	}
	if err := f.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreatePostsBatch persists posts in a single statement.
func (f *Factory) CreatePostsBatch(ctx context.Context, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	return f.db.WithContext(ctx).Create(&posts).Error
}

// Fake generates users with postsPerUser posts each, then has every new user
// follow and like a random sample of the others.
func (f *Factory) Fake(ctx context.Context, users, postsPerUser int) error {
	created := make([]*models.User, 0, users)
	var posts []*models.Post
	for i := 0; i < users; i++ {
		u, err := f.CreateUser(ctx)
		if err != nil {
			return fmt.Errorf("create fake user: %w", err)
		}
		created = append(created, u)

		batch := make([]*models.Post, 0, postsPerUser)
		for j := 0; j < postsPerUser; j++ {
			batch = append(batch, f.BuildPost(u))
		}
		if err := f.CreatePostsBatch(ctx, batch); err != nil {
			return fmt.Errorf("create fake posts: %w", err)
		}
		posts = append(posts, batch...)
	}

	db := f.db.WithContext(ctx)
	var follows, likes int
	for _, u := range created {
		for _, other := range f.sample(created, 3) {
			if other.ID == u.ID {
				continue
			}
			if err := db.Create(&models.Follow{FollowerID: u.ID, FollowingID: other.ID}).Error; err != nil {
				return fmt.Errorf("create fake follow: %w", err)
			}
			follows++
		}
		for _, p := range f.samplePosts(posts, 5) {
			if err := db.Create(&models.Like{UserID: u.ID, PostID: p.ID}).Error; err != nil {
				return fmt.Errorf("create fake like: %w", err)
			}
			likes++
		}
	}

	middleware.Logger.InfoContext(ctx, "fake data generated",
		slog.Int("users", len(created)),
		slog.Int("posts", len(posts)),
		slog.Int("follows", follows),
		slog.Int("likes", likes))
	return nil
}

// sample picks up to n distinct users.
func (f *Factory) sample(users []*models.User, n int) []*models.User {
	idx := f.rnd.Perm(len(users))
	if n > len(idx) {
		n = len(idx)
	}
	out := make([]*models.User, 0, n)
	for _, i := range idx[:n] {
		out = append(out, users[i])
	}
	return out
}

func (f *Factory) samplePosts(posts []*models.Post, n int) []*models.Post {
	idx := f.rnd.Perm(len(posts))
	if n > len(idx) {
		n = len(idx)
	}
	out := make([]*models.Post, 0, n)
	for _, i := range idx[:n] {
		out = append(out, posts[i])
	}
	return out
}
