// Package seed loads the development dataset and generates fake data.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"look/internal/middleware"
	"look/internal/models"
	"look/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed fixtures.yml
var fixturesYAML []byte

// Dataset is the parsed fixture file. Entries reference each other by
// username and post title.
type Dataset struct {
	Roles    []string      `yaml:"roles"`
	Users    []UserFixture `yaml:"users"`
	Posts    []PostFixture `yaml:"posts"`
	Comments []struct {
		Post    string `yaml:"post"`
		Author  string `yaml:"author"`
		Content string `yaml:"content"`
	} `yaml:"comments"`
	Likes []struct {
		Post string `yaml:"post"`
		User string `yaml:"user"`
	} `yaml:"likes"`
	Chats []ChatFixture `yaml:"chats"`
}

// UserFixture is a seeded account with a plaintext password.
type UserFixture struct {
	Username string   `yaml:"username"`
	Email    string   `yaml:"email"`
	Password string   `yaml:"password"`
	Roles    []string `yaml:"roles"`
}

// PostFixture is a seeded post. Title is unique per author.
type PostFixture struct {
	Author  string `yaml:"author"`
	Title   string `yaml:"title"`
	Content string `yaml:"content"`
	Image   string `yaml:"image"`
}

// ChatFixture is a chat created with its initial messages.
type ChatFixture struct {
	Between  [2]string `yaml:"between"`
	Messages []struct {
		From string        `yaml:"from"`
		Text string        `yaml:"text"`
		Ago  time.Duration `yaml:"ago"`
	} `yaml:"messages"`
}

// LoadDataset parses the embedded fixture file.
func LoadDataset() (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(fixturesYAML, &ds); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	return &ds, nil
}

// Options configure a seeding run.
type Options struct {
	// Now stamps message timestamps; defaults to time.Now.
	Now func() time.Time
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// Report counts the rows a run inserted.
type Report struct {
	Roles, Users, Posts, Comments, Likes, Chats int
}

// Run applies ds to db in one transaction. Existing rows are left untouched,
// so Run is safe to call on every start; a failing step rolls back the run.
func Run(ctx context.Context, db *gorm.DB, ds *Dataset, opts Options) (Report, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}

	var report Report
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s := &seeder{db: tx, opts: opts, users: map[string]*models.User{}, posts: map[string]*models.Post{}}
		steps := []struct {
			name string
			fn   func(*Dataset) error
		}{
			{"roles", s.roles},
			{"users", s.seedUsers},
			{"posts", s.seedPosts},
			{"comments", s.comments},
			{"likes", s.likes},
			{"chats", s.chats},
		}
		for _, step := range steps {
			if err := step.fn(ds); err != nil {
				return fmt.Errorf("seed %s: %w", step.name, err)
			}
		}
		report = s.report
		return nil
	})
	if err != nil {
		return Report{}, err
	}

	middleware.Logger.InfoContext(ctx, "database seeding finished",
		slog.Int("roles", report.Roles),
		slog.Int("users", report.Users),
		slog.Int("posts", report.Posts),
		slog.Int("comments", report.Comments),
		slog.Int("likes", report.Likes),
		slog.Int("chats", report.Chats))
	return report, nil
}

// Fixtures loads the embedded dataset and applies it.
func Fixtures(ctx context.Context, db *gorm.DB) (Report, error) {
	ds, err := LoadDataset()
	if err != nil {
		return Report{}, err
	}
	return Run(ctx, db, ds, Options{})
}

// EnsureRoles inserts the fixed role vocabulary. Authentication depends on
// ROLE_USER existing, so this runs even when seeding is off.
func EnsureRoles(ctx context.Context, db *gorm.DB) error {
	return repository.NewRoleRepository(db).EnsureRoles(ctx, models.DefaultRoles...)
}

type seeder struct {
	db     *gorm.DB
	opts   Options
	report Report
	users  map[string]*models.User
	posts  map[string]*models.Post
}

// firstOrNil loads the first row matching query into dst, reporting whether
// one existed.
func (s *seeder) firstOrNil(dst any, query string, args ...any) (bool, error) {
	err := s.db.Where(query, args...).First(dst).Error
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (s *seeder) roles(ds *Dataset) error {
	for _, name := range ds.Roles {
		var role models.Role
		found, err := s.firstOrNil(&role, "name = ?", name)
		if err != nil {
			return err
		}
		if found {
			continue
		}
		if err := s.db.Create(&models.Role{Name: name}).Error; err != nil {
			return err
		}
		s.report.Roles++
	}
	return nil
}

func (s *seeder) seedUsers(ds *Dataset) error {
	for _, fx := range ds.Users {
		user := &models.User{}
		found, err := s.firstOrNil(user, "username = ?", fx.Username)
		if err != nil {
			return err
		}
		if !found {
			hash, err := bcrypt.GenerateFromPassword([]byte(fx.Password), s.opts.BcryptCost)
			if err != nil {
				return fmt.Errorf("hash password for %s: %w", fx.Username, err)
			}
			user = &models.User{
				Username:              fx.Username,
				Email:                 fx.Email,
				Password:              string(hash),
				Roles:                 models.NewRoleSet(fx.Roles...),
				Enabled:               true,
				AccountNonExpired:     true,
				AccountNonLocked:      true,
				CredentialsNonExpired: true,
			}
			if err := s.db.Create(user).Error; err != nil {
				return err
			}
			s.report.Users++
		}
		s.users[fx.Username] = user
	}
	return nil
}

func (s *seeder) user(username string) (*models.User, error) {
	u, ok := s.users[username]
	if !ok {
		return nil, fmt.Errorf("unknown user %q", username)
	}
	return u, nil
}

func (s *seeder) post(title string) (*models.Post, error) {
	p, ok := s.posts[title]
	if !ok {
		return nil, fmt.Errorf("unknown post %q", title)
	}
	return p, nil
}

func (s *seeder) seedPosts(ds *Dataset) error {
	for _, fx := range ds.Posts {
		author, err := s.user(fx.Author)
		if err != nil {
			return err
		}
		post := &models.Post{}
		found, err := s.firstOrNil(post, "user_id = ? AND title = ?", author.ID, fx.Title)
		if err != nil {
			return err
		}
		if !found {
			post = &models.Post{UserID: author.ID, Title: fx.Title, Content: fx.Content, ImageURI: fx.Image}
			if err := s.db.Create(post).Error; err != nil {
				return err
			}
			s.report.Posts++
		}
		s.posts[fx.Title] = post
	}
	return nil
}

func (s *seeder) comments(ds *Dataset) error {
	for _, fx := range ds.Comments {
		post, err := s.post(fx.Post)
		if err != nil {
			return err
		}
		author, err := s.user(fx.Author)
		if err != nil {
			return err
		}
		found, err := s.firstOrNil(&models.Comment{}, "post_id = ? AND user_id = ? AND content = ?", post.ID, author.ID, fx.Content)
		if err != nil {
			return err
		}
		if found {
			continue
		}
		if err := s.db.Create(&models.Comment{PostID: post.ID, UserID: author.ID, Content: fx.Content}).Error; err != nil {
			return err
		}
		s.report.Comments++
	}
	return nil
}

func (s *seeder) likes(ds *Dataset) error {
	for _, fx := range ds.Likes {
		post, err := s.post(fx.Post)
		if err != nil {
			return err
		}
		user, err := s.user(fx.User)
		if err != nil {
			return err
		}
		found, err := s.firstOrNil(&models.Like{}, "post_id = ? AND user_id = ?", post.ID, user.ID)
		if err != nil {
			return err
		}
		if found {
			continue
		}
		if err := s.db.Create(&models.Like{PostID: post.ID, UserID: user.ID}).Error; err != nil {
			return err
		}
		s.report.Likes++
	}
	return nil
}

func (s *seeder) chats(ds *Dataset) error {
	now := s.opts.Now()
	for _, fx := range ds.Chats {
		a, err := s.user(fx.Between[0])
		if err != nil {
			return err
		}
		b, err := s.user(fx.Between[1])
		if err != nil {
			return err
		}
		key := models.ChatPairKey(a.ID, b.ID)
		found, err := s.firstOrNil(&models.Chat{}, "pair_key = ?", key)
		if err != nil {
			return err
		}
		if found {
			continue
		}

		chat := &models.Chat{User1ID: a.ID, User2ID: b.ID, PairKey: key}
		if err := s.db.Create(chat).Error; err != nil {
			return err
		}
		for _, m := range fx.Messages {
			sender, err := s.user(m.From)
			if err != nil {
				return err
			}
			if !chat.HasParticipant(sender.ID) {
				return fmt.Errorf("%s is not part of chat %s", m.From, key)
			}
			msg := &models.Message{
				ChatID:    chat.ID,
				SenderID:  sender.ID,
				Content:   m.Text,
				Timestamp: now.Add(-m.Ago).UTC(),
			}
			if err := s.db.Create(msg).Error; err != nil {
				return err
			}
		}
		s.report.Chats++
	}
	return nil
}
