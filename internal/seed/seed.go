// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"inkwell/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
	// MaxDays spreads generated created_at timestamps over this many days back.
	MaxDays int
	// SkipBcrypt stores a plaintext password, for fast local seeding only.
	SkipBcrypt bool
	// DryRun logs what would be created without touching the database.
	DryRun bool
}

// tagNames is the pool of tags attached to seeded posts.
var tagNames = []string{
	"go", "writing", "travel", "food", "music", "books", "photography",
	"programming", "devops", "homelab", "art", "history", "philosophy",
	"science", "fitness", "gardening", "film", "poetry",
}

// Seed populates the database with test data: users, tagged posts, two-tier
// comment threads (including a few soft-deleted tombstones) and likes.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("Starting database seeding with %d users and %d posts...", opts.NumUsers, opts.NumPosts)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("Warning: could not clear all existing data, continuing anyway...")
		}
	}

	f := NewFactory(db, opts)
	//nolint:gosec // weak randomness is fine for seeding
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	users, err := createUsers(f, opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("%d test users created", len(users))

	posts, err := createPosts(f, r, users, opts.NumPosts)
	if err != nil {
		return fmt.Errorf("failed to create posts: %w", err)
	}
	log.Printf("%d posts created", len(posts))

	if opts.DryRun {
		log.Println("[dry-run] skipping comments and likes")
		return nil
	}

	if err := createThreads(f, r, users, posts); err != nil {
		return fmt.Errorf("failed to create comment threads: %w", err)
	}
	log.Println("comment threads created")

	if err := createLikes(f, r, users, posts); err != nil {
		return fmt.Errorf("failed to create likes: %w", err)
	}
	log.Println("likes created")

	log.Println("Database seeding completed successfully!")
	return nil
}

func clearData(db *gorm.DB) error {
	log.Println("Clearing existing data...")
	sql := `TRUNCATE TABLE comment_likes, post_likes, comments, post_tags, tags, posts, images, users RESTART IDENTITY CASCADE;`
	return db.Exec(sql).Error
}

func createUsers(f *Factory, count int) ([]*models.User, error) {
	users := make([]*models.User, 0, count)

	// Always include a known admin and a known reader for manual testing.
	if count >= 2 {
		admin, err := f.CreateUser(func(u *models.User) {
			u.Username = "admin"
			u.Email = "admin@example.com"
			u.DisplayName = "Site Admin"
			u.IsAdmin = true
		})
		if err == nil {
			users = append(users, admin)
		}
		reader, err := f.CreateUser(func(u *models.User) {
			u.Username = "reader"
			u.Email = "reader@example.com"
			u.DisplayName = "First Reader"
		})
		if err == nil {
			users = append(users, reader)
		}
	}

	for i := len(users); i < count; i++ {
		user, err := f.CreateUser()
		if err != nil {
			log.Printf("Failed to create user: %v", err)
			continue
		}
		users = append(users, user)

		if i > 0 && i%100 == 0 {
			log.Printf("Created %d users...", i)
		}
	}
	return users, nil
}

func createPosts(f *Factory, r *rand.Rand, users []*models.User, count int) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, count)
	for i := 0; i < count; i++ {
		user := users[r.Intn(len(users))]
		post, err := f.CreatePost(user)
		if err != nil {
			return nil, err
		}

		if !f.opts.DryRun {
			for _, name := range pickTags(r, 3) {
				if _, err := f.CreateTag(name, post); err != nil {
					return nil, err
				}
			}
		}
		posts = append(posts, post)

		if i > 0 && i%100 == 0 {
			log.Printf("Created %d posts...", i)
		}
	}
	return posts, nil
}

// pickTags selects up to max distinct tag names.
func pickTags(r *rand.Rand, max int) []string {
	n := r.Intn(max + 1)
	if n == 0 {
		return nil
	}
	seen := make(map[string]struct{}, n)
	var names []string
	for len(names) < n {
		name := tagNames[r.Intn(len(tagNames))]
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// createThreads builds two-tier threads: root comments, direct replies, and
// replies-to-replies anchored on the direct reply. A few roots are
// soft-deleted afterwards so the tombstone rendering path has data.
func createThreads(f *Factory, r *rand.Rand, users []*models.User, posts []*models.Post) error {
	for _, post := range posts {
		numRoots := r.Intn(5)
		for i := 0; i < numRoots; i++ {
			author := users[r.Intn(len(users))]
			root, err := f.CreateComment(author, post)
			if err != nil {
				return err
			}

			numDirect := r.Intn(3)
			for j := 0; j < numDirect; j++ {
				replier := users[r.Intn(len(users))]
				direct, err := f.CreateReply(replier, root, withReplyContent(root))
				if err != nil {
					return err
				}

				// Occasionally add a second-tier reply to the direct reply.
				if r.Float32() < 0.5 {
					nestedAuthor := users[r.Intn(len(users))]
					if _, err := f.CreateReply(nestedAuthor, direct, withReplyContent(direct)); err != nil {
						return err
					}
				}
			}

			// Roughly one in ten roots becomes a tombstone with replies intact.
			if numDirect > 0 && r.Float32() < 0.1 {
				if err := f.SoftDeleteComment(root); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func withReplyContent(parent *models.Comment) func(*models.Comment) {
	return func(c *models.Comment) {
		c.Content = fmt.Sprintf("%s %s", replyOpener(), gofakeit.Sentence(6))
		_ = parent
	}
}

func replyOpener() string {
	openers := []string{
		"Good point,", "I disagree —", "Exactly.", "Adding to that,",
		"For what it's worth,", "Same here.", "Interesting take:",
	}
	return openers[rand.Intn(len(openers))] //nolint:gosec
}

func createLikes(f *Factory, r *rand.Rand, users []*models.User, posts []*models.Post) error {
	for _, post := range posts {
		numLikes := r.Intn(len(users))
		for _, user := range pickUsers(r, users, numLikes) {
			if err := f.CreatePostLike(user, post); err != nil {
				// unique constraint races are harmless here
				if !strings.Contains(err.Error(), "duplicate") {
					return err
				}
			}
		}
	}
	return nil
}

// pickUsers selects up to n distinct users.
func pickUsers(r *rand.Rand, users []*models.User, n int) []*models.User {
	if n >= len(users) {
		return users
	}
	perm := r.Perm(len(users))
	picked := make([]*models.User, 0, n)
	for _, idx := range perm[:n] {
		picked = append(picked, users[idx])
	}
	return picked
}
