package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode"

	"socialgraph/internal/models"

	"github.com/brianvoe/gofakeit/v6"
)

// Factory builds domain entities with plausible fake content. It never
// touches the database; the Seeder persists what it builds.
type Factory struct {
	faker   *gofakeit.Faker
	rng     *rand.Rand
	maxDays int
	now     time.Time
}

// NewFactory creates a Factory. The same seed yields the same entities.
func NewFactory(seed int64, maxDays int) *Factory {
	if maxDays <= 0 {
		maxDays = 90
	}
	return &Factory{
		faker: gofakeit.New(seed),
		// #nosec G404: acceptable for seeding
		rng:     rand.New(rand.NewSource(seed)),
		maxDays: maxDays,
		now:     time.Now().UTC(),
	}
}

// BuildUser returns the i-th user. Usernames satisfy the signup rules and
// are unique per index.
func (f *Factory) BuildUser(i int, passwordHash string) *models.User {
	first, last := f.faker.FirstName(), f.faker.LastName()
	suffix := fmt.Sprintf("_%d", i)
	base := usernameBase(first + last)
	if limit := 30 - len(suffix); len(base) > limit {
		base = base[:limit]
	}
	username := base + suffix

	return &models.User{
		Username:  username,
		Email:     username + "@example.com",
		Password:  passwordHash,
		FirstName: truncate(first, 30),
		LastName:  truncate(last, 30),
		Bio:       f.faker.Sentence(10),
		Avatar:    fmt.Sprintf("https://i.pravatar.cc/150?u=%s", username),
	}
}

// BuildPost returns a post by user created somewhere in the last maxDays.
func (f *Factory) BuildPost(user *models.User) *models.Post {
	post := &models.Post{
		Content:   f.faker.Paragraph(1, f.rng.Intn(4)+1, 10, "\n"),
		UserID:    user.ID,
		CreatedAt: f.pastTime(),
	}
	// Roughly a third of posts point at an external image.
	if f.rng.Intn(3) == 0 {
		post.ImageURL = fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.faker.UUID())
	}
	post.UpdatedAt = post.CreatedAt
	return post
}

// BuildComment returns a comment by user on post, later than the post.
func (f *Factory) BuildComment(user *models.User, post *models.Post) *models.Comment {
	created := post.CreatedAt.Add(time.Duration(f.rng.Intn(48*60)+1) * time.Minute)
	if created.After(f.now) {
		created = f.now
	}
	return &models.Comment{
		Content:   f.faker.Sentence(f.rng.Intn(12) + 3),
		UserID:    user.ID,
		PostID:    post.ID,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func (f *Factory) pastTime() time.Time {
	back := time.Duration(f.rng.Intn(f.maxDays))*24*time.Hour +
		time.Duration(f.rng.Intn(24))*time.Hour +
		time.Duration(f.rng.Intn(60))*time.Minute
	return f.now.Add(-back).Truncate(time.Second)
}

// usernameBase keeps lowercase ASCII letters and digits.
func usernameBase(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			sb.WriteRune(r)
		}
	}
	if sb.Len() == 0 {
		return "user"
	}
	return sb.String()
}

func truncate(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n])
	}
	return s
}
