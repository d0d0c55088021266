// Package qrslug generates and validates the human-readable slugs printed
// on QR tags, e.g. "golden-meadow-x7k2".
package qrslug

import (
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"sync"
	"time"

	"github.com/YelzhanWeb/tagmytrophy/internal/domain"
)

const (
	suffixLen    = 4
	suffixChars  = "abcdefghijklmnopqrstuvwxyz0123456789"
	maxSlugLen   = 64
	attemptRatio = 20
)

var pattern = regexp.MustCompile(`^[a-z]+-[a-z]+-[a-z0-9]{4}$`)

var adjectives = []string{
	"amber", "autumn", "brave", "bright", "calm", "cherished", "crimson", "dear",
	"eternal", "faithful", "gentle", "golden", "happy", "honest", "jolly", "kind",
	"loyal", "lucky", "mellow", "merry", "misty", "noble", "proud", "quiet",
	"radiant", "rustic", "silver", "sunny", "swift", "tender", "vivid", "warm",
	"wild", "wise", "young", "zesty",
}

var nouns = []string{
	"acorn", "anchor", "aspen", "badge", "beacon", "brook", "canyon", "cedar",
	"comet", "cove", "ember", "falcon", "fern", "harbor", "hollow", "lantern",
	"maple", "meadow", "medal", "oak", "orchard", "pebble", "pine", "prairie",
	"river", "robin", "summit", "thistle", "trail", "trophy", "valley", "willow",
}

// ErrExhausted is returned when unique slugs cannot be produced within the
// attempt budget.
var ErrExhausted = errors.New("qrslug: could not generate enough unique slugs")

// Generator produces slugs from its own random source.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewGenerator returns a generator seeded with seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

var defaultGenerator = NewGenerator(time.Now().UnixNano())

// Generate returns a random slug from the package generator.
func Generate() string {
	return defaultGenerator.Generate()
}

// GenerateMultiple returns n unique slugs from the package generator.
func GenerateMultiple(n int) ([]string, error) {
	return defaultGenerator.GenerateMultiple(n)
}

func (g *Generator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	suffix := make([]byte, suffixLen)
	for i := range suffix {
		suffix[i] = suffixChars[g.rnd.Intn(len(suffixChars))]
	}
	return fmt.Sprintf("%s-%s-%s",
		adjectives[g.rnd.Intn(len(adjectives))],
		nouns[g.rnd.Intn(len(nouns))],
		suffix,
	)
}

func (g *Generator) GenerateMultiple(n int) ([]string, error) {
	if n <= 0 {
		return []string{}, nil
	}

	seen := make(map[string]struct{}, n)
	out := make([]string, 0, n)
	for attempts := 0; len(out) < n; attempts++ {
		if attempts >= n*attemptRatio {
			return nil, ErrExhausted
		}
		s := g.Generate()
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out, nil
}

// Validate reports whether s has the slug shape.
func Validate(s string) error {
	if s == "" || len(s) > maxSlugLen || !pattern.MatchString(s) {
		return domain.ErrInvalidSlug
	}
	return nil
}
