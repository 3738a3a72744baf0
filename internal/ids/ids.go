// Package ids generates opaque, kind-prefixed identifiers such as lead_3f9a0c1b77de.
package ids

import (
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Generator produces identifiers for a given entity kind.
type Generator interface {
	NewID(kind string) string
}

// suffixLen is the number of hex characters kept from the random UUID.
const suffixLen = 12

// UUIDGenerator derives the suffix from a random UUIDv4. Collisions are not
// checked; at workspace scale they are practically impossible.
type UUIDGenerator struct{}

// NewID returns kind + "_" + 12 lowercase hex characters.
func (UUIDGenerator) NewID(kind string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return join(kind, raw[:suffixLen])
}

// SequenceGenerator hands out kind_1, kind_2, ... per kind. It is deterministic
// and safe for concurrent use, which makes it the generator of choice for tests
// and demo seeds.
type SequenceGenerator struct {
	mu   sync.Mutex
	next map[string]int
}

// NewSequenceGenerator returns a generator whose counters start at 1.
func NewSequenceGenerator() *SequenceGenerator {
	return &SequenceGenerator{next: make(map[string]int)}
}

// NewID returns the next identifier for kind.
func (g *SequenceGenerator) NewID(kind string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.next == nil {
		g.next = make(map[string]int)
	}
	g.next[kind]++
	return join(kind, strconv.Itoa(g.next[kind]))
}

var defaultGenerator Generator = UUIDGenerator{}

// New returns an identifier for kind using the default UUID generator.
func New(kind string) string {
	return defaultGenerator.NewID(kind)
}

func join(kind, suffix string) string {
	if kind == "" {
		return suffix
	}
	return kind + "_" + suffix
}
