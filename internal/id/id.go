package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu   sync.Mutex
	mono io.Reader

	nonSlug = regexp.MustCompile(`[^a-z0-9]+`)
)

func init() {
	// PRNG seeded from crypto/rand; ulid.Monotonic keeps IDs from the
	// same millisecond lexicographically increasing.
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	mono = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// New returns a ULID string for the current time.
//
// ULIDs embed their creation timestamp and sort by it, so trades logged
// interactively get unique, creation-ordered identifiers.
func New() string {
	return At(time.Now())
}

// At returns a ULID whose timestamp component is t.
func At(t time.Time) string {
	mu.Lock()
	defer mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(t.UTC()), mono)
	if err != nil {
		// Only possible when entropy fails or the monotonic counter overflows.
		panic(err)
	}
	return strings.ToLower(id.String())
}

// Slug lowercases name and joins its words with dashes: "Interactive Brokers"
// becomes "interactive-brokers".
func Slug(name string) string {
	s := nonSlug.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	return strings.Trim(s, "-")
}

// Prefixed returns Slug(name) joined to a fresh ULID, or just the ULID when
// the name has no usable characters.
func Prefixed(name string) string {
	s := Slug(name)
	if s == "" {
		return New()
	}
	return s + "-" + New()
}
