package gizmo

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// Random slugs use an unambiguous alphanumeric alphabet: no 0/O/o, 1/l/I.
const slugAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKMNPQRSTUVWXYZ23456789"

const (
	randomSlugLength = 10
	maxSlugLength    = 64

	// Suffixed allocation for title-derived suggestions gives up after this
	// many attempts and fails with ErrSlugExhausted.
	maxSuffixAttempts = 500
)

// randomSlug returns a cryptographically random slug. At 10 characters over a
// 55-symbol alphabet the collision probability is negligible; the allocator
// still loops on insert conflicts rather than assuming uniqueness.
func randomSlug() (string, error) {
	buf := make([]byte, randomSlugLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate slug: %w", err)
	}
	for i, b := range buf {
		buf[i] = slugAlphabet[int(b)%len(slugAlphabet)]
	}
	return string(buf), nil
}

// validateSlug checks a requested slug for shape only; availability is
// decided by the repository's uniqueness constraint at insert time.
func validateSlug(slug string) error {
	if slug == "" || len(slug) > maxSlugLength {
		return ErrInvalidSlug
	}
	for _, c := range slug {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_' || c == '.':
		default:
			return ErrInvalidSlug
		}
	}
	return nil
}

// suffixedSlug builds the nth suffixed candidate for a preferred base:
// base-1, base-2, ...
func suffixedSlug(base string, n int) string {
	var sb strings.Builder
	sb.WriteString(base)
	sb.WriteByte('-')
	fmt.Fprintf(&sb, "%d", n)
	return sb.String()
}
