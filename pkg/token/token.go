// Package token issues and validates the public contract tokens that link a
// printed document back to its verification page.
package token

import (
	"crypto/rand"
	"fmt"
	"regexp"
	"strings"
)

// Draft tokens have the shape {PREFIX}-{TYPE}-{YEAR}-{RAND4}-{RAND4}, e.g.
// CTR-RES-2026-4K2M-9QXZ. Once the server persists a contract the token
// becomes its permanent public identifier.
var pattern = regexp.MustCompile(`^[A-Z]{2,6}-[A-Z]{2,4}-\d{4}-[A-Z0-9]{4}-[A-Z0-9]{4}$`)

// alphabet excludes easily confused glyphs (0/O, 1/I/L).
const alphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// randomGroup draws n alphabet characters by rejection sampling, so no
// character is more likely than another.
func randomGroup(n int) string {
	// Bytes at or above limit would wrap unevenly and are redrawn.
	const limit = 256 - 256%len(alphabet)
	var b strings.Builder
	buf := make([]byte, n)
	for b.Len() < n {
		if _, err := rand.Read(buf); err != nil {
			panic(err)
		}
		for _, c := range buf {
			if int(c) >= limit {
				continue
			}
			b.WriteByte(alphabet[int(c)%len(alphabet)])
			if b.Len() == n {
				break
			}
		}
	}
	return b.String()
}

// New issues a token for the given prefix, contract type code and year.
func New(prefix, contractType string, year int) string {
	return fmt.Sprintf("%s-%s-%d-%s-%s",
		strings.ToUpper(prefix), strings.ToUpper(contractType), year,
		randomGroup(4), randomGroup(4))
}

// Valid reports whether s has the public token shape.
func Valid(s string) bool { return pattern.MatchString(s) }

// Year extracts the issue year group, or 0 when s is not a valid token.
func Year(s string) int {
	if !Valid(s) {
		return 0
	}
	var year int
	parts := strings.Split(s, "-")
	_, _ = fmt.Sscanf(parts[2], "%d", &year)
	return year
}
