// Package render turns template markup plus a placeholder dictionary into
// the composed document text, and hashes composed content for the public
// verification surface.
package render

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/locagest/contratos/services/contracts/internal/placeholder"
)

// Tokens are uppercase bracketed identifiers embedded in otherwise free-form
// markup: [NOME_LOCADOR]. Substitution is literal replacement, not a template
// language.
var tokenRE = regexp.MustCompile(`\[([A-Z0-9_]+)\]`)

// Compose replaces every token occurrence with its dictionary value in a
// single pass. Substituted output is never re-scanned, so a resolved value
// containing bracket-like text stays untouched. Tokens absent from the
// dictionary become empty strings rather than visible placeholders.
func Compose(template string, dict placeholder.Dictionary) string {
	return tokenRE.ReplaceAllStringFunc(template, func(m string) string {
		name := m[1 : len(m)-1]
		return dict[name]
	})
}

// NormalizeText canonicalizes line endings, strips trailing whitespace per
// line and trailing blank lines, and guarantees a final newline.
func NormalizeText(in string) string {
	s := strings.ReplaceAll(in, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " \t")
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n") + "\n"
}

// HashContent is the sha256 hex of composed content, the value shown on the
// verification page.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// ToHTML renders markdown-authored composed content to HTML for the on-screen
// preview. Token substitution always happens before this step.
func ToHTML(content string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(content), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
