// Package naming derives the stable identifiers of a symbol record from its keyword.
package naming

import (
	"crypto/md5" //nolint:gosec // identifier derivation, not a security boundary
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

const (
	idPrefix   = "auto_"
	digestSize = 8
)

// unsafeFilenameChars keeps letters, digits, and underscore from any script.
var unsafeFilenameChars = regexp.MustCompile(`[^\p{L}\p{N}_]+`)

// ID returns "auto_<md5[:8]>_<keyword>". It is a pure function of keyword.
func ID(keyword string) string {
	return fmt.Sprintf("%s%s_%s", idPrefix, digest(keyword), keyword)
}

// Filename returns a filesystem- and URL-safe page name for keyword. When
// nothing safe remains the digest stands in, so the result stays deterministic.
func Filename(keyword string) string {
	clean := unsafeFilenameChars.ReplaceAllString(keyword, "")
	if clean == "" {
		return fmt.Sprintf("symbol-%s.html", digest(keyword))
	}
	return clean + ".html"
}

// AlternateFilename names a page whose Filename is already taken by another
// keyword. The full digest is appended so the result stays deterministic.
func AlternateFilename(keyword string) string {
	clean := unsafeFilenameChars.ReplaceAllString(keyword, "")
	if clean == "" {
		clean = "symbol"
	}
	sum := md5.Sum([]byte(keyword)) //nolint:gosec // see import
	return fmt.Sprintf("%s-%s.html", clean, hex.EncodeToString(sum[:]))
}

// KeywordFromID recovers the keyword embedded in an id of the form produced
// by ID. The digest is not re-checked, so ids written by older tooling parse too.
func KeywordFromID(id string) (string, bool) {
	rest, ok := strings.CutPrefix(id, idPrefix)
	if !ok || len(rest) < digestSize+2 || rest[digestSize] != '_' {
		return "", false
	}
	if _, err := hex.DecodeString(rest[:digestSize]); err != nil {
		return "", false
	}
	return rest[digestSize+1:], true
}

func digest(keyword string) string {
	sum := md5.Sum([]byte(keyword)) //nolint:gosec // see import
	return hex.EncodeToString(sum[:])[:digestSize]
}
