// Package sanitize provides defensive input handling for text that crosses a
// trust boundary: board card content interpolated into model prompts, and
// model output interpreted as file locations.
//
// The prompt-side defense is two-stage. Pattern stripping removes known
// instruction-override phrasings; it is best-effort, not a security boundary
// by itself. Boundary wrapping then encloses the text between sentinel markers
// the prompt template tells the model to treat as inert data.
package sanitize

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/droverhq/drover/internal/errors"
)

// Sentinel markers delimiting untrusted content inside prompts.
const (
	UserDataOpen  = "<<BEGIN_USER_DATA>>"
	UserDataClose = "<<END_USER_DATA>>"
)

// FilteredPlaceholder replaces stripped injection patterns.
const FilteredPlaceholder = "[FILTERED]"

// MaxSlugLen caps filesystem slug length.
const MaxSlugLen = 128

// injectionPatterns lists known instruction-override phrasings, English and
// French, replaced with FilteredPlaceholder before prompt interpolation.
var injectionPatterns = []*regexp.Regexp{ //nolint:gochecknoglobals // Fixed pattern table
	regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|above|prior)\s+(instructions?|prompts?|rules?)`),
	regexp.MustCompile(`(?i)ignore\s+tout\s+(ce\s+qui\s+pr[ée]c[èe]de|instructions?|r[èe]gles?)`),
	regexp.MustCompile(`(?i)you\s+are\s+now\s+`),
	regexp.MustCompile(`(?i)tu\s+es\s+maintenant\s+`),
	regexp.MustCompile(`(?i)new\s+(system\s+)?instructions?:`),
	regexp.MustCompile(`(?i)nouvelles?\s+instructions?:`),
	regexp.MustCompile(`(?i)override\s+(system|instructions?)`),
	regexp.MustCompile(`(?i)system\s*prompt`),
	regexp.MustCompile(`(?i)\[SYSTEM\]`),
	regexp.MustCompile(`(?i)\[INST\]`),
	regexp.MustCompile(`(?i)</?system>`),
	regexp.MustCompile(`(?i)### ?(SYSTEM|ADMIN|ROOT|OVERRIDE)`),
}

// spoofableMarkers are stripped from untrusted text before wrapping so the
// data boundary cannot be forged from inside.
var spoofableMarkers = []string{ //nolint:gochecknoglobals // Fixed marker table
	UserDataOpen,
	UserDataClose,
	"<<BEGIN_SYSTEM>>",
	"<<END_SYSTEM>>",
}

// StripInjection replaces known instruction-override phrasings with a neutral
// placeholder. Defense in depth only; the boundary wrapping and the prompt
// template's data-handling instruction carry the real weight.
func StripInjection(text string) string {
	sanitized := text
	for _, pattern := range injectionPatterns {
		sanitized = pattern.ReplaceAllString(sanitized, FilteredPlaceholder)
	}
	return sanitized
}

// WrapUserData encloses text between the user-data sentinels, stripping any
// pre-existing occurrences of the sentinel strings first so the boundary
// cannot be spoofed.
func WrapUserData(text string) string {
	cleaned := text
	for _, marker := range spoofableMarkers {
		cleaned = strings.ReplaceAll(cleaned, marker, "")
	}
	return UserDataOpen + "\n" + cleaned + "\n" + UserDataClose
}

// PrepareUserInput runs the full pipeline: strip injection patterns, then wrap
// with boundary markers. Repeated application to its own output does not
// corrupt already-clean text.
func PrepareUserInput(text string) string {
	return WrapUserData(StripInjection(text))
}

// Slug derives a filesystem-safe slug from arbitrary text: diacritics folded,
// lowercased, non-alphanumeric runs collapsed to single dashes, trimmed, and
// capped at MaxSlugLen.
func Slug(input string) string {
	folded := foldDiacritics(input)

	var b strings.Builder
	b.Grow(len(folded))
	lastDash := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash && b.Len() > 0 {
			b.WriteByte('-')
			lastDash = true
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > MaxSlugLen {
		slug = strings.Trim(slug[:MaxSlugLen], "-")
	}
	return slug
}

// foldDiacritics decomposes accented characters and drops the combining marks,
// so "Café" folds to "Cafe" instead of losing the letter entirely.
func foldDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SafePath resolves untrusted relative path rel against base and verifies the
// result stays inside base. It fails closed with ErrPathTraversal rather than
// ever returning a path outside base.
func SafePath(base, rel string) (string, error) {
	if strings.ContainsRune(rel, 0) {
		return "", errors.Wrapf(errors.ErrNullBytePath, "rejecting path %q", rel)
	}

	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", errors.Wrapf(err, "resolving base directory %q", base)
	}

	target := filepath.Join(absBase, filepath.Clean(rel))

	if target != absBase && !strings.HasPrefix(target, absBase+string(filepath.Separator)) {
		return "", errors.Wrapf(errors.ErrPathTraversal,
			"%q escapes base directory", rel)
	}
	return target, nil
}
