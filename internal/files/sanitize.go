package files

import (
	"mime"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	maxNameBytes       = 255
	defaultContentType = "application/octet-stream"
	unsafeNameChars    = "\\/:*?\"<>|#%&{}$!'@+=`^~[];,"
)

var (
	underscoreRun = regexp.MustCompile(`_{2,}`)
	dotUnderscore = regexp.MustCompile(`_*\._*`)
	dotRun        = regexp.MustCompile(`\.{2,}`)
)

// Sanitize turns an uploaded filename into a blob key. Unsafe characters
// become "_", separator runs collapse and leading or trailing separators are
// trimmed. Passes repeat until nothing changes, so Sanitize is idempotent.
// An empty result means the name is unusable.
func Sanitize(name string) string {
	s := name
	for {
		next := sanitizePass(s)
		if next == s {
			return s
		}
		s = next
	}
}

func sanitizePass(s string) string {
	s = strings.Map(func(r rune) rune {
		if isUnsafeNameRune(r) {
			return '_'
		}
		return r
	}, s)
	s = underscoreRun.ReplaceAllString(s, "_")
	s = dotUnderscore.ReplaceAllString(s, ".")
	s = dotRun.ReplaceAllString(s, ".")
	s = strings.Trim(s, "_.-")
	return truncateName(s)
}

func isUnsafeNameRune(r rune) bool {
	return r == utf8.RuneError ||
		unicode.IsSpace(r) ||
		unicode.IsControl(r) ||
		strings.ContainsRune(unsafeNameChars, r)
}

// truncateName keeps names within maxNameBytes, preserving the extension
// and never splitting a rune.
func truncateName(s string) string {
	if len(s) <= maxNameBytes {
		return s
	}
	ext := filepath.Ext(s)
	if len(ext) >= maxNameBytes/2 {
		ext = ""
	}
	base := s[:len(s)-len(ext)]
	limit := maxNameBytes - len(ext)
	for limit > 0 && !utf8.RuneStart(base[limit]) {
		limit--
	}
	return base[:limit] + ext
}

// resolveContentType falls back to the extension and then to a generic
// binary type when the client sent none.
func resolveContentType(contentType, filename string) string {
	contentType = strings.TrimSpace(contentType)
	if contentType != "" {
		return contentType
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); byExt != "" {
		return byExt
	}
	return defaultContentType
}

// contentTypeAllowed rejects video uploads. Parameters such as charset are
// ignored.
func contentTypeAllowed(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType, _, _ = strings.Cut(contentType, ";")
		mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	}
	return !strings.HasPrefix(mediaType, "video/")
}
