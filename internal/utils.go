package internal

import (
	"net/url"
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// SanitizeFilename creates a safe filename from a string.
// Letters and digits of any script survive, as do '-', '_' and '.'.
// Everything else becomes '_'. Input is NFC normalized first so that
// decomposed and precomposed umlauts map to the same name.
func SanitizeFilename(s string) string {
	var b strings.Builder
	for _, r := range norm.NFC.String(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}

	result := strings.Trim(b.String(), ".")
	if result == "" {
		return "_"
	}
	return result
}

// URLBaseName returns the last element of the URL path, ignoring query and fragment.
// It returns "" when the URL has no usable file name.
func URLBaseName(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}

	base := path.Base(u.Path)
	if base == "." || base == "/" || base == "" {
		return ""
	}

	// Percent-encoded names such as "s%C3%B6d%C3%A4.jpg"
	if unescaped, err := url.PathUnescape(base); err == nil {
		base = unescaped
	}
	return base
}
