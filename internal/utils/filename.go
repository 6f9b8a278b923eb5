package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// Characters invalid in filenames on most filesystems
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	multipleSpaces       = regexp.MustCompile(`\s+`)
)

// maxFilenameLength leaves room for an extension within the common 255 byte limit.
const maxFilenameLength = 200

// SanitizeFilename turns a publication title into a portable file name
// (without extension). Empty results become "cover".
func SanitizeFilename(title string) string {
	name := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return ' '
		}
		return r
	}, title)
	name = invalidFilenameChars.ReplaceAllString(name, "")
	name = multipleSpaces.ReplaceAllString(name, " ")
	name = strings.Trim(name, " .")

	if len(name) > maxFilenameLength {
		name = name[:maxFilenameLength]
		// Do not cut a multi-byte character in half.
		for !utf8.ValidString(name) {
			name = name[:len(name)-1]
		}
		name = strings.TrimSpace(name)
	}

	if name == "" {
		return "cover"
	}
	return name
}
