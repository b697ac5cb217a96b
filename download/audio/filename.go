package audio

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// FallbackName is used when a title is absent or sanitizes to nothing.
const FallbackName = "audio"

// maxNameBytes keeps names well under the 255-byte limit of common filesystems.
const maxNameBytes = 200

// SanitizeFilename turns an arbitrary title into a safe file stem.
//
// Letters, digits and the characters " -_.()[]" are kept; every other rune
// is replaced by '_'. Leading and trailing spaces and dots are trimmed and
// the result is cut to 200 bytes on a rune boundary. An empty result
// becomes FallbackName. For example "Song: Remix" becomes "Song_ Remix".
func SanitizeFilename(title string) string {
	var b strings.Builder
	for _, r := range title {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case strings.ContainsRune(" -_.()[]", r):
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	name := strings.Trim(b.String(), " .")
	if len(name) > maxNameBytes {
		cut := maxNameBytes
		for cut > 0 && !utf8.RuneStart(name[cut]) {
			cut--
		}
		name = strings.TrimRight(name[:cut], " .")
	}
	if name == "" {
		return FallbackName
	}
	return name
}

// AttachmentName returns the download filename for a title, which may be absent.
func AttachmentName(title *string) string {
	if title == nil {
		return FallbackName + "." + OutputFormat
	}
	return SanitizeFilename(*title) + "." + OutputFormat
}
