package docfetch

import (
	"mime"
	"path"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// suggestedName builds "<prefix>_<id>.pdf", or "<prefix>_<unix>.pdf" when
// id is empty.
func suggestedName(prefix, id string, now time.Time) string {
	if prefix == "" {
		prefix = "document"
	}
	if id == "" {
		id = strconv.FormatInt(now.Unix(), 10)
	}
	return prefix + "_" + id + ".pdf"
}

// dispositionFilename returns the filename parameter of a
// Content-Disposition header when it names a PDF.
func dispositionFilename(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	name := foldFilename(params["filename"])
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		return ""
	}
	return name
}

// stripMarks returns a fresh accent-stripping transformer. A
// transform.Chain holds buffers and must not be shared between goroutines.
func stripMarks() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// foldFilename reduces name to a safe ASCII base name: accents are
// stripped and anything outside [A-Za-z0-9._-] becomes an underscore.
func foldFilename(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if name == "." || name == "/" {
		return ""
	}
	folded, _, err := transform.String(stripMarks(), name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	for _, r := range folded {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), "._")
}

// titleFilename turns a page title into "<title>.pdf" with every rune
// outside [a-z0-9] replaced by an underscore. It returns "" for a title
// with no usable characters.
func titleFilename(title string) string {
	folded, _, err := transform.String(stripMarks(), strings.TrimSpace(title))
	if err != nil {
		folded = title
	}
	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	name := strings.Trim(b.String(), "_")
	if name == "" {
		return ""
	}
	return name + ".pdf"
}
