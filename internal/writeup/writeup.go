package writeup

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/raphi011/wu/internal/github"
)

// Badge classifies a writeup.
type Badge string

const (
	BadgeHTB Badge = "HTB"
	BadgeWeb Badge = "Web"
)

// Badges lists all badges in display order.
var Badges = []Badge{BadgeHTB, BadgeWeb}

// Item is a markdown document discovered in the writeups repository.
// Path is the unique key.
type Item struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Badge    Badge  `json:"badge"`
	HTMLURL  string `json:"htmlUrl"`
	RawURL   string `json:"rawUrl"`
	Size     int64  `json:"size"`
}

// IsMarkdown reports whether a listing entry is a markdown file.
func IsMarkdown(e github.Entry) bool {
	return e.Type == github.TypeFile && strings.HasSuffix(strings.ToLower(e.Name), ".md")
}

// FromEntry converts a listing entry into an Item.
func FromEntry(e github.Entry) Item {
	return Item{
		Name:     e.Name,
		Path:     e.Path,
		Title:    FormatTitle(e.Name),
		Category: DeriveCategory(e.Path, e.Name),
		Badge:    DeriveBadge(e.Path, e.Name),
		HTMLURL:  e.HTMLURL,
		RawURL:   RawURL(e),
		Size:     e.Size,
	}
}

var (
	extPattern     = regexp.MustCompile(`\.[^/.]+$`)
	ordinalPattern = regexp.MustCompile(`^\d+[_-]?`)
	sepPattern     = regexp.MustCompile(`[_-]+`)
	noisePattern   = regexp.MustCompile(`(?i)^(htb|writeups?|web)$`)
)

// FormatTitle turns a file name like "03_sql_injection_htb.md" into a
// display title ("Sql Injection").
func FormatTitle(name string) string {
	base := extPattern.ReplaceAllString(name, "")
	stripped := ordinalPattern.ReplaceAllString(base, "")

	var tokens []string
	for _, tok := range sepPattern.Split(stripped, -1) {
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}

	var kept []string
	for _, tok := range tokens {
		if !noisePattern.MatchString(tok) {
			kept = append(kept, tok)
		}
	}
	if len(kept) == 0 {
		kept = tokens
	}

	if len(kept) == 0 {
		switch {
		case stripped != "":
			return stripped
		case base != "":
			return base
		default:
			return "Untitled"
		}
	}

	for i, tok := range kept {
		kept[i] = capitalize(tok)
	}
	return strings.Join(kept, " ")
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// FormatCategory turns a directory name like "web-exploitation" into
// "Web Exploitation". Only word starts are changed; the rest keeps its case.
// Word runes are Unicode letters, digits and underscores.
func FormatCategory(s string) string {
	s = sepPattern.ReplaceAllString(s, " ")

	var b strings.Builder
	prevWord := false
	for _, r := range s {
		word := r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
		if word && !prevWord {
			r = unicode.ToUpper(r)
		}
		b.WriteRune(r)
		prevWord = word
	}
	return strings.TrimSpace(b.String())
}

// DeriveCategory returns the display category for a document.
// Nested documents are grouped by their top-level directory; root documents
// fall back to a guess from the file name.
func DeriveCategory(path, name string) string {
	segments := strings.Split(path, "/")
	if len(segments) > 1 {
		return FormatCategory(segments[0])
	}
	if strings.Contains(strings.ToLower(name), "web") {
		return string(BadgeWeb)
	}
	return string(BadgeHTB)
}

// DeriveBadge returns BadgeWeb if the path or name mentions "web".
func DeriveBadge(path, name string) Badge {
	if strings.Contains(strings.ToLower(path+" "+name), "web") {
		return BadgeWeb
	}
	return BadgeHTB
}

// RawURL returns the URL of the document's raw text.
func RawURL(e github.Entry) string {
	if e.DownloadURL != "" {
		return e.DownloadURL
	}
	if strings.Contains(e.HTMLURL, "/blob/") {
		u := strings.Replace(e.HTMLURL, "github.com", "raw.githubusercontent.com", 1)
		return strings.Replace(u, "/blob/", "/", 1)
	}
	return e.HTMLURL
}

// FormatSize renders a byte count as "512 B", "1.5 KB" or "2.0 MB".
func FormatSize(size int64) string {
	if size < 1024 {
		return fmt.Sprintf("%d B", size)
	}
	kb := float64(size) / 1024
	if kb < 1024 {
		return fmt.Sprintf("%.1f KB", kb)
	}
	return fmt.Sprintf("%.1f MB", kb/1024)
}
