package article

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

// DefaultImage is the placeholder filename the API assigns to articles
// created without an upload.
const DefaultImage = "default.png"

// PreviewLength is the number of runes shown in a card preview.
const PreviewLength = 150

// Article is a blog entry as the API returns it.
type Article struct {
	ID        string    `json:"_id"`
	Title     string    `json:"titulo"`
	Content   string    `json:"contenido"`
	Image     string    `json:"imagen,omitempty"`
	CreatedAt time.Time `json:"fecha"`
}

// HasImage reports whether the article references an uploaded image.
func (a Article) HasImage() bool {
	return a.Image != "" && a.Image != DefaultImage
}

// ImageLabel is the text shown in place of a thumbnail.
func (a Article) ImageLabel() string {
	if !a.HasImage() {
		return "no image"
	}
	return a.Image
}

// ContentText returns the body as terminal-friendly text. Bodies with HTML
// tags are converted to Markdown; anything else is returned as is.
func (a Article) ContentText() string {
	if !htmlTag.MatchString(a.Content) {
		return a.Content
	}
	out, err := converter.ConvertString(a.Content)
	if err != nil {
		return a.Content
	}
	return strings.TrimSpace(out)
}

// Preview is the truncated card body.
func (a Article) Preview() string {
	return Truncate(strings.Join(strings.Fields(a.ContentText()), " "), PreviewLength)
}

var (
	htmlTag   = regexp.MustCompile(`</?[a-zA-Z][a-zA-Z0-9]*(\s[^<>]*)?/?>`)
	converter = md.NewConverter("", true, &md.Options{EscapeMode: "disabled"})
)

// Truncate keeps the first n runes of s and appends "..." when s is longer
// than n.
func Truncate(s string, n int) string {
	if n < 0 {
		n = 0
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// FormatDate renders a creation timestamp for display.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "unknown date"
	}
	return t.Local().Format("January 2, 2006 15:04")
}

const wordsPerMinute = 200

// ReadTime estimates reading time for text.
func ReadTime(text string) string {
	words := len(strings.Fields(text))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("%d min read", minutes)
}

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9 -]`)
	slugSpaces  = regexp.MustCompile(`\s+`)
	slugDashes  = regexp.MustCompile(`-+`)
)

// Slug turns a title into a URL fragment.
func Slug(title string) string {
	s := strings.ToLower(title)
	s = slugInvalid.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(s, "-")
	return slugDashes.ReplaceAllString(s, "-")
}
