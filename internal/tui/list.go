package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/blogdesk/blogdesk/internal/article"
)

const (
	emptyMarker    = "No articles available"
	notFoundMarker = "Article not found"
	loadingMarker  = "Loading..."
)

func relativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	default:
		return t.Format("Jan 2")
	}
}

// renderCard depends only on its arguments, so the same article renders
// the same card in the full list and in a search result.
func renderCard(a article.Article, selected bool, width int, st styles) string {
	if width < 20 {
		width = 40
	}
	inner := width - 2

	marker := "  "
	titleStyle := st.cardTitle
	if selected {
		marker = st.cardMarker.Render("▌ ")
		titleStyle = st.cardTitleSelected
	}

	title := marker + titleStyle.Render(truncateStr(a.Title, inner))

	meta := fmt.Sprintf("ID: %s · %s", a.ID, article.FormatDate(a.CreatedAt))
	if !a.CreatedAt.IsZero() {
		meta += " (" + relativeTime(a.CreatedAt) + ")"
	}
	metaLine := "  " + st.cardMeta.Render(truncateStr(meta, inner-len(a.ImageLabel())-3)) +
		" " + st.cardThumb.Render("["+a.ImageLabel()+"]")

	lines := []string{title, metaLine}
	preview := a.Preview()
	if preview != "" {
		for _, l := range strings.Split(wrapText(preview, inner), "\n") {
			lines = append(lines, "  "+st.cardPreview.Render(l))
		}
	}
	return strings.Join(lines, "\n")
}

func truncateStr(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

// renderList lays out cards so the one under the cursor is always visible.
func renderList(articles []article.Article, cursor int, height int, width int, st styles) string {
	if len(articles) == 0 {
		return lipglossCenter(st.emptyState.Render(emptyMarker), len(emptyMarker), width, height)
	}

	cards := make([]string, len(articles))
	heights := make([]int, len(articles))
	for i, a := range articles {
		cards[i] = renderCard(a, i == cursor, width, st)
		heights[i] = strings.Count(cards[i], "\n") + 2 // card + blank line
	}

	// Walk back from the cursor to find the first card that still fits
	start := 0
	used := 0
	for i := cursor; i >= 0; i-- {
		if used+heights[i] > height && i != cursor {
			start = i + 1
			break
		}
		used += heights[i]
	}

	var b strings.Builder
	used = 0
	for i := start; i < len(cards); i++ {
		if used+heights[i]-1 > height && i != start {
			break
		}
		if i > start {
			b.WriteString("\n\n")
		}
		b.WriteString(cards[i])
		used += heights[i]
	}
	return b.String()
}

func lipglossCenter(s string, visible, width, height int) string {
	pad := (width - visible) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat("\n", height/3) + strings.Repeat(" ", pad) + s
}

func wrapText(s string, width int) string {
	if width <= 0 {
		return s
	}
	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}

	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len([]rune(line))+1+len([]rune(w)) > width {
			lines = append(lines, line)
			line = w
		} else {
			line += " " + w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}

// wrapParagraphs wraps each paragraph separately so blank lines survive.
func wrapParagraphs(s string, width int) string {
	paras := strings.Split(s, "\n")
	for i, p := range paras {
		paras[i] = wrapText(p, width)
	}
	return strings.Join(paras, "\n")
}
