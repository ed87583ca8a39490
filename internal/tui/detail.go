package tui

import (
	"strings"

	"github.com/blogdesk/blogdesk/internal/article"
	"github.com/charmbracelet/lipgloss"
)

// detailView is built fresh each time an article is opened and dropped on
// close.
type detailView struct {
	article article.Article
	scroll  int
}

func (d *detailView) render(st styles, imageLink string, width, height int) string {
	a := d.article
	contentWidth := width - 6 // border + padding
	if contentWidth < 20 {
		contentWidth = 20
	}

	meta := []string{
		st.label.Render("ID     ") + st.body.Render(a.ID),
		st.label.Render("Image  ") + st.body.Render(a.ImageLabel()),
		st.label.Render("Date   ") + st.body.Render(article.FormatDate(a.CreatedAt)),
		st.label.Render("Length ") + st.body.Render(article.ReadTime(a.ContentText())),
		st.label.Render("Slug   ") + st.body.Render(article.Slug(a.Title)),
	}

	body := strings.Split(wrapParagraphs(a.ContentText(), contentWidth), "\n")
	bodyHeight := height - len(meta) - 10
	if bodyHeight < 3 {
		bodyHeight = 3
	}
	scroll := min(d.scroll, max(0, len(body)-1))
	body = body[scroll:]
	if len(body) > bodyHeight {
		body = body[:bodyHeight]
	}

	parts := []string{
		st.overlayTitle.Width(contentWidth).Render(a.Title),
		strings.Join(meta, "\n"),
		"",
		st.body.Width(contentWidth).Render(strings.Join(body, "\n")),
	}
	if a.HasImage() && imageLink != "" {
		parts = append(parts, "", st.link.Width(contentWidth).Render("Image: "+imageLink+"  (o to open)"))
	}
	parts = append(parts, "", st.helpDim.Render("j/k scroll  o open image  esc close"))

	return st.overlay.Width(width - 2).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}
