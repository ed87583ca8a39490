package tui

import (
	"strings"

	"github.com/blogdesk/blogdesk/internal/article"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type formKind int

const (
	formCreate formKind = iota
	formEdit
)

const (
	fieldTitle = iota
	fieldContent
	fieldImage
	fieldCount
)

// articleForm backs both the create and the edit overlay. An edit form
// carries the id it was opened for; the submit command reads it from here.
type articleForm struct {
	kind       formKind
	articleID  string
	title      textinput.Model
	content    textarea.Model
	image      textinput.Model
	focus      int
	submitting bool
}

func newArticleForm(kind formKind, a *article.Article, width int) *articleForm {
	ti := textinput.New()
	ti.Placeholder = "Title"
	ti.Prompt = ""
	ti.CharLimit = 200
	ti.Width = width

	ta := textarea.New()
	ta.Placeholder = "Write the article..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetWidth(width)
	ta.SetHeight(8)

	im := textinput.New()
	im.Placeholder = "Image file (optional)"
	im.Prompt = ""
	im.Width = width

	f := &articleForm{kind: kind, title: ti, content: ta, image: im}
	if a != nil {
		f.articleID = a.ID
		f.title.SetValue(a.Title)
		f.content.SetValue(a.Content)
	}
	f.focusField(fieldTitle)
	return f
}

func (f *articleForm) heading() string {
	if f.kind == formEdit {
		return "Edit article"
	}
	return "New article"
}

func (f *articleForm) focusField(i int) tea.Cmd {
	f.focus = (i + fieldCount) % fieldCount
	f.title.Blur()
	f.content.Blur()
	f.image.Blur()

	switch f.focus {
	case fieldContent:
		return f.content.Focus()
	case fieldImage:
		return f.image.Focus()
	default:
		return f.title.Focus()
	}
}

func (f *articleForm) next() tea.Cmd { return f.focusField(f.focus + 1) }
func (f *articleForm) prev() tea.Cmd { return f.focusField(f.focus - 1) }

// values returns the trimmed field contents.
func (f *articleForm) values() (title, content, image string) {
	return strings.TrimSpace(f.title.Value()),
		strings.TrimSpace(f.content.Value()),
		strings.TrimSpace(f.image.Value())
}

func (f *articleForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch f.focus {
	case fieldContent:
		f.content, cmd = f.content.Update(msg)
	case fieldImage:
		f.image, cmd = f.image.Update(msg)
	default:
		f.title, cmd = f.title.Update(msg)
	}
	return cmd
}

func (f *articleForm) view(st styles, width int) string {
	field := func(i int, label, input string) string {
		box := st.field
		if f.focus == i {
			box = st.fieldActive
		}
		return st.label.Render(label) + "\n" + box.Width(width).Render(input)
	}

	parts := []string{
		st.overlayTitle.Render(f.heading()),
	}
	if f.kind == formEdit {
		parts = append(parts, st.label.Render("ID ")+st.body.Render(f.articleID), "")
	}
	parts = append(parts,
		field(fieldTitle, "Title", f.title.View()),
		field(fieldContent, "Content", f.content.View()),
		field(fieldImage, "Image", f.image.View()),
		"",
	)

	hint := "tab next field  ctrl+s save  esc close"
	if f.submitting {
		hint = "saving..."
	}
	parts = append(parts, st.helpDim.Render(hint))

	return st.overlay.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}
