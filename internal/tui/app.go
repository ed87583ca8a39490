package tui

import (
	"context"
	"strings"
	"time"

	"github.com/blogdesk/blogdesk/internal/apiclient"
	"github.com/blogdesk/blogdesk/internal/article"
	"github.com/blogdesk/blogdesk/internal/browser"
	"github.com/blogdesk/blogdesk/internal/store"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

type mode int

const (
	modeList mode = iota
	modeSearch
	modeDetail
	modeCreate
	modeEdit
	modeConfirmDelete
	modeHelp
)

type listState int

const (
	listLoading listState = iota
	listReady
	listFailed
	listNotFound
)

// API is the part of the article client the views call.
type API interface {
	Health(ctx context.Context) error
	List(ctx context.Context) ([]article.Article, error)
	Get(ctx context.Context, id string) (*article.Article, error)
	Create(ctx context.Context, title, content string) (*article.Article, error)
	Update(ctx context.Context, id, title, content string) (*article.Article, error)
	Delete(ctx context.Context, id string) (bool, error)
	UploadFile(ctx context.Context, id, path string) (*apiclient.UploadResult, error)
}

// Prefs persists the theme choice and the activity log.
type Prefs interface {
	SetTheme(theme string) error
	Record(a store.Activity) error
}

type keyHandler func(a *App) (tea.Model, tea.Cmd)

type App struct {
	api         API
	prefs       Prefs
	log         *zap.Logger
	imageLink   func(string) string
	baseURL     string
	healthEvery time.Duration

	articles []article.Article
	cursor   int
	mode     mode

	width  int
	height int

	// List region
	listState  listState
	listErr    string
	listSeq    int
	listCancel context.CancelFunc
	searchID   string

	// Overlay scope. viewSeq changes whenever a view opens or closes, so a
	// response tagged with an older value belongs to a disposed view.
	viewSeq    int
	viewCancel context.CancelFunc
	pending    string

	// Sub-components
	searchInput  textinput.Model
	spinner      spinner.Model
	form         *articleForm
	detail       *detailView
	deleteTarget *article.Article

	dark     bool
	st       styles
	health   healthState
	toasts   []toast
	toastSeq int

	listKeys map[string]keyHandler
}

// RunOpts holds all parameters for launching the TUI.
type RunOpts struct {
	API            API
	Prefs          Prefs
	Logger         *zap.Logger
	BaseURL        string
	ImageLink      func(name string) string
	HealthInterval time.Duration
	Dark           bool
}

func NewApp(opts RunOpts) *App {
	st := newStyles(opts.Dark)

	ti := textinput.New()
	ti.Placeholder = "Article id..."
	ti.Prompt = st.searchPrompt.Render("id ")
	ti.CharLimit = 64

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = st.spinner

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	every := opts.HealthInterval
	if every <= 0 {
		every = 30 * time.Second
	}
	imageLink := opts.ImageLink
	if imageLink == nil {
		imageLink = func(string) string { return "" }
	}

	return &App{
		api:         opts.API,
		prefs:       opts.Prefs,
		log:         logger.Named("tui"),
		imageLink:   imageLink,
		baseURL:     opts.BaseURL,
		healthEvery: every,
		mode:        modeList,
		listState:   listLoading,
		searchInput: ti,
		spinner:     sp,
		dark:        opts.Dark,
		st:          st,
		listKeys:    listKeyMap(),
	}
}

// listKeyMap is the dispatch table for the article list.
func listKeyMap() map[string]keyHandler {
	return map[string]keyHandler{
		"q":     (*App).quit,
		"j":     (*App).cursorDown,
		"down":  (*App).cursorDown,
		"k":     (*App).cursorUp,
		"up":    (*App).cursorUp,
		"enter": (*App).viewSelected,
		"v":     (*App).viewSelected,
		"e":     (*App).editSelected,
		"d":     (*App).confirmDelete,
		"n":     (*App).openCreateForm,
		"/":     (*App).startSearch,
		"r":     (*App).reload,
		"t":     (*App).toggleTheme,
		"?":     (*App).showHelp,
		"esc":   (*App).escape,
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.loadArticles(), a.healthCmd(), a.healthTick())
}

// beginListLoad supersedes whatever the list region was waiting for.
func (a *App) beginListLoad() (context.Context, int) {
	if a.listCancel != nil {
		a.listCancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.listCancel = cancel
	a.listSeq++
	a.listState = listLoading
	a.listErr = ""
	return ctx, a.listSeq
}

func (a *App) loadArticles() tea.Cmd {
	ctx, seq := a.beginListLoad()
	a.searchID = ""
	return tea.Batch(a.spinner.Tick, a.listCmd(ctx, seq))
}

func (a *App) openView() (context.Context, int) {
	a.closeView()
	ctx, cancel := context.WithCancel(context.Background())
	a.viewCancel = cancel
	return ctx, a.viewSeq
}

func (a *App) closeView() {
	if a.viewCancel != nil {
		a.viewCancel()
		a.viewCancel = nil
	}
	a.viewSeq++
	a.pending = ""
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case tea.MouseMsg:
		return a.handleMouse(msg)

	case articlesLoadedMsg:
		if msg.seq != a.listSeq {
			return a, nil
		}
		a.articles = msg.articles
		a.listState = listReady
		if a.cursor >= len(a.articles) {
			a.cursor = max(0, len(a.articles)-1)
		}
		return a, nil

	case articlesErrMsg:
		if msg.seq != a.listSeq {
			return a, nil
		}
		a.articles = nil
		a.listState = listFailed
		a.listErr = msg.err.Error()
		a.log.Warn("loading articles failed", zap.Error(msg.err))
		return a, a.notifyErr("Error loading articles", msg.err)

	case searchDoneMsg:
		if msg.seq != a.listSeq {
			return a, nil
		}
		if msg.err != nil {
			a.articles = nil
			a.listState = listNotFound
			a.log.Info("article lookup failed", zap.String("id", msg.id), zap.Error(msg.err))
			return a, a.notifyErr("Error fetching article", msg.err)
		}
		a.articles = []article.Article{*msg.article}
		a.cursor = 0
		a.listState = listReady
		return a, nil

	case detailLoadedMsg:
		if msg.seq != a.viewSeq {
			return a, nil
		}
		a.pending = ""
		if msg.err != nil {
			return a, a.notifyErr("Error fetching article", msg.err)
		}
		a.detail = &detailView{article: *msg.article}
		a.mode = modeDetail
		return a, nil

	case editLoadedMsg:
		if msg.seq != a.viewSeq {
			return a, nil
		}
		a.pending = ""
		if msg.err != nil {
			return a, a.notifyErr("Error loading article for editing", msg.err)
		}
		a.form = newArticleForm(formEdit, msg.article, a.formWidth())
		a.mode = modeEdit
		return a, textinput.Blink

	case saveDoneMsg:
		return a.handleSaved(msg)

	case deleteDoneMsg:
		if msg.err != nil {
			a.log.Warn("delete failed", zap.String("id", msg.id), zap.Error(msg.err))
			return a, a.notifyErr("Error deleting article", msg.err)
		}
		a.log.Info("article deleted", zap.String("id", msg.id))
		return a, tea.Batch(a.notify(toastSuccess, "Article deleted"), a.loadArticles())

	case healthMsg:
		prev := a.health
		if msg.err != nil {
			a.health = healthOffline
			if prev != healthOffline {
				a.log.Warn("API offline", zap.Error(msg.err))
			}
		} else {
			a.health = healthOnline
			if prev == healthOffline {
				a.log.Info("API back online")
			}
		}
		return a, nil

	case healthTickMsg:
		return a, tea.Batch(a.healthCmd(), a.healthTick())

	case toastExpiredMsg:
		a.dismissToast(msg.id)
		return a, nil

	case opErrMsg:
		return a, a.notifyErr(msg.prefix, msg.err)

	case spinner.TickMsg:
		if a.listState == listLoading || a.pending != "" {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	// Cursor blink and similar messages belong to the focused input
	var cmd tea.Cmd
	switch a.mode {
	case modeSearch:
		a.searchInput, cmd = a.searchInput.Update(msg)
	case modeCreate, modeEdit:
		cmd = a.form.update(msg)
	}
	return a, cmd
}

func (a *App) handleSaved(msg saveDoneMsg) (tea.Model, tea.Cmd) {
	verb, prefix := "created", "Error creating article"
	if msg.kind == formEdit {
		verb, prefix = "updated", "Error updating article"
	}
	formOpen := a.form != nil && msg.seq == a.viewSeq

	if msg.err != nil {
		if formOpen {
			a.form.submitting = false
		}
		a.log.Warn("save failed", zap.String("verb", verb), zap.Error(msg.err))
		return a, a.notifyErr(prefix, msg.err)
	}

	a.log.Info("article "+verb, zap.String("id", msg.article.ID))
	cmds := []tea.Cmd{a.notify(toastSuccess, "Article "+verb)}
	if msg.uploadErr != nil {
		// The article stays saved without its image.
		a.log.Warn("image upload failed", zap.String("id", msg.article.ID), zap.Error(msg.uploadErr))
		cmds = append(cmds, a.notifyErr("Error uploading image", msg.uploadErr))
	} else if msg.uploaded {
		cmds = append(cmds, a.notify(toastSuccess, "Image uploaded"))
	}

	if formOpen {
		a.closeForm()
	}
	cmds = append(cmds, a.loadArticles())
	return a, tea.Batch(cmds...)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global keys
	if msg.String() == "ctrl+c" {
		return a.quit()
	}

	// Mode-specific handling
	switch a.mode {
	case modeSearch:
		return a.handleSearchKey(msg)
	case modeDetail:
		return a.handleDetailKey(msg)
	case modeCreate, modeEdit:
		return a.handleFormKey(msg)
	case modeConfirmDelete:
		return a.handleConfirmKey(msg)
	case modeHelp:
		switch msg.String() {
		case "?", "esc", "q":
			a.mode = modeList
		}
		return a, nil
	}

	if h, ok := a.listKeys[msg.String()]; ok {
		return h(a)
	}
	return a, nil
}

func (a *App) selected() *article.Article {
	if a.listState != listReady || a.cursor >= len(a.articles) {
		return nil
	}
	return &a.articles[a.cursor]
}

func (a *App) quit() (tea.Model, tea.Cmd) {
	a.closeView()
	if a.listCancel != nil {
		a.listCancel()
	}
	return a, tea.Quit
}

func (a *App) cursorDown() (tea.Model, tea.Cmd) {
	if a.cursor < len(a.articles)-1 {
		a.cursor++
	}
	return a, nil
}

func (a *App) cursorUp() (tea.Model, tea.Cmd) {
	if a.cursor > 0 {
		a.cursor--
	}
	return a, nil
}

func (a *App) viewSelected() (tea.Model, tea.Cmd) {
	sel := a.selected()
	if sel == nil {
		return a, nil
	}
	ctx, seq := a.openView()
	a.pending = "loading article"
	return a, tea.Batch(a.spinner.Tick, a.detailCmd(ctx, seq, sel.ID))
}

func (a *App) editSelected() (tea.Model, tea.Cmd) {
	sel := a.selected()
	if sel == nil {
		return a, nil
	}
	ctx, seq := a.openView()
	a.pending = "loading article"
	return a, tea.Batch(a.spinner.Tick, a.editCmd(ctx, seq, sel.ID))
}

func (a *App) confirmDelete() (tea.Model, tea.Cmd) {
	sel := a.selected()
	if sel == nil {
		return a, nil
	}
	a.closeView()
	target := *sel
	a.deleteTarget = &target
	a.mode = modeConfirmDelete
	return a, nil
}

func (a *App) openCreateForm() (tea.Model, tea.Cmd) {
	a.openView()
	a.form = newArticleForm(formCreate, nil, a.formWidth())
	a.mode = modeCreate
	return a, textinput.Blink
}

func (a *App) startSearch() (tea.Model, tea.Cmd) {
	a.closeView()
	a.mode = modeSearch
	a.searchInput.SetValue("")
	return a, a.searchInput.Focus()
}

func (a *App) reload() (tea.Model, tea.Cmd) {
	return a, a.loadArticles()
}

// escape abandons a pending overlay fetch, or leaves a search result.
func (a *App) escape() (tea.Model, tea.Cmd) {
	if a.pending != "" {
		a.closeView()
		return a, nil
	}
	if a.searchID != "" {
		return a, a.loadArticles()
	}
	return a, nil
}

func (a *App) toggleTheme() (tea.Model, tea.Cmd) {
	a.dark = !a.dark
	a.st = newStyles(a.dark)
	a.spinner.Style = a.st.spinner
	a.searchInput.Prompt = a.st.searchPrompt.Render("id ")

	theme := "light"
	if a.dark {
		theme = "dark"
	}
	a.log.Debug("theme changed", zap.String("theme", theme))
	return a, tea.Batch(a.notify(toastInfo, "Theme: "+theme), a.saveThemeCmd(theme))
}

func (a *App) showHelp() (tea.Model, tea.Cmd) {
	a.closeView()
	a.mode = modeHelp
	return a, nil
}

func (a *App) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.mode = modeList
		a.searchInput.SetValue("")
		a.searchInput.Blur()
		return a, nil
	case "enter":
		return a.submitSearch()
	}

	var cmd tea.Cmd
	a.searchInput, cmd = a.searchInput.Update(msg)
	return a, cmd
}

func (a *App) submitSearch() (tea.Model, tea.Cmd) {
	id := strings.TrimSpace(a.searchInput.Value())
	if err := article.ValidateID(id); err != nil {
		return a, a.notify(toastError, "Please enter an article id")
	}

	a.mode = modeList
	a.searchInput.Blur()
	ctx, seq := a.beginListLoad()
	a.searchID = id
	return a, tea.Batch(a.spinner.Tick, a.searchCmd(ctx, seq, id))
}

func (a *App) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "enter":
		a.closeDetail()
		return a, nil
	case "j", "down":
		lines := strings.Count(wrapParagraphs(a.detail.article.ContentText(), a.detailWidth()-6), "\n")
		if a.detail.scroll < lines {
			a.detail.scroll++
		}
		return a, nil
	case "k", "up":
		if a.detail.scroll > 0 {
			a.detail.scroll--
		}
		return a, nil
	case "o":
		link := a.detailImageLink()
		if link == "" {
			return a, a.notify(toastInfo, "This article has no image")
		}
		return a, openBrowserCmd(link)
	}
	return a, nil
}

func openBrowserCmd(url string) tea.Cmd {
	return func() tea.Msg {
		if err := browser.Open(url); err != nil {
			return opErrMsg{prefix: "Could not open image", err: err}
		}
		return nil
	}
}

func (a *App) detailImageLink() string {
	if a.detail == nil || !a.detail.article.HasImage() {
		return ""
	}
	return a.imageLink(a.detail.article.Image)
}

func (a *App) closeDetail() {
	a.closeView()
	a.detail = nil
	a.mode = modeList
}

func (a *App) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.closeForm()
		return a, nil
	case "tab":
		return a, a.form.next()
	case "shift+tab":
		return a, a.form.prev()
	case "ctrl+s":
		return a.submitForm()
	case "enter":
		switch a.form.focus {
		case fieldTitle:
			return a, a.form.next()
		case fieldImage:
			return a.submitForm()
		}
	}
	return a, a.form.update(msg)
}

func (a *App) submitForm() (tea.Model, tea.Cmd) {
	f := a.form
	if f.submitting {
		return a, nil
	}
	title, content, image := f.values()
	if err := article.ValidateFields(title, content); err != nil {
		return a, a.notify(toastError, "Please fill in all required fields ("+err.Error()+")")
	}
	f.submitting = true
	return a, a.saveCmd(a.viewSeq, f.kind, f.articleID, title, content, image)
}

func (a *App) closeForm() {
	a.closeView()
	a.form = nil
	a.mode = modeList
}

func (a *App) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		target := a.deleteTarget
		a.deleteTarget = nil
		a.mode = modeList
		if target == nil {
			return a, nil
		}
		return a, a.deleteCmd(target.ID, target.Title)
	case "n", "N", "esc", "q":
		a.deleteTarget = nil
		a.mode = modeList
	}
	return a, nil
}

// handleMouse closes the detail or edit overlay on a click outside it.
func (a *App) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return a, nil
	}
	if a.mode != modeDetail && a.mode != modeEdit {
		return a, nil
	}

	x0, y0, x1, y1 := a.overlayBounds()
	if msg.X >= x0 && msg.X < x1 && msg.Y >= y0 && msg.Y < y1 {
		return a, nil
	}
	if a.mode == modeDetail {
		a.closeDetail()
	} else {
		a.closeForm()
	}
	return a, nil
}

func (a *App) formWidth() int {
	return max(20, min(a.width-16, 70))
}

func (a *App) detailWidth() int {
	return max(30, min(a.width-4, 90))
}

// bodyHeight is the screen minus the toast lines and the bottom bar.
func (a *App) bodyHeight() int {
	return max(1, a.height-1-len(a.toasts))
}

func (a *App) overlayBox() string {
	switch a.mode {
	case modeDetail:
		return a.detail.render(a.st, a.detailImageLink(), a.detailWidth(), a.bodyHeight())
	case modeCreate, modeEdit:
		return a.form.view(a.st, a.formWidth())
	case modeConfirmDelete:
		return a.renderConfirm()
	case modeHelp:
		return a.renderHelp()
	}
	return ""
}

func (a *App) overlayBounds() (x0, y0, x1, y1 int) {
	w, h := lipgloss.Size(a.overlayBox())
	x0 = max(0, (a.width-w)/2)
	y0 = max(0, (a.bodyHeight()-h)/2)
	return x0, y0, x0 + w, y0 + h
}

// compose stacks the body, the toasts and the bottom bar to fill the screen.
func (a *App) compose(body string, bar string) string {
	lines := strings.Split(body, "\n")
	bh := a.bodyHeight()
	for len(lines) < bh {
		lines = append(lines, "")
	}
	if len(lines) > bh {
		lines = lines[:bh]
	}
	lines = append(lines, a.renderToasts()...)
	lines = append(lines, bar)
	return strings.Join(lines, "\n")
}

func (a *App) View() string {
	if a.width == 0 {
		return a.st.header.Render("blogdesk")
	}

	switch a.mode {
	case modeDetail, modeCreate, modeEdit, modeConfirmDelete, modeHelp:
		body := lipgloss.Place(a.width, a.bodyHeight(), lipgloss.Center, lipgloss.Center, a.overlayBox())
		return a.compose(body, renderBottomBar(a.st, a.hints(), a.width))
	}

	header := a.renderHeader()

	sub := a.st.sectionTitle.Render("Articles")
	if a.searchID != "" {
		sub = a.st.sectionTitle.Render("Article "+a.searchID) + a.st.headerDim.Render("  esc show all")
	}
	if a.mode == modeSearch {
		sub = " " + a.searchInput.View()
	}

	contentHeight := max(3, a.bodyHeight()-2)
	var content string
	switch a.listState {
	case listLoading:
		content = lipglossCenter(a.spinner.View()+" "+loadingMarker, len(loadingMarker)+2, a.width, contentHeight)
	case listFailed:
		text := truncateStr("Error loading articles: "+a.listErr, a.width-4)
		content = lipglossCenter(a.st.errorState.Render(text), len([]rune(text)), a.width, contentHeight)
	case listNotFound:
		content = lipglossCenter(a.st.emptyState.Render(notFoundMarker), len(notFoundMarker), a.width, contentHeight)
	default:
		content = renderList(a.articles, a.cursor, contentHeight, a.width-2, a.st)
	}

	pending := ""
	if a.pending != "" {
		pending = a.spinner.View() + " " + a.pending
	}
	status := renderStatusBar(a.st, len(a.articles), a.searchID, pending, a.width)

	return a.compose(header+"\n"+sub+"\n"+content, status)
}

func (a *App) hints() string {
	switch a.mode {
	case modeDetail:
		return "j/k scroll  o open image  esc close"
	case modeCreate, modeEdit:
		return "tab next  ctrl+s save  esc close"
	case modeConfirmDelete:
		return "y delete  n cancel"
	case modeHelp:
		return "? close  q back"
	}
	return "q quit"
}

func (a *App) renderConfirm() string {
	t := a.deleteTarget
	if t == nil {
		return ""
	}
	content := a.st.overlayTitle.Render("Delete this article?") + "\n" +
		a.st.body.Render(truncateStr(t.Title, 60)) + "\n" +
		a.st.helpDim.Render("ID "+t.ID) + "\n\n" +
		a.st.key.Render("y") + " delete   " + a.st.key.Render("n") + " cancel"
	return a.st.overlay.Render(content)
}

func (a *App) renderHelp() string {
	title := a.st.key.Render("blogdesk")
	dim := a.st.helpDim

	help := title + dim.Render(" · Keyboard Shortcuts") + "\n\n" +
		dim.Render("Articles") + "\n" +
		"  j/k, ↑/↓      Move between cards\n" +
		"  enter, v      View full article\n" +
		"  n             New article\n" +
		"  e             Edit article\n" +
		"  d             Delete article\n" +
		"  /             Find article by id\n" +
		"  r             Reload list\n" +
		"  esc           Back to full list\n\n" +
		dim.Render("Forms") + "\n" +
		"  tab           Next field\n" +
		"  ctrl+s        Save\n" +
		"  esc           Close\n\n" +
		dim.Render("General") + "\n" +
		"  t             Toggle dark/light theme\n" +
		"  ?             Toggle this help\n" +
		"  q, ctrl+c     Quit"

	return a.st.overlay.Render(help)
}

// Run starts the TUI application.
func Run(opts RunOpts) error {
	app := NewApp(opts)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
