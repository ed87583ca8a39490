package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/blogdesk/blogdesk/internal/apiclient"
	"github.com/blogdesk/blogdesk/internal/apitest"
	"github.com/blogdesk/blogdesk/internal/article"
	"github.com/blogdesk/blogdesk/internal/store"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakePrefs struct {
	mu    sync.Mutex
	theme string
	acts  []store.Activity
}

func (p *fakePrefs) SetTheme(theme string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.theme = theme
	return nil
}

func (p *fakePrefs) Record(a store.Activity) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.acts = append(p.acts, a)
	return nil
}

func (p *fakePrefs) activities() []store.Activity {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]store.Activity(nil), p.acts...)
}

func (p *fakePrefs) savedTheme() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.theme
}

func newTestApp(t *testing.T, seed ...article.Article) (*App, *apitest.Server, *fakePrefs) {
	t.Helper()
	srv := apitest.NewServer()
	t.Cleanup(srv.Close)
	srv.Seed(seed...)

	client := apiclient.New(apiclient.Options{BaseURL: srv.APIURL(), HealthPath: "/ruta-de-prueba"})
	prefs := &fakePrefs{}
	a := NewApp(RunOpts{
		API:            client,
		Prefs:          prefs,
		BaseURL:        srv.APIURL(),
		HealthInterval: time.Hour,
		Dark:           true,
		ImageLink:      func(name string) string { return "http://images.test/" + name },
	})
	a.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return a, srv, prefs
}

// appMsg reports whether msg is one the App produces for itself. Spinner
// frames and cursor blinks are left out so draining terminates.
func appMsg(msg tea.Msg) bool {
	switch msg.(type) {
	case articlesLoadedMsg, articlesErrMsg, searchDoneMsg, detailLoadedMsg,
		editLoadedMsg, saveDoneMsg, deleteDoneMsg, healthMsg, opErrMsg:
		return true
	}
	return false
}

// drain runs cmd and feeds every resulting app message back into a until
// nothing is left. Timer commands (toast expiry, health ticks) outlive the
// per-round deadline and are abandoned.
func drain(t *testing.T, a *App, cmd tea.Cmd) {
	t.Helper()
	pending := []tea.Cmd{cmd}
	for round := 0; len(pending) > 0; round++ {
		if round > 50 {
			t.Fatal("drain: too many rounds")
		}
		results := make(chan tea.Msg, 256)
		n := 0
		start := func(c tea.Cmd) {
			if c == nil {
				return
			}
			n++
			go func() { results <- c() }()
		}
		for _, c := range pending {
			start(c)
		}
		pending = nil

		deadline := time.After(500 * time.Millisecond)
	collect:
		for n > 0 {
			select {
			case msg := <-results:
				n--
				if batch, ok := msg.(tea.BatchMsg); ok {
					for _, c := range batch {
						start(c)
					}
					continue
				}
				if !appMsg(msg) {
					continue
				}
				_, next := a.Update(msg)
				pending = append(pending, next)
			case <-deadline:
				break collect
			}
		}
	}
}

func press(t *testing.T, a *App, k tea.KeyMsg) {
	t.Helper()
	_, cmd := a.Update(k)
	drain(t, a, cmd)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func key(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

func click(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
}

func hasToast(a *App, kind toastKind, substr string) bool {
	for _, t := range a.toasts {
		if t.kind == kind && strings.Contains(t.text, substr) {
			return true
		}
	}
	return false
}

func start(t *testing.T, a *App) {
	t.Helper()
	drain(t, a, a.Init())
}

func TestInitialLoad(t *testing.T) {
	a, _, _ := newTestApp(t,
		article.Article{Title: "Older", Content: "first body", CreatedAt: time.Now().Add(-time.Hour)},
		article.Article{Title: "Newer", Content: "second body"},
	)
	start(t, a)

	if a.listState != listReady {
		t.Fatalf("listState = %v, want ready", a.listState)
	}
	if len(a.articles) != 2 || a.articles[0].Title != "Newer" {
		t.Fatalf("articles = %+v, want Newer first", a.articles)
	}
	if a.health != healthOnline {
		t.Errorf("health = %v, want online", a.health)
	}
	view := a.View()
	for _, want := range []string{"Older", "Newer", "API online", "2 articles"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestEmptyList(t *testing.T) {
	a, _, _ := newTestApp(t)
	start(t, a)

	if !strings.Contains(a.View(), emptyMarker) {
		t.Error("empty list should show the empty marker")
	}
}

func TestLoadErrorState(t *testing.T) {
	a, srv, _ := newTestApp(t)
	srv.SetOmitStatus(true)
	start(t, a)

	if a.listState != listFailed {
		t.Fatalf("listState = %v, want failed", a.listState)
	}
	if !strings.Contains(a.View(), "Error loading articles:") {
		t.Error("view should show the inline error state")
	}
	if !hasToast(a, toastError, "missing status") {
		t.Errorf("toasts = %+v, want malformed response error", a.toasts)
	}
}

func TestStaleListResponseDropped(t *testing.T) {
	a, _, _ := newTestApp(t, article.Article{Title: "Kept", Content: "c"})
	start(t, a)

	a.Update(articlesLoadedMsg{seq: a.listSeq - 1, articles: nil})
	if len(a.articles) != 1 {
		t.Errorf("stale list response replaced articles: %+v", a.articles)
	}
}

func TestSearchMatchesListCard(t *testing.T) {
	a, srv, _ := newTestApp(t,
		article.Article{Title: "Target", Content: "needle body", Image: "pic.png"},
		article.Article{Title: "Other", Content: "other body"},
	)
	start(t, a)

	var target article.Article
	for _, art := range a.articles {
		if art.Title == "Target" {
			target = art
		}
	}
	if target.ID == "" {
		t.Fatal("target not listed")
	}

	b := NewApp(RunOpts{API: apiclient.New(apiclient.Options{BaseURL: srv.APIURL()}), HealthInterval: time.Hour, Dark: true})
	b.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	start(t, b)
	press(t, b, runes("/"))
	press(t, b, runes(target.ID))
	press(t, b, key(tea.KeyEnter))

	if b.searchID != target.ID || len(b.articles) != 1 {
		t.Fatalf("search result = %+v (searchID %q)", b.articles, b.searchID)
	}
	want := renderCard(target, true, 98, a.st)
	got := renderCard(b.articles[0], true, 98, b.st)
	if got != want {
		t.Errorf("search card differs from list card:\nlist:   %q\nsearch: %q", want, got)
	}
	if !strings.Contains(b.View(), "Target") {
		t.Error("search result not rendered")
	}
}

func TestSearchEmptyInput(t *testing.T) {
	a, _, _ := newTestApp(t, article.Article{Title: "A", Content: "c"})
	start(t, a)
	seq := a.listSeq

	press(t, a, runes("/"))
	press(t, a, runes("   "))
	press(t, a, key(tea.KeyEnter))

	if a.listSeq != seq {
		t.Error("empty search should not issue a request")
	}
	if !hasToast(a, toastError, "article id") {
		t.Errorf("toasts = %+v, want validation error", a.toasts)
	}
}

func TestSearchNotFound(t *testing.T) {
	a, _, _ := newTestApp(t, article.Article{Title: "A", Content: "c"})
	start(t, a)

	press(t, a, runes("/"))
	press(t, a, runes("missing"))
	press(t, a, key(tea.KeyEnter))

	if a.listState != listNotFound {
		t.Fatalf("listState = %v, want not found", a.listState)
	}
	if !strings.Contains(a.View(), notFoundMarker) {
		t.Error("view should show the not-found marker")
	}

	press(t, a, key(tea.KeyEsc))
	if a.listState != listReady || len(a.articles) != 1 || a.searchID != "" {
		t.Errorf("esc should restore the full list, got state %v with %d articles", a.listState, len(a.articles))
	}
}

func TestCreateFlow(t *testing.T) {
	a, _, prefs := newTestApp(t)
	start(t, a)

	press(t, a, runes("n"))
	if a.mode != modeCreate || a.form == nil {
		t.Fatalf("mode = %v, want create form", a.mode)
	}
	press(t, a, runes("Hello"))
	press(t, a, key(tea.KeyTab))
	press(t, a, runes("World"))
	press(t, a, key(tea.KeyCtrlS))

	if a.mode != modeList || a.form != nil {
		t.Fatalf("form should close after a successful create (mode %v)", a.mode)
	}
	if len(a.articles) != 1 || a.articles[0].Title != "Hello" || a.articles[0].Content != "World" {
		t.Fatalf("articles = %+v, want Hello/World", a.articles)
	}
	if !hasToast(a, toastSuccess, "Article created") {
		t.Errorf("toasts = %+v", a.toasts)
	}
	acts := prefs.activities()
	if len(acts) != 1 || acts[0].Op != store.OpCreate || !acts[0].OK || acts[0].ArticleID != a.articles[0].ID {
		t.Errorf("activity = %+v", acts)
	}
}

func TestCreateValidation(t *testing.T) {
	a, srv, _ := newTestApp(t)
	start(t, a)

	press(t, a, runes("n"))
	press(t, a, runes("Only a title"))
	press(t, a, key(tea.KeyCtrlS))

	if a.mode != modeCreate {
		t.Errorf("mode = %v, form should stay open", a.mode)
	}
	if !hasToast(a, toastError, "content is required") {
		t.Errorf("toasts = %+v", a.toasts)
	}
	client := apiclient.New(apiclient.Options{BaseURL: srv.APIURL()})
	list, err := client.List(context.Background())
	if err != nil || len(list) != 0 {
		t.Errorf("no article should be created, got %d (err %v)", len(list), err)
	}
}

func TestCreateWithImage(t *testing.T) {
	a, srv, _ := newTestApp(t)
	start(t, a)

	path := filepath.Join(t.TempDir(), "cover.png")
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	if err := os.WriteFile(path, png, 0o644); err != nil {
		t.Fatal(err)
	}

	press(t, a, runes("n"))
	a.form.title.SetValue("With image")
	a.form.content.SetValue("Body")
	a.form.image.SetValue(path)
	press(t, a, key(tea.KeyCtrlS))

	ups := srv.Uploads()
	if len(ups) != 1 {
		t.Fatalf("uploads = %+v, want one", ups)
	}
	if len(a.articles) != 1 || ups[0].ArticleID != a.articles[0].ID {
		t.Errorf("upload went to %q, articles %+v", ups[0].ArticleID, a.articles)
	}
	if !hasToast(a, toastSuccess, "Image uploaded") {
		t.Errorf("toasts = %+v", a.toasts)
	}
}

func TestUploadFailureStillClosesForm(t *testing.T) {
	a, _, prefs := newTestApp(t)
	start(t, a)

	press(t, a, runes("n"))
	a.form.title.SetValue("Saved anyway")
	a.form.content.SetValue("Body")
	a.form.image.SetValue(filepath.Join(t.TempDir(), "missing.png"))
	press(t, a, key(tea.KeyCtrlS))

	if a.mode != modeList || a.form != nil {
		t.Fatalf("form should close even when the upload fails (mode %v)", a.mode)
	}
	if len(a.articles) != 1 || a.articles[0].Title != "Saved anyway" {
		t.Errorf("list should be reloaded with the new article, got %+v", a.articles)
	}
	if !hasToast(a, toastError, "Error uploading image") {
		t.Errorf("toasts = %+v", a.toasts)
	}
	acts := prefs.activities()
	if len(acts) != 2 || acts[1].Op != store.OpUpload || acts[1].OK {
		t.Errorf("activity = %+v, want failed upload recorded", acts)
	}
}

func TestEditFlow(t *testing.T) {
	a, srv, _ := newTestApp(t, article.Article{Title: "Old", Content: "Old body"})
	start(t, a)
	id := a.articles[0].ID

	press(t, a, runes("e"))
	if a.mode != modeEdit || a.form == nil {
		t.Fatalf("mode = %v, want edit form", a.mode)
	}
	if a.form.articleID != id || a.form.title.Value() != "Old" {
		t.Fatalf("form = id %q title %q", a.form.articleID, a.form.title.Value())
	}

	a.form.title.SetValue("New")
	a.form.content.SetValue("Body")
	press(t, a, key(tea.KeyCtrlS))

	got, ok := srv.Article(id)
	if !ok || got.Title != "New" || got.Content != "Body" {
		t.Errorf("server article = %+v", got)
	}
	if a.mode != modeList || a.form != nil {
		t.Errorf("edit form should close after saving")
	}
	if a.articles[0].Title != "New" {
		t.Errorf("list not reloaded: %+v", a.articles)
	}
}

func TestEditFailureKeepsFormOpen(t *testing.T) {
	a, srv, _ := newTestApp(t, article.Article{Title: "Doomed", Content: "c"})
	start(t, a)
	id := a.articles[0].ID

	press(t, a, runes("e"))
	client := apiclient.New(apiclient.Options{BaseURL: srv.APIURL()})
	if _, err := client.Delete(context.Background(), id); err != nil {
		t.Fatal(err)
	}
	press(t, a, key(tea.KeyCtrlS))

	if a.mode != modeEdit || a.form == nil {
		t.Fatalf("failed update should leave the form open (mode %v)", a.mode)
	}
	if a.form.submitting {
		t.Error("form should accept another submit")
	}
	if !hasToast(a, toastError, "Error updating article") {
		t.Errorf("toasts = %+v", a.toasts)
	}
}

func TestDetailOpenClose(t *testing.T) {
	a, _, _ := newTestApp(t, article.Article{Title: "Full Story", Content: "The whole story", Image: "full.png"})
	start(t, a)

	press(t, a, key(tea.KeyEnter))
	if a.mode != modeDetail || a.detail == nil {
		t.Fatalf("mode = %v, want detail", a.mode)
	}
	view := a.View()
	for _, want := range []string{"Full Story", "The whole story", "full.png", "http://images.test/full.png", "full-story"} {
		if !strings.Contains(view, want) {
			t.Errorf("detail view missing %q", want)
		}
	}

	press(t, a, runes("q"))
	if a.mode != modeList || a.detail != nil {
		t.Errorf("q should close the detail overlay")
	}
}

func TestDetailStaleResponseDropped(t *testing.T) {
	a, _, _ := newTestApp(t, article.Article{Title: "Slow", Content: "c"})
	start(t, a)

	_, cmd := a.Update(runes("v"))
	if a.pending == "" {
		t.Fatal("detail fetch should be pending")
	}
	press(t, a, key(tea.KeyEsc))
	drain(t, a, cmd)

	if a.mode != modeList || a.detail != nil {
		t.Errorf("response for a closed view reopened it (mode %v)", a.mode)
	}
	if len(a.toasts) != 0 {
		t.Errorf("cancelled fetch should be silent, toasts = %+v", a.toasts)
	}
}

func TestDetailShowsPlainTextUnchanged(t *testing.T) {
	body := "if a<b then c, I <3 Go *so* much_really_"
	a, _, _ := newTestApp(t, article.Article{Title: "Plain", Content: body})
	start(t, a)

	if !strings.Contains(a.View(), body) {
		t.Errorf("card preview altered the body:\n%s", a.View())
	}
	press(t, a, key(tea.KeyEnter))
	if !strings.Contains(a.View(), body) {
		t.Errorf("detail overlay altered the body:\n%s", a.View())
	}
}

func TestHelpCancelsPendingDetail(t *testing.T) {
	a, _, _ := newTestApp(t, article.Article{Title: "Pending", Content: "c"})
	start(t, a)

	_, cmd := a.Update(key(tea.KeyEnter))
	press(t, a, runes("?"))
	drain(t, a, cmd)

	if a.mode != modeHelp || a.detail != nil {
		t.Errorf("mode = %v, a fetch started before help must not open over it", a.mode)
	}
}

type failingPrefs struct{}

func (failingPrefs) SetTheme(string) error { return errors.New("disk full") }

func (failingPrefs) Record(store.Activity) error { return errors.New("disk full") }

func TestRecordFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	record(zap.New(core), failingPrefs{}, store.OpCreate, "id1", "T", nil)

	entries := logs.FilterMessage("recording activity failed").All()
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["op"]; got != store.OpCreate {
		t.Errorf("op field = %v, want %q", got, store.OpCreate)
	}
}

func TestClickOutsideClosesOverlays(t *testing.T) {
	a, _, _ := newTestApp(t, article.Article{Title: "Clickable", Content: "c"})
	start(t, a)

	press(t, a, key(tea.KeyEnter))
	if a.mode != modeDetail {
		t.Fatalf("mode = %v, want detail", a.mode)
	}
	a.Update(click(a.width/2, a.bodyHeight()/2))
	if a.mode != modeDetail {
		t.Error("click inside the overlay should keep it open")
	}
	a.Update(click(0, 0))
	if a.mode != modeList || a.detail != nil {
		t.Error("click outside should close the detail overlay")
	}

	press(t, a, runes("e"))
	if a.mode != modeEdit {
		t.Fatalf("mode = %v, want edit", a.mode)
	}
	a.Update(click(0, 0))
	if a.mode != modeList || a.form != nil {
		t.Error("click outside should close the edit overlay")
	}
}

func TestDeleteConfirm(t *testing.T) {
	a, srv, prefs := newTestApp(t, article.Article{Title: "Bye", Content: "c"})
	start(t, a)
	id := a.articles[0].ID

	press(t, a, runes("d"))
	if a.mode != modeConfirmDelete {
		t.Fatalf("mode = %v, want confirm", a.mode)
	}
	press(t, a, runes("n"))
	if _, ok := srv.Article(id); !ok || a.mode != modeList {
		t.Fatal("n should cancel the delete")
	}

	press(t, a, runes("d"))
	press(t, a, runes("y"))
	if _, ok := srv.Article(id); ok {
		t.Error("article still on the server")
	}
	for _, art := range a.articles {
		if art.ID == id {
			t.Error("deleted article still listed")
		}
	}
	acts := prefs.activities()
	if len(acts) != 1 || acts[0].Op != store.OpDelete || acts[0].Title != "Bye" {
		t.Errorf("activity = %+v", acts)
	}
}

func TestHealthOffline(t *testing.T) {
	a, srv, _ := newTestApp(t)
	srv.SetDown(true)
	start(t, a)

	if a.health != healthOffline {
		t.Fatalf("health = %v, want offline", a.health)
	}
	if !strings.Contains(a.View(), "API offline") {
		t.Error("header should show offline")
	}

	srv.SetDown(false)
	drain(t, a, a.healthCmd())
	if a.health != healthOnline {
		t.Errorf("health = %v, want online after recovery", a.health)
	}
}

func TestToastExpiry(t *testing.T) {
	a, _, _ := newTestApp(t)
	a.notify(toastInfo, "first")
	a.notify(toastInfo, "second")
	first := a.toasts[0].id

	a.Update(toastExpiredMsg{id: first})
	if len(a.toasts) != 1 || a.toasts[0].text != "second" {
		t.Errorf("toasts = %+v", a.toasts)
	}
}

func TestToastLimit(t *testing.T) {
	a, _, _ := newTestApp(t)
	for i := 0; i < maxToasts+2; i++ {
		a.notify(toastInfo, "x")
	}
	if len(a.toasts) != maxToasts {
		t.Errorf("len(toasts) = %d, want %d", len(a.toasts), maxToasts)
	}
}

func TestThemeToggle(t *testing.T) {
	a, _, prefs := newTestApp(t)
	start(t, a)

	press(t, a, runes("t"))
	if a.dark {
		t.Error("theme should switch to light")
	}
	if got := prefs.savedTheme(); got != "light" {
		t.Errorf("saved theme = %q, want light", got)
	}

	press(t, a, runes("t"))
	if got := prefs.savedTheme(); got != "dark" {
		t.Errorf("saved theme = %q, want dark", got)
	}
}

func TestHelpOverlay(t *testing.T) {
	a, _, _ := newTestApp(t)
	start(t, a)

	press(t, a, runes("?"))
	if a.mode != modeHelp || !strings.Contains(a.View(), "Keyboard Shortcuts") {
		t.Fatal("? should open help")
	}
	press(t, a, runes("?"))
	if a.mode != modeList {
		t.Error("? should close help")
	}
}
