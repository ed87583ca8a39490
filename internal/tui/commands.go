package tui

import (
	"context"
	"time"

	"github.com/blogdesk/blogdesk/internal/article"
	"github.com/blogdesk/blogdesk/internal/store"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// Every command copies what it needs out of the App before returning the
// closure; closures run off the UI goroutine.

func (a *App) listCmd(ctx context.Context, seq int) tea.Cmd {
	api := a.api
	return func() tea.Msg {
		articles, err := api.List(ctx)
		if err != nil {
			return articlesErrMsg{seq: seq, err: err}
		}
		return articlesLoadedMsg{seq: seq, articles: articles}
	}
}

func (a *App) searchCmd(ctx context.Context, seq int, id string) tea.Cmd {
	api := a.api
	return func() tea.Msg {
		art, err := api.Get(ctx, id)
		return searchDoneMsg{seq: seq, id: id, article: art, err: err}
	}
}

func (a *App) detailCmd(ctx context.Context, seq int, id string) tea.Cmd {
	api := a.api
	return func() tea.Msg {
		art, err := api.Get(ctx, id)
		return detailLoadedMsg{seq: seq, article: art, err: err}
	}
}

func (a *App) editCmd(ctx context.Context, seq int, id string) tea.Cmd {
	api := a.api
	return func() tea.Msg {
		art, err := api.Get(ctx, id)
		return editLoadedMsg{seq: seq, article: art, err: err}
	}
}

// saveCmd creates or updates, then uploads the image if one was given.
// Mutations are not tied to the view scope: closing the form does not
// abort a write that is already on its way.
func (a *App) saveCmd(seq int, kind formKind, id, title, content, image string) tea.Cmd {
	api := a.api
	prefs := a.prefs
	log := a.log
	return func() tea.Msg {
		ctx := context.Background()
		msg := saveDoneMsg{seq: seq, kind: kind}

		op := store.OpCreate
		var saved *article.Article
		var err error
		if kind == formEdit {
			op = store.OpUpdate
			saved, err = api.Update(ctx, id, title, content)
		} else {
			saved, err = api.Create(ctx, title, content)
		}
		recID := id
		if err == nil && saved != nil {
			recID = saved.ID
		}
		record(log, prefs, op, recID, title, err)
		if err != nil {
			msg.err = err
			return msg
		}
		msg.article = saved

		if image != "" {
			target := id
			if kind == formCreate {
				target = saved.ID
			}
			_, uerr := api.UploadFile(ctx, target, image)
			record(log, prefs, store.OpUpload, target, title, uerr)
			msg.uploaded = uerr == nil
			msg.uploadErr = uerr
		}
		return msg
	}
}

func (a *App) deleteCmd(id, title string) tea.Cmd {
	api := a.api
	prefs := a.prefs
	log := a.log
	return func() tea.Msg {
		_, err := api.Delete(context.Background(), id)
		record(log, prefs, store.OpDelete, id, title, err)
		return deleteDoneMsg{id: id, title: title, err: err}
	}
}

func (a *App) healthCmd() tea.Cmd {
	api := a.api
	return func() tea.Msg {
		return healthMsg{err: api.Health(context.Background())}
	}
}

func (a *App) healthTick() tea.Cmd {
	return tea.Tick(a.healthEvery, func(time.Time) tea.Msg {
		return healthTickMsg{}
	})
}

func (a *App) saveThemeCmd(theme string) tea.Cmd {
	prefs := a.prefs
	if prefs == nil {
		return nil
	}
	return func() tea.Msg {
		if err := prefs.SetTheme(theme); err != nil {
			return opErrMsg{prefix: "Could not save theme", err: err}
		}
		return nil
	}
}

// record appends to the activity log. A failed write is logged and otherwise
// ignored so it never masks the API result.
func record(log *zap.Logger, prefs Prefs, op, id, title string, err error) {
	if prefs == nil {
		return
	}
	entry := store.Activity{Op: op, ArticleID: id, Title: title, OK: err == nil}
	if err != nil {
		entry.Detail = err.Error()
	}
	if rerr := prefs.Record(entry); rerr != nil {
		log.Warn("recording activity failed", zap.String("op", op), zap.String("id", id), zap.Error(rerr))
	}
}
