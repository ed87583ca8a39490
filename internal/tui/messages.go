package tui

import (
	"github.com/blogdesk/blogdesk/internal/article"
)

type articlesLoadedMsg struct {
	seq      int
	articles []article.Article
}

type articlesErrMsg struct {
	seq int
	err error
}

type searchDoneMsg struct {
	seq     int
	id      string
	article *article.Article
	err     error
}

// detailLoadedMsg and editLoadedMsg carry the view sequence they were
// issued under; a mismatch means the view was closed or replaced.
type detailLoadedMsg struct {
	seq     int
	article *article.Article
	err     error
}

type editLoadedMsg struct {
	seq     int
	article *article.Article
	err     error
}

type saveDoneMsg struct {
	seq       int
	kind      formKind
	article   *article.Article
	err       error
	uploaded  bool
	uploadErr error
}

type deleteDoneMsg struct {
	id    string
	title string
	err   error
}

type healthMsg struct {
	err error
}

type healthTickMsg struct{}

type toastExpiredMsg struct {
	id int
}

type opErrMsg struct {
	prefix string
	err    error
}
