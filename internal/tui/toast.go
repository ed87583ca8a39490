package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	toastTTL  = 5 * time.Second
	maxToasts = 3
)

type toastKind int

const (
	toastInfo toastKind = iota
	toastSuccess
	toastError
)

type toast struct {
	id   int
	kind toastKind
	text string
}

// notify queues a toast and schedules its removal.
func (a *App) notify(kind toastKind, text string) tea.Cmd {
	a.toastSeq++
	id := a.toastSeq
	a.toasts = append(a.toasts, toast{id: id, kind: kind, text: text})
	if len(a.toasts) > maxToasts {
		a.toasts = a.toasts[len(a.toasts)-maxToasts:]
	}
	return tea.Tick(toastTTL, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

func (a *App) notifyErr(prefix string, err error) tea.Cmd {
	return a.notify(toastError, fmt.Sprintf("%s: %v", prefix, err))
}

func (a *App) dismissToast(id int) {
	for i, t := range a.toasts {
		if t.id == id {
			a.toasts = append(a.toasts[:i], a.toasts[i+1:]...)
			return
		}
	}
}

func (a *App) renderToasts() []string {
	lines := make([]string, 0, len(a.toasts))
	for i := len(a.toasts) - 1; i >= 0; i-- {
		t := a.toasts[i]
		style := a.st.toastInfo
		switch t.kind {
		case toastSuccess:
			style = a.st.toastSuccess
		case toastError:
			style = a.st.toastError
		}
		lines = append(lines, " "+style.Render(truncateStr(t.text, a.width-2)))
	}
	return lines
}
