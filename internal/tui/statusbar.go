package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type healthState int

const (
	healthChecking healthState = iota
	healthOnline
	healthOffline
)

func (a *App) renderHeader() string {
	left := a.st.header.Render("blogdesk") + " " + a.st.headerDim.Render(a.baseURL)

	var right string
	switch a.health {
	case healthOnline:
		right = a.st.online.Render("● API online")
	case healthOffline:
		right = a.st.offline.Render("● API offline")
	default:
		right = a.st.checking.Render("○ checking API")
	}
	right += " "

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return left + fmt.Sprintf("%*s", gap, "") + right
}

func renderStatusBar(st styles, articleCount int, searchID string, pending string, width int) string {
	left := fmt.Sprintf(" %d articles", articleCount)
	if searchID != "" {
		left = fmt.Sprintf(" result for %s", searchID)
	}
	if pending != "" {
		left += " · " + pending
	}

	right := " n new  / find  enter view  e edit  d delete  ? help "

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + fmt.Sprintf("%*s", gap, "") + right

	return st.statusBar.Width(width).Render(bar)
}

func renderBottomBar(st styles, hints string, width int) string {
	right := " " + hints + " "
	gap := width - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return st.statusBar.Width(width).Render(fmt.Sprintf("%*s", gap, "") + right)
}
