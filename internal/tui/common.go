package tui

import (
	"fmt"
	"time"
)

// viewState represents the currently active view.
type viewState int

const (
	viewActivities viewState = iota
	viewProjects
	viewReports
)

var viewNames = []string{"Activities", "Projects", "Reports"}

// --- Messages ---

// storeChangedMsg tells the app to re-read the tracker stores.
type storeChangedMsg struct{}

type unauthorizedMsg struct{}

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type timerStartedMsg struct{}

type exportDoneMsg struct {
	path string
}

type importDoneMsg struct {
	path       string
	projects   int
	activities int
}

// --- Helpers ---

func errStatus(prefix string, err error) statusMsg {
	return statusMsg{text: fmt.Sprintf("%s: %v", prefix, err), isError: true}
}

// formatElapsed renders a running timer as HH:MM:SS.
func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatHours(d time.Duration) string {
	return fmt.Sprintf("%.1fh", d.Hours())
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
