package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/starford/prdboard/internal/apperr"
	"github.com/starford/prdboard/internal/board"
	"github.com/starford/prdboard/internal/prefs"
	"github.com/starford/prdboard/internal/refresh"
)

type palette struct {
	title    lipgloss.Style
	muted    lipgloss.Style
	help     lipgloss.Style
	column   lipgloss.Style
	colHead  lipgloss.Style
	section  lipgloss.Style
	status   map[board.Status]lipgloss.Style
	barFill  lipgloss.Style
	barEmpty lipgloss.Style
}

func paletteFor(t prefs.Theme) palette {
	fg, muted, border := lipgloss.Color("235"), lipgloss.Color("243"), lipgloss.Color("250")
	progress, done, backlog := lipgloss.Color("27"), lipgloss.Color("28"), lipgloss.Color("245")
	if t == prefs.ThemeDark {
		fg, muted, border = lipgloss.Color("255"), lipgloss.Color("246"), lipgloss.Color("239")
		progress, done, backlog = lipgloss.Color("75"), lipgloss.Color("78"), lipgloss.Color("243")
	}
	return palette{
		title: lipgloss.NewStyle().Bold(true).Foreground(fg),
		muted: lipgloss.NewStyle().Foreground(muted),
		help:  lipgloss.NewStyle().Foreground(muted),
		column: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 1),
		colHead: lipgloss.NewStyle().Bold(true).Foreground(fg).MarginBottom(1),
		section: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(border),
		status: map[board.Status]lipgloss.Style{
			board.StatusBacklog:    lipgloss.NewStyle().Foreground(backlog),
			board.StatusInProgress: lipgloss.NewStyle().Foreground(progress),
			board.StatusDone:       lipgloss.NewStyle().Foreground(done),
		},
		barFill:  lipgloss.NewStyle().Foreground(done),
		barEmpty: lipgloss.NewStyle().Foreground(border),
	}
}

// render draws the whole scrollable body for one snapshot.
func render(snap refresh.Snapshot, view prefs.ViewMode, p palette, width int, location string) string {
	if title, msg := emptyState(snap, location); title != "" {
		return lipgloss.JoinVertical(lipgloss.Left, "", p.title.Render(title), p.muted.Render(msg))
	}

	sum := board.Summarize(snap.Document)
	body := renderBoard(sum, p, width)
	if view == prefs.ViewList {
		body = renderList(sum, p)
	}
	return lipgloss.JoinVertical(lipgloss.Left, renderHeader(sum, p), "", body)
}

// emptyState returns the title and message shown instead of the board, or
// empty strings when the board can be drawn.
func emptyState(snap refresh.Snapshot, location string) (string, string) {
	switch snap.State {
	case refresh.StateInitialLoading:
		return "Loading…", "Reading prd.json."
	case refresh.StateMissing:
		return "No PRD Found", "The prd.json file is missing. Expected file location: " + location
	case refresh.StateError:
		if errors.Is(snap.Err, apperr.ErrMalformed) {
			return "Error Loading PRD", "The prd.json file is not a valid document."
		}
		return "Error Loading PRD", "There was a problem loading the prd.json file."
	}
	if snap.Document == nil || len(snap.Document.Features) == 0 {
		return "No Features Found", "The prd.json file exists but contains no features."
	}
	return "", ""
}

func renderHeader(sum board.Summary, p palette) string {
	progress := fmt.Sprintf("%d of %d stories complete  %s %d%%",
		sum.Overall.Completed, sum.Overall.Total, bar(sum.Overall, 20, p), sum.Percent)
	lines := []string{p.title.Render(sum.Project)}
	if sum.Description != "" {
		lines = append(lines, p.muted.Render(sum.Description))
	}
	lines = append(lines, progress)
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func bar(pr board.Progress, width int, p palette) string {
	filled := 0
	if pr.Total > 0 {
		filled = pr.Completed * width / pr.Total
	}
	return p.barFill.Render(strings.Repeat("█", filled)) + p.barEmpty.Render(strings.Repeat("░", width-filled))
}

func renderBoard(sum board.Summary, p palette, width int) string {
	colWidth := max((width-6)/3, 24)
	inner := colWidth - 4

	cols := make([]string, 0, len(sum.Columns))
	for _, col := range sum.Columns {
		lines := []string{p.colHead.Render(fmt.Sprintf("%s (%d)", col.Label, col.Count))}
		if col.Empty {
			lines = append(lines, p.muted.Render("No stories"))
		}
		for _, g := range col.Groups {
			lines = append(lines, p.title.Render(fmt.Sprintf("%s  %d/%d", g.Name, g.Progress.Completed, g.Progress.Total)))
			for _, it := range g.Items {
				lines = append(lines, card(it, inner, p))
			}
			lines = append(lines, "")
		}
		cols = append(cols, p.column.Width(colWidth).Render(strings.Join(lines, "\n")))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func card(it board.Item, width int, p palette) string {
	head := p.status[it.Status].Render("●") + " " + p.muted.Render(it.Story.ID)
	if it.Duration != "-" {
		head += "  " + p.muted.Render(it.Duration)
	}
	title := lipgloss.NewStyle().Width(width).Render(it.Story.Title)
	return head + "\n" + title
}

func renderList(sum board.Summary, p palette) string {
	var sections []string
	for _, s := range sum.Sections {
		head := fmt.Sprintf("%s  %s  %d of %d  %s",
			p.title.Render(s.Name), p.muted.Render(s.BranchName),
			s.Progress.Completed, s.Progress.Total, bar(s.Progress, 10, p))
		rows := []string{p.section.Render(head)}
		if len(s.Items) == 0 {
			rows = append(rows, p.muted.Render("  No stories"))
		}
		for _, it := range s.Items {
			rows = append(rows, fmt.Sprintf("  %s %-8s %-40s %-12s %s",
				p.status[it.Status].Render("●"),
				it.Story.ID,
				truncate(it.Story.Title, 40),
				p.status[it.Status].Render(it.Label),
				p.muted.Render(it.Duration)))
		}
		sections = append(sections, strings.Join(rows, "\n"))
	}
	return strings.Join(sections, "\n\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
