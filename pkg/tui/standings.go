// Package tui renders the global rating table in the terminal. It is a
// read-only projection over the engine: nothing done here mutates the
// ledger or the files on disk.
package tui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/olympboard/divrank/pkg/rating"
)

// StandingsSource is the slice of the engine the viewer needs.
type StandingsSource interface {
	Standings() []rating.StandingsRow
	GetUserStats(nickname string) (*rating.UserStats, bool)
}

// StandingsScreen is the interactive rating table with a search filter and
// a per-user detail panel.
type StandingsScreen struct {
	source StandingsSource

	container   *tview.Flex
	table       *tview.Table
	detailPanel *tview.TextView
	searchField *tview.InputField
	statusBar   *tview.TextView

	rows     []rating.StandingsRow
	filtered []rating.StandingsRow
	search   string
}

// NewStandingsScreen builds the screen over the given source.
func NewStandingsScreen(source StandingsSource) *StandingsScreen {
	s := &StandingsScreen{
		source:      source,
		container:   tview.NewFlex(),
		table:       tview.NewTable(),
		detailPanel: tview.NewTextView(),
		searchField: tview.NewInputField(),
		statusBar:   tview.NewTextView(),
	}

	s.setupUI()
	s.setupKeyBindings()
	s.Refresh()

	return s
}

// Primitive returns the root primitive for embedding into an application.
func (s *StandingsScreen) Primitive() tview.Primitive {
	return s.container
}

func (s *StandingsScreen) setupUI() {
	s.table.SetBorder(true).
		SetTitle(" Standings ").
		SetTitleAlign(tview.AlignLeft)
	s.table.SetSelectable(true, false)
	s.table.SetFixed(1, 0)

	s.detailPanel.SetBorder(true).
		SetTitle(" Contestant ").
		SetTitleAlign(tview.AlignLeft)
	s.detailPanel.SetDynamicColors(true)

	s.searchField.SetLabel("Search: ").
		SetFieldWidth(24).
		SetChangedFunc(func(text string) {
			s.search = text
			s.applyFilter()
			s.updateTable()
		})

	s.statusBar.SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter).
		SetText("[gray]/:Search  Enter:Details  R:Refresh  Q:Quit[white]")

	main := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(s.table, 0, 3, true).
		AddItem(s.detailPanel, 44, 1, false)

	s.container.SetDirection(tview.FlexRow).
		AddItem(s.searchField, 1, 1, false).
		AddItem(main, 0, 1, true).
		AddItem(s.statusBar, 1, 1, false)
}

func (s *StandingsScreen) setupKeyBindings() {
	s.table.SetSelectedFunc(func(row, col int) {
		s.showDetails(row)
	})
	s.table.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Rune() {
		case 'r', 'R':
			s.Refresh()
			return nil
		}
		return event
	})
}

// Refresh reloads the standings from the source and redraws.
func (s *StandingsScreen) Refresh() {
	s.rows = s.source.Standings()
	s.applyFilter()
	s.updateTable()
}

// applyFilter narrows the rows to those whose nickname contains the search
// text, case-insensitively. An empty search keeps everything.
func (s *StandingsScreen) applyFilter() {
	needle := strings.ToLower(strings.TrimSpace(s.search))
	if needle == "" {
		s.filtered = s.rows
		return
	}

	filtered := make([]rating.StandingsRow, 0, len(s.rows))
	for _, row := range s.rows {
		if strings.Contains(strings.ToLower(row.Nickname), needle) {
			filtered = append(filtered, row)
		}
	}
	s.filtered = filtered
}

func (s *StandingsScreen) updateTable() {
	s.table.Clear()

	headers := []string{"Rank", "Contestant", "Rating", "Title", "Div", "Tasks", "Contests"}
	for col, header := range headers {
		cell := tview.NewTableCell(header).
			SetTextColor(tcell.ColorYellow).
			SetAlign(tview.AlignCenter).
			SetSelectable(false).
			SetExpansion(1)
		if col == 1 {
			cell.SetExpansion(3)
		}
		s.table.SetCell(0, col, cell)
	}

	for i, row := range s.filtered {
		color := tcell.GetColor(row.RankColor)
		s.table.SetCell(i+1, 0, tview.NewTableCell(fmt.Sprintf("%d", row.Rank)).
			SetAlign(tview.AlignRight))
		s.table.SetCell(i+1, 1, tview.NewTableCell(row.Nickname).
			SetTextColor(color))
		s.table.SetCell(i+1, 2, tview.NewTableCell(fmt.Sprintf("%d", row.Rating)).
			SetTextColor(color).
			SetAlign(tview.AlignRight))
		s.table.SetCell(i+1, 3, tview.NewTableCell(row.RankTitle).
			SetTextColor(color))
		s.table.SetCell(i+1, 4, tview.NewTableCell(fmt.Sprintf("%d", row.Division)).
			SetAlign(tview.AlignCenter))
		s.table.SetCell(i+1, 5, tview.NewTableCell(fmt.Sprintf("%d", row.TasksScore)).
			SetAlign(tview.AlignRight))
		s.table.SetCell(i+1, 6, tview.NewTableCell(fmt.Sprintf("%d", row.Contests)).
			SetAlign(tview.AlignRight))
	}

	s.table.SetTitle(fmt.Sprintf(" Standings (%d/%d) ", len(s.filtered), len(s.rows)))
}

// showDetails fills the detail panel for the selected table row. Row 0 is
// the header.
func (s *StandingsScreen) showDetails(row int) {
	idx := row - 1
	if idx < 0 || idx >= len(s.filtered) {
		return
	}

	stats, found := s.source.GetUserStats(s.filtered[idx].Nickname)
	if !found {
		s.detailPanel.SetText("no data")
		return
	}
	s.detailPanel.SetText(DetailText(stats))
}

// DetailText renders a user profile for the detail panel.
func DetailText(stats *rating.UserStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[yellow]%s[white]\n\n", stats.Nickname)
	fmt.Fprintf(&b, "Rating:   %d (%s)\n", stats.Rating, stats.RankTitle)
	fmt.Fprintf(&b, "Division: %d\n", stats.Division)
	fmt.Fprintf(&b, "Best:     %d\n", stats.BestRating)
	fmt.Fprintf(&b, "Tasks:    %d\n", stats.TasksScore)
	fmt.Fprintf(&b, "Contests: %d official, %d unofficial\n", stats.Contests, stats.UnofficialContests)
	if stats.LastContest != "" {
		fmt.Fprintf(&b, "Last:     %s\n", stats.LastContest)
	}

	if len(stats.ContestHistory) > 0 {
		b.WriteString("\n[yellow]History[white]\n")
		limit := len(stats.ContestHistory)
		if limit > 10 {
			limit = 10
		}
		for _, e := range stats.ContestHistory[:limit] {
			marker := ""
			if e.Unofficial {
				marker = " (unofficial)"
			}
			fmt.Fprintf(&b, "%s div%d: %+d%s\n", e.Contest, e.Division, e.Change, marker)
		}
	}

	return b.String()
}

// Run starts a standalone tview application around the screen and blocks
// until the user quits.
func Run(source StandingsSource) error {
	screen := NewStandingsScreen(source)
	app := tview.NewApplication()

	app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if screen.searchField.HasFocus() {
			if event.Key() == tcell.KeyEnter || event.Key() == tcell.KeyEsc {
				app.SetFocus(screen.table)
				return nil
			}
			return event
		}

		switch {
		case event.Key() == tcell.KeyEsc, event.Rune() == 'q', event.Rune() == 'Q':
			app.Stop()
			return nil
		case event.Rune() == '/':
			app.SetFocus(screen.searchField)
			return nil
		}
		return event
	})

	return app.SetRoot(screen.Primitive(), true).
		SetFocus(screen.table).
		Run()
}
