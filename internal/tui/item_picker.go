package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"

	"github.com/blackwell-systems/stashctl/internal/catalog"
	"github.com/blackwell-systems/stashctl/internal/tui/delegate"
	"github.com/blackwell-systems/stashctl/internal/tui/picker"
)

// ErrCanceled is returned when the picker is closed without a selection.
var ErrCanceled = picker.ErrCanceled

// ItemEntry is a catalog item in the picker list.
type ItemEntry struct {
	Item catalog.Item
}

// FilterValue returns a string used for filtering in the list
func (e ItemEntry) FilterValue() string {
	// Include ID, both names, category and tags in filter
	return strings.Join(append([]string{e.Item.ID, e.Item.Name, e.Item.NameEn, e.Item.Category}, e.Item.Tags...), " ")
}

// Column width constraints
const (
	minIDWidth   = 12
	maxIDWidth   = 32
	minNameWidth = 10
	maxNameWidth = 40
	minTagWidth  = 6
	kindWidth    = 7
	columnGap    = 1
)

// computeColumnWidths splits the list width between id, name and tags.
func computeColumnWidths(totalWidth int) (idW, nameW, tagW int) {
	usable := totalWidth - 2 - kindWidth - columnGap*3
	if usable < minIDWidth+minNameWidth+minTagWidth {
		return minIDWidth, minNameWidth, minTagWidth
	}
	idW = min(max(usable*35/100, minIDWidth), maxIDWidth)
	nameW = min(max(usable*40/100, minNameWidth), maxNameWidth)
	tagW = max(usable-idW-nameW, minTagWidth)
	return
}

// padOrTruncate fits s to exactly width terminal cells. Wide runes such as
// CJK characters count as two cells.
func padOrTruncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if xansi.StringWidth(s) > width {
		s = xansi.Truncate(s, width, "…")
	}
	if n := xansi.StringWidth(s); n < width {
		s += strings.Repeat(" ", width-n)
	}
	return s
}

// renderItemPickerItem renders an item in picker mode
func renderItemPickerItem(w io.Writer, m list.Model, index int, item list.Item) {
	entry, ok := item.(ItemEntry)
	if !ok {
		return
	}

	listWidth := m.Width()
	if listWidth <= 0 {
		listWidth = 80
	}
	idW, nameW, tagW := computeColumnWidths(listWidth)
	gap := strings.Repeat(" ", columnGap)

	it := entry.Item
	idCol := padOrTruncate(it.ID, idW)
	nameCol := padOrTruncate(it.Name, nameW)
	kindCol := padOrTruncate(string(it.Type), kindWidth)
	tagCol := padOrTruncate(strings.Join(it.Tags, " · "), tagW)

	if index == m.Index() {
		prefix := lipgloss.NewStyle().Foreground(ColorYellow).Render("›") + " "
		_, _ = fmt.Fprint(w, prefix+StyleHighlight.Render(idCol+gap+nameCol)+gap+StyleHelp.Render(kindCol)+gap+StyleTag.Render(tagCol))
		return
	}

	nameStyle := StyleNormal
	if it.Archived {
		nameStyle = StyleArchived
	}
	_, _ = fmt.Fprint(w, "  "+StyleHelp.Render(idCol)+gap+nameStyle.Render(nameCol)+gap+StyleHelp.Render(kindCol)+gap+StyleTag.Render(tagCol))
}

type itemPickerModel struct {
	base     *picker.Base
	selected *ItemEntry
}

func (m itemPickerModel) Init() tea.Cmd {
	return nil
}

func (m itemPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.base.Update(msg)

	// Extract selection when quitting without error
	if m.base.IsQuitting() && m.base.Error() == nil {
		if entry, ok := m.base.SelectedItem().(ItemEntry); ok {
			m.selected = &entry
		}
	}

	return m, cmd
}

func (m itemPickerModel) View() string {
	return m.base.View()
}

// newItemPicker builds the picker model without running it.
func newItemPicker(items []catalog.Item, title string) itemPickerModel {
	entries := make([]list.Item, len(items))
	for i, it := range items {
		entries[i] = ItemEntry{Item: it}
	}

	l := list.New(entries, delegate.New(renderItemPickerItem), 0, 0)
	if title != "" {
		l.Title = title
	} else {
		l.Title = "Select an item"
	}
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = StyleHeader
	l.Styles.PaginationStyle = StyleHelp
	l.Styles.HelpStyle = StyleHelp

	keys := NewPickerKeys()
	l.AdditionalShortHelpKeys = keys.ShortHelp

	base := picker.New(picker.Config{
		List:        l,
		QuitKeys:    keys.Quit,
		SelectKeys:  keys.Select,
		ShowBorder:  true,
		BorderStyle: StyleBorder,
		OnSelect: func(list.Item) bool {
			return true // Quit after selection
		},
	})
	return itemPickerModel{base: base}
}

// RunItemPicker launches an interactive item picker and returns the chosen
// item, or ErrCanceled.
func RunItemPicker(items []catalog.Item, title string) (catalog.Item, error) {
	if len(items) == 0 {
		return catalog.Item{}, fmt.Errorf("no items to display")
	}

	p := tea.NewProgram(newItemPicker(items, title), tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return catalog.Item{}, fmt.Errorf("running TUI: %w", err)
	}

	if fm, ok := finalModel.(itemPickerModel); ok && fm.selected != nil {
		return fm.selected.Item, nil
	}
	return catalog.Item{}, ErrCanceled
}
