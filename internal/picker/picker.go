// Package picker is the interactive multi-select used to choose which
// discovered skills to install.
package picker

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const maxVisibleItems = 12

// Item is one selectable skill
type Item struct {
	ID       string
	Label    string
	Detail   string // shown dimmed after the label
	Selected bool
}

// Model is the Bubble Tea model for the multi-select picker
type Model struct {
	title       string
	items       []Item
	cursor      int
	offset      int
	selected    map[string]bool
	done        bool
	quitting    bool
	searchInput textinput.Model
	searching   bool
}

// New creates a picker over items. Items marked Selected start checked.
func New(title string, items []Item) Model {
	ti := textinput.New()
	ti.Placeholder = "Type to filter..."
	ti.CharLimit = 50
	ti.Width = 40

	selected := make(map[string]bool)
	for _, item := range items {
		if item.Selected {
			selected[item.ID] = true
		}
	}

	return Model{
		title:       title,
		items:       items,
		selected:    selected,
		searchInput: ti,
	}
}

// Selected returns the checked IDs in item order, including items hidden
// by the current filter
func (m Model) Selected() []string {
	var result []string
	for _, item := range m.items {
		if m.selected[item.ID] {
			result = append(result, item.ID)
		}
	}
	return result
}

// IsQuitting reports whether the user quit without confirming
func (m Model) IsQuitting() bool {
	return m.quitting
}

func (m Model) visible() []Item {
	query := strings.ToLower(m.searchInput.Value())
	if query == "" {
		return m.items
	}
	var filtered []Item
	for _, item := range m.items {
		if strings.Contains(strings.ToLower(item.Label), query) ||
			strings.Contains(strings.ToLower(item.Detail), query) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// adjustScroll keeps the cursor inside the visible window
func (m *Model) adjustScroll() {
	n := len(m.visible())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+maxVisibleItems {
		m.offset = m.cursor - maxVisibleItems + 1
	}
	if maxOffset := n - maxVisibleItems; m.offset > maxOffset {
		m.offset = max(maxOffset, 0)
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.searching {
		switch keyMsg.String() {
		case "esc":
			m.searching = false
			m.searchInput.SetValue("")
			m.searchInput.Blur()
		case "enter":
			m.searching = false
			m.searchInput.Blur()
		default:
			var cmd tea.Cmd
			m.searchInput, cmd = m.searchInput.Update(keyMsg)
			m.cursor, m.offset = 0, 0
			return m, cmd
		}
		m.adjustScroll()
		return m, nil
	}

	items := m.visible()
	switch {
	case key.Matches(keyMsg, keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(keyMsg, keys.Search):
		m.searching = true
		m.searchInput.Focus()
		return m, textinput.Blink

	case key.Matches(keyMsg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		} else if len(items) > 0 {
			m.cursor = len(items) - 1
		}
		m.adjustScroll()

	case key.Matches(keyMsg, keys.Down):
		if m.cursor < len(items)-1 {
			m.cursor++
		} else {
			m.cursor = 0
		}
		m.adjustScroll()

	case key.Matches(keyMsg, keys.Toggle):
		if m.cursor < len(items) {
			id := items[m.cursor].ID
			m.selected[id] = !m.selected[id]
		}

	case key.Matches(keyMsg, keys.All):
		allSelected := true
		for _, item := range items {
			if !m.selected[item.ID] {
				allSelected = false
				break
			}
		}
		for _, item := range items {
			m.selected[item.ID] = !allSelected
		}

	case key.Matches(keyMsg, keys.Confirm):
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) View() string {
	if m.done || m.quitting {
		return ""
	}

	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69"))
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cursorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	dimStyle := lipgloss.NewStyle().Faint(true)

	b.WriteString(titleStyle.Render(m.title))
	b.WriteString(dimStyle.Render(fmt.Sprintf(" (%d/%d selected)", len(m.Selected()), len(m.items))))
	b.WriteString("\n")
	if m.searching || m.searchInput.Value() != "" {
		b.WriteString(m.searchInput.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	items := m.visible()
	if len(items) == 0 {
		b.WriteString(dimStyle.Render("  (no matching skills)"))
		b.WriteString("\n")
	}

	end := min(m.offset+maxVisibleItems, len(items))
	if m.offset > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  ↑ %d more", m.offset)))
		b.WriteString("\n")
	}
	for i := m.offset; i < end; i++ {
		item := items[i]
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}
		checked := "[ ]"
		if m.selected[item.ID] {
			checked = selectedStyle.Render("[x]")
		}
		line := fmt.Sprintf("%s%s %s", cursor, checked, item.Label)
		if item.Detail != "" {
			line += " " + dimStyle.Render(item.Detail)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if rest := len(items) - end; rest > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  ↓ %d more", rest)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("space: toggle • a: all/none • /: filter • enter: confirm • q: quit"))
	return b.String()
}

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Toggle  key.Binding
	All     key.Binding
	Search  key.Binding
	Confirm key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k")),
	Down:    key.NewBinding(key.WithKeys("down", "j")),
	Toggle:  key.NewBinding(key.WithKeys(" ")),
	All:     key.NewBinding(key.WithKeys("a")),
	Search:  key.NewBinding(key.WithKeys("/")),
	Confirm: key.NewBinding(key.WithKeys("enter")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c", "esc")),
}

// Run shows the picker and returns the checked IDs. A quit returns nil
// without error.
func Run(title string, items []Item) ([]string, error) {
	finalModel, err := tea.NewProgram(New(title, items)).Run()
	if err != nil {
		return nil, err
	}

	fm := finalModel.(Model)
	if fm.IsQuitting() {
		return nil, nil
	}
	return fm.Selected(), nil
}
