// Package tui is the terminal front end: it renders the current scene,
// choice list, and inventory, and forwards input to the session
// controller. All narrative logic lives in pkg/session; this layer only
// draws and relays.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/mythicvoid/novel-engine/pkg/inventory"
	"github.com/mythicvoid/novel-engine/pkg/session"
)

// frameInterval drives the fade state machine; the session expects
// cooperative per-frame ticks.
const frameInterval = 50 * time.Millisecond

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")) // light grey

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238")) // near-black, used mid-fade

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2)

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

type frameTickMsg time.Time

func frameTick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameTickMsg(t)
	})
}

// Model is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type Model struct {
	session *session.Session
	ledger  *inventory.Ledger

	storyViewport viewport.Model
	ready         bool
	width         int
	height        int

	showInventory bool
	invSelected   int

	showQuitModal    bool
	showRemoveModal  bool
	pendingRemoveIdx int

	completed bool
	loadErr   error
}

func NewModel(s *session.Session, ledger *inventory.Ledger, loadErr error) Model {
	vp := viewport.New(60, 16)
	return Model{
		session:       s,
		ledger:        ledger,
		storyViewport: vp,
		loadErr:       loadErr,
	}
}

func (m Model) Init() tea.Cmd {
	return frameTick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.storyViewport.Width = msg.Width - 4
		m.storyViewport.Height = msg.Height - 10
		m.ready = true
		m.refreshStory()
		return m, nil

	case frameTickMsg:
		m.session.Advance(frameInterval.Seconds())
		if m.session.Completed() {
			m.completed = true
		}
		m.refreshStory()
		return m, frameTick()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.storyViewport, cmd = m.storyViewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.showQuitModal {
		switch key {
		case "y", "enter":
			return m, tea.Quit
		case "n", "esc":
			m.showQuitModal = false
		}
		return m, nil
	}

	if m.showRemoveModal {
		switch key {
		case "y", "enter":
			m.session.RemoveInventoryItem(m.pendingRemoveIdx, 1)
			m.showRemoveModal = false
			if m.invSelected >= len(m.ledger.Items()) {
				m.invSelected = max(0, len(m.ledger.Items())-1)
			}
		case "n", "esc":
			m.showRemoveModal = false
		}
		return m, nil
	}

	switch key {
	case "ctrl+c", "q":
		m.showQuitModal = true
		return m, nil

	case "i":
		m.showInventory = !m.showInventory
		m.invSelected = 0
		return m, nil
	}

	if m.completed {
		return m, nil
	}

	if m.showInventory {
		switch key {
		case "up", "k":
			if m.invSelected > 0 {
				m.invSelected--
			}
		case "down", "j":
			if m.invSelected < len(m.ledger.Items())-1 {
				m.invSelected++
			}
		case "x":
			if m.invSelected < len(m.ledger.Items()) {
				m.pendingRemoveIdx = m.invSelected
				m.showRemoveModal = true
			}
		case "esc":
			m.showInventory = false
		}
		return m, nil
	}

	// Choice shortcuts only land while the fade machine is idle; the
	// session enforces that, so no guard is needed here.
	if len(key) == 1 && key[0] >= 'a' && key[0] <= 'd' {
		m.session.ChooseByLabel(rune(key[0]))
		m.refreshStory()
	}

	return m, nil
}

func (m *Model) refreshStory() {
	if !m.ready {
		return
	}
	m.storyViewport.SetContent(m.sceneContent())
}

func (m *Model) sceneContent() string {
	sc := m.session.CurrentScene()
	if sc == nil {
		return ""
	}

	style := narratorStyle
	if m.fading() {
		style = dimStyle
	}

	var b strings.Builder
	b.WriteString(speakerLine(sc.Speaker, sc.SpeakerColor, m.fading()))
	b.WriteString("\n\n")
	b.WriteString(style.Render(wordwrap.String(sc.Text, m.storyViewport.Width)))
	return b.String()
}

// fading reports whether the dark overlay is visible enough to dim text.
func (m *Model) fading() bool {
	return m.session.Fade() != session.Idle && m.session.Alpha() > 0.5
}

func speakerLine(speaker, hexColor string, dim bool) string {
	if dim {
		return dimStyle.Render(displayName(speaker))
	}
	// Speaker colors come as #rrggbbaa; lipgloss wants #rrggbb.
	if len(hexColor) == 9 {
		hexColor = hexColor[:7]
	}
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(hexColor)).Bold(true)
	return style.Render(displayName(speaker))
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.loadErr != nil {
		return errorStyle.Render("Failed to load story script.") + "\n" +
			helpStyle.Render(m.loadErr.Error()) + "\n\n" +
			helpStyle.Render("Press q to quit.")
	}

	if m.showQuitModal {
		return m.centerModal(modalTitleStyle.Render("Quit?") + "\n\n" +
			"Progress is saved automatically.\n\n" +
			"y) quit    n) keep playing")
	}
	if m.showRemoveModal {
		item := m.ledger.Items()[m.pendingRemoveIdx]
		name := item.ID
		if def := m.ledger.Definition(item.ID); def != nil {
			name = def.Name
		}
		return m.centerModal(modalTitleStyle.Render("Discard item?") + "\n\n" +
			fmt.Sprintf("Discard one %s? This cannot be undone.\n\n", name) +
			"y) discard    n) cancel")
	}

	var b strings.Builder
	title := m.session.Script()
	if title != nil {
		b.WriteString(titleStyle.Render(title.Title))
		b.WriteString(helpStyle.Render(fmt.Sprintf("  Chapter %d", title.Metadata.Chapter)))
		b.WriteString("\n")
	}
	b.WriteString(separatorStyle.Render(strings.Repeat("─", max(10, m.width-2))))
	b.WriteString("\n")

	if m.completed {
		b.WriteString("\n" + titleStyle.Render("THE END") + "\n\n")
		b.WriteString(helpStyle.Render("Press q to quit."))
		return b.String()
	}

	b.WriteString(m.storyViewport.View())
	b.WriteString("\n")

	if m.showInventory {
		b.WriteString(m.inventoryView())
	} else {
		b.WriteString(m.choicesView())
	}

	b.WriteString("\n" + helpStyle.Render("a-d choose · i inventory · q quit"))
	return b.String()
}

func (m Model) choicesView() string {
	var b strings.Builder
	fadeActive := m.session.Fade() != session.Idle
	for _, cv := range m.session.VisibleChoices() {
		line := fmt.Sprintf("%c) %s", cv.Label, cv.Text)
		if fadeActive {
			b.WriteString(dimStyle.Render(line))
		} else {
			b.WriteString(choiceStyle.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) inventoryView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("INVENTORY") + "\n")

	items := m.ledger.Items()
	if len(items) == 0 {
		b.WriteString(helpStyle.Render("Nothing carried.") + "\n")
		return b.String()
	}

	for i, it := range items {
		name := it.ID
		if def := m.ledger.Definition(it.ID); def != nil {
			name = def.Name
		}
		cursor := "  "
		if i == m.invSelected {
			cursor = "> "
		}
		b.WriteString(fmt.Sprintf("%s%s ×%d\n", cursor, name, it.Quantity))
	}
	b.WriteString(helpStyle.Render("j/k move · x discard · esc close") + "\n")
	return b.String()
}

func (m Model) centerModal(content string) string {
	return lipgloss.Place(m.width, m.height,
		lipgloss.Center, lipgloss.Center,
		modalStyle.Render(content))
}
