// Package dashboard is the terminal dashboard: a country selector, top-N
// charts over the tariff dataset, and a chat panel backed by the answerer.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mwiater/tariffadvisor/internal/chat"
	"github.com/mwiater/tariffadvisor/internal/domain"
	"github.com/mwiater/tariffadvisor/internal/logging"
	"github.com/mwiater/tariffadvisor/internal/tariff"
	"github.com/mwiater/tariffadvisor/internal/util"
)

// focusArea is the pane receiving key presses.
type focusArea int

const (
	focusChat focusArea = iota
	focusCountries
)

// countryRows is how many entries of the country list are visible at once.
const countryRows = 8

// model is the Bubble Tea model for the dashboard.
type model struct {
	ctx      context.Context
	dataset  *tariff.Dataset
	session  *chat.Session
	focus    focusArea
	textArea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model

	countries []string
	selected  []string
	cursor    int
	topIndex  int

	isLoading        bool
	err              error
	notice           string
	width, height    int
	requestStartTime time.Time
}

// answerMsg carries a recorded exchange back to the UI.
type answerMsg struct {
	record domain.QARecord
	added  bool
}

// answerErr carries a failed question back to the UI.
type answerErr struct{ error }

// tickMsg refreshes the elapsed timer while waiting for an answer.
type tickMsg time.Time

func initialModel(ctx context.Context, ds *tariff.Dataset, session *chat.Session) *model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ta := textarea.New()
	ta.Placeholder = "Ask about tariffs..."
	ta.Focus()
	ta.Prompt = "Ask: "
	ta.ShowLineNumbers = false
	ta.CharLimit = -1
	ta.SetHeight(1)
	ta.KeyMap.InsertNewline.SetEnabled(false)

	return &model{
		ctx:       ctx,
		dataset:   ds,
		session:   session,
		focus:     focusChat,
		textArea:  ta,
		viewport:  viewport.New(100, 6),
		spinner:   s,
		countries: ds.Countries(),
		selected:  []string{tariff.AllCountries},
	}
}

// askCmd asks the session in the background and reports the outcome as a message.
func askCmd(ctx context.Context, session *chat.Session, question string) tea.Cmd {
	return func() tea.Msg {
		rec, added, err := session.Ask(ctx, question)
		if err != nil {
			logging.LogEvent("[DASHBOARD] answer failed: %v", err)
			return answerErr{error: err}
		}
		return answerMsg{record: rec, added: added}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *model) Init() tea.Cmd {
	return textarea.Blink
}

// Update is the central update function for the Bubble Tea model.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab":
			m.toggleFocus()
			return m, nil
		}
		if m.focus == focusCountries {
			return m.updateCountries(msg)
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.textArea.SetWidth(msg.Width - 3)
		m.viewport.Width = msg.Width - 2
		m.viewport.Height = 6
		m.refreshTranscript()
		return m, nil

	case answerMsg:
		m.isLoading = false
		m.err = nil
		m.notice = ""
		if !msg.added {
			m.notice = "Same question as last time; showing the earlier answer."
		}
		m.refreshTranscript()
		m.textArea.Focus()
		return m, nil

	case answerErr:
		m.isLoading = false
		m.err = msg.error
		m.textArea.Focus()
		return m, nil

	case tickMsg:
		if m.isLoading {
			return m, tickCmd()
		}
		return m, nil
	}

	if m.focus == focusChat && !m.isLoading {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
		m.textArea, cmd = m.textArea.Update(msg)
		cmds = append(cmds, cmd)

		if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEnter {
			question := strings.TrimSpace(m.textArea.Value())
			if question != "" {
				m.textArea.Reset()
				m.isLoading = true
				m.err = nil
				m.notice = ""
				m.requestStartTime = time.Now()
				cmds = append(cmds, m.spinner.Tick, askCmd(m.ctx, m.session, question), tickCmd())
			}
		}
	}

	if m.isLoading {
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m *model) toggleFocus() {
	if m.focus == focusChat {
		m.focus = focusCountries
		m.textArea.Blur()
		return
	}
	m.focus = focusChat
	m.textArea.Focus()
}

// updateCountries handles keys while the country selector has focus.
func (m *model) updateCountries(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		m.cursor = util.Clamp(m.cursor-1, 0, len(m.countries)-1)
	case "down", "j":
		m.cursor = util.Clamp(m.cursor+1, 0, len(m.countries)-1)
	case " ", "x":
		m.toggleCountry(m.countries[m.cursor])
	case "t", "right", "l":
		m.topIndex = (m.topIndex + 1) % len(tariff.TopNChoices)
	case "left", "h":
		m.topIndex = (m.topIndex + len(tariff.TopNChoices) - 1) % len(tariff.TopNChoices)
	}
	return m, nil
}

// toggleCountry adds name to the selection, or removes it when already selected.
// Selection order is kept so a single pick is always first.
func (m *model) toggleCountry(name string) {
	for i, s := range m.selected {
		if s == name {
			m.selected = append(m.selected[:i:i], m.selected[i+1:]...)
			return
		}
	}
	m.selected = append(m.selected, name)
}

func (m *model) isSelected(name string) bool {
	for _, s := range m.selected {
		if s == name {
			return true
		}
	}
	return false
}

// visibleRows returns the filtered rows limited by the top-N choice.
func (m *model) visibleRows() []domain.TariffRow {
	rows := m.dataset.ByCountry(m.selected)
	limit := tariff.TopNChoices[m.topIndex].Limit
	if limit <= 0 {
		return rows
	}
	return tariff.TopN(rows, limit)
}

// refreshTranscript rebuilds the chat transcript from the session history.
func (m *model) refreshTranscript() {
	userStyle := lipgloss.NewStyle().Bold(true)
	advisorStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))
	stampStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	var b strings.Builder
	for _, rec := range m.session.History() {
		b.WriteString(stampStyle.Render(rec.Timestamp) + "\n")
		for _, line := range []struct{ role, text string }{
			{userStyle.Render("You: "), rec.Question},
			{advisorStyle.Render("Advisor: "), rec.Answer},
		} {
			wrapped := lipgloss.NewStyle().Width(width - lipgloss.Width(line.role) - 1).Render(line.text)
			b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, line.role, wrapped) + "\n")
		}
	}
	m.viewport.SetContent(strings.TrimRight(b.String(), "\n"))
	m.viewport.GotoBottom()
}

// View renders the whole dashboard.
func (m *model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	headerStyle := lipgloss.NewStyle().Background(lipgloss.Color("62")).Foreground(lipgloss.Color("230")).Padding(0, 1)
	sectionStyle := lipgloss.NewStyle().Bold(true).MarginTop(1)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

	var b strings.Builder
	b.WriteString(headerStyle.Render("Trade Tariff Advisor") + "\n")

	b.WriteString(sectionStyle.Render("Tariff Q&A") + "\n")
	b.WriteString(m.viewport.View() + "\n")
	if m.isLoading {
		timer := fmt.Sprintf("%.1f", time.Since(m.requestStartTime).Seconds())
		b.WriteString(m.spinner.View() + fmt.Sprintf(" Advisor is thinking... %ss", timer) + "\n")
	} else {
		b.WriteString(m.textArea.View() + "\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n")
	} else if m.notice != "" {
		b.WriteString(helpStyle.Render(m.notice) + "\n")
	}

	b.WriteString(sectionStyle.Render("Countries") + "\n")
	b.WriteString(m.countryList() + "\n")
	b.WriteString(m.topSelector() + "\n")

	b.WriteString(sectionStyle.Render("Tariff Policy Summary") + "\n")
	b.WriteString(fmt.Sprintf("The USA administration imposed tariffs on many countries. You are currently viewing insights for %s.\n", titleCase(tariff.DisplayName(m.selected))))
	b.WriteString(sectionStyle.Render("Tariff Info") + "\n")
	b.WriteString(m.dataset.SummaryFor(m.selected) + "\n\n")

	rows := m.visibleRows()
	half := m.width/2 - 2
	left := renderBarChart("Tariffs Charged to U.S.A.", rows, half, chargedSeries)
	right := renderBarChart("U.S. Reciprocal Tariffs", rows, half, reciprocalSeries)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(half+2).Render(left),
		lipgloss.NewStyle().Width(half+2).Render(right)) + "\n\n")
	b.WriteString(renderBarChart("Comparison: Country vs U.S.", rows, m.width, chargedSeries, reciprocalSeries) + "\n")

	focusName := "chat"
	if m.focus == focusCountries {
		focusName = "countries: up/down move, space select, t top-N, q quit"
	}
	b.WriteString(helpStyle.Render(fmt.Sprintf(" focus: %s (tab to switch, esc to quit)", focusName)))
	return b.String()
}

// countryList renders a window of the country list around the cursor.
func (m *model) countryList() string {
	start := util.Clamp(m.cursor-countryRows/2, 0, max(len(m.countries)-countryRows, 0))
	end := min(start+countryRows, len(m.countries))

	cursorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	var lines []string
	for i := start; i < end; i++ {
		name := m.countries[i]
		pointer := "  "
		if i == m.cursor && m.focus == focusCountries {
			pointer = cursorStyle.Render("> ")
		}
		mark := "[ ]"
		if m.isSelected(name) {
			mark = "[x]"
		}
		lines = append(lines, fmt.Sprintf("%s%s %s", pointer, mark, util.TruncateRunes(name, maxLabelWidth)))
	}
	return strings.Join(lines, "\n")
}

func (m *model) topSelector() string {
	parts := make([]string, len(tariff.TopNChoices))
	for i, c := range tariff.TopNChoices {
		mark := "( )"
		if i == m.topIndex {
			mark = "(•)"
		}
		parts[i] = mark + " " + c.Label
	}
	return "Show top countries: " + strings.Join(parts, "  ")
}

// titleCase upper-cases the first letter of each word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// Run starts the dashboard and blocks until the user quits. Logs go to logPath
// only, so they do not corrupt the screen.
func Run(ctx context.Context, ds *tariff.Dataset, session *chat.Session, logPath string) error {
	if err := logging.InitFileOnly(logPath); err != nil {
		return fmt.Errorf("could not open log file: %w", err)
	}
	defer logging.Close()

	m := initialModel(ctx, ds, session)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}
