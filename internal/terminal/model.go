// Package terminal renders the dashboard as a bubbletea program.
package terminal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"stocksense/models"
)

// Dashboard is the slice of the dashboard the terminal drives
type Dashboard interface {
	AddSymbol(ctx context.Context, symbol string) (models.Quote, error)
	RemoveSymbol(symbol string) bool
	SetNewsFilter(criterion string) ([]models.NewsItem, error)
	ManualRefresh(ctx context.Context) error
	Snapshot() models.Snapshot
	Subscribe(buffer int) (<-chan models.Snapshot, func())
	Sentiment() models.MarketSentiment
	MarketStatus() models.MarketStatus
	Now() time.Time
}

const (
	actionTimeout = 15 * time.Second
	tickInterval  = time.Second
	maxNewsRows   = 8
)

var filterCycle = []models.NewsFilter{
	models.FilterAll,
	models.NewsFilter(models.SentimentPositive),
	models.NewsFilter(models.SentimentNegative),
	models.NewsFilter(models.SentimentNeutral),
}

type snapshotMsg models.Snapshot

type streamClosedMsg struct{}

type tickMsg time.Time

type actionMsg struct {
	err error
}

// Model is the terminal dashboard model.
type Model struct {
	dash        Dashboard
	ctx         context.Context
	snapshots   <-chan models.Snapshot
	unsubscribe func()

	snap      models.Snapshot
	sentiment models.MarketSentiment
	status    models.MarketStatus
	now       time.Time

	selected int
	adding   bool
	input    textinput.Model
	closed   bool

	width  int
	height int
}

// NewModel subscribes to dashboard changes and seeds the view with the current state
func NewModel(ctx context.Context, dash Dashboard) *Model {
	ti := textinput.New()
	ti.Placeholder = "Symbol, e.g. INFY"
	ti.CharLimit = 20
	ti.Width = 24

	ch, cancel := dash.Subscribe(0)
	m := &Model{
		dash:        dash,
		ctx:         ctx,
		snapshots:   ch,
		unsubscribe: cancel,
		input:       ti,
	}
	m.sync(dash.Snapshot())
	return m
}

// Init starts listening for snapshots and the clock tick
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.listenSnapshots(),
		m.tick(),
	)
}

// Update handles key presses, dashboard snapshots and action results
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.adding {
			return m, m.updateInput(msg)
		}
		return m, m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case snapshotMsg:
		m.sync(models.Snapshot(msg))
		return m, m.listenSnapshots()

	case streamClosedMsg:
		m.closed = true

	case tickMsg:
		m.sync(m.dash.Snapshot())
		return m, m.tick()

	case actionMsg:
		// Outcomes surface through the notifications in the next snapshot.
		m.sync(m.dash.Snapshot())
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Quit):
		m.unsubscribe()
		return tea.Quit
	case key.Matches(msg, keys.Add):
		m.adding = true
		m.input.SetValue("")
		return m.input.Focus()
	case key.Matches(msg, keys.Remove):
		if sym, ok := m.selectedSymbol(); ok {
			return m.removeSymbol(sym)
		}
	case key.Matches(msg, keys.Refresh):
		return m.refresh()
	case key.Matches(msg, keys.Filter):
		return m.setFilter(nextFilter(m.snap.Filter))
	case key.Matches(msg, keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, keys.Down):
		if m.selected < len(m.snap.Quotes)-1 {
			m.selected++
		}
	}
	return nil
}

func (m *Model) updateInput(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Confirm):
		sym := m.input.Value()
		m.adding = false
		m.input.Blur()
		return m.addSymbol(sym)
	case key.Matches(msg, keys.Cancel):
		m.adding = false
		m.input.Blur()
		return nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

// sync replaces the rendered state and keeps the selection in range
func (m *Model) sync(s models.Snapshot) {
	m.snap = s
	m.sentiment = m.dash.Sentiment()
	m.status = m.dash.MarketStatus()
	m.now = m.dash.Now()

	if m.selected >= len(s.Quotes) {
		m.selected = len(s.Quotes) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m *Model) selectedSymbol() (string, bool) {
	if len(m.snap.Quotes) == 0 {
		return "", false
	}
	return m.snap.Quotes[m.selected].Symbol, true
}

func nextFilter(current models.NewsFilter) models.NewsFilter {
	for i, f := range filterCycle {
		if f == current {
			return filterCycle[(i+1)%len(filterCycle)]
		}
	}
	return models.FilterAll
}

// Commands

func (m *Model) listenSnapshots() tea.Cmd {
	ch := m.snapshots
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return streamClosedMsg{}
		}
		return snapshotMsg(s)
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) addSymbol(sym string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, actionTimeout)
		defer cancel()
		_, err := m.dash.AddSymbol(ctx, sym)
		return actionMsg{err: err}
	}
}

func (m *Model) removeSymbol(sym string) tea.Cmd {
	return func() tea.Msg {
		m.dash.RemoveSymbol(sym)
		return actionMsg{}
	}
}

func (m *Model) refresh() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, actionTimeout)
		defer cancel()
		return actionMsg{err: m.dash.ManualRefresh(ctx)}
	}
}

func (m *Model) setFilter(f models.NewsFilter) tea.Cmd {
	return func() tea.Msg {
		_, err := m.dash.SetNewsFilter(string(f))
		return actionMsg{err: err}
	}
}

// View renders the dashboard
func (m *Model) View() string {
	left := lipgloss.JoinVertical(lipgloss.Left,
		m.renderQuotes(),
		m.renderIndices(),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.renderNews(),
		m.renderNotifications(),
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		lipgloss.JoinHorizontal(lipgloss.Top, left, right),
		m.renderStatusBar(),
	)
}

func (m *Model) renderHeader() string {
	status := fmt.Sprintf("%s: %s", m.status.Market, m.status.Status)
	sentiment := fmt.Sprintf("%s %d", m.sentiment.Label, m.sentiment.Score)
	return lipgloss.JoinHorizontal(lipgloss.Top,
		TitleStyle.Render("StockSense"),
		"  ",
		MutedStyle.Render(status),
		"  ",
		trendStyle(m.sentiment.Score >= models.BearishThreshold).Render(sentiment),
	)
}

func (m *Model) renderQuotes() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render(fmt.Sprintf("Watchlist %d / %d", len(m.snap.Quotes), m.snap.Capacity)))
	b.WriteString("\n")
	b.WriteString(HeaderStyle.Render(fmt.Sprintf("%-10s %-22s %12s %10s %8s %8s %8s %12s",
		"SYMBOL", "NAME", "PRICE", "CHANGE", "%", "VOLUME", "MCAP", "UPDATED")))

	if len(m.snap.Quotes) == 0 {
		b.WriteString("\n")
		b.WriteString(MutedStyle.Render("No stocks tracked. Press a to add one."))
	}

	for i, q := range m.snap.Quotes {
		row := fmt.Sprintf("%-10s %-22s %12s %10s %8s %8s %8s %12s",
			q.Symbol,
			truncate(q.Name, 22),
			formatPrice(q.Price.InexactFloat64()),
			formatSigned(q.Change.InexactFloat64()),
			formatSigned(q.ChangePercent.InexactFloat64())+"%",
			q.Volume,
			q.MarketCap,
			formatAgo(q.LastUpdated, m.now),
		)
		style := trendStyle(q.IsGain())
		if i == m.selected {
			style = SelectedRowStyle.Inherit(style)
		}
		b.WriteString("\n")
		b.WriteString(style.Render(row))
	}
	return PanelStyle.Render(b.String())
}

func (m *Model) renderIndices() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Indices"))
	for _, idx := range m.snap.Indices {
		b.WriteString("\n")
		line := fmt.Sprintf("%-12s %12s %10s (%s%%)",
			idx.Name,
			formatPrice(idx.Value.InexactFloat64()),
			formatSigned(idx.Change.InexactFloat64()),
			formatSigned(idx.ChangePercent.InexactFloat64()),
		)
		b.WriteString(trendStyle(idx.IsGain()).Render(line))
	}
	return PanelStyle.Render(b.String())
}

func (m *Model) renderNews() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("News"))
	b.WriteString("  ")
	for i, f := range filterCycle {
		if i > 0 {
			b.WriteString(MutedStyle.Render(" | "))
		}
		if f == m.snap.Filter {
			b.WriteString(ActiveFilter.Render(string(f)))
		} else {
			b.WriteString(MutedStyle.Render(string(f)))
		}
	}

	if len(m.snap.News) == 0 {
		b.WriteString("\n")
		b.WriteString(MutedStyle.Render("No news for this filter"))
	}
	for i, item := range m.snap.News {
		if i == maxNewsRows {
			b.WriteString("\n")
			b.WriteString(MutedStyle.Render(fmt.Sprintf("+%d more", len(m.snap.News)-maxNewsRows)))
			break
		}
		b.WriteString("\n")
		b.WriteString(sentimentStyle(item.Sentiment).Render(truncate(item.Title, 56)))
		b.WriteString("\n  ")
		b.WriteString(MutedStyle.Render(item.Source + " · " + item.Time))
	}
	return PanelStyle.Render(b.String())
}

func (m *Model) renderNotifications() string {
	if len(m.snap.Notifications) == 0 {
		return ""
	}
	var b strings.Builder
	for i, n := range m.snap.Notifications {
		if i > 0 {
			b.WriteString("\n")
		}
		line := n.Message
		if n.Phase(m.now) == models.PhaseLeaving {
			line = MutedStyle.Render(line)
		}
		b.WriteString(severityStyle(string(n.Severity)).Render(line))
	}
	return PanelStyle.Render(b.String())
}

func (m *Model) renderStatusBar() string {
	if m.adding {
		return StatusBarStyle.Render("Add: " + m.input.View() + "  " + renderHelp(keys.inputHelp()))
	}
	help := renderHelp(keys.browseHelp())
	if m.closed {
		help = LossStyle.Render("stream closed") + "  " + help
	}
	return StatusBarStyle.Render(help)
}

func renderHelp(bindings []key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, StatusBarKeyStyle.Render(h.Key)+" "+h.Desc)
	}
	return strings.Join(parts, "  ")
}

func sentimentStyle(s models.Sentiment) lipgloss.Style {
	switch s {
	case models.SentimentPositive:
		return GainStyle
	case models.SentimentNegative:
		return LossStyle
	default:
		return RowStyle
	}
}

func formatPrice(v float64) string {
	return humanize.FormatFloat("#,###.##", v)
}

func formatSigned(v float64) string {
	if v >= 0 {
		return "+" + humanize.FormatFloat("#,###.##", v)
	}
	return humanize.FormatFloat("#,###.##", v)
}

func formatAgo(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	if now.Sub(t) < time.Second {
		return "just now"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
