// Package tui provides the BubbleTea-based toast playground.
package tui

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/toastify/internal/adapter/output"
	"github.com/jmylchreest/toastify/internal/history"
	"github.com/jmylchreest/toastify/internal/model"
	"github.com/jmylchreest/toastify/internal/stack"
)

// Mode represents the current UI mode.
type Mode int

const (
	ModeList Mode = iota
	ModeDetail
	ModeHistory
	ModeHelp
)

// tickInterval drives countdown redraws.
const tickInterval = 250 * time.Millisecond

var samples = map[model.Color][]string{
	model.ColorSuccess: {"Saved", "Deployed", "Synced"},
	model.ColorError:   {"Build failed", "Connection lost", "Disk full"},
	model.ColorInfo:    {"New version available", "Backup started", "3 new messages"},
	model.ColorWarning: {"Battery low", "Certificate expires soon", "Quota at 90%"},
}

// Model is the main TUI model.
type Model struct {
	stack     *stack.Stack
	history   *history.History
	clipboard string
	now       func() time.Time

	mode Mode

	// Components
	list     list.Model
	viewport viewport.Model
	help     help.Model

	// State
	toasts   []model.Toast
	selected string
	sticky   bool
	counter  int
	width    int
	height   int
	ready    bool

	keys KeyMap

	statusMsg string
	statusErr bool

	events <-chan stack.ChangeEvent
}

// toastItem wraps a toast for the list component.
type toastItem struct {
	toast model.Toast
	now   time.Time
}

func (i toastItem) Title() string {
	if i.toast.Title == "" {
		return "(untitled)"
	}
	return i.toast.Title
}

func (i toastItem) Description() string {
	desc := string(i.toast.Color)
	if i.toast.AutoDismiss() {
		desc += " " + progressBar(i.toast.Remaining(i.now), i.toast.Duration, 20)
	} else {
		desc += " sticky"
	}
	if i.toast.Description != "" {
		desc += " " + i.toast.Description
	}
	return desc
}

func (i toastItem) FilterValue() string {
	return i.toast.Title + " " + i.toast.Description
}

// toastDelegate colors each title by toast color.
type toastDelegate struct {
	list.DefaultDelegate
}

func newToastDelegate() toastDelegate {
	return toastDelegate{DefaultDelegate: list.NewDefaultDelegate()}
}

// Render renders a list item.
func (d toastDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(toastItem)
	if !ok {
		d.DefaultDelegate.Render(w, m, index, item)
		return
	}

	titleStyle := d.Styles.NormalTitle
	descStyle := d.Styles.NormalDesc
	if index == m.Index() {
		titleStyle = d.Styles.SelectedTitle
		descStyle = d.Styles.SelectedDesc
	}
	titleStyle = titleStyle.Foreground(output.ColorStyle(ti.toast.Color).GetForeground())

	itemWidth := m.Width() - d.Styles.NormalTitle.GetHorizontalPadding()
	title := truncateWidth(ti.Title(), itemWidth)
	desc := truncateWidth(ti.Description(), itemWidth)

	fmt.Fprint(w, titleStyle.Render(title))
	fmt.Fprint(w, "\n")
	fmt.Fprint(w, descStyle.Render(desc))
}

func truncateWidth(s string, width int) string {
	if width <= 1 || len(s) <= width {
		return s
	}
	return s[:width-1] + "…"
}

// progressBar renders the fraction of d still remaining.
func progressBar(remaining, d time.Duration, width int) string {
	if d <= 0 || width <= 0 {
		return ""
	}
	filled := int(float64(width) * float64(remaining) / float64(d))
	filled = min(max(filled, 0), width)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// RunOptions configures the playground.
type RunOptions struct {
	Stack            *stack.Stack
	History          *history.History // Optional
	ClipboardCommand string           // Empty = auto-detect
	Now              func() time.Time // Clock for countdowns (nil = time.Now)
}

// New creates a new TUI model over the given stack.
func New(opts RunOptions) Model {
	l := list.New(nil, newToastDelegate(), 0, 0)
	l.Title = "Toast Stack"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	h := help.New()
	h.ShowAll = true

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	m := Model{
		stack:     opts.Stack,
		history:   opts.History,
		clipboard: opts.ClipboardCommand,
		now:       now,
		mode:      ModeList,
		list:      l,
		help:      h,
		keys:      DefaultKeyMap(),
	}

	if opts.Stack != nil {
		m.events = opts.Stack.Subscribe()
	}
	m.refresh()

	return m
}

// Init initializes the TUI.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.watchForChanges,
		tick(),
	)
}

type stackChangedMsg struct {
	event stack.ChangeEvent
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// watchForChanges waits for the next stack change.
func (m Model) watchForChanges() tea.Msg {
	if m.events == nil {
		return nil
	}
	ev, ok := <-m.events
	if !ok {
		return nil
	}
	return stackChangedMsg{event: ev}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		m.list.SetSize(msg.Width, msg.Height-2)
		m.viewport = viewport.New(msg.Width, msg.Height-4)
		m.viewport.YPosition = 2
		m.help.Width = msg.Width
		m.refreshView()
		return m, nil

	case stackChangedMsg:
		m.refresh()
		m.refreshView()
		cmds := []tea.Cmd{m.watchForChanges}
		if text := describeChange(msg.event); text != "" {
			cmds = append(cmds, status(text, false))
		}
		return m, tea.Batch(cmds...)

	case tickMsg:
		m.refresh()
		return m, tick()

	case statusMsg:
		m.statusMsg = msg.text
		m.statusErr = msg.isErr
		return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg {
			return clearStatusMsg{}
		})

	case clearStatusMsg:
		m.statusMsg = ""
		m.statusErr = false
		return m, nil

	case copyResultMsg:
		if msg.err != nil {
			return m, status("Copy failed: "+msg.err.Error(), true)
		}
		return m, status("Copied to clipboard", false)
	}

	var cmd tea.Cmd
	switch m.mode {
	case ModeList:
		m.list, cmd = m.list.Update(msg)
	case ModeDetail, ModeHistory:
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

type statusMsg struct {
	text  string
	isErr bool
}

type clearStatusMsg struct{}

type copyResultMsg struct {
	err error
}

func status(text string, isErr bool) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, isErr: isErr}
	}
}

// describeChange returns a status line for changes the user did not
// trigger directly.
func describeChange(ev stack.ChangeEvent) string {
	switch ev.Type {
	case stack.ChangeExpire:
		return "Expired: " + firstTitle(ev.Toasts)
	case stack.ChangeEvict:
		return "Evicted oldest: " + firstTitle(ev.Toasts)
	default:
		return ""
	}
}

func firstTitle(toasts []model.Toast) string {
	if len(toasts) == 0 {
		return ""
	}
	return toasts[0].Title
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		if m.mode == ModeHelp {
			m.mode = ModeList
		} else {
			m.mode = ModeHelp
		}
		return m, nil
	}

	switch m.mode {
	case ModeList:
		return m.handleListKey(msg)
	case ModeDetail:
		return m.handleDetailKey(msg)
	case ModeHistory, ModeHelp:
		if key.Matches(msg, m.keys.Back) || key.Matches(msg, m.keys.History) {
			m.mode = ModeList
			return m, nil
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	return m, nil
}

// handleListKey handles keys in list mode.
func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Success):
		return m, m.add(model.ColorSuccess)
	case key.Matches(msg, m.keys.Error):
		return m, m.add(model.ColorError)
	case key.Matches(msg, m.keys.Info):
		return m, m.add(model.ColorInfo)
	case key.Matches(msg, m.keys.Warning):
		return m, m.add(model.ColorWarning)

	case key.Matches(msg, m.keys.Sticky):
		m.sticky = !m.sticky
		if m.sticky {
			return m, status("New toasts stay until dismissed", false)
		}
		return m, status("New toasts use the configured duration", false)

	case key.Matches(msg, m.keys.Dismiss):
		if item, ok := m.list.SelectedItem().(toastItem); ok {
			m.stack.Remove(item.toast.ID)
			m.refresh()
			return m, status("Dismissed: "+item.Title(), false)
		}
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		n := len(m.toasts)
		m.stack.Clear()
		m.refresh()
		return m, status(fmt.Sprintf("Cleared %d toasts", n), false)

	case key.Matches(msg, m.keys.Enter):
		if item, ok := m.list.SelectedItem().(toastItem); ok {
			m.selected = item.toast.ID
			m.mode = ModeDetail
			m.refreshView()
			m.viewport.GotoTop()
		}
		return m, nil

	case key.Matches(msg, m.keys.History):
		m.mode = ModeHistory
		m.refreshView()
		m.viewport.GotoTop()
		return m, nil

	case key.Matches(msg, m.keys.Copy):
		if item, ok := m.list.SelectedItem().(toastItem); ok {
			data, err := json.MarshalIndent(item.toast, "", "  ")
			if err != nil {
				return m, status("Failed to marshal JSON: "+err.Error(), true)
			}
			return m, m.copyToClipboard(string(data))
		}
		return m, nil

	case key.Matches(msg, m.keys.CopyAll):
		var buf bytes.Buffer
		if err := output.NewYAMLFormatter(output.FormatterOptions{}).Format(&buf, m.toasts); err != nil {
			return m, status("Failed to marshal YAML: "+err.Error(), true)
		}
		return m, m.copyToClipboard(buf.String())
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleDetailKey handles keys in detail mode.
func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.mode = ModeList
		m.selected = ""
		return m, nil

	case key.Matches(msg, m.keys.Dismiss):
		m.stack.Remove(m.selected)
		m.mode = ModeList
		m.selected = ""
		m.refresh()
		return m, status("Dismissed", false)

	case key.Matches(msg, m.keys.Copy):
		if t, ok := m.stack.Get(m.selected); ok {
			data, err := json.MarshalIndent(t, "", "  ")
			if err != nil {
				return m, status("Failed to marshal JSON: "+err.Error(), true)
			}
			return m, m.copyToClipboard(string(data))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// add pushes a sample toast of the given category.
func (m *Model) add(color model.Color) tea.Cmd {
	m.counter++
	titles := samples[color]
	title := titles[(m.counter-1)%len(titles)]
	desc := fmt.Sprintf("Playground toast #%d", m.counter)

	var overrides []model.Options
	if m.sticky {
		overrides = append(overrides, model.Options{Duration: model.Ptr(time.Duration(0))})
	}
	if m.stack.Category(color, title, desc, overrides...) == "" {
		return status(stack.ErrStackClosed.Error(), true)
	}
	m.refresh()
	return nil
}

// refresh reloads the toast list from the stack.
func (m *Model) refresh() {
	if m.stack == nil {
		return
	}
	m.toasts = m.stack.Toasts()
	now := m.now()

	// Newest on top, like a rendered stack.
	items := make([]list.Item, 0, len(m.toasts))
	for i := len(m.toasts) - 1; i >= 0; i-- {
		items = append(items, toastItem{toast: m.toasts[i], now: now})
	}
	m.list.SetItems(items)
}

// refreshView re-renders the viewport for the current mode.
func (m *Model) refreshView() {
	switch m.mode {
	case ModeDetail:
		t, ok := m.stack.Get(m.selected)
		if !ok {
			m.mode = ModeList
			m.selected = ""
			return
		}
		m.viewport.SetContent(m.renderDetail(t))
	case ModeHistory:
		m.viewport.SetContent(m.renderHistory())
	}
}

// renderDetail renders the detail view for a toast.
func (m Model) renderDetail(t model.Toast) string {
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	var sb strings.Builder
	sb.WriteString(output.ColorStyle(t.Color).Render(t.Title) + "\n\n")

	field := func(label, value string) {
		if value != "" {
			sb.WriteString(labelStyle.Render(label+": ") + value + "\n")
		}
	}
	field("ID", t.ID)
	field("Color", string(t.Color))
	field("Icon", t.Icon)
	field("Orientation", string(t.Orientation))
	if t.AutoDismiss() {
		field("Duration", t.Duration.String())
		field("Remaining", t.Remaining(m.now()).Round(100*time.Millisecond).String())
	} else {
		field("Duration", "never")
	}
	field("Close", fmt.Sprintf("%t", t.Close.Enabled))
	field("Progress", fmt.Sprintf("%t", t.Progress.Enabled))
	for _, a := range t.Actions {
		field("Action", a.Label)
	}

	if t.Description != "" {
		sb.WriteString("\n" + labelStyle.Render("Description:") + "\n")
		sb.WriteString(t.Description + "\n")
	}
	return sb.String()
}

// renderHistory renders recently removed toasts.
func (m Model) renderHistory() string {
	if m.history == nil {
		return "History is disabled."
	}
	entries := m.history.All()
	if len(entries) == 0 {
		return "No toasts removed yet."
	}

	opts := output.DefaultFormatterOptions()
	opts.Color = true
	opts.Now = m.now

	var buf bytes.Buffer
	if err := output.NewPlainFormatter(opts).FormatHistory(&buf, entries); err != nil {
		return "Failed to render history: " + err.Error()
	}
	return buf.String()
}

// copyToClipboard copies text to the system clipboard.
func (m Model) copyToClipboard(text string) tea.Cmd {
	command := m.clipboard
	return func() tea.Msg {
		return copyResultMsg{err: copyText(text, command)}
	}
}

// View renders the TUI.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	switch m.mode {
	case ModeList:
		return m.viewList()
	case ModeDetail:
		return m.viewPane("Toast Detail", "detail")
	case ModeHistory:
		return m.viewPane("History", "history")
	case ModeHelp:
		return m.help.View(m.keys)
	default:
		return ""
	}
}

func (m Model) viewList() string {
	s := m.list.View()

	if m.statusMsg != "" {
		statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
		if m.statusErr {
			statusStyle = statusStyle.Foreground(lipgloss.Color("9"))
		}
		s += "\n" + statusStyle.Render(m.statusMsg)
	} else {
		s += "\n" + m.buildKeybindBar(m.width, "list")
	}
	return s
}

func (m Model) viewPane(title, mode string) string {
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1).Render(title)
	return header + "\n" + m.viewport.View() + "\n" + m.buildKeybindBar(m.width, mode)
}

// keybind is one entry in the status bar.
type keybind struct {
	key  string
	desc string
}

// buildKeybindBar builds a keybind bar that fits within the given width.
// Binds are listed most important first and dropped from the tail.
func (m Model) buildKeybindBar(width int, mode string) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

	var binds []keybind
	switch mode {
	case "list":
		sticky := "sticky off"
		if m.sticky {
			sticky = "sticky on"
		}
		binds = []keybind{
			{"q", "quit"},
			{"s/e/i/w", "add"},
			{"d", "dismiss"},
			{"c", "clear"},
			{"t", sticky},
			{"h", "history"},
			{"enter", "view"},
			{"?", "help"},
			{"y", "copy"},
		}
	case "detail":
		binds = []keybind{
			{"q", "quit"},
			{"esc", "back"},
			{"d", "dismiss"},
			{"y", "copy"},
		}
	case "history":
		binds = []keybind{
			{"q", "quit"},
			{"esc", "back"},
			{"j/k", "scroll"},
		}
	}

	const separator = "  "
	result := ""
	for _, b := range binds {
		item := keyStyle.Render(b.key) + " " + b.desc
		next := lipgloss.Width(b.key + " " + b.desc)
		if result != "" {
			next += lipgloss.Width(result) + len(separator)
		}
		if width > 0 && next > width {
			break
		}
		if result != "" {
			result += separator
		}
		result += item
	}

	return style.Render(result)
}

// Run starts the playground over opts.Stack.
func Run(opts RunOptions) error {
	if opts.Stack == nil {
		return errors.New("playground requires a stack")
	}
	p := tea.NewProgram(New(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
