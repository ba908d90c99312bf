package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/olivier-w/decks/internal/catalog"
	"github.com/olivier-w/decks/internal/deck"
	"github.com/olivier-w/decks/internal/session"
	"github.com/olivier-w/decks/internal/util"
	"github.com/olivier-w/decks/internal/visualizer"
)

// Session is the playback core the UI drives.
type Session interface {
	Catalog() *catalog.Catalog
	Add(paths ...string) int
	Remove(i int) bool
	Open(index int) (int, error)
	Close(slot int) error
	Deck(slot int) (*deck.Chain, bool)
	Poll() session.Snapshot
	Events() <-chan session.Event
}

// Options configures the UI.
type Options struct {
	FPS int
	// Publish receives every poll snapshot, for example to feed visualizers.
	Publish func(session.Snapshot)
	// BrowseDir is where the add browser starts.
	BrowseDir string
}

type pane int

const (
	playlistPane pane = iota
	deckPane
)

const statusTTL = 4 * time.Second

type envelope struct {
	width  int
	levels []float64
}

// Model is the Bubbletea model for the deck TUI.
type Model struct {
	sess Session
	opts Options
	snap session.Snapshot

	focus      pane
	cursor     int
	deckCursor int

	filter        textinput.Model
	filterFocused bool
	browser       *browserModel

	strips    map[int]*visualizer.Strip
	envelopes map[int]envelope

	status     string
	statusWarn bool
	statusTime time.Time

	width    int
	height   int
	quitting bool
}

// New creates a Model driving sess.
func New(sess Session, opts Options) Model {
	if opts.FPS <= 0 {
		opts.FPS = 60
	}
	if opts.BrowseDir == "" {
		opts.BrowseDir = "."
	}
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "filter"
	ti.CharLimit = 256
	return Model{
		sess:      sess,
		opts:      opts,
		filter:    ti,
		strips:    make(map[int]*visualizer.Strip),
		envelopes: make(map[int]envelope),
	}
}

func (m Model) tickInterval() time.Duration {
	return time.Second / time.Duration(m.opts.FPS)
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(m.tickInterval()), waitEvent(m.sess.Events()), tea.SetWindowTitle("decks"))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m.handleMsg(msg)
}

func (m Model) handleMsg(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.browser != nil {
			b, cmd := m.browser.update(msg)
			m.browser = &b
			return m, cmd
		}
		return m.handleKey(msg)

	case browserDoneMsg:
		m.browser = nil
		if len(msg.paths) > 0 {
			n := m.sess.Add(msg.paths...)
			m.setStatus(fmt.Sprintf("added %d of %d", n, len(msg.paths)), n == 0)
		}
		return m, nil

	case tickMsg:
		m.poll()
		return m, tickCmd(m.tickInterval())

	case eventMsg:
		m.handleEvent(session.Event(msg))
		return m, waitEvent(m.sess.Events())

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.browser != nil {
			b, cmd := m.browser.update(msg)
			m.browser = &b
			return m, cmd
		}
		return m, nil
	}

	if m.browser != nil {
		b, cmd := m.browser.update(msg)
		m.browser = &b
		return m, cmd
	}
	if m.filterFocused {
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) setStatus(s string, warn bool) {
	m.status = s
	m.statusWarn = warn
	m.statusTime = time.Now()
}

func (m *Model) poll() {
	m.snap = m.sess.Poll()
	if m.opts.Publish != nil {
		m.opts.Publish(m.snap)
	}
	w := m.stripWidth()
	for _, d := range m.snap.Decks {
		s, ok := m.strips[d.Slot]
		if !ok {
			s = visualizer.NewStrip(m.opts.FPS)
			m.strips[d.Slot] = s
		}
		s.Update(d.Spectrum, w)
	}
	m.clampCursors()
	if m.status != "" && time.Since(m.statusTime) > statusTTL {
		m.status = ""
	}
}

func (m *Model) handleEvent(e session.Event) {
	switch e.Kind {
	case session.DeckOpened:
		delete(m.envelopes, e.Slot)
		if s, ok := m.strips[e.Slot]; ok {
			s.Reset()
		}
	case session.DeckClosed:
		delete(m.envelopes, e.Slot)
		delete(m.strips, e.Slot)
	case session.CatalogChanged:
		m.clampCursors()
	}
}

func (m *Model) clampCursors() {
	n := m.sess.Catalog().Count()
	m.cursor = max(0, min(m.cursor, n-1))
	m.deckCursor = max(0, min(m.deckCursor, len(m.snap.Decks)-1))
}

func (m *Model) applyFilter() {
	cat := m.sess.Catalog()
	if v := m.filter.Value(); v != "" {
		cat.Filter(v)
	} else {
		cat.ClearFilter()
	}
	m.clampCursors()
}

func (m *Model) clearFilter() {
	m.filter.SetValue("")
	m.filter.Blur()
	m.filterFocused = false
	m.sess.Catalog().ClearFilter()
	m.clampCursors()
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.filterFocused {
		switch msg.String() {
		case "esc":
			m.clearFilter()
			return m, nil
		case "enter", "tab", "down":
			m.filter.Blur()
			m.filterFocused = false
			return m, nil
		case "ctrl+c":
			m.quitting = true
			return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
		}
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		m.applyFilter()
		return m, cmd
	}

	if isQuit(msg) {
		m.quitting = true
		return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
	}
	switch msg.String() {
	case "tab":
		if m.focus == playlistPane {
			m.focus = deckPane
		} else {
			m.focus = playlistPane
		}
		return m, nil
	case "/":
		m.focus = playlistPane
		m.filterFocused = true
		return m, m.filter.Focus()
	case "a":
		b := newBrowser(m.opts.BrowseDir, m.width, m.height)
		m.browser = &b
		return m, nil
	}

	if m.focus == playlistPane {
		return m.handlePlaylistKey(msg)
	}
	return m.handleDeckKey(msg)
}

func (m Model) handlePlaylistKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	cat := m.sess.Catalog()
	switch msg.String() {
	case "up", "k":
		m.cursor = max(0, m.cursor-1)
	case "down", "j":
		m.cursor = min(max(cat.Count()-1, 0), m.cursor+1)
	case "esc":
		if cat.Filtering() {
			m.clearFilter()
		}
	case "enter":
		t := cat.Get(m.cursor)
		if t == nil {
			return m, nil
		}
		slot, err := m.sess.Open(m.cursor)
		switch {
		case errors.Is(err, session.ErrNoDeck):
			m.setStatus("no deck available: close a deck first", true)
		case err != nil:
			m.setStatus(fmt.Sprintf("cannot open %s", t.FileName()), true)
		default:
			m.setStatus(fmt.Sprintf("%s on deck %d", t.FileName(), slot+1), false)
			m.focusDeck(slot)
		}
	case "x", "delete":
		t := cat.Get(m.cursor)
		switch {
		case t == nil:
		case cat.Filtering():
			m.setStatus("clear the filter to remove tracks", true)
		case t.Assigned():
			m.setStatus(fmt.Sprintf("%s is on deck %d", t.FileName(), t.SlotID()+1), true)
		case m.sess.Remove(cat.IndexOf(m.cursor)):
			m.setStatus("removed "+t.FileName(), false)
			m.clampCursors()
		}
	}
	return m, nil
}

func (m *Model) focusDeck(slot int) {
	m.snap = m.sess.Poll()
	for i, d := range m.snap.Decks {
		if d.Slot == slot {
			m.deckCursor = i
		}
	}
}

func (m Model) selectedDeck() (*deck.Chain, int, bool) {
	if m.deckCursor < 0 || m.deckCursor >= len(m.snap.Decks) {
		return nil, -1, false
	}
	slot := m.snap.Decks[m.deckCursor].Slot
	c, ok := m.sess.Deck(slot)
	return c, slot, ok
}

func (m Model) handleDeckKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.deckCursor = max(0, m.deckCursor-1)
		return m, nil
	case "down", "j":
		m.deckCursor = min(max(len(m.snap.Decks)-1, 0), m.deckCursor+1)
		return m, nil
	}

	c, slot, ok := m.selectedDeck()
	if !ok {
		return m, nil
	}
	reject := func(what string, accepted bool) {
		if !accepted {
			m.setStatus(what+" out of range", true)
		}
	}
	low, high := c.Cutoff()
	switch msg.String() {
	case " ", "p":
		if c.Playing() {
			c.Stop()
		} else {
			c.Start()
		}
	case "s":
		c.Rewind()
	case "f":
		reject("fast forward", c.FastForward())
	case "b":
		reject("fast reverse", c.FastReverse())
	case "left", "h":
		c.SetPositionRelative(max(0, c.PositionRelative()-seekStep))
	case "right", "l":
		c.SetPositionRelative(min(1, c.PositionRelative()+seekStep))
	case "+", "=":
		reject("gain", c.SetGain(nudge(c.Gain(), 1, gainStep)))
	case "-", "_":
		reject("gain", c.SetGain(nudge(c.Gain(), -1, gainStep)))
	case "]":
		reject("speed", c.SetSpeed(nudge(c.Speed(), 1, speedStep)))
	case "[":
		reject("speed", c.SetSpeed(nudge(c.Speed(), -1, speedStep)))
	case ".":
		reject("high-pass", c.SetCutoffFrequency(low*cutoffStep, high))
	case ",":
		reject("high-pass", low > deck.MinCutoff && c.SetCutoffFrequency(max(deck.MinCutoff, low/cutoffStep), high))
	case ">":
		reject("low-pass", high < deck.MaxCutoff && c.SetCutoffFrequency(low, min(deck.MaxCutoff, high*cutoffStep)))
	case "<":
		reject("low-pass", c.SetCutoffFrequency(low, high/cutoffStep))
	case "c", "x":
		if err := m.sess.Close(slot); err != nil {
			m.setStatus(err.Error(), true)
		} else {
			m.setStatus(fmt.Sprintf("deck %d closed", slot+1), false)
			m.snap = m.sess.Poll()
			m.clampCursors()
		}
	}
	return m, nil
}

func (m Model) contentWidth() int {
	w := m.width
	if w < 40 {
		w = 80
	}
	return w - 4
}

func (m Model) stripWidth() int {
	return max(m.contentWidth()-6, 16)
}

func (m *Model) envelopeFor(slot int, c *deck.Chain, width int) []float64 {
	if e, ok := m.envelopes[slot]; ok && e.width == width {
		return e.levels
	}
	levels := c.Envelope(width)
	peak := 0.0
	for _, v := range levels {
		peak = max(peak, v)
	}
	if peak > 0 {
		for i := range levels {
			levels[i] /= peak
		}
	}
	m.envelopes[slot] = envelope{width: width, levels: levels}
	return levels
}

func (m Model) playlistRows() int {
	if m.height <= 0 {
		return 10
	}
	used := 8 + len(m.snap.Decks)*5
	return max(m.height-used, 3)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.browser != nil {
		return m.browser.view()
	}

	w := m.contentWidth()
	var b strings.Builder
	cat := m.sess.Catalog()

	b.WriteString("\n")
	b.WriteString("  " + headerStyle.Render("decks") + "  " +
		timeStyle.Render(fmt.Sprintf("%d tracks  %d decks free", cat.Len(), m.snap.Free)) + "\n")
	if m.filterFocused || m.filter.Value() != "" {
		b.WriteString("  " + m.filter.View() + "\n")
	}
	b.WriteString("\n")

	label := "playlist"
	if m.focus == playlistPane {
		label = selectedStyle.Render(label)
	} else {
		label = headerStyle.Render(label)
	}
	b.WriteString("  " + label + "\n")
	b.WriteString(m.viewPlaylist(w))
	b.WriteString("\n")

	label = "decks"
	if m.focus == deckPane {
		label = selectedStyle.Render(label)
	} else {
		label = headerStyle.Render(label)
	}
	b.WriteString("  " + label + "\n")
	b.WriteString(m.viewDecks(w))

	b.WriteString("\n")
	if m.status != "" {
		st := statusStyle
		if m.statusWarn {
			st = warnStyle
		}
		b.WriteString("  " + st.Render(m.status) + "\n")
	}
	b.WriteString("  " + helpStyle.Render(helpText(m.focus)) + "\n")
	return b.String()
}

func (m Model) viewPlaylist(w int) string {
	cat := m.sess.Catalog()
	n := cat.Count()
	if n == 0 {
		msg := "empty: press a to add files"
		if cat.Filtering() {
			msg = "no matches"
		}
		return "  " + helpStyle.Render(msg) + "\n"
	}

	rows := m.playlistRows()
	start := max(0, min(m.cursor-rows/2, n-rows))
	end := min(n, start+rows)

	var b strings.Builder
	for i := start; i < end; i++ {
		t := cat.Get(i)
		dur := util.FormatDuration(t.Duration)
		tag := ""
		if t.Assigned() {
			tag = fmt.Sprintf(" [deck %d]", t.SlotID()+1)
		}
		nameWidth := w - len(dur) - len(tag) - 6
		name := pad(truncate(t.FileName(), nameWidth), nameWidth)
		line := fmt.Sprintf("%s  %s%s", name, timeStyle.Render(dur), tag)
		if i == m.cursor && m.focus == playlistPane {
			b.WriteString("  " + selectedStyle.Render("›") + " " + line + "\n")
		} else {
			b.WriteString("    " + line + "\n")
		}
	}
	return b.String()
}

func (m Model) viewDecks(w int) string {
	if len(m.snap.Decks) == 0 {
		return "  " + helpStyle.Render("no deck open: select a track and press enter") + "\n"
	}
	var b strings.Builder
	for i, d := range m.snap.Decks {
		marker := "  "
		if i == m.deckCursor && m.focus == deckPane {
			marker = selectedStyle.Render("› ")
		}
		icon := "❚❚"
		if d.Playing {
			icon = "▶ "
		}
		title := titleStyle.Render(truncate(d.Title, w/2))
		b.WriteString(fmt.Sprintf("  %s%d %s %s\n", marker, d.Slot+1, icon, title))

		pos := util.FormatSeconds(d.Position)
		dur := util.FormatSeconds(d.Duration)
		barWidth := max(w-len(pos)-len(dur)-8, 10)
		bar := renderProgressBar(d.Position, d.Duration, barWidth)
		b.WriteString(fmt.Sprintf("       %s %s %s\n", timeStyle.Render(pos), bar, timeStyle.Render(dur)))

		if c, ok := m.sess.Deck(d.Slot); ok {
			env := m.envelopeFor(d.Slot, c, m.stripWidth())
			b.WriteString("       " + artistStyle.Render(visualizer.Overview(env, d.Relative)) + "\n")
		}
		if s, ok := m.strips[d.Slot]; ok {
			b.WriteString("       " + spectrumStyle.Render(s.View(1)) + "\n")
		}
		b.WriteString("       " + statusStyle.Render(fmt.Sprintf("%s  %s  %s",
			renderGain(d.Gain), renderSpeed(d.Speed), renderCutoff(d.Low, d.High))) + "\n")
	}
	return b.String()
}
