package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/olivier-w/decks/internal/media"
)

type fileItem struct {
	name string
	path string
	kind string
}

func (i fileItem) Title() string       { return i.name }
func (i fileItem) Description() string { return i.kind }
func (i fileItem) FilterValue() string { return i.name }

type pathItem struct{}

func (i pathItem) Title() string       { return "Type a path..." }
func (i pathItem) Description() string { return "file, folder or playlist" }
func (i pathItem) FilterValue() string { return "path" }

// browserModel picks files, folders or playlists to add to the catalog.
type browserModel struct {
	list     list.Model
	input    textinput.Model
	pathMode bool
	err      error
}

// scanEntries lists supported audio files, playlists and sub-folders of dir.
func scanEntries(dir string) ([]list.Item, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read directory: %w", err)
	}
	items := []list.Item{pathItem{}}
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		full := filepath.Join(dir, name)
		ext := strings.ToLower(filepath.Ext(name))
		switch {
		case e.IsDir():
			items = append(items, fileItem{name: name + "/", path: full, kind: "folder"})
		case media.IsPlaylistExt(ext):
			items = append(items, fileItem{name: name, path: full, kind: "playlist"})
		case media.IsSupportedExt(ext):
			items = append(items, fileItem{name: name, path: full, kind: ext})
		}
	}
	return items, nil
}

func newBrowser(dir string, width, height int) browserModel {
	items, err := scanEntries(dir)
	if err != nil {
		items = []list.Item{pathItem{}}
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#FFFFFF"}).
		BorderLeftForeground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}).
		BorderLeftForeground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})

	l := list.New(items, delegate, max(width, 40), max(height, 10))
	l.Title = "add to playlist"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = headerStyle

	ti := textinput.New()
	ti.Placeholder = "/path/to/music"
	ti.CharLimit = 4096
	ti.Width = 60

	return browserModel{list: l, input: ti, err: err}
}

func browserDone(paths []string) tea.Cmd {
	return func() tea.Msg { return browserDoneMsg{paths: paths} }
}

func (b browserModel) update(msg tea.Msg) (browserModel, tea.Cmd) {
	if b.pathMode {
		return b.updatePathInput(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Don't intercept keys when filtering
		if b.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "enter":
			switch item := b.list.SelectedItem().(type) {
			case pathItem:
				b.pathMode = true
				b.input.Focus()
				return b, textinput.Blink
			case fileItem:
				return b, browserDone(media.ExpandPaths([]string{item.path}))
			}
		case "esc", "q":
			return b, browserDone(nil)
		}

	case tea.WindowSizeMsg:
		b.list.SetWidth(msg.Width)
		b.list.SetHeight(msg.Height)
		return b, nil
	}

	var cmd tea.Cmd
	b.list, cmd = b.list.Update(msg)
	return b, cmd
}

func (b browserModel) updatePathInput(msg tea.Msg) (browserModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "enter":
			p := strings.TrimSpace(b.input.Value())
			if p != "" {
				return b, browserDone(media.ExpandPaths([]string{p}))
			}
		case "esc":
			b.pathMode = false
			b.input.Reset()
			b.input.Blur()
			return b, nil
		}
	}

	var cmd tea.Cmd
	b.input, cmd = b.input.Update(msg)
	return b, cmd
}

func (b browserModel) view() string {
	if b.pathMode {
		s := "\n"
		s += "  " + headerStyle.Render("add to playlist") + "\n"
		s += "\n"
		s += "  " + statusStyle.Render("Path:") + "\n"
		s += "  " + b.input.View() + "\n"
		s += "\n"
		s += "  " + helpStyle.Render("enter add  esc back") + "\n"
		return s
	}
	v := b.list.View()
	if b.err != nil {
		v += "\n  " + warnStyle.Render(b.err.Error())
	}
	return v
}
