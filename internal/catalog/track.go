package catalog

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/bogem/id3v2/v2"
)

// Track is one playlist entry. Path and the derived fields never change after
// the track is added; only the deck binding does.
type Track struct {
	Path     string
	Duration time.Duration
	Title    string
	Artist   string

	slot int
}

func newTrack(path string, d time.Duration) *Track {
	t := &Track{Path: path, Duration: d, slot: -1}
	t.Title, t.Artist = readTags(path)
	return t
}

// FileName returns the base name of the track's path.
func (t *Track) FileName() string {
	return filepath.Base(t.Path)
}

// Matches reports whether the file name contains keyword, ignoring case.
func (t *Track) Matches(keyword string) bool {
	return strings.Contains(strings.ToLower(t.FileName()), strings.ToLower(keyword))
}

// Assigned reports whether the track is loaded on a deck.
func (t *Track) Assigned() bool { return t.slot >= 0 }

// SlotID returns the bound deck, or -1.
func (t *Track) SlotID() int { return t.slot }

// Bind records that the track is loaded on deck id.
func (t *Track) Bind(id int) { t.slot = id }

// Unbind clears the deck binding and returns the previous slot id.
func (t *Track) Unbind() int {
	id := t.slot
	t.slot = -1
	return id
}

// readTags reads ID3v2 tags from an MP3 file, falling back to the file name.
func readTags(path string) (title, artist string) {
	if strings.EqualFold(filepath.Ext(path), ".mp3") {
		tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
		if err == nil {
			defer tag.Close()
			title = strings.TrimSpace(tag.Title())
			artist = strings.TrimSpace(tag.Artist())
			if title != "" {
				return title, artist
			}
		}
	}

	// Fallback: use filename without extension
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base)), artist
}
