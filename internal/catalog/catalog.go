// Package catalog holds the ordered playlist of tracks and its filtered view.
package catalog

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/olivier-w/decks/internal/decoder"
	"github.com/olivier-w/decks/internal/media"
)

// Inspector reads a file header without decoding it.
type Inspector interface {
	Inspect(path string) (decoder.Info, error)
}

// Store persists the ordered list of track paths.
type Store interface {
	// Load returns the saved paths; found is false when nothing was saved yet.
	Load() (paths []string, found bool, err error)
	Save(paths []string) error
}

// Catalog is the playlist. It is only used from the UI goroutine.
type Catalog struct {
	inspect   Inspector
	tracks    []*Track
	byPath    map[string]*Track
	filtered  []*Track
	filtering bool
}

// New returns an empty catalog reading headers with p.
func New(p Inspector) *Catalog {
	return &Catalog{inspect: p, byPath: make(map[string]*Track)}
}

// Add appends path if it has a supported extension, is not already present
// and its header can be read.
func (c *Catalog) Add(path string) bool {
	entry := logrus.WithField("path", path)
	if !media.IsSupportedPath(path) {
		entry.Debug("skip: unsupported extension")
		return false
	}
	if _, dup := c.byPath[path]; dup {
		entry.Debug("skip: already in catalog")
		return false
	}
	info, err := c.inspect.Inspect(path)
	if err != nil {
		entry.WithError(err).Debug("skip: unreadable header")
		return false
	}
	t := newTrack(path, info.Duration())
	c.tracks = append(c.tracks, t)
	c.byPath[path] = t
	return true
}

// AddPaths adds every path in order and returns how many were accepted.
func (c *Catalog) AddPaths(paths []string) int {
	n := 0
	for _, p := range paths {
		if c.Add(p) {
			n++
		}
	}
	return n
}

// Remove deletes the track at unfiltered index i. It does nothing while a
// filter is active, for an out-of-range index, or for a track on a deck.
func (c *Catalog) Remove(i int) bool {
	if c.filtering || i < 0 || i >= len(c.tracks) {
		return false
	}
	t := c.tracks[i]
	if t.Assigned() {
		logrus.WithFields(logrus.Fields{"path": t.Path, "slot": t.SlotID()}).Debug("skip remove: track is on a deck")
		return false
	}
	c.tracks = append(c.tracks[:i], c.tracks[i+1:]...)
	delete(c.byPath, t.Path)
	return true
}

// Filter rebuilds the filtered view from tracks whose file name contains
// keyword and returns the number of matches.
func (c *Catalog) Filter(keyword string) int {
	c.filtered = c.filtered[:0]
	for _, t := range c.tracks {
		if t.Matches(keyword) {
			c.filtered = append(c.filtered, t)
		}
	}
	c.filtering = true
	return len(c.filtered)
}

// ClearFilter returns to the unfiltered view.
func (c *Catalog) ClearFilter() {
	c.filtering = false
	c.filtered = c.filtered[:0]
}

// Filtering reports whether the filtered view is active.
func (c *Catalog) Filtering() bool { return c.filtering }

func (c *Catalog) view() []*Track {
	if c.filtering {
		return c.filtered
	}
	return c.tracks
}

// Count returns the number of visible tracks.
func (c *Catalog) Count() int { return len(c.view()) }

// Len returns the number of tracks regardless of the filter.
func (c *Catalog) Len() int { return len(c.tracks) }

// Get returns the visible track at i, or nil.
func (c *Catalog) Get(i int) *Track {
	v := c.view()
	if i < 0 || i >= len(v) {
		return nil
	}
	return v[i]
}

// IndexOf returns the unfiltered index of the track at visible index i, or -1.
func (c *Catalog) IndexOf(i int) int {
	t := c.Get(i)
	if t == nil {
		return -1
	}
	for j, u := range c.tracks {
		if u == t {
			return j
		}
	}
	return -1
}

// Paths returns every track path in catalog order.
func (c *Catalog) Paths() []string {
	out := make([]string, len(c.tracks))
	for i, t := range c.tracks {
		out[i] = t.Path
	}
	return out
}

// Load adds the saved paths from s and returns how many were restored.
func (c *Catalog) Load(s Store) (int, error) {
	paths, found, err := s.Load()
	if err != nil {
		return 0, fmt.Errorf("load catalog: %w", err)
	}
	if !found {
		return 0, nil
	}
	return c.AddPaths(paths), nil
}

// Save writes the current paths to s.
func (c *Catalog) Save(s Store) error {
	if err := s.Save(c.Paths()); err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}
	return nil
}
