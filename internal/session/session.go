// Package session owns the catalog, the deck pool and the mix bus, and is the
// single entry point the UI drives. Every method runs on the UI goroutine.
package session

import (
	"errors"
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/olivier-w/decks/internal/catalog"
	"github.com/olivier-w/decks/internal/deck"
	"github.com/olivier-w/decks/internal/mixbus"
	"github.com/olivier-w/decks/internal/pool"
	"github.com/olivier-w/decks/internal/spectrum"
)

var (
	// ErrNoDeck is returned when every deck is in use.
	ErrNoDeck = errors.New("no deck available")
	// ErrLoadFailed is returned when a track cannot be decoded onto a deck.
	ErrLoadFailed = errors.New("load failed")
	// ErrNotOpen is returned for a slot with no track on it.
	ErrNotOpen = errors.New("deck not open")
	// ErrNoTrack is returned for an index outside the visible catalog.
	ErrNoTrack = errors.New("no such track")
)

// Decoder opens and inspects audio files.
type Decoder interface {
	deck.Decoder
	catalog.Inspector
}

// Options configures a Session.
type Options struct {
	Decks      int
	BlockSize  int
	SampleRate float64
	Decoder    Decoder
	Store      catalog.Store
	// EventBuffer is the capacity of the Events channel.
	EventBuffer int
}

// Session ties the playback core together.
type Session struct {
	cat       *catalog.Catalog
	pool      *pool.Pool
	bus       *mixbus.Bus
	analyzers []*spectrum.Analyzer
	tracks    []*catalog.Track
	open      []int
	store     catalog.Store
	events    chan Event
}

// New builds every deck up front and prepares the bus. It does not load the
// catalog; call LoadCatalog for that.
func New(opts Options) *Session {
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = 64
	}
	s := &Session{
		cat:    catalog.New(opts.Decoder),
		bus:    mixbus.New(opts.BlockSize, opts.SampleRate),
		store:  opts.Store,
		events: make(chan Event, opts.EventBuffer),
	}
	s.pool = pool.New(opts.Decks, func(id int) *deck.Chain {
		c := deck.New(id, opts.Decoder)
		c.Prepare(opts.BlockSize, opts.SampleRate)
		return c
	})
	s.analyzers = make([]*spectrum.Analyzer, s.pool.Size())
	s.tracks = make([]*catalog.Track, s.pool.Size())
	for i := range s.analyzers {
		s.analyzers[i] = spectrum.New()
	}
	return s
}

// Bus returns the mix bus the output device reads from.
func (s *Session) Bus() *mixbus.Bus { return s.bus }

// Catalog returns the playlist.
func (s *Session) Catalog() *catalog.Catalog { return s.cat }

// Events delivers state changes. Events are dropped when the buffer is full.
func (s *Session) Events() <-chan Event { return s.events }

func (s *Session) emit(e Event) {
	select {
	case s.events <- e:
	default:
		logrus.WithField("event", e.Kind.String()).Debug("event dropped")
	}
}

// LoadCatalog restores the saved playlist.
func (s *Session) LoadCatalog() (int, error) {
	if s.store == nil {
		return 0, nil
	}
	n, err := s.cat.Load(s.store)
	if n > 0 {
		s.emit(Event{Kind: CatalogChanged, Slot: -1})
	}
	return n, err
}

// Add appends paths to the catalog and returns how many were accepted.
func (s *Session) Add(paths ...string) int {
	n := s.cat.AddPaths(paths)
	if n > 0 {
		s.emit(Event{Kind: CatalogChanged, Slot: -1})
	}
	return n
}

// Remove deletes the track at unfiltered index i.
func (s *Session) Remove(i int) bool {
	if !s.cat.Remove(i) {
		return false
	}
	s.emit(Event{Kind: CatalogChanged, Slot: -1})
	return true
}

// Open loads the visible track at index onto a free deck and returns the
// deck's slot. A track that is already on a deck returns that slot.
func (s *Session) Open(index int) (int, error) {
	t := s.cat.Get(index)
	if t == nil {
		return -1, fmt.Errorf("open %d: %w", index, ErrNoTrack)
	}
	if t.Assigned() {
		return t.SlotID(), nil
	}

	entry := logrus.WithField("path", t.Path)
	slot, ok := s.pool.Acquire()
	if !ok {
		entry.Warn("no deck available")
		return -1, fmt.Errorf("open %s: %w", t.FileName(), ErrNoDeck)
	}
	c := s.pool.Slot(slot)
	if !c.Load(t.Path) {
		if err := s.pool.Release(slot); err != nil {
			entry.WithError(err).Error("release after failed load")
		}
		return -1, fmt.Errorf("open %s: %w", t.FileName(), ErrLoadFailed)
	}
	c.SetPosition(0)

	t.Bind(slot)
	s.tracks[slot] = t
	a := s.analyzers[slot]
	a.Reset()
	c.AttachAnalyzer(a)
	s.bus.AddSource(c)
	s.open = append(s.open, slot)

	entry.WithField("slot", slot).Info("deck opened")
	s.emit(Event{Kind: DeckOpened, Slot: slot, Path: t.Path})
	return slot, nil
}

// Close unloads the deck at slot and returns it to the pool.
func (s *Session) Close(slot int) error {
	t := s.TrackFor(slot)
	if t == nil {
		return fmt.Errorf("close %d: %w", slot, ErrNotOpen)
	}
	c := s.pool.Slot(slot)
	s.bus.RemoveSource(c)
	c.Rewind()
	c.DetachAnalyzer()
	t.Unbind()
	s.tracks[slot] = nil
	s.open = slices.DeleteFunc(s.open, func(id int) bool { return id == slot })
	if err := s.pool.Release(slot); err != nil {
		return fmt.Errorf("close %d: %w", slot, err)
	}

	logrus.WithFields(logrus.Fields{"slot": slot, "path": t.Path}).Info("deck closed")
	s.emit(Event{Kind: DeckClosed, Slot: slot, Path: t.Path})
	return nil
}

// Deck returns the chain at slot if a track is open on it.
func (s *Session) Deck(slot int) (*deck.Chain, bool) {
	if s.TrackFor(slot) == nil {
		return nil, false
	}
	return s.pool.Slot(slot), true
}

// Decks returns the open slots in the order they were opened.
func (s *Session) Decks() []int {
	return slices.Clone(s.open)
}

// TrackFor returns the track open on slot, or nil.
func (s *Session) TrackFor(slot int) *catalog.Track {
	if slot < 0 || slot >= len(s.tracks) {
		return nil
	}
	return s.tracks[slot]
}

// Free returns the number of unused decks.
func (s *Session) Free() int { return s.pool.Available() }

// Shutdown closes every deck and saves the catalog.
func (s *Session) Shutdown() error {
	for _, slot := range s.Decks() {
		if err := s.Close(slot); err != nil {
			logrus.WithError(err).WithField("slot", slot).Warn("close on shutdown")
		}
	}
	if s.store == nil {
		return nil
	}
	return s.cat.Save(s.store)
}
