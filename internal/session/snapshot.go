package session

import "slices"

// DeckState is a copy of one open deck's state.
type DeckState struct {
	Slot     int       `json:"slot"`
	Path     string    `json:"path"`
	Title    string    `json:"title"`
	Position float64   `json:"position"`
	Duration float64   `json:"duration"`
	Relative float64   `json:"relative"`
	Gain     float64   `json:"gain"`
	Speed    float64   `json:"speed"`
	Low      float64   `json:"low"`
	High     float64   `json:"high"`
	Playing  bool      `json:"playing"`
	Spectrum []float64 `json:"spectrum"`
}

// Snapshot is the state of every open deck at one poll.
type Snapshot struct {
	Decks []DeckState `json:"decks"`
	Free  int         `json:"free"`
}

// Poll refreshes every open deck's spectrum and returns a copy of the deck
// state. It is meant to run on a fixed-rate UI timer.
func (s *Session) Poll() Snapshot {
	snap := Snapshot{Decks: make([]DeckState, 0, len(s.open)), Free: s.pool.Available()}
	for _, slot := range s.open {
		c := s.pool.Slot(slot)
		t := s.tracks[slot]
		a := s.analyzers[slot]
		a.Update()
		low, high := c.Cutoff()
		snap.Decks = append(snap.Decks, DeckState{
			Slot:     slot,
			Path:     t.Path,
			Title:    t.Title,
			Position: c.Position(),
			Duration: c.Duration(),
			Relative: c.PositionRelative(),
			Gain:     c.Gain(),
			Speed:    c.Speed(),
			Low:      low,
			High:     high,
			Playing:  c.Playing(),
			Spectrum: slices.Clone(a.Curve()),
		})
	}
	return snap
}

// Deck returns the state for slot and whether it is in the snapshot.
func (s Snapshot) Deck(slot int) (DeckState, bool) {
	for _, d := range s.Decks {
		if d.Slot == slot {
			return d, true
		}
	}
	return DeckState{}, false
}
