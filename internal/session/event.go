package session

// EventKind identifies a session state change.
type EventKind int

const (
	DeckOpened EventKind = iota
	DeckClosed
	CatalogChanged
)

func (k EventKind) String() string {
	switch k {
	case DeckOpened:
		return "deck_opened"
	case DeckClosed:
		return "deck_closed"
	case CatalogChanged:
		return "catalog_changed"
	}
	return "unknown"
}

// Event is sent on the Events channel. Slot is -1 for catalog events.
type Event struct {
	Kind EventKind
	Slot int
	Path string
}
