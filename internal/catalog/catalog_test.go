package catalog

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olivier-w/decks/internal/decoder"
)

// stubInspector reports a 2 minute clip for any path not marked broken.
type stubInspector struct {
	broken map[string]bool
	calls  int
}

func (s *stubInspector) Inspect(path string) (decoder.Info, error) {
	s.calls++
	if s.broken[path] {
		return decoder.Info{}, errors.New("bad header")
	}
	return decoder.Info{SampleRate: 44100, Channels: 2, Frames: 120 * 44100}, nil
}

type memStore struct {
	paths []string
	found bool
	err   error
}

func (m *memStore) Load() ([]string, bool, error) { return m.paths, m.found, m.err }
func (m *memStore) Save(p []string) error {
	if m.err != nil {
		return m.err
	}
	m.paths = append([]string(nil), p...)
	m.found = true
	return nil
}

func TestAddFilterClearScenario(t *testing.T) {
	c := New(&stubInspector{})
	assert.Equal(t, 0, c.Count())

	assert.True(t, c.Add("song.mp3"))
	assert.Equal(t, 1, c.Count())
	assert.False(t, c.Add("song.mp3"))
	assert.Equal(t, 1, c.Count())

	assert.Equal(t, 0, c.Filter("zzz"))
	assert.Equal(t, 0, c.Count())
	c.ClearFilter()
	assert.Equal(t, 1, c.Count())
}

func TestAddRejects(t *testing.T) {
	p := &stubInspector{broken: map[string]bool{"broken.wav": true}}
	c := New(p)
	assert.False(t, c.Add("notes.txt"))
	assert.False(t, c.Add("broken.wav"))
	assert.Equal(t, 0, c.Count())
	assert.Equal(t, 1, p.calls, "unsupported files are not inspected")
}

func TestTrackFields(t *testing.T) {
	c := New(&stubInspector{})
	require.True(t, c.Add("/music/Deep Cut.FLAC"))
	tr := c.Get(0)
	require.NotNil(t, tr)
	assert.Equal(t, "Deep Cut.FLAC", tr.FileName())
	assert.Equal(t, "Deep Cut", tr.Title)
	assert.Equal(t, 2*time.Minute, tr.Duration)
	assert.False(t, tr.Assigned())
	assert.Equal(t, -1, tr.SlotID())
}

func TestFilterIsCaseInsensitiveAndRebuilt(t *testing.T) {
	c := New(&stubInspector{})
	c.AddPaths([]string{"a/Alpha.mp3", "b/beta.wav", "c/ALPHABET.ogg"})

	assert.Equal(t, 2, c.Filter("alpha"))
	assert.True(t, c.Filtering())
	assert.Equal(t, "c/ALPHABET.ogg", c.Get(1).Path)
	assert.Equal(t, 2, c.IndexOf(1))

	assert.Equal(t, 1, c.Filter("BETA"))
	assert.Equal(t, "b/beta.wav", c.Get(0).Path)
	assert.Nil(t, c.Get(1))

	// The directory is not part of the match.
	assert.Equal(t, 0, c.Filter("a/"))
	c.ClearFilter()
	assert.False(t, c.Filtering())
	assert.Equal(t, 3, c.Count())
}

func TestRemove(t *testing.T) {
	c := New(&stubInspector{})
	c.AddPaths([]string{"1.mp3", "2.mp3", "3.mp3"})

	c.Filter("2")
	assert.False(t, c.Remove(0), "remove is disabled while filtering")
	c.ClearFilter()
	assert.Equal(t, 3, c.Count())

	c.Get(0).Bind(4)
	assert.False(t, c.Remove(0), "a track on a deck cannot be removed")
	assert.Equal(t, 4, c.Get(0).Unbind())

	assert.True(t, c.Remove(1))
	assert.Equal(t, []string{"1.mp3", "3.mp3"}, c.Paths())
	assert.False(t, c.Remove(5))
	assert.True(t, c.Add("2.mp3"), "removed path can be added again")
}

func TestBindUnbind(t *testing.T) {
	tr := newTrack("x.wav", time.Second)
	tr.Bind(0)
	assert.True(t, tr.Assigned())
	assert.Equal(t, 0, tr.SlotID())
	assert.Equal(t, 0, tr.Unbind())
	assert.False(t, tr.Assigned())
	assert.Equal(t, -1, tr.Unbind())
}

func TestLoadSave(t *testing.T) {
	store := &memStore{}
	c := New(&stubInspector{})
	n, err := c.Load(store)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	c.AddPaths([]string{"x.mp3", "y.wav"})
	require.NoError(t, c.Save(store))

	d := New(&stubInspector{})
	n, err = d.Load(store)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"x.mp3", "y.wav"}, d.Paths())
	assert.Equal(t, 2*time.Minute, d.Get(1).Duration)

	store.err = errors.New("disk full")
	assert.ErrorIs(t, d.Save(store), store.err)
	_, err = d.Load(store)
	assert.ErrorIs(t, err, store.err)
}
