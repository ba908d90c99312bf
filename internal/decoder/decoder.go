// Package decoder turns local audio files into in-memory stereo PCM.
//
// Decks never decode in the audio callback: a whole file is decoded when it
// is loaded onto a deck, and the callback only copies frames out of memory.
package decoder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/olivier-w/decks/internal/media"
)

// Channels is the channel layout every decoded clip is normalized to.
const Channels = 2

// ErrUnsupported is returned for files whose extension has no decoder.
var ErrUnsupported = errors.New("unsupported format")

// PCM is a decoded clip: interleaved stereo float32 samples in [-1, 1].
type PCM struct {
	Samples []float32
	Rate    int
}

// Frames returns the number of stereo frames in the clip.
func (p *PCM) Frames() int64 {
	if p == nil {
		return 0
	}
	return int64(len(p.Samples) / Channels)
}

// Seconds returns the clip length in seconds.
func (p *PCM) Seconds() float64 {
	if p == nil || p.Rate <= 0 {
		return 0
	}
	return float64(p.Frames()) / float64(p.Rate)
}

// Info describes a file without decoding its samples.
type Info struct {
	SampleRate int
	Channels   int
	Frames     int64
}

// Duration returns the total playing time described by the header.
func (i Info) Duration() time.Duration {
	if i.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(i.Frames) / float64(i.SampleRate) * float64(time.Second))
}

// Decoder decodes the formats listed by media.SupportedExtsList.
type Decoder struct{}

// Supports reports whether ext has a decoder.
func (Decoder) Supports(ext string) bool {
	return media.IsSupportedExt(ext)
}

// Open decodes the whole file at path.
func (Decoder) Open(path string) (*PCM, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pcm *PCM
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp3":
		pcm, err = decodeMP3(f)
	case ".wav":
		pcm, err = decodeWAV(f)
	case ".flac":
		pcm, err = decodeFLAC(f)
	case ".ogg":
		pcm, err = decodeOGG(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	if pcm.Rate <= 0 {
		return nil, fmt.Errorf("decoding %s: invalid sample rate %d", filepath.Base(path), pcm.Rate)
	}
	return pcm, nil
}

// Inspect reads only the header of the file at path.
func (Decoder) Inspect(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()

	var info Info
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp3":
		info, err = inspectMP3(f)
	case ".wav":
		info, err = inspectWAV(f)
	case ".flac":
		info, err = inspectFLAC(f)
	case ".ogg":
		info, err = inspectOGG(f)
	default:
		return Info{}, fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}
	if err != nil {
		return Info{}, fmt.Errorf("reading header of %s: %w", filepath.Base(path), err)
	}
	return info, nil
}

// appendStereo appends one frame of n-channel samples as a stereo frame.
// Mono is duplicated; channels past the second are dropped.
func appendStereo(dst []float32, frame []float32) []float32 {
	switch len(frame) {
	case 0:
		return append(dst, 0, 0)
	case 1:
		return append(dst, frame[0], frame[0])
	default:
		return append(dst, frame[0], frame[1])
	}
}

func clampUnit(v float32) float32 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
