// Package output plays the mix bus on the system audio device through oto.
package output

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/sirupsen/logrus"
)

// ChannelCount is fixed: every deck renders stereo.
const ChannelCount = 2

var (
	globalOtoCtx *oto.Context
	otoOnce      sync.Once
	otoInitErr   error
	otoRate      int
)

// contextOptions describes the float32 stereo stream the bus produces.
func contextOptions(rate int, buffer time.Duration) *oto.NewContextOptions {
	return &oto.NewContextOptions{
		SampleRate:   rate,
		ChannelCount: ChannelCount,
		Format:       oto.FormatFloat32LE,
		BufferSize:   buffer,
	}
}

// oto allows one context per process.
func initOto(rate int, buffer time.Duration) (*oto.Context, error) {
	otoOnce.Do(func() {
		var ready chan struct{}
		globalOtoCtx, ready, otoInitErr = oto.NewContext(contextOptions(rate, buffer))
		if otoInitErr == nil {
			<-ready
			otoRate = rate
		}
	})
	if otoInitErr == nil && otoRate != rate {
		return nil, fmt.Errorf("audio context already running at %d Hz", otoRate)
	}
	return globalOtoCtx, otoInitErr
}

// Device is a running output stream.
type Device struct {
	ctx    *oto.Context
	player *oto.Player
	mu     sync.Mutex
	closed bool
}

// Open starts pulling from src at rate. src is read on oto's audio
// goroutine and must not block.
func Open(src io.Reader, rate int, buffer time.Duration) (*Device, error) {
	ctx, err := initOto(rate, buffer)
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	p := ctx.NewPlayer(src)
	p.Play()
	logrus.WithFields(logrus.Fields{"rate": rate, "buffer": buffer}).Info("audio output started")
	return &Device{ctx: ctx, player: p}, nil
}

// Suspend pauses the hardware stream.
func (d *Device) Suspend() error { return d.ctx.Suspend() }

// Resume restarts a suspended stream.
func (d *Device) Resume() error { return d.ctx.Resume() }

// Err reports an asynchronous device error, if any.
func (d *Device) Err() error { return d.ctx.Err() }

// Close stops the player. It is safe to call more than once.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	d.player.Pause()
	return d.player.Close()
}
