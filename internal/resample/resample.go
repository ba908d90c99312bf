// Package resample converts decoded clips to the output device rate.
package resample

import (
	"fmt"

	resampler "github.com/tphakala/go-audio-resampler"

	"github.com/olivier-w/decks/internal/decoder"
)

// Quality is the preset used for load-time conversion. Loading happens off
// the audio path, so a music-grade preset is affordable.
const Quality = resampler.QualityMedium

// ToRate returns pcm converted to rate. The input is returned unchanged when
// the rates already match.
func ToRate(pcm *decoder.PCM, rate int) (*decoder.PCM, error) {
	if pcm == nil {
		return nil, fmt.Errorf("nil clip")
	}
	if rate <= 0 {
		return nil, fmt.Errorf("invalid target rate: %d", rate)
	}
	if pcm.Rate == rate || pcm.Frames() == 0 {
		return &decoder.PCM{Samples: pcm.Samples, Rate: rate}, nil
	}

	left, right := deinterleave(pcm.Samples)
	outL, err := convert(left, pcm.Rate, rate)
	if err != nil {
		return nil, fmt.Errorf("resampling left channel: %w", err)
	}
	outR, err := convert(right, pcm.Rate, rate)
	if err != nil {
		return nil, fmt.Errorf("resampling right channel: %w", err)
	}

	n := min(len(outL), len(outR))
	samples := make([]float32, n*decoder.Channels)
	for i := 0; i < n; i++ {
		samples[i*2] = clamp(outL[i])
		samples[i*2+1] = clamp(outR[i])
	}
	return &decoder.PCM{Samples: samples, Rate: rate}, nil
}

func convert(in []float64, from, to int) ([]float64, error) {
	eng, err := resampler.NewEngine(float64(from), float64(to), Quality)
	if err != nil {
		return nil, err
	}
	out, err := eng.Process(in)
	if err != nil {
		return nil, err
	}
	tail, err := eng.Flush()
	if err != nil {
		return nil, err
	}
	return append(out, tail...), nil
}

func deinterleave(samples []float32) (left, right []float64) {
	frames := len(samples) / decoder.Channels
	left = make([]float64, frames)
	right = make([]float64, frames)
	for i := 0; i < frames; i++ {
		left[i] = float64(samples[i*2])
		right[i] = float64(samples[i*2+1])
	}
	return left, right
}

func clamp(v float64) float32 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return float32(v)
}
