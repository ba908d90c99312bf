package decoder

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// --- MP3 decoder ---

// go-mp3 always yields 16-bit little-endian stereo.
const mp3FrameSize = 4

func decodeMP3(f *os.File) (*PCM, error) {
	trim, err := readGaplessTrim(f)
	if err != nil {
		return nil, err
	}
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, err
	}

	raw, err := io.ReadAll(dec)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}
	frames := len(raw) / mp3FrameSize
	samples := make([]float32, 0, frames*Channels)
	for i := 0; i < frames; i++ {
		off := i * mp3FrameSize
		l := int16(binary.LittleEndian.Uint16(raw[off:]))
		r := int16(binary.LittleEndian.Uint16(raw[off+2:]))
		samples = append(samples, float32(l)/32768, float32(r)/32768)
	}
	return &PCM{Samples: trim.apply(samples), Rate: dec.SampleRate()}, nil
}

func inspectMP3(f *os.File) (Info, error) {
	trim, err := readGaplessTrim(f)
	if err != nil {
		return Info{}, err
	}
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return Info{}, err
	}
	frames := dec.Length() / mp3FrameSize
	if cut := int64(trim.head + trim.tail); cut < frames {
		frames -= cut
	}
	return Info{
		SampleRate: dec.SampleRate(),
		Channels:   2,
		Frames:     frames,
	}, nil
}

// --- WAV decoder ---

func decodeWAV(f *os.File) (*PCM, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("reading WAV PCM data: %w", err)
	}
	return pcmFromIntBuffer(buf, int(dec.BitDepth))
}

// pcmFromIntBuffer normalizes integer PCM of the given bit depth. 8-bit WAV
// is unsigned and is re-centred before scaling.
func pcmFromIntBuffer(buf *audio.IntBuffer, bitDepth int) (*PCM, error) {
	if buf == nil || buf.Format == nil {
		return nil, fmt.Errorf("missing PCM format")
	}
	channels := buf.Format.NumChannels
	if channels < 1 {
		return nil, fmt.Errorf("unsupported channel count: %d", channels)
	}
	if bitDepth != 8 && bitDepth != 16 && bitDepth != 24 && bitDepth != 32 {
		return nil, fmt.Errorf("unsupported bit depth: %d", bitDepth)
	}

	scale := float32(int64(1) << (bitDepth - 1))
	frames := len(buf.Data) / channels
	samples := make([]float32, 0, frames*Channels)
	frame := make([]float32, channels)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			v := buf.Data[i*channels+ch]
			if bitDepth == 8 {
				v -= 128
			}
			frame[ch] = clampUnit(float32(v) / scale)
		}
		samples = appendStereo(samples, frame)
	}
	return &PCM{Samples: samples, Rate: buf.Format.SampleRate}, nil
}

func inspectWAV(f *os.File) (Info, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return Info{}, fmt.Errorf("invalid WAV file")
	}
	// FwdToPCM positions the reader at the start of PCM data
	if err := dec.FwdToPCM(); err != nil {
		return Info{}, fmt.Errorf("reading WAV PCM data: %w", err)
	}
	frameSize := int64(dec.NumChans) * int64(dec.BitDepth) / 8
	if frameSize <= 0 {
		return Info{}, fmt.Errorf("invalid WAV frame size")
	}
	return Info{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		Frames:     dec.PCMLen() / frameSize,
	}, nil
}

// --- FLAC decoder ---

func decodeFLAC(f *os.File) (*PCM, error) {
	stream, err := flac.New(f)
	if err != nil {
		return nil, fmt.Errorf("decoding FLAC: %w", err)
	}

	info := stream.Info
	channels := int(info.NChannels)
	scale := float32(int64(1) << (info.BitsPerSample - 1))
	samples := make([]float32, 0, int(info.NSamples)*Channels)
	frame := make([]float32, channels)

	for {
		fr, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		n := int(fr.Subframes[0].NSamples)
		for i := 0; i < n; i++ {
			for ch := 0; ch < channels && ch < len(fr.Subframes); ch++ {
				frame[ch] = clampUnit(float32(fr.Subframes[ch].Samples[i]) / scale)
			}
			samples = appendStereo(samples, frame)
		}
	}
	return &PCM{Samples: samples, Rate: int(info.SampleRate)}, nil
}

func inspectFLAC(f *os.File) (Info, error) {
	stream, err := flac.New(f)
	if err != nil {
		return Info{}, fmt.Errorf("decoding FLAC: %w", err)
	}
	info := stream.Info
	return Info{
		SampleRate: int(info.SampleRate),
		Channels:   int(info.NChannels),
		Frames:     int64(info.NSamples),
	}, nil
}

// --- OGG Vorbis decoder ---

const oggChunk = 4096

func decodeOGG(f *os.File) (*PCM, error) {
	reader, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("decoding OGG: %w", err)
	}

	channels := reader.Channels()
	if channels < 1 {
		return nil, fmt.Errorf("unsupported channel count: %d", channels)
	}
	samples := make([]float32, 0, int(reader.Length())*Channels)
	chunk := make([]float32, oggChunk*channels)

	for {
		n, err := reader.Read(chunk)
		for i := 0; i+channels <= n; i += channels {
			samples = appendStereo(samples, chunk[i:i+channels])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if n == 0 {
			break
		}
	}
	for i := range samples {
		samples[i] = clampUnit(samples[i])
	}
	return &PCM{Samples: samples, Rate: reader.SampleRate()}, nil
}

func inspectOGG(f *os.File) (Info, error) {
	reader, err := oggvorbis.NewReader(f)
	if err != nil {
		return Info{}, fmt.Errorf("decoding OGG: %w", err)
	}
	return Info{
		SampleRate: reader.SampleRate(),
		Channels:   reader.Channels(),
		Frames:     reader.Length(),
	}, nil
}
