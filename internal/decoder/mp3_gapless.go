package decoder

import (
	"encoding/binary"
	"errors"
	"io"
)

// Samples of delay introduced by the layer III synthesis filterbank on top of
// whatever the encoder recorded.
const mp3SynthesisDelay = 529

// gaplessTrim is the number of frames to drop from each end of a decoded MP3.
type gaplessTrim struct {
	head, tail int
}

func (g gaplessTrim) apply(samples []float32) []float32 {
	frames := len(samples) / Channels
	if g.head+g.tail >= frames {
		return samples
	}
	return samples[g.head*Channels : (frames-g.tail)*Channels]
}

// readGaplessTrim looks for a LAME "Xing"/"Info" tag in the first audio frame
// and returns the encoder delay and padding it records. A file without the tag
// yields a zero trim. The reader's position is restored on return.
func readGaplessTrim(r io.ReadSeeker) (gaplessTrim, error) {
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return gaplessTrim{}, err
	}
	defer r.Seek(pos, io.SeekStart) //nolint:errcheck

	start, err := audioStart(r)
	if err != nil {
		return gaplessTrim{}, nil
	}
	if _, err := r.Seek(start, io.SeekStart); err != nil {
		return gaplessTrim{}, err
	}

	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return gaplessTrim{}, nil
	}
	skip, err := sideInfoLen(hdr[:])
	if err != nil {
		return gaplessTrim{}, nil
	}
	if _, err := r.Seek(start+4+int64(skip), io.SeekStart); err != nil {
		return gaplessTrim{}, err
	}

	buf := make([]byte, 256)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return gaplessTrim{}, err
	}
	trim, _ := parseLAMETag(buf[:n])
	return trim, nil
}

// audioStart returns the byte offset past any leading ID3v2 tag.
func audioStart(r io.ReadSeeker) (int64, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	var tag [10]byte
	if _, err := io.ReadFull(r, tag[:]); err != nil {
		return 0, err
	}
	if string(tag[:3]) != "ID3" {
		return 0, nil
	}
	size := int64(synchsafe(tag[6:10])) + 10
	if tag[5]&0x10 != 0 {
		size += 10
	}
	return size, nil
}

func synchsafe(b []byte) uint32 {
	return uint32(b[0]&0x7f)<<21 | uint32(b[1]&0x7f)<<14 | uint32(b[2]&0x7f)<<7 | uint32(b[3]&0x7f)
}

var errNotLayer3 = errors.New("not an MPEG layer III frame")

// sideInfoLen returns how many bytes follow the 4-byte frame header before
// the Xing tag: the optional CRC plus the side information block.
func sideInfoLen(b []byte) (int, error) {
	h := binary.BigEndian.Uint32(b)
	if h>>21 != 0x7ff {
		return 0, errNotLayer3
	}
	version := (h >> 19) & 0x3
	layer := (h >> 17) & 0x3
	if layer != 0x1 || version == 0x1 {
		return 0, errNotLayer3
	}

	mpeg1 := version == 0x3
	mono := (h>>6)&0x3 == 0x3
	n := 17
	switch {
	case mpeg1 && !mono:
		n = 32
	case !mpeg1 && mono:
		n = 9
	}
	if (h>>16)&0x1 == 0 {
		n += 2
	}
	return n, nil
}

func parseLAMETag(b []byte) (gaplessTrim, bool) {
	if len(b) < 8 {
		return gaplessTrim{}, false
	}
	if id := string(b[:4]); id != "Xing" && id != "Info" {
		return gaplessTrim{}, false
	}

	flags := binary.BigEndian.Uint32(b[4:8])
	off := 8
	for _, f := range []struct {
		bit  uint32
		size int
	}{{0x1, 4}, {0x2, 4}, {0x4, 100}, {0x8, 4}} {
		if flags&f.bit != 0 {
			off += f.size
		}
	}
	if len(b) < off+24 {
		return gaplessTrim{}, false
	}

	dp := b[off+21 : off+24]
	delay := int(dp[0])<<4 | int(dp[1]>>4)
	padding := int(dp[1]&0x0f)<<8 | int(dp[2])
	if delay == 0 && padding == 0 {
		return gaplessTrim{}, false
	}
	return gaplessTrim{
		head: delay + mp3SynthesisDelay,
		tail: max(padding-mp3SynthesisDelay, 0),
	}, true
}
