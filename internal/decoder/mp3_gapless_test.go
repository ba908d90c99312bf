package decoder

import (
	"bytes"
	"testing"
)

// lameFrame builds the start of an MPEG-1 layer III stereo file whose first
// frame carries an Info tag with the given encoder delay and padding.
func lameFrame(id3 bool, delay, padding int) []byte {
	var b bytes.Buffer
	if id3 {
		// 10-byte header plus a 20-byte synchsafe body.
		b.Write([]byte{'I', 'D', '3', 4, 0, 0, 0, 0, 0, 20})
		b.Write(make([]byte, 20))
	}
	// sync, MPEG-1, layer III, no CRC, 128 kbps, 44.1 kHz, stereo.
	b.Write([]byte{0xff, 0xfb, 0x90, 0x00})
	b.Write(make([]byte, 32))
	b.WriteString("Info")
	b.Write([]byte{0, 0, 0, 0})
	tag := make([]byte, 24)
	tag[21] = byte(delay >> 4)
	tag[22] = byte(delay&0x0f)<<4 | byte(padding>>8)
	tag[23] = byte(padding)
	b.Write(tag)
	b.Write(make([]byte, 64))
	return b.Bytes()
}

func TestReadGaplessTrim(t *testing.T) {
	for _, id3 := range []bool{false, true} {
		r := bytes.NewReader(lameFrame(id3, 576, 1600))
		trim, err := readGaplessTrim(r)
		if err != nil {
			t.Fatalf("readGaplessTrim(id3=%v) error = %v", id3, err)
		}
		if trim.head != 576+529 || trim.tail != 1600-529 {
			t.Fatalf("readGaplessTrim(id3=%v) = %+v, want {1105 1071}", id3, trim)
		}
		if pos, _ := r.Seek(0, 1); pos != 0 {
			t.Fatalf("reader left at %d, want 0", pos)
		}
	}
}

func TestReadGaplessTrimWithoutTag(t *testing.T) {
	data := lameFrame(false, 0, 0)
	trim, err := readGaplessTrim(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("readGaplessTrim() error = %v", err)
	}
	if trim != (gaplessTrim{}) {
		t.Fatalf("trim = %+v, want zero", trim)
	}

	trim, err = readGaplessTrim(bytes.NewReader([]byte("not an mp3 file at all")))
	if err != nil || trim != (gaplessTrim{}) {
		t.Fatalf("garbage input = (%+v, %v), want zero trim", trim, err)
	}
}

func TestGaplessTrimApply(t *testing.T) {
	samples := []float32{0, 0, 1, 1, 2, 2, 3, 3, 4, 4}
	got := gaplessTrim{head: 1, tail: 2}.apply(samples)
	if len(got) != 4 || got[0] != 1 || got[3] != 2 {
		t.Fatalf("apply() = %v", got)
	}
	if got := (gaplessTrim{head: 3, tail: 3}).apply(samples); len(got) != len(samples) {
		t.Fatalf("oversized trim should keep every frame, got %d samples", len(got))
	}
}

func TestSideInfoLen(t *testing.T) {
	cases := []struct {
		hdr  []byte
		want int
	}{
		{[]byte{0xff, 0xfb, 0x90, 0x00}, 32}, // MPEG-1 stereo
		{[]byte{0xff, 0xfb, 0x90, 0xc0}, 17}, // MPEG-1 mono
		{[]byte{0xff, 0xf3, 0x90, 0x00}, 17}, // MPEG-2 stereo
		{[]byte{0xff, 0xf3, 0x90, 0xc0}, 9},  // MPEG-2 mono
		{[]byte{0xff, 0xfa, 0x90, 0x00}, 34}, // MPEG-1 stereo with CRC
	}
	for _, tc := range cases {
		got, err := sideInfoLen(tc.hdr)
		if err != nil || got != tc.want {
			t.Fatalf("sideInfoLen(%x) = (%d, %v), want %d", tc.hdr, got, err, tc.want)
		}
	}
	if _, err := sideInfoLen([]byte{0x00, 0x00, 0x00, 0x00}); err == nil {
		t.Fatal("expected an error for a missing sync word")
	}
}
