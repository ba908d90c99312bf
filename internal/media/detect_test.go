package media

import (
	"strings"
	"testing"
)

func TestIsSupportedExtIsCaseInsensitive(t *testing.T) {
	for _, ext := range []string{".mp3", ".WAV", ".Flac", ".ogg"} {
		if !IsSupportedExt(ext) {
			t.Fatalf("expected %s to be supported", ext)
		}
	}
}

func TestIsSupportedExtRejectsUnknown(t *testing.T) {
	for _, ext := range []string{".aac", ".txt", "", "mp3"} {
		if IsSupportedExt(ext) {
			t.Fatalf("expected %q to be rejected", ext)
		}
	}
}

func TestIsSupportedPathUsesExtension(t *testing.T) {
	if !IsSupportedPath("/music/set/intro.MP3") {
		t.Fatal("expected .MP3 path to be supported")
	}
	if IsSupportedPath("/music/set/notes.txt") {
		t.Fatal("expected .txt path to be rejected")
	}
}

func TestSupportedExtsListMatchesTable(t *testing.T) {
	list := SupportedExtsList()
	for _, ext := range audioExts {
		if !strings.Contains(list, ext) {
			t.Fatalf("expected supported ext list to include %s, got %q", ext, list)
		}
	}
}

func TestIsPlaylistExt(t *testing.T) {
	if !IsPlaylistExt(".M3U8") || !IsPlaylistExt(".pls") {
		t.Fatal("expected playlist extensions to be recognized")
	}
	if IsPlaylistExt(".mp3") {
		t.Fatal("audio extension reported as playlist")
	}
}
