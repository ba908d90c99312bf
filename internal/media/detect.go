package media

import (
	"path/filepath"
	"slices"
	"strings"
)

// Extensions the decoder package can open, in display order.
var audioExts = []string{".mp3", ".wav", ".flac", ".ogg"}

var playlistExts = []string{".m3u", ".m3u8", ".pls"}

// IsSupportedExt reports whether ext (with its dot, any case) is a decodable
// audio format.
func IsSupportedExt(ext string) bool {
	return slices.Contains(audioExts, strings.ToLower(ext))
}

// IsSupportedPath reports whether path carries a decodable audio extension.
func IsSupportedPath(path string) bool {
	return IsSupportedExt(filepath.Ext(path))
}

// IsPlaylistExt reports whether ext is a playlist format ExpandPaths reads.
func IsPlaylistExt(ext string) bool {
	return slices.Contains(playlistExts, strings.ToLower(ext))
}

// SupportedExtsList returns the decodable formats as a comma-separated list.
func SupportedExtsList() string {
	return strings.Join(audioExts, ", ")
}
