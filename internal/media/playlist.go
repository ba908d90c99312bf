package media

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ParseLocalPlaylist parses a local .m3u/.m3u8/.pls file into local paths.
// Relative entries are resolved against the playlist file directory; remote
// entries are skipped since decks only play local files.
func ParseLocalPlaylist(path string) ([]string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !IsPlaylistExt(ext) {
		return nil, fmt.Errorf("unsupported playlist format %s", ext)
	}

	absPlaylistPath, err := filepath.Abs(path)
	if err != nil {
		absPlaylistPath = path
	}

	data, err := os.ReadFile(absPlaylistPath)
	if err != nil {
		return nil, fmt.Errorf("reading playlist: %w", err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("playlist is not valid UTF-8")
	}

	baseDir := filepath.Dir(absPlaylistPath)
	scanner := bufio.NewScanner(strings.NewReader(strings.TrimPrefix(string(data), "\uFEFF")))

	switch ext {
	case ".pls":
		return parsePLS(scanner, baseDir), nil
	default:
		return parseM3U(scanner, baseDir), nil
	}
}

// ExpandPaths turns command-line arguments into candidate track paths:
// playlists are expanded, directories are scanned one level deep for
// supported files, and everything else is passed through for the catalog
// to accept or reject.
func ExpandPaths(args []string) []string {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		if IsPlaylistExt(filepath.Ext(arg)) {
			entries, err := ParseLocalPlaylist(arg)
			if err == nil {
				out = append(out, entries...)
			}
			continue
		}
		info, err := os.Stat(arg)
		if err == nil && info.IsDir() {
			out = append(out, scanDir(arg)...)
			continue
		}
		if abs, err := filepath.Abs(arg); err == nil {
			arg = abs
		}
		out = append(out, arg)
	}
	return out
}

func scanDir(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !IsSupportedExt(filepath.Ext(e.Name())) {
			continue
		}
		p := filepath.Join(dir, e.Name())
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		files = append(files, p)
	}
	return files
}

func parseM3U(scanner *bufio.Scanner, baseDir string) []string {
	entries := make([]string, 0)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || isRemote(line) {
			continue
		}
		entries = append(entries, resolvePlaylistEntryPath(line, baseDir))
	}
	return entries
}

func parsePLS(scanner *bufio.Scanner, baseDir string) []string {
	entries := make([]string, 0)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		eq := strings.Index(line, "=")
		if eq <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		val := strings.TrimSpace(line[eq+1:])
		if val == "" || !isPLSFileKey(key) || isRemote(val) {
			continue
		}

		entries = append(entries, resolvePlaylistEntryPath(val, baseDir))
	}
	return entries
}

func isPLSFileKey(key string) bool {
	if len(key) < len("File") || !strings.EqualFold(key[:len("File")], "File") {
		return false
	}
	rest := key[len("File"):]
	if rest == "" {
		return false
	}
	for i := 0; i < len(rest); i++ {
		if rest[i] < '0' || rest[i] > '9' {
			return false
		}
	}
	return true
}

func isRemote(entry string) bool {
	entry = strings.Trim(entry, "\"")
	return strings.HasPrefix(entry, "http://") || strings.HasPrefix(entry, "https://")
}

func resolvePlaylistEntryPath(raw, baseDir string) string {
	p := filepath.Clean(strings.Trim(raw, "\""))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(baseDir, p))
}
