package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// illegalChars are the characters rejected by common filesystems
// (Windows being the strictest).
var illegalChars = strings.NewReplacer(
	"/", "",
	"\\", "",
	":", "",
	"*", "",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// Sanitize strips characters that are illegal in filenames on common
// filesystems. Everything else is preserved verbatim.
func Sanitize(name string) string {
	return illegalChars.Replace(name)
}

// UniquePath returns path unchanged if nothing exists there. Otherwise
// it probes "stem (0).ext", "stem (1).ext", ... in the same directory
// and returns the first path that does not exist, matching the Windows
// copy-naming convention.
//
// There is no atomic reservation: a file created at the returned path
// between this check and the caller's write wins the slot. Accepted as
// a benign race for a single-threaded caller per destination.
func UniquePath(path string) string {
	if !exists(path) {
		return path
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	suffix := filepath.Ext(base)
	stem := strings.TrimSuffix(base, suffix)

	for num := 0; ; num++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, num, suffix))
		if !exists(candidate) {
			return candidate
		}
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// FormatBytes renders a byte count as a human-readable size, e.g.
// 1536 -> "1.50 KB".
func FormatBytes(size int64) string {
	labels := []string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}
	fsize := float64(size)
	i := 0
	for fsize >= 1024 && i < len(labels)-1 {
		fsize /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%d B", size)
	}
	return fmt.Sprintf("%.2f %s", fsize, labels[i])
}

// ExpandPath expands a leading ~/ to the user's home directory, or
// returns the path unchanged.
func ExpandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(homeDir, path[2:]), nil
	}
	return path, nil
}
