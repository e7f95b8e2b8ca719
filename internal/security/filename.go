package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxFilenameBytes caps the length of a sanitized filename.
const MaxFilenameBytes = 255

// maxCollisionSuffix bounds the name_N.ext search.
const maxCollisionSuffix = 999

var (
	// ErrContainment indicates a resolved path that is not strictly inside
	// the download directory.
	ErrContainment = errors.New("path escapes download directory")

	// ErrNoFreeName indicates every collision suffix is already taken.
	ErrNoFreeName = errors.New("no free filename")
)

// SanitizeFilename reduces an untrusted offered filename to a single safe
// path component. It keeps the text after the last '/' or '\', drops control
// characters and the characters '/', '\' and ':', trims leading dots and
// surrounding whitespace, and caps the result at MaxFilenameBytes. ok is
// false when nothing usable remains.
func SanitizeFilename(raw string) (name string, ok bool) {
	s := norm.NFC.String(raw)
	if i := strings.LastIndexAny(s, `/\`); i >= 0 {
		s = s[i+1:]
	}

	s = strings.Map(func(r rune) rune {
		switch {
		case r == utf8.RuneError, r == ':', r == '/', r == '\\':
			return -1
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)

	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, ".")
	s = strings.TrimSpace(s)
	s = truncateUTF8(s, MaxFilenameBytes)

	if s == "" {
		return "", false
	}
	return s, true
}

func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// ResolveContainedPath joins name to baseDir, canonicalizes the result and
// verifies that baseDir is a strict ancestor of it. Symlinks are resolved for
// both the directory and, when it already exists, the target, so a planted
// link cannot redirect a write outside the directory.
func ResolveContainedPath(baseDir, name string) (string, error) {
	base, err := canonicalDir(baseDir)
	if err != nil {
		return "", err
	}

	candidate := filepath.Join(base, name)
	if !strictlyInside(base, candidate) {
		return "", fmt.Errorf("%w: %q", ErrContainment, name)
	}

	resolved, err := filepath.EvalSymlinks(candidate)
	switch {
	case err == nil:
		if !strictlyInside(base, resolved) {
			return "", fmt.Errorf("%w: %q links outside", ErrContainment, name)
		}
	case errors.Is(err, os.ErrNotExist):
		if info, lerr := os.Lstat(candidate); lerr == nil && info.Mode()&os.ModeSymlink != 0 {
			return "", fmt.Errorf("%w: %q is a dangling link", ErrContainment, name)
		}
	default:
		return "", fmt.Errorf("resolve %q: %w", name, err)
	}
	return candidate, nil
}

// UniquePath resolves name inside baseDir and, when taken reports the path
// as occupied, tries stem_1.ext through stem_999.ext. Every candidate passes
// through ResolveContainedPath. A nil taken checks the filesystem only.
func UniquePath(baseDir, name string, taken func(path string) bool) (string, error) {
	occupied := func(path string) bool {
		if taken != nil && taken(path) {
			return true
		}
		_, err := os.Lstat(path)
		return err == nil
	}

	path, err := ResolveContainedPath(baseDir, name)
	if err != nil {
		return "", err
	}
	if !occupied(path) {
		return path, nil
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if stem == "" {
		stem, ext = name, ""
	}
	for i := 1; i <= maxCollisionSuffix; i++ {
		candidate := truncateUTF8(fmt.Sprintf("%s_%d", stem, i), MaxFilenameBytes-len(ext)) + ext
		path, err := ResolveContainedPath(baseDir, candidate)
		if err != nil {
			return "", err
		}
		if !occupied(path) {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrNoFreeName, name)
}

func canonicalDir(dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", fmt.Errorf("download directory is empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve download dir: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return filepath.Clean(abs), nil
		}
		return "", fmt.Errorf("resolve download dir: %w", err)
	}
	return resolved, nil
}

func strictlyInside(base, path string) bool {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}
	if rel == "." || rel == ".." || filepath.IsAbs(rel) {
		return false
	}
	return !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
