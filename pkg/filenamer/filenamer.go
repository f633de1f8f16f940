// Package filenamer turns image titles into safe, non-colliding file names.
package filenamer

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ShortTitleLength is the number of characters kept by ShortTitle.
const ShortTitleLength = 50

// MaxNameBytes bounds a file name produced by Truncate. It stays below the
// common 255 byte limit with room for a " (i)" suffix and a ".tmp" extension.
const MaxNameBytes = 200

var disallowed = regexp.MustCompile(`[^a-zA-Z0-9 \.-]`)

// Clean strips every character other than ASCII letters, digits, space,
// period and hyphen.
func Clean(name string) string {
	return disallowed.ReplaceAllString(name, "")
}

// UniquePath returns path if nothing exists there yet, otherwise the first
// "<dir>/<stem> (i)<ext>" for i = 1, 2, ... that is free.
//
// The check is not atomic with the later write; two writers racing on the
// same name can still collide.
func UniquePath(path string) string {
	return UniquePathFunc(path, exists)
}

// UniquePathFunc is UniquePath with a caller supplied test for taken paths.
func UniquePathFunc(path string, taken func(string) bool) string {
	if path == "" {
		return ""
	}

	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)
	dir := filepath.Dir(path)

	result := path
	for i := 1; taken(result); i++ {
		result = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
	}
	return result
}

// Exists reports whether anything is present at path.
func Exists(path string) bool {
	return exists(path)
}

// Truncate shortens name to at most MaxNameBytes bytes, keeping its
// extension and never splitting a UTF-8 sequence.
func Truncate(name string) string {
	if len(name) <= MaxNameBytes {
		return name
	}

	ext := filepath.Ext(name)
	if len(ext) > MaxNameBytes/4 {
		ext = ""
	}
	stem := strings.TrimSuffix(name, ext)
	limit := MaxNameBytes - len(ext)
	for limit > 0 && !utf8.RuneStart(stem[limit]) {
		limit--
	}
	return strings.TrimRight(stem[:limit], " ") + ext
}

// ShortTitle returns at most the first ShortTitleLength characters of title.
func ShortTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= ShortTitleLength {
		return title
	}
	return string(runes[:ShortTitleLength])
}

// exists only reports paths that stat successfully. Any other error leaves
// the name free, so the failure surfaces on write.
func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
