package filenamer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Sunset over the bay", "Sunset over the bay"},
		{"what?!*<>|:\"/\\", "what"},
		{"my-file.v2.jpg", "my-file.v2.jpg"},
		{"[OC] Mountains (4000x3000)", "OC Mountains 4000x3000"},
		{"ünïcödé", "ncd"},
		{"te*st?.jpg", "test.jpg"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}

func TestUniquePathFree(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.jpg")
	assert.Equal(t, path, UniquePath(path))
}

func TestUniquePathSkipsTaken(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a (1).jpg"), []byte("x"), 0644))

	assert.Equal(t, filepath.Join(dir, "a (2).jpg"), UniquePath(filepath.Join(dir, "a.jpg")))
}

func TestUniquePathWithoutExtension(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme"), []byte("x"), 0644))

	assert.Equal(t, filepath.Join(dir, "readme (1)"), UniquePath(filepath.Join(dir, "readme")))
}

func TestUniquePathFunc(t *testing.T) {
	taken := map[string]bool{"x/a.png": true, filepath.Join("x", "a (1).png"): true}
	got := UniquePathFunc("x/a.png", func(p string) bool { return taken[p] })
	assert.Equal(t, filepath.Join("x", "a (2).png"), got)
}

func TestUniquePathEmpty(t *testing.T) {
	assert.Equal(t, "", UniquePath(""))
}

func TestUniquePathNameTooLong(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, strings.Repeat("a", 300)+".jpg")

	done := make(chan string, 1)
	go func() { done <- UniquePath(path) }()

	select {
	case got := <-done:
		assert.Equal(t, path, got, "a path that cannot be stat'ed is not taken")
	case <-time.After(3 * time.Second):
		t.Fatal("UniquePath did not return for an over-long name")
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short.jpg", Truncate("short.jpg"))

	got := Truncate(strings.Repeat("a", 300) + ".jpg")
	assert.Len(t, got, MaxNameBytes)
	assert.True(t, strings.HasSuffix(got, ".jpg"))

	multi := Truncate(strings.Repeat("é", 150) + ".png")
	assert.LessOrEqual(t, len(multi), MaxNameBytes)
	assert.True(t, utf8.ValidString(multi))
	assert.True(t, strings.HasSuffix(multi, ".png"))

	noExt := Truncate("x." + strings.Repeat("b", 300))
	assert.LessOrEqual(t, len(noExt), MaxNameBytes)
}

func TestShortTitle(t *testing.T) {
	assert.Equal(t, "short", ShortTitle("short"))

	long := strings.Repeat("x", 80)
	assert.Len(t, ShortTitle(long), ShortTitleLength)

	exact := strings.Repeat("y", ShortTitleLength)
	assert.Equal(t, exact, ShortTitle(exact))

	assert.Equal(t, ShortTitleLength, len([]rune(ShortTitle(strings.Repeat("é", 60)))))
}
