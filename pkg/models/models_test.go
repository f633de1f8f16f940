package models

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockFetcher struct {
	data  []byte
	err   error
	calls int32
}

func (m *mockFetcher) Download(ctx context.Context, url string) ([]byte, error) {
	atomic.AddInt32(&m.calls, 1)
	return m.data, m.err
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestNewAspectRatio(t *testing.T) {
	tests := []struct {
		w, h int
		want AspectRatio
	}{
		{1920, 1080, AspectRatio{16, 9}},
		{1000, 1000, AspectRatio{1, 1}},
		{2560, 1080, AspectRatio{64, 27}},
		{7, 3, AspectRatio{7, 3}},
		{0, 0, AspectRatio{}},
	}

	for _, tt := range tests {
		got := NewAspectRatio(tt.w, tt.h)
		assert.Equal(t, tt.want, got)
	}
	assert.Equal(t, "16:9", NewAspectRatio(1920, 1080).String())
	assert.True(t, NewAspectRatio(0, 0).IsZero())
}

func TestImgurImageNaming(t *testing.T) {
	titled := &ImgurImage{Title: "Sunset", Type: "image/png", Link: "https://i.imgur.com/abc.png"}
	assert.Equal(t, ".png", titled.Extension())
	assert.Equal(t, "Sunset.png", titled.Name())

	untitled := &ImgurImage{Type: "image/jpeg", Link: "https://i.imgur.com/xyz.jpg"}
	assert.Equal(t, "xyz.jpg", untitled.Name())

	noDot := &ImgurImage{Type: "image/gif", Link: "https://i.imgur.com/xyz"}
	assert.Equal(t, "xyz.gif", noDot.Name())
}

func TestImgurImageBytesUsesFetcher(t *testing.T) {
	f := &mockFetcher{data: []byte("img")}
	img := &ImgurImage{Link: "https://i.imgur.com/a.png", Fetcher: f}

	data, err := img.Bytes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("img"), data)

	_, err = (&ImgurImage{Link: "x"}).Bytes(context.Background())
	assert.Error(t, err)
}

func TestImgurAlbumRemoveUnsupported(t *testing.T) {
	album := &ImgurAlbum{Entries: []*ImgurImage{
		{ID: "1", Type: "image/png"},
		{ID: "2", Type: "video/mp4"},
		{ID: "3", Type: "image/JPEG"},
	}}

	album.RemoveUnsupported(func(ext string) bool {
		return ext == ".png" || ext == ".jpeg"
	})

	require.Len(t, album.Entries, 2)
	assert.Equal(t, "1", album.Entries[0].ID)
	assert.Equal(t, "3", album.Entries[1].ID)
	assert.Len(t, album.Images(), 2)
}

func TestDeviantArtImage(t *testing.T) {
	img := &DeviantArtImage{Title: "Castle", URL: "https://images.example.net/castle.by.someone.jpg", Width: 800, Height: 600}
	assert.Equal(t, ".jpg", img.Extension())
	assert.Equal(t, "Castle.jpg", img.Name())
	assert.Equal(t, AspectRatio{4, 3}, img.AspectRatio(context.Background()))
}

func TestGenericImageLazyDecode(t *testing.T) {
	f := &mockFetcher{data: pngBytes(t, 300, 200)}
	img := &GenericImage{URL: "https://i.redd.it/photo.png", Fetcher: f}

	assert.Equal(t, ".png", img.Extension())
	assert.Equal(t, "photo.png", img.Name())

	w, h := img.Dimensions(context.Background())
	assert.Equal(t, 300, w)
	assert.Equal(t, 200, h)

	_, err := img.Bytes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.calls))

	require.NoError(t, img.Close())
	_, err = img.Bytes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&f.calls))
}

func TestGenericImageFallback(t *testing.T) {
	failing := &GenericImage{URL: "https://x/y.jpg", Fetcher: &mockFetcher{err: errors.New("offline")}, FallbackWidth: 10, FallbackHeight: 20}
	w, h := failing.Dimensions(context.Background())
	assert.Equal(t, 10, w)
	assert.Equal(t, 20, h)

	garbage := &GenericImage{URL: "https://x/y.jpg", Fetcher: &mockFetcher{data: []byte("nope")}, FallbackWidth: 1, FallbackHeight: 2}
	w, h = garbage.Dimensions(context.Background())
	assert.Equal(t, 1, w)
	assert.Equal(t, 2, h)
}

func TestLocalImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wall.png")
	require.NoError(t, os.WriteFile(path, pngBytes(t, 1920, 1080), 0644))

	img := &LocalImage{Path: path}
	assert.Equal(t, "wall.png", img.Name())
	assert.Equal(t, ".png", img.Extension())
	assert.Equal(t, AspectRatio{16, 9}, img.AspectRatio(context.Background()))

	broken := &LocalImage{Path: filepath.Join(dir, "missing.png"), FallbackWidth: 5, FallbackHeight: 7}
	w, h := broken.Dimensions(context.Background())
	assert.Equal(t, 5, w)
	assert.Equal(t, 7, h)
}

func TestRedditPostImages(t *testing.T) {
	single := &RedditPost{Image: &GenericImage{URL: "a.jpg"}}
	assert.Len(t, single.Images(), 1)
	assert.False(t, single.IsAlbum())
	assert.True(t, single.Resolved())

	album := &RedditPost{Album: &Album{Items: []Image{&GenericImage{}, &GenericImage{}}}}
	assert.Len(t, album.Images(), 2)
	assert.True(t, album.IsAlbum())

	empty := &RedditPost{}
	assert.NotNil(t, empty.Images())
	assert.Empty(t, empty.Images())
	assert.False(t, empty.Resolved())
}

func TestRedditPostShortTitle(t *testing.T) {
	p := &RedditPost{Title: "This is a very long post title that goes on for more than fifty characters"}
	assert.Equal(t, "This is a very long post title that goes on for mo", p.ShortTitle())
}

func TestRedditListingFlattens(t *testing.T) {
	listing := &RedditListing{Posts: []*RedditPost{
		{Image: &GenericImage{}},
		{Album: &Album{Items: []Image{&GenericImage{}, &GenericImage{}, &GenericImage{}}}},
		{},
	}}
	assert.Len(t, listing.Images(), 4)
	assert.Len(t, listing.Collections(), 3)
}

func TestNilAlbumImages(t *testing.T) {
	var a *Album
	assert.Empty(t, a.Images())
}
