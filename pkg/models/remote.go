package models

import (
	"context"
	"strings"
)

// ImgurImage is an image as returned by the Imgur API.
type ImgurImage struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Link        string `json:"link"`
	Gifv        string `json:"gifv,omitempty"`
	Mp4         string `json:"mp4,omitempty"`
	NSFW        *bool  `json:"nsfw"`

	Fetcher Fetcher `json:"-"`
}

// Extension is derived from the MIME type, "image/png" gives ".png".
func (i *ImgurImage) Extension() string {
	if i.Type == "" {
		return ""
	}
	return "." + lastSegment(i.Type, "/")
}

// Name is the title plus extension, or the last link segment when untitled.
func (i *ImgurImage) Name() string {
	if i.Title != "" {
		return i.Title + i.Extension()
	}
	name := lastSegment(i.Link, "/")
	if !strings.Contains(name, ".") {
		name += i.Extension()
	}
	return name
}

func (i *ImgurImage) SourceURL() string { return i.Link }

func (i *ImgurImage) Dimensions(context.Context) (int, int) { return i.Width, i.Height }

func (i *ImgurImage) AspectRatio(ctx context.Context) AspectRatio {
	return NewAspectRatio(i.Dimensions(ctx))
}

func (i *ImgurImage) Bytes(ctx context.Context) ([]byte, error) {
	if i.Fetcher == nil {
		return nil, errNoFetcher(i.Link)
	}
	return i.Fetcher.Download(ctx, i.Link)
}

func (i *ImgurImage) Close() error { return nil }

// ImgurAlbum is an album as returned by the Imgur API.
type ImgurAlbum struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	AccountURL  string        `json:"account_url"`
	AccountID   *int          `json:"account_id"`
	Link        string        `json:"link"`
	NSFW        *bool         `json:"nsfw"`
	ImagesCount int           `json:"images_count"`
	Entries     []*ImgurImage `json:"images"`
}

func (a *ImgurAlbum) Images() []Image {
	out := make([]Image, 0, len(a.Entries))
	for _, img := range a.Entries {
		out = append(out, img)
	}
	return out
}

// RemoveUnsupported drops every image whose extension the predicate rejects.
func (a *ImgurAlbum) RemoveUnsupported(supported func(ext string) bool) {
	kept := a.Entries[:0]
	for _, img := range a.Entries {
		if supported(strings.ToLower(img.Extension())) {
			kept = append(kept, img)
		}
	}
	a.Entries = kept
}

// SetFetcher attaches f to every image in the album.
func (a *ImgurAlbum) SetFetcher(f Fetcher) {
	for _, img := range a.Entries {
		img.Fetcher = f
	}
}

// DeviantArtImage is the subset of an oEmbed response used for downloading.
type DeviantArtImage struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	AuthorName string `json:"author_name"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`

	Fetcher Fetcher `json:"-"`
}

func (d *DeviantArtImage) Extension() string { return "." + lastSegment(d.URL, ".") }

func (d *DeviantArtImage) Name() string { return d.Title + d.Extension() }

func (d *DeviantArtImage) SourceURL() string { return d.URL }

func (d *DeviantArtImage) Dimensions(context.Context) (int, int) { return d.Width, d.Height }

func (d *DeviantArtImage) AspectRatio(ctx context.Context) AspectRatio {
	return NewAspectRatio(d.Dimensions(ctx))
}

func (d *DeviantArtImage) Bytes(ctx context.Context) ([]byte, error) {
	if d.Fetcher == nil {
		return nil, errNoFetcher(d.URL)
	}
	return d.Fetcher.Download(ctx, d.URL)
}

func (d *DeviantArtImage) Close() error { return nil }

// GenericImage is an image reachable by a direct URL on a host without an
// API. Its size is only known after downloading it.
type GenericImage struct {
	URL            string
	Fetcher        Fetcher
	FallbackWidth  int
	FallbackHeight int

	cache imageCache
}

func (g *GenericImage) Extension() string { return "." + lastSegment(g.URL, ".") }

func (g *GenericImage) Name() string { return lastSegment(g.URL, "/") }

func (g *GenericImage) SourceURL() string { return g.URL }

func (g *GenericImage) Bytes(ctx context.Context) ([]byte, error) {
	return g.cache.bytes(ctx, g.download)
}

func (g *GenericImage) Dimensions(ctx context.Context) (int, int) {
	return g.cache.dimensions(ctx, g.download, g.FallbackWidth, g.FallbackHeight)
}

func (g *GenericImage) AspectRatio(ctx context.Context) AspectRatio {
	return NewAspectRatio(g.Dimensions(ctx))
}

func (g *GenericImage) Close() error {
	g.cache.reset()
	return nil
}

func (g *GenericImage) download(ctx context.Context) ([]byte, error) {
	if g.Fetcher == nil {
		return nil, errNoFetcher(g.URL)
	}
	return g.Fetcher.Download(ctx, g.URL)
}

func lastSegment(s, sep string) string {
	if i := strings.LastIndex(s, sep); i >= 0 {
		return s[i+len(sep):]
	}
	return s
}
