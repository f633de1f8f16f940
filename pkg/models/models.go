package models

import (
	"context"
	"fmt"
)

// Image is a single downloadable image from any source.
type Image interface {
	// Name is the file name to save under, including the extension.
	Name() string
	// Extension includes the leading period, e.g. ".jpg".
	Extension() string
	SourceURL() string
	Dimensions(ctx context.Context) (width, height int)
	AspectRatio(ctx context.Context) AspectRatio
	Bytes(ctx context.Context) ([]byte, error)
	// Close releases any cached bytes.
	Close() error
}

// Collection is anything that flattens to a list of images, nested
// collections included.
type Collection interface {
	Images() []Image
}

// NestedCollection groups its images into posts, each itself a collection.
type NestedCollection interface {
	Collection
	Collections() []*RedditPost
}

// Fetcher downloads raw bytes for remote images.
type Fetcher interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// Album is a plain collection of images of any kind.
type Album struct {
	Items []Image
}

func (a *Album) Images() []Image {
	if a == nil {
		return []Image{}
	}
	out := make([]Image, len(a.Items))
	copy(out, a.Items)
	return out
}

// AspectRatio is a width:height ratio in lowest terms.
type AspectRatio struct {
	Width  int
	Height int
}

// NewAspectRatio reduces width:height by their greatest common divisor.
// A 0x0 input stays 0:0.
func NewAspectRatio(width, height int) AspectRatio {
	d := gcd(width, height)
	if d == 0 {
		return AspectRatio{}
	}
	return AspectRatio{Width: width / d, Height: height / d}
}

func (a AspectRatio) String() string {
	return fmt.Sprintf("%d:%d", a.Width, a.Height)
}

// IsZero reports whether no ratio is set.
func (a AspectRatio) IsZero() bool {
	return a.Width == 0 && a.Height == 0
}

func gcd(a, b int) int {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func errNoFetcher(url string) error {
	return fmt.Errorf("no fetcher configured for %s", url)
}
