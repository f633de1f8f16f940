package models

import "imagegrab/pkg/filenamer"

// RedditPost is one listing entry. Image or Album is set once the post's
// link has been resolved; a post with neither yields no images.
type RedditPost struct {
	Domain    string `json:"domain"`
	Subreddit string `json:"subreddit"`
	Author    string `json:"author"`
	Over18    bool   `json:"over_18"`
	Permalink string `json:"permalink"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	IsSelf    bool   `json:"is_self"`
	// Name is the post's fullname, e.g. "t3_abc123".
	Name string `json:"name"`

	Image Image      `json:"-"`
	Album Collection `json:"-"`
}

// ShortTitle is the title cut to its first 50 characters.
func (p *RedditPost) ShortTitle() string {
	return filenamer.ShortTitle(p.Title)
}

// IsAlbum reports whether the post links to a collection.
func (p *RedditPost) IsAlbum() bool {
	return p.Album != nil
}

// Resolved reports whether the post points at anything downloadable.
func (p *RedditPost) Resolved() bool {
	return p.Image != nil || p.Album != nil
}

func (p *RedditPost) Images() []Image {
	if p.Image != nil {
		return []Image{p.Image}
	}
	if p.Album != nil {
		if imgs := p.Album.Images(); imgs != nil {
			return imgs
		}
	}
	return []Image{}
}

var _ NestedCollection = (*RedditListing)(nil)

// RedditListing is the aggregated result of one or more listing pages.
type RedditListing struct {
	Posts []*RedditPost
}

// Collections returns the posts, each a nested collection.
func (l *RedditListing) Collections() []*RedditPost {
	return l.Posts
}

func (l *RedditListing) Images() []Image {
	out := []Image{}
	for _, p := range l.Posts {
		out = append(out, p.Images()...)
	}
	return out
}
