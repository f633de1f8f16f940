// Package reddit pages through subreddit listings and resolves each link
// post to an image or album on the host it points at.
package reddit

import (
	"context"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
	"imagegrab/pkg/apiclient"
	"imagegrab/pkg/config"
	"imagegrab/pkg/generic"
	"imagegrab/pkg/imgur"
	"imagegrab/pkg/logger"
	"imagegrab/pkg/models"
)

const (
	DefaultAPIBase = "https://oauth.reddit.com/r/"

	DefaultAmount  = 25
	MaxAmount      = 1000
	MaxPerPage     = 100
	defaultWorkers = 8
)

// ImgurLookup resolves Imgur albums and single images.
type ImgurLookup interface {
	GetAlbum(ctx context.Context, id string) *models.ImgurAlbum
	GetImage(ctx context.Context, id string) *models.ImgurImage
}

// DeviationLookup resolves DeviantArt pages.
type DeviationLookup interface {
	Get(ctx context.Context, pageURL string) *models.DeviantArtImage
}

// PageLookup finds the preview image of an arbitrary page.
type PageLookup interface {
	Resolve(ctx context.Context, pageURL string) *models.GenericImage
}

// TokenSource hands out OAuth tokens for listing requests.
type TokenSource interface {
	AcquireToken(ctx context.Context) (*Token, error)
}

// Source aggregates listing pages into a RedditListing.
type Source struct {
	client     *apiclient.Client
	imgur      ImgurLookup
	deviantart DeviationLookup
	pages      PageLookup
	tokens     TokenSource
	apiBase    string
	userAgent  string
	download   config.DownloadConfig
	workers    int
	logger     logger.Logger
}

// NewSource wires a listing source. pages may be nil; it is only consulted
// when page resolution is enabled.
func NewSource(cfg *config.Config, client *apiclient.Client, imgurAPI ImgurLookup, deviantart DeviationLookup, pages PageLookup, tokens TokenSource, log logger.Logger) *Source {
	if log == nil {
		log = logger.GetLogger()
	}
	apiBase := cfg.Reddit.APIBase
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	workers := cfg.Download.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Source{
		client:     client,
		imgur:      imgurAPI,
		deviantart: deviantart,
		pages:      pages,
		tokens:     tokens,
		apiBase:    apiBase,
		userAgent:  cfg.Reddit.UserAgent,
		download:   cfg.Download,
		workers:    workers,
		logger:     log.WithField("component", "reddit"),
	}
}

// Get fetches the default amount of posts for query.
func (s *Source) Get(ctx context.Context, query string) *models.RedditListing {
	return s.GetAmount(ctx, query, DefaultAmount)
}

// GetAmount requests up to amount posts, capped at MaxAmount, in pages of
// at most MaxPerPage. Paging stops at the first failed page and the posts
// collected so far are returned. Only posts that resolved to an image or
// album are kept.
func (s *Source) GetAmount(ctx context.Context, query string, amount int) *models.RedditListing {
	if amount > MaxAmount {
		amount = MaxAmount
	}
	query = NormalizeQuery(query)

	listing := &models.RedditListing{Posts: []*models.RedditPost{}}
	requested := 0
	after := ""
	page := 0

	for requested < amount {
		size := amount - requested
		if size > MaxPerPage {
			size = MaxPerPage
		}

		resp, ok := s.fetchPage(ctx, PageURL(s.apiBase, query, size, after, requested))
		if !ok {
			break
		}
		page++

		posts := resp.Posts()
		resolved := s.resolveAll(ctx, posts)
		listing.Posts = append(listing.Posts, resolved...)
		logger.LogPage(s.logger, "reddit", page, size, len(posts))

		requested += size
		after = resp.Data.After
	}

	return listing
}

func (s *Source) fetchPage(ctx context.Context, pageURL string) (*listingResponse, bool) {
	token, err := s.tokens.AcquireToken(ctx)
	if err != nil {
		s.logger.WarnWithFields("no token, stopping", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, false
	}

	headers := map[string]string{"Authorization": "bearer " + token.AccessToken}
	if s.userAgent != "" {
		headers["User-Agent"] = s.userAgent
	}

	var resp listingResponse
	if _, _, err := s.client.GetJSON(ctx, pageURL, headers, &resp); err != nil {
		s.logger.WarnWithFields("listing page failed, stopping", map[string]interface{}{
			"url":   pageURL,
			"error": err.Error(),
		})
		return nil, false
	}
	return &resp, true
}

// resolveAll resolves the link posts of one page concurrently. Self posts
// are dropped before resolution; page order is kept.
func (s *Source) resolveAll(ctx context.Context, posts []*models.RedditPost) []*models.RedditPost {
	links := make([]*models.RedditPost, 0, len(posts))
	for _, p := range posts {
		if p != nil && !p.IsSelf {
			links = append(links, p)
		}
	}

	results := make([]*models.RedditPost, len(links))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, post := range links {
		i, post := i, post
		g.Go(func() error {
			s.Resolve(gctx, post)
			if post.Resolved() && !(s.download.SkipAlbums && post.IsAlbum()) {
				results[i] = post
			}
			return nil
		})
	}
	_ = g.Wait()

	kept := make([]*models.RedditPost, 0, len(results))
	for _, p := range results {
		if p != nil {
			kept = append(kept, p)
		}
	}
	return kept
}

// Resolve sets post.Image or post.Album from the post's link.
func (s *Source) Resolve(ctx context.Context, post *models.RedditPost) {
	post.URL = strings.Trim(post.URL, "/")

	switch {
	case strings.Contains(post.Domain, ".deviantart.com"):
		if s.deviantart == nil {
			return
		}
		if img := s.deviantart.Get(ctx, post.URL); img != nil {
			post.Image = img
		}

	case post.Domain == "imgur.com" || post.Domain == "i.imgur.com" || post.Domain == "m.imgur.com":
		if s.imgur == nil {
			return
		}
		if imgur.IsAlbumURL(post.URL) {
			if s.download.SkipAlbums {
				return
			}
			if album := s.imgur.GetAlbum(ctx, lastSegment(post.URL)); album != nil {
				post.Album = album
			}
			return
		}
		id := lastSegment(post.URL)
		if i := strings.Index(id, "."); i >= 0 {
			id = id[:i]
		}
		if img := s.imgur.GetImage(ctx, id); img != nil {
			post.Image = img
		}

	default:
		if img := generic.FromURL(post.URL, s.download, s.client); img != nil {
			post.Image = img
			return
		}
		if s.download.ResolvePages && s.pages != nil {
			if img := s.pages.Resolve(ctx, post.URL); img != nil {
				post.Image = img
			}
		}
	}
}

// NormalizeQuery trims slashes and inserts ".json" before the query string
// when the caller left it out.
func NormalizeQuery(query string) string {
	query = strings.Trim(query, "/")
	if strings.Contains(query, ".json") {
		return query
	}
	if i := strings.Index(query, "?"); i >= 0 {
		return query[:i] + ".json" + query[i:]
	}
	return query + ".json"
}

// PageURL builds the request URL for one listing page. after and count are
// only sent once a previous page has supplied an after cursor.
func PageURL(base, query string, limit int, after string, count int) string {
	sep := "?"
	if strings.Contains(query, "?") {
		sep = "&"
	}

	var b strings.Builder
	b.WriteString(base)
	b.WriteString(query)
	b.WriteString(sep)
	b.WriteString("limit=")
	b.WriteString(strconv.Itoa(limit))
	if strings.TrimSpace(after) != "" {
		b.WriteString("&after=")
		b.WriteString(after)
		b.WriteString("&count=")
		b.WriteString(strconv.Itoa(count))
	}
	return b.String()
}

func lastSegment(s string) string {
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[i+1:]
	}
	return s
}
