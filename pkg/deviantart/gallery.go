package deviantart

import (
	"bytes"
	"context"
	"net/url"
	"strconv"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
	"imagegrab/pkg/apiclient"
	"imagegrab/pkg/config"
	"imagegrab/pkg/logger"
	"imagegrab/pkg/models"
)

const DefaultFeedURL = "https://backend.deviantart.com/rss.xml"

// GallerySource lists the newest deviations of a user from the gallery RSS
// feed. Each entry carries its full-size image as a media:content element.
type GallerySource struct {
	client    *apiclient.Client
	parser    *gofeed.Parser
	feedURL   string
	userAgent string
	download  config.DownloadConfig
	logger    logger.Logger
}

// NewGallerySource creates a gallery feed source
func NewGallerySource(cfg *config.Config, client *apiclient.Client, log logger.Logger) *GallerySource {
	if log == nil {
		log = logger.GetLogger()
	}
	feedURL := cfg.DeviantArt.FeedURL
	if feedURL == "" {
		feedURL = DefaultFeedURL
	}
	return &GallerySource{
		client:    client,
		parser:    gofeed.NewParser(),
		feedURL:   feedURL,
		userAgent: cfg.DeviantArt.UserAgent,
		download:  cfg.Download,
		logger:    log.WithField("component", "deviantart-gallery"),
	}
}

// Get returns the supported images in user's gallery feed. It never
// returns nil.
func (g *GallerySource) Get(ctx context.Context, user string) *models.Album {
	album := &models.Album{Items: []models.Image{}}

	q := url.Values{}
	q.Set("type", "deviation")
	q.Set("q", "gallery:"+user)

	var headers map[string]string
	if g.userAgent != "" {
		headers = map[string]string{"User-Agent": g.userAgent}
	}

	body, err := g.client.GetBody(ctx, g.feedURL+"?"+q.Encode(), headers)
	if err != nil {
		g.logger.WithError(err).Warn("Unable to fetch gallery feed")
		return album
	}

	feed, err := g.parser.Parse(bytes.NewReader(body))
	if err != nil {
		g.logger.WithError(err).Warn("Unable to parse gallery feed")
		return album
	}

	for _, item := range feed.Items {
		img := g.imageFromItem(item)
		if img == nil {
			continue
		}
		album.Items = append(album.Items, img)
	}

	g.logger.DebugWithFields("Gallery feed parsed", map[string]interface{}{
		"user":    user,
		"entries": len(feed.Items),
		"images":  len(album.Items),
	})
	return album
}

func (g *GallerySource) imageFromItem(item *gofeed.Item) *models.DeviantArtImage {
	content := mediaContent(item.Extensions)
	if content == nil {
		return nil
	}

	img := &models.DeviantArtImage{
		Title:   item.Title,
		URL:     content.Attrs["url"],
		Width:   atoi(content.Attrs["width"]),
		Height:  atoi(content.Attrs["height"]),
		Fetcher: g.client,
	}
	if item.Author != nil {
		img.AuthorName = item.Author.Name
	}
	if img.URL == "" || !g.download.IsSupportedExtension(img.Extension()) {
		return nil
	}
	return img
}

// mediaContent returns the first media:content element describing an image.
func mediaContent(exts ext.Extensions) *ext.Extension {
	for _, c := range exts["media"]["content"] {
		if medium := c.Attrs["medium"]; medium == "" || medium == "image" {
			c := c
			return &c
		}
	}
	return nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
