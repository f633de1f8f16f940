// Package deviantart resolves DeviantArt deviation pages to images, either
// one at a time through the oEmbed endpoint or in bulk from a user's
// gallery feed.
package deviantart

import (
	"context"
	"net/url"

	"imagegrab/pkg/apiclient"
	"imagegrab/pkg/config"
	"imagegrab/pkg/logger"
	"imagegrab/pkg/models"
)

const DefaultOEmbedURL = "https://backend.deviantart.com/oembed"

// Source looks up single deviations through oEmbed.
type Source struct {
	client    *apiclient.Client
	endpoint  string
	userAgent string
	download  config.DownloadConfig
	logger    logger.Logger
}

// NewSource creates an oEmbed source
func NewSource(cfg *config.Config, client *apiclient.Client, log logger.Logger) *Source {
	if log == nil {
		log = logger.GetLogger()
	}
	endpoint := cfg.DeviantArt.OEmbedURL
	if endpoint == "" {
		endpoint = DefaultOEmbedURL
	}
	return &Source{
		client:    client,
		endpoint:  endpoint,
		userAgent: cfg.DeviantArt.UserAgent,
		download:  cfg.Download,
		logger:    log.WithField("component", "deviantart"),
	}
}

// Get resolves a deviation page URL. It returns nil when the lookup fails
// or the image type is not supported.
func (s *Source) Get(ctx context.Context, pageURL string) *models.DeviantArtImage {
	var img models.DeviantArtImage
	lookup := s.endpoint + "?url=" + url.QueryEscape(pageURL)

	if _, _, err := s.client.GetJSON(ctx, lookup, s.headers(), &img); err != nil {
		s.logger.DebugWithFields("oembed lookup failed", map[string]interface{}{
			"url":   pageURL,
			"error": err.Error(),
		})
		return nil
	}
	if img.URL == "" || !s.download.IsSupportedExtension(img.Extension()) {
		return nil
	}

	img.Fetcher = s.client
	return &img
}

func (s *Source) headers() map[string]string {
	if s.userAgent == "" {
		return nil
	}
	return map[string]string{"User-Agent": s.userAgent}
}
