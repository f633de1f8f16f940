// Package generic handles images on hosts without an API, either linked
// directly or, optionally, through the page's og:image metadata.
package generic

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"imagegrab/pkg/apiclient"
	"imagegrab/pkg/config"
	"imagegrab/pkg/logger"
	"imagegrab/pkg/models"
)

// Extension returns "." plus the lower-cased text after the last period of
// rawURL.
func Extension(rawURL string) string {
	i := strings.LastIndex(rawURL, ".")
	if i < 0 {
		return "." + strings.ToLower(rawURL)
	}
	return "." + strings.ToLower(rawURL[i+1:])
}

// FromURL wraps a direct image link, or returns nil when its extension is
// not in the allow-list.
func FromURL(rawURL string, download config.DownloadConfig, fetcher models.Fetcher) *models.GenericImage {
	if !download.IsSupportedExtension(Extension(rawURL)) {
		return nil
	}
	return &models.GenericImage{
		URL:            rawURL,
		Fetcher:        fetcher,
		FallbackWidth:  download.FallbackWidth,
		FallbackHeight: download.FallbackHeight,
	}
}

// PageResolver finds the preview image of an HTML page.
type PageResolver struct {
	client   *apiclient.Client
	download config.DownloadConfig
	logger   logger.Logger
}

// NewPageResolver creates a resolver for og:image lookups
func NewPageResolver(cfg *config.Config, client *apiclient.Client, log logger.Logger) *PageResolver {
	if log == nil {
		log = logger.GetLogger()
	}
	return &PageResolver{
		client:   client,
		download: cfg.Download,
		logger:   log.WithField("component", "page-resolver"),
	}
}

// Resolve fetches pageURL and returns the image named by its og:image (or
// twitter:image) meta tag. It returns nil when the page cannot be fetched,
// has no such tag, or the image type is not supported.
func (p *PageResolver) Resolve(ctx context.Context, pageURL string) *models.GenericImage {
	body, err := p.client.GetBody(ctx, pageURL, map[string]string{"Accept": "text/html"})
	if err != nil {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		p.logger.WithError(err).Debug("Unable to parse page")
		return nil
	}

	var imageURL string
	doc.Find(`meta[property="og:image"], meta[name="twitter:image"]`).EachWithBreak(func(i int, s *goquery.Selection) bool {
		if content, ok := s.Attr("content"); ok && content != "" {
			imageURL = content
			return false
		}
		return true
	})
	if imageURL == "" {
		return nil
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	ref, err := url.Parse(imageURL)
	if err != nil {
		return nil
	}
	resolved := base.ResolveReference(ref)

	// query strings would otherwise end up in the extension
	resolved.RawQuery = ""
	resolved.Fragment = ""

	p.logger.DebugWithFields("page image resolved", map[string]interface{}{
		"page":  pageURL,
		"image": resolved.String(),
	})
	return FromURL(resolved.String(), p.download, p.client)
}
