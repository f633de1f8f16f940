// Package imgur fetches albums, single images and account listings from the
// Imgur API while staying inside the quota Imgur grants a client id.
package imgur

import (
	"context"
	"math"

	"imagegrab/pkg/apiclient"
	"imagegrab/pkg/config"
	"imagegrab/pkg/logger"
	"imagegrab/pkg/models"
	"imagegrab/pkg/ratelimit"
)

// API is the quota-aware Imgur client. All lookups share one QuotaLimiter.
type API struct {
	client   *apiclient.Client
	limiter  *ratelimit.QuotaLimiter
	baseURL  string
	clientID string
	download config.DownloadConfig
	logger   logger.Logger
}

// LimitInfo is a snapshot of the quota counters.
type LimitInfo struct {
	ClientLimit     int
	UserLimit       int
	ClientRemaining int
	UserRemaining   int
}

// NewAPI creates an API whose limiter loads its quota from the credits
// endpoint on first use.
func NewAPI(cfg *config.Config, client *apiclient.Client, log logger.Logger) *API {
	if log == nil {
		log = logger.GetLogger()
	}
	base := cfg.Imgur.APIBase
	if base == "" {
		base = DefaultBaseURL
	}

	a := &API{
		client:   client,
		baseURL:  base,
		clientID: cfg.Imgur.ClientID,
		download: cfg.Download,
		logger:   log.WithField("component", "imgur"),
	}
	a.limiter = ratelimit.NewQuotaLimiter(a, log)
	return a
}

// Limiter returns the quota limiter shared by all lookups
func (a *API) Limiter() *ratelimit.QuotaLimiter {
	return a.limiter
}

// GetLimits implements ratelimit.LimitSource using the credits endpoint.
// It does not consume quota.
func (a *API) GetLimits(ctx context.Context) (*ratelimit.Limits, error) {
	var resp envelope[ratelimit.Limits]
	if _, _, err := a.client.GetJSON(ctx, creditsURL(a.baseURL), a.authHeaders(), &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// LimitInfo reloads the quota and returns the resulting counters. A
// rejected client id is returned as an error.
func (a *API) LimitInfo(ctx context.Context) (LimitInfo, error) {
	err := a.limiter.LoadLimits(ctx)
	cl, ul, cr, ur := a.limiter.GetLimiterValues()
	return LimitInfo{ClientLimit: cl, UserLimit: ul, ClientRemaining: cr, UserRemaining: ur}, err
}

// GetAlbum returns the album with the given id, without images of
// unsupported types. It never returns nil; a refused or failed request
// yields an empty album.
func (a *API) GetAlbum(ctx context.Context, id string) *models.ImgurAlbum {
	a.limiter.EnsureLoaded(ctx)

	var resp albumResponse
	if !a.get(ctx, albumURL(a.baseURL, id), &resp) || resp.Data == nil {
		return &models.ImgurAlbum{}
	}

	album := resp.Data
	album.RemoveUnsupported(a.download.IsSupportedExtension)
	album.SetFetcher(a.client)
	return album
}

// GetImage returns the image with the given id, or nil when the request is
// refused, fails, or the image type is not supported.
func (a *API) GetImage(ctx context.Context, id string) *models.ImgurImage {
	a.limiter.EnsureLoaded(ctx)

	var resp imageResponse
	if !a.get(ctx, imageURL(a.baseURL, id), &resp) || resp.Data == nil {
		return nil
	}

	img := resp.Data
	if !a.download.IsSupportedExtension(img.Extension()) {
		return nil
	}
	img.Fetcher = a.client
	return img
}

// GetAccountImages returns every public, supported image of user. Pages
// are fetched until the quota runs out; a failed page is skipped. It never
// returns nil.
func (a *API) GetAccountImages(ctx context.Context, user string) *models.Album {
	a.limiter.EnsureLoaded(ctx)

	album := &models.Album{Items: []models.Image{}}

	var count countResponse
	if !a.get(ctx, accountCountURL(a.baseURL, user), &count) {
		return album
	}

	pages := int(math.Ceil(float64(count.Data) / AccountPageSize))
	for page := 0; page < pages; page++ {
		if ctx.Err() != nil {
			break
		}
		if !a.limiter.IsRequestAllowed() {
			logger.LogQuotaExhausted(a.logger, "imgur", accountPageURL(a.baseURL, user, page))
			break
		}

		var resp accountPageResponse
		if !a.fetch(ctx, accountPageURL(a.baseURL, user, page), &resp) {
			continue
		}
		for _, img := range resp.Data {
			if img == nil || !a.download.IsSupportedExtension(img.Extension()) {
				continue
			}
			img.Fetcher = a.client
			album.Items = append(album.Items, img)
		}
		logger.LogPage(a.logger, "imgur/"+user, page, AccountPageSize, len(resp.Data))
	}

	return album
}

// get spends one unit of quota on a request to rawURL.
func (a *API) get(ctx context.Context, rawURL string, target interface{}) bool {
	if !a.limiter.IsRequestAllowed() {
		logger.LogQuotaExhausted(a.logger, "imgur", rawURL)
		return false
	}
	return a.fetch(ctx, rawURL, target)
}

// fetch performs the request and feeds the quota headers back to the
// limiter. The caller must already have been allowed by the limiter.
func (a *API) fetch(ctx context.Context, rawURL string, target interface{}) bool {
	headers, _, err := a.client.GetJSON(ctx, rawURL, a.authHeaders(), target)
	if headers != nil {
		a.limiter.UpdateLimit(headers)
	}
	if err != nil {
		a.logger.DebugWithFields("imgur request failed", map[string]interface{}{
			"url":   rawURL,
			"error": err.Error(),
		})
		return false
	}
	return true
}

func (a *API) authHeaders() map[string]string {
	return map[string]string{"Authorization": "Client-ID " + a.clientID}
}
