package reddit

import (
	"context"
	"encoding/base64"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"imagegrab/pkg/apiclient"
	"imagegrab/pkg/config"
	"imagegrab/pkg/errors"
	"imagegrab/pkg/logger"
)

const (
	DefaultAuthURL = "https://www.reddit.com/api/v1/access_token"

	installedClientGrant = "https://oauth.reddit.com/grants/installed_client"

	// RefreshMargin is how long before expiry a cached token is replaced.
	RefreshMargin = 5 * time.Minute

	deviceIDLength = 25
)

// Token is an application-only OAuth token.
type Token struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`

	AcquiredAt time.Time `json:"-"`
}

// Valid reports whether the token can still be used at now.
func (t *Token) Valid(now time.Time) bool {
	if t == nil || t.AccessToken == "" {
		return false
	}
	expiry := t.AcquiredAt.Add(time.Duration(t.ExpiresIn) * time.Second)
	return now.Before(expiry.Add(-RefreshMargin))
}

// TokenAcquirer fetches and caches installed-client tokens.
type TokenAcquirer struct {
	client   *apiclient.Client
	authURL  string
	appID    string
	deviceID string
	agent    string
	logger   logger.Logger

	mu    sync.Mutex
	token *Token
	now   func() time.Time
}

// NewTokenAcquirer creates an acquirer for the configured app. A random
// device id is used when none is configured.
func NewTokenAcquirer(cfg *config.Config, client *apiclient.Client, log logger.Logger) *TokenAcquirer {
	if log == nil {
		log = logger.GetLogger()
	}
	authURL := cfg.Reddit.AuthURL
	if authURL == "" {
		authURL = DefaultAuthURL
	}
	deviceID := cfg.Reddit.DeviceID
	if deviceID == "" {
		deviceID = NewDeviceID()
	}
	return &TokenAcquirer{
		client:   client,
		authURL:  authURL,
		appID:    cfg.Reddit.AppID,
		deviceID: deviceID,
		agent:    cfg.Reddit.UserAgent,
		logger:   log.WithField("component", "reddit-oauth"),
		now:      time.Now,
	}
}

// AcquireToken returns the cached token while it is valid and requests a
// new one otherwise.
func (a *TokenAcquirer) AcquireToken(ctx context.Context) (*Token, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token.Valid(a.now()) {
		return a.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", installedClientGrant)
	form.Set("device_id", a.deviceID)

	headers := map[string]string{
		"Authorization": "Basic " + base64.StdEncoding.EncodeToString([]byte(a.appID+":")),
	}
	if a.agent != "" {
		headers["User-Agent"] = a.agent
	}

	var token Token
	if _, _, err := a.client.PostForm(ctx, a.authURL, form, headers, &token); err != nil {
		a.logger.WarnWithFields("token request failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, errors.Wrap(errors.ErrorTypeAuth, errors.Join(errors.ErrTokenUnavailable, err), "reddit token request failed")
	}
	if token.AccessToken == "" {
		return nil, errors.Wrap(errors.ErrorTypeAuth, errors.ErrTokenUnavailable, "empty access token")
	}

	token.AcquiredAt = a.now()
	a.token = &token
	a.logger.DebugWithFields("token acquired", map[string]interface{}{
		"expires_in": token.ExpiresIn,
	})
	return a.token, nil
}

// NewDeviceID returns a random 25 character device identifier.
func NewDeviceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:deviceIDLength]
}
