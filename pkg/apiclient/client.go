package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"imagegrab/pkg/config"
	"imagegrab/pkg/errors"
	"imagegrab/pkg/logger"
	"imagegrab/pkg/ratelimit"
)

// DefaultDownloadTimeout bounds a single image download.
const DefaultDownloadTimeout = 60 * time.Second

// Client is the HTTP client shared by every remote source.
type Client struct {
	httpClient      *http.Client
	headers         map[string]string
	pacer           *ratelimit.Pacer
	timeout         time.Duration
	downloadTimeout time.Duration
	logger          logger.Logger
}

// NewClient creates a client from the http and download settings
func NewClient(cfg *config.Config, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	timeout := cfg.HTTP.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	downloadTimeout := cfg.Download.Timeout
	if downloadTimeout <= 0 {
		downloadTimeout = DefaultDownloadTimeout
	}

	return &Client{
		httpClient: &http.Client{},
		headers: map[string]string{
			"User-Agent": "imagegrab/1.0",
			"Accept":     "application/json, image/*;q=0.9, */*;q=0.8",
		},
		pacer:           ratelimit.NewPacer(cfg.HTTP.RequestsPerSecond, cfg.HTTP.Burst),
		timeout:         timeout,
		downloadTimeout: downloadTimeout,
		logger:          log.WithField("component", "http"),
	}
}

// SetHeader sets a default header sent with every request
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetHTTPClient replaces the underlying transport client
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// Do paces and sends req. Default headers never override headers already
// set on req. A transport failure is returned as a network error.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		if req.Header.Get(key) == "" {
			req.Header.Set(key, value)
		}
	}

	if err := c.pacer.Wait(ctx, req.URL.Hostname()); err != nil {
		return nil, errors.Wrap(errors.ErrorTypeNetwork, err, "request cancelled")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req.WithContext(ctx))
	if err != nil {
		logger.LogRequest(c.logger, req.Method, req.URL.String(), 0, time.Since(start))
		return nil, errors.Wrap(errors.ErrorTypeNetwork, err, "network error")
	}

	logger.LogRequest(c.logger, req.Method, req.URL.String(), resp.StatusCode, time.Since(start))
	return resp, nil
}

// GetJSON sends a GET request and decodes a successful response into target.
// The response headers and status are returned whenever a response arrived,
// also for non-success statuses.
func (c *Client) GetJSON(ctx context.Context, rawURL string, headers map[string]string, target interface{}) (http.Header, int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := newRequest(ctx, http.MethodGet, rawURL, nil, headers)
	if err != nil {
		return nil, 0, err
	}
	return c.doJSON(ctx, req, target)
}

// PostForm sends a form-encoded POST and decodes the response into target.
func (c *Client) PostForm(ctx context.Context, rawURL string, form url.Values, headers map[string]string, target interface{}) (http.Header, int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := newRequest(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()), headers)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.doJSON(ctx, req, target)
}

// GetBody sends a GET request and returns the raw body of a successful
// response.
func (c *Client) GetBody(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.getBody(ctx, rawURL, headers)
}

func (c *Client) getBody(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	req, err := newRequest(ctx, http.MethodGet, rawURL, nil, headers)
	if err != nil {
		return nil, err
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeNetwork, err, "failed to read response body")
	}
	return body, nil
}

// Download fetches the bytes at rawURL, giving up after the download
// timeout. The request timeout of the other calls does not apply.
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.downloadTimeout)
	defer cancel()

	data, err := c.getBody(ctx, rawURL, nil)
	if err != nil {
		c.logger.DebugWithFields("download failed", map[string]interface{}{
			"url":   rawURL,
			"error": err.Error(),
		})
		return nil, err
	}
	return data, nil
}

func (c *Client) doJSON(ctx context.Context, req *http.Request, target interface{}) (http.Header, int, error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return resp.Header, resp.StatusCode, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.Header, resp.StatusCode, errors.Wrap(errors.ErrorTypeNetwork, err, "failed to read response body")
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          req.URL.String(),
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return resp.Header, resp.StatusCode, &errors.Error{
			Type:    errors.ErrorTypeParsing,
			Message: "failed to parse JSON",
			Code:    resp.StatusCode,
			Err:     err,
		}
	}

	return resp.Header, resp.StatusCode, nil
}

// checkResponseStatus maps a non-success status to a typed error
func (c *Client) checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	errType := errors.FromStatusCode(resp.StatusCode)
	fields := map[string]interface{}{
		"status": resp.StatusCode,
		"url":    resp.Request.URL.String(),
	}

	var msg string
	switch errType {
	case errors.ErrorTypeAuth:
		msg = "authentication failed"
		c.logger.WarnWithFields("authentication error", fields)
	case errors.ErrorTypeNotFound:
		msg = "resource not found"
		c.logger.DebugWithFields("resource not found", fields)
	case errors.ErrorTypeRateLimit:
		msg = "rate limit exceeded"
		c.logger.WarnWithFields("rate limit exceeded", fields)
	case errors.ErrorTypeServerError:
		msg = "server error"
		c.logger.ErrorWithFields("server error", fields)
	default:
		msg = fmt.Sprintf("unexpected status code: %d", resp.StatusCode)
		c.logger.WarnWithFields("unexpected API error", fields)
	}

	return errors.New(errType, resp.StatusCode, msg)
}

func newRequest(ctx context.Context, method, rawURL string, body io.Reader, headers map[string]string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeUnknown, err, "failed to create request")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	return req, nil
}
