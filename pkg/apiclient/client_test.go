package apiclient

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"imagegrab/pkg/config"
	"imagegrab/pkg/errors"
	"imagegrab/pkg/logger"
)

// mockRoundTripper allows us to intercept HTTP requests
type mockRoundTripper struct {
	handler func(req *http.Request) (*http.Response, error)
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.handler(req)
}

func newResponse(req *http.Request, statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
		Request:    req,
	}
}

func newTestClient(log logger.Logger, handler func(req *http.Request) (*http.Response, error)) *Client {
	cfg := config.DefaultConfig()
	cfg.HTTP.RequestsPerSecond = 0
	c := NewClient(cfg, log)
	c.SetHTTPClient(&http.Client{Transport: &mockRoundTripper{handler: handler}})
	return c
}

func TestDefaultHeadersDoNotOverride(t *testing.T) {
	var got http.Header
	c := newTestClient(logger.NewNopLogger(), func(req *http.Request) (*http.Response, error) {
		got = req.Header.Clone()
		return newResponse(req, http.StatusOK, `{}`), nil
	})
	c.SetHeader("X-Default", "yes")

	var out map[string]interface{}
	_, _, err := c.GetJSON(context.Background(), "https://api.example.com/x", map[string]string{"User-Agent": "custom"}, &out)
	require.NoError(t, err)

	assert.Equal(t, "custom", got.Get("User-Agent"))
	assert.Equal(t, "yes", got.Get("X-Default"))
}

func TestGetJSON(t *testing.T) {
	c := newTestClient(logger.NewNopLogger(), func(req *http.Request) (*http.Response, error) {
		resp := newResponse(req, http.StatusOK, `{"data":{"id":"abc"}}`)
		resp.Header.Set("X-RateLimit-UserRemaining", "42")
		return resp, nil
	})

	var out struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	headers, status, err := c.GetJSON(context.Background(), "https://api.example.com/album/abc", nil, &out)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "42", headers.Get("X-RateLimit-UserRemaining"))
	assert.Equal(t, "abc", out.Data.ID)
}

func TestGetJSONStatusErrors(t *testing.T) {
	tests := []struct {
		status   int
		expected errors.ErrorType
	}{
		{http.StatusForbidden, errors.ErrorTypeAuth},
		{http.StatusNotFound, errors.ErrorTypeNotFound},
		{http.StatusTooManyRequests, errors.ErrorTypeRateLimit},
		{http.StatusServiceUnavailable, errors.ErrorTypeServerError},
		{http.StatusTeapot, errors.ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newTestClient(logger.NewNopLogger(), func(req *http.Request) (*http.Response, error) {
				return newResponse(req, tt.status, ""), nil
			})

			var out interface{}
			headers, status, err := c.GetJSON(context.Background(), "https://api.example.com/x", nil, &out)
			require.Error(t, err)
			assert.NotNil(t, headers)
			assert.Equal(t, tt.status, status)
			assert.True(t, errors.IsType(err, tt.expected))

			var apiErr *errors.Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Code)
		})
	}
}

func TestGetJSONNetworkError(t *testing.T) {
	c := newTestClient(logger.NewNopLogger(), func(req *http.Request) (*http.Response, error) {
		return nil, stderrors.New("connection refused")
	})

	var out interface{}
	headers, status, err := c.GetJSON(context.Background(), "https://api.example.com/x", nil, &out)
	require.Error(t, err)
	assert.Nil(t, headers)
	assert.Equal(t, 0, status)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNetwork))
}

func TestGetJSONParseErrorLogsPreview(t *testing.T) {
	log := logger.NewTestLogger()
	c := newTestClient(log, func(req *http.Request) (*http.Response, error) {
		return newResponse(req, http.StatusOK, "<html>maintenance</html>"), nil
	})

	var out map[string]interface{}
	_, _, err := c.GetJSON(context.Background(), "https://api.example.com/x", nil, &out)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeParsing))

	msgs := log.GetMessagesByLevel("ERROR")
	require.Len(t, msgs, 1)
	assert.Equal(t, "<html>maintenance</html>", msgs[0].Fields["body_preview"])
}

func TestPostForm(t *testing.T) {
	var gotForm url.Values
	var gotContentType string
	c := newTestClient(logger.NewNopLogger(), func(req *http.Request) (*http.Response, error) {
		gotContentType = req.Header.Get("Content-Type")
		body, _ := io.ReadAll(req.Body)
		gotForm, _ = url.ParseQuery(string(body))
		return newResponse(req, http.StatusOK, `{"access_token":"tok"}`), nil
	})

	var out struct {
		AccessToken string `json:"access_token"`
	}
	_, _, err := c.PostForm(context.Background(), "https://auth.example.com/token", url.Values{"grant_type": {"x"}}, nil, &out)
	require.NoError(t, err)
	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
	assert.Equal(t, "x", gotForm.Get("grant_type"))
	assert.Equal(t, "tok", out.AccessToken)
}

func TestDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.jpg" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("imagebytes"))
	}))
	defer server.Close()

	c := NewClient(config.DefaultConfig(), logger.NewNopLogger())

	data, err := c.Download(context.Background(), server.URL+"/ok.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("imagebytes"), data)

	_, err = c.Download(context.Background(), server.URL+"/missing.jpg")
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestDownloadTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	cfg := config.DefaultConfig()
	cfg.Download.Timeout = 50 * time.Millisecond
	c := NewClient(cfg, logger.NewNopLogger())

	start := time.Now()
	_, err := c.Download(context.Background(), server.URL+"/slow.jpg")
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestDownloadOutlastsRequestTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(150 * time.Millisecond)
		_, _ = w.Write([]byte("slowimage"))
	}))
	defer server.Close()

	cfg := config.DefaultConfig()
	cfg.HTTP.RequestsPerSecond = 0
	cfg.HTTP.Timeout = 50 * time.Millisecond
	cfg.Download.Timeout = 5 * time.Second
	c := NewClient(cfg, logger.NewNopLogger())

	data, err := c.Download(context.Background(), server.URL+"/big.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("slowimage"), data)

	_, err = c.GetBody(context.Background(), server.URL+"/page.html", nil)
	require.Error(t, err, "regular requests keep the shorter timeout")
	assert.True(t, errors.IsType(err, errors.ErrorTypeNetwork))
}
