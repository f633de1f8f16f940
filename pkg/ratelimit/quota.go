package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"sync"

	"imagegrab/pkg/errors"
	"imagegrab/pkg/logger"
)

const (
	// ClientBuffer is kept in reserve from the client-wide budget, which is
	// shared by every user of the same client id.
	ClientBuffer = 100
	// ClientResetMargin is how close to the client limit a reported value
	// must be to count as a quota reset.
	ClientResetMargin = 200
	// UserResetMargin is the same margin for the per-user limit.
	UserResetMargin = 50

	HeaderClientRemaining = "X-RateLimit-ClientRemaining"
	HeaderUserRemaining   = "X-RateLimit-UserRemaining"
)

// Limits is the authoritative quota as reported by the API.
type Limits struct {
	UserLimit       int `json:"UserLimit"`
	UserRemaining   int `json:"UserRemaining"`
	UserReset       int `json:"UserReset"`
	ClientLimit     int `json:"ClientLimit"`
	ClientRemaining int `json:"ClientRemaining"`
}

// LimitSource fetches the current quota. An *errors.Error with code 403
// means the client id was rejected; any other error is treated as the
// service being unreachable.
type LimitSource interface {
	GetLimits(ctx context.Context) (*Limits, error)
}

// QuotaLimiter gates requests against a client-wide and a per-user request
// budget. Nothing is allowed until limits have been loaded.
type QuotaLimiter struct {
	source LimitSource
	log    logger.Logger

	mu              sync.Mutex
	clientLimit     int
	userLimit       int
	clientRemaining int
	userRemaining   int
	loaded          bool
}

// NewQuotaLimiter creates an unloaded limiter backed by source
func NewQuotaLimiter(source LimitSource, log logger.Logger) *QuotaLimiter {
	if log == nil {
		log = logger.GetLogger()
	}
	return &QuotaLimiter{
		source:          source,
		log:             log.WithField("component", "quota"),
		clientLimit:     -1,
		userLimit:       -1,
		clientRemaining: -1,
		userRemaining:   -1,
	}
}

// LoadLimits replaces all counters with the values from the limit source.
//
// A rejected client id resets every counter to -1 and returns an error
// wrapping errors.ErrInvalidClientID. An unreachable source also resets the
// counters but returns nil, so the next load gets a fresh chance.
func (q *QuotaLimiter) LoadLimits(ctx context.Context) error {
	limits, err := q.source.GetLimits(ctx)
	if err != nil {
		q.invalidate()
		var apiErr *errors.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusForbidden {
			q.log.Warn("Client id rejected while loading limits")
			return errors.Wrap(errors.ErrorTypeAuth, errors.ErrInvalidClientID, "loading limits")
		}
		q.log.WithError(err).Warn("Unable to load limits")
		return nil
	}
	if limits == nil {
		q.invalidate()
		return nil
	}

	q.mu.Lock()
	q.clientLimit = limits.ClientLimit
	q.userLimit = limits.UserLimit
	q.clientRemaining = limits.ClientRemaining
	q.userRemaining = limits.UserRemaining
	q.loaded = true
	q.mu.Unlock()

	logger.LogQuota(q.log, "imgur", limits.ClientRemaining, limits.UserRemaining)
	return nil
}

// AttemptToLoadLimits is LoadLimits with a rejected client id swallowed.
// The limiter then stays in its nothing-allowed state.
func (q *QuotaLimiter) AttemptToLoadLimits(ctx context.Context) error {
	err := q.LoadLimits(ctx)
	if errors.Is(err, errors.ErrInvalidClientID) {
		return nil
	}
	return err
}

// IsRequestAllowed reports whether one more request may be made and, if so,
// counts it against the user budget immediately.
func (q *QuotaLimiter) IsRequestAllowed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	allowed := q.userRemaining > 0 && q.clientRemaining >= ClientBuffer
	if allowed {
		q.userRemaining--
	}
	return allowed
}

// UpdateLimit applies remaining-count headers from a response. A value only
// replaces the cached one when it is lower, or when it is close enough to
// the full limit to indicate the quota was reset. Stale responses arriving
// out of order therefore never raise the counters. Headers are ignored
// while no limits are loaded.
func (q *QuotaLimiter) UpdateLimit(headers http.Header) {
	clientValue, hasClient := headerInt(headers, HeaderClientRemaining)
	userValue, hasUser := headerInt(headers, HeaderUserRemaining)
	if !hasClient && !hasUser {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.loaded {
		return
	}
	if hasClient && (clientValue < q.clientRemaining || clientValue >= q.clientLimit-ClientResetMargin) {
		q.clientRemaining = clientValue
	}
	if hasUser && (userValue < q.userRemaining || userValue >= q.userLimit-UserResetMargin) {
		q.userRemaining = userValue
	}
}

// LimitsLoaded reports whether the last load succeeded
func (q *QuotaLimiter) LimitsLoaded() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.loaded
}

// GetLimiterValues returns a consistent snapshot of all four counters.
func (q *QuotaLimiter) GetLimiterValues() (clientLimit, userLimit, clientRemaining, userRemaining int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.clientLimit, q.userLimit, q.clientRemaining, q.userRemaining
}

// EnsureLoaded loads limits unless a previous load already succeeded.
func (q *QuotaLimiter) EnsureLoaded(ctx context.Context) {
	if q.LimitsLoaded() {
		return
	}
	_ = q.AttemptToLoadLimits(ctx)
}

func (q *QuotaLimiter) invalidate() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.clientLimit, q.userLimit = -1, -1
	q.clientRemaining, q.userRemaining = -1, -1
	q.loaded = false
}

// headerInt parses a non-negative integer header. Missing or malformed
// values are reported as absent.
func headerInt(h http.Header, key string) (int, bool) {
	raw := h.Get(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}
