// Package ratelimit keeps imagegrab within the request budgets of the APIs
// it talks to.
//
// QuotaLimiter tracks a server-reported quota with two counters, a
// client-wide one shared by every user of a client id and a per-user one.
// It is loaded once from an authoritative source and then corrected from the
// remaining-count headers of every response:
//
//	limiter := ratelimit.NewQuotaLimiter(creditsSource, log)
//	limiter.EnsureLoaded(ctx)
//	if limiter.IsRequestAllowed() {
//	    resp := doRequest()
//	    limiter.UpdateLimit(resp.Header)
//	}
//
// Pacer is a plain client-side throttle, one token bucket per host, used by
// the shared HTTP client.
package ratelimit
