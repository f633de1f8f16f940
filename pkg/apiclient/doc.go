// Package apiclient wraps net/http with the behaviour every imagegrab source
// needs: default headers, per-host pacing, debug logging of each request,
// JSON decoding and mapping of failed statuses to typed errors.
package apiclient
