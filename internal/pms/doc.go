// Package pms implements the client for the upstream property-management
// platform's REST API.
//
// It is organized in three layers:
//
//   - TokenManager owns the OAuth client-credentials token lifecycle:
//     acquisition, caching with an early-expiry buffer, and single-flight
//     refresh coordination so concurrent callers share one token request.
//   - Transport is the shared resilient HTTP layer: keep-alive connections,
//     JSON content negotiation, and retry with exponential backoff on
//     transient failures (no response, 429, or 5xx).
//   - Client provides verb-oriented resource accessors that attach the
//     bearer token per call, plus ListAll, a pagination aggregator that
//     walks skip/limit pages to exhaustion.
//
// Errors from the upstream API are returned as *APIError carrying the
// status code and response body; classification into user-facing error
// kinds happens in the tool adapters, not here.
package pms
