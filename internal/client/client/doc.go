// Package client talks to the Draped HTTP API.
//
// Gateway sends every request: it attaches the session's bearer token, tags
// the request with an X-Request-ID, applies the per-request timeout and, on
// a 401, refreshes the token pair once and re-issues the request once.
// Concurrent refreshes share one call. A refresh that cannot succeed logs
// the session out and the caller sees the original 401.
//
// HTTPClient builds the typed endpoints (auth, jobs, results, user) on top
// of Gateway and implements Client.
//
// Failures match the sentinels ErrUnavailable, ErrTimeout and ErrUnauthorized
// with errors.Is; HTTP errors are *APIError carrying the server's detail.
//
// InitDatabase and RunMigrations open the local SQLite database holding the
// session and apply the embedded goose migrations.
package client
