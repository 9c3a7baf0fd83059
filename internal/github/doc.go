// Package github is the data source adapter for controldeck.
//
// # Overview
//
// The package wraps the GitHub REST API (via go-github) behind a single
// operation, Fetch, which returns an Outcome: either a full replacement Bundle
// of profile, repositories, events and rate-limit data, or a classified
// failure. Callers never see go-github types or HTTP details.
//
// # Classification
//
// Every failure is mapped onto one Kind:
//
//	KindTransient     network errors, timeouts, 5xx, decode failures
//	KindRateLimited   primary/secondary rate limits and HTTP 429, with RetryAfter
//	KindUnauthorized  HTTP 401 (bad or expired token)
//	KindNotFound      HTTP 404 (unknown user)
//
// Errors are returned as *FetchError so errors.As and KindOf work through
// wrapping.
//
// # Timeouts
//
// Each Fetch runs under its own deadline (20s by default, WithTimeout to
// change). A timeout surfaces as KindTransient; callers do not need to bound
// the call themselves.
//
// # Events
//
// The activity feed is fetched last and treated as optional: a transient
// failure there still yields a successful Outcome with nil Events, which the
// state merge reads as "nothing new" rather than "feed is empty".
//
// # Testing
//
// Fetcher is the interface consumed by the scheduler. Tests point a real
// Client at an httptest server with WithBaseURL.
package github
