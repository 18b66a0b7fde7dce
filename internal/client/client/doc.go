// Package client is the transport layer of the huntlog CLI.
//
// # Overview
//
// HTTPClient sends JSON requests to the backend REST API. Every request
// carries the current access token from the session store. When the
// backend answers 401, the client makes one silent attempt to recover:
//
//  1. With no refresh token stored, the session is torn down and
//     ErrAuthExpired is returned without touching the network.
//  2. Otherwise POST /auth/refresh is called directly (never through Do).
//     On success the new access token is stored and the original request is
//     resubmitted once; whatever that attempt returns is final.
//  3. If the refresh fails the session is cleared, the session-expired hook
//     runs, and the error matches both ErrAuthExpired and the original 401.
//
// With WithSingleFlightRefresh concurrent 401s share one refresh call.
//
// # Error Handling
//
// Non-2xx responses are returned as *APIError and match the sentinels
// (ErrValidation, ErrUnauthorized, ErrConflict, ...) through errors.Is.
// Network failures wrap ErrUnavailable.
//
// # Storage
//
// OpenStorage, InitDatabase and RunMigrations bootstrap the durable
// session storage for the configured backend.
package client
