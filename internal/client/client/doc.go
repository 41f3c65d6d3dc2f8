// Package client talks to a seedpipe server on behalf of the CLI.
//
// # Overview
//
// The package provides:
//  1. HTTPClient, which checks the application password over
//     POST /api/verify-password and receives a session token.
//  2. Session, a websocket connection to /ws that authenticates with that
//     token, starts a transfer and yields the server's events in order.
//
// # Error Handling
//
// Common conditions are exposed as sentinel errors that callers can match with
// errors.Is: ErrUnavailable, ErrUnauthorized.
//
// All blocking operations accept a context.Context and honour cancellation.
package client
