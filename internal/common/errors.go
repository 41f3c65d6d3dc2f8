// Package common defines sentinel errors shared by the seedbox client, the
// storage client and the transfer pipeline. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Session errors.
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Seedbox errors.
	ErrMagnetRejected   = errors.New("seedbox rejected the magnet link")
	ErrNoDownloadedFile = errors.New("could not find downloaded file in seedbox")
	ErrNoDownloadURL    = errors.New("could not get download URL from seedbox")

	// Pipeline errors.
	ErrCancelled = errors.New("transfer cancelled")
)
