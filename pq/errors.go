package pq

import "errors"

var (
	ErrAlgorithmUnavailable = errors.New("pq: algorithm backend unavailable")
	ErrInvalidKeyLength     = errors.New("pq: invalid key length")
	ErrInvalidSignature     = errors.New("pq: signature verification failed")
	ErrDomainMismatch       = errors.New("pq: domain mismatch")
	ErrAlgMismatch          = errors.New("pq: algorithm mismatch")
	ErrUnknownAlgorithm     = errors.New("pq: unknown algorithm id or name")
	ErrDuplicateAlgorithm   = errors.New("pq: duplicate algorithm id or name in registry")
	ErrKindCollision        = errors.New("pq: signature and KEM algorithm ids must be disjoint")

	ErrMagicMismatch   = errors.New("pq: handshake magic mismatch")
	ErrTruncatedFrame  = errors.New("pq: truncated handshake frame")
	ErrUnsupportedKem  = errors.New("pq: unsupported KEM algorithm")
	ErrAuthInvalid     = errors.New("pq: handshake auth signature invalid")
)
