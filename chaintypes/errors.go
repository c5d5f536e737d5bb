package chaintypes

import "errors"

// Consensus error taxonomy (§7). Validation-level errors (InvalidLength,
// InvalidEncoding, NonCanonical, DuplicateKey) are re-exported from codec by
// callers that need them; the errors below are specific to this package.
var (
	ErrHeaderVersionUnsupported = errors.New("chaintypes: unsupported header version")
	ErrRootMismatch             = errors.New("chaintypes: derived root does not match header")
	ErrUnknownType              = errors.New("chaintypes: unknown proof type id")
	ErrBadEnvelope              = errors.New("chaintypes: malformed proof envelope")
	ErrReceiptCountMismatch     = errors.New("chaintypes: receipts count does not match txs count")
	ErrChainIDMismatch          = errors.New("chaintypes: chainId mismatch")
)
