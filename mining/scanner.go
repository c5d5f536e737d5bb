package mining

import (
	"context"
	"encoding/binary"
	"errors"
	"sync/atomic"

	"github.com/animica-network/animica/codec"
)

// Errors surfaced by the scanner's control contract (§4.9).
var (
	// ErrQueueFull is returned (never blocks) when the bounded output queue
	// has no room and the caller asked not to wait.
	ErrQueueFull = errors.New("mining: output queue full")
	// ErrKernelUnavailable means the requested device cannot run this
	// template (e.g. a GPU kernel whose single-block bound is exceeded) and
	// no fallback device was configured.
	ErrKernelUnavailable = errors.New("mining: kernel unavailable")
)

// Device identifies which hashing backend a Scanner drives.
type Device int

const (
	// DeviceCPU is mandatory and always available; it is also the reference
	// semantics every other device must agree with bit-for-bit.
	DeviceCPU Device = iota
	// DeviceGPU is optional. Its kernel assumes the whole per-nonce message
	// (header prefix || mixSeed || nonce) fits in a single Keccak block; a
	// Scanner configured for DeviceGPU falls back to DeviceCPU whenever that
	// bound is exceeded, per §4.9's device-abstraction contract.
	DeviceGPU
)

// singleKeccakBlockBytes is SHA3-256's 136-byte Keccak-f[1600] rate, used as
// the per-nonce message size above which a template does not fit the GPU
// kernel's single block.
const singleKeccakBlockBytes = 136

// FoundShare reports a nonce whose draw cleared the share threshold,
// carrying enough to re-verify or escalate to a block submission.
type FoundShare struct {
	JobID        string
	Nonce        uint64
	Digest       codec.Digest32
	U            float64
	DifficultyRatio float64
	IsBlock      bool
}

// FitsSingleBlock reports whether t's per-nonce message (prefix || mixSeed
// || nonce, 8 bytes) fits a single Keccak absorb block — the condition a
// GPU kernel needs before it may run this template at all.
func (t Template) FitsSingleBlock() bool {
	return len(t.prefix)+32+8 <= singleKeccakBlockBytes
}

// Scanner drives nonce-space scanning for one template at a time. It is
// safe for a single goroutine to own; concurrency across CPU cores is
// achieved by running multiple Scanners over disjoint nonce strides, the
// same "one worker per core" shape §5 describes.
type Scanner struct {
	Device     Device
	ShareTheta uint64 // θ_share_micro
	BlockTheta uint64 // Θ_micro (chain-level), 0 disables block-level checks
	Stride     uint64
	Start      uint64

	// CheckEvery bounds how many hashes pass between stop-flag polls;
	// §5 fixes this at 2048 for fast cancellation without per-hash overhead.
	CheckEvery uint64
}

// NewScanner builds a Scanner with the §5 default cancellation granularity.
func NewScanner(device Device, shareTheta, blockTheta, stride, start uint64) *Scanner {
	if stride == 0 {
		stride = 1
	}
	return &Scanner{
		Device:     device,
		ShareTheta: shareTheta,
		BlockTheta: blockTheta,
		Stride:     stride,
		Start:      start,
		CheckEvery: 2048,
	}
}

// Run scans t's nonce space starting at s.Start, stepping by s.Stride,
// until ctx is cancelled or stale reports true, sending every share it finds
// on out and continuing to scan. A full out (try-put semantics) drops the
// share rather than blocking, matching the "never block template
// advancement" rule; drops are reported only through the returned dropped
// count.
func (s *Scanner) Run(ctx context.Context, t Template, stale *atomic.Bool, out chan<- FoundShare) (dropped uint64, err error) {
	device := s.Device
	if device == DeviceGPU && !t.FitsSingleBlock() {
		device = DeviceCPU // silent degrade, not a hard failure (§4.9 KernelLaunchFailure)
	}

	prefix := t.HeaderPrefix()
	mix := t.Header.MixSeed.Bytes()

	nonce := s.Start
	var hashes uint64
	for {
		select {
		case <-ctx.Done():
			return dropped, ctx.Err()
		default:
		}
		if stale != nil && stale.Load() {
			return dropped, nil
		}

		digest := digestFor(device, prefix, mix, nonce)
		u := MapUniform(digest)

		if AcceptShare(u, s.ShareTheta) {
			found := FoundShare{
				JobID:           t.JobID,
				Nonce:           nonce,
				Digest:          digest,
				U:               u,
				DifficultyRatio: DifficultyRatio(u, s.ShareTheta),
			}
			if s.BlockTheta != 0 && AcceptBlock(u, s.BlockTheta) {
				found.IsBlock = true
				found.DifficultyRatio = DifficultyRatio(u, s.BlockTheta)
			}
			select {
			case out <- found:
			default:
				dropped++
			}
		}

		nonce += s.Stride
		hashes++
		if hashes%s.CheckEvery == 0 {
			select {
			case <-ctx.Done():
				return dropped, ctx.Err()
			default:
			}
			if stale != nil && stale.Load() {
				return dropped, nil
			}
		}
	}
}

// digestFor computes sha3_256(prefix || mixSeed || u64le(nonce)). GPU and
// CPU devices must agree bit-for-bit, so both paths call the identical
// primitive here; the device distinction only ever changes whether a
// template is eligible to run at all (FitsSingleBlock), never the digest
// itself — there is no separately-wired GPU hashing library in this build,
// so DeviceGPU is modeled as "the same computation, gated by the kernel's
// structural size bound" rather than a distinct code path.
func digestFor(device Device, prefix, mix []byte, nonce uint64) codec.Digest32 {
	return Digest(prefix, mix, nonce)
}

// Digest computes the per-nonce PoIES draw input sha3_256(prefix ||
// mixSeed || u64le(nonce)). Exported so submitters (Stratum, RPC) can
// re-derive and verify a submitted nonce without importing scanner
// internals.
func Digest(prefix, mixSeed []byte, nonce uint64) codec.Digest32 {
	var nonceLE [8]byte
	binary.LittleEndian.PutUint64(nonceLE[:], nonce)
	return codec.SHA3_256(prefix, mixSeed, nonceLE[:])
}
