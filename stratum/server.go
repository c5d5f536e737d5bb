package stratum

import (
	"bufio"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/animica-network/animica/codec"
)

// Server is the dual-dialect Stratum/JSON-RPC mining server (§4.10). A
// session set guarded by one mutex is broadcast to on publish and pruned of
// dead writers as they fail, matching §5's session-set concurrency rule.
type Server struct {
	Validator     ShareValidator
	MaxFrameBytes uint32

	// PoolAuth, when set, requires every authorize call to carry a BLS
	// pool-authorization token (§4.10's optional pool-authorization path)
	// verified against the pool's key before a session may submit.
	PoolAuth *PoolAuthVerifier

	// SubmitHook observes every submit call after validation, independent
	// of what response was sent: (session, job, params, result).
	SubmitHook func(*Session, Job, SubmitParams, ValidationResult)

	mu       sync.Mutex
	sessions map[string]*Session

	jobMu sync.RWMutex
	job   *Job

	// seenMu guards seen, the per-job (jobId, nonce) dedup set (§8
	// Testable Property #10): cleared whenever PublishJob rotates to a
	// new jobId, since a stale job's nonces are already rejected by the
	// job-id check and need not be remembered forever.
	seenMu sync.Mutex
	seen   map[shareKey]struct{}

	log *logrus.Logger
}

// shareKey identifies one (jobId, nonce) submission for dedup purposes.
type shareKey struct {
	jobID string
	nonce uint64
}

// NewServer builds a Server with a validator (pass StructuralValidator{}
// for dev-mode structural-only acceptance).
func NewServer(validator ShareValidator) *Server {
	if validator == nil {
		validator = StructuralValidator{}
	}
	return &Server{
		Validator:     validator,
		MaxFrameBytes: 1 << 20,
		sessions:      make(map[string]*Session),
		seen:          make(map[shareKey]struct{}),
		log:           logrus.StandardLogger(),
	}
}

// Serve accepts connections on ln until ctx is cancelled or the listener
// errors.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	sess := newSession(conn)
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.sessions, sess.ID)
		s.mu.Unlock()
		conn.Close()
	}()

	reader := bufio.NewReader(conn)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		frame, err := s.readFrame(reader, sess)
		if err != nil {
			return
		}

		var req Request
		if err := json.Unmarshal(frame, &req); err != nil {
			s.writeResponse(sess, errorResponse(nil, CodeInvalidRequest, "malformed json-rpc frame"))
			continue
		}
		if req.Method == "" {
			s.writeResponse(sess, errorResponse(req.ID, CodeInvalidRequest, "missing method"))
			continue
		}

		if sess.Dialect == DialectNative && sess.State == StateConnected {
			sess.Dialect = detectDialect(req.Method)
		}

		resp := s.dispatch(sess, req)
		s.writeResponse(sess, resp)
	}
}

func (s *Server) readFrame(r *bufio.Reader, sess *Session) ([]byte, error) {
	if sess.framed {
		return codec.ReadLengthPrefixed(r, s.MaxFrameBytes)
	}
	line, err := r.ReadBytes('\n')
	if err != nil && len(line) == 0 {
		return nil, err
	}
	return line, nil
}

func (s *Server) writeResponse(sess *Session, resp Response) {
	if resp.JSONRPC == "" && sess.Dialect == DialectNative {
		resp.JSONRPC = "2.0"
	}
	b, err := json.Marshal(resp)
	if err != nil {
		return
	}
	s.writeFrame(sess, b)
}

func (s *Server) writeFrame(sess *Session, b []byte) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	var err error
	if sess.framed {
		err = codec.WriteLengthPrefixed(sess.writer, b)
	} else {
		_, err = sess.writer.Write(append(b, '\n'))
	}
	if err == nil {
		err = sess.writer.Flush()
	}
	if err != nil {
		s.log.WithError(err).WithField("session", sess.ID).Warn("stratum: dropping unresponsive session")
		go func() { sess.conn.Close() }()
	}
}

func (s *Server) dispatch(sess *Session, req Request) Response {
	method := req.Method
	switch {
	case method == "miner.subscribe" || method == "mining.subscribe":
		sess.advance(StateSubscribed)
		return resultResponse(req.ID, []interface{}{sess.ID, ""})

	case method == "miner.authorize" || method == "mining.authorize":
		return s.handleAuthorize(sess, req)

	case method == "miner.submit" || method == "mining.submit":
		return s.handleSubmit(sess, req)

	default:
		return errorResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("unknown method %q", method))
	}
}

// handleAuthorize processes miner.authorize/mining.authorize. When
// s.PoolAuth is configured, params must carry a second element: a hex-encoded
// BLS signature over the worker name, verified against the pool's key
// before the session advances to StateAuthorized.
func (s *Server) handleAuthorize(sess *Session, req Request) Response {
	var params []string
	if err := decodeParams(req.Params, &params); err != nil || len(params) == 0 {
		return errorResponse(req.ID, CodeInvalidParams, "authorize requires a worker name")
	}
	worker := params[0]

	if s.PoolAuth != nil {
		if len(params) < 2 {
			return errorResponse(req.ID, CodeUnauthorized, "pool authorization token required")
		}
		token, err := hex.DecodeString(params[1])
		if err != nil || !s.PoolAuth.Verify(worker, token) {
			return errorResponse(req.ID, CodeUnauthorized, "invalid pool authorization token")
		}
	}

	sess.Worker = worker
	sess.advance(StateAuthorized)
	return resultResponse(req.ID, true)
}

func (s *Server) handleSubmit(sess *Session, req Request) Response {
	if sess.State < StateAuthorized {
		return errorResponse(req.ID, CodeUnauthorized, "session not authorized")
	}
	params, err := decodeSubmit(sess.Dialect, req.Params)
	if err != nil {
		return errorResponse(req.ID, CodeInvalidParams, err.Error())
	}

	s.jobMu.RLock()
	current := s.job
	s.jobMu.RUnlock()
	if current == nil || current.Template.JobID != params.JobID {
		return errorResponse(req.ID, CodeStaleJob, "stale or unknown job id")
	}

	key := shareKey{jobID: params.JobID, nonce: params.Nonce}
	s.seenMu.Lock()
	if _, dup := s.seen[key]; dup {
		s.seenMu.Unlock()
		return errorResponse(req.ID, CodeDuplicateShare, "duplicate share")
	}
	s.seen[key] = struct{}{}
	s.seenMu.Unlock()

	result := s.Validator.Validate(*current, params)
	if s.SubmitHook != nil {
		s.SubmitHook(sess, *current, params, result)
	}
	if !result.Accepted {
		return errorResponse(req.ID, reasonCode(result.Reason), result.Reason)
	}
	sess.advance(StateReceivingJobs)
	return resultResponse(req.ID, true)
}

func reasonCode(reason string) int {
	switch reason {
	case "stale-job":
		return CodeStaleJob
	case "duplicate":
		return CodeDuplicateShare
	case "low-difficulty":
		return CodeLowDifficulty
	default:
		return CodeInternal
	}
}

func decodeParams(raw json.RawMessage, out interface{}) error {
	if len(raw) == 0 {
		return fmt.Errorf("missing params")
	}
	return json.Unmarshal(raw, out)
}

func decodeSubmit(dialect Dialect, raw json.RawMessage) (SubmitParams, error) {
	if dialect == DialectStratumV1 {
		var arr []string
		if err := decodeParams(raw, &arr); err != nil || len(arr) < 3 {
			return SubmitParams{}, fmt.Errorf("submit requires [worker, jobId, extraNonce2, nonce]")
		}
		var nonce uint64
		if _, err := fmt.Sscanf(arr[len(arr)-1], "%x", &nonce); err != nil {
			return SubmitParams{}, fmt.Errorf("invalid nonce hex: %w", err)
		}
		return SubmitParams{Worker: arr[0], JobID: arr[1], Nonce: nonce}, nil
	}
	var named struct {
		JobID  string `json:"jobId"`
		Nonce  uint64 `json:"nonce"`
		Worker string `json:"worker"`
	}
	if err := decodeParams(raw, &named); err != nil {
		return SubmitParams{}, fmt.Errorf("invalid submit params: %w", err)
	}
	return SubmitParams{JobID: named.JobID, Nonce: named.Nonce, Worker: named.Worker}, nil
}

// PublishJob sets the active job and pushes a notify/mining.notify
// broadcast to every Subscribed-or-later session, dialect-appropriate,
// pruning any session whose write fails.
func (s *Server) PublishJob(job Job) {
	s.jobMu.Lock()
	prev := s.job
	s.job = &job
	s.jobMu.Unlock()

	if prev == nil || prev.Template.JobID != job.Template.JobID {
		s.seenMu.Lock()
		s.seen = make(map[shareKey]struct{})
		s.seenMu.Unlock()
	}

	s.mu.Lock()
	targets := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if sess.State >= StateSubscribed {
			targets = append(targets, sess)
		}
	}
	s.mu.Unlock()

	for _, sess := range targets {
		s.notify(sess, job)
	}
}

func (s *Server) notify(sess *Session, job Job) {
	var method string
	var params interface{}
	if sess.Dialect == DialectStratumV1 {
		method, params = "mining.notify", job.stratumV1Params()
	} else {
		method, params = "miner.notify", job.nativeParams()
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return
	}
	req := Request{Method: method, Params: paramsJSON}
	if sess.Dialect == DialectNative {
		req.JSONRPC = "2.0"
	}
	b, err := json.Marshal(req)
	if err != nil {
		return
	}
	s.writeFrame(sess, b)
	sess.advance(StateReceivingJobs)
}

// SessionCount reports how many sessions are currently connected.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
