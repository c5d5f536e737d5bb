package stratum

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/animica-network/animica/chaintypes"
	"github.com/animica-network/animica/mining"
)

func sampleJob(t *testing.T, jobID string, theta uint64) Job {
	t.Helper()
	h, err := chaintypes.Genesis(chaintypes.GenesisParams{
		ChainID:    1,
		Timestamp:  100,
		ThetaMicro: theta,
	})
	if err != nil {
		t.Fatalf("genesis: %v", err)
	}
	tpl, err := mining.BuildTemplate(jobID, h, nil, nil)
	if err != nil {
		t.Fatalf("template: %v", err)
	}
	return Job{Template: tpl, Difficulty: theta}
}

func startTestServer(t *testing.T) (*Server, net.Listener, func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := NewServer(StructuralValidator{})
	ctx, cancel := context.WithCancel(context.Background())
	go srv.Serve(ctx, ln)
	return srv, ln, func() { cancel(); ln.Close() }
}

func rpcCall(t *testing.T, rw *bufio.ReadWriter, id int, method string, params interface{}) Response {
	t.Helper()
	p, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}
	req := Request{JSONRPC: "2.0", ID: json.RawMessage(fmt.Sprintf("%d", id)), Method: method, Params: p}
	b, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal req: %v", err)
	}
	if _, err := rw.Write(append(b, '\n')); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := rw.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	line, err := rw.ReadBytes('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	return resp
}

func TestStratumSubscribeAuthorizeSubmitAccepted(t *testing.T) {
	srv, ln, cleanup := startTestServer(t)
	defer cleanup()

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	rw := bufio.NewReadWriter(bufio.NewReader(conn), bufio.NewWriter(conn))

	if resp := rpcCall(t, rw, 1, "miner.subscribe", []interface{}{}); resp.Error != nil {
		t.Fatalf("subscribe error: %+v", resp.Error)
	}
	if resp := rpcCall(t, rw, 2, "miner.authorize", []string{"worker1"}); resp.Error != nil {
		t.Fatalf("authorize error: %+v", resp.Error)
	}

	// theta=0 accepts any nonce immediately.
	job := sampleJob(t, "job-A", 0)
	srv.PublishJob(job)

	resp := rpcCall(t, rw, 3, "miner.submit", map[string]interface{}{"jobId": "job-A", "nonce": 0, "worker": "worker1"})
	if resp.Error != nil {
		t.Fatalf("expected submit to be accepted, got %+v", resp.Error)
	}
}

func TestStratumSubmitRejectsStaleJob(t *testing.T) {
	_, ln, cleanup := startTestServer(t)
	defer cleanup()

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	rw := bufio.NewReadWriter(bufio.NewReader(conn), bufio.NewWriter(conn))

	rpcCall(t, rw, 1, "miner.subscribe", []interface{}{})
	rpcCall(t, rw, 2, "miner.authorize", []string{"worker1"})

	resp := rpcCall(t, rw, 3, "miner.submit", map[string]interface{}{"jobId": "no-such-job", "nonce": 0, "worker": "worker1"})
	if resp.Error == nil || resp.Error.Code != CodeStaleJob {
		t.Fatalf("expected STALE_JOB error, got %+v", resp.Error)
	}
}

func TestStratumUnauthorizedSubmitRejected(t *testing.T) {
	_, ln, cleanup := startTestServer(t)
	defer cleanup()

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	rw := bufio.NewReadWriter(bufio.NewReader(conn), bufio.NewWriter(conn))

	resp := rpcCall(t, rw, 1, "miner.submit", map[string]interface{}{"jobId": "x", "nonce": 0})
	if resp.Error == nil || resp.Error.Code != CodeUnauthorized {
		t.Fatalf("expected unauthorized rejection, got %+v", resp.Error)
	}
}

func TestStratumSubmitRejectsDuplicateShare(t *testing.T) {
	srv, ln, cleanup := startTestServer(t)
	defer cleanup()

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	rw := bufio.NewReadWriter(bufio.NewReader(conn), bufio.NewWriter(conn))

	rpcCall(t, rw, 1, "miner.subscribe", []interface{}{})
	rpcCall(t, rw, 2, "miner.authorize", []string{"worker1"})

	job := sampleJob(t, "job-dup", 0)
	srv.PublishJob(job)

	params := map[string]interface{}{"jobId": "job-dup", "nonce": 7, "worker": "worker1"}
	first := rpcCall(t, rw, 3, "miner.submit", params)
	if first.Error != nil {
		t.Fatalf("expected first submit to be accepted, got %+v", first.Error)
	}

	second := rpcCall(t, rw, 4, "miner.submit", params)
	if second.Error == nil || second.Error.Code != CodeDuplicateShare {
		t.Fatalf("expected duplicate-share rejection, got %+v", second.Error)
	}
}

func TestStratumSubmitDuplicateClearedOnJobRotation(t *testing.T) {
	srv, ln, cleanup := startTestServer(t)
	defer cleanup()

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	rw := bufio.NewReadWriter(bufio.NewReader(conn), bufio.NewWriter(conn))

	rpcCall(t, rw, 1, "miner.subscribe", []interface{}{})
	rpcCall(t, rw, 2, "miner.authorize", []string{"worker1"})

	srv.PublishJob(sampleJob(t, "job-rot-1", 0))
	first := rpcCall(t, rw, 3, "miner.submit", map[string]interface{}{"jobId": "job-rot-1", "nonce": 1, "worker": "worker1"})
	if first.Error != nil {
		t.Fatalf("expected first submit accepted, got %+v", first.Error)
	}

	srv.PublishJob(sampleJob(t, "job-rot-2", 0))
	resp := rpcCall(t, rw, 4, "miner.submit", map[string]interface{}{"jobId": "job-rot-2", "nonce": 1, "worker": "worker1"})
	if resp.Error != nil {
		t.Fatalf("same nonce under a new job must not be treated as duplicate, got %+v", resp.Error)
	}
}

func TestStratumDialectDetectionFromMethodPrefix(t *testing.T) {
	if detectDialect("mining.subscribe") != DialectStratumV1 {
		t.Fatalf("mining.* must detect as Stratum v1")
	}
	if detectDialect("miner.subscribe") != DialectNative {
		t.Fatalf("miner.* must detect as native")
	}
}

func TestStratumPublishJobReachesSubscribedSession(t *testing.T) {
	srv, ln, cleanup := startTestServer(t)
	defer cleanup()

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	rw := bufio.NewReadWriter(bufio.NewReader(conn), bufio.NewWriter(conn))
	rpcCall(t, rw, 1, "miner.subscribe", []interface{}{})

	job := sampleJob(t, "job-B", 500000)
	srv.PublishJob(job)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := rw.ReadBytes('\n')
	if err != nil {
		t.Fatalf("expected a pushed notify, got error: %v", err)
	}
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		t.Fatalf("unmarshal notify: %v", err)
	}
	if req.Method != "miner.notify" {
		t.Fatalf("expected miner.notify push, got %q", req.Method)
	}
}
