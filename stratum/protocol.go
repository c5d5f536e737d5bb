// Package stratum implements the dual-dialect mining server (§4.10): plain
// JSON-RPC 2.0 ("miner.*") for Animica-native miners, and classic Stratum v1
// ("mining.*", positional-array params) for off-the-shelf ASIC/GPU miners.
package stratum

import "encoding/json"

// JSON-RPC error codes. The -32000..-32099 server-defined band carries
// Animica's own share/job semantics (§6.3); the rest are the JSON-RPC 2.0
// standard codes.
const (
	CodeInvalidRequest  = -32600
	CodeMethodNotFound  = -32601
	CodeInvalidParams   = -32602
	CodeInternal        = -32603
	CodeStaleJob        = -32004
	CodeDuplicateShare  = -32005
	CodeLowDifficulty   = -32006
	CodeUnauthorized    = -32007
)

// Request is a JSON-RPC 2.0 request/notification. ID is nil for
// notifications (server -> client pushes like mining.notify).
type Request struct {
	JSONRPC string          `json:"jsonrpc,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc,omitempty"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is the JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func errorResponse(id json.RawMessage, code int, msg string) Response {
	return Response{ID: id, Error: &RPCError{Code: code, Message: msg}}
}

func resultResponse(id json.RawMessage, result interface{}) Response {
	return Response{ID: id, Result: result}
}

// Dialect distinguishes how a session frames and names its methods.
type Dialect int

const (
	// DialectNative speaks "miner.*" methods with full JSON-RPC 2.0
	// semantics (named or positional params, jsonrpc field present).
	DialectNative Dialect = iota
	// DialectStratumV1 speaks "mining.*" methods, array-only params, and
	// typically omits the jsonrpc version field.
	DialectStratumV1
)

// detectDialect classifies an inbound request by its method prefix, which
// is the only reliable signal before a session declares itself — Stratum v1
// clients send "mining.subscribe" first, Animica-native clients send
// "miner.subscribe".
func detectDialect(method string) Dialect {
	if len(method) >= 7 && method[:7] == "mining." {
		return DialectStratumV1
	}
	return DialectNative
}
