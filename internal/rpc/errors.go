package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/url"
	"strings"
	"syscall"
)

// Kind is the stable category of a failed call. Callers branch on Kind
// instead of parsing node-specific messages.
type Kind string

const (
	KindTransport            Kind = "TransportError"
	KindProtocolAnomaly      Kind = "ProtocolAnomaly"
	KindExecutionReverted    Kind = "ExecutionReverted"
	KindInsufficientFunds    Kind = "InsufficientFunds"
	KindNonceTooLow          Kind = "NonceTooLow"
	KindUnauthorized         Kind = "Unauthorized"
	KindUnknownProtocolError Kind = "UnknownProtocolError"
	KindUnknown              Kind = "UnknownError"
)

// Sentinels for errors.Is. A *ClassifiedError matches the sentinel of its kind.
var (
	ErrTransport            = &ClassifiedError{Kind: KindTransport, Message: "transport failure"}
	ErrProtocolAnomaly      = &ClassifiedError{Kind: KindProtocolAnomaly, Message: "protocol anomaly"}
	ErrExecutionReverted    = &ClassifiedError{Kind: KindExecutionReverted, Message: "execution reverted"}
	ErrInsufficientFunds    = &ClassifiedError{Kind: KindInsufficientFunds, Message: "insufficient funds"}
	ErrNonceTooLow          = &ClassifiedError{Kind: KindNonceTooLow, Message: "nonce too low"}
	ErrUnauthorized         = &ClassifiedError{Kind: KindUnauthorized, Message: "unauthorized"}
	ErrUnknownProtocolError = &ClassifiedError{Kind: KindUnknownProtocolError, Message: "unknown protocol error"}
	ErrUnknown              = &ClassifiedError{Kind: KindUnknown, Message: "unknown error"}
)

// ClassifiedError is the only failure shape that leaves the provider for a
// network-bound call. Payload keeps whatever was classified for diagnostics.
type ClassifiedError struct {
	Kind    Kind
	Code    int // node error code, 0 when the failure did not come from a node
	Message string
	Payload interface{}
}

func (e *ClassifiedError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s (code %d): %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ClassifiedError) Unwrap() error {
	if err, ok := e.Payload.(error); ok {
		return err
	}
	return nil
}

// Is matches any *ClassifiedError of the same kind, which is what makes the
// Err* sentinels work with errors.Is.
func (e *ClassifiedError) Is(target error) bool {
	t, ok := target.(*ClassifiedError)
	return ok && t.Kind == e.Kind
}

// KindOf returns the kind of err, or "" if err is not classified.
func KindOf(err error) Kind {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// TransportFailure marks an error as "the call never got a usable answer".
// Transports return plain errors; the provider wraps them in this type
// before classification so every transport error lands in KindTransport.
type TransportFailure struct {
	Err error
}

func (e *TransportFailure) Error() string { return "transport: " + e.Err.Error() }
func (e *TransportFailure) Unwrap() error { return e.Err }

// AnomalyError reports a response whose id does not match its request.
type AnomalyError struct {
	Want uint64
	Got  uint64
}

func (e *AnomalyError) Error() string {
	return fmt.Sprintf("invalid RPC id: sent %d, received %d", e.Want, e.Got)
}

// Node error codes with a fixed meaning.
const (
	codeRevertWithData   = 3      // geth: execution reverted, data carries the reason
	codeParityExecution  = -32015 // openethereum: VM execution error
	codeUserRejected     = 4001   // EIP-1193
	codeUnauthorized     = 4100   // EIP-1193
	codeServerError      = -32000 // geth: catch-all for transaction failures
	codeTransactionError = -32010 // openethereum: transaction rejected
	codeTxRejected       = -32003 // EIP-1474: transaction rejected
)

// Classify maps an arbitrary failure to a ClassifiedError. It never panics
// and never returns nil. Rules, first match wins:
//
//  1. an already classified error is returned unchanged
//  2. an id mismatch is a protocol anomaly
//  3. anything that means "no usable answer arrived" is a transport error
//  4. a node error object is mapped through the code table
//  5. everything else is unknown, with the payload kept
func Classify(raw interface{}) (classified *ClassifiedError) {
	defer func() {
		if r := recover(); r != nil {
			classified = &ClassifiedError{Kind: KindUnknown, Message: fmt.Sprint(r), Payload: raw}
		}
	}()

	switch v := raw.(type) {
	case nil:
		return &ClassifiedError{Kind: KindUnknown, Message: "empty failure"}
	case *ClassifiedError:
		if v == nil {
			return &ClassifiedError{Kind: KindUnknown, Message: "empty failure"}
		}
		return v
	case *AnomalyError:
		return &ClassifiedError{Kind: KindProtocolAnomaly, Message: v.Error(), Payload: v}
	case *RPCError:
		if v == nil {
			return &ClassifiedError{Kind: KindUnknown, Message: "empty failure"}
		}
		return classifyNodeError(v.Code, v.Message, v)
	case RPCError:
		return classifyNodeError(v.Code, v.Message, &v)
	case map[string]interface{}:
		if code, msg, ok := nodeErrorFromMap(v); ok {
			return classifyNodeError(code, msg, v)
		}
		return &ClassifiedError{Kind: KindUnknown, Message: fmt.Sprint(v), Payload: v}
	case error:
		return classifyError(v)
	case string:
		return &ClassifiedError{Kind: KindUnknown, Message: v, Payload: v}
	default:
		return &ClassifiedError{Kind: KindUnknown, Message: fmt.Sprintf("%v", v), Payload: v}
	}
}

func classifyError(err error) *ClassifiedError {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce
	}
	var anomaly *AnomalyError
	if errors.As(err, &anomaly) {
		return &ClassifiedError{Kind: KindProtocolAnomaly, Message: anomaly.Error(), Payload: err}
	}
	if isTransportError(err) {
		return &ClassifiedError{Kind: KindTransport, Message: err.Error(), Payload: err}
	}
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		c := classifyNodeError(rpcErr.Code, rpcErr.Message, rpcErr)
		c.Payload = err
		return c
	}
	return &ClassifiedError{Kind: KindUnknown, Message: err.Error(), Payload: err}
}

func isTransportError(err error) bool {
	var (
		tf      *TransportFailure
		netErr  net.Error
		urlErr  *url.Error
		syntax  *json.SyntaxError
		typeErr *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &tf),
		errors.As(err, &netErr),
		errors.As(err, &urlErr),
		errors.As(err, &syntax),
		errors.As(err, &typeErr):
		return true
	}
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}

// nodeErrorFromMap accepts {"code": <number>, "message": <string>} as decoded
// by encoding/json into a generic map.
func nodeErrorFromMap(m map[string]interface{}) (int, string, bool) {
	var code int
	switch c := m["code"].(type) {
	case float64:
		if c != math.Trunc(c) || math.IsInf(c, 0) || math.IsNaN(c) {
			return 0, "", false
		}
		code = int(c)
	case int:
		code = c
	case int64:
		code = int(c)
	case json.Number:
		n, err := c.Int64()
		if err != nil {
			return 0, "", false
		}
		code = int(n)
	default:
		return 0, "", false
	}
	msg, _ := m["message"].(string)
	return code, msg, true
}

func classifyNodeError(code int, message string, payload interface{}) *ClassifiedError {
	kind := KindUnknownProtocolError
	switch code {
	case codeRevertWithData, codeParityExecution:
		kind = KindExecutionReverted
	case codeUserRejected, codeUnauthorized:
		kind = KindUnauthorized
	case codeServerError, codeTransactionError, codeTxRejected:
		kind = kindFromMessage(message)
	}
	return &ClassifiedError{Kind: kind, Code: code, Message: message, Payload: payload}
}

// kindFromMessage resolves the generic server codes, which nodes reuse for
// every transaction failure and only distinguish by message.
func kindFromMessage(message string) Kind {
	m := strings.ToLower(message)
	switch {
	case strings.Contains(m, "revert"):
		return KindExecutionReverted
	case strings.Contains(m, "insufficient funds"):
		return KindInsufficientFunds
	case strings.Contains(m, "nonce too low"), strings.Contains(m, "nonce is too low"):
		return KindNonceTooLow
	case strings.Contains(m, "unknown account"),
		strings.Contains(m, "authentication needed"),
		strings.Contains(m, "unauthorized"),
		strings.Contains(m, "locked"):
		return KindUnauthorized
	}
	return KindUnknownProtocolError
}
