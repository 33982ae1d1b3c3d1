// Package electrum implements the Electrum JSON-RPC probe: transport
// fallback (SSL then plaintext), method fallback, and Bitcoin block-header
// parsing. This is the hard core of the check-execution pipeline.
package electrum

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"io"
	"net"
	"time"

	"github.com/zecrocks/hosh/internal/dialer"
)

const (
	connTimeout  = 5 * time.Second  // reachability pre-check, spec §4.1
	rpcTimeout   = 10 * time.Second // per-attempt read/write deadline, spec §4.1
	messageDelim = byte('\n')
	maxFrameSize = 1 << 20 // 1 MiB cap, spec §9 Open Question resolution
)

var (
	ErrFrameTooLarge = errors.New("electrum: response exceeded frame size cap")
	ErrShortWrite    = errors.New("electrum: short write")
	ErrIDMismatch    = errors.New("electrum: response id mismatch")
)

// RequestMessage is a single JSON-RPC 1.0-style request, newline-terminated
// on the wire.
type RequestMessage struct {
	ID     uint64        `json:"id"`
	Method string        `json:"method"`
	Params []interface{} `json:"params"`
}

// ErrorResponse is the `error` sub-object of a JSON-RPC response.
type ErrorResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Raw     json.RawMessage `json:"-"`
}

// ResponseMessage is a single JSON-RPC response. Result is left as
// RawMessage so callers can apply the §4.1 parsing rules themselves
// without a second round of type assertions.
type ResponseMessage struct {
	ID      uint64          `json:"id"`
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *ErrorResponse  `json:"error"`
}

// HasResult reports whether the response carries a non-null top-level
// result field, per spec §4.1's classification rule.
func (r *ResponseMessage) HasResult() bool {
	return len(r.Result) > 0 && string(r.Result) != "null"
}

// Transport is one connected Electrum session: TCP or SSL, to one host.
type Transport interface {
	Send(ctx context.Context, req RequestMessage) (*ResponseMessage, time.Duration, error)
	Close() error
	ConnectionType() ConnectionType
	SelfSigned() bool
}

// ConnectionType mirrors model.ConnectionType without importing it, keeping
// this package's only dependency on higher layers confined to adapter.go.
type ConnectionType string

const (
	TypeSSL       ConnectionType = "SSL"
	TypePlaintext ConnectionType = "Plaintext"
)

type tcpTransport struct {
	conn       net.Conn
	reader     *bufio.Reader
	connType   ConnectionType
	selfSigned bool
}

// DialTCP opens a plaintext connection to addr via d.
func DialTCP(ctx context.Context, d dialer.Dialer, addr string) (Transport, error) {
	conn, err := d.DialTimeout(ctx, addr, connTimeout)
	if err != nil {
		return nil, err
	}
	return &tcpTransport{conn: conn, reader: bufio.NewReader(conn), connType: TypePlaintext}, nil
}

// DialSSL opens a TLS connection to addr via d with certificate
// verification disabled: many ElectrumX operators run self-signed certs,
// and this system observes operators, it does not trust them (spec §4.1).
func DialSSL(ctx context.Context, d dialer.Dialer, addr, sni string) (Transport, error) {
	conn, err := d.DialTimeout(ctx, addr, connTimeout)
	if err != nil {
		return nil, err
	}
	tlsConn := tls.Client(conn, &tls.Config{
		InsecureSkipVerify: true,
		ServerName:         sni,
	})
	tlsConn.SetDeadline(time.Now().Add(connTimeout))
	if err := tlsConn.Handshake(); err != nil {
		conn.Close()
		return nil, err
	}
	tlsConn.SetDeadline(time.Time{})
	return &tcpTransport{conn: tlsConn, reader: bufio.NewReader(tlsConn), connType: TypeSSL, selfSigned: true}, nil
}

func (t *tcpTransport) ConnectionType() ConnectionType { return t.connType }
func (t *tcpTransport) SelfSigned() bool                { return t.selfSigned }

func (t *tcpTransport) Send(ctx context.Context, req RequestMessage) (*ResponseMessage, time.Duration, error) {
	deadline := time.Now().Add(rpcTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, 0, err
	}
	body = append(body, messageDelim)

	start := time.Now()

	_ = t.conn.SetWriteDeadline(deadline)
	n, err := t.conn.Write(body)
	if err != nil {
		return nil, 0, err
	}
	if n != len(body) {
		return nil, 0, ErrShortWrite
	}

	_ = t.conn.SetWriteDeadline(time.Time{})
	_ = t.conn.SetReadDeadline(deadline)

	line, err := readFrame(t.reader)
	elapsed := time.Since(start)
	if err != nil {
		return nil, elapsed, err
	}
	_ = t.conn.SetReadDeadline(time.Time{})

	var resp ResponseMessage
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, elapsed, err
	}
	if resp.ID != req.ID {
		return nil, elapsed, ErrIDMismatch
	}

	return &resp, elapsed, nil
}

// readFrame reads up to the first newline, capped at maxFrameSize so a
// misbehaving or malicious server can't exhaust memory with an unterminated
// stream (spec §9: "read until first \n ... with a cap").
func readFrame(r *bufio.Reader) ([]byte, error) {
	var buf []byte
	for {
		chunk, err := r.ReadSlice(messageDelim)
		buf = append(buf, chunk...)
		if len(buf) > maxFrameSize {
			return nil, ErrFrameTooLarge
		}
		if err == nil {
			return buf, nil
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		if err == io.EOF && len(chunk) > 0 {
			return buf, nil
		}
		return nil, err
	}
}

func (t *tcpTransport) Close() error {
	return t.conn.Close()
}
