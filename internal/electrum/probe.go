package electrum

import (
	"context"
	"encoding/json"
	"net"
	"strconv"

	"github.com/zecrocks/hosh/internal/dialer"
)

// Ports is the caller's port preference: SSL and/or plaintext, either of
// which may be absent (zero).
type Ports struct {
	SSL int
	TCP int
}

// Result is the outcome of one Electrum probe, independent of the bus/
// registry wire format; callers adapt it into model.ProbeResult.
type Result struct {
	Online         bool
	PingMS         float64
	ResolvedIPs    []string
	MethodUsed     string
	ConnectionType ConnectionType
	SelfSigned     bool
	Header         *ParsedHeader
	Height         *int64
	ServerVersion  string
	Extra          map[string]interface{}
	ErrorKind      string
}

const (
	KindHostUnreachable = "host_unreachable"
	KindConnection      = "connection_error"
	KindProtocol        = "protocol_error"
	KindTimeout         = "timeout"
	KindTor             = "tor_error"
)

// transportOrder builds the ordered list of (kind, port) pairs to attempt,
// SSL before plaintext, per spec §4.1.
func transportOrder(ports Ports) []struct {
	kind string
	port int
} {
	var order []struct {
		kind string
		port int
	}
	if ports.SSL > 0 {
		order = append(order, struct {
			kind string
			port int
		}{"ssl", ports.SSL})
	}
	if ports.TCP > 0 {
		order = append(order, struct {
			kind string
			port int
		}{"tcp", ports.TCP})
	}
	return order
}

// Probe executes the full transport-fallback, method-fallback, header-parse
// state machine described in spec §4.1 against one host.
func Probe(ctx context.Context, host string, ports Ports, method string, params []interface{}, onionHost, onionPort string) Result {
	order := transportOrder(ports)
	if len(order) == 0 {
		return Result{ErrorKind: KindHostUnreachable}
	}

	isOnion := dialer.IsOnion(host)
	d := dialer.For(host, onionHost, onionPort)

	var resolvedIPs []string
	if !isOnion {
		resolvedIPs = resolveIPs(ctx, host)
	}

	if !reachable(ctx, d, host, order) {
		kind := KindHostUnreachable
		if isOnion {
			kind = KindTor
		}
		return Result{ResolvedIPs: resolvedIPs, ErrorKind: kind}
	}

	lastKind := KindProtocol
	for _, o := range order {
		addr := net.JoinHostPort(host, strconv.Itoa(o.port))

		var transport Transport
		var err error
		if o.kind == "ssl" {
			transport, err = DialSSL(ctx, d, addr, host)
		} else {
			transport, err = DialTCP(ctx, d, addr)
		}
		if err != nil {
			if isOnion {
				lastKind = KindTor
			} else {
				lastKind = KindConnection
			}
			continue
		}

		result, ok := runAttempts(ctx, transport, o.kind, method, params)
		transport.Close()
		if ok {
			result.ResolvedIPs = resolvedIPs
			return result
		}
		if result.ErrorKind != "" {
			lastKind = result.ErrorKind
		}

		select {
		case <-ctx.Done():
			return Result{ResolvedIPs: resolvedIPs, ErrorKind: KindTimeout}
		default:
		}
	}

	return Result{ResolvedIPs: resolvedIPs, ErrorKind: lastKind}
}

// reachable performs the 5-second TCP connect pre-check spec §4.1 requires
// before any RPC is attempted.
func reachable(ctx context.Context, d dialer.Dialer, host string, order []struct {
	kind string
	port int
}) bool {
	for _, o := range order {
		addr := net.JoinHostPort(host, strconv.Itoa(o.port))
		conn, err := d.DialTimeout(ctx, addr, connTimeout)
		if err == nil {
			conn.Close()
			return true
		}
	}
	return false
}

func resolveIPs(ctx context.Context, host string) []string {
	if net.ParseIP(host) != nil {
		return []string{host}
	}
	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for _, a := range addrs {
		s := a.IP.String()
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// runAttempts drives the method-fallback loop over one already-connected
// transport, classifying each response per spec §4.1's parsing rules.
func runAttempts(ctx context.Context, transport Transport, kind, method string, params []interface{}) (Result, bool) {
	attempts := buildAttempts(kind, method, params)

	lastKind := KindProtocol
	for i, a := range attempts {
		req := RequestMessage{ID: uint64(i + 1), Method: a.method, Params: a.params}

		resp, elapsed, err := transport.Send(ctx, req)
		if err != nil {
			lastKind = KindConnection
			if i == len(attempts)-1 {
				if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
					lastKind = KindTimeout
				}
			}
			continue
		}
		if resp.Error != nil || !resp.HasResult() {
			lastKind = KindProtocol
			continue
		}

		data, height, serverVersion, extra, perr := parseResult(resp.Result)
		if perr != nil {
			lastKind = KindProtocol
			continue
		}

		return Result{
			Online:         true,
			PingMS:         float64(elapsed.Microseconds()) / 1000.0,
			MethodUsed:     a.method,
			ConnectionType: transport.ConnectionType(),
			SelfSigned:     transport.SelfSigned(),
			Header:         data,
			Height:         height,
			ServerVersion:  serverVersion,
			Extra:          extra,
		}, true
	}

	return Result{ErrorKind: lastKind}, false
}

// parseResult applies spec §4.1's parsing rules to a raw JSON-RPC result.
func parseResult(raw json.RawMessage) (*ParsedHeader, *int64, string, map[string]interface{}, error) {
	// Scalar integer result: treat as height.
	var asInt int64
	if err := json.Unmarshal(raw, &asInt); err == nil {
		return nil, &asInt, "", nil, nil
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, nil, "", nil, err
	}

	var height *int64
	if h, ok := obj["height"]; ok {
		if f, ok := h.(float64); ok {
			v := int64(f)
			height = &v
		}
	}

	if hexVal, ok := obj["hex"].(string); ok && len(hexVal) == 160 {
		hdr, err := ParseHeader(hexVal)
		if err != nil {
			return nil, nil, "", nil, err
		}
		return hdr, height, "", nil, nil
	}

	var serverVersion string
	if sv, ok := obj["server_version"].(string); ok {
		serverVersion = sv
	}

	extra := map[string]interface{}{}
	for k, v := range obj {
		if k == "height" || k == "server_version" {
			continue
		}
		extra[k] = v
	}
	if len(extra) == 0 {
		extra = nil
	}

	return nil, height, serverVersion, extra, nil
}
