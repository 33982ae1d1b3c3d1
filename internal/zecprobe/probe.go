package zecprobe

import (
	"context"
	"crypto/tls"
	"net"
	"strconv"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/encoding"

	"github.com/zecrocks/hosh/internal/dialer"
)

// rpcTimeout is the per-call deadline for GetLatestBlock, spec §4.2.
const rpcTimeout = 10 * time.Second

const getLatestBlockMethod = "/cash.z.wallet.sdk.rpc.CompactTxStreamer/GetLatestBlock"

func init() {
	encoding.RegisterCodec(codec{})
}

// Result is the outcome of one lightwalletd probe.
type Result struct {
	Online    bool
	PingMS    float64
	Height    uint64
	Hash      string
	ErrorKind string
}

const (
	KindHostUnreachable = "host_unreachable"
	KindConnection      = "connection_error"
	KindProtocol        = "protocol_error"
	KindTimeout         = "timeout"
	KindTor             = "tor_error"
)

// Probe opens a TLS gRPC connection to a lightwalletd endpoint and invokes
// GetLatestBlock, per spec §4.2. No method fallback: gRPC status codes
// collapse directly into the error taxonomy.
func Probe(ctx context.Context, host string, port int, onionHost, onionPort string) Result {
	ctx, cancel := context.WithTimeout(ctx, rpcTimeout)
	defer cancel()

	isOnion := dialer.IsOnion(host)
	d := dialer.For(host, onionHost, onionPort)
	if port == 0 {
		port = 9067 // lightwalletd's conventional default gRPC port
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	creds := credentials.NewTLS(&tls.Config{ServerName: host})

	conn, err := grpc.DialContext(ctx, addr,
		grpc.WithTransportCredentials(creds),
		grpc.WithContextDialer(func(dialCtx context.Context, a string) (net.Conn, error) {
			return d.DialTimeout(dialCtx, a, rpcTimeout)
		}),
		grpc.WithBlock(),
	)
	if err != nil {
		kind := KindHostUnreachable
		if isOnion {
			kind = KindTor
		}
		return Result{ErrorKind: kind}
	}
	defer conn.Close()

	var reply BlockID
	start := time.Now()
	err = conn.Invoke(ctx, getLatestBlockMethod, ChainSpec{}, &reply, grpc.CallContentSubtype(codecName))
	elapsed := time.Since(start)
	if err != nil {
		if ctx.Err() != nil {
			return Result{ErrorKind: KindTimeout}
		}
		return Result{ErrorKind: KindProtocol}
	}

	return Result{
		Online: true,
		PingMS: float64(elapsed.Microseconds()) / 1000.0,
		Height: reply.Height,
		Hash:   reverseHex(reply.Hash),
	}
}

func reverseHex(b []byte) string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		j := len(b) - 1 - i
		out[j*2] = hexDigits[v>>4]
		out[j*2+1] = hexDigits[v&0xf]
	}
	return string(out)
}
