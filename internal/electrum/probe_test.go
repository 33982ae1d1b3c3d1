package electrum

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// timeoutErr implements net.Error with Timeout()==true, simulating a
// read/write deadline exceeded on the wire.
type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

// failTransport always fails Send with the given error.
type failTransport struct {
	err error
}

func (f failTransport) Send(ctx context.Context, req RequestMessage) (*ResponseMessage, time.Duration, error) {
	return nil, 0, f.err
}
func (failTransport) Close() error                   { return nil }
func (failTransport) ConnectionType() ConnectionType { return TypeSSL }
func (failTransport) SelfSigned() bool               { return true }

func TestRunAttemptsClassifiesFinalDeadlineAsTimeout(t *testing.T) {
	transport := failTransport{err: timeoutErr{}}

	result, ok := runAttempts(context.Background(), transport, "ssl", DefaultMethod, nil)
	require.False(t, ok)
	require.Equal(t, KindTimeout, result.ErrorKind)
}

func TestRunAttemptsClassifiesMidStreamErrorAsConnectionError(t *testing.T) {
	transport := failTransport{err: errPlain("connection reset by peer")}

	result, ok := runAttempts(context.Background(), transport, "ssl", DefaultMethod, nil)
	require.False(t, ok)
	require.Equal(t, KindConnection, result.ErrorKind)
}

type errPlain string

func (e errPlain) Error() string { return string(e) }
