package electrum

// fallbackMethods is the ordered list of RPCs attempted within a given
// transport once the caller-requested method has been tried, per spec
// §4.1's method fallback rule.
var fallbackMethods = []string{
	"server.features",
	"blockchain.numblocks.subscribe",
}

// DefaultMethod is used when the caller does not specify one.
const DefaultMethod = "blockchain.headers.subscribe"

// attempt is one (transport-kind, method) pair in the explicit finite
// iteration spec §9 calls for, replacing exception-based fallback control
// flow.
type attempt struct {
	transportKind string // "ssl" or "tcp"
	method        string
	params        []interface{}
}

// attemptOutcome names the three result variants an attempt can have: Ok,
// RetryableError (try the next attempt), or FatalError (stop, e.g. the
// transport itself never connected). runAttempts does not use it: it moves
// to the next attempt on any failure and stops at the first success.
type attemptOutcome int

const (
	outcomeOk attemptOutcome = iota
	outcomeRetryable
	outcomeFatal
)

// buildAttempts expands the requested method into the method-fallback list
// for one already-established transport; Probe supplies the transport axis
// by calling it once per transport.
func buildAttempts(transportKind, method string, params []interface{}) []attempt {
	if method == "" {
		method = DefaultMethod
	}
	attempts := []attempt{{transportKind, method, params}}
	for _, m := range fallbackMethods {
		if m == method {
			continue
		}
		attempts = append(attempts, attempt{transportKind, m, []interface{}{}})
	}
	return attempts
}
