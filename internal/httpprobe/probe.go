// Package httpprobe scrapes block-explorer HTTP endpoints for a reported
// tip height, per spec §4.3.
package httpprobe

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
)

const (
	requestTimeout = 10 * time.Second
	userAgent      = "hosh-checker/1.0"
	maxBodyBytes   = 2 << 20 // 2 MiB, generous cap for explorer HTML/JSON pages
)

// digitRun is the regex fallback extractor: the first run of digits
// following a height-ish keyword.
var digitRun = regexp.MustCompile(`(?i)(?:block_height|height)["' :=]+(\d+)`)

// defaultJSONPaths are the gjson paths tried, in order, when the target
// doesn't supply one of its own: most block-explorer JSON APIs nest the
// tip height under one of these two shapes.
var defaultJSONPaths = []string{"result.height", "data.height"}

// Extractor describes how to pull a tip height out of a response body.
type Extractor struct {
	// JSONPaths, if non-empty, are gjson paths tried in order before the
	// regex fallback. Defaults to defaultJSONPaths when unset.
	JSONPaths []string
	// Regex, if non-nil, overrides the default digit-run fallback.
	Regex *regexp.Regexp
}

// Target is one configured HTTP probe endpoint.
type Target struct {
	ExplorerID string
	ChainID    string
	URL        string
	Extractor  Extractor
	DryRun     bool
}

// Result is the outcome of one HTTP probe.
type Result struct {
	Online      bool
	PingMS      float64
	BlockHeight int64
	ErrorKind   string
}

const (
	KindConnection = "connection_error"
	KindProtocol   = "protocol_error"
	KindTimeout    = "timeout"
)

// Probe issues a GET against t.URL and extracts a block height from the
// response body using t.Extractor, falling back to a digit-run regex.
func Probe(ctx context.Context, t Target) Result {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.URL, nil)
	if err != nil {
		return Result{ErrorKind: KindProtocol}
	}
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Result{ErrorKind: KindTimeout}
		}
		return Result{ErrorKind: KindConnection}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	elapsed := time.Since(start)
	if err != nil {
		return Result{ErrorKind: KindConnection}
	}
	if resp.StatusCode != http.StatusOK {
		return Result{ErrorKind: KindProtocol}
	}

	height, ok := extract(body, t.Extractor)
	if !ok {
		return Result{ErrorKind: KindProtocol}
	}

	return Result{
		Online:      true,
		PingMS:      float64(elapsed.Microseconds()) / 1000.0,
		BlockHeight: height,
	}
}

func extract(body []byte, e Extractor) (int64, bool) {
	paths := e.JSONPaths
	if len(paths) == 0 {
		paths = defaultJSONPaths
	}
	for _, path := range paths {
		r := gjson.GetBytes(body, path)
		if r.Exists() {
			return r.Int(), true
		}
	}

	re := e.Regex
	if re == nil {
		re = digitRun
	}
	m := re.FindSubmatch(body)
	if len(m) < 2 {
		return 0, false
	}
	n, err := strconv.ParseInt(string(m[1]), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
