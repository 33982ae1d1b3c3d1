package httpprobe

import (
	"context"
	"time"

	"github.com/zecrocks/hosh/internal/model"
)

// Adapter implements worker.Prober for module=http. The explorer URL and
// extractor are configured per target via CheckRequest.Hints, since unlike
// Electrum/lightwalletd there is no single well-known endpoint shape.
type Adapter struct{}

func (Adapter) Probe(ctx context.Context, req model.CheckRequest) model.ProbeResult {
	extractor := Extractor{}
	if path := req.Hints["json_path"]; path != "" {
		extractor.JSONPaths = []string{path}
	}

	t := Target{
		ExplorerID: req.Hints["explorer_id"],
		ChainID:    req.Hints["chain_id"],
		URL:        req.Hints["url"],
		DryRun:     req.DryRun,
		Extractor:  extractor,
	}
	if t.URL == "" {
		t.URL = "https://" + req.Host
	}

	result := Probe(ctx, t)
	now := time.Now().UTC()

	if !result.Online {
		return model.Offline(req, model.ErrorKind(result.ErrorKind), "", "", now)
	}

	data := model.HTTPResponseData{
		BlockHeight: result.BlockHeight,
		ExplorerID:  t.ExplorerID,
		ChainID:     t.ChainID,
	}
	return model.Online(req, result.PingMS, data, "", "", now)
}
