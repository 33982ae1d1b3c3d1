package zecprobe

import (
	"context"
	"time"

	"github.com/zecrocks/hosh/internal/model"
)

// Adapter implements worker.Prober for module=zec.
type Adapter struct {
	OnionHost, OnionPort string
	DefaultPort          int
}

func (a Adapter) Probe(ctx context.Context, req model.CheckRequest) model.ProbeResult {
	port := req.Port
	if port == 0 {
		port = a.DefaultPort
	}

	result := Probe(ctx, req.Host, port, a.OnionHost, a.OnionPort)
	now := time.Now().UTC()

	if !result.Online {
		return model.Offline(req, model.ErrorKind(result.ErrorKind), "", "", now)
	}

	data := model.ZcashResponseData{Height: int64(result.Height), Hash: result.Hash}
	return model.Online(req, result.PingMS, data, "", "", now)
}
