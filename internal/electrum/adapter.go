package electrum

import (
	"context"
	"time"

	"github.com/zecrocks/hosh/internal/model"
)

// Adapter implements worker.Prober for module=btc, translating the
// transport/method fallback Result into a well-formed model.ProbeResult.
type Adapter struct {
	OnionHost, OnionPort string
	DefaultSSLPort       int
	DefaultTCPPort       int
}

// Probe resolves ports from req.Port/req.Hints, runs the Electrum probe,
// and builds a ProbeResult per spec §3's Electrum response_data shape.
func (a Adapter) Probe(ctx context.Context, req model.CheckRequest) model.ProbeResult {
	ports := Ports{SSL: a.DefaultSSLPort, TCP: a.DefaultTCPPort}
	if req.Port != 0 {
		// A caller-supplied port is ambiguous between SSL/plaintext; the
		// registry's hints carry an explicit "ssl"/"tcp" marker when known,
		// defaulting to treating it as the SSL port since that's the
		// fallback-first leg of spec §4.1.
		if req.Hints["scheme"] == "tcp" {
			ports.TCP = req.Port
		} else {
			ports.SSL = req.Port
		}
	}

	method := req.Hints["method"]

	result := Probe(ctx, req.Host, ports, method, nil, a.OnionHost, a.OnionPort)

	now := time.Now().UTC()

	if !result.Online {
		return withResolvedIP(model.Offline(req, model.ErrorKind(result.ErrorKind), "", "", now), result.ResolvedIPs)
	}

	data := model.ElectrumResponseData{
		MethodUsed:     result.MethodUsed,
		ConnectionType: model.ConnectionType(result.ConnectionType),
		SelfSigned:     result.SelfSigned,
		ServerVersion:  result.ServerVersion,
		Extra:          result.Extra,
	}
	if result.Height != nil {
		data.Height = result.Height
	}
	if result.Header != nil {
		h := result.Header
		data.Version = &h.Version
		data.PrevBlock = h.PrevBlock
		data.MerkleRoot = h.MerkleRoot
		data.Timestamp = &h.Timestamp
		data.TimestampISO = h.TimestampISO
		data.Bits = &h.Bits
		data.Nonce = &h.Nonce
	}

	res := model.Online(req, result.PingMS, data, "", "", now)
	return withResolvedIP(res, result.ResolvedIPs)
}

func withResolvedIP(res model.ProbeResult, ips []string) model.ProbeResult {
	if len(ips) == 0 {
		return res
	}
	ip := ips[0]
	res.ResolvedIP = &ip
	version := 4
	if containsColon(ip) {
		version = 6
	}
	res.IPVersion = &version
	return res
}

func containsColon(s string) bool {
	for _, c := range s {
		if c == ':' {
			return true
		}
	}
	return false
}
