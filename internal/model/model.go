// Package model defines the tagged wire records shared by every component:
// targets, check requests, and probe results. These replace the loosely
// typed dict payloads the original system passed between its processes.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Module identifies which protocol family a target or message belongs to.
type Module string

const (
	ModuleBTC  Module = "btc"
	ModuleZEC  Module = "zec"
	ModuleHTTP Module = "http"
)

func (m Module) Valid() bool {
	switch m {
	case ModuleBTC, ModuleZEC, ModuleHTTP:
		return true
	}
	return false
}

// Status is the coarse outcome of a probe.
type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
)

// ErrorKind enumerates the categorized failure modes a probe can report.
type ErrorKind string

const (
	ErrorHostUnreachable ErrorKind = "host_unreachable"
	ErrorConnection      ErrorKind = "connection_error"
	ErrorProtocol        ErrorKind = "protocol_error"
	ErrorTimeout         ErrorKind = "timeout"
	ErrorTor             ErrorKind = "tor_error"
	ErrorInternal        ErrorKind = "internal_error"
)

// ConnectionType records which Electrum transport produced a result.
type ConnectionType string

const (
	ConnectionSSL       ConnectionType = "SSL"
	ConnectionPlaintext ConnectionType = "Plaintext"
)

// Target is the unit of scheduling: one (hostname, module) pair tracked by
// the registry. Read from the registry (the Publisher's on-demand trigger
// also builds one for a host the registry does not hold) and mutated only
// in its `last_queued_at`/`last_checked_at` fields.
type Target struct {
	Hostname      string
	Module        Module
	Port          int
	UserSubmitted bool
	LastQueuedAt  *time.Time
	LastCheckedAt *time.Time
	Hints         map[string]string
}

// InFlight reports whether a request for this target is still outstanding,
// per the invariant in spec §3: `last_queued_at > last_checked_at` and
// younger than inFlightTTL.
func (t Target) InFlight(now time.Time, inFlightTTL time.Duration) bool {
	if t.LastQueuedAt == nil {
		return false
	}
	if t.LastCheckedAt != nil && !t.LastQueuedAt.After(*t.LastCheckedAt) {
		return false
	}
	return now.Sub(*t.LastQueuedAt) < inFlightTTL
}

// CheckRequest is the message published on check.<module>.
type CheckRequest struct {
	CheckID       string            `json:"check_id"`
	Host          string            `json:"host"`
	Port          int               `json:"port"`
	Module        Module            `json:"module"`
	UserSubmitted bool              `json:"user_submitted"`
	DryRun        bool              `json:"dry_run,omitempty"`
	Hints         map[string]string `json:"hints,omitempty"`
}

// NewCheckRequest assigns a fresh, correlatable check_id. hints carries
// module-specific configuration (explorer URL, JSON path, Electrum scheme
// or method override, ...) straight from the target's registry row.
func NewCheckRequest(host string, port int, module Module, userSubmitted bool, hints map[string]string) CheckRequest {
	return CheckRequest{
		CheckID:       uuid.NewString(),
		Host:          host,
		Port:          port,
		Module:        module,
		UserSubmitted: userSubmitted,
		Hints:         hints,
	}
}

// ElectrumResponseData is the response_data shape for module=btc.
type ElectrumResponseData struct {
	Height         *int64                 `json:"height,omitempty"`
	Version        *int32                 `json:"version,omitempty"`
	PrevBlock      string                 `json:"prev_block,omitempty"`
	MerkleRoot     string                 `json:"merkle_root,omitempty"`
	Timestamp      *int64                 `json:"timestamp,omitempty"`
	TimestampISO   string                 `json:"timestamp_iso,omitempty"`
	Bits           *uint32                `json:"bits,omitempty"`
	Nonce          *uint32                `json:"nonce,omitempty"`
	ServerVersion  string                 `json:"server_version,omitempty"`
	MethodUsed     string                 `json:"method_used,omitempty"`
	ConnectionType ConnectionType         `json:"connection_type,omitempty"`
	SelfSigned     bool                   `json:"self_signed"`
	Extra          map[string]interface{} `json:"extra,omitempty"`
}

// ZcashResponseData is the response_data shape for module=zec.
type ZcashResponseData struct {
	Height int64  `json:"height"`
	Hash   string `json:"hash,omitempty"`
}

// HTTPResponseData is the response_data shape for module=http.
type HTTPResponseData struct {
	BlockHeight int64  `json:"block_height"`
	ExplorerID  string `json:"explorer_id,omitempty"`
	ChainID     string `json:"chain_id,omitempty"`
}

// ProbeResult is the message published on result.<module>.
type ProbeResult struct {
	CheckID         string      `json:"check_id"`
	Host            string      `json:"host"`
	Module          Module      `json:"module"`
	ResolvedIP      *string     `json:"resolved_ip"`
	IPVersion       *int        `json:"ip_version"`
	Status          Status      `json:"status"`
	PingMS          *float64    `json:"ping_ms"`
	ResponseData    interface{} `json:"response_data,omitempty"`
	ErrorKind       *ErrorKind  `json:"error_kind"`
	CheckerID       string      `json:"checker_id"`
	CheckerLocation string      `json:"checker_location"`
	CheckedAt       time.Time   `json:"checked_at"`
	UserSubmitted   bool        `json:"user_submitted"`
}

// WellFormed enforces the §3 biconditionals: status=online iff ping_ms is
// set, and error_kind is set iff status=offline.
func (r ProbeResult) WellFormed() bool {
	if r.Status == StatusOnline && r.PingMS == nil {
		return false
	}
	if r.Status == StatusOffline && r.PingMS != nil {
		return false
	}
	hasErr := r.ErrorKind != nil
	if hasErr != (r.Status == StatusOffline) {
		return false
	}
	return true
}

// Offline builds a well-formed offline result for the given error kind.
func Offline(req CheckRequest, kind ErrorKind, checkerID, checkerLocation string, at time.Time) ProbeResult {
	return ProbeResult{
		CheckID:         req.CheckID,
		Host:            req.Host,
		Module:          req.Module,
		Status:          StatusOffline,
		ErrorKind:       &kind,
		CheckerID:       checkerID,
		CheckerLocation: checkerLocation,
		CheckedAt:       at,
		UserSubmitted:   req.UserSubmitted,
	}
}

// Online builds a well-formed online result.
func Online(req CheckRequest, pingMS float64, data interface{}, checkerID, checkerLocation string, at time.Time) ProbeResult {
	return ProbeResult{
		CheckID:         req.CheckID,
		Host:            req.Host,
		Module:          req.Module,
		Status:          StatusOnline,
		PingMS:          &pingMS,
		ResponseData:    data,
		CheckerID:       checkerID,
		CheckerLocation: checkerLocation,
		CheckedAt:       at,
		UserSubmitted:   req.UserSubmitted,
	}
}
