package fabric

import (
	"sync/atomic"

	jsoniter "github.com/json-iterator/go"
)

// Config enumerates the configuration options the core recognizes
// (spec §6). It is loaded once (JSON, via json-iterator) and then
// snapshotted into a read-mostly global so the emit/process hot path
// never takes a lock or a map-read to consult it - mirrors the
// teacher's cmn/rom.go "read-mostly" pattern.
type Config struct {
	CollectStats            bool `json:"collect_stats"`
	EnableNames              bool `json:"enable_names"`
	EnableRuntimeWiring      bool `json:"enable_runtime_wiring"`
	EnableHighResTimestamps  bool `json:"enable_high_res_timestamps"`
	MaxPendingRequests       int  `json:"max_pending_requests"`
	MaxRequestSize           int  `json:"max_request_size"`
	MaxResponseSize          int  `json:"max_response_size"`
}

// DefaultConfig mirrors conservative embedded-systems defaults: no
// stats overhead, no debug names, no runtime topology changes.
func DefaultConfig() Config {
	return Config{
		MaxPendingRequests: 64,
		MaxRequestSize:     256,
		MaxResponseSize:    256,
	}
}

func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := jsoniter.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Marshal() ([]byte, error) { return jsoniter.Marshal(c) }

// readMostly, the global snapshot consulted on the fast path.
type readMostly struct {
	p atomic.Pointer[Config]
}

var Rom readMostly

func init() {
	cfg := DefaultConfig()
	Rom.p.Store(&cfg)
}

// Set atomically replaces the global config snapshot. Safe to call
// concurrently with Emit/Process; readers observe either the old or
// the new value, never a partial one.
func (rom *readMostly) Set(cfg Config) { rom.p.Store(&cfg) }

func (rom *readMostly) Get() Config { return *rom.p.Load() }

func (rom *readMostly) CollectStats() bool           { return rom.Get().CollectStats }
func (rom *readMostly) EnableNames() bool            { return rom.Get().EnableNames }
func (rom *readMostly) EnableRuntimeWiring() bool     { return rom.Get().EnableRuntimeWiring }
func (rom *readMostly) EnableHighResTimestamps() bool { return rom.Get().EnableHighResTimestamps }
