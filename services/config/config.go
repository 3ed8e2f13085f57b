// Package config loads board profiles: YAML documents describing the
// device table and the tasks that run on a board.
package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"devicecore-go/bus"
	"devicecore-go/errcode"
	"devicecore-go/types"
)

const configPrefix = "config"

// EmbeddedConfigLookup allows overriding how embedded profiles are resolved.
var EmbeddedConfigLookup = func(board string) ([]byte, bool) {
	b, ok := embeddedConfigs[board]
	return b, ok
}

// Boards lists the boards with an embedded profile.
func Boards() []string {
	out := make([]string, 0, len(embeddedConfigs))
	for k := range embeddedConfigs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Embedded parses the profile compiled in for board.
func Embedded(board string) (*types.BoardConfig, error) {
	raw, ok := EmbeddedConfigLookup(board)
	if !ok || len(raw) == 0 {
		return nil, errcode.New(errcode.NotFound, "config", "no embedded config for board: "+board)
	}
	return Parse(raw)
}

// Load reads and parses a profile from disk.
func Load(path string) (*types.BoardConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errcode.Wrap(errcode.NotFound, "config", err)
	}
	return Parse(raw)
}

// Parse decodes one YAML profile. Unknown keys are rejected so that a
// misspelt setting fails at boot rather than being silently ignored.
func Parse(raw []byte) (*types.BoardConfig, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	var cfg types.BoardConfig
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errcode.New(errcode.ParseError, "config", "empty document")
		}
		return nil, errcode.Wrap(errcode.ParseError, "config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Publish makes each task section available as a retained message under
// config/<section>, so a late subscriber still sees the active profile.
func Publish(conn *bus.Connection, cfg *types.BoardConfig) {
	pub := func(key string, v any) {
		conn.Publish(conn.NewMessage(bus.T(configPrefix, key), v, true))
	}
	pub("board", cfg.Board)
	pub("devices", len(cfg.Devices))
	if cfg.Control != nil {
		pub("control", *cfg.Control)
	}
	if cfg.Toggle != nil {
		pub("toggle", *cfg.Toggle)
	}
	if cfg.Heartbeat != nil {
		pub("heartbeat", *cfg.Heartbeat)
	}
}
