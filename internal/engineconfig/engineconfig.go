// Package engineconfig loads websocket.Config tunables from a YAML
// file.
package engineconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/coregx/wsdraft/websocket"
)

// File is the on-disk shape of an engine config file.
type File struct {
	MaxUserRXBuffer  int    `yaml:"max_user_rx_buffer"`
	DefeatClientMask bool   `yaml:"defeat_client_mask"`
	FloodGuard       *Flood `yaml:"flood_guard,omitempty"`
}

// Flood configures websocket.FloodGuard.
type Flood struct {
	RatePerSecond float64 `yaml:"rate_per_second"`
	Burst         int     `yaml:"burst"`
}

// Load reads and parses a YAML config file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("engineconfig: read %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("engineconfig: parse %s: %w", path, err)
	}
	return &f, nil
}

// Config converts the file into a websocket.Config. logger is supplied
// separately since it is not representable in YAML.
func (f *File) Config(logger websocket.Logger) websocket.Config {
	return websocket.Config{
		MaxUserRXBuffer:  f.MaxUserRXBuffer,
		DefeatClientMask: f.DefeatClientMask,
		Logger:           logger,
	}
}

// NewFloodGuard builds a websocket.FloodGuard from the file's flood_guard
// section, or returns nil if it was omitted (meaning no flood guarding).
func (f *File) NewFloodGuard() *websocket.FloodGuard {
	if f.FloodGuard == nil {
		return nil
	}
	return websocket.NewFloodGuard(f.FloodGuard.RatePerSecond, f.FloodGuard.Burst)
}
