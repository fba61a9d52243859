// Package settings loads and saves named thermostat presets.
// Presets are stored in the user's units, keyed by name, in a single JSON
// file (settings.json by default).
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/sweeney/thermostat/internal/control"
	"github.com/sweeney/thermostat/internal/units"
)

// DefaultPath is the presets file used when none is given.
const DefaultPath = "settings.json"

// Mode values.
const (
	ModeHeat = "heat"
	ModeCool = "cool"
)

// Preset is one saved configuration.
type Preset struct {
	Mode      string  `json:"mode"`
	Units     string  `json:"units"`
	Temp      float64 `json:"temp"`
	Tolerance float64 `json:"tolerance"`
	// Time is the hold duration in ms. Absent or negative means no hold.
	Time *int64 `json:"time,omitempty"`
	// HoldMode is "continuous" (default) or "wallclock".
	HoldMode string `json:"hold_mode,omitempty"`
	// Frequency is the sample interval in ms.
	Frequency int64 `json:"frequency"`
	// Buffer is the minimum relay OFF time in ms.
	Buffer int64 `json:"buffer"`
}

// File maps preset names to presets.
type File map[string]Preset

// Load reads the presets file. A missing file yields an empty File.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return File{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	f := File{}
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return f, nil
}

// Save writes the presets file via a temporary file and rename.
func Save(path string, f File) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".settings-*.json")
	if err != nil {
		return fmt.Errorf("create temp settings: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}

// Names returns the preset names in sorted order.
func (f File) Names() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate applies the same limits the interactive setup used to enforce.
func (p Preset) Validate() error {
	if p.Mode != ModeHeat && p.Mode != ModeCool {
		return fmt.Errorf("unrecognized mode %q: use %q or %q", p.Mode, ModeHeat, ModeCool)
	}
	if _, err := units.Parse(p.Units); err != nil {
		return err
	}
	if p.Temp > 1000 {
		return fmt.Errorf("target temp %v must be a number less than 1000", p.Temp)
	}
	if p.Tolerance < 0 || p.Tolerance > 50 {
		return fmt.Errorf("tolerance %v must be a number between 0 and 50", p.Tolerance)
	}
	if p.Frequency < 500 || p.Frequency > 60000 {
		return fmt.Errorf("frequency %d must be an integer between 500 and 60000", p.Frequency)
	}
	if p.Buffer < 500 || p.Buffer > 15000 {
		return fmt.Errorf("buffer %d must be an integer between 500 and 15000", p.Buffer)
	}
	return nil
}

// Config converts the preset to a control config in Celsius.
func (p Preset) Config() (control.Config, error) {
	if err := p.Validate(); err != nil {
		return control.Config{}, err
	}
	u := units.Unit(p.Units)

	hold := control.NoHold
	if p.Time != nil && *p.Time >= 0 {
		hold = time.Duration(*p.Time) * time.Millisecond
	}
	mode := control.HoldMode(p.HoldMode)
	if mode == "" {
		mode = control.HoldContinuous
	}

	cfg := control.Config{
		IsHeater:       p.Mode == ModeHeat,
		TargetTemp:     units.ToCelsius(u, p.Temp),
		Tolerance:      units.DeltaToCelsius(u, p.Tolerance),
		HoldDuration:   hold,
		HoldMode:       mode,
		SampleInterval: time.Duration(p.Frequency) * time.Millisecond,
		MinOffDwell:    time.Duration(p.Buffer) * time.Millisecond,
	}
	return cfg, cfg.Validate()
}
