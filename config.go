// config.go - persistent host-binary settings, loaded from YAML and
// overridable by CLI flags (SPEC_FULL.md AMBIENT STACK).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config holds every knob the host binary exposes. YAML tags match the
// flag names with underscores, following the pack's config-file
// conventions.
type Config struct {
	Device        string  `yaml:"device"`
	Baud          uint32  `yaml:"baud"`
	SampleRate    int     `yaml:"sample_rate"`
	QueueCapacity int     `yaml:"queue_capacity"`
	ChipModel     string  `yaml:"chip_model"` // "6581", "8580" or "split"
	WireProfile   string  `yaml:"wire_profile"`
	HeaderProfile string  `yaml:"header_profile"`
	Gain          float64 `yaml:"gain"`
	Headless      bool    `yaml:"headless"`
	Verbose       bool    `yaml:"verbose"`
}

// defaultConfig mirrors §6's config-knob defaults: PAL clock target,
// 44.1kHz, capacity >= 4096, 1.5x output gain, compact wire profile,
// filter-capable 6581 pair.
func defaultConfig() Config {
	return Config{
		Device:        "/dev/ttyACM0",
		Baud:          115200,
		SampleRate:    44100,
		QueueCapacity: 4096,
		ChipModel:     "6581",
		WireProfile:   "compact6",
		HeaderProfile: "compact10",
		Gain:          1.5,
	}
}

// loadConfig reads a YAML file at path into a fresh defaultConfig,
// returning the defaults unchanged if path is empty.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// scanConfigFlag does a minimal pre-parse of os.Args for --config/-c,
// since the YAML file's values must become the pflag defaults before
// pflag.Parse runs.
func scanConfigFlag(args []string) string {
	for i, a := range args {
		if a == "--config" || a == "-c" {
			if i+1 < len(args) {
				return args[i+1]
			}
		}
		if len(a) > len("--config=") && a[:len("--config=")] == "--config=" {
			return a[len("--config="):]
		}
	}
	return ""
}

// registerFlags binds pflag definitions to cfg's current fields, which
// should already hold the YAML-file values (or built-in defaults) so
// that pflag.Parse only overrides what the user actually passed.
func registerFlags(cfg *Config) {
	pflag.StringP("config", "c", "", "path to a YAML config file")
	pflag.StringVar(&cfg.Device, "device", cfg.Device, "USB-CDC serial device path")
	pflag.Uint32Var(&cfg.Baud, "baud", cfg.Baud, "serial baud rate")
	pflag.IntVar(&cfg.SampleRate, "sample-rate", cfg.SampleRate, "audio output sample rate in Hz")
	pflag.IntVar(&cfg.QueueCapacity, "queue-capacity", cfg.QueueCapacity, "host-event queue capacity")
	pflag.StringVar(&cfg.ChipModel, "chip-model", cfg.ChipModel, "chip model: 6581, 8580 or split")
	pflag.StringVar(&cfg.WireProfile, "wire-profile", cfg.WireProfile, "wire record width: compact6 or chip8")
	pflag.StringVar(&cfg.HeaderProfile, "header-profile", cfg.HeaderProfile, "wire header width: compact10 or extended12")
	pflag.Float64Var(&cfg.Gain, "gain", cfg.Gain, "output gain multiplier")
	pflag.BoolVar(&cfg.Headless, "headless", cfg.Headless, "run without opening an audio device")
	pflag.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "enable debug logging")
}

func parseWireProfile(s string) WireProfile {
	if s == "chip8" {
		return WireProfileChip8
	}
	return WireProfileCompact6
}

func parseHeaderProfile(s string) HeaderProfile {
	if s == "extended12" {
		return HeaderProfileExtended12
	}
	return HeaderProfileCompact10
}

func parseChipModels(s string) (a, b ChipModel) {
	switch s {
	case "8580":
		return ModelMOS8580, ModelMOS8580
	case "split":
		return ModelMOS6581, ModelMOS8580
	default:
		return ModelMOS6581, ModelMOS6581
	}
}
