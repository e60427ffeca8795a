package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"trailbook/internal/coord"
	"trailbook/internal/fileref"
	"trailbook/internal/gpspoint"
	"trailbook/internal/nmea"
)

type Config struct {
	GPSPoint GPSPointConfig `yaml:"gpspoint" toml:"gpspoint"`
	Log      LogConfig      `yaml:"log" toml:"log"`
	Record   RecordConfig   `yaml:"record" toml:"record"`
}

type GPSPointConfig struct {
	CoordMode     string `yaml:"coord_mode" toml:"coord_mode"`
	FileRefFormat string `yaml:"file_ref_format" toml:"file_ref_format"`
	MaxLineBytes  int    `yaml:"max_line_bytes" toml:"max_line_bytes"`
}

type LogConfig struct {
	Level string `yaml:"level" toml:"level"`
}

// RecordConfig controls live recording and NMEA import.
//
// Source is "nmea" (serial receiver) or "gpsd". Device may be empty to
// auto-detect. A negative SegmentGap disables segment splitting.
type RecordConfig struct {
	Source     string   `yaml:"source" toml:"source"`
	Device     string   `yaml:"device" toml:"device"`
	Baud       int      `yaml:"baud" toml:"baud"`
	GPSDAddr   string   `yaml:"gpsd_addr" toml:"gpsd_addr"`
	TrackName  string   `yaml:"track_name" toml:"track_name"`
	SegmentGap Duration `yaml:"segment_gap" toml:"segment_gap"`
}

// Duration reads "30s" style values from both YAML and TOML.
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Default returns the configuration used when no file is given.
func Default() Config {
	var cfg Config
	if err := cfg.applyDefaults(); err != nil {
		// Defaults always validate.
		panic(err)
	}
	return cfg
}

// Load reads a YAML file, or TOML when the name ends in .toml, then applies
// defaults and validates. A leading ~ in path is expanded.
func Load(path string) (Config, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return Config{}, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(b, &cfg)
	} else {
		err = yaml.Unmarshal(b, &cfg)
	}
	if err != nil {
		return Config{}, err
	}

	if err := cfg.applyDefaults(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg *Config) applyDefaults() error {
	gp := &cfg.GPSPoint
	gp.CoordMode = strings.ToLower(strings.TrimSpace(gp.CoordMode))
	if gp.CoordMode == "" {
		gp.CoordMode = coord.ModeLatLon.String()
	}
	if _, err := coord.ParseMode(gp.CoordMode); err != nil {
		return fmt.Errorf("gpspoint.coord_mode must be 'latlon' or 'utm'")
	}
	gp.FileRefFormat = strings.ToLower(strings.TrimSpace(gp.FileRefFormat))
	if gp.FileRefFormat == "" {
		gp.FileRefFormat = fileref.FormatAbsolute.String()
	}
	if _, err := fileref.ParseFormat(gp.FileRefFormat); err != nil {
		return fmt.Errorf("gpspoint.file_ref_format must be 'absolute' or 'relative'")
	}
	if gp.MaxLineBytes == 0 {
		gp.MaxLineBytes = gpspoint.DefaultMaxLineBytes
	}
	if gp.MaxLineBytes < 64 {
		return fmt.Errorf("gpspoint.max_line_bytes must be >= 64")
	}

	if strings.TrimSpace(cfg.Log.Level) == "" {
		cfg.Log.Level = "info"
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}

	rec := &cfg.Record
	rec.Source = strings.ToLower(strings.TrimSpace(rec.Source))
	if rec.Source == "" {
		rec.Source = "nmea"
	}
	if rec.Source != "nmea" && rec.Source != "gpsd" {
		return fmt.Errorf("record.source must be 'nmea' or 'gpsd'")
	}
	if rec.Baud == 0 {
		rec.Baud = nmea.DefaultBaud
	}
	if rec.Baud < 0 {
		return fmt.Errorf("record.baud must be > 0")
	}
	if strings.TrimSpace(rec.GPSDAddr) == "" {
		rec.GPSDAddr = nmea.DefaultGPSDAddr
	}
	if strings.TrimSpace(rec.TrackName) == "" {
		rec.TrackName = nmea.DefaultTrackName
	}
	if rec.SegmentGap == 0 {
		rec.SegmentGap = Duration(30 * time.Second)
	}
	return nil
}

// LogLevel returns the validated log level.
func (cfg Config) LogLevel() slog.Level {
	var lvl slog.Level
	_ = lvl.UnmarshalText([]byte(cfg.Log.Level))
	return lvl
}

// Options builds reader/writer options for a file in baseDir.
func (cfg Config) Options(baseDir string, logger *slog.Logger) gpspoint.Options {
	mode, _ := coord.ParseMode(cfg.GPSPoint.CoordMode)
	format, _ := fileref.ParseFormat(cfg.GPSPoint.FileRefFormat)
	return gpspoint.Options{
		CoordMode:     mode,
		BaseDir:       baseDir,
		FileRefFormat: format,
		MaxLineBytes:  cfg.GPSPoint.MaxLineBytes,
		Logger:        logger,
	}
}

func (cfg Config) RecorderConfig(logger *slog.Logger) nmea.RecorderConfig {
	return nmea.RecorderConfig{
		TrackName:  cfg.Record.TrackName,
		SegmentGap: time.Duration(cfg.Record.SegmentGap),
		Logger:     logger,
	}
}
