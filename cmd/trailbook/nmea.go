package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"trailbook/internal/gps"
	"trailbook/internal/nmea"
)

func (a *app) recorder(cmd *cli.Command) *nmea.Recorder {
	rc := a.cfg.RecorderConfig(a.log)
	if name := strings.TrimSpace(cmd.String("name")); name != "" {
		rc.TrackName = name
	}
	return nmea.NewRecorder(rc)
}

// saveRecording wraps the recorded track in a document and writes it.
func (a *app) saveRecording(rec *nmea.Recorder, out string) error {
	trk := rec.Track()
	a.log.Info("track finished", "name", trk.Name, "points", len(trk.Points), "segments", trk.Segments(), "dropped", rec.Dropped())
	if len(trk.Points) == 0 {
		return fmt.Errorf("no position fixes received")
	}
	doc := gps.NewDocument()
	doc.AddTrack(trk)
	return a.writeDocument(out, "", doc)
}

func recordFlags(extra ...cli.Flag) []cli.Flag {
	return append(extra,
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output file (default stdout)",
		},
		&cli.StringFlag{
			Name:  "name",
			Usage: "Track name (default record.track_name)",
		},
	)
}

func (a *app) importNMEACommand() *cli.Command {
	return &cli.Command{
		Name:      "import-nmea",
		Usage:     "Convert an NMEA 0183 log into a track",
		ArgsUsage: "<nmea-log>",
		Flags:     recordFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := requireArg(cmd, "[-o out] <nmea-log>")
			if err != nil {
				return err
			}
			abs, err := expandPath(path)
			if err != nil {
				return err
			}
			f, err := os.Open(abs)
			if err != nil {
				return err
			}
			defer f.Close()

			rec := a.recorder(cmd)
			if err := rec.Run(ctx, f); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			return a.saveRecording(rec, cmd.String("output"))
		},
	}
}

func (a *app) recordCommand() *cli.Command {
	flags := recordFlags(
		&cli.StringFlag{
			Name:  "device",
			Usage: "Serial device (default record.device, then auto-detect)",
		},
		&cli.IntFlag{
			Name:  "baud",
			Usage: "Serial baud rate (default record.baud)",
		},
		&cli.StringFlag{
			Name:  "gpsd",
			Usage: "Record from gpsd at host:port instead of a serial device",
		},
	)

	return &cli.Command{
		Name:  "record",
		Usage: "Record a track from a GNSS receiver until interrupted",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			rc := a.cfg.Record
			if addr := strings.TrimSpace(cmd.String("gpsd")); addr != "" {
				rc.Source = "gpsd"
				rc.GPSDAddr = addr
			}
			if dev := strings.TrimSpace(cmd.String("device")); dev != "" {
				rc.Device = dev
			}
			if baud := cmd.Int("baud"); baud > 0 {
				rc.Baud = int(baud)
			}

			rec := a.recorder(cmd)
			if rc.Source == "gpsd" {
				a.log.Info("recording", "source", "gpsd", "addr", rc.GPSDAddr)
				if err := rec.RunGPSD(ctx, rc.GPSDAddr); err != nil {
					return err
				}
				return a.saveRecording(rec, cmd.String("output"))
			}

			device := rc.Device
			if device == "" {
				device = nmea.AutoDetectDevice()
				if device == "" {
					return fmt.Errorf("gps auto-detect failed: no /dev/ttyACM* or /dev/ttyUSB* found")
				}
			}
			f, err := nmea.OpenSerial(device, rc.Baud)
			if err != nil {
				return fmt.Errorf("gps open failed device=%s baud=%d: %w", device, rc.Baud, err)
			}
			defer f.Close()

			a.log.Info("recording", "source", "nmea", "device", device, "baud", rc.Baud)
			if err := rec.Run(ctx, f); err != nil {
				return err
			}
			return a.saveRecording(rec, cmd.String("output"))
		},
	}
}
