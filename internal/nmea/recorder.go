package nmea

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"trailbook/internal/gps"
)

// DefaultTrackName names recorded tracks when the configuration has none.
const DefaultTrackName = "NMEA"

// RecorderConfig controls a Recorder.
//
// SegmentGap starts a new track segment when two consecutive fixes are more
// than that far apart in time; zero disables splitting.
type RecorderConfig struct {
	TrackName  string
	SegmentGap time.Duration
	Logger     *slog.Logger
}

// Recorder turns a stream of receiver output into a single track. It is
// driven by one goroutine; call Track once the input is exhausted.
type Recorder struct {
	gap time.Duration
	log *slog.Logger

	dec   Decoder
	track *gps.Track

	lastTS   *float64
	breakSeg bool
	dropped  int
}

func NewRecorder(cfg RecorderConfig) *Recorder {
	name := strings.TrimSpace(cfg.TrackName)
	if name == "" {
		name = DefaultTrackName
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	trk := gps.NewTrack(false)
	trk.Name = name
	trk.Source = "nmea"
	return &Recorder{gap: cfg.SegmentGap, log: log, track: trk}
}

// HandleLine decodes one line of receiver output. Lines that are not NMEA
// are ignored; sentences with a bad checksum are counted and dropped.
func (r *Recorder) HandleLine(line string) {
	line = strings.TrimSpace(line)
	// Some receivers interleave binary or text chatter.
	if !strings.HasPrefix(line, "$") {
		return
	}
	s, err := ParseSentence(line)
	if err != nil {
		r.dropped++
		r.log.Debug("nmea sentence dropped", "err", err)
		return
	}
	if tp := r.dec.Apply(s); tp != nil {
		r.add(tp)
	}
}

func (r *Recorder) add(tp *gps.Trackpoint) {
	if len(r.track.Points) > 0 {
		if r.breakSeg {
			tp.NewSegment = true
		}
		if r.gap > 0 && r.lastTS != nil && tp.Timestamp != nil && *tp.Timestamp-*r.lastTS > r.gap.Seconds() {
			tp.NewSegment = true
		}
	}
	r.breakSeg = false
	if tp.Timestamp != nil {
		r.lastTS = tp.Timestamp
	}
	r.track.Points = append(r.track.Points, tp)
}

// Break ends the current segment; the next fix starts a new one.
func (r *Recorder) Break() {
	if tp := r.dec.Flush(); tp != nil {
		r.add(tp)
	}
	r.breakSeg = true
}

// Run reads NMEA lines from src until EOF or until ctx is done. If src is
// an io.Closer it is closed on cancellation to unblock the read; the
// cancellation itself is not an error.
func (r *Recorder) Run(ctx context.Context, src io.Reader) error {
	if c, ok := src.(io.Closer); ok {
		stop := context.AfterFunc(ctx, func() { _ = c.Close() })
		defer stop()
	}

	sc := bufio.NewScanner(src)
	// NMEA sentences are < 83 bytes; the headroom covers vendor extensions.
	sc.Buffer(make([]byte, 0, 256), 64*1024)
	for sc.Scan() {
		r.HandleLine(sc.Text())
	}
	if ctx.Err() != nil {
		return nil
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("nmea: read: %w", err)
	}
	return nil
}

// RunGPSD records from a gpsd daemon until ctx is done, reconnecting with
// backoff when the connection drops. Each reconnect starts a new segment.
func (r *Recorder) RunGPSD(ctx context.Context, addr string) error {
	if strings.TrimSpace(addr) == "" {
		addr = DefaultGPSDAddr
	}
	var st gpsdState
	backoff := 250 * time.Millisecond
	const maxBackoff = 10 * time.Second

	for ctx.Err() == nil {
		conn, err := dialGPSD(ctx, addr)
		if err != nil {
			r.log.Warn("gpsd dial failed", "addr", addr, "err", err, "retry_in", backoff)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = 250 * time.Millisecond
		r.log.Info("gpsd connected", "addr", addr)

		err = r.readGPSD(ctx, conn, &st)
		_ = conn.Close()
		if ctx.Err() != nil {
			return nil
		}
		r.log.Warn("gpsd read stopped", "addr", addr, "err", err)
		r.Break()
	}
	return nil
}

func (r *Recorder) readGPSD(ctx context.Context, conn io.ReadWriteCloser, st *gpsdState) error {
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := gpsdWatch(conn); err != nil {
		return fmt.Errorf("gpsd watch failed: %w", err)
	}

	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 0, 4096), 256*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		tp, err := st.applyLine(line)
		if err != nil {
			r.dropped++
			r.log.Debug("gpsd report dropped", "err", err)
			continue
		}
		if tp != nil {
			r.add(tp)
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return io.EOF
}

// Track returns the recorded track, including the fix still in progress.
func (r *Recorder) Track() *gps.Track {
	if tp := r.dec.Flush(); tp != nil {
		r.add(tp)
	}
	return r.track
}

// Dropped reports how many sentences or reports could not be decoded.
func (r *Recorder) Dropped() int {
	return r.dropped
}
