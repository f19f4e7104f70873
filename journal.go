package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// JournalEntry is one accepted action
type JournalEntry struct {
	Tick    uint64          `json:"tick"`
	Time    time.Time       `json:"time"`
	Session string          `json:"session,omitempty"`
	Player  PlayerID        `json:"player,omitempty"`
	Name    string          `json:"name,omitempty"`
	Action  string          `json:"action"`
	Args    json.RawMessage `json:"args"`
}

// Journal appends accepted actions to hourly zstd-compressed JSONL files
// named actions-YYYY-MM-DD-HH.jsonl.zst.
type Journal struct {
	dir string
	now func() time.Time

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewJournal(dir string) *Journal {
	return &Journal{dir: dir, now: time.Now}
}

// RecordAction implements ActionRecorder. Write errors are logged; the
// journal never blocks the simulation on a bad disk.
func (j *Journal) RecordAction(tick uint64, player *Player, spec *ActionSpec, args any) {
	j.record("", tick, player, spec, args)
}

// Session returns a recorder that tags entries with a session id
func (j *Journal) Session(id string) ActionRecorder {
	return &sessionJournal{j: j, id: id}
}

type sessionJournal struct {
	j  *Journal
	id string
}

func (s *sessionJournal) RecordAction(tick uint64, player *Player, spec *ActionSpec, args any) {
	s.j.record(s.id, tick, player, spec, args)
}

func (j *Journal) record(session string, tick uint64, player *Player, spec *ActionSpec, args any) {
	raw, err := json.Marshal(args)
	if err != nil {
		componentLog("journal").WithError(err).WithField("action", spec.Name).Error("marshal args")
		return
	}
	e := JournalEntry{Tick: tick, Time: j.now().UTC(), Session: session, Action: spec.Name, Args: raw}
	if player != nil {
		e.Player = player.ID
		e.Name = player.Name
	}
	if err := j.Write(e); err != nil {
		componentLog("journal").WithError(err).Error("write entry")
	}
}

func (j *Journal) Write(e JournalEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	hour := e.Time.Format("2006-01-02-15")
	if hour != j.curHour {
		if err := j.rotateLocked(hour); err != nil {
			return err
		}
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := j.w.Write(b); err != nil {
		return err
	}
	if err := j.w.WriteByte('\n'); err != nil {
		return err
	}
	return j.w.Flush()
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.closeLocked()
}

func (j *Journal) rotateLocked(hour string) error {
	if err := j.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(j.dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(j.pathForHour(hour), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	j.f = f
	j.enc = enc
	j.w = bufio.NewWriterSize(enc, 64*1024)
	j.curHour = hour
	return nil
}

func (j *Journal) closeLocked() error {
	var err error
	if j.w != nil {
		_ = j.w.Flush()
	}
	if j.enc != nil {
		err = j.enc.Close()
		j.enc = nil
	}
	if j.f != nil {
		_ = j.f.Close()
		j.f = nil
	}
	j.w = nil
	j.curHour = ""
	return err
}

func (j *Journal) pathForHour(hour string) string {
	return filepath.Join(j.dir, fmt.Sprintf("actions-%s.jsonl.zst", hour))
}

// ReadJournal decodes every entry of one journal file
func ReadJournal(path string) ([]JournalEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var entries []JournalEntry
	jd := json.NewDecoder(dec)
	for {
		var e JournalEntry
		if err := jd.Decode(&e); err == io.EOF {
			return entries, nil
		} else if err != nil {
			return entries, fmt.Errorf("read %s: %w", path, err)
		}
		entries = append(entries, e)
	}
}
