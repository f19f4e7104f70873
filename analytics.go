package main

import (
	"database/sql"
	"encoding/json"
	"sync"
	"time"
)

// Session-level analytics event types. Domain events use their EventType name.
const (
	EvtSessionStart = "session_start"
	EvtSessionEnd   = "session_end"
	EvtPlayerJoin   = "player_join"
	EvtAchievement  = "achievement"
)

const (
	analyticsBatchSize     = 50
	analyticsFlushInterval = 5 * time.Second
)

// AnalyticsEvent represents a single trackable event
type AnalyticsEvent struct {
	Type      string
	PlayerID  int64
	SessionID string
	Data      string // JSON metadata (optional)
	Timestamp time.Time
}

// FaultRecord is a rejected action waiting to be written to the audit table
type FaultRecord struct {
	SessionID  string
	Tick       uint64
	PlayerID   int64
	PlayerName string
	Action     string
	Reason     string
	Timestamp  time.Time
}

// Analytics handles event and fault tracking with batched background writes
type Analytics struct {
	db     *DB
	events chan AnalyticsEvent
	faults chan FaultRecord
	stop   chan struct{}
	wg     sync.WaitGroup
	now    func() time.Time
}

// NewAnalytics creates and starts the analytics background writer
func NewAnalytics(db *DB) *Analytics {
	a := &Analytics{
		db:     db,
		events: make(chan AnalyticsEvent, 1024),
		faults: make(chan FaultRecord, 256),
		stop:   make(chan struct{}),
		now:    func() time.Time { return time.Now().UTC() },
	}
	a.wg.Add(1)
	go a.writer()
	return a
}

// Track enqueues an event for async persistence (non-blocking)
func (a *Analytics) Track(evtType string, playerID int64, sessionID string, data string) {
	select {
	case a.events <- AnalyticsEvent{
		Type:      evtType,
		PlayerID:  playerID,
		SessionID: sessionID,
		Data:      data,
		Timestamp: a.now(),
	}:
	default:
		// Channel full, drop rather than block the tick
	}
}

// Attach subscribes the writer to a session's events and faults
func (a *Analytics) Attach(sessionID string, n *Net) {
	n.AddFaultRecorder(&sessionAudit{a: a, sessionID: sessionID})
	n.Events.SubscribeAll(func(e Event) {
		a.Track(string(e.Type()), authID(e.Actor()), sessionID, eventData(e))
	})
}

// sessionAudit tags faults with the session they were raised in
type sessionAudit struct {
	a         *Analytics
	sessionID string
}

func (s *sessionAudit) RecordFault(tick uint64, f *ValidationFault) {
	rec := FaultRecord{
		SessionID: s.sessionID,
		Tick:      tick,
		Action:    f.Action.String(),
		Reason:    f.Reason,
		Timestamp: s.a.now(),
	}
	if f.Player != nil {
		rec.PlayerID = f.Player.AuthID
		rec.PlayerName = f.Player.Name
	}
	select {
	case s.a.faults <- rec:
	default:
		componentLog("audit").WithField("action", rec.Action).Warn("fault queue full, dropping record")
	}
}

func authID(p *Player) int64 {
	if p == nil {
		return 0
	}
	return p.AuthID
}

// eventData renders the interesting fields of an event as JSON
func eventData(e Event) string {
	var d map[string]any
	switch ev := e.(type) {
	case *UnitsCommandedEvent:
		d = map[string]any{"units": len(ev.Units), "queued": ev.Queued}
	case *FormationEvent:
		d = map[string]any{"groups": len(ev.Groups)}
	case *BuildingEvent:
		if ev.Build != nil {
			d = map[string]any{"block": ev.Build.Block.Name, "x": ev.Build.X, "y": ev.Build.Y}
		}
	case *ItemEvent:
		d = map[string]any{"item": ev.Item, "amount": ev.Amount}
	case *PlansDeletedEvent:
		d = map[string]any{"plans": len(ev.Positions)}
	}
	if d == nil {
		return ""
	}
	b, err := json.Marshal(d)
	if err != nil {
		return ""
	}
	return string(b)
}

// Stop gracefully shuts down the analytics writer
func (a *Analytics) Stop() {
	close(a.stop)
	a.wg.Wait()
}

// writer is the background goroutine that batches and writes records to DB
func (a *Analytics) writer() {
	defer a.wg.Done()

	events := make([]AnalyticsEvent, 0, 64)
	faults := make([]FaultRecord, 0, 16)
	ticker := time.NewTicker(analyticsFlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(events) > 0 || len(faults) > 0 {
			a.flush(events, faults)
			events = events[:0]
			faults = faults[:0]
		}
	}

	for {
		select {
		case evt := <-a.events:
			events = append(events, evt)
			if len(events) >= analyticsBatchSize {
				flush()
			}
		case f := <-a.faults:
			faults = append(faults, f)
			if len(faults) >= analyticsBatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-a.stop:
			// Drain whatever is queued; senders never block so nothing new races in
			for {
				select {
				case evt := <-a.events:
					events = append(events, evt)
				case f := <-a.faults:
					faults = append(faults, f)
				default:
					flush()
					return
				}
			}
		}
	}
}

// flush writes a batch of records to the database
func (a *Analytics) flush(events []AnalyticsEvent, faults []FaultRecord) {
	if a.db == nil {
		return
	}
	log := componentLog("analytics")
	tx, err := a.db.conn.Begin()
	if err != nil {
		log.WithError(err).Error("begin tx")
		return
	}
	defer tx.Rollback()

	evStmt, err := tx.Prepare(`INSERT INTO analytics_events (event_type, player_id, session_id, data, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		log.WithError(err).Error("prepare events")
		return
	}
	defer evStmt.Close()

	for _, evt := range events {
		pid := sql.NullInt64{Int64: evt.PlayerID, Valid: evt.PlayerID > 0}
		sid := sql.NullString{String: evt.SessionID, Valid: evt.SessionID != ""}
		data := sql.NullString{String: evt.Data, Valid: evt.Data != ""}
		if _, err := evStmt.Exec(evt.Type, pid, sid, data, evt.Timestamp.Format(time.RFC3339)); err != nil {
			log.WithError(err).Error("insert event")
		}
	}

	fStmt, err := tx.Prepare(`INSERT INTO audit_faults (session_id, tick, player_id, player_name, action_type, reason, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		log.WithError(err).Error("prepare faults")
		return
	}
	defer fStmt.Close()

	for _, f := range faults {
		pid := sql.NullInt64{Int64: f.PlayerID, Valid: f.PlayerID > 0}
		if _, err := fStmt.Exec(f.SessionID, f.Tick, pid, f.PlayerName, f.Action, f.Reason, f.Timestamp.Format(time.RFC3339)); err != nil {
			log.WithError(err).Error("insert fault")
		}
	}
	if err := tx.Commit(); err != nil {
		log.WithError(err).Error("commit")
	}
}

// --- Query methods ---

// DAUCount returns number of distinct players active today
func (a *Analytics) DAUCount() (int, error) {
	if a.db == nil {
		return 0, nil
	}
	var count int
	err := a.db.conn.QueryRow(`
		SELECT COUNT(DISTINCT player_id) FROM analytics_events
		WHERE player_id IS NOT NULL AND created_at >= date('now')
	`).Scan(&count)
	return count, err
}

// EventCounts returns counts of each event type for the last N days
func (a *Analytics) EventCounts(days int) (map[string]int, error) {
	if a.db == nil {
		return nil, nil
	}
	rows, err := a.db.conn.Query(`
		SELECT event_type, COUNT(*) FROM analytics_events
		WHERE created_at >= date('now', '-' || ? || ' days')
		GROUP BY event_type ORDER BY COUNT(*) DESC
	`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var evtType string
		var count int
		if err := rows.Scan(&evtType, &count); err != nil {
			continue
		}
		result[evtType] = count
	}
	return result, rows.Err()
}

// FaultCounts returns rejected actions per action type for the last N days
func (a *Analytics) FaultCounts(days int) (map[string]int, error) {
	if a.db == nil {
		return nil, nil
	}
	rows, err := a.db.conn.Query(`
		SELECT action_type, COUNT(*) FROM audit_faults
		WHERE created_at >= date('now', '-' || ? || ' days')
		GROUP BY action_type
	`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var action string
		var count int
		if err := rows.Scan(&action, &count); err != nil {
			continue
		}
		result[action] = count
	}
	return result, rows.Err()
}
