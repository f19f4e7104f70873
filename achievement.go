package main

import "sync"

// Achievement definitions
type AchievementDef struct {
	ID          string
	Name        string
	Description string
}

var Achievements = []AchievementDef{
	{"first_orders", "First Orders", "Command your first units"},
	{"field_marshal", "Field Marshal", "Issue 1000 unit commands"},
	{"drill_sergeant", "Drill Sergeant", "Move units in formation"},
	{"tinkerer", "Tinkerer", "Configure 100 buildings"},
	{"quartermaster", "Quartermaster", "Deposit items 100 times"},
	{"scavenger", "Scavenger", "Withdraw items 100 times"},
}

// CheckAchievements unlocks every achievement the account's stats now
// qualify for. Returns the newly unlocked ones.
func CheckAchievements(db *DB, playerID int64) []AchievementDef {
	if db == nil {
		return nil
	}

	stats, err := db.GetStats(playerID)
	if err != nil || stats == nil {
		return nil
	}

	existing, err := db.GetAchievements(playerID)
	if err != nil {
		return nil
	}
	has := make(map[string]bool, len(existing))
	for _, a := range existing {
		has[a] = true
	}

	var unlocked []AchievementDef

	check := func(id string) bool {
		if has[id] {
			return false
		}
		switch id {
		case "first_orders":
			return stats.Commands >= 1
		case "field_marshal":
			return stats.Commands >= 1000
		case "drill_sergeant":
			return stats.Formations >= 1
		case "tinkerer":
			return stats.Configures >= 100
		case "quartermaster":
			return stats.Deposits >= 100
		case "scavenger":
			return stats.Withdraws >= 100
		}
		return false
	}

	for _, def := range Achievements {
		if check(def.ID) {
			if newlyUnlocked, err := db.UnlockAchievement(playerID, def.ID); err == nil && newlyUnlocked {
				unlocked = append(unlocked, def)
			}
		}
	}

	return unlocked
}

// statUpdate is one counter change of a registered player
type statUpdate struct {
	delta StatsRow
	con   Broadcaster
}

// AchievementTracker counts domain events per account and unlocks
// achievements off the simulation goroutine.
type AchievementTracker struct {
	db        *DB
	analytics *Analytics
	updates   chan statUpdate
	stop      chan struct{}
	wg        sync.WaitGroup
}

// NewAchievementTracker starts the background worker. analytics may be nil.
func NewAchievementTracker(db *DB, analytics *Analytics) *AchievementTracker {
	t := &AchievementTracker{
		db:        db,
		analytics: analytics,
		updates:   make(chan statUpdate, 512),
		stop:      make(chan struct{}),
	}
	t.wg.Add(1)
	go t.run()
	return t
}

// Attach subscribes the tracker to a session's events
func (t *AchievementTracker) Attach(n *Net) {
	n.Events.Subscribe(EventUnitsCommanded, func(e Event) { t.count(e, StatsRow{Commands: 1}) })
	n.Events.Subscribe(EventConfig, func(e Event) { t.count(e, StatsRow{Configures: 1}) })
	n.Events.Subscribe(EventFormation, func(e Event) { t.count(e, StatsRow{Formations: 1}) })
	n.Events.Subscribe(EventDeposit, func(e Event) { t.count(e, StatsRow{Deposits: 1}) })
	n.Events.Subscribe(EventWithdraw, func(e Event) { t.count(e, StatsRow{Withdraws: 1}) })
}

// count runs on the simulation goroutine and must not block
func (t *AchievementTracker) count(e Event, d StatsRow) {
	p := e.Actor()
	if p == nil || p.AuthID == 0 {
		return
	}
	d.PlayerID = p.AuthID
	select {
	case t.updates <- statUpdate{delta: d, con: p.Con}:
	default:
	}
}

func (t *AchievementTracker) run() {
	defer t.wg.Done()
	for {
		select {
		case u := <-t.updates:
			t.apply(u)
		case <-t.stop:
			for {
				select {
				case u := <-t.updates:
					t.apply(u)
				default:
					return
				}
			}
		}
	}
}

func (t *AchievementTracker) apply(u statUpdate) {
	if err := t.db.AddStats(u.delta); err != nil {
		componentLog("achievements").WithError(err).WithField("player", u.delta.PlayerID).Error("update stats")
		return
	}
	for _, def := range CheckAchievements(t.db, u.delta.PlayerID) {
		componentLog("achievements").WithField("player", u.delta.PlayerID).WithField("achievement", def.ID).Info("unlocked")
		if t.analytics != nil {
			t.analytics.Track(EvtAchievement, u.delta.PlayerID, "", `{"id":"`+def.ID+`"}`)
		}
		if u.con != nil {
			u.con.SendJSON(Envelope{T: MsgAchievement, Data: AchievementMsg{
				ID:          def.ID,
				Name:        def.Name,
				Description: def.Description,
			}})
		}
	}
}

// Stop drains pending updates and stops the worker
func (t *AchievementTracker) Stop() {
	close(t.stop)
	t.wg.Wait()
}
