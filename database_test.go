package main

import (
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestAuth(t *testing.T, db *DB) *Auth {
	t.Helper()
	a := NewAuth(db)
	a.cost = bcrypt.MinCost
	return a
}

func TestPlayerRows(t *testing.T) {
	db := openTestDB(t)
	id, err := db.CreatePlayer("alice", "hash")
	if err != nil {
		t.Fatalf("CreatePlayer: %v", err)
	}
	p, err := db.GetPlayerByUsername("alice")
	if err != nil || p == nil || p.ID != id || p.Admin {
		t.Fatalf("GetPlayerByUsername = %+v, %v", p, err)
	}
	if missing, err := db.GetPlayer(id + 100); err != nil || missing != nil {
		t.Errorf("missing player = %+v, %v", missing, err)
	}
	if err := db.SetAdmin(id, true); err != nil {
		t.Fatal(err)
	}
	if p, _ := db.GetPlayer(id); !p.Admin {
		t.Error("SetAdmin not persisted")
	}
	if ok, _ := db.UsernameExists("alice"); !ok {
		t.Error("alice should exist")
	}
	if _, err := db.CreatePlayer("alice", "other"); err == nil {
		t.Error("duplicate username accepted")
	}
}

func TestSettings(t *testing.T) {
	db := openTestDB(t)
	if v := db.GetSetting("motd"); v != "" {
		t.Errorf("unset setting = %q", v)
	}
	db.SetSetting("motd", "hello")
	db.SetSetting("motd", "bye")
	if v := db.GetSetting("motd"); v != "bye" {
		t.Errorf("setting = %q, want bye", v)
	}
}

func TestStatsAndAchievements(t *testing.T) {
	db := openTestDB(t)
	id, _ := db.CreatePlayer("bob", "")

	if got := CheckAchievements(db, id); len(got) != 0 {
		t.Errorf("fresh account unlocked %v", got)
	}
	db.AddStats(StatsRow{PlayerID: id, Commands: 1, Formations: 1})
	db.AddStats(StatsRow{PlayerID: id, Configures: 100})

	s, err := db.GetStats(id)
	if err != nil || s.Commands != 1 || s.Configures != 100 {
		t.Fatalf("stats = %+v, %v", s, err)
	}

	got := CheckAchievements(db, id)
	ids := map[string]bool{}
	for _, a := range got {
		ids[a.ID] = true
	}
	if len(got) != 3 || !ids["first_orders"] || !ids["drill_sergeant"] || !ids["tinkerer"] {
		t.Errorf("unlocked %v", got)
	}
	if again := CheckAchievements(db, id); len(again) != 0 {
		t.Errorf("achievements unlocked twice: %v", again)
	}
	if newly, err := db.UnlockAchievement(id, "tinkerer"); err != nil || newly {
		t.Errorf("UnlockAchievement repeat = %v, %v", newly, err)
	}
	if list, _ := db.GetAchievements(id); len(list) != 3 {
		t.Errorf("GetAchievements = %v", list)
	}
	if CheckAchievements(nil, id) != nil {
		t.Error("nil db should unlock nothing")
	}
}
