package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	InitLogger()

	cfg, err := LoadConfig()
	if err != nil {
		Log.WithError(err).Fatal("load config")
	}
	addr := flag.String("addr", cfg.Addr, "HTTP listen address")
	flag.Parse()

	content, err := LoadContent(cfg.ContentPath)
	if err != nil {
		Log.WithError(err).Fatal("load content")
	}

	var db *DB
	if cfg.DBPath != "" {
		db, err = OpenDB(cfg.DBPath)
		if err != nil {
			Log.WithError(err).Fatal("open database")
		}
		defer db.Close()
	}

	var journal *Journal
	if cfg.JournalDir != "" {
		journal = NewJournal(cfg.JournalDir)
		defer journal.Close()
	}

	var (
		analytics *Analytics
		tracker   *AchievementTracker
	)
	if db != nil {
		analytics = NewAnalytics(db)
		tracker = NewAchievementTracker(db, analytics)
	}

	sessions := NewSessionManager(cfg, content)
	sessions.OnCreate(func(sid string, n *Net) {
		if journal != nil {
			n.AddActionRecorder(journal.Session(sid))
		}
		if analytics != nil {
			analytics.Attach(sid, n)
			analytics.Track(EvtSessionStart, 0, sid, "")
		}
		if tracker != nil {
			tracker.Attach(n)
		}
	})

	hub := NewHub(db, sessions)
	go hub.Run()

	server := &http.Server{Addr: *addr, Handler: SetupRoutes(hub)}

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		Log.WithField("addr", *addr).Info("server starting")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			Log.WithError(err).Fatal("listen")
		}
	}()

	<-stop
	Log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		Log.WithError(err).Warn("http shutdown")
	}
	sessions.StopAll()
	if tracker != nil {
		tracker.Stop()
	}
	if analytics != nil {
		analytics.Stop()
	}
}
