package main

import (
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/binzume/mannequin/atlas"
	"github.com/binzume/mannequin/design"
	"github.com/fsnotify/fsnotify"
)

// reloadWindow absorbs editors that write a file in several steps.
const reloadWindow = 200 * time.Millisecond

// watchSession replaces the session whenever its file changes and re-exports.
// It returns on interrupt.
func watchSession(path string, session *design.Session, conv configurator, out *outputs) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// watch the directory: editors often replace the file
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	target := filepath.Clean(path)

	reload := atlas.NewThrottle(reloadWindow, func() {
		f, err := os.Open(path)
		if err != nil {
			slog.Warn("session reload failed", "err", err)
			return
		}
		st, err := design.Decode(f)
		f.Close()
		if err != nil {
			slog.Warn("session reload failed", "err", err)
			return
		}
		session.Replace(st)
		if err := out.write(conv); err != nil {
			slog.Error("export failed", "err", err)
		}
	}, nil)
	defer reload.Stop()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	slog.Info("watching", "session", path)

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				reload.Schedule()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "err", err)
		case <-interrupt:
			return nil
		}
	}
}
