//
// Copyright 2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package patcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// State of an Engine.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateDownloading
	StateCompleted
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateDownloading:
		return "downloading"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Progress is reported while a part is received and once it is stored.
type Progress struct {
	// FileNumber is the 1-based position of the file in the manifest.
	FileNumber int
	FileCount  int
	FileName   string
	// Part is the 1-based part being received.
	Part      int
	PartCount int
	// BytesReceived and TotalBytes refer to the current part. TotalBytes is
	// -1 if the server did not announce it.
	BytesReceived int64
	TotalBytes    int64
}

// Percent returns the completion of the current part, or -1 if unknown.
func (p Progress) Percent() int {
	if p.TotalBytes <= 0 {
		return -1
	}
	return int(p.BytesReceived * 100 / p.TotalBytes)
}

// Completion is emitted exactly once at the end of every run.
type Completion struct {
	Language *Language
	// Backup is true for runs started with RunRegion.
	Backup    bool
	Cancelled bool
	// Err is nil on success and on cancellation.
	Err error
}

// StaleBackupRemover discards backups that no longer match the client files.
type StaleBackupRemover interface {
	DeleteStaleBackups(language *Language) error
}

// Engine downloads the manifest of a language, one part at a time, on a
// background goroutine. An Engine runs at most one sync at a time.
//
// Oracle and Manifests are required. The exported fields must be set before
// the first run and not changed afterward. OnProgress and OnCompleted are called from the engine
// goroutine, progress always precedes the completion of the same run.
type Engine struct {
	// GamePath is the root of the live game installation, the destination
	// of backup runs.
	GamePath  string
	Oracle    Oracle
	Manifests ManifestProvider
	// Backups, if set, is asked to discard stale backups when the staged
	// translation is outdated.
	Backups StaleBackupRemover
	// Fetcher used for the parts, DefaultFetcher if nil.
	Fetcher Fetcher
	// Logger, discarded if nil.
	Logger *slog.Logger

	OnProgress  func(Progress)
	OnCompleted func(Completion)

	mu     sync.Mutex
	state  State
	busy   bool
	cancel context.CancelFunc
	done   chan struct{}
}

var errCancelled = errors.New("sync cancelled")

// Run starts syncing the pack of language into its staging folder. It
// returns false, and does nothing, if a sync is already running or the
// Oracle or Manifests are missing.
func (e *Engine) Run(language *Language) bool {
	return e.start(language)
}

// RunRegion starts downloading the original files of region into the game
// installation. It returns false, and does nothing, under the same
// conditions as Run.
func (e *Engine) RunRegion(region Region) bool {
	return e.start(BackupLanguage(region))
}

// Cancel asks the running sync, if any, to stop. The sync stops before the
// next fetch and emits a cancelled completion.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.busy {
		e.cancel()
	}
}

// Wait blocks until the current sync, if any, has emitted its completion.
func (e *Engine) Wait() {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()
	if done != nil {
		<-done
	}
}

// State returns the state of the current or last run.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) start(language *Language) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.busy || e.Oracle == nil || e.Manifests == nil || language == nil {
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.busy = true
	e.cancel = cancel
	e.done = make(chan struct{})
	e.state = StateValidating
	go e.work(ctx, language, e.done)
	return true
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func (e *Engine) work(ctx context.Context, language *Language, done chan struct{}) {
	log := e.logger().With(
		slog.String("run", uuid.NewString()),
		slog.String("language", language.Name()),
		slog.Bool("backup", language.IsBackup()))
	log.Info("sync started")

	err := e.sync(ctx, log, language)

	completion := Completion{Language: language, Backup: language.IsBackup()}
	state := StateCompleted
	switch {
	case errors.Is(err, errCancelled):
		completion.Cancelled = true
		state = StateCancelled
		log.Info("sync cancelled")
	case err != nil:
		completion.Err = err
		state = StateFailed
		log.Error("sync failed", slog.Any("err", err))
	default:
		log.Info("sync completed")
	}

	e.setState(state)
	if e.OnCompleted != nil {
		e.OnCompleted(completion)
	}

	e.mu.Lock()
	e.busy = false
	e.cancel()
	e.mu.Unlock()
	close(done)
}

func (e *Engine) sync(ctx context.Context, log *slog.Logger, language *Language) error {
	if ctx.Err() != nil {
		return errCancelled
	}
	if err := e.validate(log, language); err != nil {
		return err
	}
	if ctx.Err() != nil {
		return errCancelled
	}

	manifest, err := e.Manifests.Load(ctx, language)
	if ctx.Err() != nil {
		return errCancelled
	}
	if err != nil {
		return err
	}
	if manifest.Count() == 0 {
		return nil
	}

	e.setState(StateDownloading)
	return e.download(ctx, log, language, manifest)
}

func (e *Engine) validate(log *slog.Logger, language *Language) error {
	if !e.Oracle.IsGameLatestVersion() {
		return &PreconditionError{Reason: ErrClientOutdated}
	}

	if language.IsBackup() {
		log.Info("downloading backup")
		if !e.Oracle.IsTranslationSupported(language) {
			return &PreconditionError{Reason: ErrBackupUnsupported}
		}
		return nil
	}

	if !e.Oracle.IsTranslationSupported(language) {
		return &PreconditionError{Reason: ErrTranslationUnsupported}
	}
	outdated := e.Oracle.IsTranslationOutdated(language)
	if outdated && e.Backups != nil {
		if err := e.Backups.DeleteStaleBackups(language); err != nil {
			log.Warn("cannot delete stale backups", slog.Any("err", err))
		}
	}
	if !outdated && !e.Oracle.HasNewTranslations(language) {
		return &PreconditionError{Reason: ErrAlreadyLatest, LastUpdate: language.LastUpdate()}
	}
	return nil
}

func (e *Engine) download(ctx context.Context, log *slog.Logger, language *Language, manifest *Manifest) error {
	fetcher := e.Fetcher
	if fetcher == nil {
		fetcher = DefaultFetcher()
	}
	root := language.Path()
	if language.IsBackup() {
		root = e.GamePath
	}

	cur := newCursor(manifest)
	for {
		file := cur.file()
		progress := Progress{
			FileNumber: cur.index + 1,
			FileCount:  manifest.Count(),
			FileName:   file.Name,
			Part:       cur.part,
			PartCount:  file.Parts,
		}
		url := file.PartURL(language.WebPath(), cur.part)
		log.Debug("fetching", slog.String("url", url), slog.String("file", file.Name), slog.Int("part", cur.part))

		data, err := fetcher.Fetch(ctx, url, func(received, total int64) {
			progress.BytesReceived, progress.TotalBytes = received, total
			e.emitProgress(progress)
		})
		if err != nil {
			if ctx.Err() != nil {
				return errCancelled
			}
			return &TransportError{Op: "fetch", File: file.Name, Part: cur.part, URL: url, Err: err}
		}

		dest := filepath.Join(root, file.RelativePath())
		if err := writePart(dest, cur.part, data); err != nil {
			return &TransportError{Op: "write", File: file.Name, Part: cur.part, URL: url, Err: err}
		}
		progress.BytesReceived, progress.TotalBytes = int64(len(data)), int64(len(data))
		e.emitProgress(progress)

		if !cur.advance() {
			return nil
		}
		if ctx.Err() != nil {
			return errCancelled
		}
	}
}

func (e *Engine) emitProgress(p Progress) {
	if e.OnProgress != nil {
		e.OnProgress(p)
	}
}
