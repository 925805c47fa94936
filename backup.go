//
// Copyright 2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package patcher

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// BackupManager keeps the original copy of every live game file replaced
// by a translation. Backups mirror the layout of the game installation
// under Root.
type BackupManager struct {
	// GamePath is the root of the live game installation.
	GamePath string
	// Root is the backup staging folder.
	Root string
	// Logger, discarded if nil.
	Logger *slog.Logger
}

func (b *BackupManager) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// CheckForExistingBackups returns true if the backup folder holds at least
// one file.
func (b *BackupManager) CheckForExistingBackups(language *Language) bool {
	found := false
	_ = filepath.WalkDir(b.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			found = true
			return fs.SkipAll
		}
		return nil
	})
	if found {
		b.logger().Debug("backups found", slog.String("language", language.Name()), slog.String("root", b.Root))
	}
	return found
}

// Apply installs the staged files of language listed in manifest onto the
// live installation. The live file is moved to the backup folder first,
// unless a backup of it already exists.
func (b *BackupManager) Apply(language *Language, manifest *Manifest) error {
	log := b.logger().With(slog.String("language", language.Name()))
	for i := 0; i < manifest.Count(); i++ {
		rel := manifest.At(i).RelativePath()
		staged := filepath.Join(language.Path(), rel)
		live := filepath.Join(b.GamePath, rel)
		backup := filepath.Join(b.Root, rel)

		if exists(live) && !exists(backup) {
			if err := os.MkdirAll(filepath.Dir(backup), 0755); err != nil {
				return fmt.Errorf("backing up %s: %w", live, err)
			}
			if err := moveFile(live, backup); err != nil {
				return fmt.Errorf("backing up %s: %w", live, err)
			}
		}
		if err := os.MkdirAll(filepath.Dir(live), 0755); err != nil {
			return fmt.Errorf("installing %s: %w", live, err)
		}
		if err := copyFile(staged, live); err != nil {
			return fmt.Errorf("installing %s: %w", live, err)
		}
		log.Debug("installed file", slog.String("file", live), slog.String("backup", backup))
	}
	return nil
}

// RestoreBackup puts every backup back into the live installation. A live
// file found at the same place is moved into the staging folder of
// language, replacing the staged copy. A backup whose live folder
// disappeared is discarded. Each file is handled on its own: the returned
// error joins a *RestoreError for every file that could not be restored.
func (b *BackupManager) RestoreBackup(language *Language) error {
	files, err := b.files()
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("listing backups: %w", err)
	}

	log := b.logger().With(slog.String("language", language.Name()))
	var errs []error
	for _, rel := range files {
		if err := b.restore(log, language, rel); err != nil {
			log.Error("cannot restore file", slog.String("file", rel), slog.Any("err", err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *BackupManager) restore(log *slog.Logger, language *Language, rel string) error {
	backup := filepath.Join(b.Root, rel)
	live := filepath.Join(b.GamePath, rel)
	log.Info("restoring file", slog.String("original", live), slog.String("backup", backup))

	if _, err := os.Stat(filepath.Dir(live)); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return &RestoreError{Backup: backup, Live: live, Err: err}
		}
		if rmErr := os.Remove(backup); rmErr != nil {
			log.Warn("cannot discard backup", slog.String("backup", backup), slog.Any("err", rmErr))
		}
		return &RestoreError{Backup: backup, Live: live, Err: err}
	}

	if exists(live) {
		staged := filepath.Join(language.Path(), rel)
		if err := os.MkdirAll(filepath.Dir(staged), 0755); err != nil {
			return &RestoreError{Backup: backup, Live: live, Err: err}
		}
		if err := moveFile(live, staged); err != nil {
			return &RestoreError{Backup: backup, Live: live, Err: err}
		}
	}
	if err := moveFile(backup, live); err != nil {
		return &RestoreError{Backup: backup, Live: live, Err: err}
	}
	return nil
}

// DeleteStaleBackups discards every backup. It is used when the client
// files changed since the backups were taken.
func (b *BackupManager) DeleteStaleBackups(language *Language) error {
	b.logger().Info("deleting stale backups", slog.String("language", language.Name()), slog.String("root", b.Root))
	return os.RemoveAll(b.Root)
}

// Reconcile deals with the backups left by a previous session: they are
// restored if restore is true and discarded otherwise. If there are none,
// the empty backup folder is created.
func (b *BackupManager) Reconcile(language *Language, restore bool) error {
	if !b.CheckForExistingBackups(language) {
		return os.MkdirAll(b.Root, 0755)
	}
	if restore {
		return b.RestoreBackup(language)
	}
	return os.RemoveAll(b.Root)
}

// files returns the path of every backup relative to Root.
func (b *BackupManager) files() ([]string, error) {
	var res []string
	err := filepath.WalkDir(b.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(b.Root, path)
		if err != nil {
			return err
		}
		res = append(res, rel)
		return nil
	})
	return res, err
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// moveFile renames src to dst, replacing dst. It falls back to copy and
// remove when a rename is not possible, e.g. across volumes.
func moveFile(src, dst string) error {
	if err := os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !exists(src) {
		return err
	}
	if cpErr := copyFile(src, dst); cpErr != nil {
		return errors.Join(err, cpErr)
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	return out.Close()
}
