//
// Copyright 2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package patcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, path, content string) {
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func requireContent(t *testing.T, path, content string) {
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, content, string(data))
}

type backupFixture struct {
	game, root string
	lang       *Language
	manager    *BackupManager
}

func newBackupFixture(t *testing.T) *backupFixture {
	dir := t.TempDir()
	f := &backupFixture{
		game: filepath.Join(dir, "game"),
		root: filepath.Join(dir, "Backup"),
		lang: NewLanguage("English", testDate, "", filepath.Join(dir, "English")),
	}
	require.NoError(t, os.MkdirAll(f.game, 0755))
	f.manager = &BackupManager{GamePath: f.game, Root: f.root}
	return f
}

func TestCheckForExistingBackups(t *testing.T) {
	f := newBackupFixture(t)
	require.False(t, f.manager.CheckForExistingBackups(f.lang))

	require.NoError(t, os.MkdirAll(filepath.Join(f.root, "DAT", "empty"), 0755))
	require.False(t, f.manager.CheckForExistingBackups(f.lang))

	writeTestFile(t, filepath.Join(f.root, "DAT", "data12.v"), "original")
	require.True(t, f.manager.CheckForExistingBackups(f.lang))
}

func TestApplyAndRestore(t *testing.T) {
	f := newBackupFixture(t)
	m, err := NewManifest(
		RemoteFile{Name: "data12.v", Path: "DAT", PathD: "DAT/data12.v", Parts: 1},
		RemoteFile{Name: "new.pak", Path: "UI", PathD: "UI/new.pak", Parts: 1},
	)
	require.NoError(t, err)

	writeTestFile(t, filepath.Join(f.game, "DAT", "data12.v"), "original")
	writeTestFile(t, filepath.Join(f.lang.Path(), "DAT", "data12.v"), "translated")
	writeTestFile(t, filepath.Join(f.lang.Path(), "UI", "new.pak"), "translated ui")

	require.NoError(t, f.manager.Apply(f.lang, m))
	requireContent(t, filepath.Join(f.game, "DAT", "data12.v"), "translated")
	requireContent(t, filepath.Join(f.game, "UI", "new.pak"), "translated ui")
	requireContent(t, filepath.Join(f.root, "DAT", "data12.v"), "original")
	require.NoFileExists(t, filepath.Join(f.root, "UI", "new.pak"))
	require.True(t, f.manager.CheckForExistingBackups(f.lang))

	// applying again keeps the first backup
	require.NoError(t, f.manager.Apply(f.lang, m))
	requireContent(t, filepath.Join(f.root, "DAT", "data12.v"), "original")

	require.NoError(t, f.manager.RestoreBackup(f.lang))
	requireContent(t, filepath.Join(f.game, "DAT", "data12.v"), "original")
	requireContent(t, filepath.Join(f.lang.Path(), "DAT", "data12.v"), "translated")
	require.NoFileExists(t, filepath.Join(f.root, "DAT", "data12.v"))
	require.False(t, f.manager.CheckForExistingBackups(f.lang))
}

func TestRestoreBackupMissingLiveFolder(t *testing.T) {
	f := newBackupFixture(t)
	writeTestFile(t, filepath.Join(f.root, "gone", "old.dat"), "orphan")
	writeTestFile(t, filepath.Join(f.root, "DAT", "data12.v"), "original")
	writeTestFile(t, filepath.Join(f.root, "root.ini"), "root original")
	require.NoError(t, os.MkdirAll(filepath.Join(f.game, "DAT"), 0755))

	err := f.manager.RestoreBackup(f.lang)
	require.Error(t, err)
	var re *RestoreError
	require.True(t, errors.As(err, &re))
	require.Equal(t, filepath.Join(f.root, "gone", "old.dat"), re.Backup)
	require.ErrorIs(t, err, os.ErrNotExist)

	// the orphan is discarded, the others are restored
	require.NoFileExists(t, filepath.Join(f.root, "gone", "old.dat"))
	requireContent(t, filepath.Join(f.game, "DAT", "data12.v"), "original")
	requireContent(t, filepath.Join(f.game, "root.ini"), "root original")
	require.False(t, f.manager.CheckForExistingBackups(f.lang))
}

func TestRestoreBackupOverwritesStagedCopy(t *testing.T) {
	f := newBackupFixture(t)
	writeTestFile(t, filepath.Join(f.root, "DAT", "data12.v"), "original")
	writeTestFile(t, filepath.Join(f.game, "DAT", "data12.v"), "live translated")
	writeTestFile(t, filepath.Join(f.lang.Path(), "DAT", "data12.v"), "older staged")

	require.NoError(t, f.manager.RestoreBackup(f.lang))
	requireContent(t, filepath.Join(f.game, "DAT", "data12.v"), "original")
	requireContent(t, filepath.Join(f.lang.Path(), "DAT", "data12.v"), "live translated")
}

func TestRestoreBackupWithoutBackups(t *testing.T) {
	f := newBackupFixture(t)
	require.NoError(t, f.manager.RestoreBackup(f.lang))
}

func TestDeleteStaleBackups(t *testing.T) {
	f := newBackupFixture(t)
	writeTestFile(t, filepath.Join(f.root, "DAT", "data12.v"), "original")
	require.NoError(t, f.manager.DeleteStaleBackups(f.lang))
	require.NoDirExists(t, f.root)
	require.NoError(t, f.manager.DeleteStaleBackups(f.lang))
}

func TestReconcile(t *testing.T) {
	f := newBackupFixture(t)
	require.NoError(t, f.manager.Reconcile(f.lang, true))
	require.DirExists(t, f.root)

	writeTestFile(t, filepath.Join(f.root, "DAT", "data12.v"), "original")
	require.NoError(t, os.MkdirAll(filepath.Join(f.game, "DAT"), 0755))
	require.NoError(t, f.manager.Reconcile(f.lang, true))
	requireContent(t, filepath.Join(f.game, "DAT", "data12.v"), "original")

	writeTestFile(t, filepath.Join(f.root, "DAT", "data13.v"), "original")
	require.NoError(t, f.manager.Reconcile(f.lang, false))
	require.NoDirExists(t, f.root)
	require.NoFileExists(t, filepath.Join(f.game, "DAT", "data13.v"))
}

func TestWritePart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "file.dat")
	require.NoError(t, writePart(path, 1, []byte("one,")))
	require.NoError(t, writePart(path, 2, []byte("two,")))
	require.NoError(t, writePart(path, 3, []byte("three")))
	requireContent(t, path, "one,two,three")

	require.NoError(t, writePart(path, 1, []byte("fresh")))
	requireContent(t, path, "fresh")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.Error(t, writePart(filepath.Join(t.TempDir(), "missing.dat"), 2, []byte("x")))
}
