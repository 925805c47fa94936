//
// Copyright 2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package patcher

import (
	"fmt"
	"time"
)

// Language is a translation pack published on the patch server.
// A Language is immutable once created.
type Language struct {
	name       string
	lastUpdate time.Time
	webPath    string
	path       string
	backup     bool
}

// NewLanguage returns a translation pack named name, published at webPath
// and staged locally under path.
func NewLanguage(name string, lastUpdate time.Time, webPath, path string) *Language {
	return &Language{
		name:       name,
		lastUpdate: lastUpdate,
		webPath:    webPath,
		path:       path,
	}
}

// Region identifies a game server cluster and the base URL hosting the
// original (untranslated) client files for it.
type Region struct {
	ID      string
	BaseURL string
}

// BackupLanguage returns the pseudo-language used to download the original
// files of region straight into the game installation.
func BackupLanguage(region Region) *Language {
	return &Language{
		name:    region.ID,
		webPath: region.BaseURL,
		backup:  true,
	}
}

// Name of the translation, or the region id for backup languages.
func (l *Language) Name() string { return l.name }

// LastUpdate is the publication date of the translation pack.
func (l *Language) LastUpdate() time.Time { return l.lastUpdate }

// WebPath is the base URL the pack files are addressed from.
func (l *Language) WebPath() string { return l.webPath }

// Path is the local staging folder of the translation.
func (l *Language) Path() string { return l.path }

// IsBackup is true for languages built with BackupLanguage.
func (l *Language) IsBackup() bool { return l.backup }

func (l *Language) String() string {
	if l == nil {
		return "<nil>"
	}
	if l.backup {
		return fmt.Sprintf("backup(%s)", l.name)
	}
	return l.name
}
