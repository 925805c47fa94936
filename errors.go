//
// Copyright 2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package patcher

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrClientOutdated means the game client must be updated before a
	// sync can start.
	ErrClientOutdated = errors.New("game client is not the latest version")
	// ErrTranslationUnsupported means the pack was not made for the
	// installed client version.
	ErrTranslationUnsupported = errors.New("translation does not support this client version")
	// ErrBackupUnsupported means the original files of a region are not
	// available for the installed client version.
	ErrBackupUnsupported = errors.New("backup does not support this client version")
	// ErrAlreadyLatest means the staged translation is already up to date.
	ErrAlreadyLatest = errors.New("translation is already the latest")
)

// PreconditionError is the failure of a sync rejected before any transfer.
type PreconditionError struct {
	// Reason is one of ErrClientOutdated, ErrTranslationUnsupported,
	// ErrBackupUnsupported or ErrAlreadyLatest.
	Reason error
	// LastUpdate is the publication date of the pack, set with
	// ErrAlreadyLatest.
	LastUpdate time.Time
}

func (e *PreconditionError) Error() string {
	if errors.Is(e.Reason, ErrAlreadyLatest) {
		return fmt.Sprintf("%s (%s)", e.Reason, FormatDate(e.LastUpdate))
	}
	return e.Reason.Error()
}

func (e *PreconditionError) Unwrap() error {
	return e.Reason
}

// TransportError is the failure of a sync while fetching or storing a part.
type TransportError struct {
	Op   string
	File string
	Part int
	URL  string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s part %d: %s", e.Op, e.File, e.Part, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RestoreError reports a backup file that could not be put back.
type RestoreError struct {
	Backup string
	Live   string
	Err    error
}

func (e *RestoreError) Error() string {
	return fmt.Sprintf("restoring %s to %s: %s", e.Backup, e.Live, e.Err)
}

func (e *RestoreError) Unwrap() error {
	return e.Err
}
