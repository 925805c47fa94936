//
// Copyright 2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package patcher

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/ini.v1"
)

// StampFile is the name of the file recording which pack is staged in a
// language folder.
const StampFile = "translation.ini"

// TranslationStamp records the pack staged in a language folder.
type TranslationStamp struct {
	// Date is the last update of the pack when it was downloaded.
	Date time.Time
	// GameVersion is the client version the pack was downloaded for.
	GameVersion string
}

// ReadTranslationStamp reads the stamp of language. ok is false if the
// language was never staged.
func ReadTranslationStamp(language *Language) (stamp TranslationStamp, ok bool, err error) {
	data, err := os.ReadFile(filepath.Join(language.Path(), StampFile))
	if errors.Is(err, fs.ErrNotExist) {
		return TranslationStamp{}, false, nil
	}
	if err != nil {
		return TranslationStamp{}, false, err
	}
	doc, err := ini.Load(data)
	if err != nil {
		return TranslationStamp{}, false, fmt.Errorf("parsing stamp of %s: %w", language, err)
	}
	section := doc.Section(ini.DefaultSection)
	date, err := ParseDate(section.Key("date").String())
	if err != nil {
		return TranslationStamp{}, false, fmt.Errorf("parsing stamp of %s: %w", language, err)
	}
	return TranslationStamp{Date: date, GameVersion: section.Key("version").String()}, true, nil
}

// WriteTranslationStamp records stamp in the staging folder of language.
func WriteTranslationStamp(language *Language, stamp TranslationStamp) error {
	if err := os.MkdirAll(language.Path(), 0755); err != nil {
		return err
	}
	doc := ini.Empty()
	section := doc.Section(ini.DefaultSection)
	section.Key("date").SetValue(stamp.Date.Format(time.RFC3339))
	section.Key("version").SetValue(stamp.GameVersion)
	return doc.SaveTo(filepath.Join(language.Path(), StampFile))
}

// DeleteTranslationStamp marks language as not staged.
func DeleteTranslationStamp(language *Language) error {
	err := os.Remove(filepath.Join(language.Path(), StampFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
