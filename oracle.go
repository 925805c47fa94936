//
// Copyright 2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package patcher

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Oracle answers the questions that decide whether a sync may start.
// Implementations must not have side effects.
type Oracle interface {
	IsGameLatestVersion() bool
	IsTranslationSupported(language *Language) bool
	IsTranslationOutdated(language *Language) bool
	HasNewTranslations(language *Language) bool
}

// VersionOracle is an Oracle over a snapshot of the version metadata.
type VersionOracle struct {
	// GameVersion is the version of the installed client.
	GameVersion string
	// LatestGameVersion is the client version advertised by the server.
	LatestGameVersion string
	// Targets maps a language name to the client version its pack was
	// made for.
	Targets map[string]string
	// Installed maps a language name to the stamp of the translation
	// currently staged on disk.
	Installed map[string]TranslationStamp
}

// IsGameLatestVersion is true if the installed client is the advertised one.
func (o *VersionOracle) IsGameLatestVersion() bool {
	return o.GameVersion != "" && o.GameVersion == o.LatestGameVersion
}

// IsTranslationSupported is true if the pack of language was made for the
// installed client.
func (o *VersionOracle) IsTranslationSupported(language *Language) bool {
	target, ok := o.Targets[language.Name()]
	return ok && target == o.GameVersion
}

// IsTranslationOutdated is true if the staged translation was installed for
// another client version.
func (o *VersionOracle) IsTranslationOutdated(language *Language) bool {
	stamp, ok := o.Installed[language.Name()]
	return ok && stamp.GameVersion != o.GameVersion
}

// HasNewTranslations is true if nothing is staged yet or the pack was
// updated after the staged copy.
func (o *VersionOracle) HasNewTranslations(language *Language) bool {
	stamp, ok := o.Installed[language.Name()]
	return !ok || language.LastUpdate().After(stamp.Date)
}

// HashFile returns the hex encoded SHA-256 digest of the file at path. It
// can be used to fingerprint a client binary.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
