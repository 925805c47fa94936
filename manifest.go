//
// Copyright 2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package patcher

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

// DefaultFileList is the name of the file list published next to every
// translation pack.
const DefaultFileList = "TranslationPackData.ini"

// RemoteFile is an entry of a Manifest.
type RemoteFile struct {
	// Name is the display name of the file.
	Name string
	// Path is the destination folder, relative to the installation root.
	Path string
	// PathD is the location of the file relative to the pack web path.
	PathD string
	// Parts is the number of parts the file is split into on the server.
	Parts int
}

// RelativePath returns the destination of the file relative to the
// installation (or staging) root.
func (f RemoteFile) RelativePath() string {
	return filepath.Join(filepath.FromSlash(f.Path), path.Base(f.PathD))
}

// PartURL returns the URL of the given 1-based part. Part 1 is addressed
// by the bare path, part N by the path followed by ".N".
func (f RemoteFile) PartURL(webPath string, part int) string {
	u := joinURL(webPath, f.PathD)
	if part > 1 {
		u += "." + strconv.Itoa(part)
	}
	return u
}

// Manifest is the ordered, read-only list of files to fetch in a sync.
type Manifest struct {
	files []RemoteFile
}

// NewManifest validates files and returns a Manifest downloading them in
// the given order.
func NewManifest(files ...RemoteFile) (*Manifest, error) {
	for _, f := range files {
		if f.Parts < 1 {
			return nil, fmt.Errorf("file %s: invalid part count %d", f.Name, f.Parts)
		}
		if f.PathD == "" {
			return nil, fmt.Errorf("file %s: missing remote path", f.Name)
		}
		if rel := f.RelativePath(); !filepath.IsLocal(rel) {
			return nil, fmt.Errorf("file %s: destination %s escapes the installation root", f.Name, rel)
		}
	}
	return &Manifest{files: append([]RemoteFile(nil), files...)}, nil
}

// Count returns the number of files in the manifest.
func (m *Manifest) Count() int { return len(m.files) }

// At returns the i-th file of the manifest.
func (m *Manifest) At(i int) RemoteFile { return m.files[i] }

// ParseFileList decodes a pack file list. Every section is a file, named
// after the section, with the keys:
//
//	path  = destination folder
//	pathd = remote path
//	parts = number of parts (default 1)
func ParseFileList(data []byte) (*Manifest, error) {
	doc, err := ini.Load(data)
	if err != nil {
		return nil, fmt.Errorf("parsing file list: %w", err)
	}
	var files []RemoteFile
	for _, section := range doc.Sections() {
		if section.Name() == ini.DefaultSection {
			continue
		}
		parts := 1
		if section.HasKey("parts") {
			if parts, err = section.Key("parts").Int(); err != nil {
				return nil, fmt.Errorf("file %s: parsing part count: %w", section.Name(), err)
			}
		}
		files = append(files, RemoteFile{
			Name:  section.Name(),
			Path:  section.Key("path").String(),
			PathD: section.Key("pathd").String(),
			Parts: parts,
		})
	}
	return NewManifest(files...)
}

// ManifestProvider resolves the files to download for a language.
type ManifestProvider interface {
	Load(ctx context.Context, language *Language) (*Manifest, error)
}

// RemoteManifests loads the file list published under the web path of
// every language.
type RemoteManifests struct {
	// Fetcher used to download the file list, DefaultFetcher if nil.
	Fetcher Fetcher
	// FileList is the name of the list, DefaultFileList if empty.
	FileList string
}

// Load fetches and parses the file list of language.
func (p *RemoteManifests) Load(ctx context.Context, language *Language) (*Manifest, error) {
	name := p.FileList
	if name == "" {
		name = DefaultFileList
	}
	fetcher := p.Fetcher
	if fetcher == nil {
		fetcher = DefaultFetcher()
	}
	data, err := fetcher.Fetch(ctx, joinURL(language.WebPath(), name), nil)
	if err != nil {
		return nil, fmt.Errorf("downloading file list of %s: %w", language, err)
	}
	return ParseFileList(data)
}

// cursor walks a manifest part by part.
type cursor struct {
	manifest *Manifest
	index    int
	part     int
}

func newCursor(m *Manifest) *cursor {
	return &cursor{manifest: m, part: 1}
}

func (c *cursor) file() RemoteFile { return c.manifest.At(c.index) }

// advance moves to the next part, or to the first part of the next file.
// It returns false once the manifest is exhausted.
func (c *cursor) advance() bool {
	if c.part < c.file().Parts {
		c.part++
		return true
	}
	if c.index+1 < c.manifest.Count() {
		c.index++
		c.part = 1
		return true
	}
	return false
}

func joinURL(base, rel string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(rel, "/")
}
