//
// Copyright 2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package patcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"gopkg.in/ini.v1"
)

// DateLayout is the layout of the dates published in the catalog.
const DateLayout = "02/Jan/2006 3:04 PM"

// Catalog is the list of translation packs available on the patch server.
type Catalog struct {
	languages []*Language
	targets   map[string]string
}

// ParseCatalog decodes a catalog document. Each section describes a
// language; the "date" key holds the last update of the pack and the
// optional "version" key the client version the pack was made for.
// The web path of a language is webRoot/<name>, its staging folder
// stagingRoot/<name>.
func ParseCatalog(data []byte, webRoot, stagingRoot string) (*Catalog, error) {
	doc, err := ini.Load(data)
	if err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	c := &Catalog{targets: map[string]string{}}
	for _, section := range doc.Sections() {
		name := section.Name()
		if name == ini.DefaultSection {
			continue
		}
		date, err := ParseDate(section.Key("date").String())
		if err != nil {
			return nil, fmt.Errorf("language %s: %w", name, err)
		}
		c.languages = append(c.languages, NewLanguage(name, date, joinURL(webRoot, name), filepath.Join(stagingRoot, name)))
		if version := section.Key("version").String(); version != "" {
			c.targets[name] = version
		}
	}
	return c, nil
}

// FetchCatalog downloads and parses the catalog published at catalogURL.
func FetchCatalog(ctx context.Context, fetcher Fetcher, catalogURL, webRoot, stagingRoot string) (*Catalog, error) {
	data, err := fetcher.Fetch(ctx, catalogURL, nil)
	if err != nil {
		return nil, fmt.Errorf("downloading catalog: %w", err)
	}
	return ParseCatalog(data, webRoot, stagingRoot)
}

// Languages returns the languages in catalog order.
func (c *Catalog) Languages() []*Language {
	return append([]*Language(nil), c.languages...)
}

// Lookup returns the language with the given name.
func (c *Catalog) Lookup(name string) (*Language, bool) {
	for _, l := range c.languages {
		if l.Name() == name {
			return l, true
		}
	}
	return nil, false
}

// Targets returns the client version targeted by each language, for the
// languages declaring one.
func (c *Catalog) Targets() map[string]string {
	res := make(map[string]string, len(c.targets))
	for k, v := range c.targets {
		res[k] = v
	}
	return res
}

// ParseDate parses a catalog date, in DateLayout or RFC 3339.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

// FormatDate formats t the way the catalog does.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
