//
// Copyright 2025 Cristian Maglie. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//

package patcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testDate = time.Date(2017, 3, 4, 22, 15, 0, 0, time.UTC)

const testCatalog = `
[English]
date = 04/Mar/2017 10:15 PM
version = 1.2.33

[Spanish]
date = 2017-02-01T08:00:00Z
`

func TestParseCatalog(t *testing.T) {
	c, err := ParseCatalog([]byte(testCatalog), "http://patch.example/tl/", "langs")
	require.NoError(t, err)

	langs := c.Languages()
	require.Len(t, langs, 2)
	require.Equal(t, "English", langs[0].Name())
	require.Equal(t, testDate, langs[0].LastUpdate())
	require.Equal(t, "http://patch.example/tl/English", langs[0].WebPath())
	require.Equal(t, filepath.Join("langs", "English"), langs[0].Path())
	require.False(t, langs[0].IsBackup())
	require.Equal(t, "Spanish", langs[1].Name())
	require.Equal(t, time.Date(2017, 2, 1, 8, 0, 0, 0, time.UTC), langs[1].LastUpdate())

	require.Equal(t, map[string]string{"English": "1.2.33"}, c.Targets())

	l, ok := c.Lookup("Spanish")
	require.True(t, ok)
	require.Same(t, langs[1], l)
	_, ok = c.Lookup("Klingon")
	require.False(t, ok)
}

func TestParseCatalogInvalidDate(t *testing.T) {
	_, err := ParseCatalog([]byte("[English]\ndate = yesterday\n"), "", "")
	require.ErrorContains(t, err, "language English")
}

func TestFetchCatalog(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testCatalog))
	}))
	defer server.Close()

	c, err := FetchCatalog(context.Background(), NewHTTPFetcher(Config{}), server.URL+"/LanguagePacks.ini", server.URL, t.TempDir())
	require.NoError(t, err)
	require.Len(t, c.Languages(), 2)
}

func TestDates(t *testing.T) {
	require.Equal(t, "04/Mar/2017 10:15 PM", FormatDate(testDate))
	d, err := ParseDate(FormatDate(testDate))
	require.NoError(t, err)
	require.Equal(t, testDate, d)
}

func TestBackupLanguage(t *testing.T) {
	l := BackupLanguage(Region{ID: "kr", BaseURL: "http://kr.example/client"})
	require.True(t, l.IsBackup())
	require.Equal(t, "kr", l.Name())
	require.Equal(t, "http://kr.example/client", l.WebPath())
	require.Equal(t, "backup(kr)", l.String())
}
