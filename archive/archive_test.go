// Copyright 2019 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package archive

import (
	"context"
	"encoding/base64"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestName(t *testing.T) {
	tm := time.Date(2025, 3, 4, 5, 6, 7, 890_000_000, time.UTC)
	assert.Equal(t, "2025/03/04/050607.890.png", Name(tm))
}

func TestDir(t *testing.T) {
	dir := t.TempDir()
	d := &Dir{Path: dir}
	img := image.NewGray(image.Rect(0, 0, 8, 4))
	fn, err := d.Save(context.Background(), "2025/03/04/050607.890.png", img)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "2025", "03", "04", "050607.890.png"), fn)
	f, err := os.Open(fn)
	require.NoError(t, err)
	defer f.Close()
	got, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), got.Bounds())

	_, err = d.Save(context.Background(), "bad.tiff", img)
	assert.Error(t, err)
}

func TestAzure(t *testing.T) {
	var mu sync.Mutex
	var path, ctype string
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		path = r.URL.Path
		ctype = r.Header.Get("x-ms-blob-content-type")
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	key := base64.StdEncoding.EncodeToString([]byte("not a real key"))
	a, err := NewAzure("devaccount", key, "photos", srv.URL+"/devaccount")
	require.NoError(t, err)
	img := image.NewGray(image.Rect(0, 0, 8, 4))
	name, err := a.Save(context.Background(), "2025/03/04/050607.890.png", img)
	require.NoError(t, err)
	assert.Equal(t, "photos/2025/03/04/050607.890.png", name)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "/devaccount/photos/2025/03/04/050607.890.png", path)
	assert.Equal(t, "image/png", ctype)
	got, err := png.Decode(strings.NewReader(string(body)))
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), got.Bounds())
}

func TestAzureBadKey(t *testing.T) {
	_, err := NewAzure("devaccount", "%%%", "photos", "")
	assert.Error(t, err)
}
