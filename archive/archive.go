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

// package archive keeps copies of photos that did not decode cleanly,
// so that the calibration can be checked against them later.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"

	lcdimg "github.com/aamcrae/lcd"
)

// Sink stores a photo under a name.
type Sink interface {
	Save(ctx context.Context, name string, img image.Image) (string, error)
}

// Name returns the archive name of a photo taken at t.
func Name(t time.Time) string {
	return t.UTC().Format("2006/01/02/150405.000") + ".png"
}

// Dir saves photos below a local directory.
type Dir struct {
	Path string
}

// Save writes the image, creating any directories needed.
// The returned string is the file path.
func (d *Dir) Save(ctx context.Context, name string, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fn := filepath.Join(d.Path, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(fn), 0755); err != nil {
		return "", err
	}
	if err := lcdimg.SaveImage(fn, img); err != nil {
		return "", fmt.Errorf("save %s: %w", fn, err)
	}
	return fn, nil
}

// Azure uploads photos to an Azure Blob Storage container.
type Azure struct {
	client    *azblob.Client
	container string
}

// NewAzure creates an Azure sink using shared key credentials. If endpoint
// is empty the public blob endpoint of the account is used.
func NewAzure(account, key, container, endpoint string) (*Azure, error) {
	cred, err := azblob.NewSharedKeyCredential(account, key)
	if err != nil {
		return nil, err
	}
	if len(endpoint) == 0 {
		endpoint = fmt.Sprintf("https://%s.blob.core.windows.net", account)
	}
	client, err := azblob.NewClientWithSharedKeyCredential(endpoint, cred, nil)
	if err != nil {
		return nil, err
	}
	return &Azure{client: client, container: container}, nil
}

// Save uploads the image as a PNG. The returned string is the container
// and blob name.
func (a *Azure) Save(ctx context.Context, name string, img image.Image) (string, error) {
	var b bytes.Buffer
	if err := png.Encode(&b, img); err != nil {
		return "", err
	}
	ct := "image/png"
	_, err := a.client.UploadBuffer(ctx, a.container, name, b.Bytes(), &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &ct},
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	return a.container + "/" + name, nil
}
