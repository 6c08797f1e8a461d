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

package acquire

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"
)

// File reads the photo from a file each time it is acquired.
type File struct {
	Path   string
	Rotate float64 // Degrees clockwise
}

func (f *File) Acquire(ctx context.Context) (*image.Gray, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := Open(f.Path)
	if err != nil {
		return nil, err
	}
	return Prepare(img, f.Rotate), nil
}

func (f *File) String() string {
	return f.Path
}

// Camera retrieves the photo from a network camera's snapshot URL.
type Camera struct {
	URL    string
	Rotate float64 // Degrees clockwise
	Client *http.Client
}

// NewCamera creates a camera source. The timeout limits each retrieval.
func NewCamera(url string, timeout time.Duration, rotate float64) *Camera {
	return &Camera{
		URL:    url,
		Rotate: rotate,
		Client: &http.Client{Timeout: timeout},
	}
}

func (c *Camera) Acquire(ctx context.Context) (*image.Gray, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, err
	}
	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: %s", c.URL, res.Status)
	}
	b, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, ErrNoImage
	}
	img, err := Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.URL, err)
	}
	return Prepare(img, c.Rotate), nil
}

func (c *Camera) String() string {
	return c.URL
}

// Bytes decodes a photo that has already been read, such as an upload.
type Bytes struct {
	Name   string
	Data   []byte
	Rotate float64
}

func (b *Bytes) Acquire(ctx context.Context) (*image.Gray, error) {
	if len(b.Data) == 0 {
		return nil, ErrNoImage
	}
	img, err := Decode(bytes.NewReader(b.Data))
	if err != nil {
		return nil, err
	}
	return Prepare(img, b.Rotate), nil
}

func (b *Bytes) String() string {
	return b.Name
}
