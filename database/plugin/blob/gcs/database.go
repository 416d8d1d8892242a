// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package gcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/blinklabs-io/gindexer/database/plugin/blob"
	"github.com/blinklabs-io/gindexer/database/types"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const (
	metricsBackend = "gcs"
	startupTimeout = 30 * time.Second
)

// Config selects the bucket holding the transaction archive. Keys are
// stored as object names under Prefix.
type Config struct {
	Logger          *slog.Logger
	PromRegistry    prometheus.Registerer
	Bucket          string
	CredentialsFile string
	Prefix          string
}

// ParseURL builds a Config from "gcs://<bucket>[/<prefix>]"
func ParseURL(rawURL string) (Config, error) {
	rest, ok := strings.CutPrefix(rawURL, "gcs://")
	if !ok {
		return Config{}, fmt.Errorf("gcs blob: not a gcs:// URL: %q", rawURL)
	}
	bucket, prefix, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return Config{}, errors.New("gcs blob: URL has no bucket")
	}
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return Config{Bucket: bucket, Prefix: prefix}, nil
}

// BlobStoreGCS keeps the transaction archive in a Google Cloud Storage
// bucket. The client is created by Start.
type BlobStoreGCS struct {
	config  Config
	metrics *blob.Metrics
	logger  *slog.Logger
	client  *storage.Client
	bucket  *storage.BucketHandle
}

func New(cfg Config) (*BlobStoreGCS, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &BlobStoreGCS{config: cfg, logger: cfg.Logger}, nil
}

// validateCredentials checks that a credentials file exists and is a
// regular file. An empty path is valid.
func validateCredentials(path string) error {
	if path == "" {
		return nil
	}
	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("GCS credentials file does not exist: %s", path)
		}
		return fmt.Errorf("GCS credentials file: %w", err)
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("GCS credentials file is not a regular file: %s", path)
	}
	return nil
}

// Close closes the GCS client.
func (d *BlobStoreGCS) Close() error {
	if d.client == nil {
		return nil
	}
	err := d.client.Close()
	d.client = nil
	return err
}

// Start implements the plugin.Plugin interface.
func (d *BlobStoreGCS) Start() error {
	if d.config.Bucket == "" {
		return errors.New("gcs blob: bucket not set")
	}
	if err := validateCredentials(d.config.CredentialsFile); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	clientOpts := []option.ClientOption{
		storage.WithDisabledClientMetrics(),
	}
	if d.config.CredentialsFile != "" {
		clientOpts = append(
			clientOpts,
			option.WithCredentialsFile(d.config.CredentialsFile),
		)
	}
	client, err := storage.NewGRPCClient(ctx, clientOpts...)
	if err != nil {
		return fmt.Errorf(
			"gcs blob: failed in creating storage client: %w",
			err,
		)
	}
	d.client = client
	d.bucket = client.Bucket(d.config.Bucket)
	d.metrics = blob.NewMetrics(d.config.PromRegistry, metricsBackend)
	d.logger.Info(
		"connected to gcs blob store",
		"component", "database",
		"bucket", d.config.Bucket,
	)
	return nil
}

// Stop implements the plugin.Plugin interface.
func (d *BlobStoreGCS) Stop() error {
	return d.Close()
}

func (d *BlobStoreGCS) objectName(key []byte) string {
	return d.config.Prefix + string(key)
}

// Get returns the value stored under key
func (d *BlobStoreGCS) Get(ctx context.Context, key []byte) ([]byte, error) {
	r, err := d.bucket.Object(d.objectName(key)).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, types.ErrBlobKeyNotFound
		}
		return nil, fmt.Errorf("gcs blob: read %q: %w", key, err)
	}
	defer r.Close()
	ret, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("gcs blob: read %q: %w", key, err)
	}
	d.metrics.Observe(metricsBackend, "get", len(ret))
	return ret, nil
}

// Set stores val under key
func (d *BlobStoreGCS) Set(ctx context.Context, key, val []byte) error {
	w := d.bucket.Object(d.objectName(key)).NewWriter(ctx)
	if _, err := w.Write(val); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcs blob: write %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs blob: write %q: %w", key, err)
	}
	d.metrics.Observe(metricsBackend, "set", len(val))
	return nil
}

// Delete removes key
func (d *BlobStoreGCS) Delete(ctx context.Context, key []byte) error {
	if err := d.bucket.Object(d.objectName(key)).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return types.ErrBlobKeyNotFound
		}
		return fmt.Errorf("gcs blob: delete %q: %w", key, err)
	}
	d.metrics.Observe(metricsBackend, "delete", 0)
	return nil
}

// Keys returns every key with the given prefix in ascending order
func (d *BlobStoreGCS) Keys(ctx context.Context, prefix []byte) ([][]byte, error) {
	it := d.bucket.Objects(ctx, &storage.Query{
		Prefix: d.objectName(prefix),
	})
	var ret [][]byte
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("gcs blob: list: %w", err)
		}
		ret = append(ret, []byte(strings.TrimPrefix(attrs.Name, d.config.Prefix)))
	}
	slices.SortFunc(ret, bytes.Compare)
	d.metrics.Observe(metricsBackend, "keys", 0)
	return ret, nil
}
