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

package aws

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/blinklabs-io/gindexer/database/plugin/blob"
	"github.com/blinklabs-io/gindexer/database/types"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsBackend = "s3"
	defaultTimeout = 60 * time.Second
)

// Config selects the bucket holding the transaction archive. A non-empty
// Endpoint switches to path-style addressing for S3-compatible services.
type Config struct {
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	Bucket       string
	Prefix       string
	Region       string
	Endpoint     string
	Timeout      time.Duration
}

// ParseURL builds a Config from "s3://<bucket>[/<prefix>]"
func ParseURL(rawURL string) (Config, error) {
	rest, ok := strings.CutPrefix(rawURL, "s3://")
	if !ok {
		return Config{}, fmt.Errorf("s3 blob: not an s3:// URL: %q", rawURL)
	}
	bucket, prefix, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return Config{}, errors.New("s3 blob: URL has no bucket")
	}
	if prefix = strings.TrimSuffix(prefix, "/"); prefix != "" {
		prefix += "/"
	}
	return Config{Bucket: bucket, Prefix: prefix}, nil
}

// BlobStoreS3 keeps the transaction archive in an S3 bucket. AWS config
// is loaded by Start.
type BlobStoreS3 struct {
	config  Config
	metrics *blob.Metrics
	logger  *slog.Logger
	client  *s3.Client
}

func New(cfg Config) (*BlobStoreS3, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &BlobStoreS3{config: cfg, logger: cfg.Logger}, nil
}

// opContext bounds a single S3 call by the configured timeout
func (d *BlobStoreS3) opContext(
	ctx context.Context,
) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d.config.Timeout)
}

// Start implements the plugin.Plugin interface.
func (d *BlobStoreS3) Start() error {
	if d.config.Bucket == "" {
		return errors.New("s3 blob: bucket not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), d.config.Timeout)
	defer cancel()
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("s3 blob: load default AWS config: %w", err)
	}
	if d.config.Region != "" {
		awsCfg.Region = d.config.Region
	}
	d.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if d.config.Endpoint == "" {
			return
		}
		o.BaseEndpoint = aws.String(d.config.Endpoint)
		o.UsePathStyle = true
		// S3-compatible services commonly lack the newer checksum support
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})
	d.metrics = blob.NewMetrics(d.config.PromRegistry, metricsBackend)
	d.logger.Info(
		"configured s3 blob store",
		"component", "database",
		"bucket", d.config.Bucket,
		"prefix", d.config.Prefix,
	)
	return nil
}

// Stop implements the plugin.Plugin interface.
func (d *BlobStoreS3) Stop() error {
	// S3 client doesn't need explicit closing
	return nil
}

// Close implements the BlobStore interface.
func (d *BlobStoreS3) Close() error {
	return d.Stop()
}

// Returns the S3 key with an optional prefix.
func (d *BlobStoreS3) fullKey(key []byte) string {
	return d.config.Prefix + string(key)
}

func isS3NotFound(err error) bool {
	var noSuchKey *s3types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var notFound *s3types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

// Get returns the value stored under key
func (d *BlobStoreS3) Get(ctx context.Context, key []byte) ([]byte, error) {
	ctx, cancel := d.opContext(ctx)
	defer cancel()
	out, err := d.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.config.Bucket),
		Key:    aws.String(d.fullKey(key)),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, types.ErrBlobKeyNotFound
		}
		return nil, fmt.Errorf("s3 blob: get %q: %w", key, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 blob: read %q: %w", key, err)
	}
	d.metrics.Observe(metricsBackend, "get", len(data))
	return data, nil
}

// Set stores val under key
func (d *BlobStoreS3) Set(ctx context.Context, key, val []byte) error {
	ctx, cancel := d.opContext(ctx)
	defer cancel()
	_, err := d.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(d.config.Bucket),
		Key:    aws.String(d.fullKey(key)),
		Body:   bytes.NewReader(val),
	})
	if err != nil {
		return fmt.Errorf("s3 blob: put %q: %w", key, err)
	}
	d.metrics.Observe(metricsBackend, "set", len(val))
	return nil
}

// Delete removes key. S3 deletes are idempotent, so existence is checked
// first.
func (d *BlobStoreS3) Delete(ctx context.Context, key []byte) error {
	ctx, cancel := d.opContext(ctx)
	defer cancel()
	_, err := d.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(d.config.Bucket),
		Key:    aws.String(d.fullKey(key)),
	})
	if err != nil {
		if isS3NotFound(err) {
			return types.ErrBlobKeyNotFound
		}
		return fmt.Errorf("s3 blob: head %q: %w", key, err)
	}
	_, err = d.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(d.config.Bucket),
		Key:    aws.String(d.fullKey(key)),
	})
	if err != nil {
		return fmt.Errorf("s3 blob: delete %q: %w", key, err)
	}
	d.metrics.Observe(metricsBackend, "delete", 0)
	return nil
}

// Keys returns every key with the given prefix in ascending order
func (d *BlobStoreS3) Keys(ctx context.Context, prefix []byte) ([][]byte, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(d.config.Bucket),
	}
	if fullPrefix := d.fullKey(prefix); fullPrefix != "" {
		input.Prefix = aws.String(fullPrefix)
	}
	paginator := s3.NewListObjectsV2Paginator(d.client, input)
	var keys [][]byte
	for paginator.HasMorePages() {
		pageCtx, cancel := d.opContext(ctx)
		page, err := paginator.NextPage(pageCtx)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("s3 blob: list: %w", err)
		}
		for _, obj := range page.Contents {
			key := strings.TrimPrefix(aws.ToString(obj.Key), d.config.Prefix)
			keys = append(keys, []byte(key))
		}
	}
	slices.SortFunc(keys, bytes.Compare)
	d.metrics.Observe(metricsBackend, "keys", 0)
	return keys, nil
}
