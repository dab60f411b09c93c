//-------------------------------------------------------------------------
//
// salesmirror
//
// Portions copyright (c) 2025 - 2026, Altiplano Data SpA
// This software is released under The MIT License
//
//-------------------------------------------------------------------------

package etl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Uploader pushes replication artifacts (the mirror database and the run
// report) to S3. Credentials come from the default AWS chain, never from
// salesmirror config.
type Uploader struct {
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// NewUploader builds an S3 uploader for the given bucket. An empty region
// falls back to whatever the default chain resolves.
func NewUploader(ctx context.Context, region, bucket, prefix string) (*Uploader, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &Uploader{
		uploader: manager.NewUploader(s3.NewFromConfig(cfg)),
		bucket:   bucket,
		prefix:   prefix,
	}, nil
}

// UploadFile sends one local file to the bucket and returns its location.
// Objects are partitioned by run date so each day's artifacts stay distinct.
func (u *Uploader) UploadFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	key := u.objectKey(filepath.Base(path))
	out, err := u.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return "", err
	}
	return out.Location, nil
}

func (u *Uploader) objectKey(filename string) string {
	key := time.Now().Format("2006/01/02") + "/" + filename
	if prefix := strings.Trim(u.prefix, "/"); prefix != "" {
		key = prefix + "/" + key
	}
	return key
}
