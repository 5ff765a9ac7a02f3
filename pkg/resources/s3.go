package resources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Source serves resources from an S3 (or S3-compatible) bucket.
//
// The client is injected so credential and endpoint configuration stay
// with the caller:
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	src := resources.NewS3Source(s3.NewFromConfig(cfg), "my-bucket", "dashboards/themes/")
type S3Source struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Source creates a Source reading objects under prefix in bucket.
func NewS3Source(client *s3.Client, bucket, prefix string) *S3Source {
	return &S3Source{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

func (s *S3Source) key(name string) (string, bool) {
	rel, ok := cleanResourceName(name)
	if !ok {
		return "", false
	}
	return path.Join(s.prefix, rel), true
}

// Open fetches the named object.
func (s *S3Source) Open(ctx context.Context, name string) ([]byte, error) {
	key, ok := s.key(name)
	if !ok {
		return nil, fmt.Errorf("resources: %q: %w", name, ErrNotFound)
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("resources: %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("resources: s3 get %q: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("resources: s3 read %q: %w", key, err)
	}
	return data, nil
}

// Exists reports whether the named object is present.
func (s *S3Source) Exists(ctx context.Context, name string) bool {
	key, ok := s.key(name)
	if !ok {
		return false
	}

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err == nil
}
