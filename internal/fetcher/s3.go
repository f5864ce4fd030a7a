package fetcher

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/rotisserie/eris"
)

// S3API is the subset of the S3 client used by S3Archive.
type S3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archive stores raw content as objects in an S3 bucket.
type S3Archive struct {
	client S3API
	bucket string
	prefix string
}

// NewS3Archive wraps an existing client.
func NewS3Archive(client S3API, bucket, prefix string) *S3Archive {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Archive{client: client, bucket: bucket, prefix: prefix}
}

// NewS3ArchiveFromEnv loads AWS credentials from the default chain.
func NewS3ArchiveFromEnv(ctx context.Context, bucket, prefix, region string) (*S3Archive, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, eris.Wrap(err, "archive: load aws config")
	}
	return NewS3Archive(s3.NewFromConfig(cfg), bucket, prefix), nil
}

// Location returns the s3:// URI for key.
func (a *S3Archive) Location(key string) string {
	return "s3://" + a.bucket + "/" + a.prefix + key
}

// Get downloads the object for key.
func (a *S3Archive) Get(ctx context.Context, key string) ([]byte, bool, error) {
	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.prefix + key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, false, nil
		}
		return nil, false, eris.Wrapf(err, "archive: get s3 object %s", key)
	}
	defer out.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, false, eris.Wrapf(err, "archive: read s3 object %s", key)
	}
	return data, true, nil
}

// PutIfAbsent uploads content with a conditional write. An existing object
// is left in place.
func (a *S3Archive) PutIfAbsent(ctx context.Context, key string, content []byte) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(a.prefix + key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String("text/html; charset=utf-8"),
		IfNoneMatch: aws.String("*"),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "PreconditionFailed" {
			return nil
		}
		return eris.Wrapf(err, "archive: put s3 object %s", key)
	}
	return nil
}
