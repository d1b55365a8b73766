// Package media externalizes uploaded images to an S3-compatible object store
// and hands back the URL that gets persisted in place of the image bytes.
package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"courseconnect/internal/apperr"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Store persists binary objects and returns their retrieval URL.
type Store interface {
	Put(ctx context.Context, prefix string, data []byte, contentType string) (string, error)
}

// Image is a decoded upload.
type Image struct {
	Data        []byte
	ContentType string
}

// DecodeImage accepts a data URL ("data:image/png;base64,...") or bare base64.
func DecodeImage(s string) (*Image, error) {
	payload := s
	declared := ""
	if rest, ok := strings.CutPrefix(s, "data:"); ok {
		meta, data, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(meta, ";base64") {
			return nil, apperr.Validation("Invalid image data")
		}
		declared = strings.TrimSuffix(meta, ";base64")
		payload = data
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(raw) == 0 {
		return nil, apperr.Validation("Invalid image data")
	}

	contentType := http.DetectContentType(raw)
	if !strings.HasPrefix(contentType, "image/") {
		if !strings.HasPrefix(declared, "image/") {
			return nil, apperr.Validation("Unsupported image type")
		}
		// svg and a few others sniff as text; trust the declared type then.
		contentType = declared
	}
	return &Image{Data: raw, ContentType: contentType}, nil
}

// ObjectKey builds a date-partitioned, collision-free key under prefix.
func ObjectKey(prefix string, now time.Time) string {
	return fmt.Sprintf("%s/%d/%02d/%02d/%v", prefix, now.Year(), now.Month(), now.Day(), uuid.New())
}

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store writes objects to one bucket and serves them from publicBase.
type S3Store struct {
	client     putObjectAPI
	bucket     string
	publicBase string
	now        func() time.Time
}

// S3Config carries the object storage settings.
type S3Config struct {
	AccessKey    string
	SecretKey    string
	Bucket       string
	Region       string
	BaseEndpoint string
}

// loadDefaultAWSConfig is a seam for tests.
var loadDefaultAWSConfig = config.LoadDefaultConfig

// NewS3Store builds a path-style client suitable for MinIO and AWS alike.
func NewS3Store(ctx context.Context, c S3Config) (*S3Store, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(c.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(c.BaseEndpoint)
		}
		o.UsePathStyle = true
	})

	base := strings.TrimRight(c.BaseEndpoint, "/")
	if base == "" {
		base = fmt.Sprintf("https://s3.%s.amazonaws.com", c.Region)
	}
	return newS3Store(client, c.Bucket, base), nil
}

func newS3Store(client putObjectAPI, bucket, publicBase string) *S3Store {
	return &S3Store{client: client, bucket: bucket, publicBase: publicBase, now: time.Now}
}

func (s *S3Store) Put(ctx context.Context, prefix string, data []byte, contentType string) (string, error) {
	key := ObjectKey(prefix, s.now().UTC())

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	return s.publicBase + "/" + s.bucket + "/" + key, nil
}

// InlineStore keeps nothing and returns the object as a data URL. It backs
// the in-memory development mode where no bucket is available.
type InlineStore struct{}

func (InlineStore) Put(_ context.Context, _ string, data []byte, contentType string) (string, error) {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
