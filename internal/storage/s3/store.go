// Package s3 keeps each drawing as a JSON object in an S3 bucket.
package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/inamate/sketchboard/internal/drawing"
	"github.com/inamate/sketchboard/internal/typeid"
)

const keyPrefix = "drawings/"

// API is the subset of the S3 client the store uses.
type API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type Store struct {
	client API
	bucket string
}

// NewStore builds a client from the default AWS credential chain.
func NewStore(ctx context.Context, bucket string) (*Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return New(s3.NewFromConfig(cfg), bucket), nil
}

func New(client API, bucket string) *Store {
	return &Store{client: client, bucket: bucket}
}

func (s *Store) Close() error { return nil }

func (s *Store) key(id string) (string, error) {
	if err := typeid.Validate(id, typeid.PrefixDrawing); err != nil {
		return "", fmt.Errorf("%w: %v", drawing.ErrNotFound, err)
	}
	return keyPrefix + id + ".json", nil
}

func (s *Store) exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nf *s3types.NotFound
		if errors.As(err, &nf) {
			return false, nil
		}
		return false, fmt.Errorf("head %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) read(ctx context.Context, key string) (*drawing.Drawing, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%s: %w", key, drawing.ErrNotFound)
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	var d drawing.Drawing
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return &d, nil
}

func (s *Store) write(ctx context.Context, key string, d *drawing.Drawing) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode drawing: %w", err)
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, d *drawing.Drawing) error {
	key, err := s.key(d.ID)
	if err != nil {
		return err
	}
	found, err := s.exists(ctx, key)
	if err != nil {
		return err
	}
	if found {
		return fmt.Errorf("drawing %s already exists", d.ID)
	}
	return s.write(ctx, key, d)
}

func (s *Store) Get(ctx context.Context, id string) (*drawing.Drawing, error) {
	key, err := s.key(id)
	if err != nil {
		return nil, err
	}
	return s.read(ctx, key)
}

// List reads every drawing object and keeps the owner's. Objects that
// cannot be read are skipped.
func (s *Store) List(ctx context.Context, ownerID string) ([]drawing.Drawing, error) {
	var out []drawing.Drawing
	pages := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(keyPrefix),
	})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list drawings: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if !strings.HasSuffix(key, ".json") {
				continue
			}
			d, err := s.read(ctx, key)
			if err != nil {
				slog.Warn("skipping unreadable drawing", "key", key, "error", err)
				continue
			}
			if d.OwnerID == ownerID {
				d.Data = nil
				out = append(out, *d)
			}
		}
	}
	return out, nil
}

func (s *Store) Update(ctx context.Context, d *drawing.Drawing) error {
	key, err := s.key(d.ID)
	if err != nil {
		return err
	}
	prev, err := s.read(ctx, key)
	if err != nil {
		return err
	}
	next := *d
	next.CreatedAt = prev.CreatedAt
	return s.write(ctx, key, &next)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	key, err := s.key(id)
	if err != nil {
		return err
	}
	found, err := s.exists(ctx, key)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%s: %w", id, drawing.ErrNotFound)
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
