package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/studyhub/portal/internal/asset"
)

// ErrObjectExists is returned by Upload when overwrite is false and the key
// is already taken.
var ErrObjectExists = errors.New("object already exists")

// Client is a connection to the S3-compatible object store.
type Client struct {
	client    *minio.Client
	publicURL string
}

// Options configures the object store connection.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	// PublicURL is the base of public object URLs, e.g. https://project.example.co.
	PublicURL string
}

// NewClient connects to the object store.
func NewClient(opts Options) (*Client, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	return &Client{client: client, publicURL: opts.PublicURL}, nil
}

// Bucket binds the client to a bucket, verifying that it exists.
func (c *Client) Bucket(ctx context.Context, name string) (*Bucket, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := c.client.BucketExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", name, err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %s does not exist", name)
	}
	return &Bucket{client: c.client, name: name, publicURL: c.publicURL}, nil
}

// Bucket implements asset.ObjectStore for one bucket.
type Bucket struct {
	client    *minio.Client
	name      string
	publicURL string
}

var _ asset.ObjectStore = (*Bucket)(nil)

// Bucket returns the bucket name.
func (b *Bucket) Bucket() string {
	return b.name
}

// Upload stores r under key. With overwrite false the put is conditional
// on the key being absent, so concurrent creates of one key cannot replace
// each other.
func (b *Bucket) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string, overwrite bool) error {
	opts := minio.PutObjectOptions{ContentType: contentType}
	if !overwrite {
		opts.SetMatchETagExcept("*")
	}

	_, err := b.client.PutObject(ctx, b.name, key, r, size, opts)
	if err != nil {
		if !overwrite && isPreconditionFailure(err) {
			return fmt.Errorf("%w: %s", ErrObjectExists, key)
		}
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

// isPreconditionFailure reports whether a conditional put lost to an
// existing object or to a concurrent write of the same key.
func isPreconditionFailure(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "PreconditionFailed", "ConditionalRequestConflict":
		return true
	}
	return false
}

// Remove deletes keys in a single batch and reports every key that failed.
func (b *Bucket) Remove(ctx context.Context, keys ...string) error {
	objects := make(chan minio.ObjectInfo, len(keys))
	for _, k := range keys {
		objects <- minio.ObjectInfo{Key: k}
	}
	close(objects)

	var errs []error
	for rerr := range b.client.RemoveObjects(ctx, b.name, objects, minio.RemoveObjectsOptions{}) {
		errs = append(errs, fmt.Errorf("remove %s: %w", rerr.ObjectName, rerr.Err))
	}
	return errors.Join(errs...)
}

// PublicURL returns the public URL for key.
func (b *Bucket) PublicURL(key string) string {
	return asset.PublicURL(b.publicURL, b.name, key)
}

// List returns every key in the bucket.
func (b *Bucket) List(ctx context.Context) ([]string, error) {
	var keys []string
	for obj := range b.client.ListObjects(ctx, b.name, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects: %w", obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

// Ping checks that the bucket is reachable.
func (b *Bucket) Ping(ctx context.Context) error {
	if _, err := b.client.BucketExists(ctx, b.name); err != nil {
		return fmt.Errorf("check bucket %s: %w", b.name, err)
	}
	return nil
}
