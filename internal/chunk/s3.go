package chunk

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/citybound/citybound-sub001/internal/logging"
)

// S3Client is the subset of the AWS SDK's S3 client this handler needs,
// so tests can substitute a fake without talking to real S3.
type S3Client interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Handler persists chunks as objects in an S3-compatible bucket. Unlike
// MmapHandler it cannot map the backing store directly into the process,
// so Create/Load materialise a full in-memory copy and Unload/Destroy
// flush or delete the remote object synchronously; per the reference
// policy, persisted-backing I/O errors are fatal.
//
// Intended for embedders that want simulation snapshots to survive beyond
// any single host, trading the mmap handler's zero-copy persistence for
// durability independent of local disk.
type S3Handler struct {
	client S3Client
	bucket string
	prefix string
	logger *slog.Logger

	mu   sync.Mutex
	live map[string][]byte
}

// NewS3Handler creates a handler that stores chunks as objects named
// "<prefix><ident>" in bucket.
func NewS3Handler(client S3Client, bucket, prefix string, logger *slog.Logger) *S3Handler {
	return &S3Handler{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: logging.Default(logger).With("component", "chunk-handler", "type", "s3"),
		live:   make(map[string][]byte),
	}
}

func (h *S3Handler) key(ident Ident) string {
	return h.prefix + ident.String()
}

func (h *S3Handler) Create(ident Ident, size int) []byte {
	if err := validate(ident.String()); err != nil {
		Fatalf(ident, "create", "%v", err)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	data := make([]byte, size)
	h.live[ident.String()] = data
	return data
}

func (h *S3Handler) Load(ident Ident) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	out, err := h.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(h.key(ident)),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchKey" {
			return nil, ErrChunkNotFound
		}
		Fatalf(ident, "load", "get object: %v", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		Fatalf(ident, "load", "read body: %v", err)
	}
	h.live[ident.String()] = data
	return data, nil
}

func (h *S3Handler) LoadOrCreate(ident Ident, size int) ([]byte, bool) {
	data, err := h.Load(ident)
	if err == nil {
		return data, false
	}
	if err != ErrChunkNotFound {
		Fatalf(ident, "load_or_create", "%v", err)
	}
	return h.Create(ident, size), true
}

// Unload flushes the chunk to S3 and drops the local copy. Unlike
// MmapHandler, which can rely on the OS to keep the persisted image in
// sync automatically, an object-storage handler must explicitly write
// back on every unload.
func (h *S3Handler) Unload(ident Ident, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.live[ident.String()]; !ok {
		Fatalf(ident, "unload", "chunk is not currently loaded")
	}
	_, err := h.client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(h.key(ident)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		Fatalf(ident, "unload", "put object: %v", err)
	}
	delete(h.live, ident.String())
}

func (h *S3Handler) Destroy(ident Ident, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.live, ident.String())
	_, err := h.client.DeleteObject(context.Background(), &s3.DeleteObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(h.key(ident)),
	})
	if err != nil {
		Fatalf(ident, "destroy", "delete object: %v", err)
	}
}

var _ Handler = (*S3Handler)(nil)
