package output

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/tencentyun/cos-go-sdk-v5"
)

const minioDefaultTimeout = 60 * time.Second

// MinioOption configures a MinioStrategy.
type MinioOption func(*minioOptions)

type minioOptions struct {
	accessKey string
	secretKey string
	timeout   time.Duration
}

// WithAccessKey overrides the MINIO_ACCESS_KEY environment default.
func WithAccessKey(key string) MinioOption { return func(o *minioOptions) { o.accessKey = key } }

// WithSecretKey overrides the MINIO_SECRET_KEY environment default.
func WithSecretKey(key string) MinioOption { return func(o *minioOptions) { o.secretKey = key } }

// WithMinioTimeout overrides the default request timeout.
func WithMinioTimeout(d time.Duration) MinioOption { return func(o *minioOptions) { o.timeout = d } }

// MinioStrategy opens destinations against an S3-API-compatible object
// store (MinIO or any COS-protocol-compatible endpoint) reached through
// path-style addressing, buffering each write in memory and uploading on
// Close (object stores have no append semantics, so a stream can't be
// opened incrementally the way a local file can).
type MinioStrategy struct {
	client *cos.Client
	bucket string
}

// NewMinioStrategy constructs a MinioStrategy against endpoint (a bucket
// base URL, e.g. "https://minio.example.com/my-bucket" for path-style
// addressing). Credentials default to MINIO_ACCESS_KEY/MINIO_SECRET_KEY.
func NewMinioStrategy(endpoint string, opts ...MinioOption) (*MinioStrategy, error) {
	options := &minioOptions{
		timeout:   minioDefaultTimeout,
		accessKey: os.Getenv("MINIO_ACCESS_KEY"),
		secretKey: os.Getenv("MINIO_SECRET_KEY"),
	}
	for _, opt := range opts {
		opt(options)
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("output: parse minio endpoint %q: %w", endpoint, err)
	}
	base := &cos.BaseURL{BucketURL: u}
	client := cos.NewClient(base, &http.Client{
		Timeout: options.timeout,
		Transport: &cos.AuthorizationTransport{
			SecretID:  options.accessKey,
			SecretKey: options.secretKey,
		},
	})
	return &MinioStrategy{client: client}, nil
}

func (m *MinioStrategy) Open(resolved string) (io.WriteCloser, error) {
	return &minioObjectWriter{client: m.client, key: resolved}, nil
}

type minioObjectWriter struct {
	client *cos.Client
	key    string
	buf    bytes.Buffer
}

func (w *minioObjectWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }

func (w *minioObjectWriter) Close() error {
	_, err := w.client.Object.Put(context.Background(), w.key, bytes.NewReader(w.buf.Bytes()), nil)
	if err != nil {
		return fmt.Errorf("output: upload %s: %w", w.key, err)
	}
	return nil
}
