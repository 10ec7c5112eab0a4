package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var ErrEmptyKey = errors.New("storage: empty object key")

type Store struct {
	client     *minio.Client
	bucketName string
	region     string
}

// Options koneksi MinIO
type Options struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// New buat koneksi MinIO
func New(ctx context.Context, o Options) (*Store, error) {
	cli, err := minio.New(o.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(o.AccessKey, o.SecretKey, ""),
		Secure: o.UseSSL,
		Region: o.Region,
	})
	if err != nil {
		return nil, err
	}

	// pastikan bucket ada
	exists, err := cli.BucketExists(ctx, o.Bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, o.Bucket, minio.MakeBucketOptions{Region: o.Region}); err != nil {
			return nil, err
		}
	}

	return &Store{client: cli, bucketName: o.Bucket, region: o.Region}, nil
}

// Put implementasi ArtifactStore: upload bytes lalu kembalikan URL object
func (s *Store) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return "", ErrEmptyKey
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	// URL publik (jika bucket public), kalau private pakai presigned URL
	return ObjectURL(s.client.EndpointURL(), s.bucketName, key), nil
}

// Check dipakai health check
func (s *Store) Check(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket %s missing", s.bucketName)
	}
	return nil
}

// ObjectURL builds the path-style URL of an object.
func ObjectURL(endpoint *url.URL, bucket, key string) string {
	scheme := "http"
	if endpoint.Scheme != "" {
		scheme = endpoint.Scheme
	}
	u := url.URL{Scheme: scheme, Host: endpoint.Host, Path: "/" + bucket + "/" + key}
	return u.String()
}
