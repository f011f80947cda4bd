// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/sirupsen/logrus"

	"github.com/layerhub/marketplace-backend/internal/config"
)

// ObjectStore keeps uploaded product files and hands back their public URLs.
type ObjectStore interface {
	Put(ctx context.Context, data []byte, key, contentType string) (string, error)
	Delete(ctx context.Context, fileURL string) error
}

// StorageService stores objects in S3, or under a local directory when no
// S3 credentials or endpoint are configured.
type StorageService struct {
	s3Client s3iface.S3API
	bucket   string
	region   string
	endpoint string
	pathURLs bool
	cdnURL   string
	localDir string
	localURL string
}

func NewStorageService(cfg *config.Config) (*StorageService, error) {
	s := &StorageService{
		bucket:   cfg.AWS.S3Bucket,
		region:   cfg.AWS.Region,
		endpoint: strings.TrimRight(cfg.AWS.Endpoint, "/"),
		pathURLs: cfg.AWS.ForcePathStyle,
		cdnURL:   cfg.AWS.CloudFrontURL,
		localDir: cfg.Upload.LocalDir,
		localURL: strings.TrimRight(cfg.Server.PublicURL, "/") + "/uploads",
	}

	if !cfg.UsesS3() {
		// Return service without S3 for local development
		logrus.WithField("dir", s.localDir).Info("S3 not configured, storing uploads on local disk")
		return s, nil
	}

	awsCfg := &aws.Config{
		Region:           aws.String(cfg.AWS.Region),
		S3ForcePathStyle: aws.Bool(cfg.AWS.ForcePathStyle),
	}
	if cfg.AWS.AccessKeyID != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(
			cfg.AWS.AccessKeyID,
			cfg.AWS.SecretAccessKey,
			"",
		)
	}
	if s.endpoint != "" {
		awsCfg.Endpoint = aws.String(s.endpoint)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	s.s3Client = s3.New(sess)
	return s, nil
}

// NewS3StorageService wraps an existing S3 client.
func NewS3StorageService(client s3iface.S3API, bucket, region, cdnURL string) *StorageService {
	return &StorageService{
		s3Client: client,
		bucket:   bucket,
		region:   region,
		cdnURL:   strings.TrimRight(cdnURL, "/"),
	}
}

// NewLocalStorageService writes objects under dir and serves them from publicURL.
func NewLocalStorageService(dir, publicURL string) *StorageService {
	return &StorageService{localDir: dir, localURL: strings.TrimRight(publicURL, "/")}
}

func (s *StorageService) IsLocal() bool {
	return s.s3Client == nil
}

func (s *StorageService) LocalDir() string {
	return s.localDir
}

func (s *StorageService) Put(ctx context.Context, data []byte, key, contentType string) (string, error) {
	if s.s3Client == nil {
		return s.putLocal(data, key)
	}

	_, err := s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return s.objectURL(key), nil
}

func (s *StorageService) putLocal(data []byte, key string) (string, error) {
	path, err := s.localPath(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return s.localURL + "/" + key, nil
}

func (s *StorageService) Delete(ctx context.Context, fileURL string) error {
	key, err := s.KeyFromURL(fileURL)
	if err != nil {
		return err
	}

	if s.s3Client == nil {
		path, err := s.localPath(key)
		if err != nil {
			return err
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete local file: %w", err)
		}
		return nil
	}

	_, err = s.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}

	return nil
}

// KeyFromURL recovers the object key from a URL produced by Put.
func (s *StorageService) KeyFromURL(fileURL string) (string, error) {
	for _, base := range []string{s.cdnURL, s.localURL, s.bucketURL()} {
		if base == "" {
			continue
		}
		if strings.HasPrefix(fileURL, base+"/") {
			return s.unescape(strings.TrimPrefix(fileURL, base+"/"))
		}
	}

	// Virtual-hosted style URLs from any region.
	if _, key, ok := strings.Cut(fileURL, ".amazonaws.com/"); ok && key != "" {
		return s.unescape(key)
	}

	return "", fmt.Errorf("url %q does not belong to this object store", fileURL)
}

func (s *StorageService) unescape(key string) (string, error) {
	unescaped, err := url.PathUnescape(key)
	if err != nil {
		return "", fmt.Errorf("invalid object key %q: %w", key, err)
	}
	return unescaped, nil
}

func (s *StorageService) objectURL(key string) string {
	if s.cdnURL != "" {
		return fmt.Sprintf("%s/%s", s.cdnURL, key)
	}
	return fmt.Sprintf("%s/%s", s.bucketURL(), key)
}

func (s *StorageService) bucketURL() string {
	if s.s3Client == nil {
		return ""
	}
	if s.endpoint != "" {
		if s.pathURLs {
			return fmt.Sprintf("%s/%s", s.endpoint, s.bucket)
		}
		if u, err := url.Parse(s.endpoint); err == nil && u.Host != "" {
			return fmt.Sprintf("%s://%s.%s", u.Scheme, s.bucket, u.Host)
		}
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", s.bucket, s.region)
}

func (s *StorageService) localPath(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(s.localDir, clean), nil
}
