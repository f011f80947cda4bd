// internal/services/asset_service.go
package services

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type AssetKind string

const (
	AssetKindImage AssetKind = "image"
	AssetKindModel AssetKind = "model"
)

func (k AssetKind) folder() string {
	if k == AssetKindModel {
		return "product-models"
	}
	return "product-images"
}

// PendingFile is a file picked in the form that has not been uploaded yet.
type PendingFile struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// AssetRef is either a Persisted object store URL or a Pending file.
type AssetRef struct {
	URL  string
	File *PendingFile
}

func Persisted(url string) AssetRef {
	return AssetRef{URL: url}
}

func Pending(f PendingFile) AssetRef {
	return AssetRef{File: &f}
}

func (r AssetRef) IsPending() bool {
	return r.File != nil
}

type AssetPolicy struct {
	MaxImages      int
	ModelWarnBytes int64
	ModelMaxBytes  int64
}

func DefaultAssetPolicy() AssetPolicy {
	return AssetPolicy{
		MaxImages:      7,
		ModelWarnBytes: 25 << 20,
		ModelMaxBytes:  50 << 20,
	}
}

type ReconcileResult struct {
	Final    []string
	ToDelete []string
}

// AssetService moves product images and model files in and out of the object store.
type AssetService struct {
	store  ObjectStore
	policy AssetPolicy
}

func NewAssetService(store ObjectStore, policy AssetPolicy) *AssetService {
	return &AssetService{store: store, policy: policy}
}

// Admit applies the upload limits to newly picked files. Rejected files are
// reported one message each; accepted files keep their order.
func (s *AssetService) Admit(kind AssetKind, existingCount int, files []PendingFile) ([]PendingFile, []string) {
	var accepted []PendingFile
	var rejected []string

	switch kind {
	case AssetKindImage:
		room := s.policy.MaxImages - existingCount
		for _, f := range files {
			if len(accepted) >= room {
				rejected = append(rejected, fmt.Sprintf("Images: %s was not added, a product can have at most %d images", f.Name, s.policy.MaxImages))
				continue
			}
			accepted = append(accepted, f)
		}
	case AssetKindModel:
		for _, f := range files {
			if f.Size > s.policy.ModelMaxBytes {
				rejected = append(rejected, fmt.Sprintf("Model Files: %s is larger than %d MB", f.Name, s.policy.ModelMaxBytes>>20))
				continue
			}
			if f.Size > s.policy.ModelWarnBytes {
				logrus.WithFields(logrus.Fields{
					"file": f.Name,
					"size": f.Size,
				}).Warn("Large model file accepted")
			}
			accepted = append(accepted, f)
		}
	}

	return accepted, rejected
}

// CheckKept verifies that every URL the client asks to keep is one the
// product already stores. It returns the kept URLs without duplicates.
func (s *AssetService) CheckKept(label string, persisted, kept []string) ([]string, []string) {
	known := make(map[string]struct{}, len(persisted))
	for _, u := range persisted {
		known[u] = struct{}{}
	}

	seen := make(map[string]struct{}, len(kept))
	result := []string{}
	var problems []string
	for _, u := range kept {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		if _, ok := known[u]; !ok {
			problems = append(problems, fmt.Sprintf("%s: %s is not a stored file of this product", label, u))
			continue
		}
		result = append(result, u)
	}
	return result, problems
}

// Upload stores files in parallel and returns their URLs in input order. If
// any upload fails the ones that succeeded are deleted again.
func (s *AssetService) Upload(ctx context.Context, kind AssetKind, files []PendingFile) ([]string, error) {
	urls := make([]string, len(files))
	if len(files) == 0 {
		return urls, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			url, err := s.uploadOne(gctx, kind, f)
			if err != nil {
				return &AssetUploadError{Name: f.Name, Err: err}
			}
			urls[i] = url
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var uploaded []string
		for _, u := range urls {
			if u != "" {
				uploaded = append(uploaded, u)
			}
		}
		s.DeleteAll(context.WithoutCancel(ctx), uploaded)
		return nil, err
	}

	return urls, nil
}

func (s *AssetService) uploadOne(ctx context.Context, kind AssetKind, f PendingFile) (string, error) {
	if f.Open == nil {
		return "", fmt.Errorf("file has no content")
	}
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(f.Name))
	key := fmt.Sprintf("%s/%s%s", kind.folder(), uuid.NewString(), ext)
	return s.store.Put(ctx, data, key, contentTypeOf(f, ext))
}

func contentTypeOf(f PendingFile, ext string) string {
	if f.ContentType != "" {
		return f.ContentType
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// Reconcile diffs the stored URLs against the URLs that survive an edit.
func (s *AssetService) Reconcile(old, final []string) ReconcileResult {
	return Reconcile(old, final)
}

// Reconcile returns the URLs in old that are absent from final, in the order
// of old. Final is returned as given.
func Reconcile(old, final []string) ReconcileResult {
	keep := make(map[string]struct{}, len(final))
	for _, u := range final {
		keep[u] = struct{}{}
	}

	toDelete := []string{}
	for _, u := range old {
		if _, ok := keep[u]; !ok {
			toDelete = append(toDelete, u)
		}
	}

	return ReconcileResult{Final: final, ToDelete: toDelete}
}

// DeleteAll removes every URL independently. Failures are logged and dropped.
func (s *AssetService) DeleteAll(ctx context.Context, urls []string) {
	if len(urls) == 0 {
		return
	}

	var g errgroup.Group
	g.SetLimit(8)
	for _, u := range urls {
		u := u
		g.Go(func() error {
			if err := s.store.Delete(ctx, u); err != nil {
				logrus.WithError(err).WithField("url", u).Warn("Failed to delete product asset")
			}
			return nil
		})
	}
	_ = g.Wait()
}
