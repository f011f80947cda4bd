// internal/services/slug_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/layerhub/marketplace-backend/internal/repository"
	"github.com/layerhub/marketplace-backend/internal/utils"
)

const (
	defaultSlugBase    = "product"
	slugFallbackLength = 6
)

// SlugService picks a unique URL slug for a product name.
type SlugService struct {
	products    repository.ProductRepository
	maxAttempts int
	token       func(int) (string, error)
}

func NewSlugService(products repository.ProductRepository, maxAttempts int) *SlugService {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &SlugService{
		products:    products,
		maxAttempts: maxAttempts,
		token:       utils.GenerateSlugToken,
	}
}

// Assign probes base, base-2, base-3 and so on until a slug is free or
// already belongs to excludeID. After maxAttempts probes it tries one
// base-<random> candidate before giving up.
func (s *SlugService) Assign(ctx context.Context, name, excludeID string) (string, error) {
	base := slugBase(name)

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		candidate := base
		if attempt > 1 {
			candidate = fmt.Sprintf("%s-%d", base, attempt)
		}

		free, err := s.available(ctx, candidate, excludeID)
		if err != nil {
			return "", err
		}
		if free {
			return candidate, nil
		}
	}

	token, err := s.token(slugFallbackLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate slug token: %w", err)
	}
	candidate := fmt.Sprintf("%s-%s", base, token)
	free, err := s.available(ctx, candidate, excludeID)
	if err != nil {
		return "", err
	}
	if free {
		return candidate, nil
	}

	logrus.WithFields(logrus.Fields{
		"base":     base,
		"attempts": s.maxAttempts + 1,
	}).Error("Slug space exhausted")
	return "", ErrSlugCollisionExhausted
}

// Matches reports whether slug is one Assign could have produced for name:
// the base itself, base-<n> or base-<token>.
func (s *SlugService) Matches(name, slug string) bool {
	base := slugBase(name)
	if slug == base {
		return true
	}
	suffix, ok := strings.CutPrefix(slug, base+"-")
	if !ok || suffix == "" {
		return false
	}
	if n, err := strconv.Atoi(suffix); err == nil {
		return n >= 2 && strconv.Itoa(n) == suffix
	}
	// Random tokens without a digit are indistinguishable from a longer name.
	return len(suffix) == slugFallbackLength &&
		strings.Trim(suffix, "abcdefghijklmnopqrstuvwxyz0123456789") == "" &&
		strings.ContainsAny(suffix, "0123456789")
}

func slugBase(name string) string {
	if base := utils.GenerateSlug(name); base != "" {
		return base
	}
	return defaultSlugBase
}

func (s *SlugService) available(ctx context.Context, slug, excludeID string) (bool, error) {
	existing, err := s.products.FindBySlug(ctx, slug)
	if errors.Is(err, repository.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check slug %q: %w", slug, err)
	}
	return excludeID != "" && existing.ID == excludeID, nil
}
