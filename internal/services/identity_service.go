// internal/services/identity_service.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"

	"github.com/layerhub/marketplace-backend/internal/config"
	"github.com/layerhub/marketplace-backend/internal/models"
)

// IdentityService talks to the hosted identity provider's backend API.
// Calls go through a circuit breaker so an outage fails fast.
type IdentityService struct {
	baseURL   string
	secretKey string
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker[[]byte]
}

type identityUser struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	ImageURL  string `json:"image_url"`
	CreatedAt int64  `json:"created_at"`
}

type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("identity provider returned %d: %s", e.status, e.body)
}

func NewIdentityService(cfg config.IdentityConfig) *IdentityService {
	return &IdentityService{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		secretKey: cfg.SecretKey,
		client:    &http.Client{Timeout: cfg.Timeout},
		breaker:   NewCircuitBreaker("identity-provider", cfg.MaxFailures, cfg.OpenTimeout),
	}
}

// NewCircuitBreaker trips after maxFailures consecutive failures, or when at
// least 60% of 3+ requests in the current window failed. A missing user is
// not a failure.
func NewCircuitBreaker(name string, maxFailures uint32, openTimeout time.Duration) *gobreaker.CircuitBreaker[[]byte] {
	var st gobreaker.Settings
	st.Name = name
	st.Timeout = openTimeout
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		if maxFailures > 0 && counts.ConsecutiveFailures >= maxFailures {
			return true
		}
		failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
		return counts.Requests >= 3 && failureRatio >= 0.6
	}
	st.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, ErrUserNotFound)
	}
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		logrus.WithFields(logrus.Fields{
			"breaker": name,
			"from":    from.String(),
			"to":      to.String(),
		}).Warn("Circuit breaker state changed")
	}

	return gobreaker.NewCircuitBreaker[[]byte](st)
}

func (s *IdentityService) GetPublicProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	body, err := s.do(ctx, http.MethodGet, "/v1/users/"+url.PathEscape(userID), nil)
	if err != nil {
		return nil, err
	}

	var user identityUser
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}

	return &models.UserProfile{
		ID:        user.ID,
		FullName:  strings.TrimSpace(user.FirstName + " " + user.LastName),
		ImageURL:  user.ImageURL,
		CreatedAt: time.UnixMilli(user.CreatedAt).UTC(),
	}, nil
}

// CompleteOnboarding marks onboarding as done in the user's public metadata.
// The plan is only kept for creators.
func (s *IdentityService) CompleteOnboarding(ctx context.Context, userID, role, plan string) (*models.OnboardingMetadata, error) {
	metadata := models.OnboardingMetadata{OnboardingComplete: true, Role: role}
	if role == models.RoleCreator && plan != "" {
		metadata.Plan = &plan
	}

	payload, err := json.Marshal(map[string]interface{}{"public_metadata": metadata})
	if err != nil {
		return nil, err
	}

	if _, err := s.do(ctx, http.MethodPatch, "/v1/users/"+url.PathEscape(userID)+"/metadata", payload); err != nil {
		return nil, err
	}
	return &metadata, nil
}

func (s *IdentityService) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	body, err := s.breaker.Execute(func() ([]byte, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+s.secretKey)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := s.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, err
		}

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, ErrUserNotFound
		case resp.StatusCode >= 300:
			return nil, &statusError{status: resp.StatusCode, body: string(data)}
		}
		return data, nil
	})

	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrIdentityUnavailable, err)
		}
		logrus.WithError(err).WithFields(logrus.Fields{
			"method": method,
			"path":   path,
		}).Error("Identity provider request failed")
		return nil, fmt.Errorf("%w: %v", ErrIdentityUnavailable, err)
	}
	return body, nil
}
