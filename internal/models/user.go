// internal/models/user.go
package models

import "time"

// Onboarding roles stored in the identity provider's public metadata.
const (
	RoleCreator  = "Creator"
	RoleCustomer = "Customer"
)

var CreatorPlans = []string{"Basic", "Hobbyist", "Advanced", "Professional"}

func ValidCreatorPlan(plan string) bool {
	for _, p := range CreatorPlans {
		if p == plan {
			return true
		}
	}
	return false
}

// UserProfile is the public view of an identity provider user.
type UserProfile struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullName"`
	ImageURL  string    `json:"imageUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

// OnboardingMetadata is written to the user's public metadata once onboarding finishes.
type OnboardingMetadata struct {
	OnboardingComplete bool    `json:"onboardingComplete"`
	Role               string  `json:"role"`
	Plan               *string `json:"plan"`
}
