// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Authentication
	KeyAuthRequired     = "auth.required"
	KeyAuthInvalidToken = "auth.invalid_token"
	KeyAuthForbidden    = "auth.forbidden"

	// Users
	KeyUserNotFound           = "user.not_found"
	KeyUserOnboardingComplete = "user.onboarding_complete"
	KeyIdentityUnavailable    = "user.identity_unavailable"

	// Products
	KeyProductCreated       = "product.created"
	KeyProductUpdated       = "product.updated"
	KeyProductDeleted       = "product.deleted"
	KeyProductNotFound      = "product.not_found"
	KeyProductNotOwner      = "product.not_owner"
	KeyProductSaveFailed    = "product.save_failed"
	KeyProductSlugExhausted = "product.slug_exhausted"
	KeyProductIDRequired    = "product.id_required"
	KeyProductStale         = "product.stale"

	// Delivery
	KeyShippingNoTier = "shipping.no_tier"

	// Validation
	KeyValidationInvalid = "validation.invalid"
	KeyValidationProduct = "validation.product"

	// File Upload
	KeyFileUploadFailed = "file.upload_failed"
	KeyFileTooLarge     = "file.too_large"

	// Rate limiting
	KeyRateLimited = "rate.limited"
)
