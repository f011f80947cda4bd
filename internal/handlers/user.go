// internal/handlers/user.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/layerhub/marketplace-backend/internal/i18n"
	"github.com/layerhub/marketplace-backend/internal/models"
	"github.com/layerhub/marketplace-backend/internal/services"
	"github.com/layerhub/marketplace-backend/internal/utils"
)

type UserHandler struct {
	identityService *services.IdentityService
}

type OnboardingRequest struct {
	Role string `json:"role" validate:"required,onboarding_role"`
	Plan string `json:"plan"`
}

func NewUserHandler(identityService *services.IdentityService) *UserHandler {
	return &UserHandler{
		identityService: identityService,
	}
}

// GET /users/:userId
func (h *UserHandler) GetPublicProfile(c *gin.Context) {
	profile, err := h.identityService.GetPublicProfile(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"user": profile,
	})
}

// POST /onboarding
func (h *UserHandler) CompleteOnboarding(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req OnboardingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	if req.Role == models.RoleCreator && req.Plan != "" && !models.ValidCreatorPlan(req.Plan) {
		utils.ValidationErrorResponse(c, []utils.ValidationError{{
			Field:   "plan",
			Tag:     "creator_plan",
			Message: "plan must be one of Basic, Hobbyist, Advanced or Professional",
		}})
		return
	}

	metadata, err := h.identityService.CompleteOnboarding(c.Request.Context(), userID, req.Role, req.Plan)
	if err != nil {
		h.respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyUserOnboardingComplete),
		"metadata": metadata,
	})
}

func (h *UserHandler) respondError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		utils.NotFoundResponse(c, "user")
	case errors.Is(err, services.ErrIdentityUnavailable):
		utils.ServiceUnavailableResponse(c, i18n.T(lang, i18n.KeyIdentityUnavailable))
	default:
		utils.InternalErrorResponse(c, "")
	}
}
