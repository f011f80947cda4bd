// internal/handlers/catalog.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/layerhub/marketplace-backend/internal/delivery"
	"github.com/layerhub/marketplace-backend/internal/i18n"
	"github.com/layerhub/marketplace-backend/internal/models"
	"github.com/layerhub/marketplace-backend/internal/utils"
)

// CatalogHandler serves the static data the product editor needs.
type CatalogHandler struct{}

// QuoteRequest is a parcel in millimetres and kilograms.
type QuoteRequest struct {
	Length float64 `json:"length" validate:"gt=0"`
	Width  float64 `json:"width" validate:"gt=0"`
	Height float64 `json:"height" validate:"gt=0"`
	Weight float64 `json:"weight" validate:"gt=0"`
}

func NewCatalogHandler() *CatalogHandler {
	return &CatalogHandler{}
}

// POST /shipping/singpost/quote
func (h *CatalogHandler) QuoteSingpost(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "dimensions"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	fee, ok := delivery.SingpostFee(models.Dimensions{
		Length: req.Length,
		Width:  req.Width,
		Height: req.Height,
		Weight: req.Weight,
	})
	if !ok {
		utils.UnprocessableResponse(c, "NO_SINGPOST_TIER", i18n.T(lang, i18n.KeyShippingNoTier))
		return
	}

	utils.SuccessResponse(c, gin.H{
		"fee": fee,
	})
}

// GET /categories?productType=
func (h *CatalogHandler) GetCategories(c *gin.Context) {
	productType := models.ProductType(c.DefaultQuery("productType", string(models.ProductTypePrint)))
	if !productType.Valid() {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, "productType"), nil)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"productType": productType,
		"categories":  models.CategoriesFor(productType),
	})
}
