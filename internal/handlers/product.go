// internal/handlers/product.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/layerhub/marketplace-backend/internal/i18n"
	"github.com/layerhub/marketplace-backend/internal/models"
	"github.com/layerhub/marketplace-backend/internal/services"
	"github.com/layerhub/marketplace-backend/internal/utils"
)

type ProductHandler struct {
	productService *services.ProductService
}

type LikeRequest struct {
	UserID string `json:"userId"`
	Action string `json:"action" validate:"required,like_action"`
}

func NewProductHandler(productService *services.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
	}
}

// GET /product
func (h *ProductHandler) GetProducts(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	searchParams := services.ProductSearchParams{
		PaginationParams: params,
		Category:         c.Query("category"),
		Subcategory:      c.Query("subcategory"),
		ProductType:      models.ProductType(c.Query("productType")),
		CreatorID:        c.Query("creatorId"),
		Search:           strings.TrimSpace(c.Query("search")),
		Sort:             models.ProductSort(c.Query("sort")),
	}

	viewerID, _ := utils.GetUserIDFromContext(c)

	products, total, err := h.productService.ListProducts(c.Request.Context(), viewerID, searchParams)
	if err != nil {
		logrus.WithError(err).Error("Failed to list products")
		utils.InternalErrorResponse(c, "")
		return
	}

	result := utils.CreatePaginationResult(products, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /products/:slug
func (h *ProductHandler) GetProductBySlug(c *gin.Context) {
	product, err := h.productService.GetProductBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"product": product,
	})
}

// POST /product
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	actor, ok := actorFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	in, err := bindProductForm(c)
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "form"), err.Error())
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), actor, in)
	if err != nil {
		h.respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyProductCreated),
		"product": product,
	})
}

// PUT /product
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	actor, ok := actorFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	in, err := bindProductForm(c)
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "form"), err.Error())
		return
	}
	if in.ID == "" {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyProductIDRequired), nil)
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), actor, in)
	if err != nil {
		h.respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyProductUpdated),
		"product": product,
	})
}

// DELETE /product?id=
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	actor, ok := actorFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	id := c.Query("id")
	if id == "" {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyProductIDRequired), nil)
		return
	}

	if err := h.productService.DeleteProduct(c.Request.Context(), actor, id); err != nil {
		h.respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyProductDeleted),
	})
}

// POST /product/:id/like
func (h *ProductHandler) LikeProduct(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	actor, ok := actorFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req LikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	// Users can only like on their own behalf.
	if req.UserID != "" && req.UserID != actor.UserID {
		utils.ForbiddenResponse(c, "")
		return
	}

	result, err := h.productService.SetLike(c.Request.Context(), actor, c.Param("id"), models.LikeAction(req.Action))
	if err != nil {
		h.respondError(c, err)
		return
	}

	utils.SuccessResponse(c, result)
}

func (h *ProductHandler) respondError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	var validationErr *services.ValidationError
	var uploadErr *services.AssetUploadError

	switch {
	case errors.As(err, &validationErr):
		utils.ValidationErrorResponse(c, validationErr.Fields)
	case errors.As(err, &uploadErr):
		logrus.WithError(uploadErr.Err).WithField("file", uploadErr.Name).Error("Asset upload failed")
		utils.BadGatewayResponse(c, "ASSET_UPLOAD_FAILED", i18n.T(lang, i18n.KeyFileUploadFailed, uploadErr.Name))
	case errors.Is(err, services.ErrProductNotFound):
		utils.NotFoundResponse(c, "product")
	case errors.Is(err, services.ErrForbidden):
		utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyProductNotOwner))
	case errors.Is(err, services.ErrStaleProduct):
		utils.ErrorResponse(c, http.StatusConflict, "CONFLICT", i18n.T(lang, i18n.KeyProductStale), nil)
	case errors.Is(err, services.ErrSlugCollisionExhausted):
		utils.ErrorResponse(c, http.StatusInternalServerError, "SLUG_EXHAUSTED", i18n.T(lang, i18n.KeyProductSlugExhausted), nil)
	default:
		logrus.WithError(err).WithField("path", c.Request.URL.Path).Error("Product request failed")
		utils.InternalErrorResponse(c, i18n.T(lang, i18n.KeyProductSaveFailed))
	}
}

func actorFromContext(c *gin.Context) (services.Actor, bool) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return services.Actor{}, false
	}
	return services.Actor{UserID: userID, FullName: utils.GetFullNameFromContext(c)}, true
}

// bindProductForm reads the multipart product form. Fields that are present
// but malformed go to FormProblems for the service to report with the rest
// of the validation; a form that cannot be read at all is an error.
func bindProductForm(c *gin.Context) (*services.ProductInput, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}

	in := &services.ProductInput{
		ID:                  formValue(form, "id"),
		Name:                formValue(form, "name"),
		Description:         formValue(form, "description"),
		Category:            formValue(form, "category"),
		Subcategory:         formValue(form, "subcategory"),
		ProductType:         models.ProductType(formValue(form, "productType")),
		CreatorUserID:       formValue(form, "creatorUserId"),
		CreatorFullName:     formValue(form, "creatorFullName"),
		SlugBase:            formValue(form, "slug"),
		Price:               parseNumber(formValue(form, "price")),
		PriceCredits:        parseNumber(formValue(form, "priceCredits")),
		Stock:               parseNumber(formValue(form, "stock")),
		Variants:            formValues(form, "variants"),
		SelfCollectLocation: formValues(form, "selfCollectLocation"),
	}

	if raw := formValue(form, "deliveryTypes"); raw != "" {
		options, problems := parseDeliveryTypes(raw)
		in.DeliveryTypes = options
		in.FormProblems = append(in.FormProblems, problems...)
	}

	if raw := formValue(form, "dimensions"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &in.Dimensions); err != nil {
			in.FormProblems = append(in.FormProblems, services.MsgDimensions)
		}
	}

	if raw := formValue(form, "updatedAt"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			in.FormProblems = append(in.FormProblems, services.MsgUpdatedAt)
		} else {
			in.UpdatedAt = &t
		}
	}

	for _, url := range formValues(form, "existingImages") {
		in.Images = append(in.Images, services.Persisted(url))
	}
	for _, fh := range formFiles(form, "images") {
		in.Images = append(in.Images, services.Pending(pendingFile(fh)))
	}
	for _, url := range formValues(form, "existingModels") {
		in.Models = append(in.Models, services.Persisted(url))
	}
	for _, fh := range formFiles(form, "models") {
		in.Models = append(in.Models, services.Pending(pendingFile(fh)))
	}

	return in, nil
}

// parseDeliveryTypes decodes each option on its own so a bad price is
// reported against its delivery method.
func parseDeliveryTypes(raw string) ([]models.DeliveryOption, []string) {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, []string{services.MsgDeliveryOptions}
	}

	var options []models.DeliveryOption
	var problems []string
	for _, item := range items {
		var option models.DeliveryOption
		if err := json.Unmarshal(item, &option); err != nil {
			var head struct {
				Type models.DeliveryType `json:"type"`
			}
			_ = json.Unmarshal(item, &head)
			switch head.Type {
			case models.DeliveryTypeSingpost:
				problems = append(problems, services.MsgSingpostPrice)
			case models.DeliveryTypePrivate:
				problems = append(problems, services.MsgPrivateFee)
			default:
				problems = append(problems, services.MsgDeliveryOptions)
			}
			continue
		}
		options = append(options, option)
	}
	return options, problems
}

// formValue returns the first value of key.
func formValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}

// formValues accepts both "key" and "key[]".
func formValues(form *multipart.Form, key string) []string {
	values := append([]string{}, form.Value[key]...)
	return append(values, form.Value[key+"[]"]...)
}

func formFiles(form *multipart.Form, key string) []*multipart.FileHeader {
	files := append([]*multipart.FileHeader{}, form.File[key]...)
	return append(files, form.File[key+"[]"]...)
}

func pendingFile(fh *multipart.FileHeader) services.PendingFile {
	return services.PendingFile{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// parseNumber returns NaN for empty or non-numeric input.
func parseNumber(raw string) float64 {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
