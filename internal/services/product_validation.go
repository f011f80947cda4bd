// internal/services/product_validation.go
package services

import (
	"math"
	"strings"
	"time"

	"github.com/layerhub/marketplace-backend/internal/models"
)

// ProductInput is a submitted product form. Numeric fields that could not
// be parsed hold NaN so validation rejects them.
type ProductInput struct {
	ID                  string
	Name                string
	Description         string
	Category            string
	Subcategory         string
	ProductType         models.ProductType
	CreatorUserID       string
	CreatorFullName     string
	SlugBase            string
	Price               float64
	PriceCredits        float64
	Stock               float64
	Variants            []string
	DeliveryTypes       []models.DeliveryOption
	SelfCollectLocation []string
	Dimensions          models.Dimensions
	Images              []AssetRef
	Models              []AssetRef
	// UpdatedAt is the version the editor loaded; nil skips the staleness check.
	UpdatedAt *time.Time
	// FormProblems are fields the form decoder could not read. They are
	// reported together with the checks in ValidateProduct.
	FormProblems []string
}

// Messages for the checks in ValidateProduct, in reporting order.
const (
	MsgProductName     = "Product Name"
	MsgDescription     = "Description"
	MsgCategory        = "Category"
	MsgCreator         = "Creator"
	MsgProductType     = "Product Type (print or other)"
	MsgPrice           = "Price (SGD)"
	MsgPriceCredits    = "Price (Credits)"
	MsgStock           = "Stock"
	MsgDeliveryOptions = "Delivery Options"
	MsgSingpostNoTier  = "SingPost Fee (the parcel dimensions do not fit any SingPost tier)"
	MsgSingpostPrice   = "Valid SingPost Fee and Royalty (must be an object like {fee: number, royalty: number} with non-negative, numeric values)"
	MsgPrivateFee      = "Private Shipping Fee (must be 0 or greater if private shipping is selected)"
	MsgSelfCollect     = "Self-Collect Locations (at least one required if self-collect is selected)"
	MsgDimensions      = "Dimensions (length, width, height and weight must be numbers)"
	MsgUpdatedAt       = "Updated At (must be an RFC 3339 timestamp)"
)

// ValidateProduct lists every problem with the form. An empty result means
// the product can be saved.
func ValidateProduct(in *ProductInput) []string {
	var problems []string

	if strings.TrimSpace(in.Name) == "" {
		problems = append(problems, MsgProductName)
	}
	if strings.TrimSpace(in.Description) == "" {
		problems = append(problems, MsgDescription)
	}
	if strings.TrimSpace(in.Category) == "" {
		problems = append(problems, MsgCategory)
	}
	if strings.TrimSpace(in.CreatorUserID) == "" || strings.TrimSpace(in.CreatorFullName) == "" {
		problems = append(problems, MsgCreator)
	}
	if !in.ProductType.Valid() {
		problems = append(problems, MsgProductType)
	}
	if !nonNegative(in.Price) {
		problems = append(problems, MsgPrice)
	}
	if !nonNegative(in.PriceCredits) {
		problems = append(problems, MsgPriceCredits)
	}
	if !nonNegative(in.Stock) || in.Stock != math.Trunc(in.Stock) {
		problems = append(problems, MsgStock)
	}

	if len(in.DeliveryTypes) == 0 {
		if !reportsDeliveryPrice(in.FormProblems) {
			problems = append(problems, MsgDeliveryOptions)
		}
		return appendMissing(problems, in.FormProblems)
	}

	for _, o := range in.DeliveryTypes {
		if o.Type != models.DeliveryTypeSingpost {
			continue
		}
		sp, ok := o.Singpost()
		switch {
		case ok && sp.Fee == nil:
			problems = append(problems, MsgSingpostNoTier)
		case !ok || !nonNegative(*sp.Fee) || !nonNegative(sp.Royalty):
			problems = append(problems, MsgSingpostPrice)
		}
		break
	}

	for _, o := range in.DeliveryTypes {
		if o.Type != models.DeliveryTypePrivate {
			continue
		}
		if amount, ok := o.Fixed(); !ok || !nonNegative(amount) {
			problems = append(problems, MsgPrivateFee)
			break
		}
	}

	for _, o := range in.DeliveryTypes {
		if o.Type == models.DeliveryTypeSelfCollect && !hasLocation(in.SelfCollectLocation) {
			problems = append(problems, MsgSelfCollect)
			break
		}
	}

	return appendMissing(problems, in.FormProblems)
}

// reportsDeliveryPrice is true when an option was dropped for a malformed
// price, which already explains an empty option list.
func reportsDeliveryPrice(formProblems []string) bool {
	for _, p := range formProblems {
		if p == MsgSingpostPrice || p == MsgPrivateFee {
			return true
		}
	}
	return false
}

func appendMissing(problems, extra []string) []string {
	for _, p := range extra {
		found := false
		for _, q := range problems {
			if q == p {
				found = true
				break
			}
		}
		if !found {
			problems = append(problems, p)
		}
	}
	return problems
}

// nonNegative is false for NaN.
func nonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 1)
}

func hasLocation(locations []string) bool {
	for _, l := range locations {
		if strings.TrimSpace(l) != "" {
			return true
		}
	}
	return false
}
