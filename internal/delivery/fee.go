// Package delivery computes SingPost shipping fees and tracks the delivery
// options chosen while a product is being edited.
package delivery

import (
	"github.com/layerhub/marketplace-backend/internal/models"
)

type singpostTier struct {
	fee       float64
	maxLength float64
	maxWidth  float64
	maxHeight float64
	maxGirth  float64
	maxWeight float64
}

// Tiers are nested, so the first match is the cheapest one that fits.
var singpostTiers = []singpostTier{
	{fee: 3.00, maxLength: 324, maxWidth: 229, maxHeight: 65, maxWeight: 2},
	{fee: 6.00, maxLength: 600, maxWidth: 400, maxHeight: 300, maxWeight: 30},
	{fee: 12.00, maxLength: 1500, maxGirth: 3000, maxWeight: 30},
}

func (t singpostTier) fits(d models.Dimensions) bool {
	if d.Length > t.maxLength || d.Weight > t.maxWeight {
		return false
	}
	if t.maxWidth > 0 && d.Width > t.maxWidth {
		return false
	}
	if t.maxHeight > 0 && d.Height > t.maxHeight {
		return false
	}
	if t.maxGirth > 0 && d.Girth() > t.maxGirth {
		return false
	}
	return true
}

// SingpostFee returns the shipping fee for a parcel, or false when the parcel
// fits no SingPost category.
func SingpostFee(d models.Dimensions) (float64, bool) {
	if !d.Positive() {
		return 0, false
	}
	for _, tier := range singpostTiers {
		if tier.fits(d) {
			return tier.fee, true
		}
	}
	return 0, false
}

// SingpostFeePtr is SingpostFee in the nullable form stored on a SingpostPrice.
func SingpostFeePtr(d models.Dimensions) *float64 {
	fee, ok := SingpostFee(d)
	if !ok {
		return nil
	}
	return &fee
}
