package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/layerhub/marketplace-backend/internal/models"
)

func validInput() *ProductInput {
	fee := 6.0
	return &ProductInput{
		Name:            "Cool Dragon",
		Description:     "A dragon",
		Category:        "Miniatures",
		ProductType:     models.ProductTypePrint,
		CreatorUserID:   "user_1",
		CreatorFullName: "Ada Maker",
		Price:           10,
		PriceCredits:    100,
		Stock:           5,
		DeliveryTypes: []models.DeliveryOption{
			models.NewSingpostOption(&fee, 1),
			models.NewFixedOption(models.DeliveryTypePrivate, 4),
			models.NewFixedOption(models.DeliveryTypeSelfCollect, 0),
		},
		SelfCollectLocation: []string{"Bedok"},
	}
}

func TestValidateProductAcceptsCompleteForm(t *testing.T) {
	assert.Empty(t, ValidateProduct(validInput()))
}

func TestValidateProductOrderedMessages(t *testing.T) {
	in := &ProductInput{Price: -1, PriceCredits: math.NaN(), Stock: 1.5}

	assert.Equal(t, []string{
		MsgProductName,
		MsgDescription,
		MsgCategory,
		MsgCreator,
		MsgProductType,
		MsgPrice,
		MsgPriceCredits,
		MsgStock,
		MsgDeliveryOptions,
	}, ValidateProduct(in))
}

func TestValidateProductDelivery(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ProductInput)
		want   []string
	}{
		{
			name: "singpost without a fitting tier",
			mutate: func(in *ProductInput) {
				in.DeliveryTypes[0] = models.NewSingpostOption(nil, 1)
			},
			want: []string{MsgSingpostNoTier},
		},
		{
			name: "singpost negative royalty",
			mutate: func(in *ProductInput) {
				fee := 3.0
				in.DeliveryTypes[0] = models.NewSingpostOption(&fee, -2)
			},
			want: []string{MsgSingpostPrice},
		},
		{
			name: "singpost with a plain number",
			mutate: func(in *ProductInput) {
				in.DeliveryTypes[0] = models.DeliveryOption{Type: models.DeliveryTypeSingpost, Price: models.FixedPrice(3)}
			},
			want: []string{MsgSingpostPrice},
		},
		{
			name: "negative private fee",
			mutate: func(in *ProductInput) {
				in.DeliveryTypes[1] = models.NewFixedOption(models.DeliveryTypePrivate, -1)
			},
			want: []string{MsgPrivateFee},
		},
		{
			name: "self-collect without locations",
			mutate: func(in *ProductInput) {
				in.SelfCollectLocation = []string{" ", ""}
			},
			want: []string{MsgSelfCollect},
		},
		{
			name: "locations ignored without self-collect",
			mutate: func(in *ProductInput) {
				in.DeliveryTypes = in.DeliveryTypes[:2]
				in.SelfCollectLocation = nil
			},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(in)
			assert.Equal(t, tt.want, ValidateProduct(in))
		})
	}
}

func TestValidateProductZeroValuesAllowed(t *testing.T) {
	in := validInput()
	in.Price = 0
	in.PriceCredits = 0
	in.Stock = 0
	assert.Empty(t, ValidateProduct(in))
}

func TestValidateProductReportsFormProblemsWithFieldChecks(t *testing.T) {
	in := validInput()
	in.Name = ""
	in.Description = " "
	in.DeliveryTypes = nil
	in.FormProblems = []string{MsgSingpostPrice, MsgDimensions}

	assert.Equal(t, []string{
		MsgProductName,
		MsgDescription,
		MsgSingpostPrice,
		MsgDimensions,
	}, ValidateProduct(in))
}

func TestValidateProductFormProblemsNotRepeated(t *testing.T) {
	in := validInput()
	in.DeliveryTypes = nil
	in.FormProblems = []string{MsgDeliveryOptions, MsgUpdatedAt}

	assert.Equal(t, []string{MsgDeliveryOptions, MsgUpdatedAt}, ValidateProduct(in))
}
