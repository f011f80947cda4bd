// internal/models/delivery.go
package models

import (
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// DeliveryPrice is either a FixedPrice (private, self-collect) or a
// SingpostPrice. The option's Type decides which one is expected.
type DeliveryPrice interface {
	deliveryPrice()
}

type FixedPrice float64

// SingpostPrice carries the carrier fee and the creator's royalty surcharge.
// A nil Fee means the dimensions matched no SingPost tier.
type SingpostPrice struct {
	Fee     *float64 `json:"fee" bson:"fee"`
	Royalty float64  `json:"royalty" bson:"royalty"`
}

func (FixedPrice) deliveryPrice()    {}
func (SingpostPrice) deliveryPrice() {}

func (p SingpostPrice) Equal(other SingpostPrice) bool {
	if p.Royalty != other.Royalty {
		return false
	}
	if p.Fee == nil || other.Fee == nil {
		return p.Fee == nil && other.Fee == nil
	}
	return *p.Fee == *other.Fee
}

type DeliveryOption struct {
	Type  DeliveryType
	Price DeliveryPrice
}

type Delivery struct {
	DeliveryTypes       []DeliveryOption `json:"deliveryTypes" bson:"deliveryTypes"`
	SelfCollectLocation []string         `json:"selfCollectLocation" bson:"selfCollectLocation"`
}

func NewFixedOption(t DeliveryType, amount float64) DeliveryOption {
	return DeliveryOption{Type: t, Price: FixedPrice(amount)}
}

func NewSingpostOption(fee *float64, royalty float64) DeliveryOption {
	return DeliveryOption{Type: DeliveryTypeSingpost, Price: SingpostPrice{Fee: fee, Royalty: royalty}}
}

func (o DeliveryOption) Fixed() (float64, bool) {
	p, ok := o.Price.(FixedPrice)
	return float64(p), ok
}

func (o DeliveryOption) Singpost() (SingpostPrice, bool) {
	p, ok := o.Price.(SingpostPrice)
	return p, ok
}

func (d Delivery) Option(t DeliveryType) (DeliveryOption, bool) {
	for _, o := range d.DeliveryTypes {
		if o.Type == t {
			return o, true
		}
	}
	return DeliveryOption{}, false
}

// wirePrice is the value written for Price; a missing price falls back to
// the zero value of the variant the type expects.
func (o DeliveryOption) wirePrice() interface{} {
	switch p := o.Price.(type) {
	case SingpostPrice:
		return p
	case FixedPrice:
		return float64(p)
	}
	if o.Type == DeliveryTypeSingpost {
		return SingpostPrice{}
	}
	return float64(0)
}

type deliveryOptionJSON struct {
	Type  DeliveryType    `json:"type"`
	Price json.RawMessage `json:"price"`
}

func (o DeliveryOption) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  DeliveryType `json:"type"`
		Price interface{}  `json:"price"`
	}{o.Type, o.wirePrice()})
}

func (o *DeliveryOption) UnmarshalJSON(data []byte) error {
	var wire deliveryOptionJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	price := wire.Price
	if string(price) == "null" {
		price = nil
	}

	switch wire.Type {
	case DeliveryTypeSingpost:
		var sp SingpostPrice
		if len(price) > 0 {
			if err := json.Unmarshal(price, &sp); err != nil {
				return fmt.Errorf("singpost price must be an object with numeric fee and royalty: %w", err)
			}
		}
		o.Price = sp
	case DeliveryTypePrivate, DeliveryTypeSelfCollect:
		var amount float64
		if len(price) > 0 {
			if err := json.Unmarshal(price, &amount); err != nil {
				return fmt.Errorf("%s price must be a number: %w", wire.Type, err)
			}
		}
		o.Price = FixedPrice(amount)
	default:
		return fmt.Errorf("unknown delivery type %q", wire.Type)
	}

	o.Type = wire.Type
	return nil
}

func (o DeliveryOption) MarshalBSON() ([]byte, error) {
	return bson.Marshal(bson.D{
		{Key: "type", Value: string(o.Type)},
		{Key: "price", Value: o.wirePrice()},
	})
}

func (o *DeliveryOption) UnmarshalBSON(data []byte) error {
	var wire struct {
		Type  DeliveryType  `bson:"type"`
		Price bson.RawValue `bson:"price"`
	}
	if err := bson.Unmarshal(data, &wire); err != nil {
		return err
	}

	hasPrice := wire.Price.Type != 0 && wire.Price.Type != bson.TypeNull

	switch wire.Type {
	case DeliveryTypeSingpost:
		var sp SingpostPrice
		if hasPrice {
			if err := wire.Price.Unmarshal(&sp); err != nil {
				return fmt.Errorf("decode singpost price: %w", err)
			}
		}
		o.Price = sp
	case DeliveryTypePrivate, DeliveryTypeSelfCollect:
		var amount float64
		if hasPrice {
			if err := wire.Price.Unmarshal(&amount); err != nil {
				return fmt.Errorf("decode %s price: %w", wire.Type, err)
			}
		}
		o.Price = FixedPrice(amount)
	default:
		return fmt.Errorf("unknown delivery type %q", wire.Type)
	}

	o.Type = wire.Type
	return nil
}
