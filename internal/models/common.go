// internal/models/common.go
package models

import (
	"time"
)

// Base model with common fields
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36" bson:"_id"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Enums
type ProductType string

const (
	ProductTypePrint ProductType = "print"
	ProductTypeOther ProductType = "other"
)

func (t ProductType) Valid() bool {
	return t == ProductTypePrint || t == ProductTypeOther
}

type DeliveryType string

const (
	DeliveryTypeSingpost    DeliveryType = "singpost"
	DeliveryTypePrivate     DeliveryType = "private"
	DeliveryTypeSelfCollect DeliveryType = "self-collect"
)

func (t DeliveryType) Valid() bool {
	switch t {
	case DeliveryTypeSingpost, DeliveryTypePrivate, DeliveryTypeSelfCollect:
		return true
	}
	return false
}

type ProductSort string

const (
	ProductSortRecent    ProductSort = "recent"
	ProductSortSales     ProductSort = "sales"
	ProductSortPriceAsc  ProductSort = "price_asc"
	ProductSortPriceDesc ProductSort = "price_desc"
)

type LikeAction string

const (
	LikeActionLike   LikeAction = "like"
	LikeActionUnlike LikeAction = "unlike"
)
