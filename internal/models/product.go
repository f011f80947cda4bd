// internal/models/product.go
package models

import (
	"time"
)

type Product struct {
	BaseModel            `bson:",inline"`
	CreatorUserID        string      `json:"creatorUserId" gorm:"size:64;not null;index" bson:"creatorUserId"`
	CreatorFullName      string      `json:"creatorFullName" gorm:"size:255;not null" bson:"creatorFullName"`
	Name                 string      `json:"name" gorm:"size:255;not null" bson:"name"`
	Description          string      `json:"description" gorm:"type:text;not null" bson:"description"`
	Images               []string    `json:"images" gorm:"type:jsonb;serializer:json" bson:"images"`
	DownloadableAssets   []string    `json:"downloadableAssets" gorm:"type:jsonb;serializer:json" bson:"downloadableAssets"`
	DateReleased         time.Time   `json:"dateReleased" gorm:"index" bson:"dateReleased"`
	Price                float64     `json:"price" gorm:"type:decimal(10,2);not null" bson:"price"`
	PriceCredits         float64     `json:"priceCredits" gorm:"not null" bson:"priceCredits"`
	Stock                int         `json:"stock" gorm:"default:0" bson:"stock"`
	ProductType          ProductType `json:"productType" gorm:"type:varchar(20);not null;index" bson:"productType"`
	Category             string      `json:"category" gorm:"size:100;index" bson:"category"`
	Subcategory          string      `json:"subcategory" gorm:"size:100" bson:"subcategory"`
	Variants             []string    `json:"variants" gorm:"type:jsonb;serializer:json" bson:"variants"`
	Delivery             Delivery    `json:"delivery" gorm:"type:jsonb;serializer:json" bson:"delivery"`
	Dimensions           Dimensions  `json:"dimensions" gorm:"embedded;embeddedPrefix:dimension_" bson:"dimensions"`
	Downloads            int64       `json:"downloads" gorm:"default:0" bson:"downloads"`
	Prints               int64       `json:"prints" gorm:"default:0" bson:"prints"`
	NumberSold           int64       `json:"numberSold" gorm:"default:0;index" bson:"numberSold"`
	Views                int64       `json:"views" gorm:"default:0" bson:"views"`
	Ratings              []Rating    `json:"ratings" gorm:"type:jsonb;serializer:json" bson:"ratings"`
	Discounts            []Discount  `json:"discount" gorm:"type:jsonb;serializer:json" bson:"discount"`
	Likes                []string    `json:"likes" gorm:"type:jsonb;serializer:json" bson:"likes"`
	Hidden               bool        `json:"hidden" gorm:"default:false" bson:"hidden"`
	FlaggedForModeration bool        `json:"flaggedForModeration" gorm:"default:false" bson:"flaggedForModeration"`
	Slug                 string      `json:"slug" gorm:"size:255;not null;uniqueIndex" bson:"slug"`
}

type Rating struct {
	UserID  string    `json:"userId" bson:"userId"`
	Rating  float64   `json:"rating" bson:"rating"`
	Comment string    `json:"comment" bson:"comment"`
	Date    time.Time `json:"date" bson:"date"`
}

type Discount struct {
	Percentage  float64   `json:"percentage" bson:"percentage"`
	FixedAmount float64   `json:"fixedAmount" bson:"fixedAmount"`
	StartDate   time.Time `json:"startDate" bson:"startDate"`
	EndDate     time.Time `json:"endDate" bson:"endDate"`
}

// Dimensions are millimetres for length, width and height and kilograms for weight.
type Dimensions struct {
	Length float64 `json:"length" bson:"length"`
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
	Weight float64 `json:"weight" bson:"weight"`
}

func (d Dimensions) Positive() bool {
	return d.Length > 0 && d.Width > 0 && d.Height > 0 && d.Weight > 0
}

// Girth is 2×width + 2×height + length.
func (d Dimensions) Girth() float64 {
	return 2*d.Width + 2*d.Height + d.Length
}

func (p *Product) LikedBy(userID string) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}
