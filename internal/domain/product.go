package domain

import (
	"fmt"
	"time"
)

type MediaType string

const (
	MediaBook MediaType = "book"
	MediaCD   MediaType = "cd"
	MediaDVD  MediaType = "dvd"
	MediaLP   MediaType = "lp"
)

// Product is the common catalog record. Media-type specific details live in
// the Details payload; inventory and ordering code only ever read Price and
// Quantity so they are generic over the media type.
type Product struct {
	ID                 uint64    `json:"id" gorm:"column:product_id;primaryKey;autoIncrement"`
	Title              string    `json:"title" gorm:"not null"`
	Type               MediaType `json:"type" gorm:"type:enum('book','cd','dvd','lp');not null;index"`
	Price              int64     `json:"price" gorm:"not null"`
	Quantity           int       `json:"quantity" gorm:"not null;default:0"`
	Weight             float64   `json:"weight"`
	RushOrderSupported bool      `json:"rushOrderSupported" gorm:"default:false"`
	Barcode            string    `json:"barcode" gorm:"uniqueIndex;size:50"`
	ImageURL           string    `json:"imageUrl" gorm:"size:500"`
	Details            string    `json:"details" gorm:"type:text"`
	CreatedAt          time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt          time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (Product) TableName() string { return "products" }

func (p *Product) HasStock(qty int) bool {
	return p.Quantity >= qty
}

// ReduceStock is the in-memory mirror of the conditional decrement the
// repository performs. It exists for aggregate-level checks and tests; the
// authoritative mutation is the storage-layer conditional update.
func (p *Product) ReduceStock(qty int) error {
	if !p.HasStock(qty) {
		return &InsufficientStockError{ProductID: p.ID, Requested: qty, Available: p.Quantity}
	}
	p.Quantity -= qty
	return nil
}

func (p *Product) AddStock(qty int) {
	p.Quantity += qty
}

func (p *Product) TotalPrice(qty int) int64 {
	return p.Price * int64(qty)
}

// InsufficientStockError reports a reservation that would drive stock negative.
type InsufficientStockError struct {
	ProductID uint64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}
