package domain

import (
	"errors"
	"fmt"
	"time"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusConfirmed  OrderStatus = "confirmed"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// statusRank orders the forward-only part of the machine. Cancelled sits
// outside the sequence and is terminal.
var statusRank = map[OrderStatus]int{
	StatusPending:    0,
	StatusConfirmed:  1,
	StatusProcessing: 2,
	StatusShipped:    3,
	StatusDelivered:  4,
}

var ErrEmptyCart = errors.New("cart cannot be empty")
var ErrInvalidQuantity = errors.New("order line quantity must be greater than zero")

// InvalidTransitionError reports an order status change the machine forbids.
type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid order transition from %s to %s", e.From, e.To)
}

type Order struct {
	ID             uint64               `json:"id" gorm:"column:order_id;primaryKey;autoIncrement"`
	Lines          []OrderLine          `json:"lines" gorm:"foreignKey:OrderID"`
	TotalBeforeTax int64                `json:"totalBeforeTax" gorm:"not null"`
	TotalAfterTax  int64                `json:"totalAfterTax" gorm:"not null"`
	TaxPercentage  int64                `json:"taxPercentage" gorm:"not null;default:10"`
	Status         OrderStatus          `json:"status" gorm:"type:enum('pending','confirmed','processing','shipped','delivered','cancelled');default:'pending';index"`
	DeliveryID     uint64               `json:"deliveryId"`
	Delivery       *DeliveryInformation `json:"delivery,omitempty" gorm:"foreignKey:DeliveryID"`
	CreatedAt      time.Time            `json:"createdAt" gorm:"autoCreateTime;index"`
	UpdatedAt      time.Time            `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (Order) TableName() string { return "orders" }

type OrderLineStatus string

const (
	LinePending   OrderLineStatus = "pending"
	LineConfirmed OrderLineStatus = "confirmed"
	LineShipped   OrderLineStatus = "shipped"
	LineDelivered OrderLineStatus = "delivered"
	LineCancelled OrderLineStatus = "cancelled"
)

// OrderLine captures the unit price at order time; it is never recomputed
// from the current catalog price.
type OrderLine struct {
	ID           uint64          `json:"id" gorm:"column:orderline_id;primaryKey;autoIncrement"`
	OrderID      uint64          `json:"orderId" gorm:"not null;index"`
	ProductID    uint64          `json:"productId" gorm:"not null"`
	Quantity     int             `json:"quantity" gorm:"not null"`
	UnitPrice    int64           `json:"unitPrice" gorm:"not null"`
	TotalFee     int64           `json:"totalFee" gorm:"not null"`
	Status       OrderLineStatus `json:"status" gorm:"type:enum('pending','confirmed','shipped','delivered','cancelled');default:'pending'"`
	RushOrder    bool            `json:"rushOrder" gorm:"column:rush_order_using;default:false"`
	Instructions string          `json:"instructions,omitempty" gorm:"type:text"`
}

func (OrderLine) TableName() string { return "order_lines" }

type DeliveryInformation struct {
	ID           uint64    `json:"id" gorm:"column:delivery_id;primaryKey;autoIncrement"`
	Name         string    `json:"name" gorm:"not null"`
	Email        string    `json:"email" gorm:"not null"`
	Phone        string    `json:"phone" gorm:"not null"`
	Address      string    `json:"address" gorm:"not null"`
	Province     string    `json:"province"`
	ShippingFee  int64     `json:"shippingFee"`
	RushDelivery bool      `json:"rushDelivery" gorm:"default:false"`
	CreatedAt    time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

func (DeliveryInformation) TableName() string { return "delivery_information" }

// AddLine appends a line priced at the product's current price and
// recalculates totals.
func (o *Order) AddLine(p *Product, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	o.Lines = append(o.Lines, OrderLine{
		ProductID: p.ID,
		Quantity:  qty,
		UnitPrice: p.Price,
		TotalFee:  p.TotalPrice(qty),
		Status:    LinePending,
	})
	o.RecalculateTotals()
	return nil
}

// RecalculateTotals folds the lines into the two total fields. Idempotent;
// callable any number of times.
func (o *Order) RecalculateTotals() {
	var before int64
	for _, l := range o.Lines {
		before += l.TotalFee
	}
	o.TotalBeforeTax = before
	o.TotalAfterTax = before + before*o.TaxPercentage/100
}

func (o *Order) Confirm() error {
	if o.Status != StatusPending {
		return &InvalidTransitionError{From: o.Status, To: StatusConfirmed}
	}
	o.Status = StatusConfirmed
	return nil
}

func (o *Order) CanBeCancelled() bool {
	return o.Status == StatusPending || o.Status == StatusConfirmed
}

// Cancel transitions the order and its lines. It deliberately does not touch
// inventory; releasing the reservation belongs to the lifecycle service.
func (o *Order) Cancel() error {
	if !o.CanBeCancelled() {
		return &InvalidTransitionError{From: o.Status, To: StatusCancelled}
	}
	o.Status = StatusCancelled
	for i := range o.Lines {
		o.Lines[i].Status = LineCancelled
	}
	return nil
}

// CanTransitionTo enforces the forward-only machine used by customer-facing
// transitions. The administrative override bypasses this on purpose.
func (o *Order) CanTransitionTo(next OrderStatus) bool {
	if o.Status == StatusCancelled || o.Status == StatusDelivered {
		return false
	}
	if next == StatusCancelled {
		return o.CanBeCancelled()
	}
	cur, ok := statusRank[o.Status]
	if !ok {
		return false
	}
	nxt, ok := statusRank[next]
	if !ok {
		return false
	}
	return nxt == cur+1
}

func (o *Order) TotalItemCount() int {
	var n int
	for _, l := range o.Lines {
		n += l.Quantity
	}
	return n
}

func (o *Order) HasRushItems() bool {
	for _, l := range o.Lines {
		if l.RushOrder {
			return true
		}
	}
	return false
}
