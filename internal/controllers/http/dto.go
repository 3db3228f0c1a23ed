package http

import (
	"media-store/internal/domain"
	"media-store/internal/services"
)

type cartItemRequest struct {
	ProductID    uint64 `json:"productId" binding:"required"`
	Quantity     int    `json:"quantity" binding:"required,min=1"`
	RushOrder    bool   `json:"rushOrder"`
	Instructions string `json:"instructions"`
}

type deliveryRequest struct {
	Name         string `json:"name" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Phone        string `json:"phone" binding:"required"`
	Address      string `json:"address" binding:"required"`
	Province     string `json:"province" binding:"required"`
	ShippingFee  int64  `json:"shippingFee" binding:"min=0"`
	RushDelivery bool   `json:"rushDelivery"`
}

type createOrderRequest struct {
	Items    []cartItemRequest `json:"items" binding:"required,min=1,dive"`
	Delivery deliveryRequest   `json:"delivery" binding:"required"`
}

func (r *createOrderRequest) toCartItems() []services.CartItem {
	items := make([]services.CartItem, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, services.CartItem{
			ProductID:    it.ProductID,
			Quantity:     it.Quantity,
			RushOrder:    it.RushOrder,
			Instructions: it.Instructions,
		})
	}
	return items
}

func (r *createOrderRequest) toDelivery() *domain.DeliveryInformation {
	return &domain.DeliveryInformation{
		Name:         r.Delivery.Name,
		Email:        r.Delivery.Email,
		Phone:        r.Delivery.Phone,
		Address:      r.Delivery.Address,
		Province:     r.Delivery.Province,
		ShippingFee:  r.Delivery.ShippingFee,
		RushDelivery: r.Delivery.RushDelivery,
	}
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type createPaymentRequest struct {
	OrderID  uint64 `json:"orderId" binding:"required"`
	BankCode string `json:"bankCode"`
	Locale   string `json:"language"`
}

type queryPaymentRequest struct {
	OrderID   uint64 `json:"orderId" binding:"required"`
	TransDate string `json:"transDate" binding:"required"`
}

type refundPaymentRequest struct {
	OrderID   uint64 `json:"orderId" binding:"required"`
	TransDate string `json:"transDate" binding:"required"`
	CreatedBy string `json:"user" binding:"required"`
}
