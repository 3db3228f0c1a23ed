package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"media-store/internal/domain"
	rabbit "media-store/internal/infra/rabbitmq"
	"media-store/internal/repository"

	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/errgroup"
)

var ErrOrderNotFound = repository.ErrOrderNotFound

// CartItem is one product/quantity entry of an incoming checkout request.
type CartItem struct {
	ProductID    uint64
	Quantity     int
	RushOrder    bool
	Instructions string
}

// OrderService is the order lifecycle manager. It is the only component that
// mutates inventory and the order aggregate together, always inside one
// storage transaction.
type OrderService struct {
	store       repository.Store
	publisher   rabbit.PublisherInterface
	redisClient *redis.Client
}

func NewOrderService(store repository.Store, pub rabbit.PublisherInterface) *OrderService {
	return &OrderService{
		store:     store,
		publisher: pub,
	}
}

func (s *OrderService) SetRedisClient(client *redis.Client) {
	s.redisClient = client
}

// CreateOrder validates the cart, then reserves stock, persists the order
// with its lines and delivery information, and opens a pending invoice, all
// in a single transaction. A reservation failure on any line rolls back every
// earlier reservation.
func (s *OrderService) CreateOrder(ctx context.Context, items []CartItem, delivery *domain.DeliveryInformation) (*domain.Order, error) {
	if err := s.validateCart(ctx, items); err != nil {
		return nil, err
	}

	var order *domain.Order
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		if err := tx.Deliveries().Save(ctx, delivery); err != nil {
			return err
		}

		order = &domain.Order{
			Status:        domain.StatusPending,
			TaxPercentage: 10,
			DeliveryID:    delivery.ID,
		}

		for _, item := range items {
			product, err := tx.Products().FindByID(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if err := order.AddLine(product, item.Quantity); err != nil {
				return err
			}
			line := &order.Lines[len(order.Lines)-1]
			line.RushOrder = item.RushOrder
			line.Instructions = item.Instructions

			if err := tx.Products().Reserve(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		order.RecalculateTotals()
		if err := tx.Orders().Save(ctx, order); err != nil {
			return err
		}

		invoice := domain.NewInvoice(order, "")
		return tx.Invoices().Create(ctx, invoice)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateProductCache(ctx, items)

	go s.publishEvent(context.Background(), "order.created", domain.OrderCreatedEvent{
		OrderID:       order.ID,
		ItemCount:     order.TotalItemCount(),
		TotalAfterTax: order.TotalAfterTax,
		CustomerEmail: delivery.Email,
		CreatedAt:     order.CreatedAt,
	})

	log.Printf("Order %d created with %d line(s), total %d", order.ID, len(order.Lines), order.TotalAfterTax)
	return order, nil
}

// CancelOrder is the single release path for an order's reservation. The
// status transition guard runs before any stock mutation, so a second cancel
// fails without double-crediting stock.
func (s *OrderService) CancelOrder(ctx context.Context, orderID uint64, reason string) (*domain.Order, error) {
	var order *domain.Order
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		// The row lock serializes cancellation against a concurrent settle.
		var err error
		order, err = tx.Orders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := order.Cancel(); err != nil {
			return err
		}
		for _, line := range order.Lines {
			if err := tx.Products().Release(ctx, line.ProductID, line.Quantity); err != nil {
				return err
			}
		}
		return tx.Orders().Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	go s.publishEvent(context.Background(), "order.cancelled", domain.OrderCancelledEvent{
		OrderID:     order.ID,
		Reason:      reason,
		CancelledAt: time.Now(),
	})

	log.Printf("Order %d cancelled: %s", orderID, reason)
	return order, nil
}

// RecoverProductQuantity is the administrative remediation path used when a
// payment fails after the fact. It routes through the same guarded release as
// CancelOrder; an already-cancelled order is a no-op, never a second release.
func (s *OrderService) RecoverProductQuantity(ctx context.Context, orderID uint64) error {
	_, err := s.CancelOrder(ctx, orderID, "stock recovery after failed payment")
	var transition *domain.InvalidTransitionError
	if errors.As(err, &transition) && transition.From == domain.StatusCancelled {
		log.Printf("Order %d already cancelled, stock previously released", orderID)
		return nil
	}
	return err
}

func (s *OrderService) ConfirmOrder(ctx context.Context, orderID uint64) (*domain.Order, error) {
	order, err := s.store.Orders().FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.Confirm(); err != nil {
		return nil, err
	}
	if err := s.store.Orders().Save(ctx, order); err != nil {
		return nil, err
	}
	log.Printf("Order %d confirmed", orderID)
	return order, nil
}

// UpdateOrderStatus is the operator override: it may jump the forward-only
// machine and is only reachable through the admin surface. Every jump is
// logged for audit.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID uint64, status domain.OrderStatus) (*domain.Order, error) {
	order, err := s.store.Orders().FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	old := order.Status
	order.Status = status
	if err := s.store.Orders().Save(ctx, order); err != nil {
		return nil, err
	}
	log.Printf("Order %d status overridden from %s to %s", orderID, old, status)
	return order, nil
}

func (s *OrderService) GetOrderByID(ctx context.Context, id uint64) (*domain.Order, error) {
	return s.store.Orders().FindByID(ctx, id)
}

func (s *OrderService) GetAllOrders(ctx context.Context) ([]domain.Order, error) {
	return s.store.Orders().FindAll(ctx)
}

func (s *OrderService) GetOrdersByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	return s.store.Orders().FindByStatus(ctx, status)
}

func (s *OrderService) GetInvoiceByOrderID(ctx context.Context, orderID uint64) (*domain.Invoice, error) {
	return s.store.Invoices().FindByOrderID(ctx, orderID)
}

// validateCart fails fast before anything is written: empty cart, bad
// quantities, unresolvable products and obvious stock shortfalls are all
// rejected here. Reserve re-checks stock atomically inside the transaction.
func (s *OrderService) validateCart(ctx context.Context, items []CartItem) error {
	if len(items) == 0 {
		return domain.ErrEmptyCart
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return domain.ErrInvalidQuantity
		}
		product, err := s.getProductWithCache(ctx, item.ProductID)
		if err != nil {
			return err
		}
		if !product.HasStock(item.Quantity) {
			return &domain.InsufficientStockError{
				ProductID: product.ID,
				Requested: item.Quantity,
				Available: product.Quantity,
			}
		}
	}
	return nil
}

func (s *OrderService) getProductWithCache(ctx context.Context, productID uint64) (*domain.Product, error) {
	cacheKey := fmt.Sprintf("product:%d", productID)

	if s.redisClient != nil {
		cached, err := s.redisClient.Get(ctx, cacheKey).Result()
		if err == nil {
			var p domain.Product
			if err := json.Unmarshal([]byte(cached), &p); err == nil {
				return &p, nil
			}
		}
	}

	product, err := s.store.Products().FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if s.redisClient != nil {
		if data, err := json.Marshal(product); err == nil {
			s.redisClient.Set(ctx, cacheKey, data, time.Minute)
		}
	}

	return product, nil
}

func (s *OrderService) invalidateProductCache(ctx context.Context, items []CartItem) {
	if s.redisClient == nil {
		return
	}
	for _, item := range items {
		s.redisClient.Del(ctx, fmt.Sprintf("product:%d", item.ProductID))
	}
}

// WarmupProductCache primes the cache for the given products in parallel.
func (s *OrderService) WarmupProductCache(ctx context.Context, productIDs []uint64) error {
	if s.redisClient == nil {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, id := range productIDs {
		id := id
		g.Go(func() error {
			product, err := s.store.Products().FindByID(ctx, id)
			if err != nil {
				log.Printf("Failed to warm up cache for product %d: %v", id, err)
				return nil
			}
			if data, err := json.Marshal(product); err == nil {
				s.redisClient.Set(ctx, fmt.Sprintf("product:%d", id), data, 5*time.Minute)
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *OrderService) publishEvent(ctx context.Context, pattern string, evt any) {
	if err := s.publisher.Publish(ctx, pattern, evt); err != nil {
		log.Printf("Failed to publish %s event: %v", pattern, err)
	}
}
