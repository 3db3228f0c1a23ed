package mocks

import (
	"context"

	"media-store/internal/domain"
	"media-store/internal/payment"
	"media-store/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
	ProductRepo     *MockProductRepository
	OrderRepo       *MockOrderRepository
	DeliveryRepo    *MockDeliveryRepository
	InvoiceRepo     *MockInvoiceRepository
	TransactionRepo *MockTransactionRepository
}

func NewMockStore() *MockStore {
	return &MockStore{
		ProductRepo:     new(MockProductRepository),
		OrderRepo:       new(MockOrderRepository),
		DeliveryRepo:    new(MockDeliveryRepository),
		InvoiceRepo:     new(MockInvoiceRepository),
		TransactionRepo: new(MockTransactionRepository),
	}
}

func (m *MockStore) Products() repository.ProductRepository         { return m.ProductRepo }
func (m *MockStore) Orders() repository.OrderRepository             { return m.OrderRepo }
func (m *MockStore) Deliveries() repository.DeliveryRepository      { return m.DeliveryRepo }
func (m *MockStore) Invoices() repository.InvoiceRepository         { return m.InvoiceRepo }
func (m *MockStore) Transactions() repository.TransactionRepository { return m.TransactionRepo }

// InTx runs the callback against the same mock store, so expectations set on
// the repositories cover both direct and transactional access.
func (m *MockStore) InTx(ctx context.Context, fn func(repository.Store) error) error {
	return fn(m)
}

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uint64) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductRepository) HasStock(ctx context.Context, id uint64, quantity int) (bool, error) {
	args := m.Called(ctx, id, quantity)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) Reserve(ctx context.Context, id uint64, quantity int) error {
	args := m.Called(ctx, id, quantity)
	return args.Error(0)
}

func (m *MockProductRepository) Release(ctx context.Context, id uint64, quantity int) error {
	args := m.Called(ctx, id, quantity)
	return args.Error(0)
}

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uint64) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByIDForUpdate(ctx context.Context, id uint64) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *MockOrderRepository) FindAll(ctx context.Context) ([]domain.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

type MockDeliveryRepository struct {
	mock.Mock
}

func (m *MockDeliveryRepository) Save(ctx context.Context, delivery *domain.DeliveryInformation) error {
	args := m.Called(ctx, delivery)
	return args.Error(0)
}

type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) Create(ctx context.Context, invoice *domain.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *domain.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) FindByOrderID(ctx context.Context, orderID uint64) (*domain.Invoice, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByOrderIDForUpdate(ctx context.Context, orderID uint64) (*domain.Invoice, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByStatus(ctx context.Context, status domain.PaymentStatus) ([]domain.Invoice, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Invoice), args.Error(1)
}

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Save(ctx context.Context, txn *domain.PaymentTransaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) FindByID(ctx context.Context, id string) (*domain.PaymentTransaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentTransaction), args.Error(1)
}

func (m *MockTransactionRepository) FindPendingByInvoiceID(ctx context.Context, invoiceID uint64) (*domain.PaymentTransaction, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentTransaction), args.Error(1)
}

func (m *MockTransactionRepository) FindSuccessfulByInvoiceID(ctx context.Context, invoiceID uint64) (*domain.PaymentTransaction, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentTransaction), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, message interface{}) error {
	args := m.Called(ctx, topic, message)
	return args.Error(0)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) BuildPaymentURL(req payment.PaymentRequest, clientIP string) (string, error) {
	args := m.Called(req, clientIP)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) VerifyCallback(params map[string]string) payment.CallbackResult {
	args := m.Called(params)
	return args.Get(0).(payment.CallbackResult)
}

func (m *MockGateway) VerifyIPN(params map[string]string) (payment.CallbackResult, error) {
	args := m.Called(params)
	return args.Get(0).(payment.CallbackResult), args.Error(1)
}

func (m *MockGateway) QueryTransaction(ctx context.Context, req payment.QueryRequest, clientIP string) (*payment.QueryResponse, error) {
	args := m.Called(ctx, req, clientIP)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.QueryResponse), args.Error(1)
}

func (m *MockGateway) RefundTransaction(ctx context.Context, req payment.RefundRequest, clientIP string) (*payment.RefundResponse, error) {
	args := m.Called(ctx, req, clientIP)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.RefundResponse), args.Error(1)
}

func (m *MockGateway) ClientReturnURL(status string, res payment.CallbackResult) string {
	args := m.Called(status, res)
	return args.String(0)
}
