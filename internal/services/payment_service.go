package services

import (
	"context"
	"errors"
	"log"
	"time"

	"media-store/internal/domain"
	rabbit "media-store/internal/infra/rabbitmq"
	"media-store/internal/payment"
	"media-store/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrInvoiceNotPayable     = errors.New("invoice is not in a payable state")
	ErrPaymentAttemptPending = errors.New("a payment attempt is already pending for this invoice")
	ErrOrderNotPayable       = errors.New("order is cancelled or no longer payable")
)

// Gateway is the slice of the payment adapter the orchestration needs; the
// concrete *payment.Client satisfies it.
type Gateway interface {
	BuildPaymentURL(req payment.PaymentRequest, clientIP string) (string, error)
	VerifyCallback(params map[string]string) payment.CallbackResult
	VerifyIPN(params map[string]string) (payment.CallbackResult, error)
	QueryTransaction(ctx context.Context, req payment.QueryRequest, clientIP string) (*payment.QueryResponse, error)
	RefundTransaction(ctx context.Context, req payment.RefundRequest, clientIP string) (*payment.RefundResponse, error)
	ClientReturnURL(status string, res payment.CallbackResult) string
}

// PaymentService coordinates the invoice/transaction ledger with the gateway
// adapter. Integration failures are treated as payment failures here, never
// surfaced as server faults.
type PaymentService struct {
	store     repository.Store
	gateway   Gateway
	publisher rabbit.PublisherInterface
	now       func() time.Time
}

func NewPaymentService(store repository.Store, gw Gateway, pub rabbit.PublisherInterface) *PaymentService {
	return &PaymentService{
		store:     store,
		gateway:   gw,
		publisher: pub,
		now:       time.Now,
	}
}

// InitiatePayment opens one pending transaction for the order's invoice and
// returns the signed redirect URL. A second attempt while one is pending is
// rejected so the pending-transaction lookup can never see two rows.
func (s *PaymentService) InitiatePayment(ctx context.Context, orderID uint64, bankCode, locale, clientIP string) (*payment.PaymentResponse, error) {
	order, err := s.store.Orders().FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == domain.StatusCancelled {
		return nil, ErrOrderNotPayable
	}
	invoice, err := s.store.Invoices().FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !invoice.IsPending() {
		return nil, ErrInvoiceNotPayable
	}

	if _, err := s.store.Transactions().FindPendingByInvoiceID(ctx, invoice.ID); err == nil {
		return nil, ErrPaymentAttemptPending
	} else if !errors.Is(err, repository.ErrTransactionNotFound) {
		return nil, err
	}

	txn := &domain.PaymentTransaction{
		ID:            uuid.NewString(),
		InvoiceID:     invoice.ID,
		Amount:        order.TotalAfterTax,
		Status:        domain.TxnPending,
		PaymentMethod: payment.MethodVNPay,
		BankCode:      bankCode,
	}
	if err := s.store.Transactions().Save(ctx, txn); err != nil {
		return nil, err
	}

	url, err := s.gateway.BuildPaymentURL(payment.PaymentRequest{
		OrderID:  orderID,
		Amount:   order.TotalAfterTax,
		BankCode: bankCode,
		Locale:   locale,
	}, clientIP)
	if err != nil {
		return nil, err
	}

	log.Printf("Payment initiated for order %d, transaction %s", orderID, txn.ID)
	return &payment.PaymentResponse{Code: "00", Message: "success", PaymentURL: url}, nil
}

// HandleReturn processes the browser-return callback and yields the frontend
// redirect URL. Failure cleanup is best-effort: the customer has already left
// the gateway page, so cleanup errors are logged and swallowed.
func (s *PaymentService) HandleReturn(ctx context.Context, params map[string]string) string {
	res := s.gateway.VerifyCallback(params)

	if res.Success {
		if err := s.settle(ctx, res); err != nil {
			log.Printf("Return callback settle failed for txnRef %s: %v", res.TxnRef, err)
			return s.gateway.ClientReturnURL("fail", res)
		}
		return s.gateway.ClientReturnURL("success", res)
	}

	if !res.SignatureValid {
		log.Printf("Return callback with invalid signature, txnRef %q", res.TxnRef)
	} else {
		log.Printf("Return callback reports failure, txnRef %q code %q", res.TxnRef, res.ResponseCode)
	}

	if orderID, err := res.OrderID(); err == nil {
		if err := s.failPayment(ctx, orderID, "gateway response "+res.ResponseCode, true); err != nil {
			log.Printf("Best-effort cleanup for order %d failed: %v", orderID, err)
		}
	}
	return s.gateway.ClientReturnURL("fail", res)
}

// HandleIPN processes the asynchronous server-to-server notification and
// returns the structured acknowledgement the gateway expects. Unlike the
// return path it never cancels the order.
func (s *PaymentService) HandleIPN(ctx context.Context, params map[string]string) payment.IPNAck {
	res, err := s.gateway.VerifyIPN(params)
	if errors.Is(err, payment.ErrMissingFields) {
		return payment.IPNAck{RspCode: payment.IPNCodeInvalidSignature, Message: "Missing required fields"}
	}
	if errors.Is(err, payment.ErrInvalidSignature) {
		return payment.IPNAck{RspCode: payment.IPNCodeInvalidSignature, Message: "Invalid signature"}
	}

	orderID, err := res.OrderID()
	if err != nil {
		return payment.IPNAck{RspCode: payment.IPNCodeOrderNotFound, Message: "Order reference not parseable"}
	}

	order, err := s.store.Orders().FindByID(ctx, orderID)
	if err != nil {
		return payment.IPNAck{RspCode: payment.IPNCodeOrderNotFound, Message: "Order not found"}
	}
	if order.Status == domain.StatusCancelled {
		return payment.IPNAck{RspCode: payment.IPNCodeOrderNotFound, Message: "Order cancelled"}
	}

	invoice, err := s.store.Invoices().FindByOrderID(ctx, orderID)
	if err != nil {
		return payment.IPNAck{RspCode: payment.IPNCodeOrderNotFound, Message: "Invoice not found"}
	}
	if invoice.IsPaid() {
		// Duplicate delivery; the first notification already settled.
		return payment.IPNAck{RspCode: payment.IPNCodeAlreadyConfirmed, Message: "Order already confirmed"}
	}

	if res.ResponseCode != payment.ResponseCodeSuccess {
		if err := s.failPayment(ctx, orderID, "gateway response "+res.ResponseCode, false); err != nil {
			log.Printf("IPN failure recording for order %d failed: %v", orderID, err)
			return payment.IPNAck{RspCode: payment.IPNCodeUnknownError, Message: "Unknown error"}
		}
		return payment.IPNAck{RspCode: payment.IPNCodeSuccess, Message: "Payment failure recorded"}
	}

	if err := s.settle(ctx, res); err != nil {
		log.Printf("IPN settle failed for order %d: %v", orderID, err)
		return payment.IPNAck{RspCode: payment.IPNCodeUnknownError, Message: "Unknown error"}
	}
	return payment.IPNAck{RspCode: payment.IPNCodeSuccess, Message: "Confirm success"}
}

// Query passes a reconciliation lookup through to the gateway.
func (s *PaymentService) Query(ctx context.Context, orderID uint64, transDate, clientIP string) (*payment.QueryResponse, error) {
	return s.gateway.QueryTransaction(ctx, payment.QueryRequest{OrderID: orderID, TransDate: transDate}, clientIP)
}

// Refund reverses a settled payment through the gateway and, on gateway
// success, moves the invoice and its successful transaction to refunded.
func (s *PaymentService) Refund(ctx context.Context, orderID uint64, transDate, createdBy, clientIP string) (*payment.RefundResponse, error) {
	invoice, err := s.store.Invoices().FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !invoice.IsPaid() {
		return nil, &domain.InvalidPaymentTransitionError{From: invoice.PaymentStatus, To: domain.PaymentRefunded}
	}
	txn, err := s.store.Transactions().FindSuccessfulByInvoiceID(ctx, invoice.ID)
	if err != nil {
		return nil, err
	}

	resp, err := s.gateway.RefundTransaction(ctx, payment.RefundRequest{
		OrderID:       orderID,
		Amount:        txn.Amount,
		TransDate:     transDate,
		TransactionNo: txn.GatewayTxnNo,
		CreatedBy:     createdBy,
	}, clientIP)
	if err != nil {
		return nil, err
	}
	if resp.ResponseCode != payment.ResponseCodeSuccess {
		log.Printf("Gateway declined refund for order %d: %s %s", orderID, resp.ResponseCode, resp.Message)
		return resp, nil
	}

	err = s.store.InTx(ctx, func(tx repository.Store) error {
		if err := invoice.Refund(); err != nil {
			return err
		}
		if err := tx.Invoices().Save(ctx, invoice); err != nil {
			return err
		}
		txn.Status = domain.TxnRefunded
		return tx.Transactions().Save(ctx, txn)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Order %d refunded, transaction %s", orderID, txn.ID)
	return resp, nil
}

// settle promotes the pending transaction and marks the invoice paid, then
// triggers the payment-confirmation notification. Re-settling an already-paid
// invoice is a no-op; a cancelled or missing order refuses settlement.
func (s *PaymentService) settle(ctx context.Context, res payment.CallbackResult) error {
	orderID, err := res.OrderID()
	if err != nil {
		return err
	}

	var (
		order   *domain.Order
		invoice *domain.Invoice
		txn     *domain.PaymentTransaction
		settled bool
	)
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		// Row locks serialize concurrent deliveries of the same payment
		// (return + IPN, gateway retries) on the order and its invoice; the
		// loser blocks here and then observes the committed paid state.
		order, err = tx.Orders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status == domain.StatusCancelled {
			return ErrOrderNotPayable
		}
		invoice, err = tx.Invoices().FindByOrderIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if invoice.IsPaid() {
			return nil
		}

		txn, err = tx.Transactions().FindPendingByInvoiceID(ctx, invoice.ID)
		if err != nil {
			return err
		}

		now := s.now()
		txn.MarkSuccess(res.GatewayTxnNo, now)
		if err := tx.Transactions().Save(ctx, txn); err != nil {
			return err
		}
		if err := invoice.MarkAsPaid(txn, now); err != nil {
			return err
		}
		if err := tx.Invoices().Save(ctx, invoice); err != nil {
			return err
		}
		settled = true
		return nil
	})
	if err != nil {
		return err
	}
	if !settled {
		return nil
	}

	email := ""
	if order.Delivery != nil {
		email = order.Delivery.Email
	}
	go func() {
		evt := domain.PaymentConfirmedEvent{
			OrderID:       order.ID,
			InvoiceID:     invoice.ID,
			TransactionID: txn.ID,
			Amount:        txn.Amount,
			PaymentMethod: txn.PaymentMethod,
			CustomerEmail: email,
			PaidAt:        *invoice.PaidAt,
		}
		if err := s.publisher.Publish(context.Background(), "payment.confirmed", evt); err != nil {
			log.Printf("Failed to publish payment.confirmed event: %v", err)
		}
	}()

	log.Printf("Payment settled for order %d, transaction %s", order.ID, txn.ID)
	return nil
}

// failPayment marks the invoice and its pending transaction failed; when
// cancelOrder is set (browser-return path) it also cancels the order and
// releases the reservation through the guarded cancel path.
func (s *PaymentService) failPayment(ctx context.Context, orderID uint64, reason string, cancelOrder bool) error {
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		invoice, err := tx.Invoices().FindByOrderIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if invoice.IsPaid() {
			return ErrInvoiceNotPayable
		}
		if txn, err := tx.Transactions().FindPendingByInvoiceID(ctx, invoice.ID); err == nil {
			txn.MarkFailed(reason, s.now())
			if err := tx.Transactions().Save(ctx, txn); err != nil {
				return err
			}
		} else if !errors.Is(err, repository.ErrTransactionNotFound) {
			return err
		}
		invoice.MarkAsFailed()
		if err := tx.Invoices().Save(ctx, invoice); err != nil {
			return err
		}

		if !cancelOrder {
			return nil
		}
		order, err := tx.Orders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := order.Cancel(); err != nil {
			// Already cancelled means stock was already released.
			var transition *domain.InvalidTransitionError
			if errors.As(err, &transition) && transition.From == domain.StatusCancelled {
				return nil
			}
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
		return err
	}
	log.Printf("Payment failed for order %d: %s", orderID, reason)
	return nil
}
