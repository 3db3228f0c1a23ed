package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Gateway acknowledgement codes returned to the IPN caller.
const (
	IPNCodeSuccess          = "00"
	IPNCodeOrderNotFound    = "01"
	IPNCodeAlreadyConfirmed = "02"
	IPNCodeInvalidSignature = "97"
	IPNCodeUnknownError     = "99"
)

// ResponseCodeSuccess is the gateway's success sentinel for a payment attempt.
const ResponseCodeSuccess = "00"

const MethodVNPay = "VNPAY"

var (
	ErrMissingFields    = errors.New("vnpay: callback is missing required fields")
	ErrInvalidSignature = errors.New("vnpay: invalid signature")
)

// IPNAck is the structured acknowledgement sent back to the gateway's
// server-to-server notification.
type IPNAck struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
}

type PaymentRequest struct {
	OrderID   uint64
	Amount    int64 // minor currency units
	BankCode  string
	Locale    string
	OrderInfo string
}

type PaymentResponse struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	PaymentURL string `json:"paymentUrl"`
}

// CallbackResult is the adapter's normalized view of a return/IPN callback.
type CallbackResult struct {
	SignatureValid bool
	Success        bool
	TxnRef         string
	ResponseCode   string
	Amount         string
	OrderInfo      string
	PayDate        string
	GatewayTxnNo   string
	BankCode       string
}

// OrderID parses the transaction reference as the order identifier.
func (r CallbackResult) OrderID() (uint64, error) {
	return strconv.ParseUint(r.TxnRef, 10, 64)
}

type QueryRequest struct {
	OrderID   uint64
	TransDate string // yyyyMMddHHmmss of the original payment
}

type QueryResponse struct {
	ResponseCode      string `json:"vnp_ResponseCode"`
	Message           string `json:"vnp_Message"`
	TxnRef            string `json:"vnp_TxnRef"`
	Amount            string `json:"vnp_Amount"`
	TransactionNo     string `json:"vnp_TransactionNo"`
	TransactionType   string `json:"vnp_TransactionType"`
	TransactionStatus string `json:"vnp_TransactionStatus"`
	BankCode          string `json:"vnp_BankCode"`
	PayDate           string `json:"vnp_PayDate"`
}

type RefundRequest struct {
	OrderID         uint64
	Amount          int64 // minor currency units
	TransDate       string
	TransactionNo   string
	TransactionType string // "02" full refund, "03" partial
	CreatedBy       string
}

type RefundResponse struct {
	ResponseCode  string `json:"vnp_ResponseCode"`
	Message       string `json:"vnp_Message"`
	TxnRef        string `json:"vnp_TxnRef"`
	Amount        string `json:"vnp_Amount"`
	TransactionNo string `json:"vnp_TransactionNo"`
}

// Client implements the gateway wire protocol: signed outbound requests and
// validated inbound callbacks.
type Client struct {
	cfg        Config
	httpClient *http.Client
	now        func() time.Time
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
	}
}

// BuildPaymentURL assembles the signed redirect URL for the hosted payment
// page. Empty parameters are dropped before signing; the signature is
// computed over the sorted canonical string and appended as vnp_SecureHash.
func (c *Client) BuildPaymentURL(req PaymentRequest, clientIP string) (string, error) {
	if req.Amount <= 0 {
		return "", fmt.Errorf("vnpay: amount must be positive, got %d", req.Amount)
	}

	now := c.now().In(gatewayLocation)
	locale := req.Locale
	if locale == "" {
		locale = "vn"
	}
	orderInfo := req.OrderInfo
	if orderInfo == "" {
		orderInfo = fmt.Sprintf("Thanh toan don hang:%d", req.OrderID)
	}

	params := map[string]string{
		"vnp_Version":    c.cfg.Version,
		"vnp_Command":    "pay",
		"vnp_TmnCode":    c.cfg.TmnCode,
		"vnp_Amount":     strconv.FormatInt(req.Amount*100, 10),
		"vnp_CurrCode":   "VND",
		"vnp_BankCode":   req.BankCode,
		"vnp_TxnRef":     strconv.FormatUint(req.OrderID, 10),
		"vnp_OrderInfo":  orderInfo,
		"vnp_OrderType":  "other",
		"vnp_Locale":     locale,
		"vnp_ReturnUrl":  c.cfg.ReturnURL,
		"vnp_IpAddr":     clientIP,
		"vnp_CreateDate": now.Format(timestampLayout),
		"vnp_ExpireDate": now.Add(c.cfg.Expiry).Format(timestampLayout),
	}

	query := canonicalize(params)
	secureHash := HmacSHA512(c.cfg.HashSecret, query)
	return c.cfg.PayURL + "?" + query + "&vnp_SecureHash=" + secureHash, nil
}

// VerifyCallback validates a browser-return callback. The signature field is
// removed before recomputing the hash over the remaining parameters; the
// payment is successful only when the signature matches, the response code is
// the success sentinel and a transaction reference is present.
func (c *Client) VerifyCallback(params map[string]string) CallbackResult {
	fields := make(map[string]string, len(params))
	for k, v := range params {
		fields[k] = v
	}
	received := fields["vnp_SecureHash"]
	delete(fields, "vnp_SecureHash")
	delete(fields, "vnp_SecureHashType")

	res := CallbackResult{
		TxnRef:       fields["vnp_TxnRef"],
		ResponseCode: fields["vnp_ResponseCode"],
		Amount:       fields["vnp_Amount"],
		OrderInfo:    fields["vnp_OrderInfo"],
		PayDate:      fields["vnp_PayDate"],
		GatewayTxnNo: fields["vnp_TransactionNo"],
		BankCode:     fields["vnp_BankCode"],
	}
	res.SignatureValid = received != "" && c.cfg.VerifySignature(fields, received)
	res.Success = res.SignatureValid &&
		res.ResponseCode == ResponseCodeSuccess &&
		res.TxnRef != ""
	return res
}

// VerifyIPN validates an asynchronous notification. Required fields are
// checked before the signature so a malformed notification is rejected
// without touching the secret.
func (c *Client) VerifyIPN(params map[string]string) (CallbackResult, error) {
	for _, name := range []string{"vnp_Amount", "vnp_TxnRef", "vnp_TransactionNo", "vnp_ResponseCode"} {
		if strings.TrimSpace(params[name]) == "" {
			return CallbackResult{}, ErrMissingFields
		}
	}
	res := c.VerifyCallback(params)
	if !res.SignatureValid {
		return res, ErrInvalidSignature
	}
	return res, nil
}

// QueryTransaction asks the gateway for the state of a past payment. The
// query sub-protocol signs a pipe-joined field list rather than the sorted
// query canonicalization.
func (c *Client) QueryTransaction(ctx context.Context, req QueryRequest, clientIP string) (*QueryResponse, error) {
	requestID := uuid.NewString()
	txnRef := strconv.FormatUint(req.OrderID, 10)
	orderInfo := "Kiem tra ket qua GD OrderId:" + txnRef
	createDate := c.now().In(gatewayLocation).Format(timestampLayout)

	params := map[string]string{
		"vnp_RequestId":       requestID,
		"vnp_Version":         c.cfg.Version,
		"vnp_Command":         "querydr",
		"vnp_TmnCode":         c.cfg.TmnCode,
		"vnp_TxnRef":          txnRef,
		"vnp_OrderInfo":       orderInfo,
		"vnp_TransactionDate": req.TransDate,
		"vnp_CreateDate":      createDate,
		"vnp_IpAddr":          clientIP,
	}

	hashData := strings.Join([]string{
		requestID, c.cfg.Version, "querydr", c.cfg.TmnCode,
		txnRef, req.TransDate, createDate, clientIP, orderInfo,
	}, "|")
	params["vnp_SecureHash"] = HmacSHA512(c.cfg.HashSecret, hashData)

	var out QueryResponse
	if err := c.post(ctx, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RefundTransaction submits a refund for a settled payment.
func (c *Client) RefundTransaction(ctx context.Context, req RefundRequest, clientIP string) (*RefundResponse, error) {
	requestID := uuid.NewString()
	txnRef := strconv.FormatUint(req.OrderID, 10)
	amount := strconv.FormatInt(req.Amount*100, 10)
	orderInfo := "Hoan tien GD OrderId:" + txnRef
	createDate := c.now().In(gatewayLocation).Format(timestampLayout)
	tranType := req.TransactionType
	if tranType == "" {
		tranType = "02"
	}

	params := map[string]string{
		"vnp_RequestId":       requestID,
		"vnp_Version":         c.cfg.Version,
		"vnp_Command":         "refund",
		"vnp_TmnCode":         c.cfg.TmnCode,
		"vnp_TransactionType": tranType,
		"vnp_TxnRef":          txnRef,
		"vnp_Amount":          amount,
		"vnp_OrderInfo":       orderInfo,
		"vnp_TransactionNo":   req.TransactionNo,
		"vnp_TransactionDate": req.TransDate,
		"vnp_CreateBy":        req.CreatedBy,
		"vnp_CreateDate":      createDate,
		"vnp_IpAddr":          clientIP,
	}

	hashData := strings.Join([]string{
		requestID, c.cfg.Version, "refund", c.cfg.TmnCode,
		tranType, txnRef, amount, req.TransactionNo, req.TransDate,
		req.CreatedBy, createDate, clientIP, orderInfo,
	}, "|")
	params["vnp_SecureHash"] = HmacSHA512(c.cfg.HashSecret, hashData)

	var out RefundResponse
	if err := c.post(ctx, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClientReturnURL builds the frontend redirect issued after a return callback.
func (c *Client) ClientReturnURL(status string, res CallbackResult) string {
	q := url.Values{}
	q.Set("status", status)
	q.Set("orderId", res.TxnRef)
	amount := res.Amount
	if amount == "" {
		amount = "0"
	}
	q.Set("amount", amount)
	q.Set("orderInfo", res.OrderInfo)
	q.Set("payDate", res.PayDate)
	return c.cfg.ClientReturnURL + "?" + q.Encode()
}

func (c *Client) post(ctx context.Context, params map[string]string, out interface{}) error {
	body, err := json.Marshal(params)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("vnpay: gateway API returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
