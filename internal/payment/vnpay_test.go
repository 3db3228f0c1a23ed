package payment

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testConfig() Config {
	return Config{
		TmnCode:         "DEMOV210",
		HashSecret:      "RAOEXHYVSDDIIENYWSLDIIZTANRUAXNM",
		PayURL:          "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		APIURL:          "https://sandbox.vnpayment.vn/merchant_webapi/api/transaction",
		ReturnURL:       "http://localhost:8080/payment/return",
		ClientReturnURL: "http://localhost:5173/order-confirmation",
		Version:         "2.1.0",
		Expiry:          15 * time.Minute,
	}
}

func testClient() *Client {
	c := NewClient(testConfig())
	c.now = func() time.Time {
		return time.Date(2025, 7, 1, 10, 30, 0, 0, time.UTC)
	}
	return c
}

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]string
		want   string
	}{
		{
			name:   "sorted by name",
			params: map[string]string{"b": "2", "a": "1", "c": "3"},
			want:   "a=1&b=2&c=3",
		},
		{
			name:   "empty values dropped",
			params: map[string]string{"vnp_BankCode": "", "vnp_TxnRef": "42", "vnp_Locale": "  "},
			want:   "vnp_TxnRef=42",
		},
		{
			name:   "values percent encoded",
			params: map[string]string{"vnp_OrderInfo": "Thanh toan don hang:42"},
			want:   "vnp_OrderInfo=Thanh+toan+don+hang%3A42",
		},
		{
			name:   "empty map",
			params: map[string]string{},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, canonicalize(tt.params))
		})
	}
}

func TestConfig_SignAndVerify(t *testing.T) {
	cfg := testConfig()
	params := map[string]string{
		"vnp_Amount":        "57200000",
		"vnp_TxnRef":        "42",
		"vnp_ResponseCode":  "00",
		"vnp_TransactionNo": "14421780",
		"vnp_OrderInfo":     "Thanh toan don hang:42",
	}

	sig := cfg.SignParams(params)
	assert.Len(t, sig, 128) // hex-encoded SHA-512
	assert.True(t, cfg.VerifySignature(params, sig))

	t.Run("tampered value rejected", func(t *testing.T) {
		tampered := map[string]string{}
		for k, v := range params {
			tampered[k] = v
		}
		tampered["vnp_Amount"] = "100"
		assert.False(t, cfg.VerifySignature(tampered, sig))
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		other := cfg
		other.HashSecret = "DIFFERENTSECRET"
		assert.False(t, other.VerifySignature(params, sig))
	})

	t.Run("non-hex signature rejected", func(t *testing.T) {
		assert.False(t, cfg.VerifySignature(params, "not-hex"))
	})

	t.Run("empty parameters do not change the signature", func(t *testing.T) {
		padded := map[string]string{}
		for k, v := range params {
			padded[k] = v
		}
		padded["vnp_BankCode"] = ""
		assert.Equal(t, sig, cfg.SignParams(padded))
	})
}

func TestClient_BuildPaymentURL(t *testing.T) {
	c := testClient()

	raw, err := c.BuildPaymentURL(PaymentRequest{
		OrderID:  42,
		Amount:   572000,
		BankCode: "NCB",
	}, "192.168.1.10")
	assert.NoError(t, err)

	u, err := url.Parse(raw)
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(raw, c.cfg.PayURL+"?"))

	q := u.Query()
	assert.Equal(t, "2.1.0", q.Get("vnp_Version"))
	assert.Equal(t, "pay", q.Get("vnp_Command"))
	assert.Equal(t, "DEMOV210", q.Get("vnp_TmnCode"))
	assert.Equal(t, "57200000", q.Get("vnp_Amount")) // amount in minor units x100
	assert.Equal(t, "VND", q.Get("vnp_CurrCode"))
	assert.Equal(t, "NCB", q.Get("vnp_BankCode"))
	assert.Equal(t, "42", q.Get("vnp_TxnRef"))
	assert.Equal(t, "vn", q.Get("vnp_Locale"))
	assert.Equal(t, "192.168.1.10", q.Get("vnp_IpAddr"))
	assert.Equal(t, c.cfg.ReturnURL, q.Get("vnp_ReturnUrl"))

	// Timestamps are rendered in the gateway's UTC+7 zone.
	assert.Equal(t, "20250701173000", q.Get("vnp_CreateDate"))
	assert.Equal(t, "20250701174500", q.Get("vnp_ExpireDate"))

	// The signature covers every parameter before vnp_SecureHash.
	sig := q.Get("vnp_SecureHash")
	assert.NotEmpty(t, sig)
	fields := map[string]string{}
	for k, v := range q {
		if k == "vnp_SecureHash" {
			continue
		}
		fields[k] = v[0]
	}
	assert.True(t, c.cfg.VerifySignature(fields, sig))
}

func TestClient_BuildPaymentURL_RejectsNonPositiveAmount(t *testing.T) {
	c := testClient()
	for _, amount := range []int64{0, -1} {
		_, err := c.BuildPaymentURL(PaymentRequest{OrderID: 1, Amount: amount}, "127.0.0.1")
		assert.Error(t, err)
	}
}

func signedCallback(cfg Config, overrides map[string]string) map[string]string {
	params := map[string]string{
		"vnp_Amount":        "57200000",
		"vnp_BankCode":      "NCB",
		"vnp_OrderInfo":     "Thanh toan don hang:42",
		"vnp_PayDate":       "20250701173216",
		"vnp_ResponseCode":  "00",
		"vnp_TmnCode":       cfg.TmnCode,
		"vnp_TransactionNo": "14421780",
		"vnp_TxnRef":        "42",
	}
	for k, v := range overrides {
		if v == "" {
			delete(params, k)
			continue
		}
		params[k] = v
	}
	params["vnp_SecureHash"] = cfg.SignParams(params)
	return params
}

func TestClient_VerifyCallback(t *testing.T) {
	c := testClient()

	t.Run("valid successful callback", func(t *testing.T) {
		res := c.VerifyCallback(signedCallback(c.cfg, nil))
		assert.True(t, res.SignatureValid)
		assert.True(t, res.Success)
		assert.Equal(t, "42", res.TxnRef)
		assert.Equal(t, "14421780", res.GatewayTxnNo)
		assert.Equal(t, "NCB", res.BankCode)

		orderID, err := res.OrderID()
		assert.NoError(t, err)
		assert.Equal(t, uint64(42), orderID)
	})

	t.Run("valid signature but failed payment", func(t *testing.T) {
		res := c.VerifyCallback(signedCallback(c.cfg, map[string]string{"vnp_ResponseCode": "24"}))
		assert.True(t, res.SignatureValid)
		assert.False(t, res.Success)
		assert.Equal(t, "24", res.ResponseCode)
	})

	t.Run("tampered amount invalidates signature", func(t *testing.T) {
		params := signedCallback(c.cfg, nil)
		params["vnp_Amount"] = "100"
		res := c.VerifyCallback(params)
		assert.False(t, res.SignatureValid)
		assert.False(t, res.Success)
	})

	t.Run("missing signature", func(t *testing.T) {
		params := signedCallback(c.cfg, nil)
		delete(params, "vnp_SecureHash")
		res := c.VerifyCallback(params)
		assert.False(t, res.SignatureValid)
	})

	t.Run("secure hash type field is excluded from the hash", func(t *testing.T) {
		params := signedCallback(c.cfg, nil)
		params["vnp_SecureHashType"] = "HMACSHA512"
		res := c.VerifyCallback(params)
		assert.True(t, res.SignatureValid)
	})
}

func TestClient_VerifyIPN(t *testing.T) {
	c := testClient()

	t.Run("valid notification", func(t *testing.T) {
		res, err := c.VerifyIPN(signedCallback(c.cfg, nil))
		assert.NoError(t, err)
		assert.True(t, res.Success)
	})

	t.Run("missing required field", func(t *testing.T) {
		for _, field := range []string{"vnp_Amount", "vnp_TxnRef", "vnp_TransactionNo", "vnp_ResponseCode"} {
			params := signedCallback(c.cfg, map[string]string{field: ""})
			_, err := c.VerifyIPN(params)
			assert.ErrorIs(t, err, ErrMissingFields, "field %s", field)
		}
	})

	t.Run("invalid signature", func(t *testing.T) {
		params := signedCallback(c.cfg, nil)
		params["vnp_SecureHash"] = strings.Repeat("0", 128)
		_, err := c.VerifyIPN(params)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})
}

func TestClient_ClientReturnURL(t *testing.T) {
	c := testClient()

	raw := c.ClientReturnURL("success", CallbackResult{
		TxnRef:    "42",
		Amount:    "57200000",
		OrderInfo: "Thanh toan don hang:42",
		PayDate:   "20250701173216",
	})
	u, err := url.Parse(raw)
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(raw, c.cfg.ClientReturnURL+"?"))
	assert.Equal(t, "success", u.Query().Get("status"))
	assert.Equal(t, "42", u.Query().Get("orderId"))
	assert.Equal(t, "57200000", u.Query().Get("amount"))

	empty := c.ClientReturnURL("fail", CallbackResult{})
	u, err = url.Parse(empty)
	assert.NoError(t, err)
	assert.Equal(t, "fail", u.Query().Get("status"))
	assert.Equal(t, "0", u.Query().Get("amount"))
}

func TestCallbackResult_OrderID(t *testing.T) {
	_, err := CallbackResult{TxnRef: "abc"}.OrderID()
	assert.Error(t, err)

	_, err = CallbackResult{}.OrderID()
	assert.Error(t, err)

	id, err := CallbackResult{TxnRef: "1007"}.OrderID()
	assert.NoError(t, err)
	assert.Equal(t, uint64(1007), id)
}
