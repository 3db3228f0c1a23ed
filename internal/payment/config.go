package payment

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the merchant-side gateway settings. HashSecret is the shared
// key both parties use to sign the canonical parameter string.
type Config struct {
	TmnCode         string        `envconfig:"VNPAY_TMN_CODE" required:"true"`
	HashSecret      string        `envconfig:"VNPAY_HASH_SECRET" required:"true"`
	PayURL          string        `envconfig:"VNPAY_PAY_URL" default:"https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"`
	APIURL          string        `envconfig:"VNPAY_API_URL" default:"https://sandbox.vnpayment.vn/merchant_webapi/api/transaction"`
	ReturnURL       string        `envconfig:"VNPAY_RETURN_URL" default:"http://localhost:8080/payment/return"`
	ClientReturnURL string        `envconfig:"CLIENT_RETURN_URL" default:"http://localhost:5173/order-confirmation"`
	Version         string        `envconfig:"VNPAY_VERSION" default:"2.1.0"`
	Expiry          time.Duration `envconfig:"VNPAY_EXPIRY" default:"15m"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// gatewayLocation is the fixed UTC+7 zone the gateway expects for
// vnp_CreateDate / vnp_ExpireDate / vnp_PayDate.
var gatewayLocation = time.FixedZone("GMT+7", 7*60*60)

const timestampLayout = "20060102150405"

// HmacSHA512 returns the hex-encoded keyed hash of data.
func HmacSHA512(key, data string) string {
	mac := hmac.New(sha512.New, []byte(key))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// canonicalize builds the hash input: parameters with empty values dropped,
// names sorted lexicographically, values percent-encoded, joined as
// name=value&... Both sides must produce the identical string for signatures
// to match.
func canonicalize(params map[string]string) string {
	names := make([]string, 0, len(params))
	for name, value := range params {
		if strings.TrimSpace(value) == "" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params[name]))
	}
	return b.String()
}

// SignParams canonicalizes params and returns the hex signature.
func (c Config) SignParams(params map[string]string) string {
	return HmacSHA512(c.HashSecret, canonicalize(params))
}

// VerifySignature recomputes the signature over params and compares it to the
// received value in constant time.
func (c Config) VerifySignature(params map[string]string, received string) bool {
	expected, err := hex.DecodeString(c.SignParams(params))
	if err != nil {
		return false
	}
	got, err := hex.DecodeString(received)
	if err != nil {
		return false
	}
	return hmac.Equal(expected, got)
}
