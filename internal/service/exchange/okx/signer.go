package okx

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/KNICEX/perp-sentinel/internal/service/exchange"
)

var _ exchange.RequestSigner = (*HMACSigner)(nil)

// HMACSigner OK-ACCESS-SIGN = base64(hmac_sha256(timestamp + method + requestPath + body))
type HMACSigner struct {
	apiKey     string
	secret     []byte
	passphrase string
	now        func() time.Time
}

func NewHMACSigner(apiKey, secret, passphrase string) *HMACSigner {
	return &HMACSigner{
		apiKey:     apiKey,
		secret:     []byte(secret),
		passphrase: passphrase,
		now:        time.Now,
	}
}

func (s *HMACSigner) Sign(method, path, body string) (http.Header, error) {
	ts := s.now().UTC().Format("2006-01-02T15:04:05.000Z")
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(ts + method + path + body))

	h := http.Header{}
	h.Set("OK-ACCESS-KEY", s.apiKey)
	h.Set("OK-ACCESS-SIGN", base64.StdEncoding.EncodeToString(mac.Sum(nil)))
	h.Set("OK-ACCESS-TIMESTAMP", ts)
	h.Set("OK-ACCESS-PASSPHRASE", s.passphrase)
	return h, nil
}
