package exchange

import "net/http"

// RequestSigner 为请求生成鉴权头, path 含 query
type RequestSigner interface {
	Sign(method, path, body string) (http.Header, error)
}

type NopSigner struct{}

func (NopSigner) Sign(method, path, body string) (http.Header, error) {
	return http.Header{}, nil
}
