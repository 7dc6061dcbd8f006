package okx

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/KNICEX/perp-sentinel/internal/service/exchange"
	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

const DefaultBaseURL = "https://www.okx.com"

// Client OKX v5 REST 客户端, 只实现行情监控所需的只读接口
type Client struct {
	baseURL string
	http    *http.Client
	signer  exchange.RequestSigner
}

type ClientOption func(c *Client)

func WithHTTPClient(cli *http.Client) ClientOption {
	return func(c *Client) {
		c.http = cli
	}
}

func WithSigner(signer exchange.RequestSigner) ClientOption {
	return func(c *Client) {
		c.signer = signer
	}
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		signer:  exchange.NopSigner{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope[T any] struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data []T    `json:"data"`
}

// get 请求并解析 {code,msg,data} 包装
func get[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	requestPath := path
	if len(query) > 0 {
		requestPath += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+requestPath, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	headers, err := c.signer.Sign(http.MethodGet, requestPath, "")
	if err != nil {
		return nil, errors.Wrap(err, "sign request")
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "GET %s", path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	if resp.StatusCode/100 != 2 {
		return nil, errors.Errorf("GET %s: http %d: %s", path, resp.StatusCode, string(body))
	}

	var payload envelope[T]
	if err = sonic.Unmarshal(body, &payload); err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	if payload.Code != "0" {
		return nil, errors.Errorf("okx error %s: %s", payload.Code, payload.Msg)
	}
	return payload.Data, nil
}
