package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"commhub/config"
	"commhub/utils"
)

// Client talks to the LMS backend REST API. It owns error classification:
// transport problems become NetworkError, 4xx/5xx become ServerRejection with
// whatever detail the backend provided.
type Client struct {
	base    string
	token   string
	http    *fasthttp.Client
	timeout time.Duration
}

// New creates a backend client from config.
func New(cfg *config.BackendConfig) *Client {
	return &Client{
		base:    strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		timeout: cfg.RequestTimeout(),
		http: &fasthttp.Client{
			ReadTimeout:  cfg.RequestTimeout(),
			WriteTimeout: cfg.RequestTimeout(),
		},
	}
}

// listEnvelope is the backend's paginated list shape.
type listEnvelope[T any] struct {
	Results  []T     `json:"results"`
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}

// errorBody is the backend's structured error shape.
type errorBody struct {
	Detail string `json:"detail"`
	Error  string `json:"error"`
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do performs one request and decodes the JSON response into out (if non-nil).
func (c *Client) do(method, path string, query url.Values, contentType string, body []byte, out interface{}) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.endpoint(path, query))
	req.Header.SetMethod(method)
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.SetContentType(contentType)
		req.SetBody(body)
	}

	if err := c.http.DoTimeout(req, resp, c.timeout); err != nil {
		return &utils.NetworkError{Op: method + " " + path, Err: err}
	}

	status := resp.StatusCode()
	if status >= 400 {
		return rejectionFromResponse(status, resp.Body())
	}

	if out != nil && len(resp.Body()) > 0 {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return &utils.NetworkError{Op: method + " " + path, Err: fmt.Errorf("malformed response: %w", err)}
		}
	}
	return nil
}

func (c *Client) getJSON(path string, query url.Values, out interface{}) error {
	return c.do(fasthttp.MethodGet, path, query, "", nil, out)
}

func (c *Client) postJSON(path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	return c.do(fasthttp.MethodPost, path, nil, "application/json", body, out)
}

func (c *Client) putJSON(path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	return c.do(fasthttp.MethodPut, path, nil, "application/json", body, out)
}

func (c *Client) delete(path string) error {
	return c.do(fasthttp.MethodDelete, path, nil, "", nil, nil)
}

// rejectionFromResponse extracts the backend's error detail, falling back to
// the raw body when it is not the structured shape.
func rejectionFromResponse(status int, body []byte) *utils.ServerRejection {
	var eb errorBody
	detail := ""
	if err := json.Unmarshal(body, &eb); err == nil {
		if eb.Detail != "" {
			detail = eb.Detail
		} else if eb.Error != "" {
			detail = eb.Error
		}
	}
	if detail == "" {
		detail = strings.TrimSpace(string(body))
	}
	return &utils.ServerRejection{StatusCode: status, Detail: detail}
}
