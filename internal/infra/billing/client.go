package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// UpdateOffer принимает оферту от имени пространства
func (c *Client) UpdateOffer(ctx context.Context, workspaceID string, req SignOfferRequest) error {
	return c.do(ctx, http.MethodPut, "/workspaces/"+url.PathEscape(workspaceID)+"/offer", req, nil)
}

func (c *Client) GetTariff(ctx context.Context, workspaceID string) (*Tariff, error) {
	var t Tariff
	if err := c.do(ctx, http.MethodGet, "/workspaces/"+url.PathEscape(workspaceID)+"/tariff", nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) GetOfferPDF(ctx context.Context, offerID string) (*OfferPDF, error) {
	var p OfferPDF
	if err := c.do(ctx, http.MethodGet, "/offers/"+url.PathEscape(offerID)+"/pdf", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetOffer текущая оферта пространства
func (c *Client) GetOffer(ctx context.Context, workspaceID string) (*Offer, error) {
	var o Offer
	if err := c.do(ctx, http.MethodGet, "/workspaces/"+url.PathEscape(workspaceID)+"/offer", nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var msg struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &msg) == nil {
			apiErr.Message = msg.Message
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
