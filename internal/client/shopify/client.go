package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

type Client struct {
	host       string
	token      string
	httpClient *http.Client
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("store API error (%d): %s", e.Status, e.Body)
}

func NewClient(httpClient *http.Client, host, token string) *Client {
	host = strings.TrimRight(host, "/")
	return &Client{
		host:       host,
		token:      token,
		httpClient: httpClient,
	}
}

func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	fullURL := c.host + path
	if len(query) > 0 {
		fullURL = fullURL + "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("X-Access-Token", c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// GetProducts fetches one page of products. An empty cursor starts from the
// beginning; NextCursor is empty on the last page.
func (c *Client) GetProducts(ctx context.Context, params PageParams) (*ProductPage, error) {
	body, err := c.doRequest(ctx, "/admin/products", params.values())
	if err != nil {
		return nil, err
	}
	var page ProductPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to decode products page: %w", err)
	}
	return &page, nil
}

func (c *Client) GetCustomers(ctx context.Context, params PageParams) (*CustomerPage, error) {
	body, err := c.doRequest(ctx, "/admin/customers", params.values())
	if err != nil {
		return nil, err
	}
	var page CustomerPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to decode customers page: %w", err)
	}
	return &page, nil
}

func (c *Client) GetOrders(ctx context.Context, params PageParams) (*OrderPage, error) {
	body, err := c.doRequest(ctx, "/admin/orders", params.values())
	if err != nil {
		return nil, err
	}
	var page OrderPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to decode orders page: %w", err)
	}
	return &page, nil
}

type PageParams struct {
	Cursor          string
	Limit           int
	CreatedAtMin    string
	CreatedAtMax    string
	IncludeArchived bool
}

func (p PageParams) values() url.Values {
	query := url.Values{}
	if p.Cursor != "" {
		query.Set("cursor", p.Cursor)
	}
	if p.Limit > 0 {
		query.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.CreatedAtMin != "" {
		query.Set("created_at_min", p.CreatedAtMin)
	}
	if p.CreatedAtMax != "" {
		query.Set("created_at_max", p.CreatedAtMax)
	}
	if p.IncludeArchived {
		query.Set("include_archived", "true")
	}
	return query
}
