// Package shiprocket reads orders and shipments from the Shiprocket external API.
package shiprocket

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/clients/rest"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/domain/models"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/lib/resilience"
	"github.com/tumbleweedd/two_services_system/metrics_sync/pkg/logger"
)

const (
	LoginPath     = "/v1/external/auth/login"
	ordersPath    = "/v1/external/orders"
	orderShowPath = "/v1/external/orders/show/"
	shipmentsPath = "/v1/external/shipments"

	defaultPerPage = 100
	maxPages       = 500
	queryDate      = "2006-01-02"
)

type pagination struct {
	Total       int `json:"total"`
	Count       int `json:"count"`
	PerPage     int `json:"per_page"`
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
}

type listResponse struct {
	Data []map[string]any `json:"data"`
	Meta struct {
		Pagination pagination `json:"pagination"`
	} `json:"meta"`
}

type showResponse struct {
	Data map[string]any `json:"data"`
}

type Client struct {
	transport *rest.Client
	perPage   int

	log logger.Logger
}

func New(transport *rest.Client, perPage int, log logger.Logger) *Client {
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	return &Client{
		transport: transport,
		perPage:   perPage,
		log:       log,
	}
}

// ListOrders returns every order created within [from, to).
func (c *Client) ListOrders(ctx context.Context, from, to time.Time) ([]map[string]any, error) {
	const op = "clients.shiprocket.Client.ListOrders"

	orders, err := c.list(ctx, ordersPath, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return orders, nil
}

// ListShipments returns every shipment updated within [from, to).
func (c *Client) ListShipments(ctx context.Context, from, to time.Time) ([]map[string]any, error) {
	const op = "clients.shiprocket.Client.ListShipments"

	shipments, err := c.list(ctx, shipmentsPath, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return shipments, nil
}

func (c *Client) GetOrder(ctx context.Context, id string) (map[string]any, error) {
	const op = "clients.shiprocket.Client.GetOrder"

	var resp showResponse
	if err := c.transport.Get(ctx, orderShowPath+url.PathEscape(id), nil, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return resp.Data, nil
}

func (c *Client) Breaker() *resilience.CircuitBreaker {
	return c.transport.Breaker()
}

// HealthCheck fetches a single order page. It never returns an error.
func (c *Client) HealthCheck(ctx context.Context) models.HealthReport {
	report := c.transport.Ping(ctx, ordersPath+"?per_page=1")
	report.Name = "shiprocket"
	return report
}

func (c *Client) list(ctx context.Context, path string, from, to time.Time) ([]map[string]any, error) {
	var items []map[string]any

	fromDay, toDay := queryWindow(from, to)

	for page := 1; page <= maxPages; page++ {
		query := url.Values{
			"page":     {strconv.Itoa(page)},
			"per_page": {strconv.Itoa(c.perPage)},
			"from":     {fromDay},
			"to":       {toDay},
		}

		var resp listResponse
		if err := c.transport.Get(ctx, path, query, &resp); err != nil {
			return items, fmt.Errorf("page %d: %w", page, err)
		}

		items = append(items, resp.Data...)

		last := resp.Meta.Pagination.TotalPages
		if len(resp.Data) == 0 || (last > 0 && page >= last) || (last == 0 && len(resp.Data) < c.perPage) {
			break
		}
	}

	c.log.DebugContext(ctx, "listed provider records",
		logger.String("path", path),
		logger.Int("count", len(items)),
	)

	return items, nil
}

// queryWindow renders the end-exclusive window [from, to) as the provider's
// inclusive day range.
func queryWindow(from, to time.Time) (string, string) {
	lastDay := to.Add(-time.Nanosecond)
	if lastDay.Before(from) {
		lastDay = from
	}

	return from.Format(queryDate), lastDay.Format(queryDate)
}
