package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"solver-rebalancer/internal/core/domain"
	"solver-rebalancer/pkg/apperror"

	"github.com/holiman/uint256"
	"golang.org/x/sync/errgroup"
)

// maxResponseBytes bounds how much of a hub response is read.
const maxResponseBytes = 8 << 20

// HTTPClient is the subset of *http.Client used by Client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client reads invoices, min amounts and custodied balances from the
// settlement hub API. Every failure is a Submission-kind error, retried on
// the next cycle.
type Client struct {
	baseURL string
	http    HTTPClient
}

// NewClient creates a new hub Client.
func NewClient(baseURL string, httpClient HTTPClient) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

type invoicesResponse struct {
	Invoices []domain.Invoice `json:"invoices"`
}

type minAmountsResponse struct {
	MinAmounts map[domain.DomainID]string `json:"min_amounts"`
}

type custodiedResponse struct {
	Custodied map[domain.DomainID]string `json:"custodied"`
}

// FetchInvoices returns the hub's open invoices.
func (c *Client) FetchInvoices(ctx context.Context) ([]domain.Invoice, error) {
	var resp invoicesResponse
	if err := c.get(ctx, "/invoices", &resp); err != nil {
		return nil, err
	}
	for i := range resp.Invoices {
		resp.Invoices[i].TickerHash = domain.NormalizeTicker(string(resp.Invoices[i].TickerHash))
	}
	return resp.Invoices, nil
}

// GetMinAmounts returns the normalized minimum amount per candidate origin
// domain for invoiceID.
func (c *Client) GetMinAmounts(ctx context.Context, invoiceID string) (map[domain.DomainID]*uint256.Int, error) {
	var resp minAmountsResponse
	if err := c.get(ctx, "/invoices/"+url.PathEscape(invoiceID)+"/min-amounts", &resp); err != nil {
		return nil, err
	}
	out, err := parseAmounts(resp.MinAmounts)
	if err != nil {
		return nil, apperror.ErrUpstream("hub min amounts", err)
	}
	return out, nil
}

// GetCustodiedBalances reads custodied liquidity for every ticker concurrently.
func (c *Client) GetCustodiedBalances(ctx context.Context, tickers []domain.TickerHash) (domain.BalanceMap, error) {
	var (
		mu  sync.Mutex
		out = make(domain.BalanceMap, len(tickers))
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, ticker := range tickers {
		ticker := ticker
		g.Go(func() error {
			var resp custodiedResponse
			if err := c.get(gctx, "/tickers/"+url.PathEscape(string(ticker))+"/custodied", &resp); err != nil {
				return err
			}
			amounts, err := parseAmounts(resp.Custodied)
			if err != nil {
				return apperror.ErrUpstream("hub custodied "+string(ticker), err)
			}
			mu.Lock()
			defer mu.Unlock()
			for d, v := range amounts {
				out.Set(ticker, d, v)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return apperror.ErrUpstream("hub", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return apperror.ErrUpstream("hub", fmt.Errorf("GET %s: %w", path, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return apperror.ErrUpstream("hub", fmt.Errorf("GET %s: read body: %w", path, err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperror.ErrUpstream("hub", fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, truncate(body, 256)))
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperror.ErrUpstream("hub", fmt.Errorf("GET %s: decode: %w", path, err))
	}
	return nil
}

func parseAmounts(raw map[domain.DomainID]string) (map[domain.DomainID]*uint256.Int, error) {
	out := make(map[domain.DomainID]*uint256.Int, len(raw))
	for d, s := range raw {
		v, err := domain.ParseAmount(s)
		if err != nil {
			return nil, fmt.Errorf("domain %s: %w", d, err)
		}
		out[d] = v
	}
	return out, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
