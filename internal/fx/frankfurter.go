package fx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Provider is the external rate service the resolver depends on: a latest
// conversion rate with its effective date, and a catalog of recognized codes.
type Provider interface {
	LatestRate(ctx context.Context, from, to string) (date string, rate float64, err error)
	Currencies(ctx context.Context) (map[string]string, error)
}

// FrankfurterClient talks to a Frankfurter-compatible rate API.
type FrankfurterClient struct {
	baseURL       string
	rateClient    *http.Client
	catalogClient *http.Client
}

// NewFrankfurterClient creates a client for the given API base URL
// (e.g. "https://api.frankfurter.dev/v1").
func NewFrankfurterClient(baseURL string, rateTimeout, catalogTimeout time.Duration) *FrankfurterClient {
	return &FrankfurterClient{
		baseURL:       strings.TrimRight(baseURL, "/"),
		rateClient:    &http.Client{Timeout: rateTimeout},
		catalogClient: &http.Client{Timeout: catalogTimeout},
	}
}

// LatestRate fetches the latest from→to conversion rate. The returned date is
// the provider's effective date, which can lag the calendar day on weekends
// and holidays.
func (c *FrankfurterClient) LatestRate(ctx context.Context, from, to string) (string, float64, error) {
	q := url.Values{}
	q.Set("from", from)
	q.Set("to", to)
	apiURL := fmt.Sprintf("%s/latest?%s", c.baseURL, q.Encode())

	body, err := c.get(ctx, c.rateClient, apiURL)
	if err != nil {
		return "", 0, err
	}

	var payload struct {
		Date  string             `json:"date"`
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", 0, fmt.Errorf("decode rate response: %w", err)
	}

	rate, ok := payload.Rates[to]
	if !ok {
		return "", 0, fmt.Errorf("rate response missing %s", to)
	}
	if rate <= 0 {
		return "", 0, fmt.Errorf("rate response has non-positive rate %v for %s", rate, to)
	}
	return payload.Date, rate, nil
}

// Currencies fetches the catalog of codes the provider recognizes, as a
// code → display name map.
func (c *FrankfurterClient) Currencies(ctx context.Context) (map[string]string, error) {
	body, err := c.get(ctx, c.catalogClient, c.baseURL+"/currencies")
	if err != nil {
		return nil, err
	}

	var catalog map[string]string
	if err := json.Unmarshal(body, &catalog); err != nil {
		return nil, fmt.Errorf("decode currency catalog: %w", err)
	}
	return catalog, nil
}

func (c *FrankfurterClient) get(ctx context.Context, client *http.Client, apiURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rate provider request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("rate provider status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read provider response: %w", err)
	}
	return body, nil
}
