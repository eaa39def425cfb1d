package nutrition

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// EdamamClient — клиент API nutrition-details.
type EdamamClient struct {
	baseURL string
	appID   string
	appKey  string
	timeout time.Duration
	http    *http.Client
	limiter *rate.Limiter
}

// NewEdamamClient создаёт клиента. rps ограничивает исходящие запросы (<=0 — без ограничения).
func NewEdamamClient(baseURL, appID, appKey string, timeout time.Duration, rps float64) *EdamamClient {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &EdamamClient{
		baseURL: baseURL,
		appID:   appID,
		appKey:  appKey,
		timeout: timeout,
		http:    &http.Client{},
		limiter: rate.NewLimiter(limit, 1),
	}
}

type analyzeRequest struct {
	Ingr []string `json:"ingr"`
}

type nutrient struct {
	Label    string  `json:"label"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

type analyzeResponse struct {
	Yield          float64             `json:"yield"`
	Calories       float64             `json:"calories"`
	TotalNutrients map[string]nutrient `json:"totalNutrients"`
}

// Analyze отправляет пакет строк ингредиентов одним запросом.
func (c *EdamamClient) Analyze(ctx context.Context, lines []string) (*Analysis, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	body, err := json.Marshal(analyzeRequest{Ingr: lines})
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("app_id", c.appID)
	q.Set("app_key", c.appKey)
	endpoint := c.baseURL + "/api/nutrition-details?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	nutrients := make(map[string]float64, len(out.TotalNutrients)+1)
	for code, n := range out.TotalNutrients {
		nutrients[code] = n.Quantity
	}
	if _, ok := nutrients[codeCalories]; !ok && out.Calories > 0 {
		nutrients[codeCalories] = out.Calories
	}
	return &Analysis{Yield: out.Yield, Nutrients: nutrients}, nil
}
