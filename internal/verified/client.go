// Package verified is the HTTP client for the external verified-database
// calculation backend. The backend is treated as untrusted and possibly
// unavailable: every call is bounded by a timeout and every failure is
// returned as an ordinary error for the strategy selector to translate
// into a fallback decision.
package verified

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecotally/ecotally/internal/lca"
)

// DefaultTimeout bounds one evaluate call end to end.
const DefaultTimeout = 10 * time.Second

// Client errors.
var (
	ErrUnavailable = errors.New("verified backend unavailable")
	ErrBadResponse = errors.New("verified backend returned a malformed response")
)

// Evaluator is the interface the engine consumes. Satisfied by *Client and
// by test fakes.
type Evaluator interface {
	Evaluate(ctx context.Context, product lca.Product, inputs lca.StageInputs) (*lca.CalculationResult, error)
}

// Client calls the backend's evaluate endpoint.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient builds a client for the given base URL. A zero timeout takes
// DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// evaluateRequest is the wire request body.
type evaluateRequest struct {
	Product lca.Product     `json:"product"`
	Inputs  lca.StageInputs `json:"stage_inputs"`
}

// Evaluate posts the product and stage inputs and decodes the backend's
// result. Any transport error, non-200 status, decode failure, or
// non-finite total is returned as an error; the caller decides whether to
// fall back.
func (c *Client) Evaluate(ctx context.Context, product lca.Product, inputs lca.StageInputs) (*lca.CalculationResult, error) {
	body, err := json.Marshal(evaluateRequest{Product: product, Inputs: inputs})
	if err != nil {
		return nil, fmt.Errorf("encoding evaluate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/evaluate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building evaluate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var result lca.CalculationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if err := validateResult(&result); err != nil {
		return nil, err
	}

	c.log.Debug().
		Str("product_id", product.ID).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("verified backend evaluate complete")

	return &result, nil
}

// validateResult rejects responses the engine cannot safely cache. The
// carbon total must match the breakdown sum: a result that fails that
// check would be surfaced and cached as high quality.
func validateResult(r *lca.CalculationResult) error {
	for _, v := range []float64{r.TotalCarbonKg, r.TotalWaterL} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-physical total", ErrBadResponse)
		}
	}
	if r.Breakdown == nil {
		return fmt.Errorf("%w: missing breakdown", ErrBadResponse)
	}

	var sum float64
	for _, v := range r.Breakdown {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-physical breakdown entry", ErrBadResponse)
		}
		sum += v
	}
	tolerance := 1e-6 * math.Max(math.Abs(r.TotalCarbonKg), 1)
	if math.Abs(r.TotalCarbonKg-sum) > tolerance {
		return fmt.Errorf("%w: total %g does not match breakdown sum %g", ErrBadResponse, r.TotalCarbonKg, sum)
	}
	return nil
}
