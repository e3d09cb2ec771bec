package verified

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecotally/ecotally/internal/lca"
)

func validBackendResult() lca.CalculationResult {
	return lca.CalculationResult{
		TotalCarbonKg: 2.5,
		TotalWaterL:   31,
		Breakdown:     map[lca.Stage]float64{lca.StageAgriculture: 2.5},
	}
}

func TestEvaluateSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/evaluate", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req evaluateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "whisky-750ml", req.Product.ID)

		require.NoError(t, json.NewEncoder(w).Encode(validBackendResult()))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0, zerolog.Nop())
	res, err := c.Evaluate(context.Background(), lca.Product{ID: "whisky-750ml"}, lca.StageInputs{})
	require.NoError(t, err)
	assert.Equal(t, 2.5, res.TotalCarbonKg)
}

func TestEvaluateNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0, zerolog.Nop())
	_, err := c.Evaluate(context.Background(), lca.Product{ID: "p"}, lca.StageInputs{})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestEvaluateConnectionRefused(t *testing.T) {
	c := NewClient("http://127.0.0.1:0", time.Second, zerolog.Nop())
	_, err := c.Evaluate(context.Background(), lca.Product{ID: "p"}, lca.StageInputs{})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestEvaluateMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0, zerolog.Nop())
	_, err := c.Evaluate(context.Background(), lca.Product{ID: "p"}, lca.StageInputs{})
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestEvaluateRejectsNonPhysicalResult(t *testing.T) {
	tests := []struct {
		name string
		body lca.CalculationResult
	}{
		{"negative carbon", lca.CalculationResult{TotalCarbonKg: -1, Breakdown: map[lca.Stage]float64{}}},
		{"missing breakdown", lca.CalculationResult{TotalCarbonKg: 1}},
		{"negative breakdown entry", lca.CalculationResult{
			TotalCarbonKg: 1,
			Breakdown:     map[lca.Stage]float64{lca.StageAgriculture: 2, lca.StageInboundTransport: -1},
		}},
		{"total disagrees with breakdown sum", lca.CalculationResult{
			TotalCarbonKg: 100,
			Breakdown:     map[lca.Stage]float64{lca.StageAgriculture: 1},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				require.NoError(t, json.NewEncoder(w).Encode(tt.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, 0, zerolog.Nop())
			_, err := c.Evaluate(context.Background(), lca.Product{ID: "p"}, lca.StageInputs{})
			assert.ErrorIs(t, err, ErrBadResponse)
		})
	}
}

func TestEvaluateTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	c := NewClient(srv.URL, 50*time.Millisecond, zerolog.Nop())
	_, err := c.Evaluate(context.Background(), lca.Product{ID: "p"}, lca.StageInputs{})
	assert.ErrorIs(t, err, ErrUnavailable)
}
