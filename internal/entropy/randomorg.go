package entropy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const randomOrgEndpoint = "https://api.random.org/json-rpc/4/invoke"

// ErrRandomOrg wraps errors reported by the random.org API itself.
var ErrRandomOrg = errors.New("random.org")

// RandomOrg fetches decimal fractions from the random.org JSON-RPC API.
type RandomOrg struct {
	apiKey   string
	endpoint string
	http     *http.Client
}

// NewRandomOrg creates a fetcher authenticated with apiKey.
func NewRandomOrg(apiKey string) *RandomOrg {
	return &RandomOrg{
		apiKey:   apiKey,
		endpoint: randomOrgEndpoint,
		http:     &http.Client{Timeout: fetchTimeout},
	}
}

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
	ID      int       `json:"id"`
}

type rpcParams struct {
	APIKey        string `json:"apiKey"`
	N             int    `json:"n"`
	DecimalPlaces int    `json:"decimalPlaces"`
}

type rpcResponse struct {
	Result *struct {
		Random struct {
			Data []float64 `json:"data"`
		} `json:"random"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Fetch requests n fractions with six decimal places.
func (r *RandomOrg) Fetch(ctx context.Context, n int) ([]float64, error) {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  "generateDecimalFractions",
		Params:  rpcParams{APIKey: r.apiKey, N: n, DecimalPlaces: 6},
		ID:      1,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := r.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch: status %d after %v", resp.StatusCode, time.Since(start).Round(time.Millisecond))
	}

	var out rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("%w: %d %s", ErrRandomOrg, out.Error.Code, out.Error.Message)
	}
	if out.Result == nil {
		return nil, fmt.Errorf("%w: empty result", ErrRandomOrg)
	}
	return out.Result.Random.Data, nil
}
