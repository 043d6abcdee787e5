// Package mirrornode implements the typed Mirror Node REST client
// (spec.md §4.x "Mirror Node client", §6 endpoints). It treats 404 as
// absent, 429 as rate-limited, 501 as unsupported, per spec.md §6.
package mirrornode

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

	"github.com/ethereum/go-ethereum/log"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/relayctx"
	"github.com/mwb-al/hiero-json-rpc-relay-go/internal/telemetry"
)

// Client is the Mirror Node REST client. It is a process-wide singleton
// (spec.md §5) constructed once at startup.
type Client struct {
	baseURL string
	http    *retryablehttp.Client
	logger  log.Logger
	metrics *telemetry.Metrics
}

// New builds a Client. baseURL must not have a trailing slash, e.g.
// "https://testnet.mirrornode.hedera.com".
func New(baseURL string, timeout time.Duration, logger log.Logger, metrics *telemetry.Metrics) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = 1 * time.Second
	rc.HTTPClient.Timeout = timeout
	rc.Logger = nil // the relay's own structured logger replaces retryablehttp's default
	// Once retries are exhausted, hand back the last response so a final
	// 429/5xx is still classified into a typed ClientError.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: rc, logger: logger, metrics: metrics}
}

// get performs a GET request against path (already query-encoded) and
// decodes a 200 response into out. A 404 is reported via the boolean
// return rather than an error (spec.md §6 "treats 404 as absent").
func (c *Client) get(ctx context.Context, rc relayctx.Context, path string, out any) (found bool, err error) {
	start := time.Now()
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return false, err
	}

	logger := c.logger.New("requestId", rc.RequestID)
	logger.Debug("mirror node request", "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if c.metrics != nil {
		c.metrics.MirrorNodeLatency.WithLabelValues(path).Observe(time.Since(start).Seconds())
		c.metrics.MirrorNodeRequests.WithLabelValues(path, statusClass(resp.StatusCode)).Inc()
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, err
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode == http.StatusOK:
		if out != nil {
			if err := json.Unmarshal(body, out); err != nil {
				return false, fmt.Errorf("decode mirror node response for %s: %w", path, err)
			}
		}
		return true, nil
	default:
		return false, classifyError(resp.StatusCode, body)
	}
}

// post performs a POST request and decodes the response the same way get
// does, additionally distinguishing the contracts/call error shapes
// (spec.md §4.8 steps 6-11).
func (c *Client) post(ctx context.Context, rc relayctx.Context, path string, payload any, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	logger := c.logger.New("requestId", rc.RequestID)
	logger.Debug("mirror node request", "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if c.metrics != nil {
		c.metrics.MirrorNodeRequests.WithLabelValues(path, statusClass(resp.StatusCode)).Inc()
	}

	if resp.StatusCode == http.StatusOK {
		if out != nil {
			return json.Unmarshal(body, out)
		}
		return nil
	}
	return classifyError(resp.StatusCode, body)
}

func classifyError(status int, body []byte) error {
	var errBody ContractCallErrorBody
	_ = json.Unmarshal(body, &errBody)
	return &ClientError{StatusCode: status, Body: string(body), MirrorCode: errBody.Status}
}

func statusClass(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code == 404:
		return "404"
	case code == 429:
		return "429"
	case code == 501:
		return "501"
	case code >= 400 && code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

// GetAccount fetches accounts/{id}. found is false on a 404.
func (c *Client) GetAccount(ctx context.Context, rc relayctx.Context, idOrAddress string) (*AccountResponse, bool, error) {
	var out AccountResponse
	found, err := c.get(ctx, rc, "/api/v1/accounts/"+idOrAddress, &out)
	if !found || err != nil {
		return nil, found, err
	}
	return &out, true, nil
}

// GetContract fetches contracts/{addr}.
func (c *Client) GetContract(ctx context.Context, rc relayctx.Context, addr string) (*ContractResponse, bool, error) {
	var out ContractResponse
	found, err := c.get(ctx, rc, "/api/v1/contracts/"+addr, &out)
	if !found || err != nil {
		return nil, found, err
	}
	return &out, true, nil
}

// Call POSTs to contracts/call (spec.md §4.8).
func (c *Client) Call(ctx context.Context, rc relayctx.Context, req ContractCallRequest) (*ContractCallResponse, error) {
	var out ContractCallResponse
	if err := c.post(ctx, rc, "/api/v1/contracts/call", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetBlock fetches blocks/{n|hash}.
func (c *Client) GetBlock(ctx context.Context, rc relayctx.Context, numberOrHash string) (*BlockResponse, bool, error) {
	var out BlockResponse
	found, err := c.get(ctx, rc, "/api/v1/blocks/"+numberOrHash, &out)
	if !found || err != nil {
		return nil, found, err
	}
	return &out, true, nil
}

// GetLatestBlock fetches the single most recent block.
func (c *Client) GetLatestBlock(ctx context.Context, rc relayctx.Context) (*BlockResponse, error) {
	var out struct {
		Blocks []BlockResponse `json:"blocks"`
	}
	found, err := c.get(ctx, rc, "/api/v1/blocks?limit=1&order=desc", &out)
	if err != nil {
		return nil, err
	}
	if !found || len(out.Blocks) == 0 {
		return nil, fmt.Errorf("mirror node returned no blocks")
	}
	return &out.Blocks[0], nil
}

// GetNetworkFees fetches network/fees.
func (c *Client) GetNetworkFees(ctx context.Context, rc relayctx.Context) (*NetworkFeesResponse, error) {
	var out NetworkFeesResponse
	if _, err := c.get(ctx, rc, "/api/v1/network/fees", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetExchangeRate fetches network/exchangerate.
func (c *Client) GetExchangeRate(ctx context.Context, rc relayctx.Context) (*ExchangeRateResponse, error) {
	var out ExchangeRateResponse
	if _, err := c.get(ctx, rc, "/api/v1/network/exchangerate", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetContractResults lists contracts/results within the inclusive block
// range [fromBlock, toBlock], ordered ascending by timestamp.
func (c *Client) GetContractResults(ctx context.Context, rc relayctx.Context, fromBlock, toBlock uint64) ([]ContractResultResponse, error) {
	q := url.Values{}
	q.Set("block.number", fmt.Sprintf("gte:%d", fromBlock))
	q.Add("block.number", fmt.Sprintf("lte:%d", toBlock))
	q.Set("order", "asc")

	var out struct {
		Results []ContractResultResponse `json:"results"`
	}
	if _, err := c.get(ctx, rc, "/api/v1/contracts/results?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// GetContractResultByHash fetches one contracts/results/{hash}.
func (c *Client) GetContractResultByHash(ctx context.Context, rc relayctx.Context, hash string) (*ContractResultResponse, bool, error) {
	var out ContractResultResponse
	found, err := c.get(ctx, rc, "/api/v1/contracts/results/"+hash, &out)
	if !found || err != nil {
		return nil, found, err
	}
	return &out, true, nil
}

// GetLogs lists contracts/results/logs matching a log filter (spec.md
// §4.6). fromBlock/toBlock are inclusive, matching the filter service's
// drift-free windowing contract.
func (c *Client) GetLogs(ctx context.Context, rc relayctx.Context, fromBlock, toBlock uint64, address string, topics []string) ([]ContractLogResponse, error) {
	q := url.Values{}
	q.Set("block.number", fmt.Sprintf("gte:%d", fromBlock))
	q.Add("block.number", fmt.Sprintf("lte:%d", toBlock))
	q.Set("order", "asc")
	if address != "" {
		q.Set("address", address)
	}
	for _, t := range topics {
		q.Add("topic0", t)
	}

	var out struct {
		Logs []ContractLogResponse `json:"logs"`
	}
	if _, err := c.get(ctx, rc, "/api/v1/contracts/results/logs?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return out.Logs, nil
}

// GetToken fetches tokens/{id}.
func (c *Client) GetToken(ctx context.Context, rc relayctx.Context, tokenID string) (*TokenResponse, bool, error) {
	var out TokenResponse
	found, err := c.get(ctx, rc, "/api/v1/tokens/"+tokenID, &out)
	if !found || err != nil {
		return nil, found, err
	}
	return &out, true, nil
}

// GetContractActions fetches contracts/results/{hash}/actions, the flat,
// depth-annotated call trace debug_traceTransaction reshapes (spec.md §4.9).
func (c *Client) GetContractActions(ctx context.Context, rc relayctx.Context, hash string) ([]ContractActionResponse, bool, error) {
	var out struct {
		Actions []ContractActionResponse `json:"actions"`
	}
	found, err := c.get(ctx, rc, "/api/v1/contracts/results/"+hash+"/actions", &out)
	if !found || err != nil {
		return nil, found, err
	}
	return out.Actions, true, nil
}
