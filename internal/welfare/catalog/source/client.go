package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const maxResponseBytes = 8 << 20

// ClientConfig holds what every catalog endpoint needs.
type ClientConfig struct {
	BaseURL        string
	Path           string
	ServiceKey     string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

// newHTTPClient separates the dial budget from the response budget.
func newHTTPClient(cfg ClientConfig) *http.Client {
	connect := cfg.ConnectTimeout
	if connect <= 0 {
		connect = 10 * time.Second
	}
	read := cfg.ReadTimeout
	if read <= 0 {
		read = 30 * time.Second
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: connect}).DialContext,
		TLSHandshakeTimeout:   connect,
		ResponseHeaderTimeout: read,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
	}
	return &http.Client{Transport: transport, Timeout: connect + read}
}

// envelope is the response shape shared by the catalog endpoints.
type envelope struct {
	Response struct {
		Header struct {
			ResultCode    string `json:"resultCode"`
			ResultMessage string `json:"resultMsg"`
		} `json:"header"`
		Body struct {
			TotalCount flexInt         `json:"totalCount"`
			PageNo     flexInt         `json:"pageNo"`
			NumOfRows  flexInt         `json:"numOfRows"`
			ServList   json.RawMessage `json:"servList"`
		} `json:"body"`
	} `json:"response"`
}

// flexInt accepts numbers encoded as JSON numbers or strings.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(string(b))
	if err != nil {
		return fmt.Errorf("flexInt: %w", err)
	}
	*f = flexInt(n)
	return nil
}

// rawItems splits servList into per-item payloads so one malformed item does
// not poison the page. A single item may arrive as an object instead of an
// array.
func rawItems(raw json.RawMessage) ([]json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" || string(raw) == `""` {
		return nil, nil
	}
	if raw[0] == '{' {
		return []json.RawMessage{raw}, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// fetch performs one GET against the configured endpoint and returns the
// decoded envelope with its raw items.
func fetch(ctx context.Context, client *http.Client, cfg ClientConfig, sourceID string, params url.Values) (*envelope, []json.RawMessage, error) {
	params.Set("serviceKey", cfg.ServiceKey)
	params.Set("_type", "json")
	endpoint := cfg.BaseURL + cfg.Path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, nil, NewSourceError(ErrorInternal, sourceID, "build request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, categorizeTransport(sourceID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, nil, categorizeStatus(sourceID, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, nil, categorizeTransport(sourceID, err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, nil, NewSourceError(ErrorBadData, sourceID, "decode response", err)
	}
	if se := categorizeResultCode(sourceID, env.Response.Header.ResultCode, env.Response.Header.ResultMessage); se != nil {
		return nil, nil, se
	}
	items, err := rawItems(env.Response.Body.ServList)
	if err != nil {
		return nil, nil, NewSourceError(ErrorBadData, sourceID, "decode servList", err)
	}
	return &env, items, nil
}

// hasMore decides whether another page exists. Without a total count a short
// page ends the walk.
func hasMore(env *envelope, req PageRequest, got int) bool {
	total := int(env.Response.Body.TotalCount)
	if total > 0 {
		return req.PageNo*req.PageSize < total
	}
	return got >= req.PageSize && got > 0
}
