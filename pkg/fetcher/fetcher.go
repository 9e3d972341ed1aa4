// Package fetcher implements Fetcher: OAuth2 client-credentials
// authentication and the two GraphQL queries the engine issues against the
// LogService API (spec.md §4.5/§6).
package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/ForsakenNGS/LogTrackerApp/pkg/addon"
	"github.com/ForsakenNGS/LogTrackerApp/pkg/models"
	"github.com/ForsakenNGS/LogTrackerApp/pkg/version"
)

// ErrTransport wraps any timeout, non-2xx, or malformed-JSON failure talking
// to the LogService. Per spec.md §7 this is a hint, not fatal: the caller
// reconciles RateGovernor and retries on the next iteration.
var ErrTransport = errors.New("fetcher: transport failure")

// ErrNoCredentials is returned when api_id/api_secret are unset.
var ErrNoCredentials = errors.New("fetcher: no credentials configured")

const (
	tokenURL    = "https://www.warcraftlogs.com/oauth/token"
	graphqlURL  = "https://classic.warcraftlogs.com/api/v2/client"
	httpTimeout = 20 * time.Second
)

var userAgent = version.Full()

// Fetcher issues the engine's two GraphQL operations and owns bearer-token
// acquisition. All operations are synchronous and blocking from the
// caller's view; the Scheduler is responsible for not holding its engine
// mutex across the call (spec.md §5).
type Fetcher struct {
	mu         sync.Mutex
	apiID      string
	apiSecret  string
	client     *http.Client
	tokenURL   string
	graphqlURL string
}

// New returns a Fetcher with no credentials configured yet, pointed at the
// real LogService endpoints.
func New() *Fetcher {
	return &Fetcher{tokenURL: tokenURL, graphqlURL: graphqlURL}
}

// NewForTest returns a Fetcher pointed at overridden endpoints, for use by
// other packages' tests that need a Fetcher wired to an httptest server
// without reaching the real LogService. Leaving an endpoint empty falls
// back to the real default.
func NewForTest(tokenURLOverride, graphqlURLOverride string) *Fetcher {
	f := New()
	if tokenURLOverride != "" {
		f.tokenURL = tokenURLOverride
	}
	if graphqlURLOverride != "" {
		f.graphqlURL = graphqlURLOverride
	}
	return f
}

// Configure sets the credentials used for the next Authenticate call. A
// change invalidates any cached client so a new token is negotiated lazily
// on the next query.
func (f *Fetcher) Configure(apiID, apiSecret string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.apiID == apiID && f.apiSecret == apiSecret {
		return
	}
	f.apiID = apiID
	f.apiSecret = apiSecret
	f.client = nil
}

// Authenticate lazily builds the bearer-token-injecting HTTP client on
// first use, caching it for the process lifetime (spec.md §4.5.1). The
// underlying oauth2 token source refreshes the token itself as it expires.
func (f *Fetcher) Authenticate(ctx context.Context) (*http.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.apiID == "" || f.apiSecret == "" {
		return nil, ErrNoCredentials
	}
	if f.client != nil {
		return f.client, nil
	}
	cfg := clientcredentials.Config{
		ClientID:     f.apiID,
		ClientSecret: f.apiSecret,
		TokenURL:     f.tokenURL,
	}
	base := cfg.Client(ctx)
	base.Timeout = httpTimeout
	f.client = base
	return f.client, nil
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

func (f *Fetcher) post(ctx context.Context, query string, variables map[string]any, out any) error {
	client, err := f.Authenticate(ctx)
	if err != nil {
		return err
	}
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("%w: encode request: %v", ErrTransport, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.graphqlURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrTransport, resp.StatusCode)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrTransport, err)
	}
	return nil
}

// echoVariables renders variables deterministically via AddonCodec's table
// writer for the query_echo diagnostic dump (SPEC_FULL.md "query_echo
// diagnostic dump").
func echoVariables(queryName string, variables map[string]any) string {
	keys := make([]string, 0, len(variables))
	for k := range variables {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]addon.KV, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, addon.KV{Key: k, Value: echoValue(variables[k])})
	}
	return addon.WriteQueryEcho(queryName, pairs)
}

func echoValue(v any) addon.Value {
	switch x := v.(type) {
	case string:
		return addon.StringValue(x)
	case int:
		return addon.IntValue(x)
	case bool:
		return addon.BoolValue(x)
	default:
		return addon.StringValue(fmt.Sprintf("%v", x))
	}
}
