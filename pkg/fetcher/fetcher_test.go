package fetcher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ForsakenNGS/LogTrackerApp/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestFetcher wires a Fetcher against a local token server and a given
// GraphQL handler, bypassing the real LogService endpoints.
func newTestFetcher(t *testing.T, graphqlHandler http.HandlerFunc) *Fetcher {
	t.Helper()
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "test-token",
			"token_type":   "bearer",
			"expires_in":   3600,
		})
	}))
	t.Cleanup(tokenSrv.Close)

	graphqlSrv := httptest.NewServer(graphqlHandler)
	t.Cleanup(graphqlSrv.Close)

	f := New()
	f.tokenURL = tokenSrv.URL
	f.graphqlURL = graphqlSrv.URL
	f.Configure("id", "secret")
	return f
}

func TestAuthenticateRequiresCredentials(t *testing.T) {
	f := New()
	_, err := f.Authenticate(context.Background())
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestAuthenticateCachesClient(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {})
	c1, err := f.Authenticate(context.Background())
	require.NoError(t, err)
	c2, err := f.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Same(t, c1, c2)
}

func TestConfigureChangeInvalidatesCachedClient(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {})
	c1, err := f.Authenticate(context.Background())
	require.NoError(t, err)
	f.Configure("id2", "secret2")
	c2, err := f.Authenticate(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, c1, c2)
}

func testBaseData() models.BaseData {
	base := models.NewBaseData()
	base.Classes[1] = models.Class{
		ID: 1, Name: "Warrior", Slug: "warrior",
		Specs: map[int]models.ClassSpec{
			1: {ID: 1, Name: "Arms", Slug: "arms", Metric: models.MetricDPS},
		},
	}
	return base
}

func TestQueryCharacterUnknownClassSkipsQuery(t *testing.T) {
	called := false
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	rankings, echo, err := f.QueryCharacter(context.Background(), "Testchar", "Area 52", "US", 1017, 99, testBaseData())
	require.NoError(t, err)
	assert.Nil(t, rankings)
	assert.Empty(t, echo)
	assert.False(t, called)
}

func TestQueryCharacterSuccess(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": {
				"characterData": {
					"character": {
						"classID": 1,
						"zoneRankings10_spec1": {
							"bestPerformanceAverage": 95.4,
							"medianPerformanceAverage": 90.1,
							"rankings": [
								{"rankPercent": 90.0, "medianPercent": 80.0, "spec": "Arms"}
							]
						},
						"zoneRankings25_spec1": null
					}
				}
			}
		}`))
	})

	rankings, echo, err := f.QueryCharacter(context.Background(), "Testchar", "Area 52", "US", 1017, 1, testBaseData())
	require.NoError(t, err)
	assert.Empty(t, echo)
	require.Contains(t, rankings, models.RankingKey(1017, 10))
	r := rankings[models.RankingKey(1017, 10)]
	assert.Equal(t, []models.RatingEntry{{SpecID: 1, Best: 95, Median: 90}}, r.AllstarRatings)
	require.Len(t, r.EncounterRatings, 1)
	assert.Equal(t, 90, r.EncounterRatings[0].Best)
}

func TestQueryCharacterNoCharacterData(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": {"characterData": {"character": null}}}`))
	})
	rankings, echo, err := f.QueryCharacter(context.Background(), "Testchar", "Area 52", "US", 1017, 1, testBaseData())
	require.NoError(t, err)
	assert.Nil(t, rankings)
	assert.Empty(t, echo)
}

func TestQueryCharacterTransportErrorProducesEcho(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	rankings, echo, err := f.QueryCharacter(context.Background(), "Testchar", "Area 52", "US", 1017, 1, testBaseData())
	assert.ErrorIs(t, err, ErrTransport)
	assert.Nil(t, rankings)
	assert.Contains(t, echo, "Testchar")
}

func TestQueryRateLimit(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": {"rateLimitData": {"limitPerHour": 18000, "pointsSpentThisHour": 1000, "pointsResetIn": 1800}}}`))
	})
	limit, used, resetIn, err := f.QueryRateLimit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 18000, limit)
	assert.Equal(t, 1000, used)
	assert.Equal(t, 1800, resetIn)
}

func TestBuildCharacterQueryIncludesAllAliases(t *testing.T) {
	specs := orderedSpecs(testBaseData().Classes[1])
	q := buildCharacterQuery(1017, specs)
	assert.Contains(t, q, "zoneRankings10_spec1")
	assert.Contains(t, q, "zoneRankings25_spec1")
	assert.Contains(t, q, `spec: "arms"`)
}
