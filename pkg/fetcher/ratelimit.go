package fetcher

import "context"

const rateLimitQuery = `query RateLimitView {
  rateLimitData {
    limitPerHour
    pointsSpentThisHour
    pointsResetIn
  }
}
`

type rateLimitQueryResponse struct {
	Data struct {
		RateLimitData struct {
			LimitPerHour        int `json:"limitPerHour"`
			PointsSpentThisHour int `json:"pointsSpentThisHour"`
			PointsResetIn       int `json:"pointsResetIn"`
		} `json:"rateLimitData"`
	} `json:"data"`
}

// QueryRateLimit issues the rate-limit probe (spec.md §4.5.3), called by the
// Scheduler at most every 15 seconds to reconcile RateGovernor.
func (f *Fetcher) QueryRateLimit(ctx context.Context) (limitPerHour, pointsSpent, pointsResetIn int, err error) {
	var resp rateLimitQueryResponse
	if err := f.post(ctx, rateLimitQuery, nil, &resp); err != nil {
		return 0, 0, 0, err
	}
	d := resp.Data.RateLimitData
	return d.LimitPerHour, d.PointsSpentThisHour, d.PointsResetIn, nil
}
