package models

import "math"

// RankingPosition is one boss' zoneRankings entry for a single spec, already
// decoded from the GraphQL response's `rankings[]` array.
type RankingPosition struct {
	RankPercent   float64
	MedianPercent float64
	HasSpec       bool // the response's `spec` field was non-null
}

// MergeSpec merges one spec's zoneRankings result into r (spec.md §4.5,
// §8 invariant 2/5 "merge monotonicity"): the zone-wide allstar rating is
// appended when present, and each encounter position is replaced only when
// this spec's `best` strictly exceeds whatever is already recorded there.
func (r *Ranking) MergeSpec(specID int, allstarBest, allstarMedian *float64, positions []RankingPosition) {
	if allstarBest != nil && allstarMedian != nil {
		r.AllstarRatings = append(r.AllstarRatings, RatingEntry{
			SpecID: specID,
			Best:   int(math.Round(*allstarBest)),
			Median: int(math.Round(*allstarMedian)),
		})
	}
	if positions == nil {
		return
	}
	r.EncountersTotal = 0
	r.EncountersKilled = 0
	for i, pos := range positions {
		for len(r.EncounterRatings) <= i {
			r.EncounterRatings = append(r.EncounterRatings, RatingEntry{})
		}
		r.EncountersTotal++
		if pos.HasSpec {
			best := int(math.Round(pos.RankPercent))
			median := int(math.Round(pos.MedianPercent))
			if best > r.EncounterRatings[i].Best {
				r.EncounterRatings[i] = RatingEntry{SpecID: specID, Best: best, Median: median}
			}
		}
		if r.EncounterRatings[i].Best > 0 {
			r.EncountersKilled++
		}
	}
}
