package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ForsakenNGS/LogTrackerApp/pkg/models"
)

// raidSizes are the two raid sizes ranked separately per zone (spec.md
// GLOSSARY "Zone").
var raidSizes = []int{10, 25}

// characterQueryResponse mirrors the GraphQL schema excerpt from spec.md §6:
// `characterData.character` carrying `classId` plus one aliased
// `zoneRankingsNN_specM` field per raid size/spec combination. Aliases are
// dynamic (depend on the class' spec count), so the character object is
// decoded as a raw map and aliases are looked up individually.
type characterQueryResponse struct {
	Data struct {
		CharacterData struct {
			Character map[string]json.RawMessage `json:"character"`
		} `json:"characterData"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type zoneRankingsNode struct {
	BestPerformanceAverage   *float64 `json:"bestPerformanceAverage"`
	MedianPerformanceAverage *float64 `json:"medianPerformanceAverage"`
	Rankings                 []struct {
		RankPercent   float64 `json:"rankPercent"`
		MedianPercent float64 `json:"medianPercent"`
		Spec          *string `json:"spec"`
	} `json:"rankings"`
}

func zoneRankingsAlias(raidSize, specPosition int) string {
	return fmt.Sprintf("zoneRankings%d_spec%d", raidSize, specPosition)
}

// orderedSpecs returns a class' specs sorted by spec ID, which is also the
// 1..5 position used in the `zoneRankingsNN_specN` field aliases.
func orderedSpecs(cls models.Class) []models.ClassSpec {
	specs := make([]models.ClassSpec, 0, len(cls.Specs))
	for _, s := range cls.Specs {
		specs = append(specs, s)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].ID < specs[j].ID })
	return specs
}

// QueryCharacter builds and issues the per-character GraphQL query
// (spec.md §4.5.2). If classID has no entry in base, it returns
// (nil, "", nil): no query is attempted. On a transport failure it returns
// (nil, echo, ErrTransport) where echo is a diagnostic dump of the request
// variables. On success with no character data it returns (nil, "", nil).
func (f *Fetcher) QueryCharacter(ctx context.Context, name, realm, region string, zoneID, classID int, base models.BaseData) (map[string]models.Ranking, string, error) {
	cls, ok := base.ClassByID(classID)
	if !ok {
		return nil, "", nil
	}
	specs := orderedSpecs(cls)
	if len(specs) == 0 {
		return nil, "", nil
	}

	variables := map[string]any{
		"name":         name,
		"serverSlug":   realm,
		"serverRegion": region,
	}
	query := buildCharacterQuery(zoneID, specs)

	var resp characterQueryResponse
	if err := f.post(ctx, query, variables, &resp); err != nil {
		return nil, echoVariables("CharacterView", variables), err
	}
	if len(resp.Errors) > 0 {
		return nil, echoVariables("CharacterView", variables), fmt.Errorf("%w: %s", ErrTransport, resp.Errors[0].Message)
	}
	if resp.Data.CharacterData.Character == nil {
		return nil, "", nil // no logs for this character; caller stamps and advances
	}

	rankings := make(map[string]models.Ranking, len(raidSizes))
	for _, size := range raidSizes {
		var r models.Ranking
		for i, spec := range specs {
			alias := zoneRankingsAlias(size, i+1)
			raw, ok := resp.Data.CharacterData.Character[alias]
			if !ok || len(raw) == 0 || string(raw) == "null" {
				continue
			}
			var node zoneRankingsNode
			if err := json.Unmarshal(raw, &node); err != nil {
				continue
			}
			var positions []models.RankingPosition
			for _, rk := range node.Rankings {
				positions = append(positions, models.RankingPosition{
					RankPercent:   rk.RankPercent,
					MedianPercent: rk.MedianPercent,
					HasSpec:       rk.Spec != nil,
				})
			}
			r.MergeSpec(spec.ID, node.BestPerformanceAverage, node.MedianPerformanceAverage, positions)
		}
		rankings[models.RankingKey(zoneID, size)] = r
	}
	return rankings, "", nil
}

// buildCharacterQuery renders the GraphQL document requesting one aliased
// zoneRankings field per (raid size, spec) pair, per spec.md §4.5/§6.
func buildCharacterQuery(zoneID int, specs []models.ClassSpec) string {
	var b strings.Builder
	b.WriteString("query CharacterView($name: String!, $serverSlug: String!, $serverRegion: String!) {\n")
	b.WriteString("  characterData {\n")
	b.WriteString("    character(name: $name, serverSlug: $serverSlug, serverRegion: $serverRegion) {\n")
	b.WriteString("      classID\n")
	for i, spec := range specs {
		for _, size := range raidSizes {
			fmt.Fprintf(&b, "      %s: zoneRankings(zone: %d, spec: %q, metric: %q, size: %d) {\n",
				zoneRankingsAlias(size, i+1), zoneID, spec.Slug, string(spec.Metric), size)
			b.WriteString("        bestPerformanceAverage\n")
			b.WriteString("        medianPerformanceAverage\n")
			b.WriteString("        rankings { rankPercent medianPercent spec }\n")
			b.WriteString("      }\n")
		}
	}
	b.WriteString("    }\n  }\n}\n")
	return b.String()
}
