package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/cliplink/cliplink/internal/model"
)

// topEntityLimit caps the ranked shop and barber lists.
const topEntityLimit = 5

// EntityCount ranks one shop or barber by resolution count.
type EntityCount struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

// Summary aggregates resolution records over a window of days.
type Summary struct {
	Days            int            `json:"days"`
	Total           int            `json:"total"`
	ByAction        map[string]int `json:"byAction"`
	ErrorRate       float64        `json:"errorRate"` // percentage, 0..100
	AvgProcessingMS float64        `json:"avgProcessingMs"`
	TopShops        []EntityCount  `json:"topShops"`
	TopBarbers      []EntityCount  `json:"topBarbers"`
	ByDay           map[string]int `json:"byDay"`
}

// Summary reduces the records of the last `days` UTC days, today
// included. Malformed stored objects are skipped, not fatal.
func (p *Pipeline) Summary(ctx context.Context, days int) (*Summary, error) {
	if days <= 0 {
		days = 1
	}

	out := &Summary{
		Days:     days,
		ByAction: make(map[string]int),
		ByDay:    make(map[string]int),
	}
	shops := make(map[string]int)
	barbers := make(map[string]int)

	var (
		errorCount   int
		processingMS float64
	)

	today := p.now().UTC().Truncate(24 * time.Hour)
	for i := 0; i < days; i++ {
		day := today.AddDate(0, 0, -i).Format("2006-01-02")
		dayPrefix := p.prefix + recordPrefix + day + "/"

		infos, err := p.store.List(ctx, dayPrefix)
		if err != nil {
			return nil, fmt.Errorf("list records for %s: %w", day, err)
		}

		for _, info := range infos {
			body, err := p.store.Get(ctx, info.Key)
			if err != nil {
				p.logger.Warn("failed to read record", "key", info.Key, "error", err)
				continue
			}

			var rec model.AnalyticsRecord
			if err := json.Unmarshal(body, &rec); err != nil {
				p.logger.Warn("skipping malformed record", "key", info.Key, "error", err)
				continue
			}

			out.Total++
			out.ByDay[day]++
			processingMS += rec.ProcessingMS
			if rec.Error != "" {
				errorCount++
			}
			if rec.DeepLink != nil {
				out.ByAction[string(rec.DeepLink.Action)]++
				if shop := rec.DeepLink.Params.Get("shop"); shop != "" {
					shops[shop]++
				}
				if barber := rec.DeepLink.Params.Get("barber"); barber != "" {
					barbers[barber]++
				}
			}
		}
	}

	if out.Total > 0 {
		out.ErrorRate = float64(errorCount) / float64(out.Total) * 100
		out.AvgProcessingMS = processingMS / float64(out.Total)
	}
	out.TopShops = topEntities(shops, topEntityLimit)
	out.TopBarbers = topEntities(barbers, topEntityLimit)

	return out, nil
}

// topEntities returns the highest-count entries, ties broken by ID.
func topEntities(counts map[string]int, limit int) []EntityCount {
	out := make([]EntityCount, 0, len(counts))
	for id, count := range counts {
		out = append(out, EntityCount{ID: id, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
