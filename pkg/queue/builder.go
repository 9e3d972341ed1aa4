// Package queue implements QueueBuilder: a from-scratch rebuild of the
// Scheduler's work queue from PlayerStore snapshots, classifying each
// character into a priority band and sorting the result (spec.md §4.3).
package queue

import (
	"sort"
	"time"

	"github.com/ForsakenNGS/LogTrackerApp/pkg/models"
)

// Freshness windows, seconds.
const (
	IntervalTurbo = 24 * 60 * 60      // 1 day
	IntervalFast  = 2 * 24 * 60 * 60  // 2 days
	IntervalSlow  = 7 * 24 * 60 * 60  // 1 week
)

// Entry is one queue slot: an immutable snapshot of a character plus the
// priority band it was classified into. Queue entries are discarded after
// the rebuild that produced them (spec.md §9 "queue as snapshot").
type Entry struct {
	Character      models.Character
	UpdatePriority int
}

// Status is the four-count summary refresh_queue_status() reports
// (spec.md §4.3).
type Status struct {
	NewPriority    int
	UpdatePriority int
	NewRegular     int
	UpdateRegular  int
}

// Options configures a single Build call.
type Options struct {
	Now          int64
	PriorityOnly bool
}

// Build rebuilds the queue from scratch given a PlayerStore snapshot,
// skipping characters per spec.md §4.3's skip rules, classifying the rest
// into bands, and sorting descending by band, ascending by last_logs,
// descending by last_seen.
func Build(characters []models.Character, opts Options) []Entry {
	var entries []Entry
	for _, ch := range characters {
		if shouldSkip(ch, opts.PriorityOnly) {
			continue
		}
		band, ok := classify(ch, opts.Now)
		if !ok {
			continue
		}
		entries = append(entries, Entry{Character: ch.Clone(), UpdatePriority: band})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.UpdatePriority != b.UpdatePriority {
			return a.UpdatePriority > b.UpdatePriority
		}
		if a.Character.LastLogs != b.Character.LastLogs {
			return a.Character.LastLogs < b.Character.LastLogs
		}
		return a.Character.LastSeen > b.Character.LastSeen
	})
	return entries
}

// shouldSkip applies spec.md §4.3's skip rules ahead of banding.
func shouldSkip(ch models.Character, priorityOnly bool) bool {
	if ch.Level > 0 && ch.Level < 80 {
		return true
	}
	if ch.ClassID == 0 {
		return true
	}
	if priorityOnly && ch.Priority == 0 {
		return true
	}
	if ch.HasEncounters() && ch.MaxEncounterKills() == 0 && ch.Priority == 0 {
		return true
	}
	return false
}

// classify computes the update_priority band for a character per spec.md
// §4.3's table, or reports ok=false if none of the bands apply (skip).
func classify(ch models.Character, now int64) (band int, ok bool) {
	seen := now - ch.LastSeen
	upd := now - ch.LastLogs

	switch {
	case ch.LastLogs == 0:
		return 4 + ch.Priority, true
	case ch.Priority > 0 && upd > IntervalTurbo:
		return 3 + ch.Priority, true
	case seen < IntervalFast && (upd > IntervalFast || ch.Priority > 0):
		return 2 + ch.Priority, true
	case upd > IntervalSlow:
		return 1 + ch.Priority, true
	default:
		return 0, false
	}
}

// RefreshStatus reports the four-count summary over a built queue
// (spec.md §4.3): "new" means last_logs == 0, "priority" means the
// character's priority > 0.
func RefreshStatus(entries []Entry) Status {
	var s Status
	for _, e := range entries {
		isNew := e.Character.LastLogs == 0
		isPriority := e.Character.Priority > 0
		switch {
		case isNew && isPriority:
			s.NewPriority++
		case !isNew && isPriority:
			s.UpdatePriority++
		case isNew && !isPriority:
			s.NewRegular++
		default:
			s.UpdateRegular++
		}
	}
	return s
}

// Now returns the current wall-clock second, used by callers that don't
// otherwise thread a clock through (Scheduler supplies its own via Options).
func Now() int64 {
	return time.Now().Unix()
}
