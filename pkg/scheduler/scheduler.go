// Package scheduler implements Scheduler: the single background worker loop
// that drives AddonCodec, PlayerStore, QueueBuilder, RateGovernor and
// Fetcher through the steady-state iteration of spec.md §4.6.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ForsakenNGS/LogTrackerApp/pkg/addon"
	"github.com/ForsakenNGS/LogTrackerApp/pkg/fetcher"
	"github.com/ForsakenNGS/LogTrackerApp/pkg/models"
	"github.com/ForsakenNGS/LogTrackerApp/pkg/queue"
	"github.com/ForsakenNGS/LogTrackerApp/pkg/ratelimit"
	"github.com/ForsakenNGS/LogTrackerApp/pkg/secretredact"
	"github.com/ForsakenNGS/LogTrackerApp/pkg/store"
	"github.com/ForsakenNGS/LogTrackerApp/pkg/viewbridge"
)

// Tunables, spec.md §4.6.
const (
	idleQueuePollInterval    = 1 * time.Second
	pauseThrottleInterval    = 1 * time.Second
	idleRebuildInterval      = 5 * time.Minute
	rateLimitProbeInterval   = 15 * time.Second
	exportFlushInterval      = 30 * time.Second
	transportFailurePause    = 60 * time.Second
)

// Scheduler owns the engine mutex: PlayerStore, RateGovernor, the built
// queue, BaseData and credentials. The worker goroutine and the Set* methods
// (called from the GUI thread) touch that state only under engineMu; the
// constructor's caller runs Run in a goroutine of its own choosing.
type Scheduler struct {
	// engineMu guards everything below up to (not including) view/bridge,
	// per spec.md §5's "engine mutex". Acquired by the worker at the top of
	// each step and released before any blocking HTTP or sleep.
	engineMu sync.Mutex

	gameDir      string
	apiID        string
	apiSecret    string
	priorityOnly bool
	zoneID       int

	codec      *addon.Codec
	store      *store.PlayerStore
	fetcher    *fetcher.Fetcher
	governor   *ratelimit.Governor
	base       models.BaseData
	builtQueue []queue.Entry
	pauseUntil int64

	// queueTotal/queueProcessed track progress through the queue built by the
	// last rebuildQueue, for the "Updated {i} / {n}" status line (spec.md §6).
	queueTotal     int
	queueProcessed int

	lastRateLimitProbe time.Time
	lastExportFlush    time.Time
	lastIdleRebuild    time.Time

	bridge   *viewbridge.Bridge
	redactor *secretredact.Redactor
	log      *slog.Logger

	active chan struct{} // closed by Stop; level-triggered per spec.md §5
	once   sync.Once
}

// New wires a Scheduler from its already-constructed collaborators.
// gameDir/apiID/apiSecret/zoneID seed the initial configuration; subsequent
// changes arrive via SetGameDir/SetCredentials/SetZoneID from the GUI
// thread, the same way ViewBridge's own setters work.
func New(bridge *viewbridge.Bridge, f *fetcher.Fetcher, log *slog.Logger, gameDir, apiID, apiSecret string, zoneID int) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	redactor := secretredact.New()
	redactor.Track(apiSecret)
	s := &Scheduler{
		gameDir:   gameDir,
		apiID:     apiID,
		apiSecret: apiSecret,
		zoneID:    zoneID,
		codec:     addon.NewCodec(),
		store:     store.New(),
		fetcher:   f,
		governor:  ratelimit.New(),
		base:      models.NewBaseData(),
		bridge:    bridge,
		redactor:  redactor,
		log:       log,
		active:    make(chan struct{}),
	}
	f.Configure(apiID, apiSecret)
	return s
}

// Stop signals the worker to exit at the top of its next iteration. Level-
// triggered: calling it multiple times is safe (spec.md §5 "Cancellation").
func (s *Scheduler) Stop() {
	s.once.Do(func() { close(s.active) })
}

func (s *Scheduler) stopRequested() bool {
	select {
	case <-s.active:
		return true
	default:
		return false
	}
}

// SetGameDir updates the configured game directory and, per spec.md §4.7,
// triggers a synchronous reread of all addon data sources before returning.
func (s *Scheduler) SetGameDir(dir string) {
	s.engineMu.Lock()
	s.gameDir = dir
	s.engineMu.Unlock()
	s.reloadAll()
}

// SetCredentials updates LogService credentials, invalidating the cached
// bearer token so the next Fetcher call re-authenticates.
func (s *Scheduler) SetCredentials(apiID, apiSecret string) {
	s.engineMu.Lock()
	s.apiID = apiID
	s.apiSecret = apiSecret
	s.engineMu.Unlock()
	s.redactor.Track(apiSecret)
	s.fetcher.Configure(apiID, apiSecret)
}

// SetPriorityOnly toggles QueueBuilder's priority-only skip rule. It does not
// rebuild the queue itself; the flag takes effect at the next rebuild.
func (s *Scheduler) SetPriorityOnly(priorityOnly bool) {
	s.engineMu.Lock()
	s.priorityOnly = priorityOnly
	s.engineMu.Unlock()
}

// SetZoneID updates the current-tier zone id used in QueryCharacter.
func (s *Scheduler) SetZoneID(zoneID int) {
	s.engineMu.Lock()
	s.zoneID = zoneID
	s.engineMu.Unlock()
}

// Run executes the steady-state loop (spec.md §4.6) until Stop is called,
// always performing a final export before returning.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		if s.stopRequested() || ctx.Err() != nil {
			s.flushExport()
			return
		}
		s.handleManualRefresh(ctx)
		s.step(ctx)
	}
}

// step runs exactly one iteration of spec.md §4.6 steps 2-8.
func (s *Scheduler) step(ctx context.Context) {
	s.maybeReload()

	s.engineMu.Lock()
	hasCreds := s.apiID != "" && s.apiSecret != ""
	queueLen := len(s.builtQueue)
	s.engineMu.Unlock()

	if queueLen == 0 || !hasCreds {
		s.publishIdleStatus()
		if time.Since(s.lastIdleRebuild) >= idleRebuildInterval {
			s.rebuildQueue()
			s.lastIdleRebuild = time.Now()
		}
		time.Sleep(idleQueuePollInterval)
		return
	}

	s.engineMu.Lock()
	pauseUntil := s.pauseUntil
	s.engineMu.Unlock()
	now := time.Now().Unix()
	if pauseUntil > now {
		time.Sleep(pauseThrottleInterval)
		return
	}

	if time.Since(s.lastRateLimitProbe) >= rateLimitProbeInterval {
		s.reconcileRateLimit(ctx)
		s.lastRateLimitProbe = time.Now()
	}

	s.engineMu.Lock()
	decision := s.governor.ShouldProceed(now)
	if decision == ratelimit.Wait {
		left := s.governor.PointsLeft()
		until := time.Unix(s.governor.ReserveDeadline(), 0).Local().Format("15:04")
		resetAt := time.Unix(s.governor.ResetAt(), 0).Local().Format("15:04")
		s.engineMu.Unlock()
		s.bridge.SetStatusText(fmt.Sprintf("Reserving %d points until %s (Reset at %s)", left, until, resetAt))
		s.bridge.RequestRepaint()
		time.Sleep(pauseThrottleInterval)
		return
	}
	s.engineMu.Unlock()

	s.engineMu.Lock()
	var head queue.Entry
	hasHead := len(s.builtQueue) > 0
	if hasHead {
		head = s.builtQueue[0]
	}
	region := s.base.RegionFor(head.Character.Realm)
	classID := head.Character.ClassID
	base := s.base
	zoneID := s.zoneID
	s.engineMu.Unlock()
	if !hasHead {
		return
	}

	s.fetchOne(ctx, head.Character.Realm, head.Character.Name, region, zoneID, classID, base)

	if time.Since(s.lastExportFlush) >= exportFlushInterval {
		s.flushExport()
		s.lastExportFlush = time.Now()
	}
}

// fetchOne performs spec.md §4.6 step 7 for a single character: the HTTP
// call happens without holding engineMu, then results are merged back
// under the lock.
func (s *Scheduler) fetchOne(ctx context.Context, realm, name, region string, zoneID, classID int, base models.BaseData) {
	rankings, echo, err := s.fetcher.QueryCharacter(ctx, name, realm, region, zoneID, classID, base)

	s.engineMu.Lock()
	defer s.engineMu.Unlock()

	if err != nil {
		s.log.Warn("character query transport failure", "realm", realm, "name", name, "error", err, "query_echo", s.redactor.Redact(echo))
		if !s.reconcileRateLimitLocked(ctx) {
			s.pauseUntil = time.Now().Unix() + int64(transportFailurePause.Seconds())
		}
		return
	}

	ch := s.store.Get(realm, name)
	now := time.Now().Unix()
	if rankings != nil {
		for key, r := range rankings {
			ch.SetRanking(key, r)
		}
	}
	ch.LastLogs = now
	ch.LastSeen = now
	s.store.Update(ch)
	s.advanceQueueLocked()

	s.queueProcessed++
	i, n := s.queueProcessed, s.queueTotal
	used, limit := s.governor.Used(), s.governor.Limit()
	s.bridge.SetStatusText(fmt.Sprintf("Updated %d / %d (%d / %d points used)", i, n, used, limit))
	s.bridge.RequestRepaint()
}

// advanceQueueLocked drops the head of the built queue. Caller holds engineMu.
func (s *Scheduler) advanceQueueLocked() {
	if len(s.builtQueue) > 0 {
		s.builtQueue = s.builtQueue[1:]
	}
}

// reconcileRateLimit probes QueryRateLimit and reconciles RateGovernor,
// reporting whether the probe succeeded.
func (s *Scheduler) reconcileRateLimit(ctx context.Context) bool {
	s.engineMu.Lock()
	defer s.engineMu.Unlock()
	return s.reconcileRateLimitLocked(ctx)
}

func (s *Scheduler) reconcileRateLimitLocked(ctx context.Context) bool {
	s.engineMu.Unlock()
	limit, used, resetIn, err := s.fetcher.QueryRateLimit(ctx)
	s.engineMu.Lock()
	if err != nil {
		s.log.Warn("rate limit probe failed", "error", err)
		return false
	}
	s.governor.Reconcile(limit, used, int64(resetIn), time.Now().Unix())
	if s.governor.Exhausted() {
		resetAt := time.Unix(s.governor.ResetAt(), 0).Local().Format("15:04")
		s.bridge.SetStatusText(fmt.Sprintf("Rate limit reached! Reset at %s", resetAt))
		s.bridge.RequestRepaint()
	}
	return true
}

// maybeReload implements spec.md §4.6 step 2: stat saved-variables files,
// and on any newer modification time, flush an export (to preserve user
// changes before the reread overwrites in-memory state), reread, and rebuild.
func (s *Scheduler) maybeReload() {
	s.engineMu.Lock()
	gameDir := s.gameDir
	s.engineMu.Unlock()
	if gameDir == "" {
		return
	}

	changed, err := s.codec.MaybeReload(gameDir)
	if err != nil {
		s.log.Warn("addon reload check failed", "error", err)
		return
	}
	if !changed {
		return
	}
	s.flushExport()
	s.reloadAll()
}

// reloadAll performs the full re-read + merge + rebuild sequence, used both
// by maybeReload and by an explicit SetGameDir.
func (s *Scheduler) reloadAll() {
	s.engineMu.Lock()
	gameDir := s.gameDir
	s.engineMu.Unlock()
	if gameDir == "" {
		return
	}

	result, err := s.codec.ReadAll(gameDir)
	if err != nil {
		s.log.Warn("addon read failed", "error", err)
		return
	}

	s.engineMu.Lock()
	s.base = result.Base
	s.store.Merge(result.Characters)
	s.engineMu.Unlock()

	realms := make([]string, 0, len(result.Characters))
	for realm := range result.Characters {
		realms = append(realms, realm)
	}
	s.bridge.SetRealmList(realms)

	s.rebuildQueue()
}

// rebuildQueue reclassifies and re-sorts the queue from a fresh PlayerStore
// snapshot. Atomic from a reader's perspective: builtQueue is swapped in one
// assignment under engineMu (spec.md §5 "Ordering guarantees").
func (s *Scheduler) rebuildQueue() {
	s.engineMu.Lock()
	snapshot := s.store.Snapshot()
	priorityOnly := s.priorityOnly
	s.engineMu.Unlock()

	entries := queue.Build(snapshot, queue.Options{Now: time.Now().Unix(), PriorityOnly: priorityOnly})

	s.engineMu.Lock()
	s.builtQueue = entries
	s.queueTotal = len(entries)
	s.queueProcessed = 0
	s.engineMu.Unlock()
}

// flushExport implements spec.md §4.6 step 8 / §4.1: write the export file
// containing only characters that still need it.
func (s *Scheduler) flushExport() {
	s.engineMu.Lock()
	gameDir := s.gameDir
	characters := s.store.Snapshot()
	s.engineMu.Unlock()
	if gameDir == "" {
		return
	}

	written, err := s.codec.WriteExport(gameDir, characters)
	if err != nil {
		s.log.Warn("export flush failed", "error", err)
		return
	}
	lastSeen := make(map[[2]string]int64, len(characters))
	for _, ch := range characters {
		lastSeen[[2]string{ch.Realm, ch.Name}] = ch.LastSeen
	}
	s.engineMu.Lock()
	for _, pair := range written {
		s.store.MarkExported(pair[0], pair[1], lastSeen[pair])
	}
	s.engineMu.Unlock()
}

// publishIdleStatus implements spec.md §4.6 step 3 / §6: "Update completed."
// is published every iteration the queue is empty or credentials are
// missing, with no separate string for the no-credentials case.
func (s *Scheduler) publishIdleStatus() {
	s.bridge.SetStatusText("Update completed.")
	s.bridge.RequestRepaint()
}

// handleManualRefresh implements spec.md §4.6 "Manual refresh": it bypasses
// the queue and RateGovernor's reservation, but still acquires a token and
// may observe transport failures. On success it flushes the export
// immediately.
func (s *Scheduler) handleManualRefresh(ctx context.Context) {
	req, ok := s.bridge.TakeManualRequest()
	if !ok {
		return
	}

	s.engineMu.Lock()
	region := s.base.RegionFor(req.Realm)
	ch := s.store.Get(req.Realm, req.Player)
	classID := ch.ClassID
	base := s.base
	zoneID := s.zoneID
	s.engineMu.Unlock()

	rankings, echo, err := s.fetcher.QueryCharacter(ctx, req.Player, req.Realm, region, zoneID, classID, base)
	if err != nil {
		s.bridge.SetManualResult(fmt.Sprintf("refresh failed: %v", err))
		s.log.Warn("manual refresh transport failure", "realm", req.Realm, "name", req.Player, "error", err, "query_echo", s.redactor.Redact(echo))
		return
	}

	s.engineMu.Lock()
	ch = s.store.Get(req.Realm, req.Player)
	now := time.Now().Unix()
	for key, r := range rankings {
		ch.SetRanking(key, r)
	}
	ch.LastLogs = now
	ch.LastSeen = now
	s.store.Update(ch)
	s.engineMu.Unlock()

	s.bridge.SetManualResult(fmt.Sprintf("refreshed %s-%s", req.Realm, req.Player))
	s.flushExport()
}
