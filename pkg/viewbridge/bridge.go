// Package viewbridge implements ViewBridge: the shared mutable record
// connecting the GUI thread to the Scheduler worker (spec.md §4.7), grounded
// on the connection-manager mutex discipline and non-blocking channel send
// pattern used for repaint signaling.
package viewbridge

import (
	"sync"

	"github.com/ForsakenNGS/LogTrackerApp/pkg/config"
)

// ManualRequest is a user-initiated refresh of one character, bypassing the
// queue and RateGovernor's reservation (spec.md §4.6 "Manual refresh").
type ManualRequest struct {
	Realm  string
	Player string
}

// Bridge holds the fields the GUI thread and the Scheduler worker share.
// Its own mutex is distinct from the Scheduler's engine mutex; the worker
// acquires them in the order engine → view, never the reverse (spec.md §5).
type Bridge struct {
	mu sync.Mutex

	gameDir   string
	apiID     string
	apiSecret string
	zoneID    int

	manualRealm  string
	manualPlayer string
	manualResult string

	statusText string
	realmList  []string

	repaint chan struct{}

	// onGameDirChange is invoked synchronously on every SetGameDir call,
	// after mu is released and the config is saved, so the caller can
	// trigger the addon-data reread. Set once at construction; nil is a
	// valid no-op.
	onGameDirChange func(gameDir string)
}

// New returns a Bridge seeded from an already-loaded Config. onGameDirChange
// may be nil.
func New(cfg config.Config, onGameDirChange func(gameDir string)) *Bridge {
	return &Bridge{
		gameDir:         cfg.GameDir,
		apiID:           cfg.APIID,
		apiSecret:       cfg.APISecret,
		zoneID:          cfg.ZoneID,
		repaint:         make(chan struct{}, 1),
		onGameDirChange: onGameDirChange,
	}
}

// RequestRepaint signals the GUI to redraw. Non-blocking: if a repaint is
// already pending, this is a no-op, so a stalled GUI never backpressures the
// worker (spec.md §4.7).
func (b *Bridge) RequestRepaint() {
	select {
	case b.repaint <- struct{}{}:
	default:
	}
}

// RepaintRequested returns the channel the GUI selects on to learn a repaint
// was requested. Draining it (via a receive) clears the pending signal.
func (b *Bridge) RepaintRequested() <-chan struct{} {
	return b.repaint
}

// SetStatusText publishes the Scheduler's current status line. Called at
// most once per worker iteration (spec.md §4.6).
func (b *Bridge) SetStatusText(text string) {
	b.mu.Lock()
	b.statusText = text
	b.mu.Unlock()
}

// StatusText returns the last published status line.
func (b *Bridge) StatusText() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.statusText
}

// SetRealmList publishes the realm names of the characters read in the
// latest addon-data reload, for the GUI's realm picker.
func (b *Bridge) SetRealmList(realms []string) {
	b.mu.Lock()
	b.realmList = append([]string(nil), realms...)
	b.mu.Unlock()
}

// RealmList returns a snapshot of the known realm names.
func (b *Bridge) RealmList() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.realmList...)
}

// GameDir returns the configured game installation directory.
func (b *Bridge) GameDir() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gameDir
}

// SetGameDir persists the new game directory immediately and, per spec.md
// §4.7, synchronously triggers an addon-data reread via onGameDirChange.
func (b *Bridge) SetGameDir(dir string) error {
	b.mu.Lock()
	b.gameDir = dir
	cfg := b.snapshotConfigLocked()
	cb := b.onGameDirChange
	b.mu.Unlock()

	if err := config.Save(cfg); err != nil {
		return err
	}
	if cb != nil {
		cb(dir)
	}
	return nil
}

// Credentials returns the configured LogService API id/secret.
func (b *Bridge) Credentials() (apiID, apiSecret string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.apiID, b.apiSecret
}

// SetCredentials persists new LogService credentials immediately.
func (b *Bridge) SetCredentials(apiID, apiSecret string) error {
	b.mu.Lock()
	b.apiID = apiID
	b.apiSecret = apiSecret
	cfg := b.snapshotConfigLocked()
	b.mu.Unlock()
	return config.Save(cfg)
}

// ZoneID returns the configured current-tier zone id (SPEC_FULL.md "Zone ID").
func (b *Bridge) ZoneID() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.zoneID
}

// SetZoneID persists a new current-tier zone id immediately.
func (b *Bridge) SetZoneID(zoneID int) error {
	b.mu.Lock()
	b.zoneID = zoneID
	cfg := b.snapshotConfigLocked()
	b.mu.Unlock()
	return config.Save(cfg)
}

// snapshotConfigLocked builds a Config from current field values. Caller
// must hold mu.
func (b *Bridge) snapshotConfigLocked() config.Config {
	return config.Config{
		GameDir:   b.gameDir,
		APIID:     b.apiID,
		APISecret: b.apiSecret,
		ZoneID:    b.zoneID,
	}
}

// RequestManualRefresh records a pending manual-refresh request for the
// Scheduler to notice at the top of its next iteration.
func (b *Bridge) RequestManualRefresh(realm, player string) {
	b.mu.Lock()
	b.manualRealm = realm
	b.manualPlayer = player
	b.manualResult = ""
	b.mu.Unlock()
}

// TakeManualRequest atomically reads and clears any pending manual-refresh
// request, reporting ok=false if none is pending.
func (b *Bridge) TakeManualRequest() (req ManualRequest, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.manualRealm == "" && b.manualPlayer == "" {
		return ManualRequest{}, false
	}
	req = ManualRequest{Realm: b.manualRealm, Player: b.manualPlayer}
	b.manualRealm = ""
	b.manualPlayer = ""
	return req, true
}

// SetManualResult publishes the outcome text of the most recent manual
// refresh, for the GUI to display.
func (b *Bridge) SetManualResult(result string) {
	b.mu.Lock()
	b.manualResult = result
	b.mu.Unlock()
}

// ManualResult returns the last published manual-refresh result text.
func (b *Bridge) ManualResult() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.manualResult
}
