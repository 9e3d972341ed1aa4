package viewbridge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ForsakenNGS/LogTrackerApp/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("USERPROFILE", dir)
	return dir
}

func TestRequestRepaintIsNonBlockingWhenAlreadyPending(t *testing.T) {
	withHome(t)
	b := New(config.Config{}, nil)
	b.RequestRepaint()
	b.RequestRepaint() // must not block even though the channel is full
	select {
	case <-b.RepaintRequested():
	default:
		t.Fatal("expected a pending repaint signal")
	}
}

func TestSetStatusTextPublishesLatestOnly(t *testing.T) {
	withHome(t)
	b := New(config.Config{}, nil)
	b.SetStatusText("fetching Testchar")
	assert.Equal(t, "fetching Testchar", b.StatusText())
	b.SetStatusText("idle")
	assert.Equal(t, "idle", b.StatusText())
}

func TestSetGameDirPersistsAndTriggersCallback(t *testing.T) {
	home := withHome(t)
	var reloaded string
	b := New(config.Config{APIID: "id"}, func(dir string) { reloaded = dir })

	require.NoError(t, b.SetGameDir("/games/wow"))

	assert.Equal(t, "/games/wow", b.GameDir())
	assert.Equal(t, "/games/wow", reloaded)

	raw, err := os.ReadFile(filepath.Join(home, ".logtrackerapp"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "/games/wow")
	assert.Contains(t, string(raw), "\"id\"")
}

func TestSetCredentialsPersists(t *testing.T) {
	withHome(t)
	b := New(config.Config{}, nil)
	require.NoError(t, b.SetCredentials("newid", "newsecret"))
	id, secret := b.Credentials()
	assert.Equal(t, "newid", id)
	assert.Equal(t, "newsecret", secret)

	reloaded, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "newid", reloaded.APIID)
}

func TestManualRequestRoundTrip(t *testing.T) {
	withHome(t)
	b := New(config.Config{}, nil)

	_, ok := b.TakeManualRequest()
	assert.False(t, ok)

	b.RequestManualRefresh("Area 52", "Testchar")
	req, ok := b.TakeManualRequest()
	require.True(t, ok)
	assert.Equal(t, ManualRequest{Realm: "Area 52", Player: "Testchar"}, req)

	_, ok = b.TakeManualRequest()
	assert.False(t, ok, "request should be cleared after being taken once")
}

func TestManualResultPublish(t *testing.T) {
	withHome(t)
	b := New(config.Config{}, nil)
	assert.Empty(t, b.ManualResult())
	b.SetManualResult("12 encounters fetched")
	assert.Equal(t, "12 encounters fetched", b.ManualResult())
}

func TestRealmListSnapshotIsCopy(t *testing.T) {
	withHome(t)
	b := New(config.Config{}, nil)
	b.SetRealmList([]string{"Area 52", "Zul'jin"})
	got := b.RealmList()
	got[0] = "mutated"
	assert.Equal(t, []string{"Area 52", "Zul'jin"}, b.RealmList())
}

func TestSetZoneIDPersists(t *testing.T) {
	withHome(t)
	b := New(config.Config{ZoneID: 1017}, nil)
	require.NoError(t, b.SetZoneID(1020))
	assert.Equal(t, 1020, b.ZoneID())
}
