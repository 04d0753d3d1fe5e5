package service

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/boltdb/bolt"
	"github.com/glazed-darnut/VerifyBot/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *time.Time) {
	t.Helper()
	database, err := bolt.Open(filepath.Join(t.TempDir(), "bolt.db"), 0600, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	s := NewStore(database, 25*time.Minute, 5*time.Minute)
	now := time.Now()
	s.now = func() time.Time { return now }
	return s, &now
}

func TestDeniedRemovesEntry(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.SetStatus("g1", "u1", model.StateVerified, "alice"))
	_, ok, err := s.GetStatus("g1", "u1")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, s.SetStatus("g1", "u1", model.StateDenied, "alice"))
	_, ok, err = s.GetStatus("g1", "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPendingLapsesAfterTimeout(t *testing.T) {
	s, now := newTestStore(t)
	require.NoError(t, s.SetStatus("g1", "u1", model.StatePending, "alice"))

	*now = now.Add(24 * time.Minute)
	st, ok, err := s.GetStatus("g1", "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.StatePending, st.Status)

	*now = now.Add(2 * time.Minute)
	_, ok, err = s.GetStatus("g1", "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetStatusUnknownGuild(t *testing.T) {
	s, _ := newTestStore(t)
	_, ok, err := s.GetStatus("never-seen", "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRuleLookup(t *testing.T) {
	s, _ := newTestStore(t)
	rule := model.VerificationRule{Pattern: `.*?Acme Member.*?${name}.*?`}
	require.NoError(t, s.SetRule("g1", "Member", rule))

	got, err := s.GetRule("g1", "Member")
	require.NoError(t, err)
	assert.Equal(t, rule, got)

	_, err = s.GetRule("g1", "Admin")
	assert.ErrorIs(t, err, model.RoleNotConfiguredErr)
}

func TestHelpTextFallbacks(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.SetRule("g1", "Member", model.VerificationRule{Pattern: "x"}))

	// role has a rule but no help at all
	text, err := s.GetHelpText("g1", "Member")
	require.NoError(t, err)
	assert.Equal(t, NoSpecificHelpMessage, text)

	// guild-level help with nothing configured
	text, err = s.GetHelpText("g1", "")
	require.NoError(t, err)
	assert.Equal(t, NoGeneralHelpMessage, text)

	require.NoError(t, s.SetHelpMessage("g1", model.DefaultHelpKey, "general help"))
	text, err = s.GetHelpText("g1", "Member")
	require.NoError(t, err)
	assert.Equal(t, "general help", text)

	require.NoError(t, s.SetHelpMessage("g1", "Member", "member help"))
	text, err = s.GetHelpText("g1", "Member")
	require.NoError(t, err)
	assert.Equal(t, "member help", text)
}

func TestSweepFlushesAndEvictsIdleGuild(t *testing.T) {
	s, now := newTestStore(t)
	require.NoError(t, s.SetStatus("g1", "u1", model.StateVerified, "alice"))
	require.NoError(t, s.AddGuild("g1", "Guild One"))

	s.Sweep(now.Add(6 * time.Minute))

	s.mu.Lock()
	_, cached := s.cache["g1"]
	s.mu.Unlock()
	assert.False(t, cached, "idle guild should be evicted from cache")

	// next access reloads identical content from storage
	st, ok, err := s.GetStatus("g1", "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.StateVerified, st.Status)
	assert.Equal(t, "alice", st.Username)
}

func TestSweepKeepsActiveGuild(t *testing.T) {
	s, now := newTestStore(t)
	require.NoError(t, s.SetStatus("g1", "u1", model.StateVerified, "alice"))

	s.Sweep(now.Add(1 * time.Minute))

	s.mu.Lock()
	_, cached := s.cache["g1"]
	s.mu.Unlock()
	assert.True(t, cached, "guild inside the idle window stays cached")
}

func TestCloseFlushesSynchronously(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.SetStatus("g1", "u1", model.StateVerified, "alice"))
	s.Close()

	rec, err := s.load("g1")
	require.NoError(t, err)
	assert.Equal(t, model.StateVerified, rec.Verified["u1"].Status)
}

func TestSameGuildNoLostUpdate(t *testing.T) {
	s, _ := newTestStore(t)
	const users = 50
	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.SetStatus("g1", userID(i), model.StateVerified, "user"))
		}(i)
	}
	wg.Wait()

	statuses, err := s.Statuses("g1")
	require.NoError(t, err)
	assert.Len(t, statuses, users, "concurrent writes to one guild must not lose updates")
}

func TestDifferentGuildsIndependent(t *testing.T) {
	s, _ := newTestStore(t)
	var wg sync.WaitGroup
	for _, g := range []string{"g1", "g2", "g3", "g4"} {
		wg.Add(1)
		go func(g string) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				assert.NoError(t, s.SetStatus(g, userID(i), model.StateVerified, "user"))
			}
		}(g)
	}
	wg.Wait()
	for _, g := range []string{"g1", "g2", "g3", "g4"} {
		statuses, err := s.Statuses(g)
		require.NoError(t, err)
		assert.Len(t, statuses, 20)
	}
}

func TestCleanStalePending(t *testing.T) {
	s, now := newTestStore(t)
	require.NoError(t, s.SetStatus("g1", "stale", model.StatePending, "alice"))
	require.NoError(t, s.SetStatus("g1", "fresh", model.StateVerified, "bob"))
	s.Close()

	*now = now.Add(30 * time.Minute)
	s.CleanStalePending()

	statuses, err := s.Statuses("g1")
	require.NoError(t, err)
	_, stale := statuses["stale"]
	assert.False(t, stale)
	assert.Equal(t, model.StateVerified, statuses["fresh"].Status)
}

func TestGlobalConfigRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	g := model.NewGlobalConfig()
	g.HelpMessages[model.DefaultHelpKey] = "global default help"
	require.NoError(t, s.SetGlobal(g))

	text, err := s.GetHelpText("g1", "")
	require.NoError(t, err)
	assert.Equal(t, "global default help", text)

	// reload drops the cached copy and re-reads from storage
	require.NoError(t, s.Reload())
	text, err = s.GetHelpText("g1", "")
	require.NoError(t, err)
	assert.Equal(t, "global default help", text)
}

func userID(i int) string {
	return "user-" + string(rune('a'+i%26)) + "-" + string(rune('0'+i/26))
}
