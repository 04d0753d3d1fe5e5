package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/boltdb/bolt"
	"github.com/glazed-darnut/VerifyBot/config"
	"github.com/glazed-darnut/VerifyBot/db"
	"github.com/glazed-darnut/VerifyBot/model"
	"github.com/glazed-darnut/VerifyBot/pkg/log"
	jsoniter "github.com/json-iterator/go"
)

const (
	globalConfigKey = "config"

	NoGeneralHelpMessage  = "This server has not set a general verification help message."
	NoSpecificHelpMessage = "This server has not set a general nor role-specific help message. However, this role is verifiable."
)

// Store is the guild verification state store: bolt-backed records cached in
// memory with an idle deadline per guild. All operations on one guild are
// serialized behind that guild's lock; different guilds proceed concurrently.
type Store struct {
	db             *bolt.DB
	pendingTimeout time.Duration
	idleWindow     time.Duration
	now            func() time.Time

	mu    sync.Mutex
	cache map[string]*guildEntry

	gmu    sync.Mutex
	global *model.GlobalConfig
}

type guildEntry struct {
	mu       sync.Mutex
	rec      *model.GuildRecord
	deadline time.Time
	evicted  bool
}

func NewStore(database *bolt.DB, pendingTimeout, idleWindow time.Duration) *Store {
	return &Store{
		db:             database,
		pendingTimeout: pendingTimeout,
		idleWindow:     idleWindow,
		now:            time.Now,
		cache:          make(map[string]*guildEntry),
	}
}

var (
	defaultStore *Store
	storeOnce    sync.Once
)

// GetStore returns the process-wide store backed by the configured bolt db.
func GetStore() *Store {
	storeOnce.Do(func() {
		cfg := config.GetConfig()
		defaultStore = NewStore(db.DB(), cfg.PendingTimeout(), cfg.IdleWindow())
	})
	return defaultStore
}

// withGuild runs f with the guild record loaded and that guild's lock held.
// Every access resets the idle deadline.
func (s *Store) withGuild(guildID string, f func(rec *model.GuildRecord) error) error {
	for {
		s.mu.Lock()
		e, ok := s.cache[guildID]
		if !ok {
			e = &guildEntry{}
			s.cache[guildID] = e
		}
		s.mu.Unlock()

		e.mu.Lock()
		if e.evicted {
			// lost the race against the sweep; fetch a fresh entry
			e.mu.Unlock()
			continue
		}
		if e.rec == nil {
			rec, err := s.load(guildID)
			if err != nil {
				e.mu.Unlock()
				return err
			}
			e.rec = rec
		}
		e.deadline = s.now().Add(s.idleWindow)
		err := f(e.rec)
		e.mu.Unlock()
		return err
	}
}

func (s *Store) load(guildID string) (*model.GuildRecord, error) {
	rec := model.NewGuildRecord(guildID, "")
	err := s.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(model.BucketGuild))
		if bkt == nil {
			return nil
		}
		b := bkt.Get([]byte(guildID))
		if b == nil {
			return nil
		}
		if err := jsoniter.Unmarshal(b, rec); err != nil {
			return fmt.Errorf("guild %v: %w", guildID, err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.StorageIOFailedErr, err)
	}
	// maps may be nil after unmarshaling an older record
	if rec.RoleRules == nil {
		rec.RoleRules = make(map[string]model.VerificationRule)
	}
	if rec.HelpMessages == nil {
		rec.HelpMessages = make(map[string]string)
	}
	if rec.Verified == nil {
		rec.Verified = make(map[string]model.VerificationStatus)
	}
	return rec, nil
}

// flush writes the record in one bolt transaction, which is atomic on disk.
func (s *Store) flush(guildID string, rec *model.GuildRecord) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		bkt, err := tx.CreateBucketIfNotExists([]byte(model.BucketGuild))
		if err != nil {
			return err
		}
		b, err := jsoniter.Marshal(rec)
		if err != nil {
			return err
		}
		return bkt.Put([]byte(guildID), b)
	})
	if err != nil {
		return fmt.Errorf("%w: flush guild %v: %v", model.StorageIOFailedErr, guildID, err)
	}
	return nil
}

// AddGuild registers a guild (id, name) on startup or on a guild-join event.
func (s *Store) AddGuild(guildID, name string) error {
	return s.withGuild(guildID, func(rec *model.GuildRecord) error {
		rec.ID = guildID
		rec.Name = name
		return nil
	})
}

// GetStatus reports the verification status for (guild, user). A pending
// status older than the pending timeout lapses to absent on read.
func (s *Store) GetStatus(guildID, userID string) (status model.VerificationStatus, ok bool, err error) {
	err = s.withGuild(guildID, func(rec *model.GuildRecord) error {
		v, found := rec.Verified[userID]
		if !found {
			return nil
		}
		if v.Status == model.StatePending && s.now().Sub(v.Time) >= s.pendingTimeout {
			delete(rec.Verified, userID)
			return nil
		}
		status, ok = v, true
		return nil
	})
	return status, ok, err
}

// SetStatus records a state transition. Denied removes the entry entirely so
// re-verification stays possible after a denial.
func (s *Store) SetStatus(guildID, userID string, state model.VerificationState, username string) error {
	return s.withGuild(guildID, func(rec *model.GuildRecord) error {
		if state == model.StateDenied {
			delete(rec.Verified, userID)
			return nil
		}
		rec.Verified[userID] = model.VerificationStatus{
			Status:   state,
			Time:     s.now(),
			Username: username,
		}
		return nil
	})
}

func (s *Store) GetRule(guildID, roleName string) (rule model.VerificationRule, err error) {
	err = s.withGuild(guildID, func(rec *model.GuildRecord) error {
		r, ok := rec.RoleRules[roleName]
		if !ok {
			return model.RoleNotConfiguredErr
		}
		rule = r
		return nil
	})
	return rule, err
}

func (s *Store) SetRule(guildID, roleName string, rule model.VerificationRule) error {
	return s.withGuild(guildID, func(rec *model.GuildRecord) error {
		rec.RoleRules[roleName] = rule
		return nil
	})
}

func (s *Store) SetHelpMessage(guildID, key, text string) error {
	return s.withGuild(guildID, func(rec *model.GuildRecord) error {
		rec.HelpMessages[key] = text
		return nil
	})
}

// GetHelpText resolves help for a role: role-specific, then guild default,
// then the global record, then the built-in fallbacks. Pass roleName "" for
// guild-level help.
func (s *Store) GetHelpText(guildID, roleName string) (text string, err error) {
	err = s.withGuild(guildID, func(rec *model.GuildRecord) error {
		if roleName == "" {
			if t, ok := rec.HelpMessages[model.DefaultHelpKey]; ok {
				text = t
				return nil
			}
			if t := s.globalHelp(model.DefaultHelpKey); t != "" {
				text = t
				return nil
			}
			text = NoGeneralHelpMessage
			return nil
		}
		if t, ok := rec.HelpMessages[roleName]; ok {
			text = t
			return nil
		}
		if t, ok := rec.HelpMessages[model.DefaultHelpKey]; ok {
			text = t
			return nil
		}
		if t := s.globalHelp(roleName); t != "" {
			text = t
			return nil
		}
		if _, verifiable := rec.RoleRules[roleName]; verifiable {
			text = NoSpecificHelpMessage
		} else {
			text = NoGeneralHelpMessage
		}
		return nil
	})
	return text, err
}

// Statuses returns a copy of the current per-user statuses of a guild, with
// lapsed pendings pruned.
func (s *Store) Statuses(guildID string) (map[string]model.VerificationStatus, error) {
	out := make(map[string]model.VerificationStatus)
	err := s.withGuild(guildID, func(rec *model.GuildRecord) error {
		for userID, v := range rec.Verified {
			if v.Status == model.StatePending && s.now().Sub(v.Time) >= s.pendingTimeout {
				delete(rec.Verified, userID)
				continue
			}
			out[userID] = v
		}
		return nil
	})
	return out, err
}

// Sweep flushes every cached guild and evicts the ones idle past the window.
// A record whose flush fails stays cached and is retried on the next sweep.
func (s *Store) Sweep(now time.Time) {
	s.mu.Lock()
	entries := make(map[string]*guildEntry, len(s.cache))
	for id, e := range s.cache {
		entries[id] = e
	}
	s.mu.Unlock()

	for id, e := range entries {
		e.mu.Lock()
		if e.rec == nil {
			e.mu.Unlock()
			continue
		}
		if err := s.flush(id, e.rec); err != nil {
			log.Warn("Sweep: %v", err)
			e.mu.Unlock()
			continue
		}
		if now.After(e.deadline) {
			e.evicted = true
			e.rec = nil
			s.mu.Lock()
			if s.cache[id] == e {
				delete(s.cache, id)
			}
			s.mu.Unlock()
		}
		e.mu.Unlock()
	}
}

// CleanStalePending prunes lapsed pending entries of every stored guild, not
// just the cached ones.
func (s *Store) CleanStalePending() {
	var ids []string
	if err := s.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(model.BucketGuild))
		if bkt == nil {
			return nil
		}
		return bkt.ForEach(func(k, _ []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	}); err != nil {
		log.Warn("CleanStalePending: %v", err)
		return
	}
	for _, id := range ids {
		if err := s.withGuild(id, func(rec *model.GuildRecord) error {
			for userID, v := range rec.Verified {
				if v.Status == model.StatePending && s.now().Sub(v.Time) >= s.pendingTimeout {
					delete(rec.Verified, userID)
				}
			}
			return nil
		}); err != nil {
			log.Warn("CleanStalePending: %v", err)
		}
	}
}

func (s *Store) globalHelp(key string) string {
	g, err := s.Global()
	if err != nil {
		log.Warn("globalHelp: %v", err)
		return ""
	}
	return g.HelpMessages[key]
}

// Global returns the global configuration record, loading it on first use.
func (s *Store) Global() (*model.GlobalConfig, error) {
	s.gmu.Lock()
	defer s.gmu.Unlock()
	if s.global != nil {
		return s.global, nil
	}
	g := model.NewGlobalConfig()
	err := s.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(model.BucketGlobal))
		if bkt == nil {
			return nil
		}
		b := bkt.Get([]byte(globalConfigKey))
		if b == nil {
			return nil
		}
		return jsoniter.Unmarshal(b, g)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.StorageIOFailedErr, err)
	}
	if g.Commands == nil {
		g.Commands = make(map[string]string)
	}
	if g.HelpMessages == nil {
		g.HelpMessages = make(map[string]string)
	}
	s.global = g
	return g, nil
}

func (s *Store) SetGlobal(g *model.GlobalConfig) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		bkt, err := tx.CreateBucketIfNotExists([]byte(model.BucketGlobal))
		if err != nil {
			return err
		}
		b, err := jsoniter.Marshal(g)
		if err != nil {
			return err
		}
		return bkt.Put([]byte(globalConfigKey), b)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", model.StorageIOFailedErr, err)
	}
	s.gmu.Lock()
	s.global = g
	s.gmu.Unlock()
	return nil
}

// Reload flushes everything and drops the caches so the next access re-reads
// from storage. Driven by the console `reload` command.
func (s *Store) Reload() error {
	s.Close()
	s.gmu.Lock()
	s.global = nil
	s.gmu.Unlock()
	return nil
}

// Close flushes all cached guild records synchronously and empties the cache.
// Called on shutdown before the process exits.
func (s *Store) Close() {
	s.mu.Lock()
	entries := make(map[string]*guildEntry, len(s.cache))
	for id, e := range s.cache {
		entries[id] = e
	}
	s.mu.Unlock()

	for id, e := range entries {
		e.mu.Lock()
		if e.rec != nil {
			if err := s.flush(id, e.rec); err != nil {
				log.Error("Close: %v", err)
			}
			e.rec = nil
		}
		e.evicted = true
		s.mu.Lock()
		if s.cache[id] == e {
			delete(s.cache, id)
		}
		s.mu.Unlock()
		e.mu.Unlock()
	}
}
