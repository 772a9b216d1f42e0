package cache

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"tg-unibans/internal/banrules"
	"tg-unibans/internal/logger"
	"tg-unibans/internal/metrics"
	"tg-unibans/internal/models"
)

// Entry pairs a guild record with the predicate compiled from its rule
// text. Entries are never modified after they are stored; updates swap
// in a new Entry so the two halves cannot drift apart.
type Entry struct {
	Record models.GuildRecord
	Rules  *banrules.Predicate
}

// GuildCache is the in-memory view of guild settings
type GuildCache struct {
	entries map[string]*Entry
	mu      sync.RWMutex
}

func NewGuildCache() *GuildCache {
	return &GuildCache{
		entries: make(map[string]*Entry),
	}
}

// Get returns the cached entry for a guild
func (c *GuildCache) Get(guildID string) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[guildID]
	return entry, ok
}

// Put compiles the record's rules and stores the pair. Invalid rule text
// leaves the existing entry untouched. Blank rule text selects the
// default rule set.
func (c *GuildCache) Put(record models.GuildRecord) error {
	res := banrules.CompileString(record.EffectiveBanRules())
	if !res.Ok() {
		return fmt.Errorf("guild %s: %s", record.Guild, res.Message())
	}
	c.store(&Entry{Record: record, Rules: res.Predicate()})
	return nil
}

// PutRecord stores a record as it came from the store. Rule text that
// does not compile is stored as an empty predicate, so the record's other
// settings still reach the cache.
func (c *GuildCache) PutRecord(record models.GuildRecord) {
	c.store(storedEntry(record))
}

// PutCompiled stores a record together with an already compiled predicate
func (c *GuildCache) PutCompiled(record models.GuildRecord, rules *banrules.Predicate) {
	c.store(&Entry{Record: record, Rules: rules})
}

func (c *GuildCache) store(entry *Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[entry.Record.Guild] = entry
	metrics.GuildsCached.Set(float64(len(c.entries)))
}

// SetBlacklisted flips the blacklist flag of a cached guild. It reports
// false when the guild is not cached.
func (c *GuildCache) SetBlacklisted(guildID string, blacklisted bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[guildID]
	if !ok {
		return false
	}
	record := entry.Record
	record.Blacklisted = blacklisted
	c.entries[guildID] = &Entry{Record: record, Rules: entry.Rules}
	return true
}

// IsBlacklisted reports whether a cached guild is blacklisted
func (c *GuildCache) IsBlacklisted(guildID string) bool {
	entry, ok := c.Get(guildID)
	return ok && entry.Record.Blacklisted
}

// Rules returns the guild's predicate. Guilds missing from the cache get
// a freshly compiled default rule set that is not cached.
func (c *GuildCache) Rules(guildID string) *banrules.Predicate {
	if entry, ok := c.Get(guildID); ok && entry.Rules != nil {
		return entry.Rules
	}
	return banrules.Default()
}

// Replace swaps the whole cache for the given records
func (c *GuildCache) Replace(records []models.GuildRecord) {
	entries := make(map[string]*Entry, len(records))
	for _, record := range records {
		entries[record.Guild] = storedEntry(record)
	}

	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()
	metrics.GuildsCached.Set(float64(len(entries)))
}

func storedEntry(record models.GuildRecord) *Entry {
	res := banrules.CompileString(record.EffectiveBanRules())
	if !res.Ok() {
		logger.Warningf("Stored ban rules for guild %s do not compile (%s), enforcing nothing", record.Guild, res.Message())
		return &Entry{Record: record, Rules: &banrules.Predicate{}}
	}
	return &Entry{Record: record, Rules: res.Predicate()}
}

// Len is the number of cached guilds
func (c *GuildCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// GuildLister lists rows of the guilds collection
type GuildLister interface {
	List(ctx context.Context, filter map[string]string) ([]models.GuildRecord, error)
}

// Loader rebuilds a GuildCache from the record store
type Loader struct {
	cache  *GuildCache
	guilds GuildLister
	group  singleflight.Group
}

func NewLoader(cache *GuildCache, guilds GuildLister) *Loader {
	return &Loader{cache: cache, guilds: guilds}
}

// Recache fetches every guild record and replaces the cache. Calls made
// while a recache is in flight share its result.
func (l *Loader) Recache(ctx context.Context) (int, error) {
	v, err, _ := l.group.Do("recache", func() (interface{}, error) {
		records, err := l.guilds.List(ctx, nil)
		if err != nil {
			return 0, fmt.Errorf("failed to list guilds: %w", err)
		}
		l.cache.Replace(records)
		logger.Infof("Loaded %d guilds from the record store into cache", len(records))
		return len(records), nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}
