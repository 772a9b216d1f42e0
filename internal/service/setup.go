package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	"gorm.io/gorm"

	"tg-unibans/internal/cache"
	"tg-unibans/internal/commands"
	"tg-unibans/internal/config"
	"tg-unibans/internal/crash"
	"tg-unibans/internal/handler"
	"tg-unibans/internal/logger"
	"tg-unibans/internal/platform"
	"tg-unibans/internal/reconcile"
	"tg-unibans/internal/storage"
	"tg-unibans/internal/store"
)

const (
	userCachePurgeInterval = time.Hour
	statsLogInterval       = 5 * time.Minute
)

// Services holds the wired application components
type Services struct {
	DB         *gorm.DB
	Records    *store.Records
	Guilds     *cache.GuildCache
	Loader     *cache.Loader
	Platform   *platform.Telegram
	Engine     *reconcile.Engine
	Dispatcher *commands.Dispatcher
	Handler    *handler.Handler

	cfg *config.Config
}

// Initialize opens the ledger database and the record store, loads the
// guild cache and wires the command and update handling around bot.
// halt is called by the halt command.
func Initialize(ctx context.Context, cfg *config.Config, bot *telego.Bot, halt func()) (*Services, error) {
	db, err := storage.Open(cfg.Database, cfg.Logger.Level)
	if err != nil {
		return nil, err
	}
	if err := storage.Migrate(db); err != nil {
		return nil, err
	}
	logger.Infof("Database schema is up to date")

	s := &Services{
		DB:      db,
		Records: store.Open(cfg.Store),
		Guilds:  cache.NewGuildCache(),
		cfg:     cfg,
	}
	s.Loader = cache.NewLoader(s.Guilds, s.Records.Guilds)
	if _, err := s.Loader.Recache(ctx); err != nil {
		// the cache starts empty and recache can be retried by command
		logger.Warningf("Initial guild load failed: %v", err)
	}

	s.Platform, err = platform.NewTelegram(ctx, bot, storage.NewBanRepository(db), storage.NewChatRepository(db))
	if err != nil {
		return nil, err
	}
	s.Engine = reconcile.New(s.Platform, s.Records.Bans, s.Guilds, cfg.Sync)

	stats := handler.NewStats()
	s.Dispatcher = commands.NewDispatcher(&commands.Deps{
		Records:      s.Records,
		Guilds:       s.Guilds,
		Loader:       s.Loader,
		Sync:         s.Engine,
		Backend:      s.Platform,
		Messenger:    s.Platform,
		Status:       func() string { return statusText(stats, s.Engine.Stats(), s.Guilds.Len()) },
		Halt:         halt,
		Prefix:       cfg.Bot.CommandPrefix,
		ReviewChatID: reviewChat(cfg.Bot.ReviewChatID),
	})
	s.Handler = handler.New(bot.ID(), s.Platform, s.Dispatcher, s.Engine, stats)
	return s, nil
}

// StartBackground starts the periodic tasks. They stop when ctx is done.
func (s *Services) StartBackground(ctx context.Context) {
	if interval := s.cfg.Sync.Interval; interval > 0 {
		runEvery(ctx, "reverse-sweep", interval, func() {
			sweep(s.Engine.ReverseAll(ctx))
		})
	}
	runEvery(ctx, "user-cache-purge", userCachePurgeInterval, s.Platform.PurgeUsers)
	crash.SafeGoroutine("stats-log", func() {
		s.Handler.Stats().LogPeriodically(statsLogInterval, ctx.Done())
	})
}

// Close releases the database connection
func (s *Services) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// runEvery calls fn every interval until ctx is done
func runEvery(ctx context.Context, name string, interval time.Duration, fn func()) {
	crash.SafeGoroutine(name, func() {
		logger.Infof("Starting %s with interval: %v", name, interval)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn()
			}
		}
	})
}

// sweep logs the outcome of a full reverse pass
func sweep(reports []*reconcile.Report) {
	var bans, unbans, failed int
	for _, r := range reports {
		if r.Err != nil {
			logger.Warningf("Sweep: %s", r)
			continue
		}
		bans += r.Count(reconcile.KindBan)
		unbans += r.Count(reconcile.KindUnban)
		failed += r.Failed()
	}
	logger.Infof("Sweep over %d guilds: %d bans, %d unbans, %d failed", len(reports), bans, unbans, failed)
}

func statusText(stats *handler.Stats, sync reconcile.Stats, guilds int) string {
	var b strings.Builder
	b.WriteString(stats.String())
	fmt.Fprintf(&b, "\nGuilds cached: %d", guilds)
	fmt.Fprintf(&b, "\nReconciliation passes: %d (%d aborted)", sync.Passes, sync.Aborted)
	fmt.Fprintf(&b, "\nBans issued: %d\nUnbans issued: %d\nFailed actions: %d", sync.Bans, sync.Unbans, sync.Failed)
	b.WriteString("\n\n")
	b.WriteString(crash.RuntimeInfo())
	return b.String()
}

func reviewChat(id int64) string {
	if id == 0 {
		return ""
	}
	return platform.FormatID(id)
}
