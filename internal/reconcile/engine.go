package reconcile

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/pool"

	"tg-unibans/internal/cache"
	"tg-unibans/internal/config"
	"tg-unibans/internal/crash"
	"tg-unibans/internal/logger"
	"tg-unibans/internal/metrics"
	"tg-unibans/internal/models"
	"tg-unibans/internal/platform"
	"tg-unibans/internal/store"
)

type Kind string

const (
	KindBan   Kind = "ban"
	KindUnban Kind = "unban"
)

// Action is one enforcement request issued during a pass
type Action struct {
	Guild string
	User  string
	Kind  Kind
	Err   error
}

// Report collects the actions of one pass. Err is set when the pass
// could not start, e.g. the record store was unreachable.
type Report struct {
	Pass    string
	Target  string
	Actions []Action
	Err     error
}

// Count returns how many actions of the given kind succeeded
func (r *Report) Count(kind Kind) int {
	n := 0
	for _, a := range r.Actions {
		if a.Kind == kind && a.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns how many actions the backend rejected
func (r *Report) Failed() int {
	n := 0
	for _, a := range r.Actions {
		if a.Err != nil {
			n++
		}
	}
	return n
}

func (r *Report) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%s %s: %v", r.Pass, r.Target, r.Err)
	}
	return fmt.Sprintf("%s %s: %d bans, %d unbans, %d failed",
		r.Pass, r.Target, r.Count(KindBan), r.Count(KindUnban), r.Failed())
}

// Stats are running totals since startup
type Stats struct {
	Passes  int64
	Bans    int64
	Unbans  int64
	Failed  int64
	Aborted int64
}

// Engine converges platform enforcement with the central ban records
type Engine struct {
	backend platform.Backend
	bans    store.Table[models.BanRecord]
	guilds  *cache.GuildCache
	workers int
	timeout time.Duration

	passes, bansIssued, unbansIssued, failed, aborted atomic.Int64
}

func New(backend platform.Backend, bans store.Table[models.BanRecord], guilds *cache.GuildCache, cfg config.SyncConfig) *Engine {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Engine{
		backend: backend,
		bans:    bans,
		guilds:  guilds,
		workers: workers,
		timeout: cfg.TargetTimeout,
	}
}

// Forward re-evaluates one user's records against every known guild
func (e *Engine) Forward(ctx context.Context, user string) *Report {
	report := &Report{Pass: "forward", Target: user}

	records, err := e.bans.List(ctx, map[string]string{"user": user})
	if err != nil {
		return e.abort(report, fmt.Errorf("failed to list bans of %s: %w", user, err))
	}
	guilds, err := e.backend.Guilds(ctx)
	if err != nil {
		return e.abort(report, fmt.Errorf("failed to list guilds: %w", err))
	}

	var intents []Action
	for _, guild := range guilds {
		if e.guilds.IsBlacklisted(guild) {
			continue
		}
		kind := KindUnban
		if e.guilds.Rules(guild).AnyMatch(records, guild) {
			kind = KindBan
		}
		intents = append(intents, Action{Guild: guild, User: user, Kind: kind})
	}

	return e.finish(report, e.apply(ctx, intents))
}

// Reverse re-evaluates every user with records against one guild's
// current enforcement
func (e *Engine) Reverse(ctx context.Context, guild string) *Report {
	report := &Report{Pass: "reverse", Target: guild}
	if e.guilds.IsBlacklisted(guild) {
		return report
	}

	records, err := e.bans.List(ctx, nil)
	if err != nil {
		return e.abort(report, fmt.Errorf("failed to list bans: %w", err))
	}
	return e.reverse(ctx, report, guild, groupByUser(records))
}

// ReverseAll runs Reverse over every known guild, fetching the records
// once for the whole sweep
func (e *Engine) ReverseAll(ctx context.Context) []*Report {
	guilds, err := e.backend.Guilds(ctx)
	if err != nil {
		return []*Report{e.abort(&Report{Pass: "reverse", Target: "*"}, fmt.Errorf("failed to list guilds: %w", err))}
	}
	records, err := e.bans.List(ctx, nil)
	if err != nil {
		return []*Report{e.abort(&Report{Pass: "reverse", Target: "*"}, fmt.Errorf("failed to list bans: %w", err))}
	}
	byUser := groupByUser(records)

	reports := make([]*Report, 0, len(guilds))
	for _, guild := range guilds {
		report := &Report{Pass: "reverse", Target: guild}
		if !e.guilds.IsBlacklisted(guild) {
			report = e.reverse(ctx, report, guild, byUser)
		}
		reports = append(reports, report)
	}
	return reports
}

// ForwardAsync runs Forward in the background, detached from the caller
func (e *Engine) ForwardAsync(user string) {
	crash.SafeGoroutine("forward-"+user, func() {
		e.Forward(context.Background(), user)
	})
}

// ReverseAsync runs Reverse in the background, detached from the caller
func (e *Engine) ReverseAsync(guild string) {
	crash.SafeGoroutine("reverse-"+guild, func() {
		e.Reverse(context.Background(), guild)
	})
}

// Stats returns the running totals
func (e *Engine) Stats() Stats {
	return Stats{
		Passes:  e.passes.Load(),
		Bans:    e.bansIssued.Load(),
		Unbans:  e.unbansIssued.Load(),
		Failed:  e.failed.Load(),
		Aborted: e.aborted.Load(),
	}
}

func (e *Engine) reverse(ctx context.Context, report *Report, guild string, byUser map[string][]models.BanRecord) *Report {
	enforced, err := e.backend.FetchEnforcedBans(ctx, guild)
	if err != nil {
		return e.abort(report, fmt.Errorf("failed to fetch bans of %s: %w", guild, err))
	}

	rules := e.guilds.Rules(guild)
	var intents []Action
	for user, records := range byUser {
		_, banned := enforced[user]
		match := rules.AnyMatch(records, guild)
		switch {
		case match && !banned:
			intents = append(intents, Action{Guild: guild, User: user, Kind: KindBan})
		case !match && banned:
			intents = append(intents, Action{Guild: guild, User: user, Kind: KindUnban})
		}
	}

	return e.finish(report, e.apply(ctx, intents))
}

// apply issues the intents on a bounded pool. Each request gets its own
// timeout and is not cancelled with the caller.
func (e *Engine) apply(ctx context.Context, intents []Action) []Action {
	if len(intents) == 0 {
		return nil
	}

	base := context.WithoutCancel(ctx)
	results := make([]Action, len(intents))

	p := pool.New().WithMaxGoroutines(e.workers)
	for i, intent := range intents {
		p.Go(func() {
			err := crash.Capture("reconcile", func() error {
				tctx := base
				if e.timeout > 0 {
					var cancel context.CancelFunc
					tctx, cancel = context.WithTimeout(base, e.timeout)
					defer cancel()
				}
				if intent.Kind == KindBan {
					return e.backend.Ban(tctx, intent.Guild, intent.User)
				}
				return e.backend.Unban(tctx, intent.Guild, intent.User)
			})
			outcome := "ok"
			if err != nil {
				outcome = "failed"
				logger.Debugf("%s of %s in %s failed: %v", intent.Kind, intent.User, intent.Guild, err)
			}
			metrics.ReconcileActionsTotal.WithLabelValues(string(intent.Kind), outcome).Inc()
			intent.Err = err
			results[i] = intent
		})
	}
	p.Wait()
	return results
}

func (e *Engine) finish(report *Report, actions []Action) *Report {
	report.Actions = actions
	e.passes.Add(1)
	metrics.ReconcilePassesTotal.WithLabelValues(report.Pass, "ok").Inc()
	e.bansIssued.Add(int64(report.Count(KindBan)))
	e.unbansIssued.Add(int64(report.Count(KindUnban)))
	e.failed.Add(int64(report.Failed()))
	if len(actions) > 0 {
		logger.Infof("Reconciled %s", report)
	}
	return report
}

func (e *Engine) abort(report *Report, err error) *Report {
	report.Err = err
	e.aborted.Add(1)
	metrics.ReconcilePassesTotal.WithLabelValues(report.Pass, "aborted").Inc()
	logger.Warningf("Reconciliation aborted: %v", err)
	return report
}

func groupByUser(records []models.BanRecord) map[string][]models.BanRecord {
	byUser := make(map[string][]models.BanRecord)
	for _, record := range records {
		byUser[record.User] = append(byUser[record.User], record)
	}
	return byUser
}
