package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/evanofslack/zone-update/async"
	"github.com/evanofslack/zone-update/internal/metrics"
	"github.com/evanofslack/zone-update/internal/source"
	"github.com/evanofslack/zone-update/internal/state"
	"github.com/evanofslack/zone-update/provider"
)

const (
	reasonProtected = "protected"
	reasonUnmanaged = "exists with a different value and is not owned"
	reasonDrifted   = "changed outside of zone-update"
)

type Engine interface {
	Reconcile(ctx context.Context, desired []source.Record) (Results, error)
}

type Options struct {
	Domain    string
	Owner     string
	DryRun    bool
	Protected []string
}

type engine struct {
	stateManager state.Manager
	dns          *async.Provider
	dryRun       bool
	protected    map[string]bool
	domain       string
	owner        string
	metrics      *metrics.Metrics
	now          func() time.Time
}

func NewEngine(sm state.Manager, dp *async.Provider, opts Options, metrics *metrics.Metrics) *engine {
	protected := make(map[string]bool)
	for _, r := range opts.Protected {
		protected[r] = true
	}
	return &engine{
		stateManager: sm,
		dns:          dp,
		dryRun:       opts.DryRun,
		protected:    protected,
		domain:       opts.Domain,
		owner:        opts.Owner,
		metrics:      metrics,
		now:          time.Now,
	}
}

func (e *engine) Reconcile(ctx context.Context, desired []source.Record) (Results, error) {
	runID := uuid.NewString()
	log := slog.Default().With("run", runID)

	prevState, err := e.stateManager.LoadState(ctx)
	if err != nil {
		return Results{RunID: runID}, fmt.Errorf("load state: %w", err)
	}

	plan, nextState, err := e.generatePlan(ctx, desired, prevState, runID)
	if err != nil {
		return Results{RunID: runID}, fmt.Errorf("generate plan: %w", err)
	}
	log.Debug("Generated plan", "create", len(plan.Create), "update", len(plan.Update), "delete", len(plan.Delete), "skipped", len(plan.Skipped))

	if plan.IsEmpty() {
		log.Info("No changes, ending reconciliation", "skipped", len(plan.Skipped))
		if !e.dryRun {
			if err := e.stateManager.SaveState(ctx, nextState); err != nil {
				return Results{RunID: runID, Skipped: plan.Skipped}, fmt.Errorf("save state: %w", err)
			}
		}
		return Results{RunID: runID, Skipped: plan.Skipped}, nil
	}

	results, err := e.executePlan(ctx, log, plan, nextState)
	results.RunID = runID
	if err != nil {
		return results, fmt.Errorf("execute plan: %w", err)
	}
	return results, nil
}

// generatePlan compares the desired records with what this instance owns
// and with the live zone. It only ever touches records it created, or
// records that already hold the desired value.
func (e *engine) generatePlan(ctx context.Context, desired []source.Record, prev state.State, runID string) (Plan, state.State, error) {
	plan := Plan{}
	next := state.NewState()
	seen := e.now().Unix()

	want := make(map[state.Key]source.Record, len(desired))
	for _, r := range desired {
		if r.Type == provider.TXT {
			r.Value = provider.EnsureQuotes(r.Value)
		}
		want[keyOf(r)] = r
	}

	// Anything not already in sync with the state needs a live lookup.
	var check []state.Key
	for k, r := range want {
		if e.isProtected(k.Host) {
			plan.Skipped = append(plan.Skipped, Skip{Record: r, Reason: reasonProtected})
			e.metrics.IncDNSOperation("skip", e.domain, k.Type.String())
			continue
		}
		if entry, ok := prev.Records[k]; ok && entry.Value == r.Value {
			entry.LastSeen = seen
			next.Records[k] = entry
			continue
		}
		check = append(check, k)
	}
	for k, entry := range prev.Records {
		if _, ok := want[k]; ok {
			continue
		}
		if e.isProtected(k.Host) {
			next.Records[k] = entry
			continue
		}
		check = append(check, k)
	}
	sortKeys(check)

	lookups := make([]*async.Future[*provider.Record], len(check))
	for i, k := range check {
		lookups[i] = e.dns.GetRecord(ctx, k.Type, k.Host)
	}

	for i, k := range check {
		live, err := lookups[i].Await(ctx)
		if err != nil {
			return plan, next, fmt.Errorf("get %s record %s: %w", k.Type, k.Host, err)
		}
		entry, owned := prev.Records[k]
		r, wanted := want[k]

		switch {
		case wanted && live == nil:
			plan.Create = append(plan.Create, r)
			e.metrics.IncDNSOperation("create", e.domain, k.Type.String())
		case wanted && live.Value == r.Value:
			slog.Default().Debug("Record already in sync", "host", k.Host, "type", k.Type)
		case wanted && owned:
			plan.Update = append(plan.Update, r)
			e.metrics.IncDNSOperation("update", e.domain, k.Type.String())
		case wanted:
			slog.Default().Warn("Skipping record not owned by this instance", "host", k.Host, "type", k.Type, "value", live.Value)
			plan.Skipped = append(plan.Skipped, Skip{Record: r, Reason: reasonUnmanaged})
			e.metrics.IncDNSOperation("skip", e.domain, k.Type.String())
			continue
		case live == nil:
			slog.Default().Debug("Owned record already gone", "host", k.Host, "type", k.Type)
			continue
		case live.Value == entry.Value:
			plan.Delete = append(plan.Delete, source.Record{Host: k.Host, Type: k.Type, Value: entry.Value})
			e.metrics.IncDNSOperation("delete", e.domain, k.Type.String())
			continue
		default:
			slog.Default().Warn("Releasing record changed outside of zone-update", "host", k.Host, "type", k.Type, "value", live.Value)
			plan.Skipped = append(plan.Skipped, Skip{Record: source.Record{Host: k.Host, Type: k.Type, Value: live.Value}, Reason: reasonDrifted})
			e.metrics.IncDNSOperation("skip", e.domain, k.Type.String())
			continue
		}
		next.Records[k] = state.Entry{Value: r.Value, Owner: e.owner, RunID: runID, LastSeen: seen}
	}
	return plan, next, nil
}

func (e *engine) executePlan(ctx context.Context, log *slog.Logger, plan Plan, newState state.State) (Results, error) {
	results := Results{Skipped: plan.Skipped}

	if e.dryRun {
		for _, r := range plan.Create {
			log.Info("Dry run mode - would create record", "host", r.Host, "type", r.Type, "value", r.Value)
		}
		for _, r := range plan.Update {
			log.Info("Dry run mode - would update record", "host", r.Host, "type", r.Type, "value", r.Value)
		}
		for _, r := range plan.Delete {
			log.Info("Dry run mode - would delete record", "host", r.Host, "type", r.Type)
		}
		// In dry-run mode, return early without saving state
		results.Created = append(results.Created, plan.Create...)
		results.Updated = append(results.Updated, plan.Update...)
		results.Deleted = append(results.Deleted, plan.Delete...)
		return results, nil
	}

	type pending struct {
		op     string
		record source.Record
		future *async.Future[struct{}]
	}
	var ops []pending
	for _, r := range plan.Create {
		ops = append(ops, pending{"create", r, e.dns.CreateRecord(ctx, r.Type, r.Host, r.Value)})
	}
	for _, r := range plan.Update {
		ops = append(ops, pending{"update", r, e.dns.UpdateRecord(ctx, r.Type, r.Host, r.Value)})
	}
	for _, r := range plan.Delete {
		ops = append(ops, pending{"delete", r, e.dns.DeleteRecord(ctx, r.Type, r.Host)})
	}

	for _, op := range ops {
		if _, err := op.future.Await(ctx); err != nil {
			log.Error("Failed to "+op.op+" record", "host", op.record.Host, "type", op.record.Type, "error", err)
			results.Failures = append(results.Failures, OperationResult{
				Record: op.record,
				Op:     op.op,
				Error:  err.Error(),
			})
			continue
		}
		switch op.op {
		case "create":
			results.Created = append(results.Created, op.record)
		case "update":
			results.Updated = append(results.Updated, op.record)
		case "delete":
			results.Deleted = append(results.Deleted, op.record)
		}
	}

	// Only persist state if all operations succeeded
	if len(results.Failures) == 0 {
		if err := e.stateManager.SaveState(ctx, newState); err != nil {
			return results, fmt.Errorf("save state: %w", err)
		}
	} else {
		log.Warn("Not persisting state due to failed operations", "failures", len(results.Failures))
	}
	return results, nil
}

func (e *engine) isProtected(host string) bool {
	return e.protected[host]
}

func sortKeys(keys []state.Key) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Host != keys[j].Host {
			return keys[i].Host < keys[j].Host
		}
		return keys[i].Type < keys[j].Type
	})
}
