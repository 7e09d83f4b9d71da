package syncengine

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/apotekcloud/pos-terminal/pkg/cloud"
	"github.com/apotekcloud/pos-terminal/pkg/config"
	"github.com/apotekcloud/pos-terminal/pkg/db/models"
	"github.com/apotekcloud/pos-terminal/pkg/enums"
	pkgerrors "github.com/apotekcloud/pos-terminal/pkg/errors"
	"github.com/apotekcloud/pos-terminal/pkg/logger"
	"github.com/apotekcloud/pos-terminal/pkg/metrics"
)

// Reason names what triggered a drain pass.
type Reason string

const (
	ReasonBecameOnline Reason = "became_online"
	ReasonManual       Reason = "manual"
	ReasonPostCheckout Reason = "post_checkout"
)

const (
	outcomeSynced   = "synced"
	outcomeFailed   = "failed"
	outcomeRejected = "rejected"
)

// Result summarizes one drain pass.
type Result struct {
	Attempted int  `json:"attempted"`
	Synced    int  `json:"synced"`
	Failed    int  `json:"failed"`
	Remaining int  `json:"remaining"`
	Aborted   bool `json:"aborted"`
	// Coalesced is set when an overlapping trigger folded into a pass that
	// was already running.
	Coalesced bool `json:"coalesced"`
}

type pendingSource interface {
	Pending(ctx context.Context, entityType enums.EntityType) ([]models.Record, error)
}

type statusMarker interface {
	MarkSyncStatus(ctx context.Context, entityType enums.EntityType, id string, status enums.SyncStatus) error
}

type onlineChecker interface {
	Online() bool
}

type submitter interface {
	Submit(ctx context.Context, idempotencyKey string, payload json.RawMessage) error
}

// Engine drains the outbox against the cloud authority. Delivery is
// at-least-once; the authority dedupes on the idempotency key, so a record
// resubmitted after a lost confirmation has exactly-once effect remotely.
type Engine struct {
	tracker pendingSource
	store   statusMarker
	online  onlineChecker
	client  submitter
	metrics *metrics.SyncMetrics
	logg    *logger.Logger
	cfg     config.SyncConfig

	mu      sync.Mutex
	running bool
	rerun   bool
}

// NewEngine builds the sync engine.
func NewEngine(
	tracker pendingSource,
	store statusMarker,
	online onlineChecker,
	client submitter,
	syncMetrics *metrics.SyncMetrics,
	logg *logger.Logger,
	cfg config.SyncConfig,
) (*Engine, error) {
	if tracker == nil {
		return nil, fmt.Errorf("pending source required")
	}
	if store == nil {
		return nil, fmt.Errorf("status marker required")
	}
	if online == nil {
		return nil, fmt.Errorf("online checker required")
	}
	if client == nil {
		return nil, fmt.Errorf("cloud client required")
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}
	return &Engine{
		tracker: tracker,
		store:   store,
		online:  online,
		client:  client,
		metrics: syncMetrics,
		logg:    logg,
		cfg:     cfg,
	}, nil
}

// Drain pushes every outstanding transaction to the authority and reports
// what happened. Only one pass runs at a time: a trigger arriving mid-pass
// queues exactly one rerun and returns immediately with Coalesced set.
// Going offline mid-pass stops new submissions; marks already applied stay.
func (e *Engine) Drain(ctx context.Context, reason Reason) (Result, error) {
	if !e.online.Online() {
		return Result{}, pkgerrors.New(pkgerrors.CodeOffline, "cannot sync while offline")
	}

	e.mu.Lock()
	if e.running {
		e.rerun = true
		e.mu.Unlock()
		return Result{Coalesced: true}, nil
	}
	e.running = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	result, err := e.pass(ctx, reason)
	if err != nil {
		return result, err
	}

	// Fold queued triggers into followup passes within the same drain call.
	for {
		e.mu.Lock()
		rerun := e.rerun
		e.rerun = false
		e.mu.Unlock()
		if !rerun || !e.online.Online() {
			break
		}
		followup, err := e.pass(ctx, reason)
		if err != nil {
			return result, err
		}
		result.Attempted += followup.Attempted
		result.Synced += followup.Synced
		result.Failed += followup.Failed
		result.Remaining = followup.Remaining
		result.Aborted = followup.Aborted
	}
	return result, nil
}

// TriggerAsync starts a drain in the background. The returned channel closes
// when the pass finishes; fire-and-forget call sites simply ignore it.
func (e *Engine) TriggerAsync(ctx context.Context, reason Reason) <-chan Result {
	done := make(chan Result, 1)
	go func() {
		defer close(done)
		result, err := e.Drain(ctx, reason)
		if err != nil && e.logg != nil {
			e.logg.Warn(e.logg.WithField(ctx, "reason", string(reason)), "sync trigger failed: "+err.Error())
		}
		done <- result
	}()
	return done
}

func (e *Engine) pass(ctx context.Context, reason Reason) (Result, error) {
	start := time.Now()
	defer func() {
		e.metrics.ObserveRun(string(reason), time.Since(start))
	}()

	records, err := e.tracker.Pending(ctx, enums.EntityTransaction)
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading outbox")
	}

	var result Result
	result.Remaining = len(records)
	logCtx := ctx
	if e.logg != nil {
		logCtx = e.logg.WithFields(ctx, map[string]any{
			"reason":  string(reason),
			"backlog": len(records),
		})
		e.logg.Info(logCtx, "sync pass started")
	}

	for _, record := range records {
		if ctx.Err() != nil {
			result.Aborted = true
			break
		}
		if !e.online.Online() {
			// Connectivity dropped mid-pass. Everything already marked
			// synced stays synced; the rest waits for the next trigger.
			result.Aborted = true
			break
		}

		result.Attempted++
		if e.submitOne(ctx, record) {
			result.Synced++
			result.Remaining--
		} else {
			result.Failed++
		}
	}

	e.metrics.SetPending(result.Remaining)
	if e.logg != nil {
		e.logg.Info(e.logg.WithFields(logCtx, map[string]any{
			"synced":    result.Synced,
			"failed":    result.Failed,
			"remaining": result.Remaining,
			"aborted":   result.Aborted,
		}), "sync pass finished")
	}
	return result, nil
}

// submitOne pushes a single record with bounded retries and flips its sync
// status by outcome. It reports whether the record reached synced.
func (e *Engine) submitOne(ctx context.Context, record models.Record) bool {
	logCtx := ctx
	if e.logg != nil {
		logCtx = e.logg.WithTransactionNumber(ctx, record.UniqueKey)
	}

	backoff := retry.WithCappedDuration(e.cfg.MaxBackoff, retry.NewExponential(e.cfg.InitialBackoff))
	backoff = retry.WithMaxRetries(uint64(e.cfg.MaxAttempts-1), backoff)

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		submitErr := e.client.Submit(ctx, record.UniqueKey, record.Payload)
		if submitErr == nil {
			return nil
		}
		if cloud.IsRejection(submitErr) {
			return submitErr
		}
		return retry.RetryableError(submitErr)
	})

	if err != nil {
		outcome := outcomeFailed
		if cloud.IsRejection(err) {
			outcome = outcomeRejected
		}
		e.metrics.IncSubmission(outcome)
		if e.logg != nil {
			e.logg.Warn(logCtx, "submission failed: "+err.Error())
		}
		if markErr := e.store.MarkSyncStatus(ctx, record.EntityType, record.ID, enums.SyncFailed); markErr != nil && e.logg != nil {
			e.logg.Error(logCtx, "marking record sync_failed", markErr)
		}
		return false
	}

	if markErr := e.store.MarkSyncStatus(ctx, record.EntityType, record.ID, enums.SyncSynced); markErr != nil {
		// The authority has the record but the local mark failed. The next
		// pass resubmits and the idempotency key absorbs the duplicate.
		if e.logg != nil {
			e.logg.Error(logCtx, "marking record synced", markErr)
		}
		return false
	}
	e.metrics.IncSubmission(outcomeSynced)
	return true
}
