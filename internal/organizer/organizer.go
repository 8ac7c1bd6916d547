package organizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/xaenox/dm-organizer/internal/aggregate"
	"github.com/xaenox/dm-organizer/internal/linkedin"
	"github.com/xaenox/dm-organizer/internal/models"
	"github.com/xaenox/dm-organizer/internal/sheets"
	"github.com/xaenox/dm-organizer/internal/summarizer"
	"github.com/xaenox/dm-organizer/internal/twitter"
)

const defaultDiscoverRecent = 10

// MessageSource is the slice of the platform client the pipeline needs
type MessageSource interface {
	Verify(ctx context.Context) (models.Profile, error)
	Profile(ctx context.Context, counterpartID string) (models.Profile, error)
	Conversation(ctx context.Context, counterpartID string, maxMessages int, since time.Time) ([]models.Message, error)
	RecentParticipants(ctx context.Context, n int) ([]string, error)
}

// RowWriter is the slice of the sheet client the pipeline needs
type RowWriter interface {
	EnsureHeaders(ctx context.Context) error
	Clear(ctx context.Context) error
	UpsertRows(ctx context.Context, rows []models.OutputRow) (int, error)
}

// Resolver finds LinkedIn profiles for counterparts
type Resolver interface {
	Resolve(ctx context.Context, profile models.Profile, summary models.SummaryResult) models.LinkedInResult
}

// Options are the per-run knobs from the CLI
type Options struct {
	ParticipantIDs []string
	DiscoverRecent int
	MaxMessages    int
	SinceDays      int
	ClearSheet     bool
	DryRun         bool
	EnrichLinkedIn bool
	EnrichLimit    int
}

// Organizer drives the pipeline sequentially: one counterpart at a time
// through fetch, aggregate, summarize, and resolve, then a single sorted
// write pass at the end. Recoverable failures degrade or mark one
// counterpart; only authentication and cancellation abort the run.
type Organizer struct {
	source     MessageSource
	summarizer summarizer.Summarizer
	resolver   Resolver
	writer     RowWriter
	logger     *zap.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

func New(source MessageSource, s summarizer.Summarizer, r Resolver, w RowWriter, logger *zap.Logger) *Organizer {
	return &Organizer{
		source:     source,
		summarizer: s,
		resolver:   r,
		writer:     w,
		logger:     logger,
		sleep:      sleepCtx,
	}
}

// Run executes one full pipeline pass. The returned error is only set
// for conditions that abort the run: verification failures, revoked
// credentials, or cancellation. Per-counterpart failures are counted in
// the report and logged instead.
func (o *Organizer) Run(ctx context.Context, opts Options) (models.RunReport, error) {
	report := models.RunReport{RunID: uuid.New().String()}
	logger := o.logger.With(zap.String("run_id", report.RunID))

	if _, err := o.source.Verify(ctx); err != nil {
		return report, fmt.Errorf("platform verification failed: %w", err)
	}
	if err := o.writer.EnsureHeaders(ctx); err != nil {
		return report, fmt.Errorf("sheet verification failed: %w", err)
	}

	participants, err := o.selectParticipants(ctx, logger, opts)
	if err != nil {
		return report, err
	}
	if len(participants) == 0 {
		logger.Info("No counterparts to process")
		return report, nil
	}
	logger.Info("Processing counterparts",
		zap.Int("count", len(participants)),
		zap.Bool("dry_run", opts.DryRun))

	var since time.Time
	if opts.SinceDays > 0 {
		since = time.Now().AddDate(0, 0, -opts.SinceDays)
	}

	enrichBudget := 0
	if opts.EnrichLinkedIn {
		enrichBudget = opts.EnrichLimit
	}

	var rows []models.OutputRow
	var failures error
	for _, id := range participants {
		res, oc, err := o.processCounterpart(ctx, logger, id, opts, since, &enrichBudget)
		switch oc {
		case outcomeProcessed:
			rows = append(rows, res.row)
			report.Processed++
			report.TotalMessages += res.row.MessageCount
			if res.summarySource == models.SummaryAI {
				report.Summarized++
			}
		case outcomeSkipped:
			report.Skipped++
		case outcomeFailed:
			report.Failed++
			failures = multierr.Append(failures, fmt.Errorf("counterpart %s: %w", id, err))
		case outcomeAborted:
			return report, err
		}
	}

	sheets.SortRows(rows)

	if opts.DryRun {
		logger.Info("Dry run, skipping sheet write", zap.Int("rows", len(rows)))
	} else {
		if opts.ClearSheet {
			if err := o.writer.Clear(ctx); err != nil {
				logger.Error("Failed to clear sheet", zap.Error(err))
				failures = multierr.Append(failures, err)
			}
		}
		written, err := o.writer.UpsertRows(ctx, rows)
		report.Written = written
		if err != nil {
			logger.Error("Write stage failed",
				zap.Error(err),
				zap.Int("written", written),
				zap.Int("pending", len(rows)-written))
			failures = multierr.Append(failures, fmt.Errorf("write stage: %w", err))
		}
	}

	logger.Info("Run complete",
		zap.Int("processed", report.Processed),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Int("total_messages", report.TotalMessages),
		zap.Int("summarized_with_model", report.Summarized),
		zap.Int("rows_written", report.Written))
	if failures != nil {
		logger.Warn("Run finished with failures", zap.Error(failures))
	}
	return report, nil
}

type outcome int

const (
	outcomeProcessed outcome = iota
	outcomeSkipped
	outcomeFailed
	outcomeAborted
)

type counterpartResult struct {
	row           models.OutputRow
	summarySource models.SummarySource
}

func (o *Organizer) processCounterpart(ctx context.Context, logger *zap.Logger, id string, opts Options, since time.Time, enrichBudget *int) (counterpartResult, outcome, error) {
	log := logger.With(zap.String("counterpart_id", id))

	var profile models.Profile
	profileMissing := false
	err := o.withRateLimitRetry(ctx, log, func() error {
		var err error
		profile, err = o.source.Profile(ctx, id)
		return err
	})
	switch {
	case err == nil:
	case errors.Is(err, twitter.ErrNotFound):
		log.Warn("Profile not found, proceeding with placeholder")
		profile = models.Profile{CounterpartID: id}
		profileMissing = true
	case isAbortError(err):
		return counterpartResult{}, outcomeAborted, err
	default:
		log.Error("Profile fetch failed, proceeding with placeholder", zap.Error(err))
		profile = models.Profile{CounterpartID: id}
		profileMissing = true
	}

	var raw []models.Message
	err = o.withRateLimitRetry(ctx, log, func() error {
		var err error
		raw, err = o.source.Conversation(ctx, id, opts.MaxMessages, since)
		return err
	})
	if err != nil {
		if isAbortError(err) {
			return counterpartResult{}, outcomeAborted, err
		}
		log.Error("Conversation fetch failed", zap.Error(err))
		return counterpartResult{}, outcomeFailed, err
	}
	if len(raw) == 0 {
		log.Info("No messages in the selected window, skipping")
		return counterpartResult{}, outcomeSkipped, nil
	}

	conv := aggregate.Aggregate(raw, id)
	summary := o.summarizer.Summarize(ctx, conv, profile)

	linkedIn := models.LinkedInResult{
		Confidence: models.ConfidenceNotFound,
		Method:     models.MethodAI,
		Reasoning:  "profile unavailable",
	}
	if !profileMissing {
		linkedIn = o.resolveLinkedIn(ctx, profile, summary, enrichBudget)
	}

	row := sheets.BuildRow(profile, conv, summary, linkedIn)
	log.Info("Counterpart processed",
		zap.Int("messages", conv.MessageCount),
		zap.String("summary_source", string(summary.Source)),
		zap.String("linkedin_confidence", string(linkedIn.Confidence)))
	return counterpartResult{row: row, summarySource: summary.Source}, outcomeProcessed, nil
}

// resolveLinkedIn always runs the free pattern scan; the model stage
// additionally needs remaining enrichment budget. A model consultation,
// whatever its verdict, spends one unit of budget.
func (o *Organizer) resolveLinkedIn(ctx context.Context, profile models.Profile, summary models.SummaryResult, budget *int) models.LinkedInResult {
	if *budget > 0 {
		res := o.resolver.Resolve(ctx, profile, summary)
		if res.Method == models.MethodAI {
			*budget--
		}
		return res
	}
	if url, ok := linkedin.ExtractProfileURL(profile.Bio, profile.Website); ok {
		return models.LinkedInResult{
			URL:        url,
			Confidence: models.ConfidenceHigh,
			Method:     models.MethodPattern,
		}
	}
	return models.LinkedInResult{
		Confidence: models.ConfidenceNotFound,
		Method:     models.MethodAI,
		Reasoning:  "enrichment disabled or budget exhausted",
	}
}

func (o *Organizer) selectParticipants(ctx context.Context, logger *zap.Logger, opts Options) ([]string, error) {
	if len(opts.ParticipantIDs) > 0 {
		return dedupe(opts.ParticipantIDs), nil
	}
	n := opts.DiscoverRecent
	if n <= 0 {
		n = defaultDiscoverRecent
	}
	var ids []string
	err := o.withRateLimitRetry(ctx, logger, func() error {
		var err error
		ids, err = o.source.RecentParticipants(ctx, n)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("discovering recent counterparts: %w", err)
	}
	return ids, nil
}

// withRateLimitRetry runs call, sleeping through rate-limit windows until
// it settles. Every other error returns as-is.
func (o *Organizer) withRateLimitRetry(ctx context.Context, log *zap.Logger, call func() error) error {
	for {
		err := call()
		var rle *twitter.RateLimitError
		if !errors.As(err, &rle) {
			return err
		}
		wait := time.Until(rle.ResetAt) + time.Second
		log.Warn("Rate limit reached, waiting for window reset",
			zap.Time("reset_at", rle.ResetAt),
			zap.Duration("wait", wait))
		if err := o.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func isAbortError(err error) bool {
	var authErr *twitter.AuthError
	return errors.As(err, &authErr) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	var out []string
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
