package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/clientdesk/clientdesk/modules/crm/domain/aggregates/client"
	"github.com/clientdesk/clientdesk/modules/crm/domain/events"
	"github.com/clientdesk/clientdesk/modules/crm/importer"
	"github.com/clientdesk/clientdesk/pkg/composables"
	"github.com/clientdesk/clientdesk/pkg/configuration"
	"github.com/clientdesk/clientdesk/pkg/eventbus"
)

// progressEvery bounds how often a snapshot is published during row handling.
const progressEvery = 500

// ImportJobOptions are per-request knobs. Zero values take the configured
// defaults; BatchSize is clamped into the configured [min, max] range.
type ImportJobOptions struct {
	RunID                   string
	BatchSize               int
	SkipValidation          bool
	SkipPaymentTokenization bool
}

type ImportService struct {
	repo      client.Repository
	publisher eventbus.EventBus
	progress  importer.ProgressReporter
	opts      configuration.ImportOptions
}

func NewImportService(
	repo client.Repository,
	publisher eventbus.EventBus,
	progress importer.ProgressReporter,
	opts configuration.ImportOptions,
) *ImportService {
	if progress == nil {
		progress = importer.NopProgressReporter{}
	}
	return &ImportService{
		repo:      repo,
		publisher: publisher,
		progress:  progress,
		opts:      opts,
	}
}

// ImportCSV runs the full pipeline over a raw CSV payload: delimiter
// detection, header aliasing, normalization, permissive validation, identity
// resolution, chunked unordered bulk upserts, then bounded-concurrency
// payment attachment. The returned summary is complete only once payment
// attachment has been joined.
func (s *ImportService) ImportCSV(ctx context.Context, data []byte, importedBy string, jobOpts ImportJobOptions) (*importer.Summary, error) {
	var rows []map[string]string
	err := importer.ReadCSV(data, func(_ int, row map[string]string) error {
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.run(ctx, "csv", rows, importedBy, jobOpts, false)
}

// ImportBatch is the pre-sanitized JSON path: same pipeline, but numeric
// coercion failures default to zero silently instead of warning.
func (s *ImportService) ImportBatch(ctx context.Context, rows []map[string]string, importedBy string, jobOpts ImportJobOptions) (*importer.Summary, error) {
	return s.run(ctx, "batch", rows, importedBy, jobOpts, true)
}

// Progress returns the latest snapshot for a run, if the configured reporter
// still holds one.
func (s *ImportService) Progress(ctx context.Context, runID string) (*importer.Progress, error) {
	return s.progress.Fetch(ctx, runID)
}

// paymentTask pairs a draft's raw payment data with the id its record ended
// up under. ID may be empty when the row matched by email; the worker
// resolves it with a lookup.
type paymentTask struct {
	row     int
	id      string
	email   string
	payment importer.RawPayment
}

type paymentOutcome struct {
	added   bool
	warning *importer.Issue
}

func (s *ImportService) run(ctx context.Context, source string, rows []map[string]string, importedBy string, jobOpts ImportJobOptions, fastPath bool) (*importer.Summary, error) {
	started := time.Now()
	logger := composables.UseLogger(ctx)

	runID := jobOpts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	batchSize := s.clampBatchSize(jobOpts.BatchSize)

	summary := importer.NewSummary(s.opts.MaxReportedIssues)
	summary.TotalProcessed = len(rows)

	snapshot := func(phase string, processed int) {
		p := importer.Progress{
			RunID:         runID,
			Phase:         phase,
			TotalRows:     len(rows),
			ProcessedRows: processed,
			Created:       summary.Created,
			Updated:       summary.Updated,
			Failed:        summary.Failed,
			Skipped:       summary.Skipped,
			UpdatedAt:     time.Now(),
		}
		if err := s.progress.Publish(ctx, p); err != nil {
			logger.WithError(err).Warn("import progress publish failed")
		}
	}
	snapshot("normalizing", 0)

	normOpts := importer.NormalizeOptions{ImportedBy: importedBy, FastPath: fastPath}

	var (
		ops      []client.BulkOperation
		payments []paymentTask
	)
	for i, row := range rows {
		rowNum := i + 1

		draft, warnings := importer.NormalizeRow(rowNum, row, normOpts)
		if !fastPath {
			summary.AddWarnings(warnings)
		}
		if draft == nil {
			summary.Skipped++
			continue
		}

		if jobOpts.SkipValidation || fastPath {
			importer.Lenient(draft)
		} else {
			result := importer.Validate(draft)
			summary.AddWarnings(result.Warnings)
			if !result.IsValid() {
				summary.Failed++
				for _, issue := range result.Errors {
					summary.AddError(issue)
				}
				continue
			}
			s.warnOnDuplicate(ctx, draft, summary)
		}

		op := importer.ResolveIdentity(draft)
		ops = append(ops, op)

		if !draft.Payment.IsEmpty() && !jobOpts.SkipPaymentTokenization {
			task := paymentTask{row: rowNum, payment: draft.Payment}
			if op.FilterID != "" {
				task.id = op.FilterID
			} else if op.InsertOnly && op.Patch.ID != nil {
				task.id = *op.Patch.ID
			} else {
				task.email = op.FilterEmail
			}
			payments = append(payments, task)
		}

		if rowNum%progressEvery == 0 {
			snapshot("normalizing", rowNum)
		}
	}

	snapshot("writing", len(rows))

	failedRows := make(map[int]bool)
	for start := 0; start < len(ops); start += batchSize {
		end := start + batchSize
		if end > len(ops) {
			end = len(ops)
		}
		chunk := ops[start:end]

		result, err := s.repo.BulkUpsert(ctx, chunk)
		if err != nil {
			// A chunk-level failure means the store rejected the write as a
			// whole; partial counts from earlier chunks stand.
			logger.WithError(err).Error("bulk upsert chunk failed")
			return nil, err
		}

		summary.Created += int(result.Inserted + result.Upserted)
		summary.Updated += int(result.Matched)
		for _, opErr := range result.Errors {
			summary.Failed++
			failedRows[opErr.Row] = true
			summary.AddError(importer.Issue{Row: opErr.Row, Message: opErr.Message})
		}
		for row, id := range result.UpsertedIDs {
			for i := range payments {
				if payments[i].row == row {
					payments[i].id = id
				}
			}
		}
		snapshot("writing", len(rows))
	}

	if len(payments) > 0 {
		snapshot("attaching", len(rows))
		s.attachPayments(ctx, payments, failedRows, summary)
	}

	summary.Successful = summary.Created + summary.Updated
	snapshot("done", len(rows))

	duration := time.Since(started)
	logger.WithField("runId", runID).
		WithField("source", source).
		WithField("created", summary.Created).
		WithField("updated", summary.Updated).
		WithField("failed", summary.Failed).
		WithField("skipped", summary.Skipped).
		WithField("duration", duration.String()).
		Info("import completed")

	s.publisher.Publish(&events.ImportCompletedEvent{
		RunID:      runID,
		Source:     source,
		ImportedBy: importedBy,
		Summary:    summary,
		Duration:   duration,
	})

	return summary, nil
}

// attachPayments tokenizes and attaches card data for rows whose write
// succeeded, over a bounded worker pool. Attachment failures degrade to
// warnings; they never fail the import. The pool is always joined before the
// summary is returned.
func (s *ImportService) attachPayments(ctx context.Context, tasks []paymentTask, failedRows map[int]bool, summary *importer.Summary) {
	logger := composables.UseLogger(ctx)

	workers := s.opts.PaymentWorkers
	if workers <= 0 {
		workers = 16
	}

	outcomes := make([]paymentOutcome, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, task := range tasks {
		if failedRows[task.row] {
			continue
		}
		i, task := i, task
		g.Go(func() error {
			outcomes[i] = s.attachOne(gctx, task)
			return nil
		})
	}
	// Workers only report outcomes, never errors; Wait is the join point.
	_ = g.Wait()

	for i, task := range tasks {
		if failedRows[task.row] {
			continue
		}
		summary.PaymentAttempted++
		if outcomes[i].added {
			summary.PaymentAdded++
		}
		if outcomes[i].warning != nil {
			summary.AddWarning(*outcomes[i].warning)
		}
	}

	logger.WithField("attempted", summary.PaymentAttempted).
		WithField("added", summary.PaymentAdded).
		Debug("payment attachment joined")
}

func (s *ImportService) attachOne(ctx context.Context, task paymentTask) paymentOutcome {
	warn := func(message string) paymentOutcome {
		return paymentOutcome{warning: &importer.Issue{
			Row:     task.row,
			Field:   importer.FieldCardNumber,
			Message: message,
		}}
	}

	// Card text that does not tokenize is skipped silently; only the
	// attempted/added counters reflect it.
	method, reason, ok := importer.Tokenize(task.payment)
	if !ok {
		composables.UseLogger(ctx).
			WithField("row", task.row).
			WithField("reason", reason).
			Debug("payment tokenization skipped")
		return paymentOutcome{}
	}

	id := task.id
	if id == "" {
		record, err := s.repo.GetByEmail(ctx, task.email)
		if err != nil {
			return warn("payment skipped: record could not be resolved")
		}
		id = record.ID
	}

	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return warn("payment skipped: record could not be loaded")
	}

	record.AttachPaymentMethod(method)
	if err := s.repo.SavePaymentProfile(ctx, record.ID, record.Payment); err != nil {
		return warn("payment skipped: profile write failed")
	}
	return paymentOutcome{added: true}
}

// warnOnDuplicate emits an advisory warning when a row's name and email both
// match an existing record. Advisory only: the write proceeds regardless.
func (s *ImportService) warnOnDuplicate(ctx context.Context, d *importer.Draft, summary *importer.Summary) {
	if d.Patch.Name == nil || d.Patch.Email == nil {
		return
	}
	exists, err := s.repo.Exists(ctx, *d.Patch.Name, *d.Patch.Email)
	if err != nil || !exists {
		return
	}
	summary.AddWarning(importer.Issue{
		Row:     d.Row,
		Field:   importer.FieldEmail,
		Value:   *d.Patch.Email,
		Message: "a client with this name and email already exists",
	})
}

func (s *ImportService) clampBatchSize(requested int) int {
	size := requested
	if size == 0 {
		size = s.opts.BatchSize
	}
	if size == 0 {
		size = 2000
	}
	if min := s.opts.MinBatchSize; min > 0 && size < min {
		size = min
	}
	if max := s.opts.MaxBatchSize; max > 0 && size > max {
		size = max
	}
	return size
}
