package services

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/clientdesk/clientdesk/modules/crm/domain/aggregates/client"
	"github.com/clientdesk/clientdesk/modules/crm/domain/events"
	"github.com/clientdesk/clientdesk/modules/crm/importer"
	"github.com/clientdesk/clientdesk/pkg/configuration"
	"github.com/clientdesk/clientdesk/pkg/eventbus"
)

func testImportOptions() configuration.ImportOptions {
	return configuration.ImportOptions{
		BatchSize:         2000,
		MinBatchSize:      500,
		MaxBatchSize:      5000,
		PaymentWorkers:    4,
		MaxReportedIssues: 100,
	}
}

func newTestImportService(repo client.Repository) (*ImportService, eventbus.EventBus) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	bus := eventbus.NewEventPublisher(logger)
	return NewImportService(repo, bus, importer.NopProgressReporter{}, testImportOptions()), bus
}

func TestImportCSV_CreatesUpdatesAndSkips(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	existing := client.New("existing-1", "Globex", "agent@example.com")
	existing.Email = "g@globex.com"
	require.NoError(t, repo.Create(context.Background(), existing))

	csvData := strings.Join([]string{
		"name,email,status,Forecasted Amount",
		"Acme,a@acme.com,Committed,\"$12,500.00\"",
		"Globex Revised,g@globex.com,Closed won,900",
		",,,",
		"Solo Phone,,Sampling,",
	}, "\n")

	svc, _ := newTestImportService(repo)
	summary, err := svc.ImportCSV(context.Background(), []byte(csvData), "agent@example.com", ImportJobOptions{})
	require.NoError(t, err)

	require.Equal(t, 4, summary.TotalProcessed)
	require.Equal(t, 2, summary.Created, "acme and the generated-id row")
	require.Equal(t, 1, summary.Updated, "globex matched by email")
	require.Equal(t, 1, summary.Skipped, "the all-empty row")
	require.Zero(t, summary.Failed)
	require.Equal(t, summary.Created+summary.Updated, summary.Successful)

	updated, err := repo.GetByEmail(context.Background(), "g@globex.com")
	require.NoError(t, err)
	require.Equal(t, "Globex Revised", updated.Name)
	require.Equal(t, client.StatusClosedWon, updated.ContactStatus)
	require.InDelta(t, 900, updated.ForecastedAmount, 1e-9)

	created, err := repo.GetByEmail(context.Background(), "a@acme.com")
	require.NoError(t, err)
	require.InDelta(t, 12500, created.ForecastedAmount, 1e-9)
	require.Equal(t, client.StatusCommitted, created.ContactStatus)
}

func TestImportCSV_Idempotent(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	csvData := "name,email\nAcme,a@acme.com\nGlobex,g@globex.com\n"

	svc, _ := newTestImportService(repo)
	first, err := svc.ImportCSV(context.Background(), []byte(csvData), "agent@example.com", ImportJobOptions{})
	require.NoError(t, err)
	require.Equal(t, 2, first.Created)

	second, err := svc.ImportCSV(context.Background(), []byte(csvData), "agent@example.com", ImportJobOptions{})
	require.NoError(t, err)
	require.Zero(t, second.Created)
	require.Equal(t, 2, second.Updated)

	total, err := repo.Count(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
}

func TestImportBatch_ChunkingIsTransparent(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	rows := make([]map[string]string, 1200)
	for i := range rows {
		rows[i] = map[string]string{"name": "Client " + uuid.NewString()}
	}

	svc, _ := newTestImportService(repo)
	// Requested size below the window is clamped up to the 500 minimum.
	summary, err := svc.ImportBatch(context.Background(), rows, "agent@example.com", ImportJobOptions{BatchSize: 100})
	require.NoError(t, err)

	require.Equal(t, []int{500, 500, 200}, repo.chunkSizes())
	require.Equal(t, 1200, summary.Created)
	require.Zero(t, summary.Failed)
}

func TestImportBatch_DefaultChunkSize(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	rows := make([]map[string]string, 2500)
	for i := range rows {
		rows[i] = map[string]string{"name": "Client " + uuid.NewString()}
	}

	svc, _ := newTestImportService(repo)
	summary, err := svc.ImportBatch(context.Background(), rows, "agent@example.com", ImportJobOptions{})
	require.NoError(t, err)

	require.Equal(t, []int{2000, 500}, repo.chunkSizes())
	require.Equal(t, 2500, summary.Created)
}

func TestImportCSV_RowFailureDoesNotAffectSiblings(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	repo.failRow(5)

	var sb strings.Builder
	sb.WriteString("name,email\n")
	for i := 1; i <= 10; i++ {
		sb.WriteString("Client ")
		sb.WriteString(uuid.NewString())
		sb.WriteString(",c")
		sb.WriteString(strings.Repeat("x", i))
		sb.WriteString("@example.com\n")
	}

	svc, _ := newTestImportService(repo)
	summary, err := svc.ImportCSV(context.Background(), []byte(sb.String()), "agent@example.com", ImportJobOptions{})
	require.NoError(t, err)

	require.Equal(t, 9, summary.Created)
	require.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Errors, 1)
	require.Equal(t, 5, summary.Errors[0].Row)
}

func TestImportCSV_PaymentAttachment(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	csvData := strings.Join([]string{
		"name,email,CC Number,Expiration,CVV",
		"Acme,a@acme.com,4242 4242 4242 4242,9/27,123",
		"Globex,g@globex.com,4111,9/27,123",
		"Initech,i@initech.com,,,",
	}, "\n")

	svc, _ := newTestImportService(repo)
	summary, err := svc.ImportCSV(context.Background(), []byte(csvData), "agent@example.com", ImportJobOptions{})
	require.NoError(t, err)

	require.Equal(t, 3, summary.Created)
	require.Equal(t, 2, summary.PaymentAttempted, "rows with any card data")
	require.Equal(t, 1, summary.PaymentAdded, "only the valid card")

	acme, err := repo.GetByEmail(context.Background(), "a@acme.com")
	require.NoError(t, err)
	require.Len(t, acme.Payment.Methods, 1)
	pm := acme.Payment.Methods[0]
	require.Equal(t, "visa", pm.Brand)
	require.Equal(t, "4242", pm.Last4)
	require.True(t, pm.IsDefault)
	require.Equal(t, "************4242", acme.CardNumberMasked)

	// The short card number is skipped silently: no failure, no warning,
	// only the attempted/added gap.
	require.Zero(t, summary.Failed)
	for _, w := range summary.Warnings {
		require.NotEqual(t, 2, w.Row, "unparsable card text should not surface a row warning")
	}

	initech, err := repo.GetByEmail(context.Background(), "i@initech.com")
	require.NoError(t, err)
	require.Empty(t, initech.Payment.Methods)
}

func TestImportCSV_PaymentSkippedWhenRequested(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	csvData := "name,email,CC Number,Expiration\nAcme,a@acme.com,4242424242424242,9/27\n"

	svc, _ := newTestImportService(repo)
	summary, err := svc.ImportCSV(context.Background(), []byte(csvData), "agent@example.com", ImportJobOptions{SkipPaymentTokenization: true})
	require.NoError(t, err)

	require.Zero(t, summary.PaymentAttempted)
	acme, err := repo.GetByEmail(context.Background(), "a@acme.com")
	require.NoError(t, err)
	require.Empty(t, acme.Payment.Methods)
	// The masked display field still lands; the raw number never does.
	require.Equal(t, "************4242", acme.CardNumberMasked)
}

func TestImportCSV_DuplicateAdvisoryWarning(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	existing := client.New("existing-1", "Acme", "agent@example.com")
	existing.Email = "a@acme.com"
	require.NoError(t, repo.Create(context.Background(), existing))

	csvData := "name,email\nAcme,a@acme.com\n"
	svc, _ := newTestImportService(repo)
	summary, err := svc.ImportCSV(context.Background(), []byte(csvData), "agent@example.com", ImportJobOptions{})
	require.NoError(t, err)

	require.Equal(t, 1, summary.Updated, "advisory only; the write proceeds")
	require.NotEmpty(t, summary.Warnings)
	require.Contains(t, summary.Warnings[0].Message, "already exists")
}

func TestImportBatch_FastPathDefaultsAmountToZero(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	rows := []map[string]string{
		{"name": "Acme", "email": "a@acme.com", "forecastedAmount": "not-a-number"},
	}

	svc, _ := newTestImportService(repo)
	summary, err := svc.ImportBatch(context.Background(), rows, "agent@example.com", ImportJobOptions{})
	require.NoError(t, err)
	require.Empty(t, summary.Warnings)

	acme, err := repo.GetByEmail(context.Background(), "a@acme.com")
	require.NoError(t, err)
	require.Zero(t, acme.ForecastedAmount)
}

func TestImportCSV_SkipValidationStillDefaultsStatus(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	csvData := "name,email,status\nAcme,a@acme.com,Volcanic\n"

	svc, _ := newTestImportService(repo)
	summary, err := svc.ImportCSV(context.Background(), []byte(csvData), "agent@example.com", ImportJobOptions{SkipValidation: true})
	require.NoError(t, err)
	require.Empty(t, summary.Warnings)

	acme, err := repo.GetByEmail(context.Background(), "a@acme.com")
	require.NoError(t, err)
	require.Equal(t, client.StatusUncategorized, acme.ContactStatus)
}

func TestImportCSV_PublishesCompletionEvent(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	svc, bus := newTestImportService(repo)

	var (
		mu       sync.Mutex
		received *events.ImportCompletedEvent
	)
	bus.Subscribe(func(event *events.ImportCompletedEvent) {
		mu.Lock()
		defer mu.Unlock()
		received = event
	})

	summary, err := svc.ImportCSV(context.Background(), []byte("name\nAcme\n"), "agent@example.com", ImportJobOptions{RunID: "run-1"})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.NotNil(t, received)
	require.Equal(t, "run-1", received.RunID)
	require.Equal(t, "csv", received.Source)
	require.Equal(t, summary, received.Summary)
}

func TestImportCSV_SparseReimportPreservesFields(t *testing.T) {
	t.Parallel()

	repo := newFakeRepository()
	svc, _ := newTestImportService(repo)

	full := "name,email,phone,city\nAcme,a@acme.com,555-0100,Reno\n"
	_, err := svc.ImportCSV(context.Background(), []byte(full), "agent@example.com", ImportJobOptions{})
	require.NoError(t, err)

	sparse := "name,email\nAcme Holdings,a@acme.com\n"
	_, err = svc.ImportCSV(context.Background(), []byte(sparse), "agent@example.com", ImportJobOptions{})
	require.NoError(t, err)

	acme, err := repo.GetByEmail(context.Background(), "a@acme.com")
	require.NoError(t, err)
	require.Equal(t, "Acme Holdings", acme.Name)
	require.Equal(t, "555-0100", acme.Phone, "absent columns must not clobber stored fields")
	require.Equal(t, "Reno", acme.City)
}
