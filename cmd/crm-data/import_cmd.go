package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/clientdesk/clientdesk/modules/crm/domain/aggregates/client"
	"github.com/clientdesk/clientdesk/modules/crm/importer"
	"github.com/clientdesk/clientdesk/modules/crm/infrastructure/persistence"
	"github.com/clientdesk/clientdesk/modules/crm/services"
	"github.com/clientdesk/clientdesk/pkg/configuration"
	"github.com/clientdesk/clientdesk/pkg/eventbus"
)

type importOptions struct {
	input                   string
	importedBy              string
	batchSize               int
	skipValidation          bool
	skipPaymentTokenization bool
}

func newImportCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import clients from a CSV file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.input, "input", "", "Input CSV file (required)")
	cmd.Flags().StringVar(&opts.importedBy, "imported-by", "", "Owner email for rows naming none (default: service account)")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", 0, "Bulk-write chunk size (default: configured)")
	cmd.Flags().BoolVar(&opts.skipValidation, "skip-validation", false, "Skip per-field validation")
	cmd.Flags().BoolVar(&opts.skipPaymentTokenization, "skip-payment-tokenization", false, "Skip payment-method attachment")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runImport(ctx context.Context, opts importOptions) error {
	conf := configuration.Use()
	defer conf.Unload()

	data, err := os.ReadFile(opts.input)
	if err != nil {
		return fmt.Errorf("read %s: %w", opts.input, err)
	}

	importedBy := strings.TrimSpace(opts.importedBy)
	if importedBy == "" {
		importedBy = conf.ServiceAccountEmail
	}

	repo, closeFn, err := connectRepository(ctx, conf)
	if err != nil {
		return err
	}
	defer closeFn()

	svc := services.NewImportService(repo, eventbus.NewEventPublisher(conf.Logger()), importer.NopProgressReporter{}, conf.Import)
	summary, err := svc.ImportCSV(ctx, data, importedBy, services.ImportJobOptions{
		BatchSize:               opts.batchSize,
		SkipValidation:          opts.skipValidation,
		SkipPaymentTokenization: opts.skipPaymentTokenization,
	})
	if err != nil {
		return err
	}

	return json.NewEncoder(os.Stdout).Encode(summary)
}

func connectRepository(ctx context.Context, conf *configuration.Configuration) (client.Repository, func(), error) {
	connectCtx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	mongoClient, err := mongo.Connect(connectCtx, mongooptions.Client().ApplyURI(conf.Mongo.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := mongoClient.Ping(connectCtx, nil); err != nil {
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := mongoClient.Database(conf.Mongo.Database)
	repo := persistence.NewClientRepository(db)
	if err := repo.EnsureIndexes(ctx); err != nil {
		return nil, nil, fmt.Errorf("ensure indexes: %w", err)
	}

	closeFn := func() {
		_ = mongoClient.Disconnect(context.Background())
	}
	return repo, closeFn, nil
}
