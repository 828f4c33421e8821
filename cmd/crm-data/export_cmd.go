package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/clientdesk/clientdesk/modules/crm/domain/aggregates/client"
	"github.com/clientdesk/clientdesk/pkg/configuration"
)

func newExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all clients to a CSV file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), output)
		},
	}

	cmd.Flags().StringVar(&output, "output", "", "Output CSV file (default: stdout)")
	return cmd
}

func runExport(ctx context.Context, output string) error {
	conf := configuration.Use()
	defer conf.Unload()

	repo, closeFn, err := connectRepository(ctx, conf)
	if err != nil {
		return err
	}
	defer closeFn()

	out := os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create %s: %w", output, err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	cw := csv.NewWriter(out)
	header := []string{
		"id", "externalId", "name", "email", "phone", "address", "city", "state",
		"postalCode", "website", "industry", "companyType", "contactStatus",
		"forecastedAmount", "interactionCount", "ownedBy", "createdAt",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	err = repo.ForEach(ctx, func(c *client.Client) error {
		return cw.Write([]string{
			c.ID,
			c.ExternalID,
			c.Name,
			c.Email,
			c.Phone,
			c.Address,
			c.City,
			c.State,
			c.PostalCode,
			c.Website,
			c.Industry,
			c.CompanyType,
			string(c.ContactStatus),
			strconv.FormatFloat(c.ForecastedAmount, 'f', -1, 64),
			strconv.Itoa(c.InteractionCount),
			c.OwnedBy,
			c.CreatedAt.UTC().Format(time.RFC3339),
		})
	})
	if err != nil {
		return err
	}

	cw.Flush()
	return cw.Error()
}
