package configuration

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestImportOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    ImportOptions
		wantErr bool
	}{
		{
			name: "defaults",
			opts: ImportOptions{BatchSize: 2000, MinBatchSize: 500, MaxBatchSize: 5000, PaymentWorkers: 16, MaxReportedIssues: 100},
		},
		{
			name:    "batch size below window",
			opts:    ImportOptions{BatchSize: 100, MinBatchSize: 500, MaxBatchSize: 5000, PaymentWorkers: 16, MaxReportedIssues: 100},
			wantErr: true,
		},
		{
			name:    "inverted window",
			opts:    ImportOptions{BatchSize: 2000, MinBatchSize: 5000, MaxBatchSize: 500, PaymentWorkers: 16, MaxReportedIssues: 100},
			wantErr: true,
		},
		{
			name:    "zero workers",
			opts:    ImportOptions{BatchSize: 2000, MinBatchSize: 500, MaxBatchSize: 5000, PaymentWorkers: 0, MaxReportedIssues: 100},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestConfiguration_validateEnvironment(t *testing.T) {
	c := &Configuration{GoAppEnvironment: "prod"}
	require.Error(t, c.validateEnvironment())

	c = &Configuration{GoAppEnvironment: "Production "}
	require.NoError(t, c.validateEnvironment())
	require.Equal(t, "production", c.GoAppEnvironment)

	c = &Configuration{GoAppEnvironment: ""}
	require.NoError(t, c.validateEnvironment())
	require.Equal(t, "development", c.GoAppEnvironment)
}
