package importer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clientdesk/clientdesk/modules/crm/domain/aggregates/client"
)

func TestValidate_UnknownStatusDowngraded(t *testing.T) {
	t.Parallel()

	d, _ := NormalizeRow(1, map[string]string{"name": "Acme", "status": "Lava Hot"}, NormalizeOptions{})
	result := Validate(d)

	require.True(t, result.IsValid())
	require.Len(t, result.Warnings, 1)
	require.NotNil(t, d.Patch.ContactStatus)
	require.Equal(t, client.StatusUncategorized, *d.Patch.ContactStatus)
}

func TestValidate_KnownStatusCaseInsensitive(t *testing.T) {
	t.Parallel()

	d, _ := NormalizeRow(1, map[string]string{"name": "Acme", "status": "closed WON"}, NormalizeOptions{})
	result := Validate(d)

	require.True(t, result.IsValid())
	require.Empty(t, result.Warnings)
	require.Equal(t, client.StatusClosedWon, *d.Patch.ContactStatus)
}

func TestValidate_InvalidEmailOmittedWithWarning(t *testing.T) {
	t.Parallel()

	d, _ := NormalizeRow(1, map[string]string{"name": "Acme", "email": "not-an-email"}, NormalizeOptions{})
	result := Validate(d)

	require.True(t, result.IsValid())
	require.Len(t, result.Warnings, 1)
	require.Nil(t, d.Patch.Email)
}

func TestValidate_EmailLowercased(t *testing.T) {
	t.Parallel()

	d, _ := NormalizeRow(1, map[string]string{"name": "Acme", "email": "Jo@Example.COM"}, NormalizeOptions{})
	result := Validate(d)

	require.True(t, result.IsValid())
	require.NotNil(t, d.Patch.Email)
	require.Equal(t, "jo@example.com", *d.Patch.Email)
}

func TestValidate_InvalidWebsiteOmitted(t *testing.T) {
	t.Parallel()

	d, _ := NormalizeRow(1, map[string]string{"name": "Acme", "website": "not a url"}, NormalizeOptions{})
	result := Validate(d)

	require.True(t, result.IsValid())
	require.Nil(t, d.Patch.Website)
	require.Len(t, result.Warnings, 1)

	d, _ = NormalizeRow(2, map[string]string{"name": "Acme", "website": "https://acme.example.com/about"}, NormalizeOptions{})
	result = Validate(d)
	require.Empty(t, result.Warnings)
	require.NotNil(t, d.Patch.Website)
}

func TestValidate_NegativeForecastWarnedButRetained(t *testing.T) {
	t.Parallel()

	d, _ := NormalizeRow(1, map[string]string{"name": "Acme", "amount": "-500"}, NormalizeOptions{})
	result := Validate(d)

	require.True(t, result.IsValid())
	require.Len(t, result.Warnings, 1)
	require.NotNil(t, d.Patch.ForecastedAmount)
	require.InDelta(t, -500, *d.Patch.ForecastedAmount, 1e-9)
}

func TestLenient_StatusStillFallsBack(t *testing.T) {
	t.Parallel()

	d, _ := NormalizeRow(1, map[string]string{"name": "Acme", "status": "???", "email": "Jo@Example.com"}, NormalizeOptions{})
	Lenient(d)

	require.NotNil(t, d.Patch.ContactStatus)
	require.Equal(t, client.StatusUncategorized, *d.Patch.ContactStatus)
	require.NotNil(t, d.Patch.Email)
	require.Equal(t, "jo@example.com", *d.Patch.Email)
}
