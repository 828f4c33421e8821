package importer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveHeader_AliasSpellings(t *testing.T) {
	t.Parallel()

	cases := []struct {
		header string
		field  string
	}{
		{"name", FieldName},
		{"Client Name", FieldName},
		{"client_id", FieldID},
		{"E-Mail", FieldEmail},
		{"Email Address", FieldEmail},
		{"Phone Number", FieldPhone},
		{"Zip Code", FieldPostalCode},
		{"Forecasted Amount ", FieldForecastedAmount},
		{"Deal Value", FieldForecastedAmount},
		{"Lead Status", FieldContactStatus},
		{"CC Number", FieldCardNumber},
		{"Security Code", FieldCardCVV},
		{"Expiration", FieldCardExpiry},
		{"Cardholder Name", FieldNameOnCard},
		{"Account Owner", FieldOwnedBy},
		{"Date Added", FieldCreatedAt},
	}
	for _, tc := range cases {
		field, ok := ResolveHeader(tc.header)
		require.True(t, ok, "header %q should resolve", tc.header)
		require.Equal(t, tc.field, field, "header %q", tc.header)
	}
}

func TestResolveHeader_UnknownHeaderIgnored(t *testing.T) {
	t.Parallel()

	_, ok := ResolveHeader("favorite color")
	require.False(t, ok)
}

func TestIsSensitiveField(t *testing.T) {
	t.Parallel()

	require.True(t, IsSensitiveField(FieldCardNumber))
	require.True(t, IsSensitiveField(FieldCardCVV))
	require.False(t, IsSensitiveField(FieldEmail))
}
