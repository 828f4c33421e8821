package importer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetectBrand(t *testing.T) {
	t.Parallel()

	cases := []struct {
		digits string
		brand  string
	}{
		{"4242424242424242", "visa"},
		{"5500005555555559", "mastercard"},
		{"2223000048400011", "mastercard"},
		{"371449635398431", "amex"},
		{"6011000990139424", "discover"},
		{"9999999999999999", "card"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.brand, DetectBrand(tc.digits), "digits %s", tc.digits)
	}
}

func TestTokenize_DisplaySafeResult(t *testing.T) {
	t.Parallel()

	raw := RawPayment{
		CardNumber: "4242 4242 4242 4242",
		Expiry:     "9/27",
		CVV:        "123",
		NameOnCard: " Jo March ",
		BillingZip: "89501",
	}
	method, reason, ok := Tokenize(raw)
	require.True(t, ok)
	require.Empty(t, reason)
	require.Equal(t, "visa", method.Brand)
	require.Equal(t, "4242", method.Last4)
	require.Equal(t, 9, method.ExpMonth)
	require.Equal(t, 2027, method.ExpYear)
	require.Equal(t, "Jo March", method.NameOnCard)

	// The method carries no field that could hold the full number or the
	// security code; the raw inputs must not leak into what it does carry.
	require.NotContains(t, method.Brand+method.Last4+method.NameOnCard+method.BillingZip, "4242424242424242")
	require.NotContains(t, method.Last4+method.BillingZip, "123")
}

func TestTokenize_SkipReasons(t *testing.T) {
	t.Parallel()

	_, reason, ok := Tokenize(RawPayment{CardNumber: "4242", Expiry: "9/27"})
	require.False(t, ok)
	require.Equal(t, "card number length out of range", reason)

	_, reason, ok = Tokenize(RawPayment{CardNumber: "4242424242424242", Expiry: "9/27", CVV: "12"})
	require.False(t, ok)
	require.Equal(t, "security code malformed", reason)

	_, reason, ok = Tokenize(RawPayment{CardNumber: "4242424242424242", Expiry: "soon"})
	require.False(t, ok)
	require.Equal(t, "expiry unparsable", reason)
}

func TestMaskCardNumber(t *testing.T) {
	t.Parallel()

	require.Equal(t, "************4242", MaskCardNumber("4242 4242 4242 4242"))
	require.Equal(t, "***********8431", MaskCardNumber("371449635398431"))
	require.Empty(t, MaskCardNumber("123"))
	require.Empty(t, MaskCardNumber(""))
}
