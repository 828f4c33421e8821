package importer

import (
	"regexp"
	"strings"

	"github.com/clientdesk/clientdesk/modules/crm/domain/aggregates/client"
)

// RawPayment is the side channel for legacy plain-text card columns. It
// exists only in memory for the duration of one import; nothing in it is
// persisted beyond the derived token.
type RawPayment struct {
	CardNumber string
	Expiry     string
	CVV        string
	NameOnCard string
	BillingZip string
}

func (p RawPayment) IsEmpty() bool {
	return p.CardNumber == "" && p.Expiry == "" && p.CVV == "" &&
		p.NameOnCard == "" && p.BillingZip == ""
}

// IIN-range patterns. Approximate by design: network-level validation is
// out of scope, unmatched numbers fall back to the generic "card" brand.
var brandPatterns = []struct {
	brand   string
	pattern *regexp.Regexp
}{
	{"visa", regexp.MustCompile(`^4`)},
	{"mastercard", regexp.MustCompile(`^(5[1-5]|2[2-7])`)},
	{"amex", regexp.MustCompile(`^3[47]`)},
	{"discover", regexp.MustCompile(`^(6011|64[4-9]|65)`)},
}

// DetectBrand classifies a card number (digits only) by IIN prefix.
func DetectBrand(digits string) string {
	for _, bp := range brandPatterns {
		if bp.pattern.MatchString(digits) {
			return bp.brand
		}
	}
	return "card"
}

var cvvShape = regexp.MustCompile(`^\d{3,4}$`)

// Tokenize derives a display-safe payment method from raw card text. The
// returned method carries brand, last4 and expiry only; the full number and
// the security code never leave this function. A false return means the
// attachment is skipped for the stated reason.
func Tokenize(raw RawPayment) (client.PaymentMethod, string, bool) {
	digits := digitsOnly(raw.CardNumber)
	if len(digits) < 13 || len(digits) > 19 {
		return client.PaymentMethod{}, "card number length out of range", false
	}

	if cvv := strings.TrimSpace(raw.CVV); cvv != "" && !cvvShape.MatchString(cvv) {
		return client.PaymentMethod{}, "security code malformed", false
	}

	month, year, ok := ParseExpiry(raw.Expiry)
	if !ok {
		return client.PaymentMethod{}, "expiry unparsable", false
	}

	return client.PaymentMethod{
		Brand:      DetectBrand(digits),
		Last4:      digits[len(digits)-4:],
		ExpMonth:   month,
		ExpYear:    year,
		NameOnCard: strings.TrimSpace(raw.NameOnCard),
		BillingZip: strings.TrimSpace(raw.BillingZip),
	}, "", true
}

// MaskCardNumber reduces card text to its display form, keeping only the
// last four digits.
func MaskCardNumber(raw string) string {
	digits := digitsOnly(raw)
	if len(digits) < 4 {
		return ""
	}
	return strings.Repeat("*", len(digits)-4) + digits[len(digits)-4:]
}
