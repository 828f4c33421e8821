package importer

import (
	"strings"

	"github.com/clientdesk/clientdesk/modules/crm/domain/aggregates/client"
)

// Draft is a normalized row awaiting validation. Fields whose value needs a
// semantic check (enum, pattern) stay raw until Validate or Lenient resolves
// them into the patch.
type Draft struct {
	Row   int
	Patch client.Patch

	RawStatus   string
	RawEmail    string
	RawWebsite  string
	RawFacebook string

	Payment RawPayment
}

type NormalizeOptions struct {
	// ImportedBy becomes the record owner when the row names none.
	ImportedBy string

	// FastPath is the pre-sanitized JSON batch behavior: numeric coercion
	// failures default to zero silently instead of omit-plus-warning.
	FastPath bool
}

// NormalizeRow maps one raw row onto a Draft. Sensitive payment columns are
// routed exclusively into the RawPayment side channel. A nil draft means the
// row carried no recognizable values and is dropped.
func NormalizeRow(rowNum int, row map[string]string, opts NormalizeOptions) (*Draft, []Issue) {
	fields := make(map[string]string, len(row))
	for header, value := range row {
		field, ok := ResolveHeader(header)
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, taken := fields[field]; !taken {
			fields[field] = value
		}
	}
	if len(fields) == 0 {
		return nil, nil
	}

	d := &Draft{Row: rowNum}
	var warnings []Issue
	warn := func(field, value, message string) {
		warnings = append(warnings, Issue{Row: rowNum, Field: field, Value: value, Message: message})
	}

	d.Payment = RawPayment{
		CardNumber: fields[FieldCardNumber],
		Expiry:     fields[FieldCardExpiry],
		CVV:        fields[FieldCardCVV],
		NameOnCard: fields[FieldNameOnCard],
		BillingZip: fields[FieldBillingZip],
	}

	if v, ok := fields[FieldID]; ok {
		d.Patch.ID = ptr(v)
		if _, hasExternal := fields[FieldExternalID]; !hasExternal {
			// Preserve the source system's identifier even once the id is
			// internally assigned.
			d.Patch.ExternalID = ptr(v)
		}
	}
	if v, ok := fields[FieldExternalID]; ok {
		d.Patch.ExternalID = ptr(v)
	}

	d.Patch.Name = ptr(deriveName(fields))

	owner := strings.ToLower(fields[FieldOwnedBy])
	if owner == "" {
		owner = strings.ToLower(strings.TrimSpace(opts.ImportedBy))
	}
	if owner != "" {
		d.Patch.OwnedBy = ptr(owner)
	}

	setIfPresent := func(field string, dst **string) {
		if v, ok := fields[field]; ok {
			*dst = ptr(v)
		}
	}
	setIfPresent(FieldPhone, &d.Patch.Phone)
	setIfPresent(FieldAddress, &d.Patch.Address)
	setIfPresent(FieldCity, &d.Patch.City)
	setIfPresent(FieldState, &d.Patch.State)
	setIfPresent(FieldPostalCode, &d.Patch.PostalCode)
	setIfPresent(FieldIndustry, &d.Patch.Industry)
	setIfPresent(FieldCompanyType, &d.Patch.CompanyType)
	setIfPresent(FieldDescription, &d.Patch.Description)
	setIfPresent(FieldLastNote, &d.Patch.LastNote)

	d.RawStatus = fields[FieldContactStatus]
	d.RawEmail = fields[FieldEmail]
	d.RawWebsite = fields[FieldWebsite]
	d.RawFacebook = fields[FieldFacebookPage]

	if v, ok := fields[FieldForecastedAmount]; ok {
		if amount, parsed := ParseAmount(v); parsed {
			d.Patch.ForecastedAmount = &amount
		} else if opts.FastPath {
			d.Patch.ForecastedAmount = ptrFloat(0)
		} else {
			warn(FieldForecastedAmount, v, "amount unparsable; field omitted")
		}
	}
	if v, ok := fields[FieldInteractionCount]; ok {
		if count, parsed := ParseCount(v); parsed {
			if count < 0 {
				warn(FieldInteractionCount, v, "negative interaction count clamped to 0")
				count = 0
			}
			d.Patch.InteractionCount = &count
		} else if opts.FastPath {
			d.Patch.InteractionCount = ptrInt(0)
		} else {
			warn(FieldInteractionCount, v, "count unparsable; field omitted")
		}
	}

	if v, ok := fields[FieldProjectedCloseDate]; ok {
		if t, parsed := ParseDate(v); parsed {
			d.Patch.ProjectedCloseDate = &t
		} else {
			warn(FieldProjectedCloseDate, v, "date unparsable; field omitted")
		}
	}
	if v, ok := fields[FieldCreatedAt]; ok {
		if t, parsed := ParseDate(v); parsed {
			d.Patch.CreatedAtHint = &t
		} else {
			warn(FieldCreatedAt, v, "date unparsable; creation time will be used")
		}
	}

	// Display-only derivatives of the payment side channel. Only the masked
	// number and canonical expiry text ever reach the record.
	if d.Payment.NameOnCard != "" {
		d.Patch.NameOnCard = ptr(d.Payment.NameOnCard)
	}
	if d.Payment.BillingZip != "" {
		d.Patch.BillingZip = ptr(d.Payment.BillingZip)
	}
	if masked := MaskCardNumber(d.Payment.CardNumber); masked != "" {
		d.Patch.CardNumberMasked = &masked
	}
	if canonical, ok := NormalizeExpiryText(d.Payment.Expiry); ok {
		d.Patch.CardExpiry = &canonical
	}

	return d, warnings
}

// deriveName applies the fallback chain: name, fullName, company,
// "first last", email, phone, then the placeholder. A row is never dropped
// for a missing name.
func deriveName(fields map[string]string) string {
	if v := fields[FieldName]; v != "" {
		return v
	}
	if v := fields[FieldFullName]; v != "" {
		return v
	}
	if v := fields[FieldCompany]; v != "" {
		return v
	}
	if combined := strings.TrimSpace(fields[FieldFirstName] + " " + fields[FieldLastName]); combined != "" {
		return combined
	}
	if v := fields[FieldEmail]; v != "" {
		return v
	}
	if v := fields[FieldPhone]; v != "" {
		return v
	}
	return client.PlaceholderName
}

func ptr(s string) *string { return &s }

func ptrFloat(v float64) *float64 { return &v }

func ptrInt(v int) *int { return &v }
