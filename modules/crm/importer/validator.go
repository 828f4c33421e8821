package importer

import (
	"regexp"
	"strings"

	"github.com/clientdesk/clientdesk/modules/crm/domain/aggregates/client"
)

var (
	emailPattern   = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	websitePattern = regexp.MustCompile(`^(https?://)?([\w\-]+\.)+[a-zA-Z]{2,}(/\S*)?$`)
)

// ValidationResult carries the resolved patch plus the row's issues. A row
// with a non-empty Errors list is excluded from writes; warnings never block.
type ValidationResult struct {
	Draft    *Draft
	Errors   []Issue
	Warnings []Issue
}

func (r ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// Validate applies permissive per-field validation: most problems downgrade
// to a warning plus a safe substitute instead of rejecting the row.
func Validate(d *Draft) ValidationResult {
	result := ValidationResult{Draft: d}
	warn := func(field, value, message string) {
		result.Warnings = append(result.Warnings, Issue{Row: d.Row, Field: field, Value: value, Message: message})
	}

	// Structurally unreachable given the normalizer's fallback chain, but
	// the hard-failure branch stays explicit.
	if d.Patch.Name == nil || strings.TrimSpace(*d.Patch.Name) == "" {
		result.Errors = append(result.Errors, Issue{
			Row:     d.Row,
			Field:   FieldName,
			Message: "name could not be derived",
		})
		return result
	}

	if d.RawStatus != "" {
		status, ok := client.ParseContactStatus(d.RawStatus)
		if !ok {
			warn(FieldContactStatus, d.RawStatus, `unknown status; defaulted to "Uncategorized"`)
		}
		d.Patch.ContactStatus = &status
	}

	if d.RawEmail != "" {
		if emailPattern.MatchString(d.RawEmail) {
			d.Patch.Email = ptr(strings.ToLower(d.RawEmail))
		} else {
			warn(FieldEmail, d.RawEmail, "invalid email; field omitted")
		}
	}
	if d.RawWebsite != "" {
		if websitePattern.MatchString(d.RawWebsite) {
			d.Patch.Website = ptr(d.RawWebsite)
		} else {
			warn(FieldWebsite, d.RawWebsite, "invalid website; field omitted")
		}
	}
	if d.RawFacebook != "" {
		if websitePattern.MatchString(d.RawFacebook) {
			d.Patch.FacebookPage = ptr(d.RawFacebook)
		} else {
			warn(FieldFacebookPage, d.RawFacebook, "invalid facebook page; field omitted")
		}
	}

	if d.Patch.ForecastedAmount != nil && *d.Patch.ForecastedAmount < 0 {
		// Warned but retained as-is.
		warn(FieldForecastedAmount, "", "negative forecasted amount")
	}

	return result
}

// Lenient resolves the raw fields without pattern or enum checks, for the
// pre-sanitized batch path that opts out of validation. Unknown statuses
// still fall back to the default so the enum invariant holds.
func Lenient(d *Draft) {
	if d.RawStatus != "" {
		status, _ := client.ParseContactStatus(d.RawStatus)
		d.Patch.ContactStatus = &status
	}
	if d.RawEmail != "" {
		d.Patch.Email = ptr(strings.ToLower(d.RawEmail))
	}
	if d.RawWebsite != "" {
		d.Patch.Website = ptr(d.RawWebsite)
	}
	if d.RawFacebook != "" {
		d.Patch.FacebookPage = ptr(d.RawFacebook)
	}
}
