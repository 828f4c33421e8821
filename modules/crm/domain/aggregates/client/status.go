package client

import "strings"

// ContactStatus is the sales-funnel stage of a client.
type ContactStatus string

const (
	StatusSampling       ContactStatus = "Sampling"
	StatusNewProspect    ContactStatus = "New Prospect"
	StatusUncategorized  ContactStatus = "Uncategorized"
	StatusClosedLost     ContactStatus = "Closed lost"
	StatusInitialContact ContactStatus = "Initial Contact"
	StatusClosedWon      ContactStatus = "Closed won"
	StatusCommitted      ContactStatus = "Committed"
	StatusConsideration  ContactStatus = "Consideration"
)

var contactStatuses = []ContactStatus{
	StatusSampling,
	StatusNewProspect,
	StatusUncategorized,
	StatusClosedLost,
	StatusInitialContact,
	StatusClosedWon,
	StatusCommitted,
	StatusConsideration,
}

// ParseContactStatus matches a raw label case-insensitively against the known
// statuses. Unrecognized labels are not an error; callers substitute
// StatusUncategorized and record a warning.
func ParseContactStatus(raw string) (ContactStatus, bool) {
	trimmed := strings.TrimSpace(raw)
	for _, s := range contactStatuses {
		if strings.EqualFold(trimmed, string(s)) {
			return s, true
		}
	}
	return StatusUncategorized, false
}

func ContactStatuses() []ContactStatus {
	out := make([]ContactStatus, len(contactStatuses))
	copy(out, contactStatuses)
	return out
}
