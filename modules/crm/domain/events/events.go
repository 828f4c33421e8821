package events

import (
	"time"

	"github.com/clientdesk/clientdesk/modules/crm/domain/aggregates/client"
	"github.com/clientdesk/clientdesk/modules/crm/importer"
)

type ClientCreatedEvent struct {
	Client    *client.Client
	CreatedBy string
}

type ClientUpdatedEvent struct {
	Client    *client.Client
	UpdatedBy string
}

type ClientDeletedEvent struct {
	ID        string
	DeletedBy string
}

type ClientStatusChangedEvent struct {
	Client    *client.Client
	Previous  client.ContactStatus
	ChangedBy string
}

// ImportCompletedEvent is published once per import request, after payment
// attachment has been joined.
type ImportCompletedEvent struct {
	RunID      string
	Source     string // "csv" or "batch"
	ImportedBy string
	Summary    *importer.Summary
	Duration   time.Duration
}
