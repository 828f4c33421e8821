package importer

import (
	"github.com/google/uuid"

	"github.com/clientdesk/clientdesk/modules/crm/domain/aggregates/client"
)

// ResolveIdentity decides the write shape for one validated draft: upsert by
// explicit id, else upsert by email, else insert under a freshly generated
// id. The generated id is assigned onto the patch so later stages (payment
// attachment) can address the record without a second lookup.
func ResolveIdentity(d *Draft) client.BulkOperation {
	op := client.BulkOperation{Row: d.Row, Patch: d.Patch}

	switch {
	case d.Patch.ID != nil && *d.Patch.ID != "":
		op.FilterID = *d.Patch.ID
	case d.Patch.Email != nil && *d.Patch.Email != "":
		op.FilterEmail = *d.Patch.Email
	default:
		id := uuid.NewString()
		op.Patch.ID = &id
		op.InsertOnly = true
	}

	return op
}
