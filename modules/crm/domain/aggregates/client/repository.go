package client

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrNotFound       = errors.New("client not found")
	ErrDuplicateKey   = errors.New("client with this identity already exists")
	ErrEmptyOperation = errors.New("bulk operation has no fields to write")
)

type FindParams struct {
	Q      string
	Limit  int
	Offset int
}

// Patch is a partial client record: nil fields are left untouched by an
// update. Import rows are expressed as patches so re-importing a sparse file
// never clobbers fields the file did not carry.
type Patch struct {
	ID         *string
	ExternalID *string
	OwnedBy    *string

	Name         *string
	Email        *string
	Phone        *string
	Address      *string
	City         *string
	State        *string
	PostalCode   *string
	Website      *string
	FacebookPage *string
	Industry     *string
	CompanyType  *string

	ContactStatus *ContactStatus
	Description   *string
	LastNote      *string

	ForecastedAmount   *float64
	InteractionCount   *int
	ProjectedCloseDate *time.Time

	NameOnCard       *string
	CardNumberMasked *string
	CardExpiry       *string
	BillingZip       *string

	// CreatedAtHint is honored only on the insert branch of an upsert.
	CreatedAtHint *time.Time
}

// BulkOperation is one resolved write in an import batch. Exactly one of the
// filters is set for an upsert; InsertOnly carries a freshly generated id and
// bypasses filtering entirely.
type BulkOperation struct {
	Row         int
	FilterID    string
	FilterEmail string
	InsertOnly  bool
	Patch       Patch
}

// OperationError reports one failed operation out of an unordered bulk
// write; sibling operations are unaffected.
type OperationError struct {
	Row     int
	Message string
}

// BulkResult aggregates one chunked unordered bulk write.
type BulkResult struct {
	Inserted int64
	Matched  int64
	Modified int64
	Upserted int64

	// UpsertedIDs maps a source row number to the id the store assigned or
	// confirmed on the insert branch. Matched-but-not-upserted rows are
	// absent; callers fall back to an email lookup.
	UpsertedIDs map[int]string

	Errors []OperationError
}

type Repository interface {
	GetPaginated(ctx context.Context, params *FindParams) ([]*Client, int64, error)
	GetByID(ctx context.Context, id string) (*Client, error)
	GetByEmail(ctx context.Context, email string) (*Client, error)
	// Exists reports whether a record matches both name and email. Used for
	// advisory duplicate warnings only.
	Exists(ctx context.Context, name, email string) (bool, error)
	Count(ctx context.Context) (int64, error)

	Create(ctx context.Context, c *Client) error
	Update(ctx context.Context, c *Client) error
	// SavePaymentProfile persists only the payment sub-object and the legacy
	// display fields touched by attachment.
	SavePaymentProfile(ctx context.Context, id string, profile PaymentProfile) error
	Delete(ctx context.Context, id string) error

	// BulkUpsert executes the operations as unordered bulk writes. Individual
	// operation failures are reported in BulkResult.Errors; a returned error
	// means the chunk itself could not execute.
	BulkUpsert(ctx context.Context, ops []BulkOperation) (*BulkResult, error)

	// ForEach streams all clients in stable id order, for exports.
	ForEach(ctx context.Context, fn func(*Client) error) error

	EnsureIndexes(ctx context.Context) error
}
