package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clientdesk/clientdesk/modules/crm/domain/aggregates/client"
)

// fakeRepository is an in-memory client.Repository for service tests. It
// mirrors the store's upsert semantics: patches only touch provided fields,
// createdAt is written on insert only, and bulk writes report per-operation
// failures without aborting siblings.
type fakeRepository struct {
	mu     sync.Mutex
	byID   map[string]*client.Client
	chunks []int
	failed map[int]bool
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		byID:   map[string]*client.Client{},
		failed: map[int]bool{},
	}
}

// failRow makes the bulk write reject the operation carrying this source row.
func (r *fakeRepository) failRow(row int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed[row] = true
}

func (r *fakeRepository) chunkSizes() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.chunks...)
}

func (r *fakeRepository) GetPaginated(_ context.Context, params *client.FindParams) ([]*client.Client, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var items []*client.Client
	for _, c := range r.byID {
		if params == nil || params.Q == "" || strings.Contains(strings.ToLower(c.Name), strings.ToLower(params.Q)) {
			items = append(items, c)
		}
	}
	return items, int64(len(items)), nil
}

func (r *fakeRepository) GetByID(_ context.Context, id string) (*client.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byID[id]
	if !ok {
		return nil, client.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *fakeRepository) GetByEmail(_ context.Context, email string) (*client.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.findByEmail(email)
	if c == nil {
		return nil, client.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *fakeRepository) findByEmail(email string) *client.Client {
	for _, c := range r.byID {
		if c.Email != "" && c.Email == email {
			return c
		}
	}
	return nil
}

func (r *fakeRepository) Exists(_ context.Context, name, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.byID {
		if c.Name == name && c.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepository) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.byID)), nil
}

func (r *fakeRepository) Create(_ context.Context, c *client.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[c.ID]; ok {
		return client.ErrDuplicateKey
	}
	clone := *c
	r.byID[c.ID] = &clone
	return nil
}

func (r *fakeRepository) Update(_ context.Context, c *client.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[c.ID]; !ok {
		return client.ErrNotFound
	}
	clone := *c
	r.byID[c.ID] = &clone
	return nil
}

func (r *fakeRepository) SavePaymentProfile(_ context.Context, id string, profile client.PaymentProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byID[id]
	if !ok {
		return client.ErrNotFound
	}
	c.Payment = profile
	c.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *fakeRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return client.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *fakeRepository) BulkUpsert(_ context.Context, ops []client.BulkOperation) (*client.BulkResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.chunks = append(r.chunks, len(ops))
	result := &client.BulkResult{UpsertedIDs: map[int]string{}}

	for _, op := range ops {
		if r.failed[op.Row] {
			result.Errors = append(result.Errors, client.OperationError{Row: op.Row, Message: "write rejected"})
			continue
		}

		switch {
		case op.InsertOnly:
			id := ""
			if op.Patch.ID != nil {
				id = *op.Patch.ID
			}
			r.byID[id] = newFromPatch(id, op.Patch)
			result.Inserted++
			result.UpsertedIDs[op.Row] = id

		case op.FilterID != "":
			if existing, ok := r.byID[op.FilterID]; ok {
				applyPatch(existing, op.Patch)
				result.Matched++
				result.Modified++
			} else {
				r.byID[op.FilterID] = newFromPatch(op.FilterID, op.Patch)
				result.Upserted++
				result.UpsertedIDs[op.Row] = op.FilterID
			}

		case op.FilterEmail != "":
			if existing := r.findByEmail(op.FilterEmail); existing != nil {
				applyPatch(existing, op.Patch)
				result.Matched++
				result.Modified++
			} else {
				id := uuid.NewString()
				r.byID[id] = newFromPatch(id, op.Patch)
				result.Upserted++
				result.UpsertedIDs[op.Row] = id
			}
		}
	}
	return result, nil
}

func (r *fakeRepository) ForEach(_ context.Context, fn func(*client.Client) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.byID {
		clone := *c
		if err := fn(&clone); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeRepository) EnsureIndexes(context.Context) error {
	return nil
}

func newFromPatch(id string, p client.Patch) *client.Client {
	now := time.Now().UTC()
	c := &client.Client{
		ID:            id,
		ContactStatus: client.StatusUncategorized,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if p.CreatedAtHint != nil {
		c.CreatedAt = *p.CreatedAtHint
	}
	applyPatch(c, p)
	return c
}

func applyPatch(c *client.Client, p client.Patch) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setString(&c.ExternalID, p.ExternalID)
	setString(&c.OwnedBy, p.OwnedBy)
	setString(&c.Name, p.Name)
	setString(&c.Email, p.Email)
	setString(&c.Phone, p.Phone)
	setString(&c.Address, p.Address)
	setString(&c.City, p.City)
	setString(&c.State, p.State)
	setString(&c.PostalCode, p.PostalCode)
	setString(&c.Website, p.Website)
	setString(&c.FacebookPage, p.FacebookPage)
	setString(&c.Industry, p.Industry)
	setString(&c.CompanyType, p.CompanyType)
	setString(&c.Description, p.Description)
	setString(&c.LastNote, p.LastNote)
	setString(&c.NameOnCard, p.NameOnCard)
	setString(&c.CardNumberMasked, p.CardNumberMasked)
	setString(&c.CardExpiry, p.CardExpiry)
	setString(&c.BillingZip, p.BillingZip)
	if p.ContactStatus != nil {
		c.ContactStatus = *p.ContactStatus
	}
	if p.ForecastedAmount != nil {
		c.ForecastedAmount = *p.ForecastedAmount
	}
	if p.InteractionCount != nil {
		c.InteractionCount = *p.InteractionCount
	}
	if p.ProjectedCloseDate != nil {
		c.ProjectedCloseDate = p.ProjectedCloseDate
	}
	c.UpdatedAt = time.Now().UTC()
}
