package client

import (
	"strings"
	"time"
)

// PlaceholderName terminates the name-derivation fallback chain: a stored
// client never has an empty name.
const PlaceholderName = "Unnamed Client"

// PaymentMethod is a tokenized, display-safe representation of a card. It
// never carries a full card number or a security code.
type PaymentMethod struct {
	Brand      string    `bson:"brand" json:"brand"`
	Last4      string    `bson:"last4" json:"last4"`
	ExpMonth   int       `bson:"expMonth" json:"expMonth"`
	ExpYear    int       `bson:"expYear" json:"expYear"`
	NameOnCard string    `bson:"nameOnCard,omitempty" json:"nameOnCard,omitempty"`
	BillingZip string    `bson:"billingZip,omitempty" json:"billingZip,omitempty"`
	IsDefault  bool      `bson:"isDefault" json:"isDefault"`
	AddedAt    time.Time `bson:"addedAt" json:"addedAt"`
}

// PaymentProfile owns a client's tokenized payment methods plus the opaque
// gateway customer reference.
type PaymentProfile struct {
	GatewayCustomerID string          `bson:"gatewayCustomerId,omitempty" json:"gatewayCustomerId,omitempty"`
	Methods           []PaymentMethod `bson:"paymentMethods" json:"paymentMethods"`
}

// StatusHistoryEntry records one funnel transition. The history is
// append-only: entries are never rewritten or reordered.
type StatusHistoryEntry struct {
	Status    ContactStatus `bson:"status" json:"status"`
	ChangedAt time.Time     `bson:"changedAt" json:"changedAt"`
	ChangedBy string        `bson:"changedBy,omitempty" json:"changedBy,omitempty"`
	Notes     string        `bson:"notes,omitempty" json:"notes,omitempty"`
}

// Client is the canonical CRM record created and updated by imports.
type Client struct {
	ID         string `bson:"_id" json:"id"`
	ExternalID string `bson:"externalId,omitempty" json:"externalId,omitempty"`
	OwnedBy    string `bson:"ownedBy" json:"ownedBy"`

	Name         string `bson:"name" json:"name"`
	Email        string `bson:"email,omitempty" json:"email,omitempty"`
	Phone        string `bson:"phone,omitempty" json:"phone,omitempty"`
	Address      string `bson:"address,omitempty" json:"address,omitempty"`
	City         string `bson:"city,omitempty" json:"city,omitempty"`
	State        string `bson:"state,omitempty" json:"state,omitempty"`
	PostalCode   string `bson:"postalCode,omitempty" json:"postalCode,omitempty"`
	Website      string `bson:"website,omitempty" json:"website,omitempty"`
	FacebookPage string `bson:"facebookPage,omitempty" json:"facebookPage,omitempty"`
	Industry     string `bson:"industry,omitempty" json:"industry,omitempty"`
	CompanyType  string `bson:"companyType,omitempty" json:"companyType,omitempty"`

	ContactStatus ContactStatus `bson:"contactStatus" json:"contactStatus"`
	Description   string        `bson:"description,omitempty" json:"description,omitempty"`
	LastNote      string        `bson:"lastNote,omitempty" json:"lastNote,omitempty"`

	ForecastedAmount   float64    `bson:"forecastedAmount" json:"forecastedAmount"`
	InteractionCount   int        `bson:"interactionCount" json:"interactionCount"`
	ProjectedCloseDate *time.Time `bson:"projectedCloseDate,omitempty" json:"projectedCloseDate,omitempty"`

	// Legacy display-only payment text. The card number is stored masked to
	// its last four digits; the security code is never stored.
	NameOnCard       string `bson:"nameOnCard,omitempty" json:"nameOnCard,omitempty"`
	CardNumberMasked string `bson:"cardNumberMasked,omitempty" json:"cardNumberMasked,omitempty"`
	CardExpiry       string `bson:"cardExpiry,omitempty" json:"cardExpiry,omitempty"`
	BillingZip       string `bson:"billingZip,omitempty" json:"billingZip,omitempty"`

	Payment       PaymentProfile       `bson:"paymentMethod" json:"paymentMethod"`
	StatusHistory []StatusHistoryEntry `bson:"statusHistory" json:"statusHistory"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// New builds a client with the semantic defaults applied: a non-empty name,
// the Uncategorized status, and an owner.
func New(id, name, ownedBy string) *Client {
	name = strings.TrimSpace(name)
	if name == "" {
		name = PlaceholderName
	}
	now := time.Now().UTC()
	return &Client{
		ID:            id,
		Name:          name,
		OwnedBy:       strings.ToLower(strings.TrimSpace(ownedBy)),
		ContactStatus: StatusUncategorized,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// AttachPaymentMethod appends a tokenized method and makes it the default,
// clearing the default flag on every pre-existing method. At most one method
// is default at any time; the first attached method is always default.
func (c *Client) AttachPaymentMethod(pm PaymentMethod) {
	for i := range c.Payment.Methods {
		c.Payment.Methods[i].IsDefault = false
	}
	pm.IsDefault = true
	if pm.AddedAt.IsZero() {
		pm.AddedAt = time.Now().UTC()
	}
	c.Payment.Methods = append(c.Payment.Methods, pm)
}

// DefaultPaymentMethod returns the current default method, if any.
func (c *Client) DefaultPaymentMethod() (PaymentMethod, bool) {
	for _, pm := range c.Payment.Methods {
		if pm.IsDefault {
			return pm, true
		}
	}
	return PaymentMethod{}, false
}

// ChangeStatus appends a history entry and moves the client to the new
// status. Existing history entries are never touched.
func (c *Client) ChangeStatus(status ContactStatus, changedBy, notes string) {
	now := time.Now().UTC()
	c.StatusHistory = append(c.StatusHistory, StatusHistoryEntry{
		Status:    status,
		ChangedAt: now,
		ChangedBy: changedBy,
		Notes:     notes,
	})
	c.ContactStatus = status
	c.UpdatedAt = now
}
