package persistence

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/clientdesk/clientdesk/modules/crm/domain/aggregates/client"
)

// newDocumentFromPatch builds a complete insert document with the aggregate
// defaults applied, for the generated-id insert path.
func newDocumentFromPatch(p client.Patch, now time.Time) *client.Client {
	c := client.New(stringOr(p.ID, ""), stringOr(p.Name, ""), stringOr(p.OwnedBy, ""))
	c.ExternalID = stringOr(p.ExternalID, "")
	c.Email = stringOr(p.Email, "")
	c.Phone = stringOr(p.Phone, "")
	c.Address = stringOr(p.Address, "")
	c.City = stringOr(p.City, "")
	c.State = stringOr(p.State, "")
	c.PostalCode = stringOr(p.PostalCode, "")
	c.Website = stringOr(p.Website, "")
	c.FacebookPage = stringOr(p.FacebookPage, "")
	c.Industry = stringOr(p.Industry, "")
	c.CompanyType = stringOr(p.CompanyType, "")
	c.Description = stringOr(p.Description, "")
	c.LastNote = stringOr(p.LastNote, "")
	c.NameOnCard = stringOr(p.NameOnCard, "")
	c.CardNumberMasked = stringOr(p.CardNumberMasked, "")
	c.CardExpiry = stringOr(p.CardExpiry, "")
	c.BillingZip = stringOr(p.BillingZip, "")
	if p.ContactStatus != nil {
		c.ContactStatus = *p.ContactStatus
	}
	if p.ForecastedAmount != nil {
		c.ForecastedAmount = *p.ForecastedAmount
	}
	if p.InteractionCount != nil {
		c.InteractionCount = *p.InteractionCount
	}
	c.ProjectedCloseDate = p.ProjectedCloseDate
	if p.CreatedAtHint != nil {
		c.CreatedAt = *p.CreatedAtHint
	} else {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	c.Payment = client.PaymentProfile{Methods: []client.PaymentMethod{}}
	c.StatusHistory = []client.StatusHistoryEntry{}
	return c
}

// splitPatch translates a patch into the $set document (applied on every
// write) and the $setOnInsert document (insert branch only). The two never
// share a field path.
func splitPatch(p client.Patch, now time.Time) (bson.M, bson.M) {
	set := bson.M{"updatedAt": now}
	setOnInsert := bson.M{}

	setString := func(key string, v *string) {
		if v != nil {
			set[key] = *v
		}
	}
	setString("externalId", p.ExternalID)
	setString("ownedBy", p.OwnedBy)
	setString("name", p.Name)
	setString("email", p.Email)
	setString("phone", p.Phone)
	setString("address", p.Address)
	setString("city", p.City)
	setString("state", p.State)
	setString("postalCode", p.PostalCode)
	setString("website", p.Website)
	setString("facebookPage", p.FacebookPage)
	setString("industry", p.Industry)
	setString("companyType", p.CompanyType)
	setString("description", p.Description)
	setString("lastNote", p.LastNote)
	setString("nameOnCard", p.NameOnCard)
	setString("cardNumberMasked", p.CardNumberMasked)
	setString("cardExpiry", p.CardExpiry)
	setString("billingZip", p.BillingZip)

	if p.ContactStatus != nil {
		set["contactStatus"] = *p.ContactStatus
	} else {
		setOnInsert["contactStatus"] = client.StatusUncategorized
	}
	if p.ForecastedAmount != nil {
		set["forecastedAmount"] = *p.ForecastedAmount
	}
	if p.InteractionCount != nil {
		set["interactionCount"] = *p.InteractionCount
	}
	if p.ProjectedCloseDate != nil {
		set["projectedCloseDate"] = *p.ProjectedCloseDate
	}

	if p.CreatedAtHint != nil {
		setOnInsert["createdAt"] = *p.CreatedAtHint
	} else {
		setOnInsert["createdAt"] = now
	}
	setOnInsert["paymentMethod"] = client.PaymentProfile{Methods: []client.PaymentMethod{}}
	setOnInsert["statusHistory"] = []client.StatusHistoryEntry{}

	return set, setOnInsert
}

func stringOr(v *string, fallback string) string {
	if v != nil {
		return *v
	}
	return fallback
}
