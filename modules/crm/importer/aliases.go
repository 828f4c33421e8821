package importer

import "strings"

// Canonical field names for import columns. Raw headers are resolved onto
// these through the alias table below.
const (
	FieldID                 = "id"
	FieldExternalID         = "externalId"
	FieldOwnedBy            = "ownedBy"
	FieldName               = "name"
	FieldFullName           = "fullName"
	FieldFirstName          = "firstName"
	FieldLastName           = "lastName"
	FieldCompany            = "company"
	FieldEmail              = "email"
	FieldPhone              = "phone"
	FieldAddress            = "address"
	FieldCity               = "city"
	FieldState              = "state"
	FieldPostalCode         = "postalCode"
	FieldWebsite            = "website"
	FieldFacebookPage       = "facebookPage"
	FieldIndustry           = "industry"
	FieldCompanyType        = "companyType"
	FieldContactStatus      = "contactStatus"
	FieldDescription        = "description"
	FieldLastNote           = "lastNote"
	FieldForecastedAmount   = "forecastedAmount"
	FieldInteractionCount   = "interactionCount"
	FieldProjectedCloseDate = "projectedCloseDate"
	FieldCreatedAt          = "createdAt"

	// Sensitive payment columns: routed to the RawPayment side channel, never
	// into the client draft.
	FieldCardNumber = "cardNumber"
	FieldCardExpiry = "cardExpiry"
	FieldCardCVV    = "cardCvv"
	FieldNameOnCard = "nameOnCard"
	FieldBillingZip = "billingZip"
)

// fieldAliases maps each canonical field to the header spellings seen in the
// wild. Matching is insensitive to case, spaces, underscores, hyphens, dots
// and parentheses, so one entry covers "Client_id", "client id", "ClientID"
// and so on. Order matters: the first canonical field whose alias matches
// claims the column.
var fieldAliases = []struct {
	field   string
	aliases []string
}{
	{FieldID, []string{"id", "clientid", "client_id", "recordid"}},
	{FieldExternalID, []string{"externalid", "external_id", "sourceid", "legacyid"}},
	{FieldOwnedBy, []string{"ownedby", "owner", "owneremail", "accountowner", "assignedto"}},
	{FieldName, []string{"name", "clientname", "contactname"}},
	{FieldFullName, []string{"fullname", "full_name"}},
	{FieldFirstName, []string{"firstname", "first", "fname", "givenname"}},
	{FieldLastName, []string{"lastname", "last", "lname", "surname", "familyname"}},
	{FieldCompany, []string{"company", "companyname", "organization", "org", "business"}},
	{FieldEmail, []string{"email", "emailaddress", "e-mail", "mail"}},
	{FieldPhone, []string{"phone", "phonenumber", "mobile", "cell", "telephone", "tel"}},
	{FieldAddress, []string{"address", "street", "streetaddress", "address1"}},
	{FieldCity, []string{"city", "town", "locality"}},
	{FieldState, []string{"state", "province", "region", "stateprovince"}},
	{FieldPostalCode, []string{"postalcode", "zip", "zipcode", "postcode"}},
	{FieldWebsite, []string{"website", "url", "web", "homepage", "site"}},
	{FieldFacebookPage, []string{"facebookpage", "facebook", "fbpage", "facebookurl"}},
	{FieldIndustry, []string{"industry", "sector", "vertical"}},
	{FieldCompanyType, []string{"companytype", "type", "businesstype", "entitytype"}},
	{FieldContactStatus, []string{"contactstatus", "status", "stage", "leadstatus"}},
	{FieldDescription, []string{"description", "notes", "note", "comments", "comment"}},
	{FieldLastNote, []string{"lastnote", "lastcomment", "recentnote"}},
	{FieldForecastedAmount, []string{"forecastedamount", "forecast", "forecastamount", "amount", "dealvalue", "opportunityvalue"}},
	{FieldInteractionCount, []string{"interactioncount", "interactions", "touchpoints", "activitycount"}},
	{FieldProjectedCloseDate, []string{"projectedclosedate", "closedate", "expectedclose", "closingdate"}},
	{FieldCreatedAt, []string{"createdat", "created", "createddate", "datecreated", "dateadded"}},

	{FieldCardNumber, []string{"cardnumber", "ccnumber", "cc", "creditcard", "creditcardnumber", "pan"}},
	{FieldCardExpiry, []string{"cardexpiry", "ccexp", "ccexpiry", "expiry", "expiration", "expdate", "cardexp"}},
	{FieldCardCVV, []string{"cardcvv", "cvv", "cvc", "ccv", "cvv2", "securitycode", "cccvv"}},
	{FieldNameOnCard, []string{"nameoncard", "cardholdername", "cardholder", "ccname"}},
	{FieldBillingZip, []string{"billingzip", "billingpostalcode", "billingzipcode", "cczip"}},
}

var sensitiveFields = map[string]bool{
	FieldCardNumber: true,
	FieldCardExpiry: true,
	FieldCardCVV:    true,
	FieldNameOnCard: true,
	FieldBillingZip: true,
}

// IsSensitiveField reports whether a canonical field must only reach the
// RawPayment side channel.
func IsSensitiveField(field string) bool {
	return sensitiveFields[field]
}

var headerStripper = strings.NewReplacer(
	" ", "",
	"_", "",
	"-", "",
	".", "",
	"(", "",
	")", "",
	"#", "",
	"/", "",
)

func normalizeHeader(header string) string {
	return headerStripper.Replace(strings.ToLower(strings.TrimSpace(header)))
}

var aliasIndex = func() map[string]string {
	idx := make(map[string]string)
	for _, entry := range fieldAliases {
		for _, alias := range entry.aliases {
			key := normalizeHeader(alias)
			if _, taken := idx[key]; !taken {
				idx[key] = entry.field
			}
		}
	}
	return idx
}()

// ResolveHeader maps a raw header onto its canonical field. Unknown headers
// resolve to "" and their columns are ignored.
func ResolveHeader(header string) (string, bool) {
	field, ok := aliasIndex[normalizeHeader(header)]
	return field, ok
}
