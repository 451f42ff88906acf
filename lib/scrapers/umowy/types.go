package umowy

// Provider is one row of the provider search listing.
type Provider struct {
	Code string
	Name string
	City string
}

// Record is one fully denormalized leaf row of the final relation:
// the identity columns below plus every column of one month row.
type Record map[string]string

// Output column names, as the portal (and the final file) spell them.
const (
	ColYear          = "Rok"
	ColProviderCode  = "Kod świadczeniodawcy"
	ColProviderName  = "Nazwa świadczeniodawcy"
	ColCity          = "Miasto"
	ColAgreementCode = "Kod umowy"
	ColProductCode   = "Kod produktu kontraktowanego"
)

// IdentityColumns is the ancestry part of every Record, in output order.
var IdentityColumns = []string{
	ColYear,
	ColProviderCode,
	ColProviderName,
	ColCity,
	ColAgreementCode,
	ColProductCode,
}
