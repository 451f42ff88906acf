package umowy

import (
	"fmt"
	"net/url"
)

// DefaultBaseURL is the public NFZ agreements portal.
const DefaultBaseURL = "https://aplikacje.nfz.gov.pl"

// Query identifies one provider search: contract year, NFZ branch code and
// service type code.
type Query struct {
	Year    int
	Branch  string
	Service string
}

func searchResultsURL(base *url.URL, q Query, page int) string {
	return fmt.Sprintf(
		"%s/umowy/Provider/SearchResults?Year=%d&Branch=%s&ServiceType=%s&page=%d",
		base, q.Year, url.QueryEscape(q.Branch), url.QueryEscape(q.Service), page,
	)
}

func searchReferer(base *url.URL) string {
	return fmt.Sprintf("%s/umowy/Provider/Search", base)
}

// agreementsURL embeds the provider code percent-encoded: codes may contain
// "/" which would otherwise split the query value.
func agreementsURL(base *url.URL, q Query, providerCode string) string {
	return fmt.Sprintf(
		"%s/umowy/Agreements/GetAgreements?Year=%d&ServiceType=%s&Code=%s&Branch=%s",
		base, q.Year, url.QueryEscape(q.Service), url.QueryEscape(providerCode), url.QueryEscape(q.Branch),
	)
}

// the referer mirrors the provider details page the portal would have
// rendered, with the code left raw as the browser would send it.
func providerDetailsReferer(base *url.URL, q Query, providerCode string) string {
	return fmt.Sprintf(
		"%s/umowy/Provider/Details?Code=%s&Year=%d&Branch=%s&ServiceType=%s",
		base, providerCode, q.Year, q.Branch, q.Service,
	)
}

func agreementDetailsReferer(base *url.URL) string {
	return fmt.Sprintf("%s/umowy/Agreements/Details", base)
}

func planDetailsReferer(base *url.URL, providerCode string) string {
	return fmt.Sprintf("%s/umowy/AgreementPlans/Details?Code=%s", base, providerCode)
}

// exported builders for callers walking levels below the provider listing.

func (c *Client) AgreementsURL(q Query, providerCode string) string {
	return agreementsURL(c.Base, q, providerCode)
}

func (c *Client) ProviderDetailsReferer(q Query, providerCode string) string {
	return providerDetailsReferer(c.Base, q, providerCode)
}

func (c *Client) AgreementDetailsReferer() string {
	return agreementDetailsReferer(c.Base)
}

func (c *Client) PlanDetailsReferer(providerCode string) string {
	return planDetailsReferer(c.Base, providerCode)
}
