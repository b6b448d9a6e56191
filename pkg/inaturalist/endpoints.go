package inaturalist

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	// BaseURL is the root of the public iNaturalist API
	BaseURL = "https://api.inaturalist.org/v1"

	// ObservationsEndpoint lists observations
	ObservationsEndpoint = "/observations"

	// CurrentUserEndpoint returns the user owning the API token
	CurrentUserEndpoint = "/users/me"

	// DefaultPerPage matches what the scraper has always requested
	DefaultPerPage = 30

	// MaxPerPage is the largest page the API will serve
	MaxPerPage = 200
)

// Query selects one page of observations
type Query struct {
	TaxonID      int
	TaxonName    string
	QualityGrade string
	PerPage      int
	Page         int
	OrderBy      string
	Order        string
}

// Values encodes the query as API parameters. photos=true is always set.
func (q Query) Values() url.Values {
	params := url.Values{}
	if q.TaxonID > 0 {
		params.Set("taxon_id", strconv.Itoa(q.TaxonID))
	} else if q.TaxonName != "" {
		params.Set("taxon_name", q.TaxonName)
	}
	if q.QualityGrade != "" {
		params.Set("quality_grade", q.QualityGrade)
	}
	params.Set("photos", "true")

	perPage := q.PerPage
	if perPage <= 0 {
		perPage = DefaultPerPage
	} else if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	params.Set("per_page", strconv.Itoa(perPage))

	page := q.Page
	if page < 1 {
		page = 1
	}
	params.Set("page", strconv.Itoa(page))

	orderBy := q.OrderBy
	if orderBy == "" {
		orderBy = "created_at"
	}
	order := q.Order
	if order == "" {
		order = "desc"
	}
	params.Set("order_by", orderBy)
	params.Set("order", order)

	return params
}

// ObservationsURL builds the full request URL for q against baseURL
func ObservationsURL(baseURL string, q Query) string {
	if baseURL == "" {
		baseURL = BaseURL
	}
	return strings.TrimRight(baseURL, "/") + ObservationsEndpoint + "?" + q.Values().Encode()
}
