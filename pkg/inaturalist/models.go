package inaturalist

// ObservationsResponse is the body of GET /v1/observations
type ObservationsResponse struct {
	TotalResults int           `json:"total_results"`
	Page         int           `json:"page"`
	PerPage      int           `json:"per_page"`
	Results      []Observation `json:"results"`
}

// Observation is a single observation record
type Observation struct {
	ID           int64   `json:"id"`
	URI          string  `json:"uri"`
	ObservedOn   string  `json:"observed_on"`
	QualityGrade string  `json:"quality_grade"`
	Taxon        *Taxon  `json:"taxon"`
	User         *User   `json:"user"`
	Photos       []Photo `json:"photos"`
}

// Taxon identifies the organism an observation was identified as
type Taxon struct {
	ID                  int    `json:"id"`
	Name                string `json:"name"`
	Rank                string `json:"rank"`
	PreferredCommonName string `json:"preferred_common_name"`
}

// User is the observer
type User struct {
	ID    int    `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
}

// Photo is one image attached to an observation. URL points at the
// "square" size variant; other sizes share the same path with a
// different size segment.
type Photo struct {
	ID          int64  `json:"id"`
	URL         string `json:"url"`
	Attribution string `json:"attribution"`
	LicenseCode string `json:"license_code"`
}

// PhotoCount returns the total number of photos across the page
func (r *ObservationsResponse) PhotoCount() int {
	n := 0
	for _, obs := range r.Results {
		n += len(obs.Photos)
	}
	return n
}

// TaxonName returns the identified taxon's scientific name, if known
func (o Observation) TaxonName() string {
	if o.Taxon == nil {
		return ""
	}
	return o.Taxon.Name
}

// ObserverLogin returns the observer's login, if known
func (o Observation) ObserverLogin() string {
	if o.User == nil {
		return ""
	}
	return o.User.Login
}

// usersResponse wraps the single result of /users/me
type usersResponse struct {
	Results []User `json:"results"`
}
