package catalog

// Location is a WGS84 coordinate in decimal degrees.
type Location struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// Site is one point of interest. URL, Feature and Tours are only set for
// collections that carry them.
type Site struct {
	ID          string   `json:"id" validate:"required"`
	Name        string   `json:"name" validate:"required"`
	LocalName   string   `json:"local_name,omitempty"`
	Location    Location `json:"location"`
	Description string   `json:"description,omitempty"`
	URL         string   `json:"url,omitempty" validate:"omitempty,url"`
	Feature     string   `json:"feature,omitempty"`
	Tours       []string `json:"tours,omitempty"`
	Selected    bool     `json:"selected,omitempty"`
}

// Collection is a named set of sites shown on one map.
type Collection struct {
	Name   string   `json:"name"`
	Title  string   `json:"title"`
	Center Location `json:"center"`
	Zoom   int      `json:"zoom"`
	Sites  []Site   `json:"sites"`
}

// Summary describes a collection without its sites.
type Summary struct {
	Name      string `json:"name"`
	Title     string `json:"title"`
	SiteCount int    `json:"site_count"`
}
