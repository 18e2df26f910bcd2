// Package marketcap estimates historical market capitalisation from daily
// closing prices and the current share count.
package marketcap

import (
	"errors"
	"time"
)

// TrillionUSD is the divisor applied to price x shares.
const TrillionUSD = 1e12

// DefaultWindow is the default look-back period.
const DefaultWindow = 3 * 365 * 24 * time.Hour

// Company pairs a ticker symbol with a display name.
type Company struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
}

// DefaultCompanies is the default top-ten list.
var DefaultCompanies = []Company{
	{"AAPL", "Apple"},
	{"MSFT", "Microsoft"},
	{"NVDA", "NVIDIA"},
	{"GOOGL", "Alphabet"},
	{"AMZN", "Amazon"},
	{"META", "Meta Platforms"},
	{"TSM", "TSMC"},
	{"LLY", "Eli Lilly"},
	{"JPM", "JPMorgan Chase & Co."},
	{"XOM", "Exxon Mobil"},
}

// DefaultTickers returns the symbols of DefaultCompanies.
func DefaultTickers() []string {
	out := make([]string, len(DefaultCompanies))
	for i, c := range DefaultCompanies {
		out[i] = c.Ticker
	}
	return out
}

// CompanyName returns the display name of a known ticker, or the ticker itself.
func CompanyName(ticker string) string {
	for _, c := range DefaultCompanies {
		if c.Ticker == ticker {
			return c.Name
		}
	}
	return ticker
}

// Close is one daily closing price.
type Close struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"close"`
}

// Quote is what a Source returns for one ticker.
type Quote struct {
	Ticker            string  `json:"ticker"`
	Name              string  `json:"name"`
	SharesOutstanding float64 `json:"shares_outstanding"`
	Closes            []Close `json:"closes"`
}

// Point is one estimated market-cap value in trillions of USD.
type Point struct {
	Date      time.Time `json:"date"`
	Trillions float64   `json:"trillions"`
}

// Series is the estimated history of one company.
type Series struct {
	Ticker            string  `json:"ticker"`
	Name              string  `json:"name"`
	SharesOutstanding float64 `json:"shares_outstanding"`
	Latest            float64 `json:"latest_trillions"`
	Points            []Point `json:"points"`
}

// Failure records a ticker that could not be estimated.
type Failure struct {
	Ticker string `json:"ticker"`
	Error  string `json:"error"`
}

// Snapshot is the outcome of one refresh. Series keep the requested ticker
// order; failed tickers are listed instead of aborting the whole snapshot.
type Snapshot struct {
	GeneratedAt time.Time `json:"generated_at"`
	From        time.Time `json:"from"`
	To          time.Time `json:"to"`
	Series      []Series  `json:"series"`
	Failed      []Failure `json:"failed,omitempty"`
	Partial     bool      `json:"partial"`
}

var (
	// ErrNoShares means the source had no usable shares-outstanding figure.
	ErrNoShares = errors.New("shares outstanding unavailable")
	// ErrNoHistory means the source returned no usable closing prices.
	ErrNoHistory = errors.New("no historical prices")
	// ErrAllFailed is returned by a refresh in which every ticker failed.
	ErrAllFailed = errors.New("all tickers failed")
)
