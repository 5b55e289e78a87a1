package types

import "time"

// PriceQuote is one vendor's quote for a medicine, produced by the external
// aggregation scraper as a single JSON object per stream line. Quotes are
// immutable once parsed and live only for the duration of a search session.
// The purchase Link is the natural unique key for deduplication.
type PriceQuote struct {
	Name           string  `json:"name"`
	Item           string  `json:"item"`
	Price          float64 `json:"price"`
	DeliveryCharge float64 `json:"deliveryCharge"`
	FinalCharge    float64 `json:"finalCharge"`
	DeliveryTime   string  `json:"deliveryTime"`
	ImgLink        string  `json:"imgLink"`
	Link           string  `json:"link"`
	Lson           string  `json:"lson"`
}

// PriceQuery holds the three caller-supplied parameters of one price search
type PriceQuery struct {
	Medicine string
	Pack     string
	Pin      string
}

// StreamSession is the ephemeral per-request state tying one client query to
// one upstream connection. It is owned exclusively by the relay for one HTTP
// request/response cycle and destroyed when the response closes.
type StreamSession struct {
	ID           string
	Query        PriceQuery
	StartedAt    time.Time
	LastDataAt   time.Time
	Attempts     int
	BytesRelayed int64
	LinesRelayed int64
}
