package models

// Transport DTOs for the fare endpoints. Kept next to the domain types for reuse by handlers and tests.

// CurrencyINR is the currency symbol returned with every price.
const CurrencyINR = "₹"

type PredictResponse struct {
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Status   string  `json:"status"`
}

type TrendPoint struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

type TrendResponse struct {
	Historical []TrendPoint `json:"historical"`
	Forecast   []TrendPoint `json:"forecast"`
	Status     string       `json:"status"`
}

// TrendFrame is one websocket message of a streamed trend.
type TrendFrame struct {
	Series Series  `json:"series"`
	Date   string  `json:"date"`
	Price  float64 `json:"price"`
}

// CompareRequest is the query of GET /compare. Date uses the DD/MM/YYYY layout of the upstream site.
type CompareRequest struct {
	Origin      string `query:"origin" json:"origin" validate:"required,alpha,len=3"`
	Destination string `query:"destination" json:"destination" validate:"required,alpha,len=3,nefield=Origin"`
	Date        string `query:"date" json:"date" validate:"required,datetime=02/01/2006"`
}

type CompareResponse struct {
	Prices []int  `json:"prices"`
	Count  int    `json:"count"`
	Status string `json:"status"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Model    string `json:"model"`
	Features int    `json:"features"`
}
