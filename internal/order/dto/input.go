package dto

type CartLineInput struct {
	ProductID   string  `json:"product_id"`
	Quantity    float64 `json:"quantity"`
	VariantName string  `json:"variant_name,omitempty"`
	Extras      string  `json:"extras,omitempty"`
}

type PlaceOrderInput struct {
	Slug           string
	CustomerName   string
	Address        string
	Appointment    string // "2006-01-02T15:04" or RFC 3339, empty when not booked
	Notes          string
	DeliveryType   string
	Items          []CartLineInput
	IdempotencyKey string
}
