package domain

import "github.com/shopspring/decimal"

type Rating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// Product is a catalog entry annotated with the session's remaining stock.
type Product struct {
	ID          int             `json:"id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Rating      Rating          `json:"rating"`
	Stock       int             `json:"stock"`
	Available   bool            `json:"available"`
}

// SetStock clamps n at zero and keeps Available in sync.
func (p *Product) SetStock(n int) {
	if n < 0 {
		n = 0
	}
	p.Stock = n
	p.Available = n > 0
}

type Availability struct {
	ProductID int  `json:"productId"`
	Stock     int  `json:"stock"`
	Available bool `json:"available"`
}

type CartItem struct {
	ID       int             `json:"id"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Quantity int             `json:"quantity"`
}

// Field is one named form input, in display order.
type Field struct {
	Key   string
	Value string
}

type ShippingDetails struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

var ShippingKeys = []string{"name", "address", "city", "postalCode", "country"}

func (s ShippingDetails) Fields() []Field {
	return []Field{
		{"name", s.Name},
		{"address", s.Address},
		{"city", s.City},
		{"postalCode", s.PostalCode},
		{"country", s.Country},
	}
}

// Set assigns a field by its form key. It reports false for unknown keys.
func (s *ShippingDetails) Set(key, value string) bool {
	switch key {
	case "name":
		s.Name = value
	case "address":
		s.Address = value
	case "city":
		s.City = value
	case "postalCode":
		s.PostalCode = value
	case "country":
		s.Country = value
	default:
		return false
	}
	return true
}

type PaymentDetails struct {
	CardNumber string `json:"cardNumber"`
	ExpiryDate string `json:"expiryDate"`
	CVV        string `json:"cvv"`
}

var PaymentKeys = []string{"cardNumber", "expiryDate", "cvv"}

func (p PaymentDetails) Fields() []Field {
	return []Field{
		{"cardNumber", p.CardNumber},
		{"expiryDate", p.ExpiryDate},
		{"cvv", p.CVV},
	}
}

func (p *PaymentDetails) Set(key, value string) bool {
	switch key {
	case "cardNumber":
		p.CardNumber = value
	case "expiryDate":
		p.ExpiryDate = value
	case "cvv":
		p.CVV = value
	default:
		return false
	}
	return true
}

type OrderLine struct {
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// Purchase is the immutable record of a completed order.
type Purchase struct {
	OrderNumber     int64           `json:"orderNumber"`
	Date            string          `json:"date"`
	OrderSummary    []OrderLine     `json:"orderSummary"`
	ShippingDetails ShippingDetails `json:"shippingDetails"`
	Subtotal        string          `json:"subtotal"`
	Tax             string          `json:"tax"`
	TotalPrice      string          `json:"totalPrice"`
}
