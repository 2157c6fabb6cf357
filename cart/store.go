// Package cart holds the shopping cart state container. A Store is owned by a
// single caller; it is not safe for concurrent use.
package cart

import "github.com/DanielTrujilloS/DafaMedicSistema/models"

// Line is one cart entry. Everything but Quantity is a snapshot taken when
// the product was added and does not follow later catalog changes.
type Line struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Slug      string `json:"slug,omitempty"`
	ImageURL  string `json:"imageUrl,omitempty"`
	Brand     string `json:"brand,omitempty"`
	UnitCents int64  `json:"unitCents"`
	Currency  string `json:"currency"`
	Quantity  int    `json:"quantity"`
}

func (l Line) SubtotalCents() int64 {
	return l.UnitCents * int64(l.Quantity)
}

// ProductInput is what AddItem needs to know about a product. Stock is nil
// when the caller does not know it.
type ProductInput struct {
	ID         string
	Name       string
	Slug       string
	ImageURL   string
	Brand      string
	PriceCents int64
	Currency   string
	IsActive   bool
	Stock      *int
}

func FromProduct(p models.Product) ProductInput {
	stock := p.Stock
	return ProductInput{
		ID:         p.ID,
		Name:       p.Name,
		Slug:       p.Slug,
		ImageURL:   p.ImageURL(),
		Brand:      p.Brand,
		PriceCents: p.PriceCents,
		Currency:   models.DefaultCurrency,
		IsActive:   p.IsActive,
		Stock:      &stock,
	}
}

// State is the persisted part of a Store.
type State struct {
	Items         []Line `json:"items"`
	ShippingCents int64  `json:"shippingCents"`
}

type Store struct {
	state State
}

func New() *Store {
	return &Store{state: State{Items: []Line{}}}
}

func FromState(s State) *Store {
	items := make([]Line, 0, len(s.Items))
	for _, it := range s.Items {
		if it.Quantity > 0 && it.ProductID != "" {
			items = append(items, it)
		}
	}
	shipping := s.ShippingCents
	if shipping < 0 {
		shipping = 0
	}
	return &Store{state: State{Items: items, ShippingCents: shipping}}
}

// State returns a copy of the current state.
func (s *Store) State() State {
	items := make([]Line, len(s.state.Items))
	copy(items, s.state.Items)
	return State{Items: items, ShippingCents: s.state.ShippingCents}
}

func (s *Store) Items() []Line { return s.State().Items }

func (s *Store) ShippingCents() int64 { return s.state.ShippingCents }

func (s *Store) TotalItems() int {
	n := 0
	for _, it := range s.state.Items {
		n += it.Quantity
	}
	return n
}

func (s *Store) SubtotalCents() int64 {
	var sum int64
	for _, it := range s.state.Items {
		sum += it.SubtotalCents()
	}
	return sum
}

func (s *Store) TotalCents() int64 {
	return s.SubtotalCents() + s.state.ShippingCents
}

func (s *Store) Item(productID string) (Line, bool) {
	if i := s.index(productID); i >= 0 {
		return s.state.Items[i], true
	}
	return Line{}, false
}

func (s *Store) HasItem(productID string) bool {
	return s.index(productID) >= 0
}

// AddItem reports whether the cart changed. Inactive products and products
// with known non-positive stock are ignored. Adding an existing product
// refreshes its snapshot and grows its quantity, capped at known stock.
func (s *Store) AddItem(p ProductInput, qty int) bool {
	qty = atLeastOne(qty)
	if !p.IsActive {
		return false
	}
	if p.Stock != nil && *p.Stock <= 0 {
		return false
	}

	currency := p.Currency
	if currency == "" {
		currency = models.DefaultCurrency
	}
	line := Line{
		ProductID: p.ID,
		Name:      p.Name,
		Slug:      p.Slug,
		ImageURL:  p.ImageURL,
		Brand:     p.Brand,
		UnitCents: p.PriceCents,
		Currency:  currency,
	}

	if i := s.index(p.ID); i >= 0 {
		next := s.state.Items[i].Quantity + qty
		if p.Stock != nil && next > *p.Stock {
			next = *p.Stock
		}
		line.Quantity = next
		s.state.Items[i] = line
		return true
	}

	if p.Stock != nil && qty > *p.Stock {
		qty = *p.Stock
	}
	line.Quantity = qty
	s.state.Items = append(s.state.Items, line)
	return true
}

func (s *Store) RemoveItem(productID string) {
	if i := s.index(productID); i >= 0 {
		s.state.Items = append(s.state.Items[:i], s.state.Items[i+1:]...)
	}
}

func (s *Store) Increase(productID string, step int) {
	if i := s.index(productID); i >= 0 {
		s.state.Items[i].Quantity += atLeastOne(step)
	}
}

func (s *Store) Decrease(productID string, step int) {
	i := s.index(productID)
	if i < 0 {
		return
	}
	s.state.Items[i].Quantity -= atLeastOne(step)
	if s.state.Items[i].Quantity <= 0 {
		s.RemoveItem(productID)
	}
}

func (s *Store) SetQuantity(productID string, qty int) {
	if qty <= 0 {
		s.RemoveItem(productID)
		return
	}
	if i := s.index(productID); i >= 0 {
		s.state.Items[i].Quantity = qty
	}
}

func (s *Store) SetShippingCents(cents int64) {
	if cents < 0 {
		cents = 0
	}
	s.state.ShippingCents = cents
}

func (s *Store) Clear() {
	s.state = State{Items: []Line{}}
}

func (s *Store) index(productID string) int {
	for i, it := range s.state.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
