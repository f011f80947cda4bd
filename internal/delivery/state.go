package delivery

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/layerhub/marketplace-backend/internal/models"
)

// State is the delivery section of one product edit session. Options are
// kept in selection order and keyed by type. The SingPost fee and royalty are
// remembered separately from the option set, so deselecting and reselecting
// SingPost within a session restores them.
type State struct {
	options         []models.DeliveryOption
	privateFeeInput string
	locationInput   string
	locations       []string
	dimensions      models.Dimensions
	singpostFee     *float64
	singpostRoyalty float64
}

// NewState seeds a session from a stored product's delivery configuration.
func NewState(existing *models.Delivery, dims models.Dimensions) *State {
	s := &State{dimensions: dims, locations: []string{}}
	if existing == nil {
		return s
	}

	for _, o := range existing.DeliveryTypes {
		s.insert(o)
	}

	if o, ok := existing.Option(models.DeliveryTypePrivate); ok {
		if amount, ok := o.Fixed(); ok {
			s.privateFeeInput = strconv.FormatFloat(amount, 'f', -1, 64)
		}
	}

	if len(existing.SelfCollectLocation) > 0 {
		s.locations = append([]string{}, existing.SelfCollectLocation...)
		s.locationInput = strings.Join(s.locations, ", ")
	}

	if o, ok := existing.Option(models.DeliveryTypeSingpost); ok {
		if sp, ok := o.Singpost(); ok {
			s.singpostFee = copyFee(sp.Fee)
			s.singpostRoyalty = sp.Royalty
		}
	}

	return s
}

// FromSubmission builds the state for a submitted product form. The SingPost
// fee is recomputed from the dimensions; only the royalty is taken from the
// submitted option.
func FromSubmission(options []models.DeliveryOption, locations []string, dims models.Dimensions) *State {
	s := &State{dimensions: dims, locations: cleanLocations(locations)}
	s.locationInput = strings.Join(s.locations, ", ")

	for _, o := range options {
		s.insert(o)
	}

	if o, ok := s.option(models.DeliveryTypePrivate); ok {
		if amount, ok := o.Fixed(); ok {
			s.privateFeeInput = strconv.FormatFloat(amount, 'f', -1, 64)
		}
	}

	if o, ok := s.option(models.DeliveryTypeSingpost); ok {
		if sp, ok := o.Singpost(); ok {
			s.singpostRoyalty = sp.Royalty
		}
	}

	s.singpostFee = SingpostFeePtr(dims)
	s.syncSingpost()
	return s
}

// Toggle selects or deselects a delivery method. Selecting an already
// selected method is a no-op.
func (s *State) Toggle(t models.DeliveryType, selected bool) error {
	if !t.Valid() {
		return fmt.Errorf("unknown delivery type %q", t)
	}

	if !selected {
		s.remove(t)
		if t == models.DeliveryTypePrivate {
			s.privateFeeInput = ""
		}
		return nil
	}

	if s.Selected(t) {
		return nil
	}

	switch t {
	case models.DeliveryTypeSingpost:
		zero := 0.0
		s.options = append(s.options, models.NewSingpostOption(&zero, 0))
		s.syncSingpost()
	default:
		s.options = append(s.options, models.NewFixedOption(t, 0))
	}
	return nil
}

// SetPrivateFee stores the raw input and prices the private option from it.
// Empty or non-numeric input prices the option at 0.
func (s *State) SetPrivateFee(input string) {
	s.privateFeeInput = input
	amount := parseAmount(input)
	for i, o := range s.options {
		if o.Type == models.DeliveryTypePrivate {
			s.options[i].Price = models.FixedPrice(amount)
		}
	}
}

func (s *State) SetSelfCollectLocations(input string) {
	s.locationInput = input
	s.locations = ParseLocations(input)
}

// SetDimensions recomputes the SingPost fee for the new parcel size.
func (s *State) SetDimensions(d models.Dimensions) {
	s.dimensions = d
	s.singpostFee = SingpostFeePtr(d)
	s.syncSingpost()
}

func (s *State) SetSingpostRoyalty(royalty float64) {
	s.singpostRoyalty = royalty
	s.syncSingpost()
}

// RecomputeSingpostPrice writes {fee, royalty} onto the SingPost option when
// it differs from the current price. It reports whether anything changed.
func (s *State) RecomputeSingpostPrice(fee *float64, royalty float64) bool {
	idx := s.index(models.DeliveryTypeSingpost)
	if idx < 0 {
		return false
	}

	next := models.SingpostPrice{Fee: copyFee(fee), Royalty: royalty}
	if current, ok := s.options[idx].Singpost(); ok && current.Equal(next) {
		return false
	}

	s.options[idx].Price = next
	return true
}

func (s *State) syncSingpost() {
	s.RecomputeSingpostPrice(s.singpostFee, s.singpostRoyalty)
}

func (s *State) Selected(t models.DeliveryType) bool {
	return s.index(t) >= 0
}

func (s *State) Options() []models.DeliveryOption {
	return append([]models.DeliveryOption{}, s.options...)
}

func (s *State) PrivateFeeInput() string { return s.privateFeeInput }
func (s *State) LocationInput() string   { return s.locationInput }
func (s *State) Locations() []string     { return append([]string{}, s.locations...) }
func (s *State) Dimensions() models.Dimensions {
	return s.dimensions
}
func (s *State) SingpostFee() *float64    { return copyFee(s.singpostFee) }
func (s *State) SingpostRoyalty() float64 { return s.singpostRoyalty }

// Delivery snapshots the state into the shape persisted on a product.
// Collection points are only kept while self-collect is selected.
func (s *State) Delivery() models.Delivery {
	locations := []string{}
	if s.Selected(models.DeliveryTypeSelfCollect) {
		locations = s.Locations()
	}
	return models.Delivery{
		DeliveryTypes:       s.Options(),
		SelfCollectLocation: locations,
	}
}

// ParseLocations splits a comma separated list of collection points,
// trimming each entry and dropping empty ones.
func ParseLocations(input string) []string {
	return cleanLocations(strings.Split(input, ","))
}

func cleanLocations(raw []string) []string {
	locations := []string{}
	for _, loc := range raw {
		if loc = strings.TrimSpace(loc); loc != "" {
			locations = append(locations, loc)
		}
	}
	return locations
}

func (s *State) insert(o models.DeliveryOption) {
	if !o.Type.Valid() || s.Selected(o.Type) {
		return
	}
	s.options = append(s.options, o)
}

func (s *State) remove(t models.DeliveryType) {
	kept := s.options[:0]
	for _, o := range s.options {
		if o.Type != t {
			kept = append(kept, o)
		}
	}
	s.options = kept
}

func (s *State) index(t models.DeliveryType) int {
	for i, o := range s.options {
		if o.Type == t {
			return i
		}
	}
	return -1
}

func (s *State) option(t models.DeliveryType) (models.DeliveryOption, bool) {
	if i := s.index(t); i >= 0 {
		return s.options[i], true
	}
	return models.DeliveryOption{}, false
}

func parseAmount(input string) float64 {
	amount, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0
	}
	return amount
}

func copyFee(fee *float64) *float64 {
	if fee == nil {
		return nil
	}
	v := *fee
	return &v
}
