package models

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

var (
	ErrNameRequired  = errors.New("name is required")
	ErrOwnerRequired = errors.New("owner is required")
	ErrInvalidState  = errors.New("invalid order state")
)

type OrderState string

// remember to add new states to orderStates
const (
	OrderStateNew       OrderState = "New"
	OrderStatePending   OrderState = "Pending"
	OrderStateOTW       OrderState = "OTW"
	OrderStateCompleted OrderState = "Completed"
)

// display order
var orderStates = []OrderState{
	OrderStateNew,
	OrderStatePending,
	OrderStateOTW,
	OrderStateCompleted,
}

var folder = cases.Fold()

// ParseOrderState accepts any casing of the four labels ("otw", "new", "COMPLETED")
// and returns the canonical one.
func ParseOrderState(s string) (OrderState, error) {
	key := folder.String(strings.TrimSpace(s))
	for _, state := range orderStates {
		if folder.String(string(state)) == key {
			return state, nil
		}
	}
	return "", ErrInvalidState
}

func OrderStates() []OrderState {
	result := make([]OrderState, len(orderStates))
	copy(result, orderStates)
	return result
}

func (s OrderState) Valid() bool {
	_, err := ParseOrderState(string(s))
	return err == nil
}

// UnmarshalText normalizes the casing so records written by older clients
// ("new", "otw") load as canonical states.
func (s *OrderState) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*s = ""
		return nil
	}
	state, err := ParseOrderState(string(text))
	if err != nil {
		return err
	}
	*s = state
	return nil
}

type Order struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Member    string     `json:"member"`
	Source    string     `json:"source"`
	Note      string     `json:"note"`
	Owner     string     `json:"owner"`
	Date      time.Time  `json:"date"`
	State     OrderState `json:"state"`
	Paid      bool       `json:"paid"`
	ImagePath *string    `json:"image_path,omitempty"`

	// derived from ImagePath at read time, never stored
	ImageURL string `json:"imageUrl,omitempty"`
}

func (o Order) HasImage() bool {
	return o.ImagePath != nil && *o.ImagePath != ""
}

// OrderDraft is what the "new order" form submits.
type OrderDraft struct {
	Name   string     `json:"name"`
	Member string     `json:"member"`
	Source string     `json:"source"`
	Note   string     `json:"note"`
	Owner  string     `json:"owner"`
	State  OrderState `json:"state,omitempty"`
	Paid   bool       `json:"paid"`

	// set by the order service after a real upload, never read from a request
	ImagePath *string `json:"-"`
}

func (d OrderDraft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrNameRequired
	}
	if strings.TrimSpace(d.Owner) == "" {
		return ErrOwnerRequired
	}
	if d.State != "" && !d.State.Valid() {
		return ErrInvalidState
	}
	return nil
}

// NewOrder stamps a draft with its id and creation date and applies defaults.
func (d OrderDraft) NewOrder(id string, now time.Time) Order {
	state := d.State
	if state == "" {
		state = OrderStateNew
	}
	return Order{
		ID:        id,
		Name:      d.Name,
		Member:    d.Member,
		Source:    d.Source,
		Note:      d.Note,
		Owner:     d.Owner,
		Date:      now.UTC(),
		State:     state,
		Paid:      d.Paid,
		ImagePath: d.ImagePath,
	}
}

// OrderPatch carries the fields an edit changes. Nil fields are left alone;
// id and date cannot be patched.
type OrderPatch struct {
	Name      *string     `json:"name,omitempty"`
	Member    *string     `json:"member,omitempty"`
	Source    *string     `json:"source,omitempty"`
	Note      *string     `json:"note,omitempty"`
	Owner     *string     `json:"owner,omitempty"`
	State     *OrderState `json:"state,omitempty"`
	Paid      *bool       `json:"paid,omitempty"`
	ImagePath *string     `json:"-"`
}

func (p OrderPatch) IsEmpty() bool {
	return p.Name == nil && p.Member == nil && p.Source == nil && p.Note == nil &&
		p.Owner == nil && p.State == nil && p.Paid == nil && p.ImagePath == nil
}

func (p OrderPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return ErrNameRequired
	}
	if p.Owner != nil && strings.TrimSpace(*p.Owner) == "" {
		return ErrOwnerRequired
	}
	if p.State != nil && !p.State.Valid() {
		return ErrInvalidState
	}
	return nil
}

func (p OrderPatch) Apply(o Order) Order {
	if p.Name != nil {
		o.Name = *p.Name
	}
	if p.Member != nil {
		o.Member = *p.Member
	}
	if p.Source != nil {
		o.Source = *p.Source
	}
	if p.Note != nil {
		o.Note = *p.Note
	}
	if p.Owner != nil {
		o.Owner = *p.Owner
	}
	if p.State != nil {
		o.State = *p.State
	}
	if p.Paid != nil {
		o.Paid = *p.Paid
	}
	if p.ImagePath != nil {
		path := *p.ImagePath
		o.ImagePath = &path
	}
	return o
}

// OrderInput is the full field set collected by the form overlay and the
// inline editor.
type OrderInput struct {
	Name   string
	Member string
	Source string
	Note   string
	Owner  string
	State  OrderState
	Paid   bool
}

func (in OrderInput) Draft() OrderDraft {
	return OrderDraft{
		Name:   in.Name,
		Member: in.Member,
		Source: in.Source,
		Note:   in.Note,
		Owner:  in.Owner,
		State:  in.State,
		Paid:   in.Paid,
	}
}

func (in OrderInput) Patch() OrderPatch {
	p := OrderPatch{
		Name:   &in.Name,
		Member: &in.Member,
		Source: &in.Source,
		Note:   &in.Note,
		Owner:  &in.Owner,
		Paid:   &in.Paid,
	}
	if in.State != "" {
		state := in.State
		p.State = &state
	}
	return p
}

// InputFrom pre-populates the form when editing.
func InputFrom(o Order) OrderInput {
	return OrderInput{
		Name:   o.Name,
		Member: o.Member,
		Source: o.Source,
		Note:   o.Note,
		Owner:  o.Owner,
		State:  o.State,
		Paid:   o.Paid,
	}
}
