package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringList is a list column stored as a JSON array.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return marshalValue(l)
}

func (l *StringList) Scan(src interface{}) error {
	*l = StringList{}
	return scanJSON(src, l)
}

// OptionMap holds product option names and their allowed values,
// e.g. {"size": ["S", "M"]}. Stored as a JSON object.
type OptionMap map[string][]string

func (m OptionMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	return marshalValue(m)
}

func (m *OptionMap) Scan(src interface{}) error {
	*m = OptionMap{}
	return scanJSON(src, m)
}

// ShippingInfo is where an order is delivered.
type ShippingInfo struct {
	RecipientName string `json:"recipient_name" validate:"required,max=200"`
	Phone         string `json:"phone" validate:"required,max=50"`
	Address       string `json:"address" validate:"required,max=500"`
	City          string `json:"city" validate:"required,max=100"`
	PostalCode    string `json:"postal_code" validate:"max=20"`
	Notes         string `json:"notes,omitempty" validate:"max=500"`
}

func (s ShippingInfo) Value() (driver.Value, error) {
	return marshalValue(s)
}

func (s *ShippingInfo) Scan(src interface{}) error {
	return scanJSON(src, s)
}

// Payment methods
const (
	PaymentMethodCard           = "card"
	PaymentMethodCashOnDelivery = "cash_on_delivery"
	PaymentMethodBankTransfer   = "bank_transfer"
)

// PaymentInfo describes how the customer pays. Card numbers are never stored.
type PaymentInfo struct {
	Method    string `json:"method" validate:"required,oneof=card cash_on_delivery bank_transfer"`
	CardLast4 string `json:"card_last4,omitempty" validate:"omitempty,len=4,numeric"`
	Reference string `json:"reference,omitempty" validate:"max=100"`
}

func (p PaymentInfo) Value() (driver.Value, error) {
	return marshalValue(p)
}

func (p *PaymentInfo) Scan(src interface{}) error {
	return scanJSON(src, p)
}

func marshalValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func scanJSON(src interface{}, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dst)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("cannot scan %T into %T", src, dst)
	}
}
