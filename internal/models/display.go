package models

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// DisplayData is the snapshot sent to the segmented display controller.
// Every field is optional: nil means "unknown", which the display renders
// differently from a reported zero or false. The same type is used for the
// partial snapshots produced by each source.
type DisplayData struct {
	Hours       *int         `json:"hours,omitempty" validate:"omitempty,min=0,max=23"`
	Minutes     *int         `json:"minutes,omitempty" validate:"omitempty,min=0,max=59"`
	Wind        *DisplayWind `json:"wind,omitempty"`
	Pressure    *Pressure    `json:"pressure,omitempty"`
	Clouds      *Clouds      `json:"clouds,omitempty"`
	Visibility  *Visibility  `json:"visibility,omitempty"`
	Humidity    *int         `json:"humidity,omitempty" validate:"omitempty,min=0,max=100"`
	Temperature *int         `json:"temperature,omitempty" validate:"omitempty,min=-99,max=99"`
	HasThunder  *bool        `json:"hasThunder,omitempty"`
	Events      *int         `json:"events,omitempty" validate:"omitempty,min=0,max=8"`
	IsUrgent    *bool        `json:"isUrgent,omitempty"`
	UnitID      *int         `json:"unitId,omitempty" validate:"omitempty,min=0,max=9"`
	HasIcing    *bool        `json:"hasIcing,omitempty"`
}

// DisplayWind is the wind group of the display. Speeds are in the unit of the report.
type DisplayWind struct {
	Heading               *int `json:"heading" validate:"omitempty,min=0,max=360"`
	Speed                 *int `json:"speed"`
	MaxSpeed              *int `json:"maxSpeed"`
	MaxPerpendicularSpeed *int `json:"maxPerpendicularSpeed"`
}

// Pressure holds the same reading in both display units
type Pressure struct {
	HPa  *float64 `json:"hPa"`
	MmHg *float64 `json:"mmHg"`
}

// Clouds uses the display's cloud layer indexes for N and Nh
type Clouds struct {
	N      *int `json:"n" validate:"omitempty,oneof=0 2 4 6 10"`
	Nh     *int `json:"nh" validate:"omitempty,oneof=0 2 4 6 10"`
	Height *int `json:"height"`
}

// Visibility fields are reused as price tiers
type Visibility struct {
	S  *float64 `json:"s"`
	L1 *float64 `json:"l1"`
	L2 *float64 `json:"l2"`
	L3 *float64 `json:"l3"`
}

var validate = validator.New()

// Validate checks that every present field fits its display field
func (d *DisplayData) Validate() error {
	if d == nil {
		return nil
	}
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("display data out of range: %w", err)
	}
	return nil
}
