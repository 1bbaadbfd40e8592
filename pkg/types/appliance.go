package types

import (
	"fmt"
	"math"
	"sort"
)

const (
	// MaxApplianceHours is the most an appliance can run in a day.
	MaxApplianceHours = 24.0
	// ApplianceHourStep is the granularity of daily hours of use.
	ApplianceHourStep = 0.5
	// DefaultApplianceHours is used when a selection doesn't specify hours.
	DefaultApplianceHours = 4.0
	// MaxCustomApplianceWatt is the largest wattage accepted for a custom appliance.
	MaxCustomApplianceWatt = 5000.0
	// DefaultCustomApplianceWatt is the wattage of a custom appliance if none is given.
	DefaultCustomApplianceWatt = 100.0

	// ApplianceIDOther identifies the custom appliance in the catalog.
	ApplianceIDOther = "other"
	// CategoryOther holds custom appliances and anything not in the catalog.
	CategoryOther = "Other"
)

// Appliance is a selected appliance and its estimated daily use.
type Appliance struct {
	ID       string  `json:"id"`
	Name     string  `json:"name,omitempty"`
	Category string  `json:"category,omitempty"`
	Watt     float64 `json:"watt"`
	Hours    float64 `json:"hours"`
}

// EnergyWH returns the daily energy used by the appliance in watt-hours.
func (a Appliance) EnergyWH() float64 {
	return a.Watt * a.Hours
}

// Validate checks that the appliance is within the accepted ranges.
func (a Appliance) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("appliance id is required")
	}
	if math.IsNaN(a.Watt) || math.IsInf(a.Watt, 0) || a.Watt <= 0 {
		return fmt.Errorf("appliance %s: watt must be positive", a.ID)
	}
	if a.ID == ApplianceIDOther && a.Watt > MaxCustomApplianceWatt {
		return fmt.Errorf("appliance %s: watt must be at most %.0f", a.ID, MaxCustomApplianceWatt)
	}
	if math.IsNaN(a.Hours) || a.Hours < 0 || a.Hours > MaxApplianceHours {
		return fmt.Errorf("appliance %s: hours must be between 0 and %.0f", a.ID, MaxApplianceHours)
	}
	if math.Mod(a.Hours, ApplianceHourStep) != 0 {
		return fmt.Errorf("appliance %s: hours must be in %.1f hour steps", a.ID, ApplianceHourStep)
	}
	return nil
}

// Appliances maps an appliance identifier to its selection.
type Appliances map[string]Appliance

// Validate checks every appliance and that each one is stored under its own ID.
func (as Appliances) Validate() error {
	for _, a := range as.Sorted() {
		if err := a.Validate(); err != nil {
			return err
		}
	}
	for id, a := range as {
		if id != a.ID {
			return fmt.Errorf("appliance %s stored under mismatched key %s", a.ID, id)
		}
	}
	return nil
}

// Sorted returns the appliances ordered by ID.
func (as Appliances) Sorted() []Appliance {
	list := make([]Appliance, 0, len(as))
	for _, a := range as {
		list = append(list, a)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})
	return list
}

// CatalogItem is an appliance that can be selected.
type CatalogItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Watt     float64 `json:"watt"`
	// Custom appliances take a user provided wattage.
	Custom bool `json:"custom,omitempty"`
}

// CatalogCategory groups catalog items.
type CatalogCategory struct {
	Name  string        `json:"name"`
	Items []CatalogItem `json:"items"`
}

// ApplianceCatalog is the list of appliances offered for selection.
var ApplianceCatalog = []CatalogCategory{
	{
		Name: "Lighting",
		Items: []CatalogItem{
			{ID: "led_bulb", Name: "LED Bulb (10W)", Watt: 10},
			{ID: "tube_light", Name: "Tube Light (40W)", Watt: 40},
		},
	},
	{
		Name: "Electronics",
		Items: []CatalogItem{
			{ID: "tv", Name: "TV (100W)", Watt: 100},
			{ID: "laptop", Name: "Laptop (60W)", Watt: 60},
			{ID: "wifi_router", Name: "WiFi Router (10W)", Watt: 10},
		},
	},
	{
		Name: "Motors/Compressors",
		Items: []CatalogItem{
			{ID: "refrigerator", Name: "Refrigerator (150W)", Watt: 150},
			{ID: "washing_machine", Name: "Washing Machine (500W)", Watt: 500},
			{ID: "water_pump", Name: "Water Pump (800W)", Watt: 800},
		},
	},
	{
		Name: "Heating/Cooling",
		Items: []CatalogItem{
			{ID: "electric_heater", Name: "Electric Heater (1500W)", Watt: 1500},
			{ID: "fan", Name: "Fan (70W)", Watt: 70},
			{ID: "air_conditioner", Name: "Air Conditioner (2000W)", Watt: 2000},
		},
	},
	{
		Name: CategoryOther,
		Items: []CatalogItem{
			{ID: ApplianceIDOther, Name: "Other (W)", Watt: DefaultCustomApplianceWatt, Custom: true},
		},
	},
}

// LookupCatalogItem finds a catalog item by ID. The returned item has its
// Category filled in.
func LookupCatalogItem(id string) (CatalogItem, bool) {
	for _, c := range ApplianceCatalog {
		for _, item := range c.Items {
			if item.ID == id {
				item.Category = c.Name
				return item, true
			}
		}
	}
	return CatalogItem{}, false
}
