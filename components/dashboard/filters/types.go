package filters

import (
	"errors"
	"fmt"
)

// All is the sentinel selecting every value of a dimension.
const All = "All"

var ErrUnknownValue = errors.New("filters: unknown value")

// StoreType is a retail store format.
type StoreType string

const (
	StoreAll         StoreType = All
	StoreHypermarket StoreType = "Hypermarket"
	StoreSupermarket StoreType = "Supermarket"
	StoreConvenience StoreType = "Convenience"
	StoreMiniMart    StoreType = "Mini-Mart"
	StoreGrocery     StoreType = "Grocery"
)

// StoreTypes lists every store type, sentinel first.
var StoreTypes = []StoreType{StoreAll, StoreHypermarket, StoreSupermarket, StoreConvenience, StoreMiniMart, StoreGrocery}

// LocationZone is a city zone.
type LocationZone string

const (
	ZoneAll     LocationZone = All
	ZoneNorth   LocationZone = "North Riyadh"
	ZoneSouth   LocationZone = "South Riyadh"
	ZoneEast    LocationZone = "East Riyadh"
	ZoneWest    LocationZone = "West Riyadh"
	ZoneCentral LocationZone = "Central Riyadh"
)

// LocationZones lists every zone, sentinel first.
var LocationZones = []LocationZone{ZoneAll, ZoneNorth, ZoneSouth, ZoneEast, ZoneWest, ZoneCentral}

// Brand is a product brand grouping.
type Brand string

const (
	BrandAll      Brand = All
	BrandCocaCola Brand = "Coca-Cola"
	BrandPepsi    Brand = "Pepsi"
	BrandLocal    Brand = "Local Brands"
	BrandPremium  Brand = "Premium Brands"
)

// Brands lists every brand, sentinel first.
var Brands = []Brand{BrandAll, BrandCocaCola, BrandPepsi, BrandLocal, BrandPremium}

// TimePeriod selects the reporting window.
type TimePeriod string

const (
	Daily   TimePeriod = "Daily"
	Weekly  TimePeriod = "Weekly"
	Monthly TimePeriod = "Monthly"
	Custom  TimePeriod = "Custom"
)

// TimePeriods lists the supported periods.
var TimePeriods = []TimePeriod{Daily, Weekly, Monthly, Custom}

// DataQuality is the outcome of the simulated data check after a refresh.
type DataQuality string

const (
	QualityGood    DataQuality = "good"
	QualityWarning DataQuality = "warning"
	QualityError   DataQuality = "error"
)

// ParseStoreType validates a store type.
func ParseStoreType(v string) (StoreType, error) { return parseIn(v, StoreTypes, "store type") }

// ParseLocationZone validates a zone.
func ParseLocationZone(v string) (LocationZone, error) {
	return parseIn(v, LocationZones, "location zone")
}

// ParseBrand validates a brand.
func ParseBrand(v string) (Brand, error) { return parseIn(v, Brands, "brand") }

// ParseTimePeriod validates a time period.
func ParseTimePeriod(v string) (TimePeriod, error) { return parseIn(v, TimePeriods, "time period") }

// Valid reports whether p is a known period.
func (p TimePeriod) Valid() bool {
	_, err := ParseTimePeriod(string(p))
	return err == nil
}

// Valid reports whether t is a known store type or All.
func (t StoreType) Valid() bool {
	_, err := ParseStoreType(string(t))
	return err == nil
}

// Valid reports whether z is a known zone or All.
func (z LocationZone) Valid() bool {
	_, err := ParseLocationZone(string(z))
	return err == nil
}

// Valid reports whether b is a known brand or All.
func (b Brand) Valid() bool {
	_, err := ParseBrand(string(b))
	return err == nil
}

// CheckStoreTypes returns ErrUnknownValue for the first unknown store type.
func CheckStoreTypes(values []StoreType) error {
	return checkAll(values, ParseStoreType)
}

// CheckLocationZones returns ErrUnknownValue for the first unknown zone.
func CheckLocationZones(values []LocationZone) error {
	return checkAll(values, ParseLocationZone)
}

// ParseStoreTypes validates and normalizes a multi-selection.
func ParseStoreTypes(values []string) ([]StoreType, error) {
	return parseMany(values, ParseStoreType)
}

// ParseLocationZones validates and normalizes a multi-selection.
func ParseLocationZones(values []string) ([]LocationZone, error) {
	return parseMany(values, ParseLocationZone)
}

func parseIn[T ~string](v string, allowed []T, dimension string) (T, error) {
	for _, candidate := range allowed {
		if string(candidate) == v {
			return candidate, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%w: %s %q", ErrUnknownValue, dimension, v)
}

func parseMany[T ~string](values []string, parse func(string) (T, error)) ([]T, error) {
	out := make([]T, 0, len(values))
	for _, v := range values {
		parsed, err := parse(v)
		if err != nil {
			return nil, err
		}
		out = append(out, parsed)
	}
	return Normalize(out), nil
}

func checkAll[T ~string](values []T, parse func(string) (T, error)) error {
	for _, v := range values {
		if _, err := parse(string(v)); err != nil {
			return err
		}
	}
	return nil
}
