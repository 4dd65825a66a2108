package models

// Zone is a serviceable area keyed by pincode.
type Zone struct {
	ID                int64   `json:"id" yaml:"id"`
	CityName          string  `json:"city_name" yaml:"city_name"`
	AreaName          string  `json:"area_name" yaml:"area_name"`
	Pincode           string  `json:"pincode" yaml:"pincode"`
	ScrapAvailable    bool    `json:"scrap_service_available" yaml:"scrap_service_available"`
	CleaningAvailable bool    `json:"cleaning_service_available" yaml:"cleaning_service_available"`
	VehicleAvailable  bool    `json:"vehicle_service_available" yaml:"vehicle_service_available"`
	LaundryAvailable  bool    `json:"laundry_service_available" yaml:"laundry_service_available"`
	IsActive          bool    `json:"is_active" yaml:"is_active"`
	MinLatitude       float64 `json:"min_latitude,omitempty" yaml:"min_latitude"`
	MaxLatitude       float64 `json:"max_latitude,omitempty" yaml:"max_latitude"`
	MinLongitude      float64 `json:"min_longitude,omitempty" yaml:"min_longitude"`
	MaxLongitude      float64 `json:"max_longitude,omitempty" yaml:"max_longitude"`
}

// HasBounds reports whether the zone carries a bounding box.
func (z *Zone) HasBounds() bool {
	return z.MinLatitude != 0 || z.MaxLatitude != 0 || z.MinLongitude != 0 || z.MaxLongitude != 0
}

func (z *Zone) Contains(lat, lng float64) bool {
	if !z.HasBounds() {
		return false
	}
	return lat >= z.MinLatitude && lat <= z.MaxLatitude && lng >= z.MinLongitude && lng <= z.MaxLongitude
}

// Center returns the midpoint of the bounding box.
func (z *Zone) Center() (float64, float64) {
	return (z.MinLatitude + z.MaxLatitude) / 2, (z.MinLongitude + z.MaxLongitude) / 2
}

// SubServices maps sub-service names to availability flags.
func (z *Zone) SubServices() map[string]bool {
	return map[string]bool{
		SubServiceScrap:    z.ScrapAvailable,
		SubServiceCleaning: z.CleaningAvailable,
		SubServiceVehicle:  z.VehicleAvailable,
		SubServiceLaundry:  z.LaundryAvailable,
	}
}

// Eligibility is the resolved availability for a location.
type Eligibility struct {
	Serviceable      bool            `json:"serviceable"`
	Pincode          string          `json:"pincode,omitempty"`
	ZoneID           int64           `json:"zone_id,omitempty"`
	SubServices      map[string]bool `json:"sub_services"`
	AllowedServices  []string        `json:"allowed_services"`
	AdvisoryMessage  string          `json:"advisory_message"`
	NearestZone      string          `json:"nearest_zone,omitempty"`
	RestrictionRules []string        `json:"restriction_rules,omitempty"`
}

// Allows reports whether the given sub-service is available.
func (e *Eligibility) Allows(subService string) bool {
	if e == nil || !e.Serviceable {
		return false
	}
	return e.SubServices[subService]
}
