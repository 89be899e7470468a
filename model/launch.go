package model

import "fmt"

// LaunchSite is a pad location in geodetic degrees.
type LaunchSite struct {
	LatitudeDeg  float64
	LongitudeDeg float64
}

// Validate checks the site lies on the globe.
func (s LaunchSite) Validate() error {
	if !(s.LatitudeDeg >= -90 && s.LatitudeDeg <= 90) {
		return fmt.Errorf("latitude %.4f out of range [-90, 90]", s.LatitudeDeg)
	}
	if !(s.LongitudeDeg >= -180 && s.LongitudeDeg <= 360) {
		return fmt.Errorf("longitude %.4f out of range [-180, 360]", s.LongitudeDeg)
	}
	return nil
}
