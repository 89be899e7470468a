package model

import (
	"math"
	"testing"
)

func TestLaunchSiteValidate(t *testing.T) {
	tests := []struct {
		name    string
		site    LaunchSite
		wantErr bool
	}{
		{name: "baikonur", site: LaunchSite{LatitudeDeg: 45.9, LongitudeDeg: 63.3}},
		{name: "poles and wrapped longitude", site: LaunchSite{LatitudeDeg: -90, LongitudeDeg: 360}},
		{name: "latitude too high", site: LaunchSite{LatitudeDeg: 90.5}, wantErr: true},
		{name: "longitude too low", site: LaunchSite{LongitudeDeg: -181}, wantErr: true},
		{name: "NaN latitude", site: LaunchSite{LatitudeDeg: math.NaN()}, wantErr: true},
		{name: "NaN longitude", site: LaunchSite{LongitudeDeg: math.NaN()}, wantErr: true},
		{name: "infinite latitude", site: LaunchSite{LatitudeDeg: math.Inf(-1)}, wantErr: true},
		{name: "infinite longitude", site: LaunchSite{LongitudeDeg: math.Inf(1)}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.site.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate(%+v) err = %v, wantErr %v", tt.site, err, tt.wantErr)
			}
		})
	}
}
