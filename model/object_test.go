package model

import (
	"errors"
	"testing"
)

const (
	issLine1 = "1 25544U 98067A   21275.59097222  .00000204  00000-0  10270-4 0  9990"
	issLine2 = "2 25544  51.6459 115.9059 0001817  61.3028  35.9198 15.49370953257760"
)

func TestNewTrackedObject(t *testing.T) {
	obj, err := NewTrackedObject("  ISS (ZARYA) ", 25544, issLine1+"  ", issLine2)
	if err != nil {
		t.Fatalf("NewTrackedObject: %v", err)
	}
	if obj.Name != "ISS (ZARYA)" {
		t.Fatalf("Name = %q, want trimmed name", obj.Name)
	}
	if obj.Line1 != issLine1 {
		t.Fatalf("Line1 was not trimmed: %q", obj.Line1)
	}
}

func TestNewTrackedObject_MissingLines(t *testing.T) {
	tests := []struct {
		name         string
		line1, line2 string
	}{
		{name: "no line1", line1: "", line2: issLine2},
		{name: "no line2", line1: issLine1, line2: "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTrackedObject("X", 1, tt.line1, tt.line2)
			if !errors.Is(err, ErrMissingTLE) {
				t.Fatalf("err = %v, want ErrMissingTLE", err)
			}
		})
	}
}

func TestNewTrackedObject_DefaultsNameAndRejectsCatalogNumber(t *testing.T) {
	obj, err := NewTrackedObject("", 7, issLine1, issLine2)
	if err != nil {
		t.Fatalf("NewTrackedObject: %v", err)
	}
	if obj.Name != "UNKNOWN" {
		t.Fatalf("Name = %q, want UNKNOWN", obj.Name)
	}

	if _, err := NewTrackedObject("X", 0, issLine1, issLine2); !errors.Is(err, ErrInvalidTrackedObject) {
		t.Fatalf("err = %v, want ErrInvalidTrackedObject", err)
	}
}

func TestTrackedObjectValidate(t *testing.T) {
	if err := (TrackedObject{Name: "A", CatalogNumber: 1, Line1: issLine1}).Validate(); err == nil {
		t.Fatalf("expected validation error for missing line2")
	}
	if err := (TrackedObject{Name: "A", CatalogNumber: 1, Line1: issLine1, Line2: issLine2}).Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLaunchSiteValidateBasic(t *testing.T) {
	if err := (LaunchSite{LatitudeDeg: 45.9, LongitudeDeg: 63.3}).Validate(); err != nil {
		t.Fatalf("Baikonur should be valid: %v", err)
	}
	if err := (LaunchSite{LatitudeDeg: 91}).Validate(); err == nil {
		t.Fatalf("expected latitude error")
	}
}
