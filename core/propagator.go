package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

// StateVector is an inertial position (km) and velocity (km/s) at an epoch.
type StateVector struct {
	Position Vec3
	Velocity Vec3
	Epoch    time.Time
}

// Propagation is the output of a single propagator call.
type Propagation struct {
	State               StateVector
	MeanMotionRevPerDay float64
	InclinationDeg      float64
}

// Propagator turns TLE lines into inertial state at an instant and resolves
// geodetic points into the same inertial frame. Implementations must return
// an error, never a zero state, for malformed input.
type Propagator interface {
	Propagate(line1, line2 string, at time.Time) (Propagation, error)
	GeodeticToInertial(latDeg, lonDeg, altKm float64, at time.Time) Vec3
}

// minOrbitRadiusKm is below the surface at every latitude; SGP4 output under
// it means the orbit has decayed.
const minOrbitRadiusKm = 6200.0

const defaultMaxCachedElements = 1 << 16

type elementSet struct {
	sat            satellite.Satellite
	meanMotion     float64
	inclinationDeg float64
}

// SGP4Propagator is a Propagator backed by go-satellite. Parsed element sets
// are memoised so repeated propagation of the same catalog entry (for example
// across every step of an ascent) parses the TLE once.
//
// Positions are in the TEME frame that SGP4 produces; GeodeticToInertial
// rotates Earth-fixed points into the same frame using GMST.
type SGP4Propagator struct {
	gravity satellite.Gravity

	mu        sync.Mutex
	elements  map[string]*elementSet
	maxCached int
}

// SGP4Option configures an SGP4Propagator.
type SGP4Option func(*SGP4Propagator)

// WithGravityModel selects the SGP4 gravity constants (WGS72 by default,
// which is what TLEs are fitted against).
func WithGravityModel(g satellite.Gravity) SGP4Option {
	return func(p *SGP4Propagator) { p.gravity = g }
}

// WithMaxCachedElements bounds the number of memoised element sets.
func WithMaxCachedElements(n int) SGP4Option {
	return func(p *SGP4Propagator) {
		if n > 0 {
			p.maxCached = n
		}
	}
}

// NewSGP4Propagator constructs an adapter. It holds no process-wide state.
func NewSGP4Propagator(opts ...SGP4Option) *SGP4Propagator {
	p := &SGP4Propagator{
		gravity:   satellite.GravityWGS72,
		elements:  make(map[string]*elementSet),
		maxCached: defaultMaxCachedElements,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Propagate computes the TEME state of the object at the given instant.
// go-satellite only accepts whole seconds, so the sub-second remainder is
// applied as a linear correction along the velocity.
func (p *SGP4Propagator) Propagate(line1, line2 string, at time.Time) (Propagation, error) {
	es, err := p.elementSet(line1, line2)
	if err != nil {
		return Propagation{}, err
	}

	at = at.UTC()
	whole := at.Truncate(time.Second)
	frac := at.Sub(whole).Seconds()

	year, month, day := whole.Date()
	hour, minute, sec := whole.Clock()
	pos, vel := satellite.Propagate(es.sat, year, int(month), day, hour, minute, sec)

	position := Vec3{X: pos.X, Y: pos.Y, Z: pos.Z}
	velocity := Vec3{X: vel.X, Y: vel.Y, Z: vel.Z}
	if !position.IsFinite() || !velocity.IsFinite() {
		return Propagation{}, fmt.Errorf("%w: state is NaN/Inf at %s", ErrPropagationFailed, at.Format(time.RFC3339))
	}
	if r := position.Norm(); r < minOrbitRadiusKm {
		return Propagation{}, fmt.Errorf("%w: radius %.1f km is below the surface", ErrPropagationFailed, r)
	}
	if frac > 0 {
		position = position.Add(velocity.Scale(frac))
	}

	return Propagation{
		State: StateVector{
			Position: position,
			Velocity: velocity,
			Epoch:    at,
		},
		MeanMotionRevPerDay: es.meanMotion,
		InclinationDeg:      es.inclinationDeg,
	}, nil
}

// GeodeticToInertial converts a WGS-84 geodetic point to the inertial frame
// at the given instant.
func (p *SGP4Propagator) GeodeticToInertial(latDeg, lonDeg, altKm float64, at time.Time) Vec3 {
	return GeodeticToInertial(latDeg, lonDeg, altKm, at)
}

func (p *SGP4Propagator) elementSet(line1, line2 string) (*elementSet, error) {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)
	key := line1 + "\n" + line2

	p.mu.Lock()
	defer p.mu.Unlock()

	if es, ok := p.elements[key]; ok {
		return es, nil
	}

	meanMotion, incl, err := validateTLE(line1, line2)
	if err != nil {
		return nil, err
	}

	es := &elementSet{
		sat:            satellite.TLEToSat(line1, line2, p.gravity),
		meanMotion:     meanMotion,
		inclinationDeg: incl,
	}
	if len(p.elements) >= p.maxCached {
		p.elements = make(map[string]*elementSet)
	}
	p.elements[key] = es
	return es, nil
}

// validateTLE checks every field go-satellite parses. The library aborts the
// process on unparsable numbers, so nothing reaches TLEToSat unchecked.
// It returns the Kozai mean motion (rev/day) and inclination (deg) from line 2.
func validateTLE(line1, line2 string) (meanMotion, inclination float64, err error) {
	if len(line1) != 69 {
		return 0, 0, fmt.Errorf("%w: line1 length %d, expected 69", ErrMalformedTLE, len(line1))
	}
	if len(line2) != 69 {
		return 0, 0, fmt.Errorf("%w: line2 length %d, expected 69", ErrMalformedTLE, len(line2))
	}
	if !strings.HasPrefix(line1, "1 ") {
		return 0, 0, fmt.Errorf("%w: line1 must start with \"1 \"", ErrMalformedTLE)
	}
	if !strings.HasPrefix(line2, "2 ") {
		return 0, 0, fmt.Errorf("%w: line2 must start with \"2 \"", ErrMalformedTLE)
	}

	if _, err := strconv.ParseInt(strings.TrimSpace(line1[2:7]), 10, 0); err != nil {
		return 0, 0, fmt.Errorf("%w: catalog number %q", ErrMalformedTLE, line1[2:7])
	}
	if _, err := strconv.ParseInt(line1[18:20], 10, 0); err != nil {
		return 0, 0, fmt.Errorf("%w: epoch year %q", ErrMalformedTLE, line1[18:20])
	}

	// Substrings and space handling match satellite.ParseTLE exactly; any
	// text it would fail on must be rejected here.
	fields := []struct {
		name string
		text string
	}{
		{"epoch day", line1[20:32]},
		{"ndot", stripSpaces(line1[33:43])},
		{"nddot", stripSpaces(line1[44:45] + "." + line1[45:50] + "e" + line1[50:52])},
		{"bstar", stripSpaces(line1[53:54] + "." + line1[54:59] + "e" + line1[59:61])},
		{"inclination", stripSpaces(line2[8:16])},
		{"raan", stripSpaces(line2[17:25])},
		{"eccentricity", "." + line2[26:33]},
		{"argument of perigee", stripSpaces(line2[34:42])},
		{"mean anomaly", stripSpaces(line2[43:51])},
		{"mean motion", stripSpaces(line2[52:63])},
	}
	values := make(map[string]float64, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f.text, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: %s %q", ErrMalformedTLE, f.name, f.text)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, 0, fmt.Errorf("%w: %s %q is not finite", ErrMalformedTLE, f.name, f.text)
		}
		values[f.name] = v
	}

	meanMotion = values["mean motion"]
	inclination = values["inclination"]
	if meanMotion <= 0 {
		return 0, 0, fmt.Errorf("%w: mean motion must be positive, got %v", ErrMalformedTLE, meanMotion)
	}
	if inclination < 0 || inclination > 180 {
		return 0, 0, fmt.Errorf("%w: inclination %v out of range", ErrMalformedTLE, inclination)
	}
	if e := values["eccentricity"]; e >= 1 {
		return 0, 0, fmt.Errorf("%w: eccentricity %v is not elliptical", ErrMalformedTLE, e)
	}
	return meanMotion, inclination, nil
}

// stripSpaces drops at most two spaces, as go-satellite does for signed fields.
func stripSpaces(s string) string {
	return strings.Replace(s, " ", "", 2)
}

// WGS-84 ellipsoid.
const (
	wgs84Flattening = 1 / 298.257223563
	wgs84E2         = wgs84Flattening * (2 - wgs84Flattening)
)

// GeodeticToInertial converts WGS-84 geodetic coordinates (degrees, km above
// the ellipsoid) to an inertial position by building the Earth-fixed vector
// and rotating it by Greenwich mean sidereal time.
func GeodeticToInertial(latDeg, lonDeg, altKm float64, at time.Time) Vec3 {
	lat := deg2rad(latDeg)
	lon := deg2rad(lonDeg)
	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)

	n := EquatorialRadiusKm / math.Sqrt(1-wgs84E2*sinLat*sinLat)
	x := (n + altKm) * cosLat * math.Cos(lon)
	y := (n + altKm) * cosLat * math.Sin(lon)
	z := (n*(1-wgs84E2) + altKm) * sinLat

	g := gmst(at)
	cosG := math.Cos(g)
	sinG := math.Sin(g)
	return Vec3{
		X: x*cosG - y*sinG,
		Y: x*sinG + y*cosG,
		Z: z,
	}
}

// gmst returns Greenwich mean sidereal time in radians. The whole-second
// value comes from go-satellite; the remainder advances at Earth's rate.
func gmst(at time.Time) float64 {
	at = at.UTC()
	whole := at.Truncate(time.Second)
	year, month, day := whole.Date()
	hour, minute, sec := whole.Clock()
	g := satellite.GSTimeFromDate(year, int(month), day, hour, minute, sec)
	return g + OmegaEarthRadS*at.Sub(whole).Seconds()
}
