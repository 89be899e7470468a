package catalog

import "net/url"

// CelesTrakBaseURL is the general-perturbations query endpoint.
const CelesTrakBaseURL = "https://celestrak.org/NORAD/elements/gp.php"

// Group is one named TLE source.
type Group struct {
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
}

func celestrakGroup(name, param, value string) Group {
	q := url.Values{}
	q.Set(param, value)
	q.Set("FORMAT", "tle")
	return Group{Name: name, URL: CelesTrakBaseURL + "?" + q.Encode()}
}

// DefaultGroups returns the active payloads, stations, rocket bodies and the
// major debris clouds. Order matters: when two groups list the same catalog
// number the later group wins.
func DefaultGroups() []Group {
	return []Group{
		celestrakGroup("active", "GROUP", "active"),
		celestrakGroup("stations", "GROUP", "stations"),
		celestrakGroup("rocket-bodies", "GROUP", "rocket-bodies"),
		celestrakGroup("cosmos-1408-debris", "GROUP", "cosmos-1408-debris"),
		celestrakGroup("iridium-33-debris", "GROUP", "iridium-33-debris"),
		celestrakGroup("cosmos-2251-debris", "GROUP", "cosmos-2251-debris"),
		celestrakGroup("fengyun-1c-debris", "GROUP", "fengyun-1c-debris"),
		celestrakGroup("dmsp-f13-debris", "GROUP", "dmsp-f13-debris"),
		celestrakGroup("breeze-m-debris", "GROUP", "breeze-m-debris"),
		celestrakGroup("debris", "GROUP", "DEBRIS"),
		celestrakGroup("decaying", "SPECIAL", "DECAYING"),
	}
}
