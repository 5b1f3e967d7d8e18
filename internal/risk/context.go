package risk

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Location-context labels. Hub entries may carry a region-specific variant;
// the rest are fixed categories.
const (
	ContextHubDefault    = "Major OFW employment hubs in Middle East"
	ContextThreat        = "Known cybercrime and state-sponsored threat locations"
	ContextDomestic      = "Domestic location"
	ContextInternational = "International location"
)

// HubEntry is one overseas-employment hub: a country, the cities that count
// as hubs within it, and the label reported for a match.
type HubEntry struct {
	Country string   `yaml:"country"`
	Cities  []string `yaml:"cities"`
	Label   string   `yaml:"label,omitempty"`
}

// GeoTables is the static lookup data behind location-context annotation.
// It ships with curated defaults and can be replaced wholesale from a YAML
// file for deployments with a different hub or threat list.
type GeoTables struct {
	Hubs            []HubEntry `yaml:"hubs"`
	ThreatCountries []string   `yaml:"threat_countries"`
}

// DefaultGeoTables returns the built-in hub and threat tables.
func DefaultGeoTables() GeoTables {
	return GeoTables{
		Hubs: []HubEntry{
			{Country: "United Arab Emirates", Cities: []string{"Dubai", "Abu Dhabi", "Sharjah"}},
			{Country: "Saudi Arabia", Cities: []string{"Riyadh", "Jeddah", "Dammam"}},
			{Country: "Qatar", Cities: []string{"Doha"}},
			{Country: "Kuwait", Cities: []string{"Kuwait City"}},
			{Country: "Singapore", Cities: []string{"Singapore"}},
			{Country: "Hong Kong", Cities: []string{"Hong Kong"}},
			{Country: "United States", Cities: []string{"Los Angeles", "San Francisco", "New York", "Chicago"}},
			{Country: "Canada", Cities: []string{"Toronto", "Vancouver", "Calgary"}},
		},
		ThreatCountries: []string{"Nigeria", "Russia", "China", "North Korea"},
	}
}

// LoadGeoTables reads hub and threat tables from a YAML file. An empty path
// returns the defaults.
func LoadGeoTables(path string) (GeoTables, error) {
	if path == "" {
		return DefaultGeoTables(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return GeoTables{}, fmt.Errorf("failed to read geo tables: %w", err)
	}
	var tables GeoTables
	if err := yaml.Unmarshal(data, &tables); err != nil {
		return GeoTables{}, fmt.Errorf("failed to parse geo tables: %w", err)
	}
	return tables, nil
}

// Annotator derives location context and a behavior-consistency estimate for
// a login attempt, independent of the scorer.
type Annotator struct {
	tables      GeoTables
	homeCountry string
}

// NewAnnotator builds an annotator over the given tables. homeCountry is the
// domestic country for the deployment.
func NewAnnotator(tables GeoTables, homeCountry string) *Annotator {
	return &Annotator{tables: tables, homeCountry: homeCountry}
}

// LocationContext categorizes a country+city pair. Hub and threat tables are
// checked before the domestic fallback, so a hub city inside the home country
// would still report as a hub.
func (a *Annotator) LocationContext(country, city string) string {
	for _, hub := range a.tables.Hubs {
		if !strings.EqualFold(hub.Country, country) {
			continue
		}
		for _, c := range hub.Cities {
			if strings.EqualFold(c, city) {
				if hub.Label != "" {
					return hub.Label
				}
				return ContextHubDefault
			}
		}
	}
	for _, threat := range a.tables.ThreatCountries {
		if strings.EqualFold(threat, country) {
			return ContextThreat
		}
	}
	if strings.EqualFold(country, a.homeCountry) {
		return ContextDomestic
	}
	return ContextInternational
}

// BehaviorConsistency estimates how consistent the attempt is with typical
// behavior: mobile logins score 85, short-distance logins 95, everything
// else 70. A crude proxy reproduced as-is for parity with historical data.
func (a *Annotator) BehaviorConsistency(deviceCode int, distanceKm float64) int {
	if deviceCode == DeviceMobile {
		return 85
	}
	if distanceKm < 100 {
		return 95
	}
	return 70
}
