package buttondown

import "encoding/json"

// Preferences are a subscriber's geographic digest preferences, stored in
// Buttondown subscriber metadata as JSON:
//
//	{"neighborhoods": ["Fishtown"], "districts": ["1"], "frequency": "daily"}
//
// A subscriber with neither neighborhoods nor districts gets the citywide
// digest. Frequency defaults to weekly.
type Preferences struct {
	Email         string
	Neighborhoods []string
	Districts     []string
	Frequency     string
	Active        bool
}

type preferencesMetadata struct {
	Neighborhoods []string `json:"neighborhoods"`
	Districts     []string `json:"districts"`
	Frequency     string   `json:"frequency"`
}

// ParsePreferences extracts preferences from a subscriber record. Metadata
// that is missing, malformed, or double-encoded as a string is tolerated;
// whatever cannot be parsed degrades to citywide/weekly.
func ParsePreferences(sub Subscriber) Preferences {
	prefs := Preferences{
		Email:     sub.Email,
		Frequency: "weekly",
		Active:    sub.SubscriberType == "regular",
	}

	meta := parseMetadata(sub.Metadata)
	prefs.Neighborhoods = meta.Neighborhoods
	prefs.Districts = meta.Districts
	if meta.Frequency != "" {
		prefs.Frequency = meta.Frequency
	}
	return prefs
}

func parseMetadata(raw json.RawMessage) preferencesMetadata {
	var meta preferencesMetadata
	if len(raw) == 0 {
		return meta
	}
	if err := json.Unmarshal(raw, &meta); err == nil {
		return meta
	}

	// Some records store metadata as a JSON string containing JSON.
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return preferencesMetadata{}
	}
	if err := json.Unmarshal([]byte(s), &meta); err != nil {
		return preferencesMetadata{}
	}
	return meta
}

// Groups buckets subscriber emails by their geographic preference.
type Groups struct {
	Citywide      []string
	Neighborhoods map[string][]string
	Districts     map[string][]string
}

// GroupByPreferences buckets active subscribers with the given frequency.
// A subscriber naming both neighborhoods and districts lands in every named
// bucket; one naming neither is citywide.
func GroupByPreferences(subs []Subscriber, frequency string) Groups {
	groups := Groups{
		Neighborhoods: make(map[string][]string),
		Districts:     make(map[string][]string),
	}

	for _, sub := range subs {
		prefs := ParsePreferences(sub)
		if !prefs.Active || prefs.Frequency != frequency {
			continue
		}

		if len(prefs.Neighborhoods) == 0 && len(prefs.Districts) == 0 {
			groups.Citywide = append(groups.Citywide, prefs.Email)
			continue
		}
		for _, n := range prefs.Neighborhoods {
			groups.Neighborhoods[n] = append(groups.Neighborhoods[n], prefs.Email)
		}
		for _, d := range prefs.Districts {
			groups.Districts[d] = append(groups.Districts[d], prefs.Email)
		}
	}

	return groups
}
