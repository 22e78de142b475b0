package domain

// SourceID identifies an upstream sports-data API.
type SourceID string

const (
	SourceAPISports   SourceID = "api_sports"
	SourceAPIFootball SourceID = "api_football"
)

// SourceNames maps SourceID to the name used in reports and alerts.
var SourceNames = map[SourceID]string{
	SourceAPISports:   "API-Sports",
	SourceAPIFootball: "API-Football",
}

// DisplayName returns the human-readable source name.
func (s SourceID) DisplayName() string {
	if name, ok := SourceNames[s]; ok {
		return name
	}
	return string(s)
}

// EndpointKind is the kind of resource fetched from a source.
type EndpointKind string

const (
	EndpointTeams     EndpointKind = "teams"
	EndpointStandings EndpointKind = "standings"
)

// Endpoints lists every endpoint a source pipeline extracts, in fetch order.
var Endpoints = []EndpointKind{EndpointTeams, EndpointStandings}
