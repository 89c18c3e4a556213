// Package flightstate implements C4: a pure, stateless function of
// telemetry plus airspace context that derives flight phase, ATC sector,
// and intent. No I/O, no shared state — same inputs always yield the same
// labels (spec.md §4.4).
package flightstate

import "math"

// Phase is the derived flight-phase label.
type Phase string

const (
	PhaseParked         Phase = "PARKED"
	PhaseTaxiing        Phase = "TAXIING"
	PhaseGroundOps      Phase = "GROUND_OPS"
	PhaseDeparture      Phase = "DEPARTURE"
	PhaseFinalApproach   Phase = "FINAL_APPROACH"
	PhaseAirportPattern Phase = "AIRPORT_PATTERN"
	PhaseTerminalArea   Phase = "TERMINAL_AREA"
	PhaseTerminalClimb  Phase = "TERMINAL_CLIMB"
	PhaseTerminalDescent Phase = "TERMINAL_DESCENT"
	PhaseTakeoff        Phase = "TAKEOFF"
	PhaseApproach       Phase = "APPROACH"
	PhaseRapidClimb     Phase = "RAPID_CLIMB"
	PhaseRapidDescent   Phase = "RAPID_DESCENT"
	PhaseClimbing       Phase = "CLIMBING"
	PhaseDescending     Phase = "DESCENDING"
	PhaseSlowClimb      Phase = "SLOW_CLIMB"
	PhaseSlowDescent    Phase = "SLOW_DESCENT"
	PhaseHighCruise     Phase = "HIGH_CRUISE"
	PhaseCruise         Phase = "CRUISE"
	PhaseMediumLevel    Phase = "MEDIUM_LEVEL"
	PhaseInFlight       Phase = "IN_FLIGHT"
)

// ATCSector is the derived controlling-unit label.
type ATCSector string

const (
	SectorEmergency   ATCSector = "EMERGENCY"
	SectorVFR         ATCSector = "VFR"
	SectorLondon      ATCSector = "London"
	SectorScottish    ATCSector = "Scottish"
	SectorManchester  ATCSector = "Manchester"
	SectorLondonTC    ATCSector = "London TC"
	SectorApproach    ATCSector = "Approach"
	SectorArea        ATCSector = "Area"
	SectorTerminal    ATCSector = "Terminal"
	SectorATCAssigned ATCSector = "ATC_ASSIGNED"
	SectorNoSquawk    ATCSector = "NO_SQUAWK"
)

// AirspaceClass is the subset of airspace type information the analyzer
// needs — CTR vs TMA/CTA vs neither — decoupled from the airspace package's
// richer Zone type so this package stays a pure function with no import of
// C1.
type AirspaceClass struct {
	InCTR     bool
	InTMACTA  bool
	ZoneName  string // airport/zone name, used for intent derivation
}

// Telemetry is the subset of AircraftContact fields the analyzer consumes.
type Telemetry struct {
	AltitudeFt   float64
	GroundSpeed  float64
	VerticalRate float64
	Squawk       string
}

var vfrCodes = map[string]bool{"7000": true, "7004": true, "7010": true}
var emergencyTriad = map[string]string{"7500": "HIJACK_SQUAWK", "7600": "RADIO_FAILURE", "7700": "EMERGENCY_SQUAWK"}

// registeredAirport maps a CTR zone name to its ICAO code, used for intent
// strings like "DEPARTING EGLL". Populated by callers who know the local
// airport table; nil/empty means intent falls back to a generic phrase.
type AirportLookup func(zoneName string) (icao string, ok bool)

// DerivePhase applies the decision table of spec.md §4.4, first matching
// row wins.
func DerivePhase(t Telemetry, a AirspaceClass) Phase {
	alt := t.AltitudeFt
	gs := t.GroundSpeed
	vr := t.VerticalRate

	switch {
	case alt < 100 && gs < 5:
		return PhaseParked
	case alt < 100 && gs < 25:
		return PhaseTaxiing
	case alt < 100 && gs < 50:
		return PhaseGroundOps
	}

	if a.InCTR && alt < 3000 {
		switch {
		case vr > 800:
			return PhaseDeparture
		case vr < -800:
			return PhaseFinalApproach
		case gs < 200:
			return PhaseAirportPattern
		default:
			return PhaseTerminalArea
		}
	}

	if a.InTMACTA {
		switch {
		case vr > 1000:
			return PhaseTerminalClimb
		case vr < -1000:
			return PhaseTerminalDescent
		case alt < 10000:
			return PhaseTerminalArea
		}
	}

	switch {
	case alt < 3000 && vr > 500:
		return PhaseTakeoff
	case alt < 3000 && vr < -500:
		return PhaseApproach
	case math.Abs(vr) > 1500:
		if vr > 0 {
			return PhaseRapidClimb
		}
		return PhaseRapidDescent
	case math.Abs(vr) > 800:
		if vr > 0 {
			return PhaseClimbing
		}
		return PhaseDescending
	case math.Abs(vr) > 300:
		if vr > 0 {
			return PhaseSlowClimb
		}
		return PhaseSlowDescent
	case alt > 35000:
		return PhaseHighCruise
	case alt > 20000:
		return PhaseCruise
	case alt > 10000:
		return PhaseMediumLevel
	default:
		return PhaseInFlight
	}
}

// DeriveSector maps a squawk to an ATC sector per spec.md §4.4.
func DeriveSector(squawk string) ATCSector {
	if _, ok := emergencyTriad[squawk]; ok {
		return SectorEmergency
	}
	if vfrCodes[squawk] {
		return SectorVFR
	}
	if len(squawk) != 4 {
		return SectorNoSquawk
	}
	switch squawk[0] {
	case '0':
		return SectorLondon
	case '1':
		return SectorScottish
	case '2':
		return SectorManchester
	case '3':
		return SectorLondonTC
	case '4':
		return SectorApproach
	case '5':
		return SectorArea
	case '6':
		return SectorTerminal
	default:
		return SectorATCAssigned
	}
}

// DeriveIntent builds the free-text intent label from phase, airspace
// context, and squawk, per spec.md §4.4.
func DeriveIntent(phase Phase, a AirspaceClass, squawk string, lookup AirportLookup) string {
	icao := a.ZoneName
	if lookup != nil {
		if found, ok := lookup(a.ZoneName); ok {
			icao = found
		}
	}

	if a.InCTR {
		switch phase {
		case PhaseDeparture:
			return "DEPARTING " + icao
		case PhaseFinalApproach:
			return "LANDING " + icao
		case PhaseAirportPattern:
			return "PATTERN " + icao
		case PhaseParked, PhaseTaxiing, PhaseGroundOps:
			return "GROUND " + icao
		}
	}

	if a.InTMACTA {
		switch phase {
		case PhaseTerminalClimb:
			return "CLIMBING IN " + icao
		case PhaseTerminalDescent:
			return "DESCENDING TO " + icao
		default:
			return "TRANSITING " + icao
		}
	}

	if vfrCodes[squawk] {
		if phase == PhaseInFlight || phase == PhaseMediumLevel {
			return "VFR LOCAL"
		}
		return "VFR CROSS COUNTRY"
	}

	return string(phase)
}
