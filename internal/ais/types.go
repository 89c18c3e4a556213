// Package ais implements C6: a long-lived WebSocket subscription against a
// maritime AIS stream, with per-vessel state merge and staleness eviction.
// Grounded on original_source/ais_stream_client.py's AISStreamClient, ported
// onto github.com/gorilla/websocket (the teacher's websocket dependency,
// generalized from a browser-facing hub into an outbound client).
package ais

import (
	"encoding/json"
	"time"
)

// Vessel is spec.md §3's Vessel entity. Identity is mmsi; fields merge
// additively — an inbound message never overwrites a known field with an
// absent one.
type Vessel struct {
	MMSI        int64     `json:"mmsi"`
	LastUpdate  time.Time `json:"last_update"`
	Lat         *float64  `json:"lat,omitempty"`
	Lon         *float64  `json:"lon,omitempty"`
	SOG         *float64  `json:"sog,omitempty"`
	COG         *float64  `json:"cog,omitempty"`
	Heading     *float64  `json:"heading,omitempty"`
	NavStatus   *int      `json:"nav_status,omitempty"`
	TypeCode    *int      `json:"type_code,omitempty"`
	Name        string    `json:"name,omitempty"`
	Callsign    string    `json:"callsign,omitempty"`
	Destination string    `json:"destination,omitempty"`
	Length      *float64  `json:"length,omitempty"`
	Width       *float64  `json:"width,omitempty"`
}

// merge applies non-nil/non-empty fields from incoming onto v, never
// clearing a known field with an absent one, and always refreshing
// LastUpdate (spec.md §4.6).
func (v *Vessel) merge(in Vessel, now time.Time) {
	if in.Lat != nil {
		v.Lat = in.Lat
	}
	if in.Lon != nil {
		v.Lon = in.Lon
	}
	if in.SOG != nil {
		v.SOG = in.SOG
	}
	if in.COG != nil {
		v.COG = in.COG
	}
	if in.Heading != nil {
		v.Heading = in.Heading
	}
	if in.NavStatus != nil {
		v.NavStatus = in.NavStatus
	}
	if in.TypeCode != nil {
		v.TypeCode = in.TypeCode
	}
	if in.Name != "" {
		v.Name = in.Name
	}
	if in.Callsign != "" {
		v.Callsign = in.Callsign
	}
	if in.Destination != "" {
		v.Destination = in.Destination
	}
	if in.Length != nil {
		v.Length = in.Length
	}
	if in.Width != nil {
		v.Width = in.Width
	}
	v.LastUpdate = now
}

// Bounds is a subscription bounding box, SW/NE corners in (lat, lon).
type Bounds struct {
	South, West, North, East float64
}

// subscribeMessage mirrors AISStreamClient._connect_websocket's
// subscribe_message, field names unchanged.
type subscribeMessage struct {
	APIKey              string        `json:"APIKey"`
	BoundingBoxes       [][][2]float64 `json:"BoundingBoxes"`
	FilterMessageTypes  []string      `json:"FilterMessageTypes"`
}

var defaultMessageTypes = []string{
	"PositionReport",
	"BaseStationReport",
	"StaticAndVoyageData",
	"StandardClassBPositionReport",
	"AidToNavigationReport",
	"StaticDataReport",
}

func buildSubscription(apiKey string, b Bounds) subscribeMessage {
	return subscribeMessage{
		APIKey: apiKey,
		BoundingBoxes: [][][2]float64{{
			{b.South, b.West},
			{b.North, b.East},
		}},
		FilterMessageTypes: defaultMessageTypes,
	}
}

// inboundEnvelope is the AISStream.io wire format: {"Message": {...}, ...}.
type inboundEnvelope struct {
	Message json.RawMessage `json:"Message"`
}

// positionMessage covers the fields AISStreamClient._process_ais_message
// extracts from PositionReport-shaped messages.
type positionMessage struct {
	UserID          *int64   `json:"UserID"`
	Latitude        *float64 `json:"Latitude"`
	Longitude       *float64 `json:"Longitude"`
	SpeedOverGround *float64 `json:"SpeedOverGround"`
	CourseOverGround *float64 `json:"CourseOverGround"`
	TrueHeading     *float64 `json:"TrueHeading"`
	NavigationalStatus *int  `json:"NavigationalStatus"`
	ShipName        string   `json:"ShipName"`
	CallSign        string   `json:"CallSign"`
	Destination     string   `json:"Destination"`
	Type            *int     `json:"Type"`
	Dimension       *struct {
		A float64 `json:"A"`
		B float64 `json:"B"`
		C float64 `json:"C"`
		D float64 `json:"D"`
	} `json:"Dimension"`
}
