package models

import "encoding/json"

// Geometry is a GeoJSON geometry as published by TMR and ESQ.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates,omitempty"`
	Geometries  []Geometry      `json:"geometries,omitempty"`
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Point returns the first position found in the geometry.
func (g Geometry) Point() (Coordinates, bool) {
	if g.Type == "GeometryCollection" {
		for _, child := range g.Geometries {
			if c, ok := child.Point(); ok {
				return c, true
			}
		}
		return Coordinates{}, false
	}
	return firstPosition(g.Coordinates)
}

func firstPosition(raw json.RawMessage) (Coordinates, bool) {
	if len(raw) == 0 {
		return Coordinates{}, false
	}

	var pos []float64
	if err := json.Unmarshal(raw, &pos); err == nil {
		if len(pos) < 2 {
			return Coordinates{}, false
		}
		return Coordinates{Longitude: pos[0], Latitude: pos[1]}, true
	}

	var nested []json.RawMessage
	if err := json.Unmarshal(raw, &nested); err != nil || len(nested) == 0 {
		return Coordinates{}, false
	}
	return firstPosition(nested[0])
}

// PointGeometry builds a GeoJSON Point.
func PointGeometry(c Coordinates) Geometry {
	coords, _ := json.Marshal([]float64{c.Longitude, c.Latitude})
	return Geometry{Type: "Point", Coordinates: coords}
}
