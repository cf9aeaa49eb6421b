package models

import (
	"fmt"
	"time"
)

type Source string

const (
	SourceTMR       Source = "tmr"
	SourceEmergency Source = "emergency"
	SourceUser      Source = "user"
)

func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case SourceTMR, SourceEmergency, SourceUser:
		return Source(s), nil
	}
	return "", fmt.Errorf("unknown incident source %q", s)
}

type RoadSummary struct {
	RoadName            string `json:"road_name"`
	Locality            string `json:"locality"`
	Postcode            string `json:"postcode"`
	LocalGovernmentArea string `json:"local_government_area"`
	District            string `json:"district"`
}

type Duration struct {
	Start FlexTime `json:"start"`
	End   FlexTime `json:"end"`
}

// TrafficEvent is a QLDTraffic (TMR) event.
type TrafficEvent struct {
	ID           FlexString  `json:"id"`
	EventID      FlexString  `json:"event_id,omitempty"`
	EventType    string      `json:"event_type"`
	EventSubtype string      `json:"event_subtype,omitempty"`
	Description  string      `json:"description"`
	Advice       string      `json:"advice,omitempty"`
	Information  string      `json:"information,omitempty"`
	Status       string      `json:"status"`
	Priority     FlexString  `json:"event_priority,omitempty"`
	Datasource   string      `json:"datasource,omitempty"`
	ProvidedBy   string      `json:"provided_by,omitempty"`
	RoadSummary  RoadSummary `json:"road_summary"`
	Duration     Duration    `json:"duration"`
	Published    FlexTime    `json:"published"`
	LastUpdated  FlexTime    `json:"last_updated"`
	WebLink      string      `json:"web_link,omitempty"`
	Geometry     Geometry    `json:"geometry"`
}

// EmergencyIncident is an ESQ/QFES current incident.
type EmergencyIncident struct {
	ObjectID             FlexString `json:"OBJECTID"`
	MasterIncidentNumber FlexString `json:"Master_Incident_Number"`
	GroupedType          string     `json:"GroupedType"`
	Location             string     `json:"Location"`
	Locality             string     `json:"Locality"`
	Priority             FlexString `json:"Priority"`
	Status               string     `json:"Status"`
	Jurisdiction         string     `json:"Jurisdiction"`
	ResponseDate         FlexTime   `json:"Response_Date"`
	LastUpdate           FlexTime   `json:"LastUpdate"`
	VehiclesAssigned     int        `json:"VehiclesAssigned"`
	VehiclesOnRoute      int        `json:"VehiclesOnRoute"`
	VehiclesOnScene      int        `json:"VehiclesOnScene"`
	Geometry             Geometry   `json:"geometry"`
}

// UserReport is a community-submitted report.
type UserReport struct {
	ID            string    `json:"id"`
	CategoryID    string    `json:"categoryId"`
	SubcategoryID string    `json:"subcategoryId,omitempty"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Location      string    `json:"location"`
	Latitude      *float64  `json:"latitude,omitempty"`
	Longitude     *float64  `json:"longitude,omitempty"`
	PhotoURL      string    `json:"photoUrl,omitempty"`
	ReporterID    string    `json:"reporterId"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (r *UserReport) Coordinates() (Coordinates, bool) {
	if r.Latitude == nil || r.Longitude == nil {
		return Coordinates{}, false
	}
	return Coordinates{Latitude: *r.Latitude, Longitude: *r.Longitude}, true
}

// Incident is a tagged union over the three feeds. Exactly one payload is
// set and it matches Source.
type Incident struct {
	Source    Source             `json:"source"`
	Traffic   *TrafficEvent      `json:"traffic,omitempty"`
	Emergency *EmergencyIncident `json:"emergency,omitempty"`
	Report    *UserReport        `json:"report,omitempty"`
}

func NewTrafficIncident(e *TrafficEvent) Incident {
	return Incident{Source: SourceTMR, Traffic: e}
}

func NewEmergencyIncident(e *EmergencyIncident) Incident {
	return Incident{Source: SourceEmergency, Emergency: e}
}

func NewUserIncident(r *UserReport) Incident {
	return Incident{Source: SourceUser, Report: r}
}

// Validate reports whether the payload matches the discriminator.
func (i Incident) Validate() error {
	var set int
	for _, present := range []bool{i.Traffic != nil, i.Emergency != nil, i.Report != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("incident must carry exactly one payload, got %d", set)
	}

	switch i.Source {
	case SourceTMR:
		if i.Traffic == nil {
			return fmt.Errorf("tmr incident without traffic payload")
		}
	case SourceEmergency:
		if i.Emergency == nil {
			return fmt.Errorf("emergency incident without emergency payload")
		}
	case SourceUser:
		if i.Report == nil {
			return fmt.Errorf("user incident without report payload")
		}
	default:
		return fmt.Errorf("unknown incident source %q", i.Source)
	}
	return nil
}

// UnifiedIncident is the normalised record every surface renders.
type UnifiedIncident struct {
	ID          string    `json:"id"`
	Source      Source    `json:"source"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	CategoryID  string    `json:"categoryId,omitempty"`
	Category    string    `json:"category"`
	Subcategory string    `json:"subcategory,omitempty"`
	Icon        string    `json:"icon"`
	Color       string    `json:"color"`
	Status      string    `json:"status"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	TimeLabel   string    `json:"timeLabel"`
	Properties  Incident  `json:"properties"`
}

func (u UnifiedIncident) Coordinates() (Coordinates, bool) {
	if u.Latitude == nil || u.Longitude == nil {
		return Coordinates{}, false
	}
	return Coordinates{Latitude: *u.Latitude, Longitude: *u.Longitude}, true
}
