package incident

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/mr1hm/go-safety-feed/internal/models"
)

const (
	NoLocation  = "Location not specified"
	UnknownTime = "Unknown time"
	NoTitle     = "Untitled incident"
)

// Title is the headline shown on cards and popups.
func Title(inc models.Incident) string {
	var title string
	switch inc.Source {
	case models.SourceTMR:
		if e := inc.Traffic; e != nil {
			title = e.EventType
			if e.EventSubtype != "" && !strings.EqualFold(e.EventSubtype, e.EventType) {
				title = joinNonEmpty(" - ", e.EventType, e.EventSubtype)
			}
		}
	case models.SourceEmergency:
		if e := inc.Emergency; e != nil {
			title = e.GroupedType
		}
	case models.SourceUser:
		if r := inc.Report; r != nil {
			title = r.Title
		}
	}
	if strings.TrimSpace(title) == "" {
		return NoTitle
	}
	return title
}

func Description(inc models.Incident) string {
	switch inc.Source {
	case models.SourceTMR:
		if e := inc.Traffic; e != nil {
			return joinNonEmpty(" ", e.Description, e.Advice)
		}
	case models.SourceEmergency:
		if e := inc.Emergency; e != nil {
			if e.VehiclesAssigned == 0 && e.VehiclesOnScene == 0 && e.VehiclesOnRoute == 0 {
				return ""
			}
			return fmt.Sprintf("%d vehicles assigned, %d on route, %d on scene",
				e.VehiclesAssigned, e.VehiclesOnRoute, e.VehiclesOnScene)
		}
	case models.SourceUser:
		if r := inc.Report; r != nil {
			return r.Description
		}
	}
	return ""
}

// Location formats the place name, falling back to NoLocation.
func Location(inc models.Incident) string {
	if loc := rawLocation(inc); loc != "" {
		return loc
	}
	return NoLocation
}

func rawLocation(inc models.Incident) string {
	switch inc.Source {
	case models.SourceTMR:
		if e := inc.Traffic; e != nil {
			return joinNonEmpty(", ", e.RoadSummary.RoadName, e.RoadSummary.Locality)
		}
	case models.SourceEmergency:
		if e := inc.Emergency; e != nil {
			if strings.EqualFold(strings.TrimSpace(e.Location), strings.TrimSpace(e.Locality)) {
				return strings.TrimSpace(e.Locality)
			}
			return joinNonEmpty(", ", e.Location, e.Locality)
		}
	case models.SourceUser:
		if r := inc.Report; r != nil {
			return strings.TrimSpace(r.Location)
		}
	}
	return ""
}

// Locality is the suburb, used for locality filtering and ad targeting.
func Locality(inc models.Incident) string {
	switch inc.Source {
	case models.SourceTMR:
		if e := inc.Traffic; e != nil {
			return e.RoadSummary.Locality
		}
	case models.SourceEmergency:
		if e := inc.Emergency; e != nil {
			return e.Locality
		}
	case models.SourceUser:
		if r := inc.Report; r != nil {
			return r.Location
		}
	}
	return ""
}

// Timestamp picks the freshest known time for the record. The zero time
// means undated and sorts as the epoch.
func Timestamp(inc models.Incident) time.Time {
	switch inc.Source {
	case models.SourceTMR:
		if e := inc.Traffic; e != nil {
			return firstNonZero(e.LastUpdated.Time, e.Published.Time, e.Duration.Start.Time)
		}
	case models.SourceEmergency:
		if e := inc.Emergency; e != nil {
			return firstNonZero(e.LastUpdate.Time, e.ResponseDate.Time)
		}
	case models.SourceUser:
		if r := inc.Report; r != nil {
			return firstNonZero(r.UpdatedAt, r.CreatedAt)
		}
	}
	return time.Time{}
}

func Status(inc models.Incident) string {
	var status string
	switch inc.Source {
	case models.SourceTMR:
		if e := inc.Traffic; e != nil {
			status = e.Status
		}
	case models.SourceEmergency:
		if e := inc.Emergency; e != nil {
			status = e.Status
		}
	case models.SourceUser:
		if r := inc.Report; r != nil {
			status = r.Status
		}
	}
	status = strings.ToLower(strings.TrimSpace(status))
	if status == "" {
		return "active"
	}
	return status
}

func Coordinates(inc models.Incident) (models.Coordinates, bool) {
	switch inc.Source {
	case models.SourceTMR:
		if e := inc.Traffic; e != nil {
			return e.Geometry.Point()
		}
	case models.SourceEmergency:
		if e := inc.Emergency; e != nil {
			return e.Geometry.Point()
		}
	case models.SourceUser:
		if r := inc.Report; r != nil {
			return r.Coordinates()
		}
	}
	return models.Coordinates{}, false
}

// TimeLabel renders t relative to now, e.g. "5 minutes ago".
func TimeLabel(t, now time.Time) string {
	if t.IsZero() {
		return UnknownTime
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

func firstNonZero(ts ...time.Time) time.Time {
	for _, t := range ts {
		if !t.IsZero() {
			return t
		}
	}
	return time.Time{}
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
