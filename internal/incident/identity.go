package incident

import (
	"strconv"
	"strings"

	"github.com/mr1hm/go-safety-feed/internal/models"
)

// ID derives the identity key used for dedup and as the public id. The chain
// is: explicit id, official incident number, reporter-scoped id, then a
// generated key from type, description and location. Keys are stable for a
// given record but not guaranteed unique: two records that fall through to
// the generated key with the same text collide, and the later one wins.
func ID(inc models.Incident) string {
	prefix := string(inc.Source) + ":"

	switch inc.Source {
	case models.SourceTMR:
		e := inc.Traffic
		if e == nil {
			return prefix
		}
		if e.ID != "" {
			return prefix + e.ID.String()
		}
		if e.EventID != "" {
			return prefix + e.EventID.String()
		}
		return prefix + generatedKey(e.EventType, e.Description, rawLocation(inc))

	case models.SourceEmergency:
		e := inc.Emergency
		if e == nil {
			return prefix
		}
		if e.MasterIncidentNumber != "" {
			return prefix + e.MasterIncidentNumber.String()
		}
		if e.ObjectID != "" {
			return prefix + e.ObjectID.String()
		}
		return prefix + generatedKey(e.GroupedType, "", rawLocation(inc))

	case models.SourceUser:
		r := inc.Report
		if r == nil {
			return prefix
		}
		if r.ID != "" {
			return prefix + r.ID
		}
		if r.ReporterID != "" && !r.CreatedAt.IsZero() {
			return prefix + r.ReporterID + "-" + strconv.FormatInt(r.CreatedAt.UnixMilli(), 10)
		}
		return prefix + generatedKey(r.CategoryID, r.Description, rawLocation(inc))
	}

	return prefix
}

func generatedKey(eventType, description, location string) string {
	raw := eventType + "-" + description + "-" + location
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, raw)
}
