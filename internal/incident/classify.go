package incident

import (
	"strings"

	"github.com/mr1hm/go-safety-feed/internal/models"
)

type Classification struct {
	CategoryID    string
	Category      string
	SubcategoryID string
	Subcategory   string
	Icon          string
	Color         string
}

type keywordRule struct {
	keywords      []string
	categoryID    string
	subcategoryID string
}

// Agency rules run against datasource, provided_by, GroupedType and
// event_type. Order matters: the first match wins.
var agencyRules = []keywordRule{
	{[]string{"police", "qps"}, CategorySafety, SubSuspiciousActivity},
	{[]string{"hazmat", "chemical"}, CategoryEmergency, SubHazmat},
	{[]string{"fire", "qfes", "qfd", "smoke", "burn"}, CategoryEmergency, SubFire},
	{[]string{"ambulance", "qas", "medical"}, CategoryEmergency, SubMedical},
	{[]string{"rescue", "ses"}, CategoryEmergency, SubRescue},
	{[]string{"flood", "flooding", "flooded"}, CategoryEmergency, SubFlooding},
	{[]string{"crash", "collision", "accident"}, CategoryInfrastructure, SubTrafficCrash},
	{[]string{"roadworks", "road works", "special event"}, CategoryInfrastructure, SubRoadworks},
	{[]string{"hazard", "congestion", "tmr", "transport", "traffic"}, CategoryInfrastructure, SubRoadHazard},
}

// Text rules run against the title and description.
var textRules = []keywordRule{
	{[]string{"snake", "python", "reptile", "croc"}, CategoryWildlife, SubSnakes},
	{[]string{"kangaroo", "wallaby", "koala", "possum", "wildlife"}, CategoryWildlife, SubInjuredWildlife},
	{[]string{"magpie", "swoop"}, CategoryWildlife, SubSwoopingBirds},
	{[]string{"lost dog", "lost cat", "missing dog", "missing cat"}, CategoryPets, SubLostPet},
	{[]string{"found dog", "found cat"}, CategoryPets, SubFoundPet},
	{[]string{"dog", "cat", "pet"}, CategoryPets, SubRoamingDog},
	{[]string{"break in", "break-in", "burglary", "broke into"}, CategorySafety, SubBreakAndEnter},
	{[]string{"stolen car", "car stolen", "vehicle theft"}, CategorySafety, SubVehicleTheft},
	{[]string{"theft", "stolen", "suspicious", "police"}, CategorySafety, SubSuspiciousActivity},
	{[]string{"graffiti", "vandal"}, CategorySafety, SubVandalism},
	{[]string{"fight", "disturbance", "brawl"}, CategorySafety, SubPublicDisturbance},
	{[]string{"fire", "smoke"}, CategoryEmergency, SubFire},
	{[]string{"storm", "hail", "cyclone"}, CategoryEmergency, SubSevereWeather},
	{[]string{"flood", "flooding", "flooded"}, CategoryEmergency, SubFlooding},
	{[]string{"power outage", "blackout", "powerline", "power line"}, CategoryInfrastructure, SubPowerOutage},
	{[]string{"water main", "burst pipe"}, CategoryInfrastructure, SubWaterMain},
	{[]string{"crash", "collision"}, CategoryInfrastructure, SubTrafficCrash},
	{[]string{"pothole", "debris", "road hazard"}, CategoryInfrastructure, SubRoadHazard},
	{[]string{"noise", "loud music", "party"}, CategoryCommunity, SubNoise},
	{[]string{"dumping", "rubbish"}, CategoryCommunity, SubIllegalDumping},
	{[]string{"parking", "parked"}, CategoryCommunity, SubParking},
	{[]string{"lost wallet", "lost phone", "lost keys"}, CategoryLostFound, SubLostProperty},
	{[]string{"found wallet", "found phone", "found keys"}, CategoryLostFound, SubFoundProperty},
}

// Classify maps an incident to a display category and icon. Explicit ids on
// user reports win, then agency heuristics, then free-text keywords, then the
// Community Issues bucket. Keyword matching can misclassify; the result is
// only used for filtering and marker styling.
func Classify(inc models.Incident) Classification {
	if inc.Source == models.SourceUser && inc.Report != nil {
		if c, ok := explicit(inc.Report.CategoryID, inc.Report.SubcategoryID); ok {
			return c
		}
	}

	if catID, subID, ok := match(agencyRules, agencyText(inc)); ok {
		return build(catID, subID)
	}

	text := strings.ToLower(Title(inc) + " " + Description(inc))
	if catID, subID, ok := match(textRules, text); ok {
		return build(catID, subID)
	}

	c := build(CategoryCommunity, "")
	c.Icon = DefaultIcon
	return c
}

func explicit(categoryID, subcategoryID string) (Classification, bool) {
	if sub, ok := LookupSubcategory(subcategoryID); ok {
		if categoryID == "" || categoryID == sub.CategoryID {
			return build(sub.CategoryID, sub.ID), true
		}
	}
	if _, ok := LookupCategory(categoryID); ok {
		return build(categoryID, ""), true
	}
	return Classification{}, false
}

func agencyText(inc models.Incident) string {
	var parts []string
	switch inc.Source {
	case models.SourceTMR:
		if e := inc.Traffic; e != nil {
			parts = append(parts, e.Datasource, e.ProvidedBy, e.EventType, e.EventSubtype)
		}
	case models.SourceEmergency:
		if e := inc.Emergency; e != nil {
			parts = append(parts, e.GroupedType, e.Jurisdiction)
		}
	}
	return strings.ToLower(strings.Join(parts, " "))
}

func match(rules []keywordRule, text string) (string, string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", "", false
	}
	for _, rule := range rules {
		for _, kw := range rule.keywords {
			if containsWord(text, kw) {
				return rule.categoryID, rule.subcategoryID, true
			}
		}
	}
	return "", "", false
}

// containsWord matches kw at word boundaries so "cat" does not hit "location".
func containsWord(text, kw string) bool {
	for start := 0; ; {
		i := strings.Index(text[start:], kw)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(kw)
		if (i == 0 || !isWordByte(text[i-1])) && (end == len(text) || !isWordByte(text[end])) {
			return true
		}
		start = i + 1
	}
}

func isWordByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

func build(categoryID, subcategoryID string) Classification {
	cat := categoryByID[categoryID]
	c := Classification{
		CategoryID:    categoryID,
		Category:      cat.Name,
		SubcategoryID: subcategoryID,
		Subcategory:   SubcategoryName(subcategoryID),
		Icon:          cat.Icon,
		Color:         cat.Color,
	}
	if c.Icon == "" {
		c.Icon = DefaultIcon
	}
	if c.Color == "" {
		c.Color = DefaultColor
	}
	return c
}
