package incident

import "github.com/mr1hm/go-safety-feed/internal/models"

const (
	CategorySafety         = "6de019ef-e30c-4c0e-b138-e1ee10694b9e"
	CategoryInfrastructure = "d96e1270-3149-4a99-b3e7-0848121dc7db"
	CategoryEmergency      = "b01c257e-18f8-4dc1-acaa-029d2eec823a"
	CategoryWildlife       = "6ffe5384-a446-4736-be94-1f898ae3a155"
	CategoryCommunity      = "089248cf-c11b-4448-b191-88f1694bf9a2"
	CategoryPets           = "49fc7b9f-0335-4618-847f-30c6bfbbe840"
	CategoryLostFound      = "4e41705f-b51a-49c3-89b2-b6f091c8eb3c"
)

const (
	SubBreakAndEnter      = "9a5bdc3b-05ec-402a-98e0-36e91c88cd9d"
	SubVehicleTheft       = "6f748b4d-7212-44fc-bbb7-8967e6f29891"
	SubSuspiciousActivity = "21798136-6e07-4e9c-b657-1c51a60e890f"
	SubPublicDisturbance  = "df73d80b-4973-49d0-885b-add9b61a2952"
	SubVandalism          = "73eb145c-9549-4e6d-93dc-a707b3726f13"

	SubRoadHazard   = "970b5a05-ab6c-4c62-be8b-a322cc44cb52"
	SubTrafficCrash = "8c6474fb-2fae-44f8-a476-5bc2e44da3ea"
	SubRoadworks    = "e641b3d2-82cd-4eac-bf95-e47bcf13fee6"
	SubPowerOutage  = "1b62cef9-e6f0-4220-a2ad-5fc2ef3566af"
	SubWaterMain    = "b47c4c29-5621-48f5-b886-983356caad1f"

	SubFire          = "f2fc1b49-01ed-495f-aba0-8204dd71522c"
	SubMedical       = "48d4f38d-2bf4-4a45-9a09-756974dbff02"
	SubHazmat        = "21fb4be7-3502-4e01-89d1-bc06e2545544"
	SubSevereWeather = "08c1492c-9c33-49f6-a3ed-b06640e45af1"
	SubRescue        = "ae8d1b44-f585-4868-87d7-c78b882edeef"
	SubFlooding      = "c0e3fa0e-cf04-4199-93c1-ef33a642760b"

	SubSnakes          = "99725ae7-0d63-4d87-846e-c0e9cd6a3134"
	SubInjuredWildlife = "e10639db-54cf-4d55-91dd-a9ebbed3a335"
	SubWildlifeOnRoad  = "a61052c5-393e-4b65-ad88-37dbace399cf"
	SubSwoopingBirds   = "9262aefe-37d7-4ebf-8c48-1546c2a6f154"

	SubNoise           = "971c3a76-abc7-4059-ac36-7de26a0e36d6"
	SubIllegalDumping  = "4aa62170-51f0-4461-a4ba-3c5cd5ea37b7"
	SubCommunityEvents = "302ac0ba-b83a-4cbc-9ed1-51e57b6236cf"
	SubParking         = "5f84c553-1d5b-4e67-b85b-57a18a9abcd8"

	SubLostPet    = "c5eb17aa-cd0e-4dc8-9a9e-585bbd3edc56"
	SubFoundPet   = "af153dfc-eabb-429f-8a6b-6e4c391b0287"
	SubRoamingDog = "b878c6b4-dec8-4b26-9c3e-b2b974e6aaf4"

	SubLostProperty  = "c9bf6b13-88d2-4845-8275-992f5ea3cb29"
	SubFoundProperty = "d15e9591-4f54-4df4-b0c9-eea720fd9662"
)

const (
	DefaultIcon  = "AlertTriangle"
	DefaultColor = "#6b7280"
)

var categories = []models.Category{
	{ID: CategorySafety, Name: "Safety & Crime", Icon: "Shield", Color: "#7c3aed", SortOrder: 1},
	{ID: CategoryInfrastructure, Name: "Infrastructure & Hazards", Icon: "Construction", Color: "#ea580c", SortOrder: 2},
	{ID: CategoryEmergency, Name: "Emergency Situations", Icon: "Siren", Color: "#dc2626", SortOrder: 3},
	{ID: CategoryWildlife, Name: "Wildlife & Nature", Icon: "Trees", Color: "#16a34a", SortOrder: 4},
	{ID: CategoryCommunity, Name: "Community Issues", Icon: "Users", Color: "#2563eb", SortOrder: 5},
	{ID: CategoryPets, Name: "Pets", Icon: "Heart", Color: "#db2777", SortOrder: 6},
	{ID: CategoryLostFound, Name: "Lost & Found", Icon: "Search", Color: "#0891b2", SortOrder: 7},
}

var subcategories = []models.Subcategory{
	{ID: SubBreakAndEnter, CategoryID: CategorySafety, Name: "Break & Enter", SortOrder: 1},
	{ID: SubVehicleTheft, CategoryID: CategorySafety, Name: "Vehicle Theft", SortOrder: 2},
	{ID: SubSuspiciousActivity, CategoryID: CategorySafety, Name: "Suspicious Activity", SortOrder: 3},
	{ID: SubPublicDisturbance, CategoryID: CategorySafety, Name: "Public Disturbance", SortOrder: 4},
	{ID: SubVandalism, CategoryID: CategorySafety, Name: "Vandalism & Graffiti", SortOrder: 5},

	{ID: SubRoadHazard, CategoryID: CategoryInfrastructure, Name: "Road Hazards", SortOrder: 1},
	{ID: SubTrafficCrash, CategoryID: CategoryInfrastructure, Name: "Traffic Crash", SortOrder: 2},
	{ID: SubRoadworks, CategoryID: CategoryInfrastructure, Name: "Roadworks", SortOrder: 3},
	{ID: SubPowerOutage, CategoryID: CategoryInfrastructure, Name: "Power Outage", SortOrder: 4},
	{ID: SubWaterMain, CategoryID: CategoryInfrastructure, Name: "Water Main Break", SortOrder: 5},

	{ID: SubFire, CategoryID: CategoryEmergency, Name: "Fire & Smoke", SortOrder: 1},
	{ID: SubMedical, CategoryID: CategoryEmergency, Name: "Medical Emergency", SortOrder: 2},
	{ID: SubHazmat, CategoryID: CategoryEmergency, Name: "Chemical Spill / Hazmat", SortOrder: 3},
	{ID: SubSevereWeather, CategoryID: CategoryEmergency, Name: "Severe Weather", SortOrder: 4},
	{ID: SubRescue, CategoryID: CategoryEmergency, Name: "Rescue", SortOrder: 5},
	{ID: SubFlooding, CategoryID: CategoryEmergency, Name: "Flooding", SortOrder: 6},

	{ID: SubSnakes, CategoryID: CategoryWildlife, Name: "Snakes & Reptiles", SortOrder: 1},
	{ID: SubInjuredWildlife, CategoryID: CategoryWildlife, Name: "Injured Wildlife", SortOrder: 2},
	{ID: SubWildlifeOnRoad, CategoryID: CategoryWildlife, Name: "Wildlife on Road", SortOrder: 3},
	{ID: SubSwoopingBirds, CategoryID: CategoryWildlife, Name: "Swooping Birds", SortOrder: 4},

	{ID: SubNoise, CategoryID: CategoryCommunity, Name: "Noise Complaints", SortOrder: 1},
	{ID: SubIllegalDumping, CategoryID: CategoryCommunity, Name: "Illegal Dumping", SortOrder: 2},
	{ID: SubCommunityEvents, CategoryID: CategoryCommunity, Name: "Events & Gatherings", SortOrder: 3},
	{ID: SubParking, CategoryID: CategoryCommunity, Name: "Parking Issues", SortOrder: 4},

	{ID: SubLostPet, CategoryID: CategoryPets, Name: "Lost Pet", SortOrder: 1},
	{ID: SubFoundPet, CategoryID: CategoryPets, Name: "Found Pet", SortOrder: 2},
	{ID: SubRoamingDog, CategoryID: CategoryPets, Name: "Roaming Dog", SortOrder: 3},

	{ID: SubLostProperty, CategoryID: CategoryLostFound, Name: "Lost Property", SortOrder: 1},
	{ID: SubFoundProperty, CategoryID: CategoryLostFound, Name: "Found Property", SortOrder: 2},
}

var (
	categoryByID    = make(map[string]models.Category, len(categories))
	subcategoryByID = make(map[string]models.Subcategory, len(subcategories))
)

func init() {
	for _, c := range categories {
		categoryByID[c.ID] = c
	}
	for _, s := range subcategories {
		subcategoryByID[s.ID] = s
	}
}

// Categories returns a copy of the built-in taxonomy.
func Categories() []models.Category {
	return append([]models.Category(nil), categories...)
}

func Subcategories() []models.Subcategory {
	return append([]models.Subcategory(nil), subcategories...)
}

// CategoryName returns the display name for id, or "" when unmapped.
func CategoryName(id string) string {
	return categoryByID[id].Name
}

// SubcategoryName returns the display name for id, or "" when unmapped.
func SubcategoryName(id string) string {
	return subcategoryByID[id].Name
}

func LookupCategory(id string) (models.Category, bool) {
	c, ok := categoryByID[id]
	return c, ok
}

func LookupSubcategory(id string) (models.Subcategory, bool) {
	s, ok := subcategoryByID[id]
	return s, ok
}
