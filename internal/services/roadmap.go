package services

import (
	"errors"
	"math"
)

var ErrUnknownRoadmapItem = errors.New("unknown roadmap item")

type RoadmapCategory string

const (
	RoadmapMedical   RoadmapCategory = "medical"
	RoadmapTransport RoadmapCategory = "transport"
	RoadmapFinance   RoadmapCategory = "finance"
	RoadmapDocuments RoadmapCategory = "documents"
	RoadmapSupplies  RoadmapCategory = "supplies"
	RoadmapSupport   RoadmapCategory = "support"
	RoadmapLearning  RoadmapCategory = "learning"
)

type RoadmapItem struct {
	ID       string          `json:"id"`
	Label    string          `json:"label"`
	Week     int             `json:"week"`
	Category RoadmapCategory `json:"category"`
	Emoji    string          `json:"emoji"`
}

type Badge string

const (
	BadgeNone   Badge = ""
	BadgeBronze Badge = "bronze"
	BadgeSilver Badge = "silver"
	BadgeGold   Badge = "gold"
)

const (
	bronzeWeek = 12
	silverWeek = 24
	goldWeek   = 36

	upcomingLimit = 3
)

var roadmapItems = []RoadmapItem{
	{ID: "choose-clinic", Label: "Choose the clinic or hospital for antenatal care", Week: 1, Category: RoadmapMedical, Emoji: "🏥"},
	{ID: "save-emergency-numbers", Label: "Save local emergency and ambulance numbers in your phone", Week: 2, Category: RoadmapSupport, Emoji: "📞"},
	{ID: "add-first-contact", Label: "Add your first emergency contact", Week: 3, Category: RoadmapSupport, Emoji: "👥"},
	{ID: "book-first-visit", Label: "Book your first antenatal visit", Week: 4, Category: RoadmapMedical, Emoji: "📅"},
	{ID: "learn-danger-signs", Label: "Learn the pregnancy danger signs", Week: 5, Category: RoadmapLearning, Emoji: "⚠️"},
	{ID: "know-blood-type", Label: "Find out your blood type", Week: 6, Category: RoadmapMedical, Emoji: "🩸"},
	{ID: "start-savings", Label: "Start an emergency savings fund", Week: 7, Category: RoadmapFinance, Emoji: "💰"},
	{ID: "health-insurance", Label: "Check your health insurance or scheme coverage", Week: 8, Category: RoadmapFinance, Emoji: "🧾"},
	{ID: "id-documents", Label: "Keep your ID and antenatal card in one folder", Week: 9, Category: RoadmapDocuments, Emoji: "📁"},
	{ID: "list-medications", Label: "Write down your medications and allergies", Week: 10, Category: RoadmapDocuments, Emoji: "💊"},
	{ID: "second-contact", Label: "Add a second emergency contact", Week: 11, Category: RoadmapSupport, Emoji: "🤝"},
	{ID: "route-to-hospital", Label: "Plan the fastest route to the hospital", Week: 12, Category: RoadmapTransport, Emoji: "🗺️"},
	{ID: "backup-route", Label: "Plan a backup route for traffic or floods", Week: 13, Category: RoadmapTransport, Emoji: "🛣️"},
	{ID: "transport-arrangement", Label: "Arrange who will drive you to the hospital", Week: 14, Category: RoadmapTransport, Emoji: "🚗"},
	{ID: "night-transport", Label: "Arrange night-time transport", Week: 15, Category: RoadmapTransport, Emoji: "🌙"},
	{ID: "blood-donor", Label: "Identify a willing blood donor", Week: 16, Category: RoadmapMedical, Emoji: "❤️"},
	{ID: "test-alert", Label: "Tell your contacts how the emergency alert works", Week: 17, Category: RoadmapSupport, Emoji: "📲"},
	{ID: "birth-companion", Label: "Choose your birth companion", Week: 18, Category: RoadmapSupport, Emoji: "🫂"},
	{ID: "hospital-costs", Label: "Ask about delivery and emergency costs", Week: 19, Category: RoadmapFinance, Emoji: "🏷️"},
	{ID: "mobile-money", Label: "Keep mobile money or cash ready for emergencies", Week: 20, Category: RoadmapFinance, Emoji: "📱"},
	{ID: "anomaly-scan", Label: "Attend your mid-pregnancy scan", Week: 21, Category: RoadmapMedical, Emoji: "🔎"},
	{ID: "childcare-plan", Label: "Plan care for other children while you are away", Week: 22, Category: RoadmapSupport, Emoji: "🧸"},
	{ID: "labor-signs", Label: "Learn the signs of labour", Week: 23, Category: RoadmapLearning, Emoji: "📖"},
	{ID: "preterm-signs", Label: "Learn the signs of preterm labour", Week: 24, Category: RoadmapLearning, Emoji: "⏱️"},
	{ID: "birth-plan", Label: "Write your birth plan", Week: 25, Category: RoadmapDocuments, Emoji: "📝"},
	{ID: "share-birth-plan", Label: "Share your birth plan with your companion", Week: 26, Category: RoadmapSupport, Emoji: "📤"},
	{ID: "baby-clothes", Label: "Pack clothes and wraps for the baby", Week: 27, Category: RoadmapSupplies, Emoji: "👶"},
	{ID: "mother-supplies", Label: "Pack pads, clothes and toiletries for yourself", Week: 28, Category: RoadmapSupplies, Emoji: "🧴"},
	{ID: "delivery-kit", Label: "Prepare a clean delivery kit", Week: 29, Category: RoadmapSupplies, Emoji: "🧰"},
	{ID: "phone-charger", Label: "Pack a phone charger or power bank", Week: 30, Category: RoadmapSupplies, Emoji: "🔋"},
	{ID: "hospital-bag", Label: "Finish packing the hospital bag", Week: 31, Category: RoadmapSupplies, Emoji: "🎒"},
	{ID: "copy-documents", Label: "Put copies of documents in the hospital bag", Week: 32, Category: RoadmapDocuments, Emoji: "📄"},
	{ID: "breastfeeding", Label: "Learn breastfeeding basics", Week: 33, Category: RoadmapLearning, Emoji: "🍼"},
	{ID: "postpartum-signs", Label: "Learn postpartum danger signs", Week: 34, Category: RoadmapLearning, Emoji: "🩺"},
	{ID: "confirm-transport", Label: "Confirm transport and contacts are on standby", Week: 35, Category: RoadmapTransport, Emoji: "✅"},
	{ID: "final-check", Label: "Do a final check of the whole plan", Week: 36, Category: RoadmapMedical, Emoji: "🏁"},
}

var roadmapIndex = func() map[string]RoadmapItem {
	index := make(map[string]RoadmapItem, len(roadmapItems))
	for _, item := range roadmapItems {
		index[item.ID] = item
	}
	return index
}()

// RoadmapItems returns a copy of the fixed roadmap ordered by week.
func RoadmapItems() []RoadmapItem {
	items := make([]RoadmapItem, len(roadmapItems))
	copy(items, roadmapItems)
	return items
}

func RoadmapItemByID(itemID string) (RoadmapItem, bool) {
	item, ok := roadmapIndex[itemID]
	return item, ok
}

// RoadmapState is the set of checked item ids for one user.
type RoadmapState map[string]bool

type RoadmapProgress struct {
	Completed      int   `json:"completed"`
	Total          int   `json:"total"`
	Percentage     int   `json:"percentage"`
	CompletedWeeks int   `json:"completed_weeks"`
	Badge          Badge `json:"badge"`
}

// Progress ignores ids that are not on the roadmap.
func Progress(state RoadmapState) RoadmapProgress {
	progress := RoadmapProgress{Total: len(roadmapItems)}
	for _, item := range roadmapItems {
		if !state[item.ID] {
			continue
		}
		progress.Completed++
		if item.Week > progress.CompletedWeeks {
			progress.CompletedWeeks = item.Week
		}
	}
	if progress.Total > 0 {
		progress.Percentage = int(math.Round(float64(progress.Completed) / float64(progress.Total) * 100))
	}
	progress.Badge = BadgeFor(progress.CompletedWeeks)
	return progress
}

func BadgeFor(completedWeeks int) Badge {
	switch {
	case completedWeeks >= goldWeek:
		return BadgeGold
	case completedWeeks >= silverWeek:
		return BadgeSilver
	case completedWeeks >= bronzeWeek:
		return BadgeBronze
	default:
		return BadgeNone
	}
}

type RoadmapPartition struct {
	ThisWeek  []RoadmapItem `json:"this_week"`
	Upcoming  []RoadmapItem `json:"upcoming"`
	Unlocked  []RoadmapItem `json:"unlocked"`
	Completed []RoadmapItem `json:"completed"`
}

func Partition(state RoadmapState, currentWeek int) RoadmapPartition {
	partition := RoadmapPartition{
		ThisWeek:  []RoadmapItem{},
		Upcoming:  []RoadmapItem{},
		Unlocked:  []RoadmapItem{},
		Completed: []RoadmapItem{},
	}
	for _, item := range roadmapItems {
		if item.Week == currentWeek {
			partition.ThisWeek = append(partition.ThisWeek, item)
		}
		if item.Week > currentWeek && len(partition.Upcoming) < upcomingLimit {
			partition.Upcoming = append(partition.Upcoming, item)
		}
		if item.Week <= currentWeek {
			partition.Unlocked = append(partition.Unlocked, item)
		}
		if state[item.ID] {
			partition.Completed = append(partition.Completed, item)
		}
	}
	return partition
}

func roadmapItemForWeek(week int) (RoadmapItem, bool) {
	for _, item := range roadmapItems {
		if item.Week == week {
			return item, true
		}
	}
	return RoadmapItem{}, false
}
