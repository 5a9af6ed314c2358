package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/terraincognita07/mamacare/internal/logger"
	"github.com/terraincognita07/mamacare/internal/models"
	"gorm.io/gorm"
)

var (
	ErrRoadmapLoadFailed = errors.New("roadmap load failed")
	ErrRoadmapSaveFailed = errors.New("roadmap save failed")
)

type EmergencyPlanningRepository interface {
	FindPlanning(ctx context.Context, userID uint) (models.EmergencyPlanning, error)
	SetWeeklyReminders(ctx context.Context, userID uint, enabled bool) error
	ListChecklistItems(ctx context.Context, userID uint) ([]models.EmergencyChecklistItem, error)
	SetChecklistItem(ctx context.Context, userID uint, itemID string, checked bool) error
	ImportLegacyChecklist(ctx context.Context, userID uint, checked map[string]bool) error
}

type EmergencyPlanningService struct {
	planning EmergencyPlanningRepository
	log      *logger.Logger
}

func NewEmergencyPlanningService(planning EmergencyPlanningRepository, log *logger.Logger) *EmergencyPlanningService {
	if log == nil {
		log = logger.Nop()
	}
	return &EmergencyPlanningService{planning: planning, log: log}
}

type RoadmapItemView struct {
	RoadmapItem
	Checked bool `json:"checked"`
}

type RoadmapOverview struct {
	CurrentWeek     int               `json:"current_week"`
	Items           []RoadmapItemView `json:"items"`
	Partition       RoadmapPartition  `json:"partition"`
	Progress        RoadmapProgress   `json:"progress"`
	WeeklyReminders bool              `json:"weekly_reminders"`
	Celebrate       bool              `json:"celebrate"`
}

type RoadmapToggleResult struct {
	Item      RoadmapItem     `json:"item"`
	Checked   bool            `json:"checked"`
	Progress  RoadmapProgress `json:"progress"`
	Celebrate bool            `json:"celebrate"`
}

// State loads the user's checked items, importing a legacy checklist blob
// first when no per-item rows exist yet.
func (service *EmergencyPlanningService) State(ctx context.Context, userID uint) (RoadmapState, bool, error) {
	items, err := service.planning.ListChecklistItems(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrRoadmapLoadFailed, err)
	}

	weekly := false
	planning, err := service.planning.FindPlanning(ctx, userID)
	switch {
	case err == nil:
		weekly = planning.WeeklyReminders
		if len(items) == 0 && strings.TrimSpace(planning.ChecklistData) != "" {
			items, err = service.importLegacy(ctx, userID, planning.ChecklistData)
			if err != nil {
				return nil, false, err
			}
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return nil, false, fmt.Errorf("%w: %v", ErrRoadmapLoadFailed, err)
	}

	state := make(RoadmapState, len(items))
	for _, item := range items {
		if item.Checked {
			state[item.ItemID] = true
		}
	}
	return state, weekly, nil
}

func (service *EmergencyPlanningService) importLegacy(ctx context.Context, userID uint, blob string) ([]models.EmergencyChecklistItem, error) {
	checked, err := DecodeLegacyChecklist(blob)
	if err != nil {
		service.log.Warn("legacy checklist unreadable, discarding", "user_id", userID, "error", err.Error())
		checked = map[string]bool{}
	}
	if err := service.planning.ImportLegacyChecklist(ctx, userID, checked); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRoadmapLoadFailed, err)
	}
	service.log.Info("legacy checklist imported", "user_id", userID, "items", len(checked))

	items, err := service.planning.ListChecklistItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRoadmapLoadFailed, err)
	}
	return items, nil
}

type legacyChecklistEntry struct {
	ID        string `json:"id"`
	Checked   *bool  `json:"checked"`
	Completed *bool  `json:"completed"`
}

// DecodeLegacyChecklist accepts either an {"id": bool} object or an array
// of {"id", "checked"|"completed"} entries. Unknown item ids are dropped.
func DecodeLegacyChecklist(blob string) (map[string]bool, error) {
	raw := []byte(strings.TrimSpace(blob))
	out := make(map[string]bool)

	var asMap map[string]bool
	if err := json.Unmarshal(raw, &asMap); err == nil {
		for id, checked := range asMap {
			if _, ok := RoadmapItemByID(id); ok {
				out[id] = checked
			}
		}
		return out, nil
	}

	var asList []legacyChecklistEntry
	if err := json.Unmarshal(raw, &asList); err != nil {
		return nil, fmt.Errorf("decode legacy checklist: %w", err)
	}
	for _, entry := range asList {
		if _, ok := RoadmapItemByID(entry.ID); !ok {
			continue
		}
		switch {
		case entry.Checked != nil:
			out[entry.ID] = *entry.Checked
		case entry.Completed != nil:
			out[entry.ID] = *entry.Completed
		}
	}
	return out, nil
}

func (service *EmergencyPlanningService) Overview(ctx context.Context, session *Session, currentWeek int) (RoadmapOverview, error) {
	state, weekly, err := service.State(ctx, session.UserID)
	if err != nil {
		return RoadmapOverview{}, err
	}

	items := make([]RoadmapItemView, 0, len(roadmapItems))
	for _, item := range roadmapItems {
		items = append(items, RoadmapItemView{RoadmapItem: item, Checked: state[item.ID]})
	}
	progress := Progress(state)
	return RoadmapOverview{
		CurrentWeek:     currentWeek,
		Items:           items,
		Partition:       Partition(state, currentWeek),
		Progress:        progress,
		WeeklyReminders: weekly,
		Celebrate:       service.celebrate(session, progress),
	}, nil
}

// Toggle flips one item and persists only that item.
func (service *EmergencyPlanningService) Toggle(ctx context.Context, session *Session, itemID string) (RoadmapToggleResult, error) {
	item, ok := RoadmapItemByID(strings.TrimSpace(itemID))
	if !ok {
		return RoadmapToggleResult{}, ErrUnknownRoadmapItem
	}

	state, _, err := service.State(ctx, session.UserID)
	if err != nil {
		return RoadmapToggleResult{}, err
	}
	checked := !state[item.ID]
	if err := service.planning.SetChecklistItem(ctx, session.UserID, item.ID, checked); err != nil {
		return RoadmapToggleResult{}, fmt.Errorf("%w: %v", ErrRoadmapSaveFailed, err)
	}

	if checked {
		state[item.ID] = true
	} else {
		delete(state, item.ID)
	}
	progress := Progress(state)
	return RoadmapToggleResult{
		Item:      item,
		Checked:   checked,
		Progress:  progress,
		Celebrate: service.celebrate(session, progress),
	}, nil
}

func (service *EmergencyPlanningService) SetWeeklyReminder(ctx context.Context, userID uint, enabled bool) error {
	if err := service.planning.SetWeeklyReminders(ctx, userID, enabled); err != nil {
		return fmt.Errorf("%w: %v", ErrRoadmapSaveFailed, err)
	}
	return nil
}

func (service *EmergencyPlanningService) celebrate(session *Session, progress RoadmapProgress) bool {
	if progress.Total == 0 || progress.Completed < progress.Total {
		return false
	}
	return session.MarkCelebrated()
}
