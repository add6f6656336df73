package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"proteinid/models"
	"proteinid/utils"

	"github.com/hashicorp/go-hclog"
)

// ErrValidation is returned before any write when input is rejected.
var ErrValidation = errors.New("validation failed")

// LogInput describes a food to log. When ProteinGrams is zero it is
// computed from ProteinPer100g and the serving. QuickFood names an entry
// of the reference table and fills whatever else is missing. An empty
// Date means today.
type LogInput struct {
	QuickFood      string  `json:"quick_food"`
	FoodName       string  `json:"food_name"`
	ServingGrams   float64 `json:"serving_grams"`
	ProteinGrams   float64 `json:"protein_grams"`
	ProteinPer100g float64 `json:"protein_per_100g"`
	Date           string  `json:"date"`
}

// DaySnapshot is a user's day as the log screen shows it.
type DaySnapshot struct {
	Date         string            `json:"date"`
	Entries      []models.LogEntry `json:"entries"`
	TotalProtein float64           `json:"total_protein"`
	Goal         int               `json:"goal"`
	Percent      int               `json:"percent"`
}

type LogService struct {
	logs     LogStore
	profiles ProfileStore
	notifier Notifier
	log      hclog.Logger

	Now      func() time.Time
	Location *time.Location
}

// NewLogService wires the log store. notifier may be nil.
func NewLogService(logs LogStore, profiles ProfileStore, notifier Notifier, log hclog.Logger) *LogService {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &LogService{
		logs:     logs,
		profiles: profiles,
		notifier: notifier,
		log:      log.Named("log"),
		Now:      time.Now,
		Location: time.Local,
	}
}

func (s *LogService) today() string {
	return utils.Today(s.Now(), s.Location)
}

func (in *LogInput) normalize(defaultDate string) error {
	if in.QuickFood != "" {
		qf, ok := QuickFoodByKey(in.QuickFood)
		if !ok {
			return fmt.Errorf("%w: unknown quick food %q", ErrValidation, in.QuickFood)
		}
		if strings.TrimSpace(in.FoodName) == "" {
			in.FoodName = qf.Description
		}
		if in.ServingGrams == 0 {
			in.ServingGrams = qf.Serving
		}
		if in.ProteinPer100g == 0 {
			in.ProteinPer100g = qf.ProteinPer100g
		}
	}
	in.FoodName = strings.TrimSpace(in.FoodName)
	if in.FoodName == "" {
		return fmt.Errorf("%w: food name is required", ErrValidation)
	}
	if !positive(in.ServingGrams) {
		return fmt.Errorf("%w: serving must be positive", ErrValidation)
	}
	if in.ProteinGrams == 0 && in.ProteinPer100g > 0 {
		in.ProteinGrams = ServingProtein(in.ProteinPer100g, in.ServingGrams)
	}
	if !positive(in.ProteinGrams) {
		return fmt.Errorf("%w: protein must be positive", ErrValidation)
	}
	if in.Date == "" {
		in.Date = defaultDate
	}
	if _, err := utils.ParseDate(in.Date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}
	return nil
}

// AddFood records an entry and returns the reloaded day. Crossing the
// goal with this entry sends a goal-reached notification.
func (s *LogService) AddFood(ctx context.Context, userID string, in LogInput) (*DaySnapshot, error) {
	if err := in.normalize(s.today()); err != nil {
		return nil, err
	}

	before, err := s.ListDay(ctx, userID, in.Date)
	if err != nil {
		return nil, err
	}

	entry := &models.LogEntry{
		UserID:       userID,
		FoodName:     in.FoodName,
		ServingGrams: in.ServingGrams,
		ProteinGrams: in.ProteinGrams,
		Date:         in.Date,
		RecordedAt:   s.Now(),
	}
	if err := s.logs.CreateLogEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("create log entry: %w", err)
	}
	s.log.Debug("food logged", "user_id", userID, "date", in.Date, "protein", in.ProteinGrams)

	after, err := s.ListDay(ctx, userID, in.Date)
	if err != nil {
		return nil, err
	}
	if before.TotalProtein < float64(after.Goal) && after.TotalProtein >= float64(after.Goal) {
		s.goalReached(ctx, userID, after)
	}
	return after, nil
}

func (s *LogService) goalReached(ctx context.Context, userID string, day *DaySnapshot) {
	if s.notifier == nil {
		return
	}
	s.log.Info("daily goal reached", "user_id", userID, "date", day.Date, "goal", day.Goal)
	n := s.notifier.PushToUser(ctx, userID,
		"Protein goal reached",
		fmt.Sprintf("You hit your %d g protein goal today.", day.Goal),
		map[string]string{"type": "goal_reached", "date": day.Date},
	)
	s.log.Debug("goal notification sent", "user_id", userID, "devices", n)
}

// UpdateEntry replaces the fields of an entry owned by userID. An empty
// Date keeps the entry on its current day.
func (s *LogService) UpdateEntry(ctx context.Context, userID, id string, in LogInput) (*DaySnapshot, error) {
	existing, err := s.logs.LogEntry(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := in.normalize(existing.Date); err != nil {
		return nil, err
	}

	existing.FoodName = in.FoodName
	existing.ServingGrams = in.ServingGrams
	existing.ProteinGrams = in.ProteinGrams
	existing.Date = in.Date
	if err := s.logs.UpdateLogEntry(ctx, existing); err != nil {
		return nil, fmt.Errorf("update log entry: %w", err)
	}
	return s.ListDay(ctx, userID, existing.Date)
}

// DeleteEntry removes an entry owned by userID and returns its day.
func (s *LogService) DeleteEntry(ctx context.Context, userID, id string) (*DaySnapshot, error) {
	existing, err := s.logs.LogEntry(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.logs.DeleteLogEntry(ctx, userID, id); err != nil {
		return nil, fmt.Errorf("delete log entry: %w", err)
	}
	return s.ListDay(ctx, userID, existing.Date)
}

// ListDay returns the entries of date, oldest first. An empty date is today.
func (s *LogService) ListDay(ctx context.Context, userID, date string) (*DaySnapshot, error) {
	if date == "" {
		date = s.today()
	}
	if _, err := utils.ParseDate(date); err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}

	all, err := s.logs.LogEntries(ctx, userID, "")
	if err != nil {
		return nil, fmt.Errorf("load log entries: %w", err)
	}
	goal, err := goalFor(ctx, s.profiles, userID)
	if err != nil {
		return nil, err
	}
	return daySnapshot(all, userID, date, goal), nil
}

func daySnapshot(all []models.LogEntry, userID, date string, goal int) *DaySnapshot {
	entries := make([]models.LogEntry, 0)
	for _, e := range all {
		if e.UserID == userID && e.Date == date {
			entries = append(entries, e)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].RecordedAt.Before(entries[j].RecordedAt)
	})
	total := DailyTotal(entries, date, userID)
	return &DaySnapshot{
		Date:         date,
		Entries:      entries,
		TotalProtein: total,
		Goal:         goal,
		Percent:      ProgressPercent(total, goal),
	}
}
