package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"proteinid/models"
	"proteinid/utils"

	"github.com/hashicorp/go-hclog"
)

// WeightHistory is one month of weights ready for a chart.
type WeightHistory struct {
	Year         int         `json:"year"`
	Month        int         `json:"month"`
	Days         []DayWeight `json:"days"`
	LatestWeight *float64    `json:"latest_weight"`
	GoalWeight   *float64    `json:"goal_weight,omitempty"`
}

type WeightService struct {
	weights  WeightStore
	profiles ProfileStore
	log      hclog.Logger

	Now      func() time.Time
	Location *time.Location
}

func NewWeightService(weights WeightStore, profiles ProfileStore, log hclog.Logger) *WeightService {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &WeightService{
		weights:  weights,
		profiles: profiles,
		log:      log.Named("weight"),
		Now:      time.Now,
		Location: time.Local,
	}
}

func (s *WeightService) checkInput(date string, weightKg float64) (string, error) {
	if !positive(weightKg) {
		return "", fmt.Errorf("%w: weight must be positive", ErrValidation)
	}
	if date == "" {
		date = utils.Today(s.Now(), s.Location)
	}
	if _, err := utils.ParseDate(date); err != nil {
		return "", fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}
	return date, nil
}

// Record stores the weight for date, replacing an earlier measurement of
// the same day. An empty date means today.
func (s *WeightService) Record(ctx context.Context, userID, date string, weightKg float64) (*models.WeightEntry, error) {
	date, err := s.checkInput(date, weightKg)
	if err != nil {
		return nil, err
	}
	e := &models.WeightEntry{UserID: userID, Date: date, WeightKg: weightKg, RecordedAt: s.Now()}
	if err := s.weights.UpsertWeightEntry(ctx, e); err != nil {
		return nil, fmt.Errorf("record weight: %w", err)
	}
	s.syncProfileWeight(ctx, userID)
	return e, nil
}

// Update moves or corrects an entry. Moving onto a date that already has
// a measurement fails with ErrConflict.
func (s *WeightService) Update(ctx context.Context, userID, id, date string, weightKg float64) (*models.WeightEntry, error) {
	e, err := s.weights.WeightEntry(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if date == "" {
		date = e.Date
	}
	if date, err = s.checkInput(date, weightKg); err != nil {
		return nil, err
	}
	e.Date = date
	e.WeightKg = weightKg
	e.RecordedAt = s.Now()
	if err := s.weights.UpdateWeightEntry(ctx, e); err != nil {
		return nil, err
	}
	s.syncProfileWeight(ctx, userID)
	return e, nil
}

func (s *WeightService) Delete(ctx context.Context, userID, id string) error {
	if err := s.weights.DeleteWeightEntry(ctx, userID, id); err != nil {
		return err
	}
	s.syncProfileWeight(ctx, userID)
	return nil
}

func (s *WeightService) Series(ctx context.Context, userID string, year int, month time.Month) (*WeightHistory, error) {
	if err := checkMonth(year, month); err != nil {
		return nil, err
	}
	entries, err := s.weights.WeightEntries(ctx, userID, "")
	if err != nil {
		return nil, fmt.Errorf("load weights: %w", err)
	}
	days, latest := WeightSeries(entries, userID, year, month)
	out := &WeightHistory{Year: year, Month: int(month), Days: days, LatestWeight: latest}

	p, err := s.profiles.Profile(ctx, userID)
	switch {
	case err == nil:
		out.GoalWeight = p.WeightGoalKg
	case !errors.Is(err, ErrNotFound):
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return out, nil
}

// syncProfileWeight copies the measurement with the latest date onto the
// profile, so the derived protein goal follows the user's weight. Users
// without a profile are left alone.
func (s *WeightService) syncProfileWeight(ctx context.Context, userID string) {
	entries, err := s.weights.WeightEntries(ctx, userID, "")
	if err != nil || len(entries) == 0 {
		return
	}
	latest := entries[0]
	for _, e := range entries[1:] {
		if e.Date > latest.Date || (e.Date == latest.Date && e.RecordedAt.After(latest.RecordedAt)) {
			latest = e
		}
	}

	p, err := s.profiles.Profile(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Warn("load profile failed", "user_id", userID, "error", err)
		}
		return
	}
	if p.WeightKg == latest.WeightKg {
		return
	}
	p.WeightKg = latest.WeightKg
	if err := s.profiles.SaveProfile(ctx, p); err != nil {
		s.log.Warn("update profile weight failed", "user_id", userID, "error", err)
		return
	}
	s.log.Debug("profile weight updated", "user_id", userID, "weight_kg", latest.WeightKg)
}

func checkMonth(year int, month time.Month) error {
	if year < 1 || year > 9999 || month < time.January || month > time.December {
		return fmt.Errorf("%w: year and month out of range", ErrValidation)
	}
	return nil
}
