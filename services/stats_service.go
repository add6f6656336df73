package services

import (
	"context"
	"fmt"
	"time"

	"proteinid/utils"

	"github.com/hashicorp/go-hclog"
)

// ChartPoint is a series slot rounded to whole grams.
type ChartPoint struct {
	Day     int `json:"day"`
	Protein int `json:"protein"`
}

type Dashboard struct {
	Today  *DaySnapshot `json:"today"`
	Year   int          `json:"year"`
	Month  int          `json:"month"`
	Series []DayProtein `json:"series"`
	Chart  []ChartPoint `json:"chart"`
}

type History struct {
	Year    int          `json:"year"`
	Month   int          `json:"month"`
	Goal    int          `json:"goal"`
	Series  []DayProtein `json:"series"`
	Chart   []ChartPoint `json:"chart"`
	Summary MonthSummary `json:"summary"`
	AllTime Stats        `json:"all_time"`
}

// StatsService answers the read-only screens. Every call scans the
// user's entries once and aggregates in memory.
type StatsService struct {
	logs     LogStore
	profiles ProfileStore
	log      hclog.Logger

	Now      func() time.Time
	Location *time.Location
}

func NewStatsService(logs LogStore, profiles ProfileStore, log hclog.Logger) *StatsService {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &StatsService{
		logs:     logs,
		profiles: profiles,
		log:      log.Named("stats"),
		Now:      time.Now,
		Location: time.Local,
	}
}

func chart(series []DayProtein) []ChartPoint {
	out := make([]ChartPoint, len(series))
	for i, d := range series {
		out[i] = ChartPoint{Day: d.Day, Protein: d.Rounded()}
	}
	return out
}

func (s *StatsService) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	now := s.Now().In(s.location())
	all, err := s.logs.LogEntries(ctx, userID, "")
	if err != nil {
		return nil, fmt.Errorf("load log entries: %w", err)
	}
	goal, err := goalFor(ctx, s.profiles, userID)
	if err != nil {
		return nil, err
	}

	series := MonthlySeries(all, userID, now.Year(), now.Month())
	return &Dashboard{
		Today:  daySnapshot(all, userID, now.Format(utils.DateLayout), goal),
		Year:   now.Year(),
		Month:  int(now.Month()),
		Series: series,
		Chart:  chart(series),
	}, nil
}

func (s *StatsService) History(ctx context.Context, userID string, year int, month time.Month) (*History, error) {
	if err := checkMonth(year, month); err != nil {
		return nil, err
	}
	all, err := s.logs.LogEntries(ctx, userID, "")
	if err != nil {
		return nil, fmt.Errorf("load log entries: %w", err)
	}
	goal, err := goalFor(ctx, s.profiles, userID)
	if err != nil {
		return nil, err
	}

	series := MonthlySeries(all, userID, year, month)
	return &History{
		Year:    year,
		Month:   int(month),
		Goal:    goal,
		Series:  series,
		Chart:   chart(series),
		Summary: SummarizeMonth(series, goal),
		AllTime: AllTimeStats(all, goal),
	}, nil
}

// Day is the drill-down of a single date, oldest entry first.
func (s *StatsService) Day(ctx context.Context, userID, date string) (*DaySnapshot, error) {
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

func (s *StatsService) location() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}
