package services

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"proteinid/models"
	"proteinid/utils"
)

// ErrInvalidInput is returned for values no goal can be derived from.
var ErrInvalidInput = errors.New("invalid input")

// DefaultProteinGoal is used until the profile has weight and sex.
const DefaultProteinGoal = 100

// Protein grams per kg of body weight.
var goalMultipliers = map[models.Sex]float64{
	models.SexMale:   1.8,
	models.SexFemale: 1.6,
}

// DayProtein is one slot of a month series.
type DayProtein struct {
	Day          int     `json:"day"`
	ProteinGrams float64 `json:"protein_grams"`
}

// Rounded is the whole-gram value shown on charts.
func (d DayProtein) Rounded() int { return int(math.Round(d.ProteinGrams)) }

// DayWeight is one slot of a weight series; WeightKg is nil on days
// without a measurement.
type DayWeight struct {
	Day      int      `json:"day"`
	WeightKg *float64 `json:"weight_kg"`
}

type Stats struct {
	TotalDays       int `json:"total_days"`
	DaysGoalReached int `json:"days_goal_reached"`
	AverageProtein  int `json:"average_protein"`
}

type MonthSummary struct {
	LoggedDays      int `json:"logged_days"`
	DaysGoalReached int `json:"days_goal_reached"`
	AverageProtein  int `json:"average_protein"`
	BestDay         int `json:"best_day,omitempty"`
	BestDayProtein  int `json:"best_day_protein,omitempty"`
}

// DailyTotal sums the protein a user logged on date.
func DailyTotal(entries []models.LogEntry, date, userID string) float64 {
	var total float64
	for _, e := range entries {
		if e.UserID == userID && e.Date == date {
			total += e.ProteinGrams
		}
	}
	return total
}

// MonthlySeries folds a user's entries into one zero-filled slot per day
// of the month. Values are left unrounded.
func MonthlySeries(entries []models.LogEntry, userID string, year int, month time.Month) []DayProtein {
	days := utils.DaysInMonth(year, month)
	first, last := utils.MonthBounds(year, month)

	series := make([]DayProtein, days)
	for i := range series {
		series[i].Day = i + 1
	}
	for _, e := range entries {
		if e.UserID != userID || e.Date < first || e.Date > last {
			continue
		}
		day, ok := dayOfDate(e.Date)
		if !ok || day < 1 || day > days {
			continue
		}
		series[day-1].ProteinGrams += e.ProteinGrams
	}
	return series
}

// DailyGoal derives the protein target in grams from body weight and sex.
func DailyGoal(weightKg float64, sex models.Sex) (int, error) {
	if weightKg <= 0 || math.IsNaN(weightKg) || math.IsInf(weightKg, 0) {
		return 0, fmt.Errorf("%w: weight must be positive", ErrInvalidInput)
	}
	m, ok := goalMultipliers[sex]
	if !ok {
		return 0, fmt.Errorf("%w: unknown sex %q", ErrInvalidInput, sex)
	}
	return int(math.Round(weightKg * m)), nil
}

// ProgressPercent is capped at 100. A goal of zero or less is an unset
// goal and reports 0.
func ProgressPercent(total float64, goal int) int {
	if goal <= 0 || total <= 0 {
		return 0
	}
	p := int(math.Round(total / float64(goal) * 100))
	if p > 100 {
		return 100
	}
	return p
}

// AllTimeStats counts only dates with a positive total. No day reaches a
// goal of zero or less.
func AllTimeStats(entries []models.LogEntry, goal int) Stats {
	totals := make(map[string]float64)
	for _, e := range entries {
		if e.Date == "" {
			continue
		}
		totals[e.Date] += e.ProteinGrams
	}

	var out Stats
	var sum float64
	for _, t := range totals {
		if t <= 0 {
			continue
		}
		out.TotalDays++
		sum += t
		if goal > 0 && t >= float64(goal) {
			out.DaysGoalReached++
		}
	}
	if out.TotalDays > 0 {
		out.AverageProtein = int(math.Round(sum / float64(out.TotalDays)))
	}
	return out
}

// SummarizeMonth reports the best and average day of a series. Days
// without protein are not counted.
func SummarizeMonth(series []DayProtein, goal int) MonthSummary {
	var out MonthSummary
	var sum, best float64
	for _, d := range series {
		if d.ProteinGrams <= 0 {
			continue
		}
		out.LoggedDays++
		sum += d.ProteinGrams
		if goal > 0 && d.ProteinGrams >= float64(goal) {
			out.DaysGoalReached++
		}
		if d.ProteinGrams > best {
			best = d.ProteinGrams
			out.BestDay = d.Day
		}
	}
	if out.LoggedDays > 0 {
		out.AverageProtein = int(math.Round(sum / float64(out.LoggedDays)))
		out.BestDayProtein = int(math.Round(best))
	}
	return out
}

// WeightSeries lays a user's weights for the month out per day. When a
// day has several records the most recent one wins. The second value is
// the latest weight in the month, or the latest overall when the month
// has none; nil when the user never recorded a weight.
func WeightSeries(entries []models.WeightEntry, userID string, year int, month time.Month) ([]DayWeight, *float64) {
	days := utils.DaysInMonth(year, month)
	first, last := utils.MonthBounds(year, month)

	series := make([]DayWeight, days)
	for i := range series {
		series[i].Day = i + 1
	}
	stamps := make([]time.Time, days)

	var monthLatest, globalLatest *models.WeightEntry
	for i := range entries {
		e := &entries[i]
		if e.UserID != userID {
			continue
		}
		if globalLatest == nil || e.RecordedAt.After(globalLatest.RecordedAt) {
			globalLatest = e
		}
		if e.Date < first || e.Date > last {
			continue
		}
		day, ok := dayOfDate(e.Date)
		if !ok || day < 1 || day > days {
			continue
		}
		if monthLatest == nil || e.RecordedAt.After(monthLatest.RecordedAt) {
			monthLatest = e
		}
		if series[day-1].WeightKg == nil || e.RecordedAt.After(stamps[day-1]) {
			w := e.WeightKg
			series[day-1].WeightKg = &w
			stamps[day-1] = e.RecordedAt
		}
	}

	latest := monthLatest
	if latest == nil {
		latest = globalLatest
	}
	if latest == nil {
		return series, nil
	}
	w := latest.WeightKg
	return series, &w
}

// ServingProtein scales a per-100 g value to a serving.
func ServingProtein(per100g, grams float64) float64 {
	if per100g <= 0 || grams <= 0 {
		return 0
	}
	return math.Round(per100g*grams) / 100
}

func dayOfDate(date string) (int, bool) {
	if len(date) != len(utils.DateLayout) {
		return 0, false
	}
	d, err := strconv.Atoi(date[8:10])
	if err != nil {
		return 0, false
	}
	return d, true
}
