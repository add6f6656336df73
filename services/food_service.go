package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"proteinid/utils"

	"github.com/hashicorp/go-hclog"
)

const searchPageSize = 10

// Data types searched: whole foods only, no branded products.
var searchDataTypes = []string{"Foundation", "SR Legacy"}

var (
	lithuanianLetters = regexp.MustCompile(`(?i)[ąčęėįšųūž]`)
	plainEnglish      = regexp.MustCompile(`^[a-zA-Z\s]+$`)
)

var (
	ErrRecognitionDisabled = errors.New("image recognition is not configured")
	ErrNoLabels            = errors.New("no food detected in image")
)

type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

type FoodDatabase interface {
	SearchFoods(ctx context.Context, query string, pageSize int, dataTypes []string) ([]USDAFood, error)
	Food(ctx context.Context, fdcID int64) (*USDAFood, error)
}

type LabelDetector interface {
	DetectLabels(ctx context.Context, image []byte) ([]string, error)
}

// FoodResult is a normalized search hit.
type FoodResult struct {
	ID             string  `json:"id"`
	Description    string  `json:"description"`
	Brand          string  `json:"brand,omitempty"`
	ProteinPer100g float64 `json:"protein_per_100g"`
}

type FoodService struct {
	translator Translator
	foods      FoodDatabase
	labels     LabelDetector
	log        hclog.Logger
}

// NewFoodService wires the search collaborators. labels may be nil when
// image recognition is not configured.
func NewFoodService(tr Translator, db FoodDatabase, labels LabelDetector, log hclog.Logger) *FoodService {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &FoodService{translator: tr, foods: db, labels: labels, log: log.Named("food")}
}

// NeedsTranslation reports whether text may be Lithuanian.
func NeedsTranslation(text string) bool {
	return lithuanianLetters.MatchString(text) || !plainEnglish.MatchString(text)
}

func (s *FoodService) toEnglish(ctx context.Context, text string) string {
	if !NeedsTranslation(text) || s.translator == nil {
		return text
	}
	out, err := s.translator.Translate(ctx, text, "lt", "en")
	if err != nil {
		s.log.Warn("translation failed, searching untranslated", "query", text, "error", err)
		return text
	}
	return out
}

// Search never fails: transport problems yield an empty result and are
// only logged. Results without protein are dropped.
func (s *FoodService) Search(ctx context.Context, query string) []FoodResult {
	query = strings.TrimSpace(query)
	out := make([]FoodResult, 0)
	if query == "" {
		return out
	}

	term := s.toEnglish(ctx, query)
	foods, err := s.foods.SearchFoods(ctx, term, searchPageSize, searchDataTypes)
	if err != nil {
		s.log.Warn("food search failed", "query", query, "term", term, "error", err)
		return out
	}

	for _, f := range foods {
		r := normalizeFood(f)
		if r.ProteinPer100g <= 0 {
			continue
		}
		out = append(out, r)
	}
	s.log.Debug("food search", "query", query, "term", term, "hits", len(foods), "kept", len(out))
	return out
}

// Details returns nil when the food cannot be fetched.
func (s *FoodService) Details(ctx context.Context, fdcID int64) *FoodResult {
	f, err := s.foods.Food(ctx, fdcID)
	if err != nil {
		s.log.Warn("food details failed", "fdc_id", fdcID, "error", err)
		return nil
	}
	r := normalizeFood(*f)
	return &r
}

// Recognize detects what is on a photo and searches for the first label.
func (s *FoodService) Recognize(ctx context.Context, dataURI string) ([]FoodResult, error) {
	if s.labels == nil {
		return nil, ErrRecognitionDisabled
	}
	_, img, err := utils.DecodeDataURI(dataURI)
	if err != nil {
		return nil, err
	}
	labels, err := s.labels.DetectLabels(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("detect labels: %w", err)
	}
	if len(labels) == 0 {
		return nil, ErrNoLabels
	}
	return s.Search(ctx, labels[0]), nil
}

func normalizeFood(f USDAFood) FoodResult {
	return FoodResult{
		ID:             strconv.FormatInt(f.FDCID, 10),
		Description:    f.Description,
		Brand:          f.Brand,
		ProteinPer100g: proteinPer100g(f.Nutrients),
	}
}

// proteinPer100g prefers the nutrient id and falls back to the name.
func proteinPer100g(nutrients []USDANutrient) float64 {
	for _, n := range nutrients {
		if n.ID == proteinNutrientID {
			return n.Value
		}
	}
	for _, n := range nutrients {
		if strings.Contains(strings.ToLower(n.Name), "protein") {
			return n.Value
		}
	}
	return 0
}
