package services

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/quick_foods.yaml
var quickFoodsYAML []byte

// QuickFood is a common food offered for one-tap logging.
type QuickFood struct {
	Key            string  `yaml:"key" json:"key"`
	Description    string  `yaml:"description" json:"description"`
	ProteinPer100g float64 `yaml:"protein_per_100g" json:"protein_per_100g"`
	Icon           string  `yaml:"icon" json:"icon"`
	Serving        float64 `yaml:"serving" json:"serving"`
}

var (
	quickFoodsOnce sync.Once
	quickFoods     []QuickFood
	quickFoodsErr  error
)

func parseQuickFoods(raw []byte) ([]QuickFood, error) {
	var foods []QuickFood
	if err := yaml.Unmarshal(raw, &foods); err != nil {
		return nil, fmt.Errorf("parse quick foods: %w", err)
	}
	seen := make(map[string]bool, len(foods))
	for _, f := range foods {
		if f.Key == "" || f.ProteinPer100g <= 0 || f.Serving <= 0 {
			return nil, fmt.Errorf("quick food %q: key, protein and serving are required", f.Key)
		}
		if seen[f.Key] {
			return nil, fmt.Errorf("quick food %q listed twice", f.Key)
		}
		seen[f.Key] = true
	}
	return foods, nil
}

// QuickFoods returns the reference table in display order.
func QuickFoods() ([]QuickFood, error) {
	quickFoodsOnce.Do(func() {
		quickFoods, quickFoodsErr = parseQuickFoods(quickFoodsYAML)
	})
	if quickFoodsErr != nil {
		return nil, quickFoodsErr
	}
	out := make([]QuickFood, len(quickFoods))
	copy(out, quickFoods)
	return out, nil
}

// QuickFoodByKey looks a reference food up by its key.
func QuickFoodByKey(key string) (QuickFood, bool) {
	foods, err := QuickFoods()
	if err != nil {
		return QuickFood{}, false
	}
	for _, f := range foods {
		if f.Key == key {
			return f, true
		}
	}
	return QuickFood{}, false
}
