package usecase

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Dwonczykj/daily-j-backend/internal/domain"
)

var outputValidator = validator.New(validator.WithRequiredStructEnabled())

// ParseModelOutput decodes raw model text into the typed result for an intent.
// Missing or negative nutrient values are repaired to the sentinel; anything else
// that does not fit the requested shape yields a *domain.ModelOutputError.
func ParseModelOutput(intent domain.ProcessingIntent, raw string) (any, error) {
	payload := extractJSONObject(raw)
	if payload == "" {
		return nil, &domain.ModelOutputError{Intent: intent, Raw: raw, Err: errors.New("no JSON object found")}
	}

	var (
		result any
		err    error
	)
	switch {
	case intent.IsMeal():
		result, err = parseMealAnalysis([]byte(payload))
	case intent.IsNutritionLabel():
		result, err = parseNutritionLabel([]byte(payload))
	case intent.IsIngredientLabel():
		result, err = parseIngredientLabel([]byte(payload))
	case intent == domain.IntentSingleIngredientLookup:
		result, err = parseIngredientLookup([]byte(payload))
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedIntent, intent)
	}
	if err != nil {
		return nil, &domain.ModelOutputError{Intent: intent, Raw: raw, Err: err}
	}

	if err := outputValidator.Struct(result); err != nil {
		return nil, &domain.ModelOutputError{Intent: intent, Raw: raw, Err: err}
	}
	return result, nil
}

// extractJSONObject strips markdown fences and any prose around the outermost object
func extractJSONObject(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}

type mealWire struct {
	Title                  string          `json:"title"`
	Ingredients            []mealItemWire  `json:"ingredients"`
	NutritionalInformation json.RawMessage `json:"nutritional_information"`
}

type mealItemWire struct {
	Name     string     `json:"name"`
	Quantity flexNumber `json:"quantity"`
	Unit     string     `json:"unit"`
}

func parseMealAnalysis(payload []byte) (*domain.MealAnalysis, error) {
	var wire mealWire
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, err
	}
	if wire.Ingredients == nil {
		return nil, errors.New("missing ingredients")
	}

	record, err := parseNutrientRecord("nutritional_information", wire.NutritionalInformation)
	if err != nil {
		return nil, err
	}

	analysis := &domain.MealAnalysis{
		Title:                  strings.TrimSpace(wire.Title),
		Ingredients:            make([]domain.MealIngredient, 0, len(wire.Ingredients)),
		NutritionalInformation: record,
	}
	for _, item := range wire.Ingredients {
		analysis.Ingredients = append(analysis.Ingredients, domain.MealIngredient{
			Name:     strings.TrimSpace(item.Name),
			Quantity: float64(item.Quantity),
			Unit:     strings.TrimSpace(item.Unit),
		})
	}
	return analysis, nil
}

type nutritionLabelWire struct {
	ServingSize       json.RawMessage `json:"serving_size"`
	NutritionalValues json.RawMessage `json:"nutritional_values"`
}

func parseNutritionLabel(payload []byte) (*domain.NutritionLabel, error) {
	var wire nutritionLabelWire
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, err
	}

	servingSize, err := parseServingSize(wire.ServingSize)
	if err != nil {
		return nil, err
	}
	record, err := parseNutrientRecord("nutritional_values", wire.NutritionalValues)
	if err != nil {
		return nil, err
	}

	return &domain.NutritionLabel{ServingSize: servingSize, NutritionalValues: record}, nil
}

type ingredientLabelWire struct {
	Ingredients []struct {
		Name string      `json:"name"`
		QUID flexPercent `json:"quid"`
	} `json:"ingredients"`
}

func parseIngredientLabel(payload []byte) (*domain.IngredientLabel, error) {
	var wire ingredientLabelWire
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, err
	}
	if wire.Ingredients == nil {
		return nil, errors.New("missing ingredients")
	}

	label := &domain.IngredientLabel{Ingredients: make([]domain.LabelIngredient, 0, len(wire.Ingredients))}
	for _, item := range wire.Ingredients {
		label.Ingredients = append(label.Ingredients, domain.LabelIngredient{
			Name: strings.TrimSpace(item.Name),
			QUID: item.QUID.value,
		})
	}
	return label, nil
}

type ingredientLookupWire struct {
	NutritionalInformation json.RawMessage `json:"nutritional_information"`
}

func parseIngredientLookup(payload []byte) (*domain.IngredientLookup, error) {
	var wire ingredientLookupWire
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, err
	}

	record, err := parseNutrientRecord("nutritional_information", wire.NutritionalInformation)
	if err != nil {
		return nil, err
	}
	return &domain.IngredientLookup{NutritionalInformation: record}, nil
}

// parseNutrientRecord builds a complete record from a model-supplied object
func parseNutrientRecord(field string, raw json.RawMessage) (domain.NutrientRecord, error) {
	if isJSONNull(raw) {
		return nil, fmt.Errorf("missing %s", field)
	}

	var values map[string]json.RawMessage
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}

	folded := make(map[string]json.RawMessage, len(values))
	for key, value := range values {
		folded[strings.ToLower(key)] = value
	}

	record := domain.NewUnknownNutrientRecord()
	var repaired []string
	for _, key := range domain.NutrientSchema {
		value, ok := values[key]
		if !ok {
			value, ok = folded[strings.ToLower(key)]
		}
		if !ok || isJSONNull(value) {
			repaired = append(repaired, key)
			continue
		}

		var amount flexNumber
		if err := json.Unmarshal(value, &amount); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", field, key, err)
		}
		if amount < 0 {
			if float64(amount) != domain.UnknownNutrientValue {
				repaired = append(repaired, key)
			}
			continue
		}
		record[key] = float64(amount)
	}

	if len(repaired) > 0 {
		log.Printf("[OUTPUT] %s: %d nutrient values set to unknown: %s", field, len(repaired), strings.Join(repaired, ","))
	}
	return record, nil
}

func parseServingSize(raw json.RawMessage) (string, error) {
	if isJSONNull(raw) {
		return domain.DefaultServingSize, nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		text = strings.TrimSpace(text)
		if text == "" {
			return domain.DefaultServingSize, nil
		}
		return text, nil
	}

	var grams float64
	if err := json.Unmarshal(raw, &grams); err != nil {
		return "", fmt.Errorf("serving_size: expected string or number, got %s", string(raw))
	}
	if grams <= 0 {
		return domain.DefaultServingSize, nil
	}
	return strconv.FormatFloat(grams, 'f', -1, 64) + "g", nil
}

func isJSONNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// flexNumber accepts a JSON number or a numeric string
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	if isJSONNull(data) {
		*n = 0
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*n = flexNumber(f)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("expected a number, got %s", string(data))
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("expected a number, got %q", s)
	}
	*n = flexNumber(f)
	return nil
}

// flexPercent accepts a number, null, or a string such as "12%" or "12.5"
type flexPercent struct {
	value *float64
}

func (p *flexPercent) UnmarshalJSON(data []byte) error {
	if isJSONNull(data) {
		p.value = nil
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		p.value = &f
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("QUID: expected a percentage, got %s", string(data))
	}
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" {
		p.value = nil
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("QUID: expected a percentage, got %q", s)
	}
	p.value = &f
	return nil
}
