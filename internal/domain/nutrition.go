package domain

// UnknownNutrientValue marks a nutrient the model could not determine.
// It is distinct from zero.
const UnknownNutrientValue = -1.0

// NutrientSchema is the fixed, ordered set of nutrient keys every NutrientRecord carries.
// Values are grams unless stated otherwise; CaloriesKcal is kilocalories.
var NutrientSchema = []string{
	"CaloriesKcal",
	"Carbs",
	"Sugar",
	"DietaryFiber",
	"Sodium",
	"Fat",
	"FatSaturated",
	"FatMonounsaturated",
	"FatPolyunsaturated",
	"FatTrans",
	"Protein",
	"Cholesterol",
	"VitaminA",
	"VitaminC",
	"Calcium",
	"Iron",
	"Magnesium",
	"Zinc",
	"Potassium",
	"Salt",
	"Biotin",
	"Omega3",
}

// DefaultServingSize is used when a nutrition label does not state a serving size
const DefaultServingSize = "100g"

// NutrientRecord maps every NutrientSchema key to an amount
type NutrientRecord map[string]float64

// NewUnknownNutrientRecord returns a record with every schema key set to UnknownNutrientValue
func NewUnknownNutrientRecord() NutrientRecord {
	record := make(NutrientRecord, len(NutrientSchema))
	for _, key := range NutrientSchema {
		record[key] = UnknownNutrientValue
	}
	return record
}

// IsComplete reports whether the record has exactly the schema keys
func (r NutrientRecord) IsComplete() bool {
	if len(r) != len(NutrientSchema) {
		return false
	}
	for _, key := range NutrientSchema {
		if _, ok := r[key]; !ok {
			return false
		}
	}
	return true
}

// MealIngredient is an ingredient recognised in a meal
type MealIngredient struct {
	Name     string  `json:"name" validate:"required"`
	Quantity float64 `json:"quantity" validate:"gte=0"` // grams
	Unit     string  `json:"unit"`
}

// LabelIngredient is an ingredient read from a product's ingredients label
type LabelIngredient struct {
	Name string   `json:"name" validate:"required"`
	QUID *float64 `json:"quid" validate:"omitempty,gte=0,lte=100"` // percentage, nil when not declared
}

// MealAnalysis is the structured result of a meal-from-image or meal-from-voice request
type MealAnalysis struct {
	Title                  string           `json:"title" validate:"required"`
	Ingredients            []MealIngredient `json:"ingredients" validate:"dive"`
	NutritionalInformation NutrientRecord   `json:"nutritional_information"`
}

// NutritionLabel is the structured result of a nutrition-label request
type NutritionLabel struct {
	ServingSize       string         `json:"serving_size" validate:"required"`
	NutritionalValues NutrientRecord `json:"nutritional_values"`
}

// IngredientLabel is the structured result of an ingredient-label request
type IngredientLabel struct {
	Ingredients []LabelIngredient `json:"ingredients" validate:"dive"`
}

// IngredientLookup holds per-100g nutrition facts for a single named ingredient
type IngredientLookup struct {
	NutritionalInformation NutrientRecord `json:"nutritional_information"`
}

// LoggedIngredient is an ingredient the user has logged before, with how often
type LoggedIngredient struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}
