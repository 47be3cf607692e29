package domain

// ProcessingIntent is the kind of media-to-nutrition transformation a request wants.
// It lives for a single request only.
type ProcessingIntent string

const (
	IntentMealFromImage            ProcessingIntent = "meal-from-image"
	IntentMealFromVoice            ProcessingIntent = "meal-from-voice"
	IntentIngredientLabelFromVoice ProcessingIntent = "ingredient-label-from-voice"
	IntentIngredientLabelFromImage ProcessingIntent = "ingredient-label-from-image"
	IntentNutritionLabelFromVoice  ProcessingIntent = "nutrition-label-from-voice"
	IntentNutritionLabelFromImage  ProcessingIntent = "nutrition-label-from-image"
	IntentSingleIngredientLookup   ProcessingIntent = "single-ingredient-lookup"
)

// ProcessingIntents lists the closed set of intents
var ProcessingIntents = []ProcessingIntent{
	IntentMealFromImage,
	IntentMealFromVoice,
	IntentIngredientLabelFromVoice,
	IntentIngredientLabelFromImage,
	IntentNutritionLabelFromVoice,
	IntentNutritionLabelFromImage,
	IntentSingleIngredientLookup,
}

// Valid reports whether the intent belongs to the closed set
func (i ProcessingIntent) Valid() bool {
	for _, known := range ProcessingIntents {
		if i == known {
			return true
		}
	}
	return false
}

// IsMeal reports whether the intent produces a MealAnalysis
func (i ProcessingIntent) IsMeal() bool {
	return i == IntentMealFromImage || i == IntentMealFromVoice
}

// IsIngredientLabel reports whether the intent produces an IngredientLabel
func (i ProcessingIntent) IsIngredientLabel() bool {
	return i == IntentIngredientLabelFromImage || i == IntentIngredientLabelFromVoice
}

// IsNutritionLabel reports whether the intent produces a NutritionLabel
func (i ProcessingIntent) IsNutritionLabel() bool {
	return i == IntentNutritionLabelFromImage || i == IntentNutritionLabelFromVoice
}

// IsVoice reports whether the intent works on transcribed speech
func (i ProcessingIntent) IsVoice() bool {
	return i == IntentMealFromVoice || i == IntentIngredientLabelFromVoice || i == IntentNutritionLabelFromVoice
}

// Endpoint identifies the inbound surface a request arrived on
type Endpoint string

const (
	EndpointImageAnalysis    Endpoint = "image-analysis"
	EndpointVoiceNote        Endpoint = "voice-note"
	EndpointLabelOCR         Endpoint = "label-ocr"
	EndpointIngredientLookup Endpoint = "ingredient-lookup"
)

// Process type tokens accepted by the multi-purpose endpoints
const (
	ProcessTypeIngredients       = "ingredients"
	ProcessTypeNutritionalValues = "nutritional_values"
	ProcessTypeFoodLog           = "food_log"
)
