package usecase

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Dwonczykj/daily-j-backend/internal/domain"
)

// SystemRole is the system message sent with every text completion
const SystemRole = "You are a nutrition expert."

// InstructionContext carries the per-request inputs an instruction may embed
type InstructionContext struct {
	TranscribedText   string
	IngredientName    string
	LoggedIngredients []domain.LoggedIngredient
}

const jsonOnlyFooter = "Respond with the JSON object only, without markdown fences or commentary."

// BuildInstruction returns the exact instruction text sent to the model for an intent.
// The output is a pure function of its inputs.
func BuildInstruction(intent domain.ProcessingIntent, ictx InstructionContext) (string, error) {
	if intent.IsVoice() && strings.TrimSpace(ictx.TranscribedText) == "" {
		return "", fmt.Errorf("%w: %s needs a transcription", domain.ErrIncompleteInstructionContext, intent)
	}

	var b strings.Builder

	switch intent {
	case domain.IntentMealFromImage:
		b.WriteString("Please analyze the image of a meal and return a JSON object with the following keys:\n")
		writeMealKeys(&b, "visible in the meal")

	case domain.IntentMealFromVoice:
		writeTranscription(&b, "describing their meal", ictx.TranscribedText)
		writeLoggedIngredients(&b, ictx.LoggedIngredients)
		b.WriteString("Using the entire context of the voice note, please provide the most likely amounts for each ingredient mentioned in the voice note. ")
		b.WriteString("If serving sizes are explicitly mentioned, use them. If not, use expected serving sizes based on the context.\n\n")
		b.WriteString("Return the response as a JSON object with the following keys:\n")
		writeMealKeys(&b, "mentioned in the voice note")

	case domain.IntentIngredientLabelFromVoice:
		writeTranscription(&b, "describing the ingredients on the package of a product", ictx.TranscribedText)
		b.WriteString("Using the entire context of the voice note, list all the ingredients mentioned.\n\n")
		b.WriteString("Return the response as a JSON object with the following keys:\n")
		writeIngredientLabelKeys(&b, "mentioned in the voice note")

	case domain.IntentIngredientLabelFromImage:
		b.WriteString("The following is an image of a product's ingredients label listing the ingredients in the product. ")
		b.WriteString("Please analyze the image and extract all the ingredients recognised from the image.\n\n")
		b.WriteString("Return the response as a JSON object with the following keys:\n")
		writeIngredientLabelKeys(&b, "printed on the label")

	case domain.IntentNutritionLabelFromVoice:
		writeTranscription(&b, "describing the nutritional values of a product", ictx.TranscribedText)
		writeNutritionLabelKeys(&b)

	case domain.IntentNutritionLabelFromImage:
		b.WriteString("The following is an image of a product's nutritional information label describing the nutritional values of the product. ")
		b.WriteString("Please analyze the image and extract all the nutritional values recognised from the image.\n\n")
		writeNutritionLabelKeys(&b)

	case domain.IntentSingleIngredientLookup:
		name := strings.TrimSpace(ictx.IngredientName)
		if name == "" {
			return "", fmt.Errorf("%w: %s needs an ingredient name", domain.ErrIncompleteInstructionContext, intent)
		}
		fmt.Fprintf(&b, "The user has provided the name of an ingredient: %q\n\n", name)
		fmt.Fprintf(&b, "Please provide the nutritional values for the ingredient %q in a JSON object with the following keys:\n", name)
		b.WriteString("1. nutritional_information - An object with keys as each of the following common nutritional values, ")
		b.WriteString("with each being the float value per 100g of the ingredient:\n")
		writeSchemaKeys(&b)
		b.WriteString("and values as floats representing the amount of each nutrient in grams per 100g, with -1.0 if unknown.\n")

	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedIntent, intent)
	}

	b.WriteString(jsonOnlyFooter)
	return b.String(), nil
}

func writeTranscription(b *strings.Builder, subject, text string) {
	fmt.Fprintf(b, "The following is a transcription of a user's voice note %s:\n", subject)
	b.WriteString(strings.TrimSpace(text))
	b.WriteString("\n\n")
}

func writeMealKeys(b *strings.Builder, where string) {
	b.WriteString("1. title - A string that provides a title for the meal.\n")
	b.WriteString("2. ingredients - A list of objects representing the ingredients, where each object contains the keys:\n")
	fmt.Fprintf(b, "    \"name\": the name of an ingredient %s,\n", where)
	b.WriteString("    \"quantity\": the quantity of the ingredient in grams,\n")
	b.WriteString("    \"unit\": the unit of measurement for the quantity (e.g., grams, milliliters, etc.)\n")
	b.WriteString("3. nutritional_information - An object with keys as each of the following common nutritional values:\n")
	writeSchemaKeys(b)
	b.WriteString("and values as floats representing the amount of each nutrient in grams with -1.0 if unknown.\n")
}

func writeIngredientLabelKeys(b *strings.Builder, where string) {
	b.WriteString("1. ingredients - A list of objects that all have a name and a QUID key, ")
	fmt.Fprintf(b, "where each name key is the name of an ingredient %s ", where)
	b.WriteString("and each QUID key is the percentage of that ingredient as a float if it is stated, or null if it is not.\n")
	b.WriteString("Only report ingredients. Do not report any of the following nutritional values as ingredients:\n")
	writeSchemaKeys(b)
}

func writeNutritionLabelKeys(b *strings.Builder) {
	b.WriteString("Identify the serving size, whether the values extracted are per 100g (serving_size=100g in the result) ")
	b.WriteString("or per serving (in which case how big is a serving in grams? set the serving_size key to this value in grams).\n")
	b.WriteString("Extract all nutritional values by returning a JSON object with 2 keys:\n")
	fmt.Fprintf(b, "1. serving_size - as described before, with a default of %q.\n", domain.DefaultServingSize)
	b.WriteString("2. nutritional_values - An object containing keys for each of the following nutritional values:\n")
	writeSchemaKeys(b)
	b.WriteString("with values being floats for each key, representing the amount of each nutrient in grams.\n")
	b.WriteString("If a value is not mentioned, return -1 for that value.\n")
}

func writeSchemaKeys(b *strings.Builder) {
	for _, key := range domain.NutrientSchema {
		b.WriteString("- ")
		b.WriteString(key)
		b.WriteString("\n")
	}
}

// writeLoggedIngredients embeds the user's ingredient history sorted by name
func writeLoggedIngredients(b *strings.Builder, logged []domain.LoggedIngredient) {
	if len(logged) == 0 {
		return
	}

	sorted := make([]domain.LoggedIngredient, len(logged))
	copy(sorted, logged)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Name == sorted[j].Name {
			return sorted[i].Count < sorted[j].Count
		}
		return sorted[i].Name < sorted[j].Name
	})

	b.WriteString("The user has previously logged the following ingredients and the number of times each has been logged:\n")
	for _, item := range sorted {
		fmt.Fprintf(b, "- %s: %d\n", item.Name, item.Count)
	}
	b.WriteString("Prefer these ingredient names when they match what the user describes.\n\n")
}
