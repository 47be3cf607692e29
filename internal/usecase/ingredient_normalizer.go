package usecase

import (
	"log"
	"regexp"
	"strings"
	"unicode/utf8"
)

// maxIngredientNameLength caps the name embedded into the lookup instruction
const maxIngredientNameLength = 100

// IngredientNormalizer cleans user-supplied ingredient names before lookup
type IngredientNormalizer struct {
	enableDebugLogging bool
}

// Compiled regex patterns for ingredient name cleanup
var (
	// Matches size/quantity patterns like "100g", "12 oz", "1.5 liter", "2 lb"
	ingredientQuantityPattern = regexp.MustCompile(`(?i)\b\d+\.?\d*\s*(fl\s*oz|oz|ounces?|lbs?|pounds?|ml|liters?|litres?|kg|grams?|g)\b`)

	// Matches pack/count patterns like "6 pack", "pack of 6", "12 ct"
	ingredientPackPattern = regexp.MustCompile(`(?i)\b\d+[-\s]*(pack|pk|count|ct)\b|\bpack\s*of\s*\d+\b`)

	// Matches lone punctuation left behind by the removals above
	orphanPunctuationPattern = regexp.MustCompile(`(^|\s)[,\-;:]+(\s|$)`)

	// Characters that are never part of an ingredient name
	ingredientControlPattern = regexp.MustCompile(`[\x00-\x1f"\x60{}<>\\]`)

	// Multiple spaces cleanup
	ingredientSpacePattern = regexp.MustCompile(`\s+`)

	// Cache key cleanup
	cacheKeyStripPattern = regexp.MustCompile(`[^\p{L}\p{M}\p{N}\s]`)
)

// ingredientNoiseWords are packaging terms that carry no nutritional meaning
var ingredientNoiseWords = map[string]bool{
	"package": true,
	"packet":  true,
	"box":     true,
	"bag":     true,
	"bottle":  true,
	"jar":     true,
	"tub":     true,
	"carton":  true,
	"pouch":   true,
}

// NewIngredientNormalizer creates a new ingredient normalizer
func NewIngredientNormalizer(enableDebugLogging bool) *IngredientNormalizer {
	return &IngredientNormalizer{
		enableDebugLogging: enableDebugLogging,
	}
}

// Normalize strips quantities, pack counts and packaging words from an ingredient name.
// Case is preserved. If cleaning would leave nothing, the trimmed input is returned.
func (n *IngredientNormalizer) Normalize(name string) string {
	original := strings.TrimSpace(name)
	if original == "" {
		return ""
	}

	cleaned := ingredientControlPattern.ReplaceAllString(original, " ")
	cleaned = ingredientQuantityPattern.ReplaceAllString(cleaned, " ")
	cleaned = ingredientPackPattern.ReplaceAllString(cleaned, " ")
	cleaned = removeIngredientNoise(cleaned)
	cleaned = orphanPunctuationPattern.ReplaceAllString(cleaned, " ")
	cleaned = ingredientSpacePattern.ReplaceAllString(cleaned, " ")
	cleaned = strings.Trim(cleaned, " ,-;:")
	cleaned = strings.TrimPrefix(cleaned, "of ")

	if cleaned == "" {
		cleaned = ingredientSpacePattern.ReplaceAllString(ingredientControlPattern.ReplaceAllString(original, " "), " ")
		cleaned = strings.TrimSpace(cleaned)
	}

	if len(cleaned) > maxIngredientNameLength {
		cut := maxIngredientNameLength
		for cut > 0 && !utf8.RuneStart(cleaned[cut]) {
			cut--
		}
		cleaned = cleaned[:cut]
		if lastSpace := strings.LastIndex(cleaned, " "); lastSpace > maxIngredientNameLength/2 {
			cleaned = cleaned[:lastSpace]
		}
	}

	if n.enableDebugLogging {
		log.Printf("[NORMALIZE] Input: %q -> Output: %q", original, cleaned)
	}
	return cleaned
}

func removeIngredientNoise(s string) string {
	words := strings.Fields(s)
	kept := make([]string, 0, len(words))
	for _, word := range words {
		if ingredientNoiseWords[strings.ToLower(strings.Trim(word, ",.!?;:-'"))] {
			continue
		}
		kept = append(kept, word)
	}
	return strings.Join(kept, " ")
}

// ingredientCacheKey creates a normalized cache key.
// Format: "ingredient:{lowercase name}", letters and digits of any script kept
func ingredientCacheKey(name string) string {
	key := strings.ToLower(name)
	key = cacheKeyStripPattern.ReplaceAllString(key, "")
	key = ingredientSpacePattern.ReplaceAllString(key, " ")
	return "ingredient:" + strings.TrimSpace(key)
}
