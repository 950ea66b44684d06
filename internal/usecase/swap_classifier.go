package usecase

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"crewsync-service/internal/domain/entity"
)

// KeywordBucket maps free-text keywords to a swap category
type KeywordBucket struct {
	Category entity.SwapCategory `yaml:"category"`
	Keywords []string            `yaml:"keywords"`
}

// SwapKeywords is the ordered bucket list plus the aircraft-change markers used
// to pick the modification log entry that explains a swap
type SwapKeywords struct {
	Buckets        []KeywordBucket `yaml:"buckets"`
	AircraftChange []string        `yaml:"aircraftChange"`
}

// DefaultSwapKeywords returns the built-in buckets, evaluated in order
func DefaultSwapKeywords() SwapKeywords {
	return SwapKeywords{
		Buckets: []KeywordBucket{
			{Category: entity.CategoryMaintenance, Keywords: []string{
				"MEL", "AOG", "MAINT", "TECH", "DEFECT", "ENGINE", "REPAIR",
				"INSPECTION", "HYDRAULIC", "AVIONICS", "CABIN", "SEAL",
				"UNSERVICEABLE", "U/S", "GROUNDED", "MECHANICAL",
			}},
			{Category: entity.CategoryWeather, Keywords: []string{
				"WX", "WEATHER", "WIND", "FOG", "STORM", "TYPHOON",
				"VISIBILITY", "TURBULENCE", "LIGHTNING", "SNOW", "ICE",
			}},
			{Category: entity.CategoryCrew, Keywords: []string{
				"CREW", "SICK", "FTL", "PILOT", "FA", "DUTY", "REST",
				"QUALIFICATION", "TRAINING", "ABSENCE",
			}},
			{Category: entity.CategoryOperational, Keywords: []string{
				"DELAY", "SCHEDULE", "ROUTE", "OPS", "ROTATION", "COMMERCIAL",
				"PAX", "LOAD", "CAPACITY", "CHARTER", "SLOT",
			}},
		},
		AircraftChange: []string{
			"AIRCRAFT", "REG", "REGISTRATION", "SWAP", "EQUIPMENT", "A/C", "AC TYPE",
			"TAIL", "CHANGE", "REPLACE",
		},
	}
}

// LoadSwapKeywords reads a YAML override. Sections left out keep their defaults.
func LoadSwapKeywords(path string) (SwapKeywords, error) {
	kw := DefaultSwapKeywords()
	if path == "" {
		return kw, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return kw, fmt.Errorf("read swap keywords: %w", err)
	}
	var override SwapKeywords
	if err := yaml.Unmarshal(data, &override); err != nil {
		return kw, fmt.Errorf("parse swap keywords %s: %w", path, err)
	}
	if len(override.Buckets) > 0 {
		for _, b := range override.Buckets {
			switch b.Category {
			case entity.CategoryMaintenance, entity.CategoryWeather, entity.CategoryCrew, entity.CategoryOperational:
			default:
				return kw, fmt.Errorf("swap keywords %s: unknown category %q", path, b.Category)
			}
		}
		kw.Buckets = override.Buckets
	}
	if len(override.AircraftChange) > 0 {
		kw.AircraftChange = override.AircraftChange
	}
	return kw, nil
}

// SwapClassifier buckets modification log text into a coarse reason category
type SwapClassifier struct {
	keywords SwapKeywords
}

// NewSwapClassifier creates a classifier
func NewSwapClassifier(keywords SwapKeywords) *SwapClassifier {
	return &SwapClassifier{keywords: keywords}
}

// Classify returns the first bucket with a matching keyword, or UNKNOWN.
// Keywords of up to three characters must match a whole word; longer ones
// also match as a word prefix ("MAINT" matches "MAINTENANCE").
func (c *SwapClassifier) Classify(text string) (entity.SwapCategory, string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return entity.CategoryUnknown, "No reason provided"
	}
	words := tokenize(text)
	for _, b := range c.keywords.Buckets {
		for _, kw := range b.Keywords {
			if matchKeyword(words, kw) {
				return b.Category, reasonDetail(text)
			}
		}
	}
	return entity.CategoryUnknown, reasonDetail(text)
}

// IsAircraftChange reports whether a log entry is about the aircraft assignment
func (c *SwapClassifier) IsAircraftChange(text string) bool {
	words := tokenize(text)
	for _, kw := range c.keywords.AircraftChange {
		if matchKeyword(words, kw) {
			return true
		}
	}
	return false
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToUpper(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '/'
	})
}

func matchKeyword(words []string, keyword string) bool {
	kw := strings.ToUpper(strings.TrimSpace(keyword))
	if kw == "" {
		return false
	}
	if strings.Contains(kw, " ") {
		return strings.Contains(strings.Join(words, " "), kw)
	}
	for _, w := range words {
		if w == kw || (len(kw) > 3 && strings.HasPrefix(w, kw)) {
			return true
		}
	}
	return false
}

func reasonDetail(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if r := []rune(text); len(r) > 100 {
		text = string(r[:100]) + "..."
	}
	return text
}
