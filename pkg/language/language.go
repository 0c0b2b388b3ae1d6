// Package language detects the natural language of extracted conversation text.
package language

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

// minRunes is the least text worth running detection on.
const minRunes = 20

// Languages are the candidates the detector chooses between.
var Languages = []lingua.Language{
	lingua.English,
	lingua.Chinese,
	lingua.Spanish,
	lingua.French,
	lingua.German,
	lingua.Portuguese,
	lingua.Japanese,
	lingua.Korean,
	lingua.Russian,
	lingua.Italian,
}

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

func getDetector() lingua.LanguageDetector {
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(Languages...).
			WithLowAccuracyMode().
			Build()
	})
	return detector
}

// Detect returns the lower-case ISO 639-1 code of the language text is
// written in, or "" when the text is too short or ambiguous.
func Detect(text string) string {
	text = strings.TrimSpace(text)
	if len([]rune(text)) < minRunes {
		return ""
	}
	lang, ok := getDetector().DetectLanguageOf(text)
	if !ok {
		return ""
	}
	return strings.ToLower(lang.IsoCode639_1().String())
}
