// Package langdetect detects the language of recognized utterances.
package langdetect

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Languages the detector distinguishes. Kept small: building a lingua
// detector over every language is slow and the assistant only needs to
// annotate utterances, not translate them.
var candidates = []lingua.Language{
	lingua.English,
	lingua.Spanish,
	lingua.French,
	lingua.German,
	lingua.Portuguese,
	lingua.Italian,
	lingua.Dutch,
	lingua.Chinese,
	lingua.Japanese,
	lingua.Korean,
	lingua.Russian,
	lingua.Arabic,
	lingua.Hindi,
}

var (
	once     sync.Once
	detector lingua.LanguageDetector
)

func get() lingua.LanguageDetector {
	once.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(candidates...).
			WithPreloadedLanguageModels().
			Build()
	})
	return detector
}

// Detect returns the ISO 639-1 code and English display name of the
// most likely language of text. Empty or undetectable text reports
// ("", "Unknown").
func Detect(text string) (code, name string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", "Unknown"
	}

	lang, ok := get().DetectLanguageOf(text)
	if !ok {
		return "", "Unknown"
	}

	code = strings.ToLower(lang.IsoCode639_1().String())
	tag, err := language.Parse(code)
	if err != nil {
		return code, lang.String()
	}
	return code, display.English.Tags().Name(tag)
}
