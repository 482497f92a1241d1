package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidWord = errors.New("invalid word")

// WordInfo is what the model is asked to produce for a single word.
type WordInfo struct {
	Word            string   `json:"word"`
	ChineseMeaning  string   `json:"chinese_meaning"`
	EnglishMeaning  string   `json:"english_meaning"`
	Phonetic        string   `json:"phonetic"`
	ExampleSentence string   `json:"example_sentence"`
	Synonyms        []string `json:"synonyms"`
	Antonyms        []string `json:"antonyms"`
	ConfidenceScore float64  `json:"confidence_score"`
	Provider        string   `json:"provider"`
}

// ValidateWord checks that the input looks like a single English word:
// letters plus hyphens and apostrophes.
func ValidateWord(word string) (string, error) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return "", fmt.Errorf("%w: word is empty", ErrInvalidWord)
	}
	if len(word) > 100 {
		return "", fmt.Errorf("%w: word is too long", ErrInvalidWord)
	}

	for _, r := range word {
		if (r < 'a' || r > 'z') && r != '-' && r != '\'' {
			return "", fmt.Errorf("%w: not an English word", ErrInvalidWord)
		}
	}

	return word, nil
}

func wordPrompt(word string) string {
	return fmt.Sprintf(`Provide the following information for the English word %q as JSON:

{
  "chinese_meaning": "concise Traditional Chinese translation",
  "english_meaning": "clear English definition",
  "phonetic": "IPA phonetic transcription with slashes",
  "example_sentence": "a natural sentence showing usage",
  "synonyms": ["2-3 synonyms"],
  "antonyms": ["2-3 antonyms"]
}

For words with multiple senses use the most common one. Respond with JSON only, no other text.`, word)
}

// parseWordInfo reads the model's reply, tolerating markdown code fences
// around the JSON body.
func parseWordInfo(content, word, provider string) (WordInfo, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var info WordInfo
	if err := json.Unmarshal([]byte(content), &info); err != nil {
		return WordInfo{}, fmt.Errorf("decode model reply: %w", err)
	}

	info.Word = word
	info.Provider = provider
	if info.Synonyms == nil {
		info.Synonyms = []string{}
	}
	if info.Antonyms == nil {
		info.Antonyms = []string{}
	}
	info.ConfidenceScore = confidenceScore(info, word)

	return info, nil
}

// confidenceScore rates field completeness, not linguistic accuracy.
func confidenceScore(info WordInfo, word string) float64 {
	score := 0.0
	if info.ChineseMeaning != "" {
		score += 0.3
	}
	if info.EnglishMeaning != "" {
		score += 0.2
	}
	if strings.HasPrefix(info.Phonetic, "/") && strings.HasSuffix(info.Phonetic, "/") {
		score += 0.15
	} else if info.Phonetic != "" {
		score += 0.05
	}
	if strings.Contains(strings.ToLower(info.ExampleSentence), word) {
		score += 0.2
	} else if info.ExampleSentence != "" {
		score += 0.1
	}
	if len(info.Synonyms) > 0 {
		score += 0.075
	}
	if len(info.Antonyms) > 0 {
		score += 0.075
	}

	return score
}
