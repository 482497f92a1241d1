package vocab

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Word is one vocabulary entry. Synonyms and antonyms come from the AI
// word-info generator but can be edited by hand.
type Word struct {
	ID              string    `json:"id"`
	Word            string    `json:"word"`
	ChineseMeaning  string    `json:"chinese_meaning"`
	EnglishMeaning  string    `json:"english_meaning"`
	Phonetic        string    `json:"phonetic"`
	ExampleSentence string    `json:"example_sentence"`
	Synonyms        []string  `json:"synonyms"`
	Antonyms        []string  `json:"antonyms"`
	CreatedDate     time.Time `json:"created_date"`
	UpdatedDate     time.Time `json:"updated_date"`
}

// WordInput is the mutable subset of a Word accepted from clients.
type WordInput struct {
	Word            string   `json:"word"`
	ChineseMeaning  string   `json:"chinese_meaning"`
	EnglishMeaning  string   `json:"english_meaning"`
	Phonetic        string   `json:"phonetic"`
	ExampleSentence string   `json:"example_sentence"`
	Synonyms        []string `json:"synonyms"`
	Antonyms        []string `json:"antonyms"`
}

func (in *WordInput) normalize() {
	in.Word = strings.TrimSpace(in.Word)
	in.ChineseMeaning = strings.TrimSpace(in.ChineseMeaning)
	in.EnglishMeaning = strings.TrimSpace(in.EnglishMeaning)
	in.Phonetic = strings.TrimSpace(in.Phonetic)
	in.ExampleSentence = strings.TrimSpace(in.ExampleSentence)
	if in.Synonyms == nil {
		in.Synonyms = []string{}
	}
	if in.Antonyms == nil {
		in.Antonyms = []string{}
	}
}

func (in *WordInput) validate() string {
	switch {
	case in.Word == "":
		return "word is required"
	case in.ChineseMeaning == "":
		return "chinese_meaning is required"
	case utf8.RuneCountInString(in.Word) > 100:
		return "word is too long"
	case utf8.RuneCountInString(in.ChineseMeaning) > 200:
		return "chinese_meaning is too long"
	default:
		return ""
	}
}
