// Package vocab stores the vocabulary list in a single JSON file. There is
// no indexing and no partial update: lookups are linear scans and every
// mutation rewrites the whole file. That matches the single-user scale this
// app is built for.
package vocab

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("word not found")
	ErrDuplicate = errors.New("word already exists")
)

type metadata struct {
	Version     string    `json:"version"`
	TotalWords  int       `json:"total_words"`
	LastUpdated time.Time `json:"last_updated"`
}

type document struct {
	Vocabulary []Word   `json:"vocabulary"`
	Metadata   metadata `json:"metadata"`
}

// Store owns the vocabulary file. A missing or malformed file loads as an
// empty notebook.
type Store struct {
	path string
	doc  document
	now  func() time.Time
}

func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	s := &Store{path: path, now: time.Now}
	s.doc = loadDocument(path)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := s.save(); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func loadDocument(path string) document {
	empty := document{Vocabulary: []Word{}, Metadata: metadata{Version: "1.0"}}

	raw, err := os.ReadFile(path)
	if err != nil {
		return empty
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return empty
	}
	if doc.Vocabulary == nil {
		doc.Vocabulary = []Word{}
	}

	return doc
}

func (s *Store) save() error {
	s.doc.Metadata.TotalWords = len(s.doc.Vocabulary)
	s.doc.Metadata.LastUpdated = s.now().UTC()
	if s.doc.Metadata.Version == "" {
		s.doc.Metadata.Version = "1.0"
	}

	raw, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode vocabulary: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("write vocabulary: %w", err)
	}

	return nil
}

// List returns all words, newest first.
func (s *Store) List() []Word {
	words := make([]Word, len(s.doc.Vocabulary))
	copy(words, s.doc.Vocabulary)

	sort.Slice(words, func(i, j int) bool {
		return words[i].CreatedDate.After(words[j].CreatedDate)
	})

	return words
}

func (s *Store) Get(id string) (Word, error) {
	for _, w := range s.doc.Vocabulary {
		if w.ID == id {
			return w, nil
		}
	}

	return Word{}, ErrNotFound
}

// Exists reports whether the word text is already recorded, ignoring case.
func (s *Store) Exists(word string) bool {
	word = strings.ToLower(strings.TrimSpace(word))
	for _, w := range s.doc.Vocabulary {
		if strings.ToLower(w.Word) == word {
			return true
		}
	}

	return false
}

func (s *Store) Add(input WordInput) (Word, error) {
	input.normalize()
	if s.Exists(input.Word) {
		return Word{}, ErrDuplicate
	}

	id, err := uuid.NewV7()
	if err != nil {
		return Word{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	now := s.now().UTC()
	w := Word{
		ID:              id.String(),
		Word:            input.Word,
		ChineseMeaning:  input.ChineseMeaning,
		EnglishMeaning:  input.EnglishMeaning,
		Phonetic:        input.Phonetic,
		ExampleSentence: input.ExampleSentence,
		Synonyms:        input.Synonyms,
		Antonyms:        input.Antonyms,
		CreatedDate:     now,
		UpdatedDate:     now,
	}

	s.doc.Vocabulary = append(s.doc.Vocabulary, w)
	if err := s.save(); err != nil {
		return Word{}, err
	}

	return w, nil
}

func (s *Store) Update(id string, input WordInput) (Word, error) {
	input.normalize()
	for i := range s.doc.Vocabulary {
		if s.doc.Vocabulary[i].ID != id {
			continue
		}

		w := &s.doc.Vocabulary[i]
		w.Word = input.Word
		w.ChineseMeaning = input.ChineseMeaning
		w.EnglishMeaning = input.EnglishMeaning
		w.Phonetic = input.Phonetic
		w.ExampleSentence = input.ExampleSentence
		w.Synonyms = input.Synonyms
		w.Antonyms = input.Antonyms
		w.UpdatedDate = s.now().UTC()

		if err := s.save(); err != nil {
			return Word{}, err
		}
		return *w, nil
	}

	return Word{}, ErrNotFound
}

func (s *Store) Delete(id string) error {
	for i := range s.doc.Vocabulary {
		if s.doc.Vocabulary[i].ID != id {
			continue
		}

		s.doc.Vocabulary = append(s.doc.Vocabulary[:i], s.doc.Vocabulary[i+1:]...)
		return s.save()
	}

	return ErrNotFound
}

// Search matches the query as a case-insensitive substring of the word
// text, either meaning, or the example sentence.
func (s *Store) Search(query string) []Word {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return []Word{}
	}

	matches := make([]Word, 0)
	for _, w := range s.List() {
		haystacks := []string{w.Word, w.ChineseMeaning, w.EnglishMeaning, w.ExampleSentence}
		for _, haystack := range haystacks {
			if strings.Contains(strings.ToLower(haystack), query) {
				matches = append(matches, w)
				break
			}
		}
	}

	return matches
}

// Time filters for the review views.
const (
	FilterAll   = "all"
	FilterToday = "today"
	FilterWeek  = "week"
	FilterMonth = "month"
)

func (s *Store) FilterByTime(filter string) []Word {
	if filter == "" || filter == FilterAll {
		return s.List()
	}

	now := s.now()
	var cutoff time.Time
	switch filter {
	case FilterToday:
		cutoff = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case FilterWeek:
		cutoff = now.AddDate(0, 0, -7)
	case FilterMonth:
		cutoff = now.AddDate(0, -1, 0)
	default:
		return s.List()
	}

	matches := make([]Word, 0)
	for _, w := range s.List() {
		if !w.CreatedDate.Before(cutoff) {
			matches = append(matches, w)
		}
	}

	return matches
}

func (s *Store) Count() int {
	return len(s.doc.Vocabulary)
}

// FilterCounts returns how many words fall under each time filter.
func (s *Store) FilterCounts() map[string]int {
	return map[string]int{
		FilterAll:   len(s.FilterByTime(FilterAll)),
		FilterToday: len(s.FilterByTime(FilterToday)),
		FilterWeek:  len(s.FilterByTime(FilterWeek)),
		FilterMonth: len(s.FilterByTime(FilterMonth)),
	}
}
