package vocab

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
)

const maxJSONBodyBytes = 1 << 20

var indexPage = template.Must(template.New("index").Parse(`<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>Vocabulary Notebook</title></head>
<body>
<h1>Vocabulary Notebook</h1>
<p>{{.Total}} word(s) recorded. <a href="/logout">Logout</a></p>
<ul>
{{range .Words}}<li><a href="/word/{{.ID}}">{{.Word}}</a> — {{.ChineseMeaning}}</li>
{{end}}</ul>
</body>
</html>
`))

var detailPage = template.Must(template.New("detail").Parse(`<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Word}} - Vocabulary Notebook</title></head>
<body>
<h1>{{.Word}} {{if .Phonetic}}<small>{{.Phonetic}}</small>{{end}}</h1>
<p>{{.ChineseMeaning}}</p>
{{if .EnglishMeaning}}<p>{{.EnglishMeaning}}</p>{{end}}
{{if .ExampleSentence}}<blockquote>{{.ExampleSentence}}</blockquote>{{end}}
<p><a href="/">Back</a></p>
</body>
</html>
`))

type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// IndexPage is the browser landing page: the word list under an optional
// time filter.
func (h *Handler) IndexPage(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("time_filter")
	words := h.store.FilterByTime(filter)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = indexPage.Execute(w, map[string]any{
		"Words": words,
		"Total": h.store.Count(),
	})
}

func (h *Handler) WordPage(w http.ResponseWriter, r *http.Request) {
	word, err := h.store.Get(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = detailPage.Execute(w, word)
}

func (h *Handler) ListWords(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("time_filter")
	writeJSON(w, http.StatusOK, map[string]any{
		"words":         h.store.FilterByTime(filter),
		"total_words":   h.store.Count(),
		"filter_counts": h.store.FilterCounts(),
	})
}

func (h *Handler) GetWord(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, "invalid word id")
		return
	}

	word, err := h.store.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "word not found")
		return
	}

	writeJSON(w, http.StatusOK, word)
}

func (h *Handler) AddWord(w http.ResponseWriter, r *http.Request) {
	input, ok := parseInput(w, r)
	if !ok {
		return
	}

	word, err := h.store.Add(input)
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			writeError(w, http.StatusConflict, "word already exists")
			return
		}
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to add word")
		return
	}

	writeJSON(w, http.StatusCreated, word)
}

func (h *Handler) UpdateWord(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, "invalid word id")
		return
	}

	input, ok := parseInput(w, r)
	if !ok {
		return
	}

	word, err := h.store.Update(id, input)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "word not found")
			return
		}
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to update word")
		return
	}

	writeJSON(w, http.StatusOK, word)
}

func (h *Handler) DeleteWord(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, "invalid word id")
		return
	}

	if err := h.store.Delete(id); err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "word not found")
			return
		}
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "failed to delete word")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SearchWords(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	matches := h.store.Search(query)
	writeJSON(w, http.StatusOK, map[string]any{
		"query":   query,
		"words":   matches,
		"matches": len(matches),
	})
}

func parseInput(w http.ResponseWriter, r *http.Request) (WordInput, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var input WordInput
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return WordInput{}, false
	}

	input.normalize()
	if message := input.validate(); message != "" {
		writeError(w, http.StatusBadRequest, message)
		return WordInput{}, false
	}

	return input, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
