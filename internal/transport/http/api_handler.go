package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"vocab-progress-service/internal/app"
	"vocab-progress-service/internal/domain"
)

// ActorHeader names the header carrying the acting user's id for admin calls.
const ActorHeader = "X-User-ID"

// APIHandler serves the JSON endpoints used by the app screens.
type APIHandler struct {
	progress *app.ProgressService
	accounts *app.AccountService
	words    *app.VocabularyService
}

func NewAPIHandler(progress *app.ProgressService, accounts *app.AccountService, words *app.VocabularyService) *APIHandler {
	return &APIHandler{progress: progress, accounts: accounts, words: words}
}

// Register mounts the API routes on mux.
func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/rules", h.rules)
	mux.HandleFunc("POST /api/signup", h.signUp)
	mux.HandleFunc("POST /api/login", h.login)
	mux.HandleFunc("GET /api/users/{id}/progress", h.userProgress)
	mux.HandleFunc("POST /api/users/{id}/ranks/{rank}/review", h.markReviewed)
	mux.HandleFunc("GET /api/leaderboard", h.leaderboard)
	mux.HandleFunc("GET /api/words", h.listWords)
	mux.HandleFunc("GET /api/words/five-letter", h.fiveLetterWords)
	mux.HandleFunc("POST /api/words", h.createWord)
	mux.HandleFunc("DELETE /api/words/{rank}/{id}", h.deleteWord)
}

func (h *APIHandler) rules(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.RankRules())
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *APIHandler) signUp(w http.ResponseWriter, r *http.Request) {
	var req app.SignUpRequest
	if !decode(w, r, &req) {
		return
	}
	user, err := h.accounts.SignUp(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *APIHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}
	user, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *APIHandler) userProgress(w http.ResponseWriter, r *http.Request) {
	rank := 0
	if raw := r.URL.Query().Get("rank"); raw != "" {
		var ok bool
		if rank, ok = parseRank(w, raw); !ok {
			return
		}
	}
	snap, err := h.progress.Progress(r.Context(), r.PathValue("id"), rank)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *APIHandler) markReviewed(w http.ResponseWriter, r *http.Request) {
	rank, ok := parseRank(w, r.PathValue("rank"))
	if !ok {
		return
	}
	if err := h.progress.MarkReviewed(r.Context(), r.PathValue("id"), rank); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) leaderboard(w http.ResponseWriter, r *http.Request) {
	lb, err := h.progress.Leaderboard(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

func (h *APIHandler) listWords(w http.ResponseWriter, r *http.Request) {
	var (
		words []domain.Word
		err   error
	)
	if raw := r.URL.Query().Get("rank"); raw != "" {
		rank, ok := parseRank(w, raw)
		if !ok {
			return
		}
		words, err = h.words.WordsByRank(r.Context(), rank)
	} else {
		words, err = h.words.AllWords(r.Context())
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(words))
}

func (h *APIHandler) fiveLetterWords(w http.ResponseWriter, r *http.Request) {
	words, err := h.words.FiveLetterWords(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(words))
}

func (h *APIHandler) createWord(w http.ResponseWriter, r *http.Request) {
	var word domain.Word
	if !decode(w, r, &word) {
		return
	}
	created, err := h.words.CreateWord(r.Context(), r.Header.Get(ActorHeader), word)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *APIHandler) deleteWord(w http.ResponseWriter, r *http.Request) {
	rank, ok := parseRank(w, r.PathValue("rank"))
	if !ok {
		return
	}
	if err := h.words.DeleteWord(r.Context(), r.Header.Get(ActorHeader), r.PathValue("id"), rank); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, domain.Wrap(domain.KindInvalidArgument, "invalid request body", err))
		return false
	}
	return true
}

func parseRank(w http.ResponseWriter, raw string) (int, bool) {
	rank, err := strconv.Atoi(raw)
	if err != nil || !domain.ValidRank(rank) {
		writeError(w, domain.New(domain.KindInvalidArgument, "rank must be between 1 and 5"))
		return 0, false
	}
	return rank, true
}

func nonNil(words []domain.Word) []domain.Word {
	if words == nil {
		return []domain.Word{}
	}
	return words
}
