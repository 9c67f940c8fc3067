package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"vocab-progress-service/internal/domain"
)

type errorPayload struct {
	Kind    domain.Kind `json:"kind,omitempty"`
	Message string      `json:"message"`

	StatsWritten    *bool `json:"statsWritten,omitempty"`
	ProgressWritten *bool `json:"progressWritten,omitempty"`
}

func errorBody(err error) errorPayload {
	payload := errorPayload{Kind: domain.KindOf(err), Message: err.Error()}
	var partial *domain.PartialProgressUpdateError
	if errors.As(err, &partial) {
		payload.StatsWritten = &partial.StatsWritten
		payload.ProgressWritten = &partial.ProgressWritten
	}
	return payload
}

func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindReviewRequired, domain.KindSessionOver:
		return http.StatusConflict
	case domain.KindInsufficientWords, domain.KindEmptySession, domain.KindInvalidArgument:
		return http.StatusUnprocessableEntity
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindInvalidCredentials:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindStoreUnavailable, domain.KindPartialProgressUpdate:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("request failed: %v", err)
	}
	writeJSON(w, status, errorBody(err))
}
