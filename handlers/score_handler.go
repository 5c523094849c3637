package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/parsix/parsix-backend/golf"
	"github.com/parsix/parsix-backend/middleware"
	"github.com/parsix/parsix-backend/models"
	"github.com/parsix/parsix-backend/services"
)

// defaultWindowDays bounds score listings and the leaderboard when the
// client gives no explicit window.
const defaultWindowDays = 30

type ScoreHandler struct {
	scoreService services.ScoreService
}

func NewScoreHandler(scoreService services.ScoreService) *ScoreHandler {
	return &ScoreHandler{scoreService: scoreService}
}

func (h *ScoreHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input services.SubmitScoreInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	score, err := h.scoreService.Submit(r.Context(), userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"score": score}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ScoreHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	window, err := windowFromQuery(r, defaultWindowDays)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	scores, err := h.scoreService.GetUserScores(r.Context(), userID, window)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"scores": scores}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ScoreHandler) ListForPlayer(w http.ResponseWriter, r *http.Request) {
	viewerID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	playerID := chi.URLParam(r, "playerID")

	window, err := windowFromQuery(r, defaultWindowDays)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	scores, err := h.scoreService.GetPlayerScores(r.Context(), viewerID, playerID, window)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"scores": scores}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ScoreHandler) PlayerStats(w http.ResponseWriter, r *http.Request) {
	viewerID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	playerID := chi.URLParam(r, "playerID")

	window, err := windowFromQuery(r, defaultWindowDays)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	stats, err := h.scoreService.PlayerStats(r.Context(), viewerID, playerID, window)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"stats": stats}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ScoreHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	window, err := windowFromQuery(r, defaultWindowDays)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			badRequestResponse(w, r, errors.New("limit must be a non-negative integer"))
			return
		}
	}

	entries, err := h.scoreService.Leaderboard(r.Context(), window, limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"leaderboard": entries}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// windowFromQuery reads start_date/end_date query params, defaulting to the
// trailing defaultDays ending today.
func windowFromQuery(r *http.Request, defaultDays int) (golf.DateRange, error) {
	today := models.Today()
	window := golf.DateRange{Start: today.AddDays(-(defaultDays - 1)), End: today}

	if raw := r.URL.Query().Get("start_date"); raw != "" {
		start, err := models.ParseDate(raw)
		if err != nil {
			return golf.DateRange{}, errors.New("start_date must be a date in YYYY-MM-DD format")
		}
		window.Start = start
	}
	if raw := r.URL.Query().Get("end_date"); raw != "" {
		end, err := models.ParseDate(raw)
		if err != nil {
			return golf.DateRange{}, errors.New("end_date must be a date in YYYY-MM-DD format")
		}
		window.End = end
	}
	return window, nil
}
