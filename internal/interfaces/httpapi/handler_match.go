package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/PrOLmOg/MatchMapProject/internal/domain/match"
	"github.com/PrOLmOg/MatchMapProject/internal/usecase"
)

type matchDTO struct {
	ID              string      `json:"id"`
	TeamHome        string      `json:"team_home"`
	TeamAway        string      `json:"team_away"`
	CompetitionName string      `json:"competition_name"`
	MatchDate       string      `json:"match_date"`
	StadiumName     string      `json:"stadium_name"`
	Location        locationDTO `json:"location"`
}

// locationDTO keeps the [lat, lon] order the map client reads.
type locationDTO struct {
	Coordinates [2]float64 `json:"coordinates"`
}

// Presence of the five fields is checked by the service so the error lists every missing one.
type adminMatchRequest struct {
	TeamHome        string `json:"team_home" validate:"max=200"`
	TeamAway        string `json:"team_away" validate:"max=200"`
	CompetitionName string `json:"competition_name" validate:"max=200"`
	MatchDate       string `json:"match_date" validate:"max=64"`
	StadiumName     string `json:"stadium_name" validate:"max=200"`
}

type deletedDTO struct {
	ID string `json:"id"`
}

func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatches")
	defer span.End()

	q := r.URL.Query()
	items, err := h.matchQueryService.Query(ctx, usecase.MatchQueryInput{
		League:   q.Get("league"),
		Team:     q.Get("team"),
		DateFrom: q.Get("dateFrom"),
		DateTo:   q.Get("dateTo"),
		Lat:      q.Get("lat"),
		Lon:      q.Get("lon"),
		RadiusKm: q.Get("radius"),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "query matches failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchesToDTO(items))
}

func (h *Handler) AdminListMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AdminListMatches")
	defer span.End()

	items, err := h.adminMatchService.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "admin list matches failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchesToDTO(items))
}

func (h *Handler) AdminGetMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AdminGetMatch")
	defer span.End()

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	item, err := h.adminMatchService.Get(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "admin get match failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchToDTO(item))
}

func (h *Handler) AdminCreateMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AdminCreateMatch")
	defer span.End()

	input, err := h.readAdminMatchRequest(ctx, w, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.adminMatchService.Create(ctx, input)
	if err != nil {
		h.logger.WarnContext(ctx, "admin create match failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, matchToDTO(item))
}

func (h *Handler) AdminUpdateMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AdminUpdateMatch")
	defer span.End()

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	input, err := h.readAdminMatchRequest(ctx, w, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.adminMatchService.Update(ctx, matchID, input)
	if err != nil {
		h.logger.WarnContext(ctx, "admin update match failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchToDTO(item))
}

func (h *Handler) AdminDeleteMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AdminDeleteMatch")
	defer span.End()

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	if err := h.adminMatchService.Delete(ctx, matchID); err != nil {
		h.logger.WarnContext(ctx, "admin delete match failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, deletedDTO{ID: matchID})
}

func (h *Handler) readAdminMatchRequest(ctx context.Context, w http.ResponseWriter, r *http.Request) (usecase.AdminMatchInput, error) {
	var req adminMatchRequest
	if err := h.decodeJSON(r, w, &req); err != nil {
		return usecase.AdminMatchInput{}, err
	}
	if err := h.validateRequest(ctx, req); err != nil {
		return usecase.AdminMatchInput{}, err
	}

	return usecase.AdminMatchInput{
		TeamHome:        req.TeamHome,
		TeamAway:        req.TeamAway,
		CompetitionName: req.CompetitionName,
		MatchDate:       req.MatchDate,
		StadiumName:     req.StadiumName,
	}, nil
}

func matchesToDTO(items []match.Match) []matchDTO {
	out := make([]matchDTO, 0, len(items))
	for _, item := range items {
		out = append(out, matchToDTO(item))
	}
	return out
}

func matchToDTO(v match.Match) matchDTO {
	return matchDTO{
		ID:              v.ID,
		TeamHome:        v.HomeTeam,
		TeamAway:        v.AwayTeam,
		CompetitionName: v.CompetitionName,
		MatchDate:       v.Date.UTC().Format(time.RFC3339),
		StadiumName:     v.StadiumName,
		Location:        locationDTO{Coordinates: [2]float64{v.Location.Lat, v.Location.Lon}},
	}
}
