package matching

import (
    "encoding/json"
    "errors"
    "net/http"

    "github.com/gorilla/mux"

    "github.com/artmateapp/artmate-backend/internal/common/utils"
)

type Handler struct {
    service Service
}

func NewHandler(service Service) *Handler {
    return &Handler{service: service}
}

func (h *Handler) CreateMatchRequest(w http.ResponseWriter, r *http.Request) {
    userID, ok := r.Context().Value("userID").(int64)
    if !ok {
        utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
        return
    }

    var dto CreateMatchRequestDTO
    if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
        utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
        return
    }
    if err := utils.ValidateStruct(&dto); err != nil {
        utils.RespondWithError(w, http.StatusBadRequest, err.Error())
        return
    }

    request, err := h.service.CreateMatchRequest(r.Context(), userID, &dto)
    if err != nil {
        switch {
        case errors.Is(err, ErrDuplicateRequest):
            utils.RespondWithError(w, http.StatusConflict, err.Error())
        case errors.Is(err, ErrInvalidTypeCode), errors.Is(err, ErrProfileIncomplete):
            utils.RespondWithError(w, http.StatusBadRequest, err.Error())
        default:
            utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create match request")
        }
        return
    }

    utils.RespondWithJSON(w, http.StatusCreated, request)
}

func (h *Handler) GetCompatibleMatches(w http.ResponseWriter, r *http.Request) {
    requestID := mux.Vars(r)["id"]

    candidates, fromCache, err := h.service.FindCompatibleMatches(r.Context(), requestID)
    if err != nil {
        switch {
        case errors.Is(err, ErrRequestNotFound):
            utils.RespondWithError(w, http.StatusNotFound, err.Error())
        case errors.Is(err, ErrRequestNotOpen):
            utils.RespondWithError(w, http.StatusConflict, err.Error())
        default:
            utils.RespondWithError(w, http.StatusInternalServerError, "Failed to find matches")
        }
        return
    }

    utils.RespondWithData(w, http.StatusOK, MatchListResponse{
        RequestID:  requestID,
        Candidates: candidates,
        FromCache:  fromCache,
    })
}

func (h *Handler) AcceptMatch(w http.ResponseWriter, r *http.Request) {
    userID, ok := r.Context().Value("userID").(int64)
    if !ok {
        utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
        return
    }
    requestID := mux.Vars(r)["id"]

    var dto DecideMatchDTO
    if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
        utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
        return
    }
    if err := utils.ValidateStruct(&dto); err != nil {
        utils.RespondWithError(w, http.StatusBadRequest, err.Error())
        return
    }

    request, err := h.service.AcceptMatch(r.Context(), requestID, dto.CandidateUserID, userID)
    if err != nil {
        switch {
        case errors.Is(err, ErrRequestNotFound):
            utils.RespondWithError(w, http.StatusNotFound, err.Error())
        case errors.Is(err, ErrUnauthorized):
            utils.RespondWithError(w, http.StatusForbidden, err.Error())
        case errors.Is(err, ErrAlreadyMatched), errors.Is(err, ErrRequestNotOpen):
            utils.RespondWithError(w, http.StatusConflict, err.Error())
        default:
            utils.RespondWithError(w, http.StatusInternalServerError, "Failed to accept match")
        }
        return
    }

    utils.RespondWithJSON(w, http.StatusOK, request)
}

func (h *Handler) RejectMatch(w http.ResponseWriter, r *http.Request) {
    userID, ok := r.Context().Value("userID").(int64)
    if !ok {
        utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
        return
    }
    requestID := mux.Vars(r)["id"]

    var dto DecideMatchDTO
    if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
        utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
        return
    }
    if err := utils.ValidateStruct(&dto); err != nil {
        utils.RespondWithError(w, http.StatusBadRequest, err.Error())
        return
    }

    if err := h.service.RejectMatch(r.Context(), requestID, dto.CandidateUserID, userID); err != nil {
        switch {
        case errors.Is(err, ErrRequestNotFound):
            utils.RespondWithError(w, http.StatusNotFound, err.Error())
        case errors.Is(err, ErrUnauthorized):
            utils.RespondWithError(w, http.StatusForbidden, err.Error())
        default:
            utils.RespondWithError(w, http.StatusInternalServerError, "Failed to reject match")
        }
        return
    }

    utils.MessageResponse(w, "Match rejected", http.StatusOK)
}

func (h *Handler) CancelMatchRequest(w http.ResponseWriter, r *http.Request) {
    userID, ok := r.Context().Value("userID").(int64)
    if !ok {
        utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
        return
    }
    requestID := mux.Vars(r)["id"]

    if err := h.service.CancelMatchRequest(r.Context(), requestID, userID); err != nil {
        switch {
        case errors.Is(err, ErrRequestNotFound):
            utils.RespondWithError(w, http.StatusNotFound, err.Error())
        case errors.Is(err, ErrUnauthorized):
            utils.RespondWithError(w, http.StatusForbidden, err.Error())
        case errors.Is(err, ErrRequestNotOpen):
            utils.RespondWithError(w, http.StatusConflict, err.Error())
        default:
            utils.RespondWithError(w, http.StatusInternalServerError, "Failed to cancel match request")
        }
        return
    }

    utils.MessageResponse(w, "Match request cancelled", http.StatusOK)
}

func (h *Handler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
    userID, ok := r.Context().Value("userID").(int64)
    if !ok {
        utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
        return
    }
    requestID := mux.Vars(r)["id"]

    var dto SubmitFeedbackDTO
    if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
        utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
        return
    }
    if err := utils.ValidateStruct(&dto); err != nil {
        utils.RespondWithError(w, http.StatusBadRequest, err.Error())
        return
    }

    feedback, err := h.service.SubmitMatchFeedback(r.Context(), requestID, userID, &dto)
    if err != nil {
        switch {
        case errors.Is(err, ErrRequestNotFound):
            utils.RespondWithError(w, http.StatusNotFound, err.Error())
        case errors.Is(err, ErrUnauthorized):
            utils.RespondWithError(w, http.StatusForbidden, err.Error())
        case errors.Is(err, ErrFeedbackUnavailable):
            utils.RespondWithError(w, http.StatusConflict, err.Error())
        default:
            utils.RespondWithError(w, http.StatusInternalServerError, "Failed to submit feedback")
        }
        return
    }

    utils.RespondWithJSON(w, http.StatusCreated, feedback)
}

func (h *Handler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
    userID, ok := r.Context().Value("userID").(int64)
    if !ok {
        utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
        return
    }

    analytics, err := h.service.GetMatchingAnalytics(r.Context(), userID)
    if err != nil {
        utils.RespondWithError(w, http.StatusInternalServerError, "Failed to load analytics")
        return
    }

    utils.RespondWithData(w, http.StatusOK, analytics)
}
