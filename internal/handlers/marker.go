package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ErzhigitKalmurzaev/arqa-scanflow/internal/middleware"
	"github.com/ErzhigitKalmurzaev/arqa-scanflow/internal/models"
)

// MarkerLabelsResponse is the label-resolution payload for a scanned unit
type MarkerLabelsResponse struct {
	InternalCode string             `json:"internalCode"`
	Product      string             `json:"product"`
	Color        string             `json:"color"`
	Size         string             `json:"size"`
	Reprint      bool               `json:"reprint"`
	Labels       []models.UnitLabel `json:"labels"`
}

// getMarkerLabels resolves the printable labels for an internal code.
//
// Responds 404 when the code is unknown, and 409 when the unit was already
// printed and no approved reprint statement exists. An approved statement
// lets the resolution through with reprint=true.
func (r *Router) getMarkerLabels(w http.ResponseWriter, req *http.Request) {
	code := req.URL.Query().Get("internal_code")
	if code == "" {
		respondError(w, http.StatusBadRequest, "internal_code query parameter is required")
		return
	}

	var unit models.ProductUnit
	if err := r.db.Preload("Labels").Where("internal_code = ?", code).First(&unit).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Label not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to resolve label")
		return
	}

	reprint := false
	var ack models.PrintAck
	err := r.db.Where("internal_code = ?", code).First(&ack).Error
	if err == nil {
		// Already printed once. Only an approved statement authorizes
		// another run.
		var approved int64
		r.db.Model(&models.Statement{}).
			Where("internal_code = ? AND status = ?", code, models.StatementApproved).
			Count(&approved)
		if approved == 0 {
			respondError(w, http.StatusConflict, "Retry not allowed without an approved statement")
			return
		}
		reprint = true
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(w, http.StatusInternalServerError, "Failed to resolve label")
		return
	}

	respondJSON(w, http.StatusOK, MarkerLabelsResponse{
		InternalCode: unit.InternalCode,
		Product:      unit.Product,
		Color:        unit.Color,
		Size:         unit.Size,
		Reprint:      reprint,
		Labels:       unit.Labels,
	})
}

// MarkerWorkRequest acknowledges that labels for a unit were printed
type MarkerWorkRequest struct {
	InternalCode string `json:"internal_code"`
}

// markerWork records a print acknowledgement.
//
// The write targets the print_acks primary key, so retransmitted
// acknowledgements land exactly once. The first ack consumes the approved
// statement (when the run was a reprint) and advances the unit to marked.
func (r *Router) markerWork(w http.ResponseWriter, req *http.Request) {
	var workReq MarkerWorkRequest
	if err := json.NewDecoder(req.Body).Decode(&workReq); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if workReq.InternalCode == "" {
		respondError(w, http.StatusBadRequest, "internal_code is required")
		return
	}

	var unit models.ProductUnit
	if err := r.db.Where("internal_code = ?", workReq.InternalCode).First(&unit).Error; err != nil {
		respondError(w, http.StatusNotFound, "Unknown internal code")
		return
	}

	ack := models.PrintAck{
		InternalCode: workReq.InternalCode,
		StaffID:      middleware.StaffID(req.Context()),
		AckedAt:      time.Now().UTC(),
	}

	result := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&ack)
	if result.Error != nil {
		respondError(w, http.StatusInternalServerError, "Failed to record acknowledgement")
		return
	}

	if result.RowsAffected == 0 {
		// Duplicate ack for a code that was already acknowledged. The
		// only legitimate second ack is an approved reprint run.
		consumed := r.db.Model(&models.Statement{}).
			Where("internal_code = ? AND status = ?", workReq.InternalCode, models.StatementApproved).
			Update("status", models.StatementConsumed)
		if consumed.Error == nil && consumed.RowsAffected > 0 {
			respondJSON(w, http.StatusOK, map[string]string{"status": "reprint_acked"})
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "already_acked"})
		return
	}

	// First ack: consume any approved statement and advance the unit.
	r.db.Model(&models.Statement{}).
		Where("internal_code = ? AND status = ?", workReq.InternalCode, models.StatementApproved).
		Update("status", models.StatementConsumed)

	if unit.Status == models.UnitStatusCreated {
		r.db.Model(&unit).Update("status", models.UnitStatusMarked)
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "acked"})
}

// StatementRequest files a reprint-approval request
type StatementRequest struct {
	InternalCode string `json:"internal_code"`
}

// createStatement files a reprint statement for the director to review.
// A code carries at most one pending statement at a time.
func (r *Router) createStatement(w http.ResponseWriter, req *http.Request) {
	var stReq StatementRequest
	if err := json.NewDecoder(req.Body).Decode(&stReq); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if stReq.InternalCode == "" {
		respondError(w, http.StatusBadRequest, "internal_code is required")
		return
	}

	var unit models.ProductUnit
	if err := r.db.Where("internal_code = ?", stReq.InternalCode).First(&unit).Error; err != nil {
		respondError(w, http.StatusNotFound, "Unknown internal code")
		return
	}

	var pending int64
	r.db.Model(&models.Statement{}).
		Where("internal_code = ? AND status = ?", stReq.InternalCode, models.StatementPending).
		Count(&pending)
	if pending > 0 {
		respondError(w, http.StatusConflict, "A pending statement already exists for this code")
		return
	}

	statement := models.Statement{
		InternalCode: stReq.InternalCode,
		StaffID:      middleware.StaffID(req.Context()),
		Status:       models.StatementPending,
	}
	if err := r.db.Create(&statement).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to file statement")
		return
	}

	respondJSON(w, http.StatusCreated, statement)
}
