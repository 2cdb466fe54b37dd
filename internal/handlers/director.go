package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ErzhigitKalmurzaev/arqa-scanflow/internal/middleware"
	"github.com/ErzhigitKalmurzaev/arqa-scanflow/internal/models"
)

// listStatements returns reprint statements, optionally filtered by status
func (r *Router) listStatements(w http.ResponseWriter, req *http.Request) {
	query := r.db.Preload("Staff").Preload("Unit").Order("created_at DESC")
	if status := req.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var statements []models.Statement
	if err := query.Find(&statements).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list statements")
		return
	}
	respondJSON(w, http.StatusOK, statements)
}

// DecideStatementRequest carries the director's verdict
type DecideStatementRequest struct {
	StatementID uint `json:"statement_id"`
	IsSuccess   bool `json:"is_success"`
}

// decideStatement approves or rejects a pending statement. An approved
// statement authorizes exactly one label reprint for its code.
func (r *Router) decideStatement(w http.ResponseWriter, req *http.Request) {
	var decideReq DecideStatementRequest
	if err := json.NewDecoder(req.Body).Decode(&decideReq); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if decideReq.StatementID == 0 {
		respondError(w, http.StatusBadRequest, "statement_id is required")
		return
	}

	var statement models.Statement
	if err := r.db.First(&statement, decideReq.StatementID).Error; err != nil {
		respondError(w, http.StatusNotFound, "Statement not found")
		return
	}

	if statement.Status != models.StatementPending {
		respondError(w, http.StatusConflict, "Statement was already decided")
		return
	}

	status := models.StatementRejected
	if decideReq.IsSuccess {
		status = models.StatementApproved
	}

	now := time.Now().UTC()
	deciderID := middleware.StaffID(req.Context())
	updates := map[string]interface{}{
		"status":     status,
		"decided_by": deciderID,
		"decided_at": now,
	}
	if err := r.db.Model(&statement).Updates(updates).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update statement")
		return
	}

	statement.Status = status
	statement.DecidedBy = &deciderID
	statement.DecidedAt = &now
	respondJSON(w, http.StatusOK, statement)
}
