package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ErzhigitKalmurzaev/arqa-scanflow/internal/models"
)

// PackerWorkRequest marks a unit as packed
type PackerWorkRequest struct {
	InternalCode string `json:"internal_code"`
}

// packerWork advances a unit to packed. Defective units stay out of the box.
func (r *Router) packerWork(w http.ResponseWriter, req *http.Request) {
	var workReq PackerWorkRequest
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

	switch unit.Status {
	case models.UnitStatusDefect:
		respondError(w, http.StatusConflict, "Unit is marked defective and cannot be packed")
		return
	case models.UnitStatusPacked:
		respondJSON(w, http.StatusOK, map[string]string{"status": "already_packed"})
		return
	}

	if err := r.db.Model(&unit).Update("status", models.UnitStatusPacked).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update unit")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "packed"})
}
