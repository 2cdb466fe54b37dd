package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"gorm.io/datatypes"

	"github.com/ErzhigitKalmurzaev/arqa-scanflow/internal/middleware"
	"github.com/ErzhigitKalmurzaev/arqa-scanflow/internal/models"
	"github.com/ErzhigitKalmurzaev/arqa-scanflow/internal/workflow"
)

const maxInspectionUpload = 32 << 20 // 32MB

// otkWork records a quality-control outcome for a unit.
//
// Accepts multipart form data: internal_code, is_defect, comment (the defect
// category) and one or more image files. A defect submission without a valid
// category and at least one photo is rejected.
func (r *Router) otkWork(w http.ResponseWriter, req *http.Request) {
	if err := req.ParseMultipartForm(maxInspectionUpload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid multipart payload")
		return
	}

	code := req.FormValue("internal_code")
	if code == "" {
		respondError(w, http.StatusBadRequest, "internal_code is required")
		return
	}

	var unit models.ProductUnit
	if err := r.db.Where("internal_code = ?", code).First(&unit).Error; err != nil {
		respondError(w, http.StatusNotFound, "Unknown internal code")
		return
	}

	isDefect := req.FormValue("is_defect") == "true" || req.FormValue("is_defect") == "1"
	category := req.FormValue("comment")

	var files []*multipart.FileHeader
	if req.MultipartForm != nil {
		for _, headers := range req.MultipartForm.File {
			files = append(files, headers...)
		}
	}

	if isDefect {
		if !workflow.IsDefectCategory(category) {
			respondError(w, http.StatusBadRequest, "A defect report requires a known defect category")
			return
		}
		if len(files) == 0 {
			respondError(w, http.StatusBadRequest, "A defect report requires at least one photo")
			return
		}
	}

	// Store photos under uploads/inspections/<code>/
	var stored []string
	if len(files) > 0 {
		dir := filepath.Join(r.cfg.UploadDir, "inspections", code)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to prepare photo storage")
			return
		}
		for i, fh := range files {
			name := fmt.Sprintf("%d_%d%s", time.Now().UnixMilli(), i, filepath.Ext(fh.Filename))
			dst := filepath.Join(dir, name)
			if err := saveUpload(fh, dst); err != nil {
				respondError(w, http.StatusInternalServerError, "Failed to store photo")
				return
			}
			stored = append(stored, dst)
		}
	}

	photosJSON, err := json.Marshal(stored)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to encode photo list")
		return
	}

	report := models.InspectionReport{
		InternalCode: code,
		IsDefect:     isDefect,
		Category:     category,
		Photos:       datatypes.JSON(photosJSON),
		StaffID:      middleware.StaffID(req.Context()),
	}
	if err := r.db.Create(&report).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to record inspection")
		return
	}

	status := models.UnitStatusPassed
	if isDefect {
		status = models.UnitStatusDefect
	}
	r.db.Model(&unit).Update("status", status)

	respondJSON(w, http.StatusCreated, report)
}

func saveUpload(fh *multipart.FileHeader, dst string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}
