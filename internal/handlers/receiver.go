package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/ErzhigitKalmurzaev/arqa-scanflow/internal/models"
	"github.com/ErzhigitKalmurzaev/arqa-scanflow/internal/services/printer"
)

// CreateOrderRequest represents an order intake request
type CreateOrderRequest struct {
	Title      string `json:"title"`
	ClientName string `json:"clientName"`
	Items      []struct {
		Product  string `json:"product"`
		Color    string `json:"color"`
		Size     string `json:"size"`
		Quantity int    `json:"quantity"`
	} `json:"items"`
}

// mintInternalCode produces a fresh unit code. Codes are short so they stay
// readable on a 50x30mm label.
func mintInternalCode() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}

// createOrder registers an order and mints one unit with a QR label payload
// per physical garment
func (r *Router) createOrder(w http.ResponseWriter, req *http.Request) {
	var orderReq CreateOrderRequest
	if err := json.NewDecoder(req.Body).Decode(&orderReq); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if orderReq.Title == "" {
		respondError(w, http.StatusBadRequest, "Order title is required")
		return
	}
	if len(orderReq.Items) == 0 {
		respondError(w, http.StatusBadRequest, "Order needs at least one item line")
		return
	}

	order := models.Order{
		Title:      orderReq.Title,
		ClientName: orderReq.ClientName,
	}

	for _, item := range orderReq.Items {
		if item.Product == "" {
			respondError(w, http.StatusBadRequest, "Item product is required")
			return
		}
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		for i := 0; i < qty; i++ {
			unit := models.ProductUnit{
				InternalCode: mintInternalCode(),
				Product:      item.Product,
				Color:        item.Color,
				Size:         item.Size,
				Status:       models.UnitStatusCreated,
			}
			payload, err := printer.PayloadFor(unit)
			if err != nil {
				respondError(w, http.StatusInternalServerError, "Failed to build label payload")
				return
			}
			unit.Labels = []models.UnitLabel{{
				Kind:        "qr",
				Data:        payload,
				Description: fmt.Sprintf("%s %s %s", item.Product, item.Color, item.Size),
			}}
			order.Units = append(order.Units, unit)
		}
	}

	if err := r.db.Create(&order).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create order")
		return
	}

	respondJSON(w, http.StatusCreated, order)
}

// listOrders returns all orders with their units
func (r *Router) listOrders(w http.ResponseWriter, req *http.Request) {
	var orders []models.Order
	if err := r.db.Preload("Units").Order("created_at DESC").Find(&orders).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list orders")
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

// getOrder returns a single order with units and labels
func (r *Router) getOrder(w http.ResponseWriter, req *http.Request) {
	id, err := strconv.Atoi(mux.Vars(req)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	var order models.Order
	if err := r.db.Preload("Units.Labels").First(&order, id).Error; err != nil {
		respondError(w, http.StatusNotFound, "Order not found")
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// orderLabelsPDF renders the full A4 label sheet for an order
func (r *Router) orderLabelsPDF(w http.ResponseWriter, req *http.Request) {
	id, err := strconv.Atoi(mux.Vars(req)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	var units []models.ProductUnit
	if err := r.db.Where("order_id = ?", id).Order("id").Find(&units).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load units")
		return
	}
	if len(units) == 0 {
		respondError(w, http.StatusNotFound, "Order has no units")
		return
	}

	pdfData, err := printer.GenerateUnitLabelsPDF(units, printer.DefaultSheetConfig())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to render labels")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=order_%d_labels.pdf", id))
	w.WriteHeader(http.StatusOK)
	w.Write(pdfData)
}
