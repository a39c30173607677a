// Package api defines the contracts for API requests and responses.
// It decouples the API structure from the internal domain models.
package api

import (
	"encoding/json"
	"net/http"
)

// VendorDTO is the API representation of a vendor link.
type VendorDTO struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// AddFoodRequest is the expected body for a POST /foods request.
type AddFoodRequest struct {
	Name        string      `json:"name" validate:"required"`
	Category    string      `json:"category" validate:"required"`
	Subcategory string      `json:"subcategory" validate:"required"`
	City        string      `json:"city"`
	Vendors     []VendorDTO `json:"vendors"`
}

// AddFoodResponse returns the identifier of the created item.
type AddFoodResponse struct {
	ID string `json:"id"`
}

// NodeResponse is the API representation of a single taxonomy node.
type NodeResponse struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Kind     string      `json:"kind"`
	ParentID *string     `json:"parentId"`
	Vendors  []VendorDTO `json:"vendors"`
}

// SearchResponse is the unified shape for stored and generated results.
type SearchResponse struct {
	Origin      string      `json:"origin"` // "store" or "generated"
	Name        string      `json:"name"`
	Category    string      `json:"category"`
	Subcategory string      `json:"subcategory"`
	Vendors     []VendorDTO `json:"vendors"`
}

// SaveGeneratedRequest persists a previously returned generated result.
type SaveGeneratedRequest struct {
	Name        string      `json:"name" validate:"required"`
	Category    string      `json:"category" validate:"required"`
	Subcategory string      `json:"subcategory" validate:"required"`
	City        string      `json:"city"`
	Vendors     []VendorDTO `json:"vendors"`
}

// ErrorResponse is a standardized error message for API responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Success writes a JSON response with the given status code.
func Success(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, statusCode int, message string) {
	ErrorWithCode(w, statusCode, message, "")
}

// ErrorWithCode writes a JSON error response with a machine-readable code.
func ErrorWithCode(w http.ResponseWriter, statusCode int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message, Code: code})
}
