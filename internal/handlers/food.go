package handlers

import (
	"encoding/json"
	"net/http"

	"foodatlas-backend/internal/domain"
	"foodatlas-backend/internal/service/search"
	"foodatlas-backend/internal/service/taxonomy"
	"foodatlas-backend/pkg/api"
	"foodatlas-backend/pkg/config"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// FoodHandler handles taxonomy browsing, item adds and the search flow.
type FoodHandler struct {
	taxonomy taxonomy.Service
	search   search.Service
	cfg      *config.Config
	validate *validator.Validate
	logger   *zap.Logger
}

// NewFoodHandler creates a new food handler.
func NewFoodHandler(taxonomyService taxonomy.Service, searchService search.Service, cfg *config.Config, logger *zap.Logger) *FoodHandler {
	return &FoodHandler{
		taxonomy: taxonomyService,
		search:   searchService,
		cfg:      cfg,
		validate: validator.New(),
		logger:   logger,
	}
}

// RegisterRoutes mounts the handler under the given router.
func (h *FoodHandler) RegisterRoutes(r chi.Router) {
	r.Post("/foods", h.AddFood)
	r.Get("/browse", h.Browse)
	r.Get("/search", h.Search)
	r.Post("/search/save", h.SaveGenerated)
}

// AddFood handles POST /api/foods
func (h *FoodHandler) AddFood(w http.ResponseWriter, r *http.Request) {
	var req api.AddFoodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.Error(w, http.StatusBadRequest, "Missing required fields (name, category, subcategory)")
		return
	}
	city, err := resolveCity(h.cfg, req.City)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	item, err := h.taxonomy.AddItem(r.Context(), req.Name, req.Category, req.Subcategory, city, toDomainVendors(req.Vendors))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("item added",
		zap.String("id", item.ID),
		zap.String("name", item.Name),
		zap.String("city", city),
	)
	api.Success(w, http.StatusCreated, api.AddFoodResponse{ID: item.ID})
}

// Browse handles GET /api/browse?listType=categories|subcategories|items
func (h *FoodHandler) Browse(w http.ResponseWriter, r *http.Request) {
	listType := r.URL.Query().Get("listType")
	parentID := r.URL.Query().Get("parentId")

	city, err := resolveCity(h.cfg, r.URL.Query().Get("city"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	var nodes []domain.Node
	switch listType {
	case "categories":
		nodes, err = h.taxonomy.ListRootCategories(r.Context(), city)
	case "subcategories":
		nodes, err = h.taxonomy.ListChildren(r.Context(), parentID, city)
	case "items":
		nodes, err = h.taxonomy.ListItems(r.Context(), parentID, city)
	default:
		api.Error(w, http.StatusBadRequest, "Invalid listType")
		return
	}
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	response := make([]api.NodeResponse, 0, len(nodes))
	for _, node := range nodes {
		response = append(response, api.NodeResponse{
			ID:       node.ID,
			Name:     node.Name,
			Kind:     string(node.Kind),
			ParentID: node.ParentID,
			Vendors:  toVendorDTOs(node.Vendors),
		})
	}
	api.Success(w, http.StatusOK, response)
}

// Search handles GET /api/search?foodName=...
func (h *FoodHandler) Search(w http.ResponseWriter, r *http.Request) {
	foodName := r.URL.Query().Get("foodName")
	if foodName == "" {
		api.Error(w, http.StatusBadRequest, "Missing foodName")
		return
	}
	city, err := resolveCity(h.cfg, r.URL.Query().Get("city"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	result, err := h.search.Search(r.Context(), foodName, city)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("search resolved",
		zap.String("name", foodName),
		zap.String("origin", result.Origin),
	)
	api.Success(w, http.StatusOK, api.SearchResponse{
		Origin:      result.Origin,
		Name:        result.Name,
		Category:    result.Category,
		Subcategory: result.Subcategory,
		Vendors:     toVendorDTOs(result.Vendors),
	})
}

// SaveGenerated handles POST /api/search/save
func (h *FoodHandler) SaveGenerated(w http.ResponseWriter, r *http.Request) {
	var req api.SaveGeneratedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.Error(w, http.StatusBadRequest, "Missing required fields (name, category, subcategory)")
		return
	}
	city, err := resolveCity(h.cfg, req.City)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	item := domain.GeneratedItem{
		Name:        req.Name,
		Category:    req.Category,
		Subcategory: req.Subcategory,
		Vendors:     toDomainVendors(req.Vendors),
	}
	node, err := h.search.SaveGenerated(r.Context(), item, city)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("generated result saved",
		zap.String("id", node.ID),
		zap.String("name", node.Name),
		zap.String("city", city),
	)
	api.Success(w, http.StatusCreated, api.AddFoodResponse{ID: node.ID})
}

func toDomainVendors(dtos []api.VendorDTO) []domain.Vendor {
	var vendors []domain.Vendor
	for _, v := range dtos {
		vendors = append(vendors, domain.Vendor{Name: v.Name, URL: v.URL})
	}
	return vendors
}

// toVendorDTOs always returns a non-nil slice: vendors are an ordered
// sequence that may be empty, so clients see [] rather than null.
func toVendorDTOs(vendors []domain.Vendor) []api.VendorDTO {
	dtos := make([]api.VendorDTO, 0, len(vendors))
	for _, v := range vendors {
		dtos = append(dtos, api.VendorDTO{Name: v.Name, URL: v.URL})
	}
	return dtos
}
