package handler

import (
	"log"
	"net/http"

	"vidtube/internal/httputil"
	"vidtube/internal/service"
)

type CategoryHandler struct {
	categoryService *service.CategoryService
}

func NewCategoryHandler(categoryService *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
	}
}

// List handles GET /categories
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categoryService.List(r.Context())
	if err != nil {
		log.Printf("[ERROR] List categories handler: err=%v", err)
		httputil.WriteInternalError(w, "Failed to list categories")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, categories)
}
