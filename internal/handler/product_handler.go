package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/esim_api/internal/repository"
	"github.com/GTDGit/esim_api/internal/service"
	"github.com/GTDGit/esim_api/internal/utils"
)

// ProductHandler serves catalog endpoints.
type ProductHandler struct {
	productService *service.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(productService *service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// GetProducts handles GET /v1/products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	filter := repository.ProductFilter{Country: c.Query("country")}
	if v := c.Query("featured"); v != "" {
		featured, err := strconv.ParseBool(v)
		if err != nil {
			utils.Error(c, 400, "INVALID_REQUEST", "featured must be true or false")
			return
		}
		filter.Featured = &featured
	}

	products, err := h.productService.ListProducts(c.Request.Context(), filter)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to retrieve products")
		return
	}
	utils.Success(c, 200, "Products retrieved", products)
}

// GetProduct handles GET /v1/products/:sku
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.productService.GetProduct(c.Request.Context(), c.Param("sku"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, 200, "Product retrieved", product)
}

// ListAdminProducts handles GET /v1/admin/products
func (h *ProductHandler) ListAdminProducts(c *gin.Context) {
	filter := repository.AdminProductFilter{
		Search: c.Query("search"),
		Source: c.Query("source"),
	}
	if v := c.Query("isActive"); v != "" {
		active := v == "true"
		filter.Active = &active
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	products, total, err := h.productService.ListAdminProducts(c.Request.Context(), filter, page, limit)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to retrieve products")
		return
	}
	utils.SuccessWithPagination(c, 200, "Products retrieved", products, page, limit, total)
}

// SetFeatured handles PUT /v1/admin/products/:sku/featured
func (h *ProductHandler) SetFeatured(c *gin.Context) {
	var req struct {
		Featured *bool `json:"featured" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "featured is required")
		return
	}

	product, err := h.productService.SetFeatured(c.Request.Context(), c.Param("sku"), *req.Featured)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.Success(c, 200, "Product updated", product)
}
