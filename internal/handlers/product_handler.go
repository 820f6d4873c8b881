package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"

	"ecommerce-api/internal/cache"
	"ecommerce-api/internal/models"
	"ecommerce-api/internal/repository"
	"ecommerce-api/internal/response"
)

type ProductHandler struct {
	repo  *repository.ProductRepository
	cache *cache.Cache
}

func NewProductHandler(repo *repository.ProductRepository, cache *cache.Cache) *ProductHandler {
	return &ProductHandler{repo: repo, cache: cache}
}

// CreateProduct crea un nuevo producto (admin)
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.repo.Create(c.Request.Context(), &product); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			response.Fail(c, http.StatusConflict, "sku already exists")
			return
		}
		response.Error(c, http.StatusInternalServerError, "failed to create product")
		return
	}

	// Invalidar caché de listados
	h.cache.DeleteByPrefix("products:list:")

	response.Success(c, http.StatusCreated, product)
}

// GetProduct obtiene un producto por ID (con caché)
func (h *ProductHandler) GetProduct(c *gin.Context) {
	productID := c.Param("id")
	cacheKey := fmt.Sprintf("product:%s", productID)

	if cached, found := h.cache.GetValue(cacheKey); found {
		response.Success(c, http.StatusOK, cached)
		return
	}

	product, err := h.repo.FindByID(c.Request.Context(), productID)
	if err != nil {
		notFoundOr500(c, err, "Produto não encontrado")
		return
	}

	h.cache.Set(cacheKey, product, 5*time.Minute)
	response.Success(c, http.StatusOK, product)
}

// ListProducts lista productos con paginación y filtros (con caché)
func (h *ProductHandler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	category := c.Query("category")
	sortBy := c.DefaultQuery("sort_by", "created_at")
	sortOrder := c.DefaultQuery("sort_order", "desc")

	cacheKey := fmt.Sprintf("products:list:p%d_s%d_cat:%s_sort:%s_%s",
		page, pageSize, category, sortBy, sortOrder)

	if cached, found := h.cache.GetValue(cacheKey); found {
		response.Success(c, http.StatusOK, cached)
		return
	}

	products, total, err := h.repo.FindAll(c.Request.Context(), page, pageSize, category, sortBy, sortOrder)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidID) {
			response.Fail(c, http.StatusBadRequest, "invalid category id")
			return
		}
		response.Error(c, http.StatusInternalServerError, "failed to list products")
		return
	}

	totalPages := int64(1)
	if pageSize > 0 {
		totalPages = (total + int64(pageSize) - 1) / int64(pageSize)
	}
	result := gin.H{
		"products":    products,
		"total":       total,
		"page":        page,
		"page_size":   pageSize,
		"total_pages": totalPages,
	}

	h.cache.Set(cacheKey, result, 2*time.Minute)
	response.Success(c, http.StatusOK, result)
}

// UpdateProduct actualiza parcialmente un producto (admin)
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	productID := c.Param("id")
	var update models.ProductUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	updateMap := bson.M{}
	if update.Name != nil {
		updateMap["name"] = *update.Name
	}
	if update.Description != nil {
		updateMap["description"] = *update.Description
	}
	if update.CategoryID != nil {
		response.Fail(c, http.StatusBadRequest, "category changes go through the category endpoint")
		return
	}
	if update.PriceCents != nil {
		if *update.PriceCents <= 0 {
			response.Fail(c, http.StatusBadRequest, "price must be positive")
			return
		}
		updateMap["price_cents"] = *update.PriceCents
	}
	if update.Currency != nil {
		updateMap["currency"] = *update.Currency
	}
	if update.Stock != nil {
		if *update.Stock < 0 {
			response.Fail(c, http.StatusBadRequest, "stock cannot be negative")
			return
		}
		updateMap["stock"] = *update.Stock
	}
	if update.DiscountPercent != nil {
		if *update.DiscountPercent < 0 || *update.DiscountPercent > 100 {
			response.Fail(c, http.StatusBadRequest, "discount must be between 0 and 100")
			return
		}
		updateMap["discount_percent"] = *update.DiscountPercent
	}
	if update.Images != nil {
		updateMap["images"] = update.Images
	}
	if update.Attributes != nil {
		updateMap["attributes"] = update.Attributes
	}
	if update.IsActive != nil {
		updateMap["is_active"] = *update.IsActive
	}

	if len(updateMap) == 0 {
		response.Fail(c, http.StatusBadRequest, "no valid fields to update")
		return
	}

	if err := h.repo.Update(c.Request.Context(), productID, updateMap); err != nil {
		notFoundOr500(c, err, "Produto não encontrado")
		return
	}

	h.cache.Delete(fmt.Sprintf("product:%s", productID))
	h.cache.DeleteByPrefix("products:list:")

	response.Success(c, http.StatusOK, gin.H{"message": "product updated"})
}

// DeleteProduct realiza un borrado lógico (admin)
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	productID := c.Param("id")

	if err := h.repo.SoftDelete(c.Request.Context(), productID); err != nil {
		notFoundOr500(c, err, "Produto não encontrado")
		return
	}

	h.cache.Delete(fmt.Sprintf("product:%s", productID))
	h.cache.DeleteByPrefix("products:list:")

	response.Success(c, http.StatusOK, gin.H{"message": "product deleted"})
}
