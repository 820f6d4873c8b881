package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"

	"ecommerce-api/internal/cache"
	"ecommerce-api/internal/models"
	"ecommerce-api/internal/repository"
	"ecommerce-api/internal/response"
)

type CategoryHandler struct {
	repo  *repository.CategoryRepository
	cache *cache.Cache
}

func NewCategoryHandler(repo *repository.CategoryRepository, cache *cache.Cache) *CategoryHandler {
	return &CategoryHandler{repo: repo, cache: cache}
}

func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var category models.Category
	if err := c.ShouldBindJSON(&category); err != nil {
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	category.IsActive = true

	if err := h.repo.Create(c.Request.Context(), &category); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			response.Fail(c, http.StatusConflict, "category already exists")
			return
		}
		response.Error(c, http.StatusInternalServerError, "failed to create category")
		return
	}

	h.cache.DeleteByPrefix("categories:")
	response.Success(c, http.StatusCreated, category)
}

func (h *CategoryHandler) ListCategories(c *gin.Context) {
	mainOnly := c.DefaultQuery("main_only", "false") == "true"
	cacheKey := "categories:list:" + c.DefaultQuery("main_only", "false")

	if cached, found := h.cache.GetValue(cacheKey); found {
		response.Success(c, http.StatusOK, cached)
		return
	}

	categories, err := h.repo.FindAll(c.Request.Context(), mainOnly)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to list categories")
		return
	}

	h.cache.Set(cacheKey, categories, 5*time.Minute)
	response.Success(c, http.StatusOK, categories)
}

func (h *CategoryHandler) GetCategory(c *gin.Context) {
	category, err := h.repo.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		notFoundOr500(c, err, "Categoria não encontrada")
		return
	}

	children, err := h.repo.FindChildren(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to load subcategories")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"category":      category,
		"subcategories": children,
	})
}

func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	var body struct {
		Name        *string `json:"name"`
		Slug        *string `json:"slug"`
		Description *string `json:"description"`
		IsActive    *bool   `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	update := bson.M{}
	if body.Name != nil {
		update["name"] = *body.Name
	}
	if body.Slug != nil {
		update["slug"] = *body.Slug
	}
	if body.Description != nil {
		update["description"] = *body.Description
	}
	if body.IsActive != nil {
		update["is_active"] = *body.IsActive
	}
	if len(update) == 0 {
		response.Fail(c, http.StatusBadRequest, "no valid fields to update")
		return
	}

	if err := h.repo.Update(c.Request.Context(), c.Param("id"), update); err != nil {
		notFoundOr500(c, err, "Categoria não encontrada")
		return
	}

	h.cache.DeleteByPrefix("categories:")
	response.Success(c, http.StatusOK, gin.H{"message": "category updated"})
}

func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	if err := h.repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		notFoundOr500(c, err, "Categoria não encontrada")
		return
	}

	h.cache.DeleteByPrefix("categories:")
	response.Success(c, http.StatusOK, gin.H{"message": "category deleted"})
}
