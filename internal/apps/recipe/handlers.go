package recipe

import (
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/scope"
	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type CatalogHandler[T any, PT catalogEntry[T]] struct {
	service *CatalogService[T, PT]
}

func NewCatalogHandler[T any, PT catalogEntry[T]](service *CatalogService[T, PT]) *CatalogHandler[T, PT] {
	return &CatalogHandler[T, PT]{service: service}
}

func (h *CatalogHandler[T, PT]) List(c *fiber.Ctx) error {
	userID, err := scope.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	assignedOnly, err := parseFlag(c.Query("assigned_only"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "assigned_only must be 0, 1, true or false",
		})
	}

	items, err := h.service.List(c.UserContext(), userID, assignedOnly)
	if err != nil {
		slog.Error("catalog list failed", "error", err, "path", c.Path())
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch items",
		})
	}

	return c.JSON(lo.Map(items, func(item T, _ int) CatalogResponse {
		return toCatalogResponse[T, PT](item)
	}))
}

func (h *CatalogHandler[T, PT]) Create(c *fiber.Ctx) error {
	userID, err := scope.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req CreateCatalogRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	item, err := h.service.Create(c.UserContext(), userID, req.Name)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		slog.Error("catalog create failed", "error", err, "path", c.Path())
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to create item",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(toCatalogResponse[T, PT](*item))
}

type RecipeHandler struct {
	service *RecipeService
}

func NewRecipeHandler(service *RecipeService) *RecipeHandler {
	return &RecipeHandler{service: service}
}

func (h *RecipeHandler) List(c *fiber.Ctx) error {
	userID, err := scope.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	tagIDs, err := parseIDList(c.Query("tags"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid tag ID in filter",
		})
	}
	ingredientIDs, err := parseIDList(c.Query("ingredients"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid ingredient ID in filter",
		})
	}

	recipes, err := h.service.List(c.UserContext(), userID, tagIDs, ingredientIDs)
	if err != nil {
		slog.Error("recipe list failed", "error", err, "user_id", userID.String())
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch recipes",
		})
	}

	return c.JSON(lo.Map(recipes, func(r Recipe, _ int) RecipeResponse {
		return toRecipeResponse(&r)
	}))
}

func (h *RecipeHandler) Create(c *fiber.Ctx) error {
	userID, err := scope.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req RecipeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	if err := dto.Validate(&req); err != nil {
		return h.fail(c, err, "Failed to create recipe")
	}

	recipe, err := h.service.Create(c.UserContext(), userID, req)
	if err != nil {
		return h.fail(c, err, "Failed to create recipe")
	}
	return c.Status(fiber.StatusCreated).JSON(toRecipeDetail(recipe))
}

func (h *RecipeHandler) Get(c *fiber.Ctx) error {
	userID, err := scope.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	recipeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: ErrRecipeNotFound.Error(),
		})
	}

	recipe, err := h.service.Get(c.UserContext(), userID, recipeID)
	if err != nil {
		return h.fail(c, err, "Failed to fetch recipe")
	}
	return c.JSON(toRecipeDetail(recipe))
}

// Update handles PUT. Absent tags, ingredients and link are cleared.
func (h *RecipeHandler) Update(c *fiber.Ctx) error {
	return h.update(c, false)
}

// PartialUpdate handles PATCH.
func (h *RecipeHandler) PartialUpdate(c *fiber.Ctx) error {
	return h.update(c, true)
}

func (h *RecipeHandler) update(c *fiber.Ctx, partial bool) error {
	userID, err := scope.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	recipeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: ErrRecipeNotFound.Error(),
		})
	}

	var req RecipeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	if partial {
		err = dto.ValidatePartial(&req, req.presentFields()...)
	} else {
		err = dto.Validate(&req)
	}
	if err != nil {
		return h.fail(c, err, "Failed to update recipe")
	}

	recipe, err := h.service.Update(c.UserContext(), userID, recipeID, req, partial)
	if err != nil {
		return h.fail(c, err, "Failed to update recipe")
	}
	return c.JSON(toRecipeDetail(recipe))
}

func (h *RecipeHandler) Delete(c *fiber.Ctx) error {
	userID, err := scope.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	recipeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: ErrRecipeNotFound.Error(),
		})
	}

	if err := h.service.Delete(c.UserContext(), userID, recipeID); err != nil {
		return h.fail(c, err, "Failed to delete recipe")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *RecipeHandler) UploadImage(c *fiber.Ctx) error {
	userID, err := scope.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	recipeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: ErrRecipeNotFound.Error(),
		})
	}

	fh, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: ErrImageRequired.Error(),
		})
	}
	f, err := fh.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: ErrInvalidImage.Error(),
		})
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: ErrInvalidImage.Error(),
		})
	}

	recipe, err := h.service.UploadImage(c.UserContext(), userID, recipeID, data, fh.Filename)
	if err != nil {
		return h.fail(c, err, "Failed to upload image")
	}
	return c.JSON(RecipeImageResponse{ID: recipe.ID, Image: recipe.Image})
}

func (h *RecipeHandler) fail(c *fiber.Ctx, err error, message string) error {
	switch {
	case errors.Is(err, ErrRecipeNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, services.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}
	slog.Error(strings.ToLower(message), "error", err, "method", c.Method(), "path", c.Path())
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: message,
	})
}

func parseIDList(raw string) ([]uuid.UUID, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var ids []uuid.UUID
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return lo.Uniq(ids), nil
}

// parseFlag reads a boolean query value; empty means false.
func parseFlag(raw string) (bool, error) {
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}

func imagePtr(path string) *string {
	if path == "" {
		return nil
	}
	return &path
}

func toRecipeResponse(r *Recipe) RecipeResponse {
	return RecipeResponse{
		ID:              r.ID,
		Title:           r.Title,
		CookTimeMinutes: r.CookTimeMinutes,
		Price:           r.Price.StringFixed(2),
		Link:            r.Link,
		Image:           imagePtr(r.Image),
		Tags:            lo.Map(r.Tags, func(t Tag, _ int) uuid.UUID { return t.ID }),
		Ingredients:     lo.Map(r.Ingredients, func(i Ingredient, _ int) uuid.UUID { return i.ID }),
	}
}

func toRecipeDetail(r *Recipe) RecipeDetailResponse {
	return RecipeDetailResponse{
		ID:              r.ID,
		Title:           r.Title,
		CookTimeMinutes: r.CookTimeMinutes,
		Price:           r.Price.StringFixed(2),
		Link:            r.Link,
		Image:           imagePtr(r.Image),
		Tags:            lo.Map(r.Tags, func(t Tag, _ int) CatalogResponse { return toCatalogResponse[Tag](t) }),
		Ingredients:     lo.Map(r.Ingredients, func(i Ingredient, _ int) CatalogResponse { return toCatalogResponse[Ingredient](i) }),
	}
}
