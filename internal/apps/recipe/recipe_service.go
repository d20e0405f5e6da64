package recipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/scope"
	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/storage"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrRecipeNotFound    = errors.New("recipe not found")
	ErrInvalidPrice      = fmt.Errorf("%w: price must be between 0 and 999.99 with at most 2 decimal places", services.ErrValidation)
	ErrUnknownTag        = fmt.Errorf("%w: invalid tag id", services.ErrValidation)
	ErrUnknownIngredient = fmt.Errorf("%w: invalid ingredient id", services.ErrValidation)
)

var maxPrice = decimal.NewFromInt(1000)

type RecipeService struct {
	db          *gorm.DB
	tags        *CatalogService[Tag, *Tag]
	ingredients *CatalogService[Ingredient, *Ingredient]
	images      *ImageProcessor
	store       storage.Store
}

func NewRecipeService(db *gorm.DB, store storage.Store, images *ImageProcessor) *RecipeService {
	return &RecipeService{
		db:          db,
		tags:        NewTagService(db),
		ingredients: NewIngredientService(db),
		images:      images,
		store:       store,
	}
}

// List returns the user's recipes by title descending. Within tagIDs (and within
// ingredientIDs) a recipe matches if it carries any of the ids; the two filters AND together.
func (s *RecipeService) List(ctx context.Context, userID uuid.UUID, tagIDs, ingredientIDs []uuid.UUID) ([]Recipe, error) {
	q := s.db.WithContext(ctx).Scopes(scope.ForUser(userID))
	if len(tagIDs) > 0 {
		q = q.Where("id IN (?)", s.db.Table("recipe_tags").Select("recipe_id").Where("tag_id IN ?", tagIDs))
	}
	if len(ingredientIDs) > 0 {
		q = q.Where("id IN (?)", s.db.Table("recipe_ingredients").Select("recipe_id").Where("ingredient_id IN ?", ingredientIDs))
	}

	recipes := make([]Recipe, 0)
	err := q.Preload("Tags").Preload("Ingredients").Order("title DESC").Find(&recipes).Error
	return recipes, err
}

func (s *RecipeService) Get(ctx context.Context, userID, recipeID uuid.UUID) (*Recipe, error) {
	return s.findOwned(s.db.WithContext(ctx), userID, recipeID)
}

func (s *RecipeService) findOwned(tx *gorm.DB, userID, recipeID uuid.UUID) (*Recipe, error) {
	var recipe Recipe
	err := tx.Scopes(scope.ForUser(userID)).
		Preload("Tags").
		Preload("Ingredients").
		First(&recipe, "id = ?", recipeID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}
	return &recipe, nil
}

func (s *RecipeService) Create(ctx context.Context, userID uuid.UUID, req RecipeRequest) (*Recipe, error) {
	recipe := Recipe{
		ID:              uuid.New(),
		UserID:          userID,
		Title:           strings.TrimSpace(lo.FromPtr(req.Title)),
		CookTimeMinutes: lo.FromPtr(req.CookTimeMinutes),
		Price:           lo.FromPtr(req.Price),
		Link:            strings.TrimSpace(lo.FromPtr(req.Link)),
	}
	if err := validatePrice(&recipe); err != nil {
		return nil, err
	}

	var created *Recipe
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tags", "Ingredients").Create(&recipe).Error; err != nil {
			return err
		}
		if err := s.setRelations(tx, &recipe, req.Tags, req.Ingredients, true); err != nil {
			return err
		}
		var err error
		created, err = s.findOwned(tx, userID, recipe.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update applies req to the recipe. A full update resets absent link, tags and
// ingredients to empty; a partial update leaves absent fields untouched.
func (s *RecipeService) Update(ctx context.Context, userID, recipeID uuid.UUID, req RecipeRequest, partial bool) (*Recipe, error) {
	var updated *Recipe
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recipe, err := s.findOwned(tx, userID, recipeID)
		if err != nil {
			return err
		}

		if req.Title != nil {
			recipe.Title = strings.TrimSpace(*req.Title)
		}
		if req.CookTimeMinutes != nil {
			recipe.CookTimeMinutes = *req.CookTimeMinutes
		}
		if req.Price != nil {
			recipe.Price = *req.Price
		}
		if req.Link != nil || !partial {
			recipe.Link = strings.TrimSpace(lo.FromPtr(req.Link))
		}
		if err := validatePrice(recipe); err != nil {
			return err
		}

		err = tx.Model(recipe).Select("title", "cook_time_minutes", "price", "link").Updates(map[string]interface{}{
			"title":             recipe.Title,
			"cook_time_minutes": recipe.CookTimeMinutes,
			"price":             recipe.Price,
			"link":              recipe.Link,
		}).Error
		if err != nil {
			return err
		}
		if err := s.setRelations(tx, recipe, req.Tags, req.Ingredients, !partial); err != nil {
			return err
		}

		updated, err = s.findOwned(tx, userID, recipeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// setRelations replaces the tag and ingredient sets. A nil list is skipped
// unless resetMissing is set, in which case it clears the set.
func (s *RecipeService) setRelations(tx *gorm.DB, recipe *Recipe, tagIDs, ingredientIDs *[]uuid.UUID, resetMissing bool) error {
	if tagIDs != nil || resetMissing {
		tags, err := s.tags.Owned(tx, recipe.UserID, lo.Uniq(lo.FromPtr(tagIDs)), ErrUnknownTag)
		if err != nil {
			return err
		}
		if err := replaceAssociation(tx, recipe, "Tags", tags); err != nil {
			return err
		}
	}
	if ingredientIDs != nil || resetMissing {
		ingredients, err := s.ingredients.Owned(tx, recipe.UserID, lo.Uniq(lo.FromPtr(ingredientIDs)), ErrUnknownIngredient)
		if err != nil {
			return err
		}
		if err := replaceAssociation(tx, recipe, "Ingredients", ingredients); err != nil {
			return err
		}
	}
	return nil
}

func replaceAssociation[T any](tx *gorm.DB, recipe *Recipe, name string, items []T) error {
	assoc := tx.Model(recipe).Association(name)
	if len(items) == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(items)
}

func (s *RecipeService) Delete(ctx context.Context, userID, recipeID uuid.UUID) error {
	var image string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recipe, err := s.findOwned(tx, userID, recipeID)
		if err != nil {
			return err
		}
		image = recipe.Image
		if err := tx.Model(recipe).Association("Tags").Clear(); err != nil {
			return err
		}
		if err := tx.Model(recipe).Association("Ingredients").Clear(); err != nil {
			return err
		}
		return tx.Delete(recipe).Error
	})
	if err != nil {
		return err
	}

	if image != "" {
		if err := s.store.Delete(ctx, image); err != nil {
			slog.Warn("failed to remove recipe image", "error", err, "image", image)
		}
	}
	return nil
}

// UploadImage validates and stores a new image, then points the recipe at it.
// The previous image is removed only after the recipe row is updated.
func (s *RecipeService) UploadImage(ctx context.Context, userID, recipeID uuid.UUID, data []byte, filename string) (*Recipe, error) {
	recipe, err := s.findOwned(s.db.WithContext(ctx), userID, recipeID)
	if err != nil {
		return nil, err
	}

	img, err := s.images.Prepare(data, filename)
	if err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, img.Key, img.Data, img.ContentType); err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	previous := recipe.Image
	if err := s.db.WithContext(ctx).Model(recipe).Update("image", img.Key).Error; err != nil {
		if delErr := s.store.Delete(ctx, img.Key); delErr != nil {
			slog.Warn("failed to remove orphaned image", "error", delErr, "image", img.Key)
		}
		return nil, err
	}
	recipe.Image = img.Key

	if previous != "" && previous != img.Key {
		if err := s.store.Delete(ctx, previous); err != nil {
			slog.Warn("failed to remove replaced image", "error", err, "image", previous)
		}
	}
	return recipe, nil
}

// validatePrice is the one rule struct tags cannot express on a decimal.
func validatePrice(r *Recipe) error {
	if r.Price.IsNegative() || r.Price.GreaterThanOrEqual(maxPrice) || !r.Price.Equal(r.Price.Round(2)) {
		return ErrInvalidPrice
	}
	return nil
}
