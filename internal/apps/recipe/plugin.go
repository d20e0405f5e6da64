package recipe

import (
	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/storage"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type RecipePlugin struct {
	store storage.Store
}

func New(store storage.Store) *RecipePlugin {
	return &RecipePlugin{store: store}
}

func (p *RecipePlugin) ID() string { return "recipe" }

func (p *RecipePlugin) Models() []interface{} {
	return []interface{}{
		&Tag{},
		&Ingredient{},
		&Recipe{},
	}
}

func (p *RecipePlugin) RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	tags := NewCatalogHandler(NewTagService(db))
	ingredients := NewCatalogHandler(NewIngredientService(db))
	recipes := NewRecipeHandler(NewRecipeService(db, p.store, NewImageProcessor(cfg.ImageMaxDimension)))

	router.Get("/tags", tags.List)
	router.Post("/tags", tags.Create)

	router.Get("/ingredients", ingredients.List)
	router.Post("/ingredients", ingredients.Create)

	router.Get("/recipes", recipes.List)
	router.Post("/recipes", recipes.Create)
	router.Get("/recipes/:id", recipes.Get)
	router.Put("/recipes/:id", recipes.Update)
	router.Patch("/recipes/:id", recipes.PartialUpdate)
	router.Delete("/recipes/:id", recipes.Delete)
	router.Post("/recipes/:id/upload-image", recipes.UploadImage)
}
