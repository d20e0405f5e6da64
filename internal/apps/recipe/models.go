package recipe

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CatalogItem holds the columns shared by tags and ingredients.
type CatalogItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `json:"-"`
}

type Tag struct {
	CatalogItem
}

func (t *Tag) entry() *CatalogItem { return &t.CatalogItem }

type Ingredient struct {
	CatalogItem
}

func (i *Ingredient) entry() *CatalogItem { return &i.CatalogItem }

type Recipe struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"-"`
	Title           string          `gorm:"size:255;not null" json:"title"`
	CookTimeMinutes int             `gorm:"not null" json:"cook_time_minutes"`
	Price           decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"price"`
	Link            string          `gorm:"size:255" json:"link"`
	Image           string          `gorm:"size:255" json:"image"`
	Tags            []Tag           `gorm:"many2many:recipe_tags;constraint:OnDelete:CASCADE" json:"tags"`
	Ingredients     []Ingredient    `gorm:"many2many:recipe_ingredients;constraint:OnDelete:CASCADE" json:"ingredients"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// --- DTOs ---

type CreateCatalogRequest struct {
	Name string `json:"name"`
}

type CatalogResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// RecipeRequest carries both full (PUT/POST) and partial (PATCH) payloads.
// A nil field means the key was absent from the JSON body.
type RecipeRequest struct {
	Title           *string          `json:"title" validate:"required,notblank,max=255"`
	CookTimeMinutes *int             `json:"cook_time_minutes" validate:"required,min=0"`
	Price           *decimal.Decimal `json:"price" validate:"required"`
	Link            *string          `json:"link" validate:"omitnil,max=255"`
	Tags            *[]uuid.UUID     `json:"tags"`
	Ingredients     *[]uuid.UUID     `json:"ingredients"`
}

// presentFields names the fields a PATCH body supplied.
func (r *RecipeRequest) presentFields() []string {
	var fields []string
	if r.Title != nil {
		fields = append(fields, "Title")
	}
	if r.CookTimeMinutes != nil {
		fields = append(fields, "CookTimeMinutes")
	}
	if r.Price != nil {
		fields = append(fields, "Price")
	}
	if r.Link != nil {
		fields = append(fields, "Link")
	}
	return fields
}

type RecipeResponse struct {
	ID              uuid.UUID   `json:"id"`
	Title           string      `json:"title"`
	CookTimeMinutes int         `json:"cook_time_minutes"`
	Price           string      `json:"price"`
	Link            string      `json:"link"`
	Image           *string     `json:"image"`
	Tags            []uuid.UUID `json:"tags"`
	Ingredients     []uuid.UUID `json:"ingredients"`
}

type RecipeDetailResponse struct {
	ID              uuid.UUID         `json:"id"`
	Title           string            `json:"title"`
	CookTimeMinutes int               `json:"cook_time_minutes"`
	Price           string            `json:"price"`
	Link            string            `json:"link"`
	Image           *string           `json:"image"`
	Tags            []CatalogResponse `json:"tags"`
	Ingredients     []CatalogResponse `json:"ingredients"`
}

type RecipeImageResponse struct {
	ID    uuid.UUID `json:"id"`
	Image string    `json:"image"`
}
