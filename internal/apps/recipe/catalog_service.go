package recipe

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/scope"
	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/services"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNameRequired = fmt.Errorf("%w: name may not be blank", services.ErrValidation)
	ErrNameTooLong  = fmt.Errorf("%w: name must be at most 255 characters", services.ErrValidation)
)

type catalogEntry[T any] interface {
	*T
	entry() *CatalogItem
}

// CatalogService implements the shared list/create contract of tags and ingredients.
type CatalogService[T any, PT catalogEntry[T]] struct {
	db         *gorm.DB
	joinTable  string
	joinColumn string
}

func NewTagService(db *gorm.DB) *CatalogService[Tag, *Tag] {
	return &CatalogService[Tag, *Tag]{db: db, joinTable: "recipe_tags", joinColumn: "tag_id"}
}

func NewIngredientService(db *gorm.DB) *CatalogService[Ingredient, *Ingredient] {
	return &CatalogService[Ingredient, *Ingredient]{db: db, joinTable: "recipe_ingredients", joinColumn: "ingredient_id"}
}

// List returns the user's entries by name descending. With assignedOnly set, only
// entries attached to at least one of the user's recipes are returned, once each.
func (s *CatalogService[T, PT]) List(ctx context.Context, userID uuid.UUID, assignedOnly bool) ([]T, error) {
	q := s.db.WithContext(ctx).Scopes(scope.ForUser(userID))
	if assignedOnly {
		assigned := s.db.Table(s.joinTable).
			Select(s.joinTable+"."+s.joinColumn).
			Joins("JOIN recipes ON recipes.id = "+s.joinTable+".recipe_id").
			Scopes(scope.ForUserTable("recipes", userID))
		q = q.Where("id IN (?)", assigned)
	}

	items := make([]T, 0)
	if err := q.Order("name DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *CatalogService[T, PT]) Create(ctx context.Context, userID uuid.UUID, name string) (*T, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if utf8.RuneCountInString(name) > 255 {
		return nil, ErrNameTooLong
	}

	item := new(T)
	e := PT(item).entry()
	e.ID = uuid.New()
	e.UserID = userID
	e.Name = name

	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// Owned loads the user's entries with the given ids. Any id that is missing or
// belongs to someone else yields missingErr.
func (s *CatalogService[T, PT]) Owned(tx *gorm.DB, userID uuid.UUID, ids []uuid.UUID, missingErr error) ([]T, error) {
	if len(ids) == 0 {
		return []T{}, nil
	}
	var items []T
	if err := tx.Scopes(scope.ForUser(userID)).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) != len(ids) {
		return nil, missingErr
	}
	return items, nil
}

func toCatalogResponse[T any, PT catalogEntry[T]](item T) CatalogResponse {
	e := PT(&item).entry()
	return CatalogResponse{ID: e.ID, Name: e.Name}
}
