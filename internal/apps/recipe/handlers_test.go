package recipe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/recipe-backend/internal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

type RecipeAPITestSuite struct {
	suite.Suite
	app      *fiber.App
	aliceKey string
	bobKey   string
}

func (s *RecipeAPITestSuite) SetupTest() {
	cfg := &config.Config{DBDriver: config.DriverSQLite, DBPath: ":memory:", ImageMaxDimension: 256}
	db, err := database.Open(cfg)
	s.Require().NoError(err)
	s.Require().NoError(database.MigrateShared(db))

	plugin := New(storage.NewLocalStore(s.T().TempDir()))
	s.Require().NoError(database.MigrateModels(db, plugin.Models()))
	s.T().Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	users := services.NewUserService(db, nil)
	auth := services.NewAuthService(db, nil)
	ctx := context.Background()
	for _, email := range []string{"alice@example.com", "bob@example.com"} {
		_, err := users.CreateUser(ctx, email, "testpass123", "")
		s.Require().NoError(err)
	}
	s.aliceKey, err = auth.ObtainToken(ctx, "alice@example.com", "testpass123")
	s.Require().NoError(err)
	s.bobKey, err = auth.ObtainToken(ctx, "bob@example.com", "testpass123")
	s.Require().NoError(err)

	s.app = fiber.New()
	plugin.RegisterRoutes(s.app.Group("/api/recipe", middleware.TokenProtected(auth)), db, cfg)
}

func TestRecipeAPISuite(t *testing.T) {
	suite.Run(t, new(RecipeAPITestSuite))
}

func (s *RecipeAPITestSuite) do(method, path, key string, body any) (*http.Response, []byte) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	}
	if key != "" {
		req.Header.Set("Authorization", "Token "+key)
	}
	resp, err := s.app.Test(req, -1)
	s.Require().NoError(err)
	data, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp, data
}

func (s *RecipeAPITestSuite) upload(path, key, filename string, content []byte) (*http.Response, []byte) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", filename)
	s.Require().NoError(err)
	_, err = part.Write(content)
	s.Require().NoError(err)
	s.Require().NoError(w.Close())

	req := httptest.NewRequest(fiber.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Token "+key)
	resp, err := s.app.Test(req, -1)
	s.Require().NoError(err)
	data, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp, data
}

func (s *RecipeAPITestSuite) createTag(key, name string) CatalogResponse {
	resp, body := s.do(fiber.MethodPost, "/api/recipe/tags", key, fiber.Map{"name": name})
	s.Require().Equal(fiber.StatusCreated, resp.StatusCode, string(body))
	var tag CatalogResponse
	s.Require().NoError(json.Unmarshal(body, &tag))
	return tag
}

func (s *RecipeAPITestSuite) createRecipe(key string, payload fiber.Map) RecipeDetailResponse {
	resp, body := s.do(fiber.MethodPost, "/api/recipe/recipes", key, payload)
	s.Require().Equal(fiber.StatusCreated, resp.StatusCode, string(body))
	var r RecipeDetailResponse
	s.Require().NoError(json.Unmarshal(body, &r))
	return r
}

func (s *RecipeAPITestSuite) TestAuthRequired() {
	for _, path := range []string{"/api/recipe/tags", "/api/recipe/ingredients", "/api/recipe/recipes"} {
		resp, _ := s.do(fiber.MethodGet, path, "", nil)
		s.Equal(fiber.StatusUnauthorized, resp.StatusCode, path)
	}
}

func (s *RecipeAPITestSuite) TestCreateTagBlankName() {
	resp, _ := s.do(fiber.MethodPost, "/api/recipe/tags", s.aliceKey, fiber.Map{"name": ""})
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)
}

func (s *RecipeAPITestSuite) TestTagsListedForCallerOnly() {
	s.createTag(s.aliceKey, "Comfort")
	s.createTag(s.bobKey, "Fruity")

	resp, body := s.do(fiber.MethodGet, "/api/recipe/tags", s.aliceKey, nil)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	var tags []CatalogResponse
	s.Require().NoError(json.Unmarshal(body, &tags))
	s.Require().Len(tags, 1)
	s.Equal("Comfort", tags[0].Name)
}

func (s *RecipeAPITestSuite) TestAssignedOnlyTags() {
	breakfast := s.createTag(s.aliceKey, "Breakfast")
	s.createTag(s.aliceKey, "Lunch")
	s.createRecipe(s.aliceKey, fiber.Map{"title": "Eggs", "cook_time_minutes": 5, "price": "2.00", "tags": []uuid.UUID{breakfast.ID}})
	s.createRecipe(s.aliceKey, fiber.Map{"title": "Toast", "cook_time_minutes": 3, "price": "1.00", "tags": []uuid.UUID{breakfast.ID}})

	resp, body := s.do(fiber.MethodGet, "/api/recipe/tags?assigned_only=1", s.aliceKey, nil)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	var tags []CatalogResponse
	s.Require().NoError(json.Unmarshal(body, &tags))
	s.Equal([]CatalogResponse{breakfast}, tags)
}

func (s *RecipeAPITestSuite) TestAssignedOnlyFlagValues() {
	breakfast := s.createTag(s.aliceKey, "Breakfast")
	lunch := s.createTag(s.aliceKey, "Lunch")
	s.createRecipe(s.aliceKey, fiber.Map{"title": "Eggs", "cook_time_minutes": 5, "price": "2.00", "tags": []uuid.UUID{breakfast.ID}})

	for query, want := range map[string][]CatalogResponse{
		"?assigned_only=true":  {breakfast},
		"?assigned_only=True":  {breakfast},
		"?assigned_only=false": {lunch, breakfast},
		"?assigned_only=0":     {lunch, breakfast},
		"":                     {lunch, breakfast},
	} {
		resp, body := s.do(fiber.MethodGet, "/api/recipe/tags"+query, s.aliceKey, nil)
		s.Require().Equal(fiber.StatusOK, resp.StatusCode, query)
		var tags []CatalogResponse
		s.Require().NoError(json.Unmarshal(body, &tags))
		s.Equal(want, tags, query)
	}

	resp, _ := s.do(fiber.MethodGet, "/api/recipe/tags?assigned_only=yes", s.aliceKey, nil)
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)
}

func (s *RecipeAPITestSuite) TestCreateAndRetrieveRecipe() {
	created := s.createRecipe(s.aliceKey, fiber.Map{"title": "Lasagna", "cook_time_minutes": 45, "price": 7.00})

	resp, body := s.do(fiber.MethodGet, "/api/recipe/recipes/"+created.ID.String(), s.aliceKey, nil)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	var got map[string]any
	s.Require().NoError(json.Unmarshal(body, &got))
	s.Equal("Lasagna", got["title"])
	s.EqualValues(45, got["cook_time_minutes"])
	s.Equal("7.00", got["price"])
	s.Equal([]any{}, got["tags"])
	s.Equal([]any{}, got["ingredients"])
	s.Nil(got["image"])

	resp, _ = s.do(fiber.MethodGet, "/api/recipe/recipes/"+created.ID.String(), s.bobKey, nil)
	s.Equal(fiber.StatusNotFound, resp.StatusCode)
	resp, _ = s.do(fiber.MethodGet, "/api/recipe/recipes/not-a-uuid", s.aliceKey, nil)
	s.Equal(fiber.StatusNotFound, resp.StatusCode)
}

func (s *RecipeAPITestSuite) TestCreateRecipeValidation() {
	cases := []struct {
		payload fiber.Map
		message string
	}{
		{fiber.Map{"cook_time_minutes": 5, "price": "1.00"}, "title is required"},
		{fiber.Map{"title": "", "cook_time_minutes": 5, "price": "1.00"}, "title may not be blank"},
		{fiber.Map{"title": "   ", "cook_time_minutes": 5, "price": "1.00"}, "title may not be blank"},
		{fiber.Map{"title": strings.Repeat("a", 256), "cook_time_minutes": 5, "price": "1.00"}, "title must be at most 255 characters"},
		{fiber.Map{"title": "Soup", "price": "1.00"}, "cook_time_minutes is required"},
		{fiber.Map{"title": "Soup", "cook_time_minutes": -1, "price": "1.00"}, "cook_time_minutes must not be less than 0"},
		{fiber.Map{"title": "Soup", "cook_time_minutes": 5}, "price is required"},
		{fiber.Map{"title": "Soup", "cook_time_minutes": 5, "price": "1.234"}, ErrInvalidPrice.Error()},
		{fiber.Map{"title": "Soup", "cook_time_minutes": 5, "price": "1.00", "link": strings.Repeat("l", 256)}, "link must be at most 255 characters"},
		{fiber.Map{"title": "Soup", "cook_time_minutes": "soon", "price": "1.00"}, "Invalid request body"},
	}
	for _, tc := range cases {
		resp, body := s.do(fiber.MethodPost, "/api/recipe/recipes", s.aliceKey, tc.payload)
		s.Equal(fiber.StatusBadRequest, resp.StatusCode, tc.message)
		s.Contains(string(body), tc.message)
	}

	created := s.createRecipe(s.aliceKey, fiber.Map{"title": "Water", "cook_time_minutes": 0, "price": "0"})
	s.Equal(0, created.CookTimeMinutes)
	s.Equal("0.00", created.Price)
}

func (s *RecipeAPITestSuite) TestUpdateRecipeValidation() {
	created := s.createRecipe(s.aliceKey, fiber.Map{"title": "Soup", "cook_time_minutes": 5, "price": "1.00"})
	path := "/api/recipe/recipes/" + created.ID.String()

	resp, body := s.do(fiber.MethodPatch, path, s.aliceKey, fiber.Map{"title": " "})
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)
	s.Contains(string(body), "title may not be blank")

	resp, body = s.do(fiber.MethodPut, path, s.aliceKey, fiber.Map{"title": "Stew"})
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)
	s.Contains(string(body), "cook_time_minutes is required")

	resp, body = s.do(fiber.MethodPatch, path, s.aliceKey, fiber.Map{"cook_time_minutes": 9})
	s.Require().Equal(fiber.StatusOK, resp.StatusCode, string(body))
	var got RecipeDetailResponse
	s.Require().NoError(json.Unmarshal(body, &got))
	s.Equal("Soup", got.Title)
	s.Equal(9, got.CookTimeMinutes)
}

func (s *RecipeAPITestSuite) TestFilterRecipesByTags() {
	vegan := s.createTag(s.aliceKey, "Vegan")
	veggie := s.createTag(s.aliceKey, "Vegetarian")
	r1 := s.createRecipe(s.aliceKey, fiber.Map{"title": "Curry", "cook_time_minutes": 5, "price": "5.00", "tags": []uuid.UUID{vegan.ID}})
	r2 := s.createRecipe(s.aliceKey, fiber.Map{"title": "Tahini", "cook_time_minutes": 5, "price": "5.00", "tags": []uuid.UUID{veggie.ID}})
	s.createRecipe(s.aliceKey, fiber.Map{"title": "Fish", "cook_time_minutes": 5, "price": "5.00"})

	path := fmt.Sprintf("/api/recipe/recipes?tags=%s,%s", vegan.ID, veggie.ID)
	resp, body := s.do(fiber.MethodGet, path, s.aliceKey, nil)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	var list []RecipeResponse
	s.Require().NoError(json.Unmarshal(body, &list))
	s.ElementsMatch([]uuid.UUID{r1.ID, r2.ID}, lo.Map(list, func(r RecipeResponse, _ int) uuid.UUID { return r.ID }))

	resp, _ = s.do(fiber.MethodGet, "/api/recipe/recipes?tags=abc", s.aliceKey, nil)
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)
}

func (s *RecipeAPITestSuite) TestFullAndPartialUpdate() {
	tag := s.createTag(s.aliceKey, "Dinner")
	other := s.createTag(s.aliceKey, "Lunch")
	r := s.createRecipe(s.aliceKey, fiber.Map{"title": "Stew", "cook_time_minutes": 60, "price": "9.00", "tags": []uuid.UUID{tag.ID}})
	path := "/api/recipe/recipes/" + r.ID.String()

	resp, body := s.do(fiber.MethodPatch, path, s.aliceKey, fiber.Map{"tags": []uuid.UUID{other.ID}})
	s.Require().Equal(fiber.StatusOK, resp.StatusCode, string(body))
	var patched RecipeDetailResponse
	s.Require().NoError(json.Unmarshal(body, &patched))
	s.Equal([]CatalogResponse{other}, patched.Tags)
	s.Equal("Stew", patched.Title)
	s.Equal(60, patched.CookTimeMinutes)

	resp, body = s.do(fiber.MethodPut, path, s.aliceKey, fiber.Map{"title": "Beef stew", "cook_time_minutes": 90, "price": "12.50"})
	s.Require().Equal(fiber.StatusOK, resp.StatusCode, string(body))
	var put RecipeDetailResponse
	s.Require().NoError(json.Unmarshal(body, &put))
	s.Equal("Beef stew", put.Title)
	s.Equal("12.50", put.Price)
	s.Empty(put.Tags)

	resp, _ = s.do(fiber.MethodPatch, path, s.bobKey, fiber.Map{"title": "Mine"})
	s.Equal(fiber.StatusNotFound, resp.StatusCode)
}

func (s *RecipeAPITestSuite) TestDeleteRecipe() {
	r := s.createRecipe(s.aliceKey, fiber.Map{"title": "Salad", "cook_time_minutes": 5, "price": "3.00"})
	path := "/api/recipe/recipes/" + r.ID.String()

	resp, _ := s.do(fiber.MethodDelete, path, s.bobKey, nil)
	s.Equal(fiber.StatusNotFound, resp.StatusCode)

	resp, _ = s.do(fiber.MethodDelete, path, s.aliceKey, nil)
	s.Equal(fiber.StatusNoContent, resp.StatusCode)

	resp, _ = s.do(fiber.MethodGet, path, s.aliceKey, nil)
	s.Equal(fiber.StatusNotFound, resp.StatusCode)
}

func (s *RecipeAPITestSuite) TestUploadImage() {
	r := s.createRecipe(s.aliceKey, fiber.Map{"title": "Pizza", "cook_time_minutes": 20, "price": "8.00"})
	path := "/api/recipe/recipes/" + r.ID.String() + "/upload-image"

	resp, body := s.upload(path, s.aliceKey, "pizza.png", pngBytes(16, 16))
	s.Require().Equal(fiber.StatusOK, resp.StatusCode, string(body))
	var uploaded RecipeImageResponse
	s.Require().NoError(json.Unmarshal(body, &uploaded))
	s.Regexp(`^uploads/recipe/[0-9a-f-]{36}\.png$`, uploaded.Image)

	resp, _ = s.upload(path, s.aliceKey, "pizza.png", []byte("notanimage"))
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)

	resp, body = s.do(fiber.MethodGet, "/api/recipe/recipes/"+r.ID.String(), s.aliceKey, nil)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	var got RecipeDetailResponse
	s.Require().NoError(json.Unmarshal(body, &got))
	s.Require().NotNil(got.Image)
	s.Equal(uploaded.Image, *got.Image)

	resp, _ = s.upload(path, s.bobKey, "pizza.png", pngBytes(16, 16))
	s.Equal(fiber.StatusNotFound, resp.StatusCode)
}

func (s *RecipeAPITestSuite) TestParseIDList() {
	a, b := uuid.New(), uuid.New()
	ids, err := parseIDList(fmt.Sprintf("%s, %s,,%s", a, b, a))
	s.Require().NoError(err)
	s.Equal([]uuid.UUID{a, b}, ids)

	ids, err = parseIDList("")
	s.NoError(err)
	s.Nil(ids)

	_, err = parseIDList("1,2")
	s.Error(err)
}
