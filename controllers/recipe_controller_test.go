package controllers

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/spadellando/ricettario/middleware"
	"github.com/spadellando/ricettario/models"
	"github.com/spadellando/ricettario/repository"
	"github.com/spadellando/ricettario/utils"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type recipePayload struct {
	Recipe models.Recipe `json:"recipe"`
}

type listPayload struct {
	Items []models.Recipe `json:"items"`
	Count int             `json:"count"`
}

func newTestServer(t *testing.T) (*gin.Engine, *utils.ImageStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "catalog.db")), &gorm.Config{
		Logger: logger.Discard,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Recipe{}, &models.RecipeView{}))

	images, err := utils.NewImageStore(t.TempDir())
	require.NoError(t, err)

	repo := repository.NewRecipeRepository(db, images)
	recipeController := NewRecipeController(repo, images)
	metaController := NewMetaController()
	statsController := NewStatsController(db, repo)

	r := gin.New()
	api := r.Group("/api/v1")
	api.GET("/recipes", recipeController.ListRecipes)
	api.GET("/recipes/:id", middleware.RecipeViewRecorder(db), recipeController.GetRecipe)
	api.GET("/tags", recipeController.ListTags)
	api.GET("/meta", metaController.GetMeta)
	api.GET("/stats", statsController.GetStats)
	api.POST("/recipes", recipeController.CreateRecipe)
	api.PUT("/recipes/:id", recipeController.UpdateRecipe)
	api.DELETE("/recipes/:id", recipeController.DeleteRecipe)
	return r, images
}

func recipeForm(t *testing.T, fields map[string]string, tags []string, imageName string, imageData []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, w.WriteField(key, value))
	}
	for _, tag := range tags {
		require.NoError(t, w.WriteField("tags", tag))
	}
	if imageName != "" {
		fw, err := w.CreateFormFile("image", imageName)
		require.NoError(t, err)
		_, err = fw.Write(imageData)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func doRequest(r *gin.Engine, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, body)
		req.Header.Set("Content-Type", contentType)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func createRecipe(t *testing.T, r *gin.Engine, fields map[string]string, tags []string) models.Recipe {
	t.Helper()
	body, ct := recipeForm(t, fields, tags, "", nil)
	rec := doRequest(r, http.MethodPost, "/api/v1/recipes", body, ct)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var payload recipePayload
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &payload))
	return payload.Recipe
}

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 80, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCreateRecipe(t *testing.T) {
	r, _ := newTestServer(t)

	recipe := createRecipe(t, r, map[string]string{
		"title":        "Pasta e ceci",
		"ingredients":  "pasta, ceci, rosmarino",
		"steps":        "soffriggere, unire i ceci, cuocere la pasta",
		"prep_minutes": "35",
	}, []string{"Primo", "primo", "Comfort food, Veloce"})

	assert.NotZero(t, recipe.ID)
	assert.Equal(t, "Pasta e ceci", recipe.Title)
	assert.Equal(t, []string{"Primo", "Comfort food", "Veloce"}, recipe.TagNames)
	assert.Equal(t, "🍝", recipe.Emoji)
	require.NotNil(t, recipe.PrepMinutes)
	assert.Equal(t, 35, *recipe.PrepMinutes)
	assert.True(t, recipe.CreatedAt.Equal(recipe.UpdatedAt))

	rec := doRequest(r, http.MethodGet, "/api/v1/recipes/1", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateRecipeValidation(t *testing.T) {
	r, _ := newTestServer(t)

	tests := []struct {
		name     string
		fields   map[string]string
		wantCode int
	}{
		{"missing title", map[string]string{"ingredients": "x", "steps": "y"}, 40010},
		{"blank title", map[string]string{"title": "   ", "ingredients": "x", "steps": "y"}, 40010},
		{"missing ingredients", map[string]string{"title": "x", "steps": "y"}, 40010},
		{"missing steps", map[string]string{"title": "x", "ingredients": "y"}, 40010},
		{"non-numeric prep minutes", map[string]string{"title": "x", "ingredients": "y", "steps": "z", "prep_minutes": "tanti"}, 40012},
		{"negative prep minutes", map[string]string{"title": "x", "ingredients": "y", "steps": "z", "prep_minutes": "-5"}, 40012},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := recipeForm(t, tt.fields, nil, "", nil)
			rec := doRequest(r, http.MethodPost, "/api/v1/recipes", body, ct)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantCode, decodeEnvelope(t, rec).Code)
		})
	}
}

func TestCreateRecipeStripsMarkup(t *testing.T) {
	r, _ := newTestServer(t)

	recipe := createRecipe(t, r, map[string]string{
		"title":       "Torta <script>alert('x')</script>della nonna",
		"ingredients": "farina & zucchero",
		"steps":       "mescolare <b>bene</b>",
	}, nil)

	assert.Equal(t, "Torta della nonna", recipe.Title)
	assert.Equal(t, "farina & zucchero", recipe.Ingredients)
	assert.Equal(t, "mescolare bene", recipe.Steps)
}

func TestCreateRecipeWithImage(t *testing.T) {
	r, images := newTestServer(t)

	body, ct := recipeForm(t, map[string]string{
		"title":       "Crostata",
		"ingredients": "frolla, marmellata",
		"steps":       "stendere e infornare",
	}, nil, "crostata.png", tinyPNG(t))
	rec := doRequest(r, http.MethodPost, "/api/v1/recipes", body, ct)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var payload recipePayload
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &payload))
	require.NotEmpty(t, payload.Recipe.ImagePath)
	assert.Equal(t, ".png", filepath.Ext(payload.Recipe.ImagePath))
	assert.FileExists(t, images.Path(payload.Recipe.ImagePath))
}

func TestCreateRecipeWithBrokenImageStillSaves(t *testing.T) {
	r, _ := newTestServer(t)

	body, ct := recipeForm(t, map[string]string{
		"title":       "Frittata",
		"ingredients": "uova",
		"steps":       "sbattere e cuocere",
	}, nil, "rotta.png", []byte("non sono un png"))
	rec := doRequest(r, http.MethodPost, "/api/v1/recipes", body, ct)
	require.Equal(t, http.StatusCreated, rec.Code)

	var payload recipePayload
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &payload))
	assert.Empty(t, payload.Recipe.ImagePath, "an unusable photo must not block the recipe")
}

func TestGetRecipeErrors(t *testing.T) {
	r, _ := newTestServer(t)

	rec := doRequest(r, http.MethodGet, "/api/v1/recipes/999", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 40401, decodeEnvelope(t, rec).Code)

	rec = doRequest(r, http.MethodGet, "/api/v1/recipes/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 40001, decodeEnvelope(t, rec).Code)
}

func TestUpdateRecipe(t *testing.T) {
	r, _ := newTestServer(t)

	created := createRecipe(t, r, map[string]string{
		"title":        "Gnocchi",
		"ingredients":  "patate, farina",
		"steps":        "impastare e bollire",
		"prep_minutes": "50",
	}, []string{"Primo"})

	body, ct := recipeForm(t, map[string]string{
		"title":       "Gnocchi al gorgonzola",
		"ingredients": "patate, farina, gorgonzola",
		"steps":       "impastare, bollire, mantecare",
	}, []string{"Primo", "Comfort food"}, "", nil)
	rec := doRequest(r, http.MethodPut, "/api/v1/recipes/1", body, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var payload recipePayload
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &payload))
	updated := payload.Recipe
	assert.Equal(t, "Gnocchi al gorgonzola", updated.Title)
	assert.Equal(t, []string{"Primo", "Comfort food"}, updated.TagNames)
	assert.Nil(t, updated.PrepMinutes, "omitting prep_minutes clears it")
	assert.WithinDuration(t, created.CreatedAt, updated.CreatedAt, time.Millisecond, "created_at must survive updates")
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
}

func TestUpdateRecipeReplacesImage(t *testing.T) {
	r, images := newTestServer(t)

	body, ct := recipeForm(t, map[string]string{
		"title":       "Plumcake",
		"ingredients": "farina, uova, burro",
		"steps":       "montare e infornare",
	}, nil, "prima.png", tinyPNG(t))
	rec := doRequest(r, http.MethodPost, "/api/v1/recipes", body, ct)
	require.Equal(t, http.StatusCreated, rec.Code)
	var payload recipePayload
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &payload))
	oldImage := payload.Recipe.ImagePath
	require.NotEmpty(t, oldImage)

	// replacing the photo swaps the file
	body, ct = recipeForm(t, map[string]string{
		"title":       "Plumcake",
		"ingredients": "farina, uova, burro",
		"steps":       "montare e infornare",
	}, nil, "dopo.png", tinyPNG(t))
	rec = doRequest(r, http.MethodPut, "/api/v1/recipes/1", body, ct)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &payload))
	newImage := payload.Recipe.ImagePath
	assert.NotEqual(t, oldImage, newImage)
	assert.NoFileExists(t, images.Path(oldImage), "replaced photo should be cleaned up")
	assert.FileExists(t, images.Path(newImage))

	// updating without an upload keeps the current photo
	body, ct = recipeForm(t, map[string]string{
		"title":       "Plumcake allo yogurt",
		"ingredients": "farina, uova, yogurt",
		"steps":       "montare e infornare",
	}, nil, "", nil)
	rec = doRequest(r, http.MethodPut, "/api/v1/recipes/1", body, ct)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &payload))
	assert.Equal(t, newImage, payload.Recipe.ImagePath)
}

func TestUpdateRecipeNotFound(t *testing.T) {
	r, _ := newTestServer(t)

	// existence wins over form validation
	body, ct := recipeForm(t, map[string]string{}, nil, "", nil)
	rec := doRequest(r, http.MethodPut, "/api/v1/recipes/77", body, ct)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 40402, decodeEnvelope(t, rec).Code)
}

func TestDeleteRecipe(t *testing.T) {
	r, images := newTestServer(t)

	body, ct := recipeForm(t, map[string]string{
		"title":       "Arrosto",
		"ingredients": "vitello, rosmarino",
		"steps":       "rosolare e cuocere",
	}, nil, "arrosto.png", tinyPNG(t))
	rec := doRequest(r, http.MethodPost, "/api/v1/recipes", body, ct)
	require.Equal(t, http.StatusCreated, rec.Code)
	var payload recipePayload
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &payload))
	imageName := payload.Recipe.ImagePath

	rec = doRequest(r, http.MethodDelete, "/api/v1/recipes/1", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(r, http.MethodGet, "/api/v1/recipes/1", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoFileExists(t, images.Path(imageName))

	rec = doRequest(r, http.MethodDelete, "/api/v1/recipes/1", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 40403, decodeEnvelope(t, rec).Code)
}

func TestListRecipes(t *testing.T) {
	r, _ := newTestServer(t)

	createRecipe(t, r, map[string]string{
		"title": "Pizza margherita", "ingredients": "farina, pomodoro, mozzarella", "steps": "stendere e infornare",
	}, []string{"Pizza"})
	createRecipe(t, r, map[string]string{
		"title": "Poke vegano", "ingredients": "riso, avocado, edamame", "steps": "comporre la bowl",
	}, []string{"Vegano", "Fresco"})
	createRecipe(t, r, map[string]string{
		"title": "Zuppa di farro", "ingredients": "farro, verdure", "steps": "bollire a lungo",
	}, []string{"Zuppa", "Invernale"})

	rec := doRequest(r, http.MethodGet, "/api/v1/recipes", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var payload listPayload
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &payload))
	require.Equal(t, 3, payload.Count)
	assert.Equal(t, "Zuppa di farro", payload.Items[0].Title, "newest update first")

	rec = doRequest(r, http.MethodGet, "/api/v1/recipes?search=avocado", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &payload))
	require.Equal(t, 1, payload.Count)
	assert.Equal(t, "Poke vegano", payload.Items[0].Title)

	rec = doRequest(r, http.MethodGet, "/api/v1/recipes?tags=vegano,fresco", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &payload))
	require.Equal(t, 1, payload.Count)

	rec = doRequest(r, http.MethodGet, "/api/v1/recipes?search=farina&tags=Pizza", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &payload))
	require.Equal(t, 1, payload.Count)
	assert.Equal(t, "Pizza margherita", payload.Items[0].Title)
}

func TestListTags(t *testing.T) {
	r, _ := newTestServer(t)

	createRecipe(t, r, map[string]string{
		"title": "Pizza bianca", "ingredients": "farina", "steps": "infornare",
	}, []string{"Pizza"})
	createRecipe(t, r, map[string]string{
		"title": "Pizza dolce", "ingredients": "farina, zucchero", "steps": "infornare",
	}, []string{"pizza", "Dolce"})

	rec := doRequest(r, http.MethodGet, "/api/v1/tags", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var payload struct {
		Tags []string `json:"tags"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &payload))
	assert.Equal(t, []string{"Dolce", "Pizza"}, payload.Tags)
}

func TestGetMeta(t *testing.T) {
	r, _ := newTestServer(t)

	rec := doRequest(r, http.MethodGet, "/api/v1/meta", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Title           string                 `json:"title"`
		Tagline         string                 `json:"tagline"`
		SuggestedTags   []models.TagSuggestion `json:"suggested_tags"`
		DefaultTagEmoji string                 `json:"default_tag_emoji"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &payload))
	assert.NotEmpty(t, payload.Title)
	assert.Equal(t, models.DefaultTagEmoji, payload.DefaultTagEmoji)
	assert.Equal(t, models.SuggestedTags, payload.SuggestedTags)
}

func TestGetStats(t *testing.T) {
	r, _ := newTestServer(t)

	createRecipe(t, r, map[string]string{
		"title": "Caponata", "ingredients": "melanzane", "steps": "friggere",
	}, []string{"Contorno", "Estivo"})
	createRecipe(t, r, map[string]string{
		"title": "Pesto", "ingredients": "basilico", "steps": "frullare",
	}, []string{"Contorno"})

	// two detail reads bump the view counters
	doRequest(r, http.MethodGet, "/api/v1/recipes/1", nil, "")
	doRequest(r, http.MethodGet, "/api/v1/recipes/1", nil, "")

	rec := doRequest(r, http.MethodGet, "/api/v1/stats", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		RecipeCount int64 `json:"recipe_count"`
		TagCount    int   `json:"tag_count"`
		ViewsToday  int64 `json:"views_today"`
		ViewsTotal  int64 `json:"views_total"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &payload))
	assert.EqualValues(t, 2, payload.RecipeCount)
	assert.Equal(t, 2, payload.TagCount)
	assert.EqualValues(t, 2, payload.ViewsToday)
	assert.EqualValues(t, 2, payload.ViewsTotal)
}
