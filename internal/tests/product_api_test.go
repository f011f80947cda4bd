// internal/tests/product_api_test.go
package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/layerhub/marketplace-backend/internal/config"
	"github.com/layerhub/marketplace-backend/internal/i18n"
	"github.com/layerhub/marketplace-backend/internal/repository"
	"github.com/layerhub/marketplace-backend/internal/router"
	"github.com/layerhub/marketplace-backend/internal/services"
	"github.com/layerhub/marketplace-backend/internal/utils"
)

const publicUploads = "http://api.test/uploads"

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
	Meta json.RawMessage `json:"meta"`
}

type productBody struct {
	ID       string   `json:"id"`
	Slug     string   `json:"slug"`
	Name     string   `json:"name"`
	Images   []string `json:"images"`
	Delivery struct {
		DeliveryTypes []struct {
			Type  string          `json:"type"`
			Price json.RawMessage `json:"price"`
		} `json:"deliveryTypes"`
		SelfCollectLocation []string `json:"selfCollectLocation"`
	} `json:"delivery"`
}

type formFile struct {
	field, name, contentType, content string
}

type ProductAPITestSuite struct {
	suite.Suite
	router     *gin.Engine
	uploadDir  string
	identity   *httptest.Server
	onboarding []byte
	token      string
	otherToken string
}

func (suite *ProductAPITestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	suite.Require().NoError(i18n.Initialize())

	suite.identity = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v1/users/user_creator":
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"id":"user_creator","first_name":"Ada","last_name":"Lim","image_url":"https://img.test/ada.png","created_at":1700000000000}`)
		case r.Method == http.MethodPatch && r.URL.Path == "/v1/users/user_creator/metadata":
			suite.onboarding, _ = io.ReadAll(r.Body)
			io.WriteString(w, `{}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func (suite *ProductAPITestSuite) TearDownSuite() {
	suite.identity.Close()
}

func (suite *ProductAPITestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	suite.Require().NoError(err)
	sqlDB, err := db.DB()
	suite.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)

	repo := repository.NewGormProductRepository(db)
	suite.Require().NoError(repo.AutoMigrate())

	suite.uploadDir = suite.T().TempDir()
	storage := services.NewLocalStorageService(suite.uploadDir, publicUploads)

	cfg := &config.Config{
		Environment: "test",
		JWT:         config.JWTConfig{SecretKey: "test-secret"},
		Identity: config.IdentityConfig{
			BaseURL:     suite.identity.URL,
			SecretKey:   "sk_test",
			Timeout:     time.Second,
			MaxFailures: 5,
			OpenTimeout: time.Minute,
		},
		Upload: config.UploadConfig{
			LocalDir:          suite.uploadDir,
			MaxImages:         7,
			ModelWarnBytes:    25 << 20,
			ModelMaxBytes:     50 << 20,
			RateLimitRequests: 1000,
			RateLimitWindow:   time.Minute,
		},
		Slug: config.SlugConfig{MaxAttempts: 50},
	}
	ctx, cancel := context.WithCancel(context.Background())
	suite.T().Cleanup(cancel)
	suite.router = router.Initialize(ctx, cfg, repo, storage)

	suite.token, err = utils.GenerateJWT("user_creator", "Ada Lim", 1)
	suite.Require().NoError(err)
	suite.otherToken, err = utils.GenerateJWT("user_other", "Eve Tan", 1)
	suite.Require().NoError(err)
}

func (suite *ProductAPITestSuite) productFields() map[string][]string {
	return map[string][]string{
		"name":                  {"Cool Dragon Model"},
		"description":           {"An articulated dragon"},
		"category":              {"Display"},
		"subcategory":           {"Figurines"},
		"productType":           {"print"},
		"price":                 {"12.5"},
		"priceCredits":          {"100"},
		"stock":                 {"3"},
		"variants[]":            {"Red", "Blue"},
		"deliveryTypes":         {`[{"type":"singpost","price":{"fee":0,"royalty":1}},{"type":"self-collect","price":0}]`},
		"selfCollectLocation[]": {"Bishan"},
		"dimensions":            {`{"length":500,"width":300,"height":200,"weight":5}`},
	}
}

func (suite *ProductAPITestSuite) send(method, target, token string, body io.Reader, contentType string) (*httptest.ResponseRecorder, apiResponse) {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	var response apiResponse
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	}
	return w, response
}

func (suite *ProductAPITestSuite) sendJSON(method, target, token string, payload interface{}) (*httptest.ResponseRecorder, apiResponse) {
	data, err := json.Marshal(payload)
	suite.Require().NoError(err)
	return suite.send(method, target, token, bytes.NewReader(data), "application/json")
}

func (suite *ProductAPITestSuite) sendForm(method, token string, fields map[string][]string, files ...formFile) (*httptest.ResponseRecorder, apiResponse) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, values := range fields {
		for _, v := range values {
			suite.Require().NoError(mw.WriteField(key, v))
		}
	}
	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.name+`"`)
		header.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(header)
		suite.Require().NoError(err)
		_, err = io.WriteString(part, f.content)
		suite.Require().NoError(err)
	}
	suite.Require().NoError(mw.Close())

	return suite.send(method, "/v1/product", token, &buf, mw.FormDataContentType())
}

func (suite *ProductAPITestSuite) createProduct(files ...formFile) productBody {
	w, response := suite.sendForm(http.MethodPost, suite.token, suite.productFields(), files...)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var data struct {
		Product productBody `json:"product"`
	}
	suite.Require().NoError(json.Unmarshal(response.Data, &data))
	return data.Product
}

func (suite *ProductAPITestSuite) storedPath(fileURL string) string {
	key := strings.TrimPrefix(fileURL, publicUploads+"/")
	return filepath.Join(suite.uploadDir, filepath.FromSlash(key))
}

func (suite *ProductAPITestSuite) TestHealth() {
	w, _ := suite.send(http.MethodGet, "/health", "", nil, "")
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *ProductAPITestSuite) TestCreateAndFetchProduct() {
	product := suite.createProduct(formFile{"images", "front.png", "image/png", "png-bytes"})

	suite.Equal("cool-dragon-model", product.Slug)
	suite.Require().Len(product.Images, 1)
	suite.True(strings.HasPrefix(product.Images[0], publicUploads+"/product-images/"))
	suite.True(strings.HasSuffix(product.Images[0], ".png"))

	suite.Require().Len(product.Delivery.DeliveryTypes, 2)
	suite.Equal("singpost", product.Delivery.DeliveryTypes[0].Type)
	suite.JSONEq(`{"fee":6,"royalty":1}`, string(product.Delivery.DeliveryTypes[0].Price))
	suite.JSONEq(`0`, string(product.Delivery.DeliveryTypes[1].Price))
	suite.Equal([]string{"Bishan"}, product.Delivery.SelfCollectLocation)

	content, err := os.ReadFile(suite.storedPath(product.Images[0]))
	suite.Require().NoError(err)
	suite.Equal("png-bytes", string(content))

	w, response := suite.send(http.MethodGet, "/v1/products/cool-dragon-model", "", nil, "")
	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(string(response.Data), product.ID)

	// The same name gets the next free slug.
	second := suite.createProduct()
	suite.Equal("cool-dragon-model-2", second.Slug)
}

func (suite *ProductAPITestSuite) TestCreateProductRequiresAuth() {
	w, response := suite.sendForm(http.MethodPost, "", suite.productFields())
	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.Equal("UNAUTHORIZED", response.Error.Code)
}

func (suite *ProductAPITestSuite) TestCreateProductValidation() {
	fields := suite.productFields()
	fields["name"] = []string{""}
	fields["stock"] = []string{"many"}
	fields["dimensions"] = []string{`{"length":2000,"width":10,"height":10,"weight":1}`}
	fields["selfCollectLocation[]"] = []string{" "}

	w, response := suite.sendForm(http.MethodPost, suite.token, fields)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("VALIDATION_ERROR", response.Error.Code)

	var details []string
	suite.Require().NoError(json.Unmarshal(response.Error.Details, &details))
	suite.Equal([]string{
		services.MsgProductName,
		services.MsgStock,
		services.MsgSingpostNoTier,
		services.MsgSelfCollect,
	}, details)
}

func (suite *ProductAPITestSuite) TestCreateProductRejectsMalformedSingpostPrice() {
	fields := suite.productFields()
	fields["deliveryTypes"] = []string{`[{"type":"singpost","price":"six"}]`}

	w, response := suite.sendForm(http.MethodPost, suite.token, fields)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Contains(string(response.Error.Details), "Valid SingPost Fee and Royalty")
}

func (suite *ProductAPITestSuite) TestCreateProductReportsDecodeAndFieldProblemsTogether() {
	fields := suite.productFields()
	fields["name"] = []string{""}
	fields["description"] = []string{""}
	fields["deliveryTypes"] = []string{`[{"type":"singpost","price":"six"}]`}
	fields["dimensions"] = []string{`{"length":"long"}`}

	w, response := suite.sendForm(http.MethodPost, suite.token, fields)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("VALIDATION_ERROR", response.Error.Code)

	var details []string
	suite.Require().NoError(json.Unmarshal(response.Error.Details, &details))
	suite.Equal([]string{
		services.MsgProductName,
		services.MsgDescription,
		services.MsgSingpostPrice,
		services.MsgDimensions,
	}, details)
}

func (suite *ProductAPITestSuite) TestUpdateRejectsUnreadableUpdatedAt() {
	product := suite.createProduct()

	fields := suite.productFields()
	fields["id"] = []string{product.ID}
	fields["name"] = []string{"Renamed"}
	fields["updatedAt"] = []string{"yesterday"}

	w, response := suite.sendForm(http.MethodPut, suite.token, fields)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Contains(string(response.Error.Details), services.MsgUpdatedAt)

	w, response = suite.send(http.MethodGet, "/v1/products/"+product.Slug, "", nil, "")
	suite.Equal(http.StatusOK, w.Code)
	suite.NotContains(string(response.Data), "Renamed")
}

func (suite *ProductAPITestSuite) TestUpdateWithSameNameKeepsSlug() {
	first := suite.createProduct()
	second := suite.createProduct()
	suite.Require().Equal("cool-dragon-model-2", second.Slug)

	w, _ := suite.send(http.MethodDelete, "/v1/product?id="+first.ID, suite.token, nil, "")
	suite.Require().Equal(http.StatusOK, w.Code)

	fields := suite.productFields()
	fields["id"] = []string{second.ID}
	w, response := suite.sendForm(http.MethodPut, suite.token, fields)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var data struct {
		Product productBody `json:"product"`
	}
	suite.Require().NoError(json.Unmarshal(response.Data, &data))
	suite.Equal("cool-dragon-model-2", data.Product.Slug)
}

func (suite *ProductAPITestSuite) TestUpdateReplacesImages() {
	product := suite.createProduct(
		formFile{"images", "a.png", "image/png", "first"},
		formFile{"images", "b.png", "image/png", "second"},
	)
	suite.Require().Len(product.Images, 2)

	fields := suite.productFields()
	fields["id"] = []string{product.ID}
	fields["name"] = []string{"Dragon Deluxe"}
	fields["existingImages[]"] = []string{product.Images[1]}

	w, response := suite.sendForm(http.MethodPut, suite.token, fields, formFile{"images", "c.jpg", "image/jpeg", "third"})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var data struct {
		Product productBody `json:"product"`
	}
	suite.Require().NoError(json.Unmarshal(response.Data, &data))
	suite.Equal("dragon-deluxe", data.Product.Slug)
	suite.Require().Len(data.Product.Images, 2)
	suite.Equal(product.Images[1], data.Product.Images[0])

	suite.NoFileExists(suite.storedPath(product.Images[0]))
	suite.FileExists(suite.storedPath(product.Images[1]))
	suite.FileExists(suite.storedPath(data.Product.Images[1]))
}

func (suite *ProductAPITestSuite) TestUpdateByAnotherUserIsForbidden() {
	product := suite.createProduct()

	fields := suite.productFields()
	fields["id"] = []string{product.ID}

	w, response := suite.sendForm(http.MethodPut, suite.otherToken, fields)
	suite.Equal(http.StatusForbidden, w.Code)
	suite.Equal("FORBIDDEN", response.Error.Code)
}

func (suite *ProductAPITestSuite) TestUpdateRequiresID() {
	w, _ := suite.sendForm(http.MethodPut, suite.token, suite.productFields())
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *ProductAPITestSuite) TestStaleUpdateConflicts() {
	product := suite.createProduct()

	fields := suite.productFields()
	fields["id"] = []string{product.ID}
	fields["updatedAt"] = []string{"2020-01-01T00:00:00Z"}

	w, response := suite.sendForm(http.MethodPut, suite.token, fields)
	suite.Equal(http.StatusConflict, w.Code)
	suite.Equal("CONFLICT", response.Error.Code)
}

func (suite *ProductAPITestSuite) TestDeleteProduct() {
	product := suite.createProduct(formFile{"models", "dragon.stl", "model/stl", "solid dragon"})

	w, _ := suite.send(http.MethodDelete, "/v1/product?id="+url.QueryEscape(product.ID), suite.otherToken, nil, "")
	suite.Equal(http.StatusForbidden, w.Code)

	w, _ = suite.send(http.MethodDelete, "/v1/product?id="+url.QueryEscape(product.ID), suite.token, nil, "")
	suite.Equal(http.StatusOK, w.Code)

	w, response := suite.send(http.MethodGet, "/v1/products/"+product.Slug, "", nil, "")
	suite.Equal(http.StatusNotFound, w.Code)
	suite.Equal("NOT_FOUND", response.Error.Code)

	entries, err := os.ReadDir(filepath.Join(suite.uploadDir, "product-models"))
	suite.Require().NoError(err)
	suite.Empty(entries)
}

func (suite *ProductAPITestSuite) TestListProducts() {
	suite.createProduct()
	suite.createProduct()

	w, response := suite.send(http.MethodGet, "/v1/product?creatorId=user_creator", "", nil, "")
	suite.Equal(http.StatusOK, w.Code)
	var products []productBody
	suite.Require().NoError(json.Unmarshal(response.Data, &products))
	suite.Len(products, 2)

	w, response = suite.send(http.MethodGet, "/v1/product?page=2&limit=1", "", nil, "")
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("2", w.Header().Get("X-Total-Count"))
	suite.Require().NoError(json.Unmarshal(response.Data, &products))
	suite.Len(products, 1)

	w, response = suite.send(http.MethodGet, "/v1/product?category=Games", "", nil, "")
	suite.Equal(http.StatusOK, w.Code)
	suite.JSONEq(`[]`, string(response.Data))
}

func (suite *ProductAPITestSuite) TestLikeProduct() {
	product := suite.createProduct()
	target := "/v1/product/" + product.ID + "/like"

	w, response := suite.sendJSON(http.MethodPost, target, suite.otherToken, map[string]string{"action": "like"})
	suite.Equal(http.StatusOK, w.Code)
	suite.JSONEq(`{"liked":true,"likeCount":1}`, string(response.Data))

	w, response = suite.sendJSON(http.MethodPost, target, suite.otherToken, map[string]string{"action": "unlike", "userId": "user_other"})
	suite.Equal(http.StatusOK, w.Code)
	suite.JSONEq(`{"liked":false,"likeCount":0}`, string(response.Data))

	w, _ = suite.sendJSON(http.MethodPost, target, suite.otherToken, map[string]string{"action": "love"})
	suite.Equal(http.StatusBadRequest, w.Code)

	w, _ = suite.sendJSON(http.MethodPost, target, suite.otherToken, map[string]string{"action": "like", "userId": "user_creator"})
	suite.Equal(http.StatusForbidden, w.Code)

	w, _ = suite.sendJSON(http.MethodPost, "/v1/product/missing/like", suite.otherToken, map[string]string{"action": "like"})
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *ProductAPITestSuite) TestSingpostQuote() {
	w, response := suite.sendJSON(http.MethodPost, "/v1/shipping/singpost/quote", "", map[string]float64{
		"length": 200, "width": 100, "height": 50, "weight": 1,
	})
	suite.Equal(http.StatusOK, w.Code)
	suite.JSONEq(`{"fee":3}`, string(response.Data))

	w, response = suite.sendJSON(http.MethodPost, "/v1/shipping/singpost/quote", "", map[string]float64{
		"length": 2000, "width": 10, "height": 10, "weight": 1,
	})
	suite.Equal(http.StatusUnprocessableEntity, w.Code)
	suite.Equal("NO_SINGPOST_TIER", response.Error.Code)

	w, _ = suite.sendJSON(http.MethodPost, "/v1/shipping/singpost/quote", "", map[string]float64{"length": 10})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *ProductAPITestSuite) TestCategories() {
	w, response := suite.send(http.MethodGet, "/v1/categories?productType=other", "", nil, "")
	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(string(response.Data), "Filament")

	w, _ = suite.send(http.MethodGet, "/v1/categories?productType=sculpture", "", nil, "")
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *ProductAPITestSuite) TestPublicProfile() {
	w, response := suite.send(http.MethodGet, "/v1/users/user_creator", "", nil, "")
	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(string(response.Data), `"fullName":"Ada Lim"`)

	w, _ = suite.send(http.MethodGet, "/v1/users/user_ghost", "", nil, "")
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *ProductAPITestSuite) TestOnboarding() {
	w, _ := suite.sendJSON(http.MethodPost, "/v1/onboarding", suite.token, map[string]string{"role": "Creator", "plan": "Hobbyist"})
	suite.Equal(http.StatusOK, w.Code)
	suite.JSONEq(`{"public_metadata":{"onboardingComplete":true,"role":"Creator","plan":"Hobbyist"}}`, string(suite.onboarding))

	w, _ = suite.sendJSON(http.MethodPost, "/v1/onboarding", suite.token, map[string]string{"role": "Admin"})
	suite.Equal(http.StatusBadRequest, w.Code)

	w, _ = suite.sendJSON(http.MethodPost, "/v1/onboarding", suite.token, map[string]string{"role": "Creator", "plan": "Gold"})
	suite.Equal(http.StatusBadRequest, w.Code)

	w, _ = suite.sendJSON(http.MethodPost, "/v1/onboarding", "", map[string]string{"role": "Customer"})
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func TestProductAPISuite(t *testing.T) {
	suite.Run(t, new(ProductAPITestSuite))
}
