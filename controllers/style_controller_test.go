package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/aaryan/garment-styles-api/config"
	"github.com/aaryan/garment-styles-api/models"
	"github.com/aaryan/garment-styles-api/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := db.AutoMigrate(&models.Style{}); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	config.SetDB(db)
	config.SetConfig(&config.Config{AdminMerchant: "Harsh Lalwani"})
	return db
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	return router
}

// mockMerchantMiddleware seeds the resolved merchant identity the same way
// GetMerchant caches it after a /userinfo lookup.
func mockMerchantMiddleware(merchant string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("merchant", merchant)
		c.Next()
	}
}

func seedStyle(t *testing.T, db *gorm.DB, merchant string, input services.StyleInput) *models.Style {
	t.Helper()
	style, err := services.NewStyleStore(db).Create(merchant, input)
	require.NoError(t, err)
	return style
}

func doJSON(router *gin.Engine, method, path string, payload interface{}) *httptest.ResponseRecorder {
	var body *bytes.Buffer
	if payload != nil {
		raw, _ := json.Marshal(payload)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), "Response body: %s", w.Body.String())
	return response
}

func TestCreateStyle(t *testing.T) {
	tests := []struct {
		name           string
		payload        map[string]string
		expectedStatus int
		expectedCode   string
		expectedTotal  interface{}
	}{
		{
			name: "Create style successfully",
			payload: map[string]string{
				"brand": "Zara", "style_no": "Z-101", "garment": "Kurta", "colour": "Red",
				"total_qty": "500", "dispatch_date": "2026-09-15",
			},
			expectedStatus: http.StatusCreated,
			expectedTotal:  float64(500),
		},
		{
			name: "Unparseable total quantity degrades to absent",
			payload: map[string]string{
				"brand": "Zara", "style_no": "Z-102", "garment": "Shirt", "colour": "Blue",
				"total_qty": "lots",
			},
			expectedStatus: http.StatusCreated,
			expectedTotal:  nil,
		},
		{
			name: "Negative total quantity degrades to absent",
			payload: map[string]string{
				"brand": "Zara", "style_no": "Z-103", "garment": "Shirt", "colour": "Blue",
				"total_qty": "-5",
			},
			expectedStatus: http.StatusCreated,
			expectedTotal:  nil,
		},
		{
			name: "Fail with missing brand",
			payload: map[string]string{
				"style_no": "Z-104", "garment": "Shirt", "colour": "Blue",
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTestDB(t)

			router := setupTestRouter()
			router.POST("/styles", mockMerchantMiddleware("Megha"), CreateStyle)

			w := doJSON(router, http.MethodPost, "/styles", tt.payload)

			assert.Equal(t, tt.expectedStatus, w.Code, "Response body: %s", w.Body.String())

			response := decodeResponse(t, w)
			if tt.expectedStatus == http.StatusCreated {
				assert.True(t, response["success"].(bool))
				data := response["data"].(map[string]interface{})
				assert.Equal(t, "Megha", data["merchant"])
				assert.Equal(t, float64(0), data["stage"])
				assert.Equal(t, true, data["active"])
				assert.Equal(t, tt.expectedTotal, data["total_qty"])
			} else {
				assert.False(t, response["success"].(bool))
				errorData := response["error"].(map[string]interface{})
				assert.Equal(t, tt.expectedCode, errorData["code"])
			}
		})
	}
}

func TestListStyles(t *testing.T) {
	db := setupTestDB(t)
	seedStyle(t, db, "Megha", services.StyleInput{Brand: "Zara", StyleNo: "Z-101", Garment: "Kurta", Colour: "Red"})
	seedStyle(t, db, "Ravi", services.StyleInput{Brand: "H&M", StyleNo: "H-201", Garment: "Shirt", Colour: "Blue"})

	router := setupTestRouter()
	router.GET("/styles", mockMerchantMiddleware("Megha"), ListStyles)

	w := doJSON(router, http.MethodGet, "/styles", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	response := decodeResponse(t, w)
	assert.True(t, response["success"].(bool))
	data := response["data"].([]interface{})
	require.Len(t, data, 1, "Only the caller's styles are listed")
	line := data[0].(map[string]interface{})
	assert.Equal(t, "Zara • Z-101 • Kurta • Red • Pre-fit", line["text"])
}

func TestGetStyle(t *testing.T) {
	db := setupTestDB(t)
	style := seedStyle(t, db, "Megha", services.StyleInput{Brand: "Zara", StyleNo: "Z-101", Garment: "Kurta", Colour: "Red"})

	tests := []struct {
		name           string
		merchant       string
		path           string
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "Owner can read own style",
			merchant:       "Megha",
			path:           fmt.Sprintf("/styles/%d", style.ID),
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Other merchant gets not found",
			merchant:       "Ravi",
			path:           fmt.Sprintf("/styles/%d", style.ID),
			expectedStatus: http.StatusNotFound,
			expectedCode:   "STYLE_NOT_FOUND",
		},
		{
			name:           "Admin can read any style",
			merchant:       "Harsh Lalwani",
			path:           fmt.Sprintf("/styles/%d", style.ID),
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Unknown id is not found",
			merchant:       "Megha",
			path:           "/styles/9999",
			expectedStatus: http.StatusNotFound,
			expectedCode:   "STYLE_NOT_FOUND",
		},
		{
			name:           "Non-numeric id is rejected",
			merchant:       "Megha",
			path:           "/styles/abc",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_STYLE_ID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter()
			router.GET("/styles/:id", mockMerchantMiddleware(tt.merchant), GetStyle)

			w := doJSON(router, http.MethodGet, tt.path, nil)

			assert.Equal(t, tt.expectedStatus, w.Code, "Response body: %s", w.Body.String())
			response := decodeResponse(t, w)
			if tt.expectedStatus == http.StatusOK {
				data := response["data"].(map[string]interface{})
				assert.Equal(t, "Z-101", data["style_no"])
			} else {
				errorData := response["error"].(map[string]interface{})
				assert.Equal(t, tt.expectedCode, errorData["code"])
			}
		})
	}
}

func TestEditStylePartialUpdate(t *testing.T) {
	db := setupTestDB(t)
	style := seedStyle(t, db, "Megha", services.StyleInput{Brand: "Zara", StyleNo: "Z-101", Garment: "Kurta", Colour: "Red"})

	router := setupTestRouter()
	router.PATCH("/styles/:id", mockMerchantMiddleware("Megha"), EditStyle)

	w := doJSON(router, http.MethodPatch, fmt.Sprintf("/styles/%d", style.ID), map[string]string{
		"colour":    "Green",
		"total_qty": "250",
	})

	assert.Equal(t, http.StatusOK, w.Code, "Response body: %s", w.Body.String())
	response := decodeResponse(t, w)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "Green", data["colour"])
	assert.Equal(t, "Zara", data["brand"], "Untouched fields stay as they were")
	assert.Equal(t, float64(250), data["total_qty"])
}

func TestArchiveAndRestoreStyle(t *testing.T) {
	db := setupTestDB(t)
	style := seedStyle(t, db, "Megha", services.StyleInput{Brand: "Zara", StyleNo: "Z-101", Garment: "Kurta", Colour: "Red"})

	router := setupTestRouter()
	auth := mockMerchantMiddleware("Megha")
	router.DELETE("/styles/:id", auth, ArchiveStyle)
	router.POST("/styles/:id/restore", auth, RestoreStyle)
	router.GET("/styles/archived", auth, ListArchivedStyles)

	w := doJSON(router, http.MethodDelete, fmt.Sprintf("/styles/%d", style.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, true, data["changed"])

	// Archiving twice reports no change
	w = doJSON(router, http.MethodDelete, fmt.Sprintf("/styles/%d", style.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	data = decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, false, data["changed"])

	w = doJSON(router, http.MethodGet, "/styles/archived", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	archived := decodeResponse(t, w)["data"].([]interface{})
	require.Len(t, archived, 1)

	w = doJSON(router, http.MethodPost, fmt.Sprintf("/styles/%d/restore", style.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	data = decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, true, data["changed"])

	restored, err := services.NewStyleStore(db).Get(style.ID)
	require.NoError(t, err)
	assert.True(t, restored.Active)
}

func TestResolveMerchantMissingIdentity(t *testing.T) {
	setupTestDB(t)

	router := setupTestRouter()
	router.GET("/styles", ListStyles)

	w := doJSON(router, http.MethodGet, "/styles", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	response := decodeResponse(t, w)
	errorData := response["error"].(map[string]interface{})
	assert.Equal(t, "UNAUTHORIZED", errorData["code"])
}
