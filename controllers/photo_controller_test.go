package controllers

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/aaryan/garment-styles-api/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPhotoTest(t *testing.T) (*gin.Engine, uint, *services.MockS3Service) {
	db := setupTestDB(t)
	style := seedStyle(t, db, "Megha", services.StyleInput{Brand: "Zara", StyleNo: "Z-101", Garment: "Kurta", Colour: "Red"})

	mockS3 := services.NewMockS3Service()
	mockS3.SetAsMockForTesting()
	services.InitPhotoService(mockS3)
	t.Cleanup(func() {
		services.SetPhotoService(nil)
		services.SetS3Service(nil)
	})

	router := setupTestRouter()
	router.POST("/styles/:id/photo", mockMerchantMiddleware("Megha"), UploadStylePhoto)
	return router, style.ID, mockS3
}

func multipartPhotoRequest(t *testing.T, path, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("photo", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadStylePhoto(t *testing.T) {
	router, styleID, mockS3 := setupPhotoTest(t)

	req := multipartPhotoRequest(t, fmt.Sprintf("/styles/%d/photo", styleID), "front.png", []byte("png-bytes"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code, "Response body: %s", w.Body.String())
	data := decodeResponse(t, w)["data"].(map[string]interface{})
	photoKey := data["photo_key"].(string)
	assert.NotEmpty(t, photoKey)
	assert.NotEmpty(t, data["photo_url"])
	assert.True(t, mockS3.FileExists(photoKey))
}

func TestUploadStylePhotoRejectsNonPNG(t *testing.T) {
	router, styleID, _ := setupPhotoTest(t)

	req := multipartPhotoRequest(t, fmt.Sprintf("/styles/%d/photo", styleID), "front.jpg", []byte("jpg-bytes"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	errorData := decodeResponse(t, w)["error"].(map[string]interface{})
	assert.Equal(t, "INVALID_FILE_FORMAT", errorData["code"])
}

func TestUploadStylePhotoMissingFile(t *testing.T) {
	router, styleID, _ := setupPhotoTest(t)

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/styles/%d/photo", styleID), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	errorData := decodeResponse(t, w)["error"].(map[string]interface{})
	assert.Equal(t, "MISSING_FILE", errorData["code"])
}

func TestUploadStylePhotoReplacesPrevious(t *testing.T) {
	router, styleID, mockS3 := setupPhotoTest(t)

	req := multipartPhotoRequest(t, fmt.Sprintf("/styles/%d/photo", styleID), "first.png", []byte("first"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	firstKey := decodeResponse(t, w)["data"].(map[string]interface{})["photo_key"].(string)

	req = multipartPhotoRequest(t, fmt.Sprintf("/styles/%d/photo", styleID), "second.png", []byte("second"))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	secondKey := decodeResponse(t, w)["data"].(map[string]interface{})["photo_key"].(string)

	assert.NotEqual(t, firstKey, secondKey)
	assert.False(t, mockS3.FileExists(firstKey), "Replaced photo is deleted")
	assert.True(t, mockS3.FileExists(secondKey))
}

func TestUploadStylePhotoUnconfigured(t *testing.T) {
	db := setupTestDB(t)
	style := seedStyle(t, db, "Megha", services.StyleInput{Brand: "Zara", StyleNo: "Z-101", Garment: "Kurta", Colour: "Red"})
	services.SetPhotoService(nil)

	router := setupTestRouter()
	router.POST("/styles/:id/photo", mockMerchantMiddleware("Megha"), UploadStylePhoto)

	req := multipartPhotoRequest(t, fmt.Sprintf("/styles/%d/photo", style.ID), "front.png", []byte("png-bytes"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	errorData := decodeResponse(t, w)["error"].(map[string]interface{})
	assert.Equal(t, "PHOTOS_UNAVAILABLE", errorData["code"])
}
