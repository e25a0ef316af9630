package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestFailRendersDataAndHidesCause(t *testing.T) {
	c, w := newTestContext()
	c.Set("request_id", "req-1")

	Fail(c, WrapError(CodeConflict, "auction window closed", errors.New("db detail")).WithData(gin.H{"reason": "window_closed"}))

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.EqualValues(t, CodeConflict, body["status_code"])
	assert.Equal(t, "auction window closed", body["msg"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "window_closed", data["reason"])
	assert.Equal(t, "req-1", data["request_id"])
	assert.NotContains(t, w.Body.String(), "db detail")
}

func TestFailWithoutData(t *testing.T) {
	c, w := newTestContext()
	Fail(c, WrapError(CodeNotFound, "auction not found", nil))

	body := decodeBody(t, w)
	assert.EqualValues(t, CodeNotFound, body["status_code"])
	assert.Nil(t, body["data"])
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	appErr := WrapError(CodeInternal, "archive failed", cause)
	assert.ErrorIs(t, appErr, cause)
	assert.Equal(t, "archive failed: boom", appErr.Error())
}

func TestAttachmentHeaders(t *testing.T) {
	c, w := newTestContext()
	Attachment(c, "archived-auctions-2025-11-03.xlsx", "application/octet-stream", []byte("PK"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="archived-auctions-2025-11-03.xlsx"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "application/octet-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "PK", w.Body.String())
}
