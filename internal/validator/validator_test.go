package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type lessonBody struct {
	Title   string `json:"title" binding:"required,notblank"`
	Content string `json:"content" binding:"required"`
}

func bind(t *testing.T, body string) map[string]string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	Setup()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	var dst lessonBody
	return Bind(c, &dst)
}

func TestBindValid(t *testing.T) {
	assert.Nil(t, bind(t, `{"title":"Intro","content":"Hello"}`))
}

func TestBindUsesJSONFieldNames(t *testing.T) {
	fields := bind(t, `{"title":"Intro"}`)
	assert.Contains(t, fields, "content")
	assert.NotContains(t, fields, "Content")
}

func TestBindNotBlank(t *testing.T) {
	fields := bind(t, `{"title":"   ","content":"x"}`)
	assert.Equal(t, "title must not be blank", fields["title"])
}

func TestBindMalformedJSON(t *testing.T) {
	fields := bind(t, `{"title":`)
	assert.Contains(t, fields, "detail")
}
