package response

import (
	"Hearth/internal/service"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func render(err error) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	Error(c, err)
	return w
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		body   string
	}{
		{service.ErrUserNotFound, http.StatusNotFound, `{"error":"User not found"}`},
		{fmt.Errorf("toggle: %w", service.ErrUserNotFound), http.StatusNotFound, `{"error":"User not found"}`},
		{service.ErrSelfFollow, http.StatusBadRequest, `{"error":"You cannot follow yourself"}`},
		{service.ErrUnauthorized, http.StatusUnauthorized, `{"error":"Unauthorized - you must be logged in"}`},
		{errors.New("mongo: connection refused"), http.StatusInternalServerError, `{"error":"Internal server error"}`},
	}
	for _, tc := range cases {
		w := render(tc.err)
		assert.Equal(t, tc.status, w.Code, tc.err.Error())
		assert.JSONEq(t, tc.body, w.Body.String())
	}
}

func TestValidationErrorIsBadRequest(t *testing.T) {
	type body struct {
		Bio string `validate:"max=3"`
	}
	err := validator.New().Struct(body{Bio: "too long"})

	w := render(err)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
