package response

import (
	"Hearth/internal/service"
	"errors"
	log "log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

// Success 以 {key: data} 形式返回 200
func Success(c *gin.Context, key string, data any) {
	c.JSON(http.StatusOK, gin.H{key: data})
}

// Created 以 {key: data} 形式返回 201
func Created(c *gin.Context, key string, data any) {
	c.JSON(http.StatusCreated, gin.H{key: data})
}

// Message 返回 {"message": msg}
func Message(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// Fail 返回 {"error": msg}
func Fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

// Error 按错误类型映射状态码，未知错误统一返回 500 并记录日志
func Error(c *gin.Context, err error) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	var unmarshalTypeError *json.UnmarshalTypeError
	if errors.As(err, &unmarshalTypeError) {
		Fail(c, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	for target, code := range service.ErrorMap {
		if errors.Is(err, target) {
			Fail(c, code, target.Error())
			return
		}
	}

	log.ErrorContext(c.Request.Context(), "Error", "err", err, "path", c.FullPath())
	Fail(c, http.StatusInternalServerError, service.UnExpectedError.Error())
}
