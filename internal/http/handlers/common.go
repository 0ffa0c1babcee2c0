package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"busticket/internal/domain"
)

// bindJSON decodes the body into dst and answers 400 on failure.
// An empty body is accepted when allowEmpty is set.
func bindJSON[T any](c *gin.Context, dst *T, allowEmpty bool) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) {
		if allowEmpty {
			return true
		}
		respondError(c, http.StatusBadRequest, "validation_error", "request body is required", nil)
		return false
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]gin.H, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, gin.H{"field": jsonFieldName(fe.Field()), "rule": fe.Tag()})
		}
		respondError(c, http.StatusBadRequest, "validation_error", "payload is invalid", gin.H{"fields": fields})
		return false
	}
	respondError(c, http.StatusBadRequest, "validation_error", "payload is not valid JSON", nil)
	return false
}

func jsonFieldName(goName string) string {
	if goName == "" {
		return goName
	}
	return strings.ToLower(goName[:1]) + goName[1:]
}

// parseID reads a positive integer path parameter.
func parseID(c *gin.Context, name string) (domain.ID, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, "validation_error", name+" must be a positive integer", gin.H{"field": name})
		return 0, false
	}
	return domain.ID(id), true
}
