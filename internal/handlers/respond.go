// Package handlers implements the HTTP surface of the catalog service.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/kosarica/catalog-service/internal/apperrors"
)

// respondError maps an error to its HTTP status. Internal failures are
// logged and hidden behind a generic message.
func respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		log.Error().Str("component", "api").Str("path", c.FullPath()).Err(err).Msg("request failed")
		msg = "internal error"
	}
	c.JSON(status, gin.H{"error": msg})
}

// parseDateParam parses a YYYY-MM-DD path parameter.
func parseDateParam(c *gin.Context, name string) (time.Time, bool) {
	date, err := time.Parse("2006-01-02", c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, want YYYY-MM-DD"})
		return time.Time{}, false
	}
	return date, true
}

// parseIDParam parses a positive integer path parameter.
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// parseIDList parses a comma-separated id list query parameter.
func parseIDList(raw string) ([]int64, error) {
	if raw == "" {
		return nil, nil
	}
	var ids []int64
	start := 0
	for i := 0; i <= len(raw); i++ {
		if i == len(raw) || raw[i] == ',' {
			part := raw[start:i]
			start = i + 1
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
