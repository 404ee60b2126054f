package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/aduba/internal/domain/reading"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// LatestReading returns the caller's newest reading, or 204 when there is none.
func (h *Handler) LatestReading(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	r, found, err := h.readingSvc.Latest(c.Request.Context(), claims.UserID)
	if err != nil {
		abortWithError(c, serviceError(err, "readings_failed"))
		return
	}
	if !found {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, r)
}

// RecordReading stores a reading for the caller.
func (h *Handler) RecordReading(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var in reading.Reading
	if err := c.ShouldBindJSON(&in); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	stored, err := h.readingSvc.Record(c.Request.Context(), claims.UserID, in)
	if err != nil {
		abortWithError(c, serviceError(err, "readings_failed"))
		return
	}
	c.JSON(http.StatusCreated, stored)
}

// ListReadings returns the newest readings since ?since (RFC 3339), oldest
// first, with truncated set when ?limit cut older rows.
func (h *Handler) ListReadings(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	since, herr := parseSince(c)
	if herr != nil {
		abortWithError(c, herr)
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "limit must be a positive integer", err))
			return
		}
		limit = n
	}
	page, err := h.readingSvc.History(c.Request.Context(), claims.UserID, since, limit)
	if err != nil {
		abortWithError(c, serviceError(err, "readings_failed"))
		return
	}
	if page.Readings == nil {
		page.Readings = []reading.Reading{}
	}
	c.JSON(http.StatusOK, page)
}

// ReadingStats returns the chart points for the last ?days days.
func (h *Handler) ReadingStats(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	days := 0
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 366 {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "days must be between 1 and 366", err))
			return
		}
		days = n
	}
	stats, err := h.readingSvc.Stats(c.Request.Context(), claims.UserID, days)
	if err != nil {
		abortWithError(c, serviceError(err, "readings_failed"))
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ExportReadings streams the reading history as a spreadsheet.
func (h *Handler) ExportReadings(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	since, herr := parseSince(c)
	if herr != nil {
		abortWithError(c, herr)
		return
	}
	data, err := h.readingSvc.Export(c.Request.Context(), claims.UserID, since)
	if err != nil {
		abortWithError(c, serviceError(err, "export_failed"))
		return
	}
	filename := fmt.Sprintf("aduba-leituras-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.DataFromReader(http.StatusOK, int64(len(data)), xlsxContentType, bytes.NewReader(data), map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, filename),
	})
}

func parseSince(c *gin.Context) (time.Time, *HTTPError) {
	raw := c.Query("since")
	if raw == "" {
		return time.Time{}, nil
	}
	since, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, NewHTTPError(http.StatusBadRequest, "invalid_request", "since must be an RFC 3339 timestamp", err)
	}
	return since, nil
}
