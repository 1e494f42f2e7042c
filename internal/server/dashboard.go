package server

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	dashboarddomain "github.com/smallbiznis/invoicegen/internal/dashboard/domain"
)

func (s *Server) DashboardSummary(c *gin.Context) {
	if s.dashboardSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	resp, err := s.dashboardSvc.Summary(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DashboardCollections(c *gin.Context) {
	if s.dashboardSvc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	months, err := parseOptionalInt(c.Query("months"))
	if err != nil {
		AbortWithError(c, newValidationError("months", "invalid_months", "months must be a number"))
		return
	}

	resp, err := s.dashboardSvc.Collections(c.Request.Context(), dashboarddomain.CollectionsRequest{Months: months})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if c.Query("format") == "csv" {
		writeCSV(c, "collections.csv", resp)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func writeCSV(c *gin.Context, filename string, resp dashboarddomain.CollectionsResponse) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	_ = writer.Write([]string{"Period", "Collected (" + string(resp.Currency) + ")", "Payments"})
	for _, point := range resp.Series {
		_ = writer.Write([]string{
			point.Period,
			strconv.FormatFloat(point.Collected, 'f', 2, 64),
			strconv.FormatInt(point.PaymentCount, 10),
		})
	}
}
