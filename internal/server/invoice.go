package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	clientdomain "github.com/smallbiznis/invoicegen/internal/client/domain"
	invoicedomain "github.com/smallbiznis/invoicegen/internal/invoice/domain"
	"github.com/smallbiznis/invoicegen/internal/invoice/export"
	"go.uber.org/zap"
)

func (s *Server) CreateInvoice(c *gin.Context) {
	var req invoicedomain.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	status := http.StatusCreated
	if resp.Replaced {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"data": resp})
}

func (s *Server) ListInvoices(c *gin.Context) {
	var req invoicedomain.ListInvoiceRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Invoices, "overdue_refreshed": resp.Overdue})
}

func (s *Server) GetInvoice(c *gin.Context) {
	resp, err := s.invoiceSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateInvoice(c *gin.Context) {
	var req invoicedomain.UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = c.Param("id")

	resp, err := s.invoiceSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteInvoice(c *gin.Context) {
	if err := s.invoiceSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) SendInvoice(c *gin.Context) {
	resp, err := s.invoiceSvc.Send(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) PreviewInvoice(c *gin.Context) {
	resp, err := s.invoiceSvc.Preview(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RenderInvoice(c *gin.Context) {
	doc, err := s.invoiceSvc.Render(c.Request.Context(), c.Param("id"), c.Query("format"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	disposition := "inline"
	if c.Query("download") == "true" {
		disposition = "attachment"
	}
	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=\"%s\"", disposition, doc.Filename))
	c.Data(http.StatusOK, doc.ContentType, doc.Body)
}

func (s *Server) InvoiceTotals(c *gin.Context) {
	resp, err := s.invoiceSvc.Totals(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RecordPayment(c *gin.Context) {
	var req invoicedomain.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.InvoiceID = c.Param("id")

	resp, err := s.invoiceSvc.RecordPayment(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, invoicedomain.ErrStoreFailure) {
			s.log.Error("record payment failed",
				zap.String("invoice_id", req.InvoiceID),
				zap.Error(err),
			)
			AbortWithError(c, &APIError{
				Status:  http.StatusInternalServerError,
				Type:    typeAPI,
				Code:    "payment_not_recorded",
				Message: "failed to record payment, try again",
			})
			return
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPayments(c *gin.Context) {
	resp, err := s.invoiceSvc.ListPayments(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// ExportInvoices downloads the invoice register as a spreadsheet.
func (s *Server) ExportInvoices(c *gin.Context) {
	var req invoicedomain.ListInvoiceRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ctx := c.Request.Context()
	invoices, err := s.invoiceSvc.List(ctx, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	clients, err := s.clientSvc.List(ctx, clientdomain.ListRequest{})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, export.Rows(invoices.Invoices, clients)); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", export.Filename))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}
