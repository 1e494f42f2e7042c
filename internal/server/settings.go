package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	settingsdomain "github.com/smallbiznis/invoicegen/internal/settings/domain"
)

func (s *Server) GetCurrencySettings(c *gin.Context) {
	resp, err := s.settingsSvc.Currency(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateCurrencySettings(c *gin.Context) {
	var req settingsdomain.UpdateCurrencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.settingsSvc.UpdateCurrency(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetBusinessProfile(c *gin.Context) {
	resp, err := s.settingsSvc.Business(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateBusinessProfile(c *gin.Context) {
	var req settingsdomain.UpdateBusinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.settingsSvc.UpdateBusiness(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// GetBankAccount returns null data when no account is on file.
func (s *Server) GetBankAccount(c *gin.Context) {
	resp, err := s.settingsSvc.BankAccount(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateBankAccount(c *gin.Context) {
	var req settingsdomain.UpdateBankAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.settingsSvc.UpdateBankAccount(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
