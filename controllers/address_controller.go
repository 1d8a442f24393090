package controllers

import (
	"net/http"

	"checkout-service/middleware"
	"checkout-service/models"
	"checkout-service/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AddressController handles the customer address book.
type AddressController struct {
	repo   repository.AddressRepository
	logger *zap.Logger
}

func NewAddressController(repo repository.AddressRepository, logger *zap.Logger) *AddressController {
	return &AddressController{repo: repo, logger: logger}
}

// ListAddresses handles GET /addresses
func (ac *AddressController) ListAddresses(c *gin.Context) {
	id := middleware.GetIdentity(c)

	addresses, err := ac.repo.FindByUserID(c.Request.Context(), id.CustomerID)
	if err != nil {
		ac.logger.Error("Failed to list addresses", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch addresses"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"addresses": addresses})
}

// CreateAddress handles POST /addresses
func (ac *AddressController) CreateAddress(c *gin.Context) {
	id := middleware.GetIdentity(c)

	var input struct {
		FirstName string `json:"first_name" binding:"required"`
		LastName  string `json:"last_name" binding:"required"`
		Phone     string `json:"phone"`
		Address1  string `json:"address1" binding:"required"`
		Address2  string `json:"address2"`
		City      string `json:"city" binding:"required"`
		State     string `json:"state" binding:"required"`
		ZipCode   string `json:"zip_code" binding:"required"`
		Country   string `json:"country"`
		IsDefault bool   `json:"is_default"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if input.Country == "" {
		input.Country = models.DefaultCountry
	}

	address := models.Address{
		UserID:    id.CustomerID,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Phone:     input.Phone,
		Address1:  input.Address1,
		Address2:  input.Address2,
		City:      input.City,
		State:     input.State,
		ZipCode:   input.ZipCode,
		Country:   input.Country,
		IsDefault: input.IsDefault,
	}

	if err := ac.repo.Create(c.Request.Context(), &address); err != nil {
		ac.logger.Error("Failed to create address", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create address"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"address": address})
}
