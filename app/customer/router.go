// Package customer is the HTTP surface of the customer portal:
// registration, order history, offers, and feedback.
package customer

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	offerx "github.com/freshfold/freshfold/agent/agents/offer"
	storex "github.com/freshfold/freshfold/agent/store"
)

type Router struct {
	bank   *storex.Bank
	offers *offerx.Agent
}

func NewRouter(bank *storex.Bank, offers *offerx.Agent) *Router {
	return &Router{bank: bank, offers: offers}
}

func (r *Router) Mount(engine *gin.Engine) {
	cust := engine.Group("/api/customer")
	cust.POST("/check_user", r.checkUser)
	cust.POST("/register", r.register)
	cust.GET("/orders/:phone", r.orders)
	cust.GET("/offers/:phone", r.offersByPhone)

	engine.POST("/api/feedback/submit", r.submitFeedback)
}

func (r *Router) checkUser(c *gin.Context) {
	var req struct {
		Phone string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Phone required"})
		return
	}

	profile, err := r.bank.Customer(c.Request.Context(), req.Phone)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if profile == nil {
		c.JSON(http.StatusOK, gin.H{"exists": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": true, "profile": profile})
}

func (r *Router) register(c *gin.Context) {
	var req struct {
		Phone   string `json:"phone"`
		Name    string `json:"name"`
		Address string `json:"address"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Phone required"})
		return
	}

	ctx := c.Request.Context()
	err := r.bank.SaveCustomer(ctx, &storex.Customer{
		Phone:   req.Phone,
		Name:    req.Name,
		Address: req.Address,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	code, err := r.offers.IssueFirstTimeCode(ctx, req.Phone)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "registered", "code": code})
}

func (r *Router) orders(c *gin.Context) {
	orders, err := r.bank.OrdersByPhone(c.Request.Context(), c.Param("phone"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// offersByPhone runs an offer-eligibility pass when the customer has no
// active code, then returns everything on file.
func (r *Router) offersByPhone(c *gin.Context) {
	ctx := c.Request.Context()
	phone := c.Param("phone")

	codes, err := r.bank.RedeemsByPhone(ctx, phone)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	hasActive := false
	for _, code := range codes {
		if !code.Used {
			hasActive = true
			break
		}
	}

	if !hasActive {
		if _, err := r.offers.Consider(ctx, phone); err != nil {
			log.Warn().Err(err).Str("phone", phone).Msg("offer pass failed")
		}
		if codes, err = r.bank.RedeemsByPhone(ctx, phone); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"offers": codes})
}

func (r *Router) submitFeedback(c *gin.Context) {
	var req struct {
		OrderID string `json:"order_id"`
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.OrderID == "" {
		req.OrderID = "GENERIC"
	}

	err := r.bank.SaveFeedback(c.Request.Context(), &storex.Feedback{
		ID:      uuid.NewString(),
		OrderID: req.OrderID,
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "received", "thank_you": true})
}
