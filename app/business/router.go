// Package business is the HTTP surface of the business dashboard:
// intake (detection, fabric, order creation, approvals), analytics, and
// day-to-day business operations. It owns all serialization; the agent
// layer stays free of HTTP concerns.
package business

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	hitlx "github.com/freshfold/freshfold/agent/agents/hitl"
	contractx "github.com/freshfold/freshfold/agent/contract"
	storex "github.com/freshfold/freshfold/agent/store"
)

// placeholderOverlay is served when an order carries no overlay image.
const placeholderOverlay = "https://via.placeholder.com/150?text=No+Image"

type Router struct {
	bank        *storex.Bank
	a2a         contractx.Caller
	gate        *hitlx.Gate
	overlaysDir string
}

func NewRouter(bank *storex.Bank, a2a contractx.Caller, gate *hitlx.Gate, overlaysDir string) *Router {
	return &Router{bank: bank, a2a: a2a, gate: gate, overlaysDir: overlaysDir}
}

func (r *Router) Mount(engine *gin.Engine) {
	intake := engine.Group("/api/intake")
	intake.POST("/detect", r.detect)
	intake.POST("/analyze_fabric", r.analyzeFabric)
	intake.POST("/create_order", r.createOrder)
	intake.POST("/approve", r.approve)

	analytics := engine.Group("/api/analytics")
	analytics.GET("/swarm", r.swarm)
	analytics.GET("/stats", r.stats)

	biz := engine.Group("/api/business")
	biz.GET("/customers", r.customers)
	biz.GET("/orders/:phone", r.ordersByPhone)
	biz.POST("/order/update_status", r.updateStatus)
	biz.GET("/redeem_codes", r.redeemCodes)
}

// uiItem is the intake frontend's detection shape.
type uiItem struct {
	Label      string                 `json:"label"`
	Confidence float64                `json:"confidence"`
	Box        [4]float64             `json:"box"`
	Raw        contractx.DetectedItem `json:"raw"`
}

func (r *Router) detect(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image uploaded"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer src.Close()

	imageBytes, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	imageB64 := base64.StdEncoding.EncodeToString(imageBytes)

	res, err := r.a2a.Call(c.Request.Context(), contractx.AgentVision, contractx.Inputs{
		"image_b64": imageB64,
		"mime":      mimeFromName(file.Filename),
	})
	if err != nil {
		// Detection failure blocks intake; it surfaces instead of degrading.
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	items, _ := res.([]contractx.DetectedItem)
	uiItems := make([]uiItem, 0, len(items))
	for _, item := range items {
		uiItems = append(uiItems, uiItem{
			Label:      strings.TrimSpace(item.Color + " " + item.Type),
			Confidence: item.Confidence,
			Box:        item.BBox,
			Raw:        item,
		})
	}

	c.JSON(http.StatusOK, gin.H{"items": uiItems, "image_b64": imageB64})
}

func (r *Router) analyzeFabric(c *gin.Context) {
	var req struct {
		ImageB64 string         `json:"image_b64"`
		Hints    map[string]any `json:"hints"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := r.a2a.Call(c.Request.Context(), contractx.AgentFabric, contractx.Inputs{
		"image_b64": req.ImageB64,
		"hints":     req.Hints,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	advice, _ := res.(contractx.FabricAdvice)
	c.JSON(http.StatusOK, gin.H{
		"fabric_type":       advice.FabricType,
		"care_instructions": advice.CareInstructions,
	})
}

func (r *Router) createOrder(c *gin.Context) {
	var req struct {
		Phone        string             `json:"phone"`
		Items        []storex.OrderItem `json:"items"`
		Total        float64            `json:"total"`
		OverlayImage string             `json:"overlay_image"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	orderID := "ORD-" + strings.ToUpper(uuid.NewString()[:6])
	overlayURL := r.saveOverlay(orderID, req.OverlayImage)

	order := &storex.Order{
		ID:         orderID,
		Phone:      req.Phone,
		Status:     storex.StatusPending,
		Items:      req.Items,
		Total:      req.Total,
		OverlayURL: overlayURL,
	}
	if err := r.bank.SaveOrder(c.Request.Context(), order); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "order_id": orderID})
}

// saveOverlay decodes a data-URL overlay to a static file, falling back
// to a placeholder when absent or undecodable.
func (r *Router) saveOverlay(orderID, dataURL string) string {
	if !strings.HasPrefix(dataURL, "data:image") {
		return placeholderOverlay
	}
	_, encoded, found := strings.Cut(dataURL, ",")
	if !found {
		return placeholderOverlay
	}
	imageBytes, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		log.Warn().Err(err).Str("order", orderID).Msg("overlay decode failed")
		return placeholderOverlay
	}
	if err := os.MkdirAll(r.overlaysDir, 0o750); err != nil {
		log.Warn().Err(err).Msg("overlay dir unavailable")
		return placeholderOverlay
	}
	path := filepath.Join(r.overlaysDir, orderID+".png")
	if err := os.WriteFile(path, imageBytes, 0o640); err != nil {
		log.Warn().Err(err).Str("order", orderID).Msg("overlay write failed")
		return placeholderOverlay
	}
	return "/static/overlays/" + orderID + ".png"
}

func (r *Router) approve(c *gin.Context) {
	var req struct {
		OrderID string `json:"order_id"`
		Status  string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := r.gate.Resolve(c.Request.Context(), req.OrderID, req.Status)
	switch {
	case errors.Is(err, contractx.ErrTaskLost):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, contractx.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"status": "resolved"})
	}
}

func (r *Router) swarm(c *gin.Context) {
	timeframe := c.DefaultQuery("timeframe", "last_7_days")
	res, err := r.a2a.Call(c.Request.Context(), contractx.AgentOrchestrator, contractx.Inputs{
		"timeframe": timeframe,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (r *Router) stats(c *gin.Context) {
	ctx := c.Request.Context()

	orders, err := r.bank.RecentOrders(ctx, 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	feedback, err := r.bank.RecentFeedback(ctx, 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var revenue float64
	statusCounts := map[string]int{
		storex.StatusPending:   0,
		storex.StatusFinished:  0,
		storex.StatusDelivered: 0,
	}
	categories := map[string]int{}
	for _, o := range orders {
		revenue += o.Total
		statusCounts[o.Status]++
		for _, item := range o.Items {
			parts := strings.Fields(item.Label)
			if len(parts) == 0 {
				continue
			}
			categories[parts[len(parts)-1]]++
		}
	}

	var ratingSum int
	ratingCounts := make([]int, 5)
	for _, f := range feedback {
		ratingSum += f.Rating
		if f.Rating >= 1 && f.Rating <= 5 {
			ratingCounts[f.Rating-1]++
		}
	}
	avgRating := 0.0
	if len(feedback) > 0 {
		avgRating = float64(ratingSum) / float64(len(feedback))
	}

	topCategory := "None"
	topCategoryPct := 0
	if len(categories) > 0 {
		totalItems := 0
		best := 0
		for cat, n := range categories {
			totalItems += n
			if n > best {
				best = n
				topCategory = cat
			}
		}
		topCategoryPct = best * 100 / totalItems
	}

	// Orders arrive newest first; the trend reads oldest to newest.
	trendLen := min(len(orders), 10)
	revenueTrend := make([]float64, 0, trendLen)
	for i := trendLen - 1; i >= 0; i-- {
		revenueTrend = append(revenueTrend, orders[i].Total)
	}

	c.JSON(http.StatusOK, gin.H{
		"revenue":          revenue,
		"orders_finished":  statusCounts[storex.StatusFinished] + statusCounts[storex.StatusDelivered],
		"orders_pending":   statusCounts[storex.StatusPending],
		"satisfaction":     fmt.Sprintf("%.1f", avgRating),
		"review_count":     len(feedback),
		"top_category":     topCategory,
		"top_category_pct": topCategoryPct,
		"chart_data": gin.H{
			"revenue_trend":   revenueTrend,
			"status_counts":   statusCounts,
			"category_counts": categories,
			"rating_counts":   ratingCounts,
		},
	})
}

func (r *Router) customers(c *gin.Context) {
	ctx := c.Request.Context()

	customers, err := r.bank.Customers(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	for i := range customers {
		orders, err := r.bank.OrdersByPhone(ctx, customers[i].Phone)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		customers[i].OrdersCount = len(orders)
	}

	c.JSON(http.StatusOK, gin.H{"customers": customers})
}

func (r *Router) ordersByPhone(c *gin.Context) {
	orders, err := r.bank.OrdersByPhone(c.Request.Context(), c.Param("phone"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (r *Router) updateStatus(c *gin.Context) {
	var req struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Phone  string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := r.bank.UpdateOrderStatus(c.Request.Context(), req.ID, req.Status); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if req.Status == storex.StatusFinished || req.Status == storex.StatusDelivered {
		msg := fmt.Sprintf("Your order %s is now %s!", req.ID, req.Status)
		if _, err := r.a2a.Call(c.Request.Context(), contractx.AgentNotification, contractx.Inputs{
			"phone": req.Phone,
			"msg":   msg,
		}); err != nil {
			log.Warn().Err(err).Str("order", req.ID).Msg("status notification failed")
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (r *Router) redeemCodes(c *gin.Context) {
	codes, err := r.bank.RecentRedeems(c.Request.Context(), 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"codes": codes})
}

func mimeFromName(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".webp":
		return "webp"
	default:
		return "png"
	}
}
