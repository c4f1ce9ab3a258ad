package contract

// Agent names as registered with the dispatcher. Unique per dispatcher
// instance; a name is a routing key and nothing more.
const (
	AgentVision       = "vision_agent"
	AgentFabric       = "fabric_expert"
	AgentHITL         = "hitl_agent"
	AgentOffer        = "offer_agent"
	AgentOrchestrator = "analytics_orchestrator"
	AgentNotification = "notification_agent"
	AgentRevenue      = "revenue_agent"
	AgentLogistics    = "logistics_agent"
	AgentFeedback     = "feedback_agent"
)

// Inputs is the named-input mapping for one invocation. It is built per
// call and never shared across invocations.
type Inputs map[string]any

// String returns the named input as a string, or "" when absent or not a
// string.
func (in Inputs) String(key string) string {
	v, _ := in[key].(string)
	return v
}

// Float returns the named input as a float64, widening integer values.
func (in Inputs) Float(key string) float64 {
	switch v := in[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// RevenueReport is the revenue agent's output.
type RevenueReport struct {
	RevenueTotal float64 `json:"revenue_total"`
	Timeframe    string  `json:"timeframe"`
	AISummary    string  `json:"ai_summary"`
}

// LogisticsReport is the logistics agent's output.
type LogisticsReport struct {
	Efficiency    int    `json:"efficiency"`
	AvgTurnaround int    `json:"avg_turnaround"`
	AISummary     string `json:"ai_summary"`
}

// FeedbackReport is the feedback agent's output.
type FeedbackReport struct {
	AvgRating float64  `json:"avg_rating"`
	Issues    []string `json:"issues"`
	AISummary string   `json:"ai_summary"`
}

// CombinedSummary is the orchestrator's joined view over the three
// analysis agents plus a second-order narrative across all of them.
type CombinedSummary struct {
	Timeframe         string `json:"timeframe"`
	Overall           string `json:"overall_analysis"`
	RevenueAnalysis   string `json:"revenue_analysis"`
	LogisticsAnalysis string `json:"logistics_analysis"`
	FeedbackAnalysis  string `json:"feedback_analysis"`
}

// Offer decision statuses.
const (
	OfferIssued  = "issued"
	OfferSkipped = "skipped"
)

// OfferDecision is the offer agent's answer to one eligibility pass.
type OfferDecision struct {
	Status   string `json:"status"`
	Reason   string `json:"reason,omitempty"`
	Code     string `json:"code,omitempty"`
	Discount string `json:"discount,omitempty"`
}

// DetectedItem is one clothing item found by the vision agent. The
// bounding box is [ymin, xmin, ymax, xmax] in normalized 0..1 coordinates.
type DetectedItem struct {
	ItemID     string     `json:"item_id"`
	Type       string     `json:"type"`
	Color      string     `json:"color"`
	BBox       [4]float64 `json:"bbox"`
	Confidence float64    `json:"confidence"`
}

// FabricAdvice pairs a fabric type with its care instructions.
type FabricAdvice struct {
	FabricType       string `json:"fabric_type"`
	CareInstructions string `json:"care_instructions"`
}

// PushReceipt confirms a delivered notification.
type PushReceipt struct {
	Status    string `json:"status"`
	Recipient string `json:"recipient"`
	Message   string `json:"message"`
}
