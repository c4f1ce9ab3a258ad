// Package offer decides when a customer earns a discount code and mints
// the code itself. At most one unused offer may exist per phone; the
// check and the insert are one store transaction.
package offer

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	contractx "github.com/freshfold/freshfold/agent/contract"
	storex "github.com/freshfold/freshfold/agent/store"
)

const (
	// codeAlphabet avoids visually ambiguous characters; codes are read
	// aloud over the counter.
	codeAlphabet = "ABCDEFGH0123456789"
	codeLength   = 6

	// welcomeAlphabet is the suffix alphabet for first-time codes.
	welcomeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	welcomePrefix   = "WELCOME-"
	welcomeLength   = 4

	// newCustomerOdds is the probability that a customer with no spend
	// history still gets an offer. A soft on-ramp, not a guarantee.
	newCustomerOdds = 0.3

	// tierThreshold splits the discount tiers on average spend,
	// exclusive on the high side.
	tierThreshold = 500.0

	discountHigh      = "20% OFF"
	discountLow       = "10% OFF"
	discountFirstTime = "15% OFF"
)

// Store is the slice of the memory bank the offer agent needs.
type Store interface {
	OrdersByPhone(ctx context.Context, phone string) ([]storex.Order, error)
	RedeemsByPhone(ctx context.Context, phone string) ([]storex.RedeemCode, error)
	CreateOfferIfInactive(ctx context.Context, r *storex.RedeemCode) error
	SaveRedeem(ctx context.Context, r *storex.RedeemCode) error
}

// Option customizes an Agent.
type Option func(*Agent)

// WithRand injects the random source; tests pin it for determinism.
func WithRand(rng *rand.Rand) Option {
	return func(a *Agent) {
		a.rng = rng
	}
}

// Agent issues personalized and first-time offers.
type Agent struct {
	store Store
	a2a   contractx.Caller

	mu  sync.Mutex
	rng *rand.Rand
}

func New(store Store, a2a contractx.Caller, opts ...Option) *Agent {
	a := &Agent{
		store: store,
		a2a:   a2a,
		rng:   rand.New(rand.NewSource(rand.Int63())),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Agent) Name() string { return contractx.AgentOffer }

func (a *Agent) Handle(ctx context.Context, in contractx.Inputs) (any, error) {
	phone := strings.TrimSpace(in.String("phone"))
	if phone == "" {
		return nil, fmt.Errorf("%w: phone is required", contractx.ErrValidation)
	}
	return a.Consider(ctx, phone)
}

// Consider runs one eligibility pass for the phone. Skips when an unused
// offer already exists (no offer spam) and, for customers with no spend
// history, in 70% of passes.
func (a *Agent) Consider(ctx context.Context, phone string) (contractx.OfferDecision, error) {
	existing, err := a.store.RedeemsByPhone(ctx, phone)
	if err != nil {
		return contractx.OfferDecision{}, fmt.Errorf("offer: read codes: %w", err)
	}
	for _, code := range existing {
		if !code.Used {
			return contractx.OfferDecision{
				Status: contractx.OfferSkipped,
				Reason: "active offer exists",
			}, nil
		}
	}

	avgSpend, err := a.averageSpend(ctx, phone)
	if err != nil {
		return contractx.OfferDecision{}, err
	}
	if avgSpend == 0 && !a.chance(newCustomerOdds) {
		return contractx.OfferDecision{
			Status: contractx.OfferSkipped,
			Reason: "new user, no spend history",
		}, nil
	}

	discount := discountLow
	if avgSpend > tierThreshold {
		discount = discountHigh
	}
	code := a.randomCode(codeAlphabet, codeLength)

	err = a.store.CreateOfferIfInactive(ctx, &storex.RedeemCode{
		Code:     code,
		Phone:    phone,
		Discount: discount,
		Type:     storex.OfferTypePersonal,
	})
	if errors.Is(err, storex.ErrActiveOfferExists) {
		// Lost the race against a concurrent pass for the same phone.
		return contractx.OfferDecision{
			Status: contractx.OfferSkipped,
			Reason: "active offer exists",
		}, nil
	}
	if err != nil {
		return contractx.OfferDecision{}, fmt.Errorf("offer: persist code: %w", err)
	}

	// Fire-and-forget: a failed notification never rolls back the offer.
	message := fmt.Sprintf("You earned %s! Use code %s", discount, code)
	if _, err := a.a2a.Call(ctx, contractx.AgentNotification, contractx.Inputs{
		"phone":   phone,
		"message": message,
	}); err != nil {
		log.Warn().Err(err).Str("phone", phone).Msg("offer notification failed")
	}

	return contractx.OfferDecision{
		Status:   contractx.OfferIssued,
		Code:     code,
		Discount: discount,
	}, nil
}

// IssueFirstTimeCode mints a WELCOME-XXXX registration code. It is
// unconditional: the active-offer rule does not apply at registration.
func (a *Agent) IssueFirstTimeCode(ctx context.Context, phone string) (string, error) {
	code := welcomePrefix + a.randomCode(welcomeAlphabet, welcomeLength)
	err := a.store.SaveRedeem(ctx, &storex.RedeemCode{
		Code:     code,
		Phone:    phone,
		Discount: discountFirstTime,
		Type:     storex.OfferTypeFirstTime,
	})
	if err != nil {
		return "", fmt.Errorf("offer: persist first-time code: %w", err)
	}
	return code, nil
}

// averageSpend is the mean total over the customer's order history, zero
// when there is none.
func (a *Agent) averageSpend(ctx context.Context, phone string) (float64, error) {
	orders, err := a.store.OrdersByPhone(ctx, phone)
	if err != nil {
		return 0, fmt.Errorf("offer: read orders: %w", err)
	}
	if len(orders) == 0 {
		return 0, nil
	}
	var total float64
	for _, o := range orders {
		total += o.Total
	}
	return total / float64(len(orders)), nil
}

func (a *Agent) chance(p float64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rng.Float64() < p
}

func (a *Agent) randomCode(alphabet string, length int) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	var sb strings.Builder
	for i := 0; i < length; i++ {
		sb.WriteByte(alphabet[a.rng.Intn(len(alphabet))])
	}
	return sb.String()
}
