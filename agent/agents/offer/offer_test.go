package offer

import (
	"context"
	"math/rand"
	"regexp"
	"testing"

	contractx "github.com/freshfold/freshfold/agent/contract"
	storex "github.com/freshfold/freshfold/agent/store"
)

type fakeStore struct {
	orders  []storex.Order
	redeems []storex.RedeemCode

	created []storex.RedeemCode
	saved   []storex.RedeemCode

	createErr error
}

func (f *fakeStore) OrdersByPhone(context.Context, string) ([]storex.Order, error) {
	return f.orders, nil
}

func (f *fakeStore) RedeemsByPhone(context.Context, string) ([]storex.RedeemCode, error) {
	return f.redeems, nil
}

func (f *fakeStore) CreateOfferIfInactive(_ context.Context, r *storex.RedeemCode) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, *r)
	return nil
}

func (f *fakeStore) SaveRedeem(_ context.Context, r *storex.RedeemCode) error {
	f.saved = append(f.saved, *r)
	return nil
}

type nopCaller struct {
	calls []string
}

func (n *nopCaller) Call(_ context.Context, name string, _ contractx.Inputs) (any, error) {
	n.calls = append(n.calls, name)
	return nil, nil
}

var (
	personalCodeRe  = regexp.MustCompile(`^[A-H0-9]{6}$`)
	firstTimeCodeRe = regexp.MustCompile(`^WELCOME-[A-Z0-9]{4}$`)
)

func TestConsiderSkipsWhenActiveOfferExists(t *testing.T) {
	t.Parallel()

	store := &fakeStore{redeems: []storex.RedeemCode{{Code: "AB12CD", Phone: "555", Used: false}}}
	agent := New(store, &nopCaller{})

	decision, err := agent.Consider(context.Background(), "555")
	if err != nil {
		t.Fatalf("Consider() error = %v", err)
	}
	if decision.Status != contractx.OfferSkipped {
		t.Fatalf("Status = %q, want skipped", decision.Status)
	}
	if len(store.created) != 0 {
		t.Fatalf("created %d codes, want none", len(store.created))
	}
}

func TestConsiderUsedCodeDoesNotBlock(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		redeems: []storex.RedeemCode{{Code: "AB12CD", Phone: "555", Used: true}},
		orders:  []storex.Order{{ID: "ORD-1", Total: 200}},
	}
	agent := New(store, &nopCaller{})

	decision, err := agent.Consider(context.Background(), "555")
	if err != nil {
		t.Fatalf("Consider() error = %v", err)
	}
	if decision.Status != contractx.OfferIssued {
		t.Fatalf("Status = %q, want issued", decision.Status)
	}
}

func TestConsiderTierBoundary(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		total    float64
		discount string
	}{
		{"above threshold", 501, discountHigh},
		{"at threshold", 500, discountLow},
		{"below threshold", 120, discountLow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			store := &fakeStore{orders: []storex.Order{{ID: "ORD-1", Total: tc.total}}}
			agent := New(store, &nopCaller{})

			decision, err := agent.Consider(context.Background(), "555")
			if err != nil {
				t.Fatalf("Consider() error = %v", err)
			}
			if decision.Discount != tc.discount {
				t.Fatalf("Discount = %q, want %q", decision.Discount, tc.discount)
			}
			if !personalCodeRe.MatchString(decision.Code) {
				t.Fatalf("Code = %q, want six chars from the offer alphabet", decision.Code)
			}
		})
	}
}

func TestConsiderAveragesSpendAcrossOrders(t *testing.T) {
	t.Parallel()

	// Average is 400, under the threshold even though one order is above it.
	store := &fakeStore{orders: []storex.Order{
		{ID: "ORD-1", Total: 700},
		{ID: "ORD-2", Total: 100},
	}}
	agent := New(store, &nopCaller{})

	decision, err := agent.Consider(context.Background(), "555")
	if err != nil {
		t.Fatalf("Consider() error = %v", err)
	}
	if decision.Discount != discountLow {
		t.Fatalf("Discount = %q, want %q", decision.Discount, discountLow)
	}
}

func TestConsiderNewCustomerGate(t *testing.T) {
	t.Parallel()

	const trials = 1000
	issued := 0
	for i := 0; i < trials; i++ {
		store := &fakeStore{}
		agent := New(store, &nopCaller{}, WithRand(rand.New(rand.NewSource(int64(i)))))

		decision, err := agent.Consider(context.Background(), "555")
		if err != nil {
			t.Fatalf("Consider() error = %v", err)
		}
		if decision.Status == contractx.OfferIssued {
			issued++
		}
	}
	// The gate fires at 30%; allow generous slack around the mean.
	if issued < 230 || issued > 370 {
		t.Fatalf("issued %d of %d offers, want roughly 300", issued, trials)
	}
}

func TestConsiderLostRaceReportsSkipped(t *testing.T) {
	t.Parallel()

	store := &fakeStore{
		orders:    []storex.Order{{ID: "ORD-1", Total: 200}},
		createErr: storex.ErrActiveOfferExists,
	}
	agent := New(store, &nopCaller{})

	decision, err := agent.Consider(context.Background(), "555")
	if err != nil {
		t.Fatalf("Consider() error = %v", err)
	}
	if decision.Status != contractx.OfferSkipped {
		t.Fatalf("Status = %q, want skipped after losing the insert race", decision.Status)
	}
}

func TestConsiderNotifiesOnIssue(t *testing.T) {
	t.Parallel()

	store := &fakeStore{orders: []storex.Order{{ID: "ORD-1", Total: 900}}}
	caller := &nopCaller{}
	agent := New(store, caller)

	if _, err := agent.Consider(context.Background(), "555"); err != nil {
		t.Fatalf("Consider() error = %v", err)
	}
	if len(caller.calls) != 1 || caller.calls[0] != contractx.AgentNotification {
		t.Fatalf("calls = %v, want one notification dispatch", caller.calls)
	}
}

func TestIssueFirstTimeCode(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	agent := New(store, &nopCaller{})

	code, err := agent.IssueFirstTimeCode(context.Background(), "555")
	if err != nil {
		t.Fatalf("IssueFirstTimeCode() error = %v", err)
	}
	if !firstTimeCodeRe.MatchString(code) {
		t.Fatalf("code = %q, want WELCOME prefix with four-char suffix", code)
	}
	if len(store.saved) != 1 {
		t.Fatalf("saved %d codes, want 1", len(store.saved))
	}
	saved := store.saved[0]
	if saved.Discount != discountFirstTime || saved.Type != storex.OfferTypeFirstTime {
		t.Fatalf("saved = %#v, want first-time discount and type", saved)
	}
}

func TestHandleRequiresPhone(t *testing.T) {
	t.Parallel()

	agent := New(&fakeStore{}, &nopCaller{})

	if _, err := agent.Handle(context.Background(), contractx.Inputs{}); err == nil {
		t.Fatal("Handle() error = nil, want validation error")
	}
}
