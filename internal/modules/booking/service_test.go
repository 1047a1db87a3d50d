// README: Booking service tests (credit re-clamp, frozen fare, cancel refund).
package booking

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"luxride/internal/modules/pricing"
	"luxride/internal/types"
)

type fakePricer struct {
	fare pricing.Breakdown
	err  error
	got  pricing.Request
}

func (f *fakePricer) ComputeFare(ctx context.Context, req pricing.Request) (pricing.Breakdown, error) {
	f.got = req
	return f.fare, f.err
}

// memRepo mimics the store's commit-time credit re-check.
type memRepo struct {
	balances map[types.ID]types.Cents
	bookings map[types.ID]*Booking
	err      error
}

func newMemRepo() *memRepo {
	return &memRepo{balances: map[types.ID]types.Cents{}, bookings: map[types.ID]*Booking{}}
}

func (m *memRepo) Create(ctx context.Context, b *Booking, requested types.Cents) error {
	if m.err != nil {
		return m.err
	}
	b.Fare = b.Fare.WithCredit(m.balances[b.PassengerID], requested)
	m.balances[b.PassengerID] -= b.Fare.CreditAmountApplied
	cp := *b
	m.bookings[b.ID] = &cp
	return nil
}

func (m *memRepo) Get(ctx context.Context, id types.ID) (*Booking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memRepo) Cancel(ctx context.Context, id types.ID, at time.Time) (*Booking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !CanTransition(b.Status, StatusCancelled) {
		return nil, ErrInvalidState
	}
	b.Status = StatusCancelled
	b.CancelledAt = &at
	m.balances[b.PassengerID] += b.Fare.CreditAmountApplied
	cp := *b
	return &cp, nil
}

type recordingPublisher struct {
	keys   []string
	events []any
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, key string, v any) error {
	p.keys = append(p.keys, key)
	p.events = append(p.events, v)
	return p.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func quotedFare() pricing.Breakdown {
	// Quote-time clamp saw a 50.00 balance.
	return pricing.Breakdown{
		TotalAmount:         11475,
		CreditAmountApplied: 5000,
		RemainingAmount:     6475,
		Currency:            types.DefaultCurrency,
	}
}

func bookingRequest(credit types.Cents) pricing.Request {
	return pricing.Request{
		VehicleType:           pricing.VehicleBusinessSUV,
		ServiceType:           pricing.ServiceTransfer,
		Pickup:                pricing.Stop{Point: types.Point{Lat: 40.6413, Lng: -73.7781}, AirportCode: "JFK"},
		Destination:           &pricing.Stop{Point: types.Point{Lat: 40.7580, Lng: -73.9855}},
		ScheduledAt:           time.Date(2026, 10, 16, 18, 0, 0, 0, time.UTC),
		PassengerID:           "p1",
		RequestedCreditAmount: &credit,
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusConfirmed, StatusCancelled, true},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCancelled, StatusCancelled, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestCreate_ReclampsCreditAtCommit(t *testing.T) {
	repo := newMemRepo()
	repo.balances["p1"] = 2000 // spent elsewhere since the quote
	pub := &recordingPublisher{}
	svc := NewService(repo, &fakePricer{fare: quotedFare()}, pub, quietLogger())

	b, err := svc.Create(context.Background(), CreateCommand{Request: bookingRequest(8000)})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if b.Fare.CreditAmountApplied != 2000 || b.Fare.RemainingAmount != 9475 {
		t.Errorf("credit/remaining = %v/%v, want 20.00/94.75", b.Fare.CreditAmountApplied, b.Fare.RemainingAmount)
	}
	if repo.balances["p1"] != 0 {
		t.Errorf("balance after booking = %v, want 0", repo.balances["p1"])
	}
	if b.Status != StatusConfirmed || b.ID == "" {
		t.Errorf("booking = %+v", b)
	}

	if len(pub.events) != 1 || pub.keys[0] != string(b.ID) {
		t.Fatalf("published %d events, keys %v", len(pub.events), pub.keys)
	}
	ev := pub.events[0].(PricedEvent)
	if ev.Type != EventBookingPriced || ev.CreditApplied != 2000 || ev.TotalAmount != 11475 {
		t.Errorf("event = %+v", ev)
	}
}

func TestCreate_StoredFareIsFrozen(t *testing.T) {
	repo := newMemRepo()
	pricer := &fakePricer{fare: quotedFare()}
	svc := NewService(repo, pricer, nil, quietLogger())

	b, err := svc.Create(context.Background(), CreateCommand{Request: bookingRequest(0)})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	pricer.fare.TotalAmount = 1

	got, err := svc.Get(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Fare.TotalAmount != 11475 || got.Fare.CreditAmountApplied != 0 {
		t.Errorf("stored fare = %+v", got.Fare)
	}
}

func TestCreate_Errors(t *testing.T) {
	boom := errors.New("boom")

	svc := NewService(newMemRepo(), &fakePricer{}, nil, quietLogger())
	req := bookingRequest(0)
	req.PassengerID = ""
	if _, err := svc.Create(context.Background(), CreateCommand{Request: req}); !errors.Is(err, ErrBadRequest) {
		t.Errorf("missing passenger error = %v, want ErrBadRequest", err)
	}

	svc = NewService(newMemRepo(), &fakePricer{err: pricing.ErrNoApplicableRule}, nil, quietLogger())
	if _, err := svc.Create(context.Background(), CreateCommand{Request: bookingRequest(0)}); !errors.Is(err, pricing.ErrNoApplicableRule) {
		t.Errorf("pricing error = %v, want ErrNoApplicableRule", err)
	}

	repo := newMemRepo()
	repo.err = boom
	pub := &recordingPublisher{}
	svc = NewService(repo, &fakePricer{fare: quotedFare()}, pub, quietLogger())
	if _, err := svc.Create(context.Background(), CreateCommand{Request: bookingRequest(0)}); !errors.Is(err, boom) {
		t.Errorf("store error = %v, want boom", err)
	}
	if len(pub.events) != 0 {
		t.Errorf("event published for an uncommitted booking")
	}
}

func TestCreate_PublishFailureKeepsBooking(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, &fakePricer{fare: quotedFare()}, &recordingPublisher{err: errors.New("broker down")}, quietLogger())

	b, err := svc.Create(context.Background(), CreateCommand{Request: bookingRequest(0)})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, ok := repo.bookings[b.ID]; !ok {
		t.Errorf("booking missing after publish failure")
	}
}

func TestCancel_RefundsCredit(t *testing.T) {
	repo := newMemRepo()
	repo.balances["p1"] = 5000
	svc := NewService(repo, &fakePricer{fare: quotedFare()}, nil, quietLogger())
	ctx := context.Background()

	b, err := svc.Create(ctx, CreateCommand{Request: bookingRequest(5000)})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if repo.balances["p1"] != 0 {
		t.Fatalf("balance after booking = %v", repo.balances["p1"])
	}

	c, err := svc.Cancel(ctx, b.ID)
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if c.Status != StatusCancelled || c.CancelledAt == nil {
		t.Errorf("cancelled booking = %+v", c)
	}
	if repo.balances["p1"] != 5000 {
		t.Errorf("balance after cancel = %v, want 50.00", repo.balances["p1"])
	}
	if _, err := svc.Cancel(ctx, b.ID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second Cancel() error = %v, want ErrInvalidState", err)
	}
	if _, err := svc.Cancel(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Cancel(missing) error = %v, want ErrNotFound", err)
	}
}
