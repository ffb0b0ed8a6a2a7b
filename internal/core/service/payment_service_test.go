package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cashflow/payment-lifecycle/internal/adapter/secondary/memory"
	"github.com/cashflow/payment-lifecycle/internal/core"
	"github.com/cashflow/payment-lifecycle/internal/core/service"
	"github.com/cashflow/payment-lifecycle/internal/port/input"
	"github.com/cashflow/payment-lifecycle/internal/port/output"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type recordingMessaging struct {
	mu     sync.Mutex
	events []output.PaymentEvent
	err    error
}

func (m *recordingMessaging) PublishPaymentEvent(_ context.Context, event output.PaymentEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return m.err
}

func (m *recordingMessaging) Close() error { return nil }

func (m *recordingMessaging) types() []output.PaymentEventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]output.PaymentEventType, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.Type)
	}
	return out
}

// savingRepository records the status of every successful save
type savingRepository struct {
	*memory.PaymentRepository
	saved []core.PaymentStatus
}

func (r *savingRepository) Save(ctx context.Context, p *core.Payment) error {
	if err := r.PaymentRepository.Save(ctx, p); err != nil {
		return err
	}
	r.saved = append(r.saved, p.Status)
	return nil
}

func validRequest() input.CreatePaymentRequest {
	return input.CreatePaymentRequest{
		MerchantID:    "M1",
		Amount:        decimal.RequireFromString("100.00"),
		Currency:      core.CurrencyUSD,
		PaymentMethod: core.PaymentMethodCard,
		CustomerEmail: "a@b.com",
		Description:   "Test payment",
	}
}

func newService(t *testing.T) (*service.PaymentServiceImpl, *memory.PaymentRepository, *recordingMessaging) {
	t.Helper()
	repo := memory.NewPaymentRepository()
	msg := &recordingMessaging{}
	svc := service.NewPaymentService(repo, msg, service.WithClock(func() time.Time { return fixedNow }))
	return svc, repo, msg
}

func TestCreatePayment(t *testing.T) {
	svc, repo, msg := newService(t)
	ctx := context.Background()

	payment, err := svc.CreatePayment(ctx, validRequest())
	require.NoError(t, err)

	assert.Equal(t, int64(1), payment.ID)
	assert.Equal(t, core.PaymentStatusPending, payment.Status)
	assert.True(t, strings.HasPrefix(payment.TransactionID, "TXN-"))
	assert.Equal(t, "M1", payment.MerchantID)
	assert.True(t, payment.Amount.Equal(decimal.RequireFromString("100")))
	assert.Equal(t, core.CurrencyUSD, payment.Currency)
	assert.Equal(t, core.PaymentMethodCard, payment.PaymentMethod)
	assert.Equal(t, "a@b.com", payment.CustomerEmail)
	assert.Equal(t, "Test payment", payment.Description)
	assert.Equal(t, fixedNow, payment.CreatedAt)
	assert.Equal(t, fixedNow, payment.UpdatedAt)

	stored, err := repo.FindByID(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.TransactionID, stored.TransactionID)

	assert.Equal(t, []output.PaymentEventType{output.PaymentEventCreated}, msg.types())
}

func TestCreatePaymentNormalisesInput(t *testing.T) {
	svc, _, _ := newService(t)

	req := validRequest()
	req.MerchantID = "  M1 "
	req.Currency = "eur"
	req.PaymentMethod = " net_banking"
	req.CustomerEmail = " a@b.com "

	payment, err := svc.CreatePayment(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "M1", payment.MerchantID)
	assert.Equal(t, core.CurrencyEUR, payment.Currency)
	assert.Equal(t, core.PaymentMethodNetBanking, payment.PaymentMethod)
	assert.Equal(t, "a@b.com", payment.CustomerEmail)
}

func TestCreatePaymentTransactionIDsAreUnique(t *testing.T) {
	svc, _, _ := newService(t)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		payment, err := svc.CreatePayment(context.Background(), validRequest())
		require.NoError(t, err)
		require.False(t, seen[payment.TransactionID], "duplicate %s", payment.TransactionID)
		seen[payment.TransactionID] = true
	}
}

func TestCreatePaymentValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*input.CreatePaymentRequest)
		field  string
	}{
		{"zero amount", func(r *input.CreatePaymentRequest) { r.Amount = decimal.Zero }, "amount"},
		{"negative amount", func(r *input.CreatePaymentRequest) { r.Amount = decimal.RequireFromString("-10.00") }, "amount"},
		{"amount above limit", func(r *input.CreatePaymentRequest) { r.Amount = decimal.RequireFromString("1000000.01") }, "amount"},
		{"amount below minimum", func(r *input.CreatePaymentRequest) { r.Amount = decimal.RequireFromString("0.001") }, "amount"},
		{"amount with three decimals", func(r *input.CreatePaymentRequest) { r.Amount = decimal.RequireFromString("10.005") }, "amount"},
		{"unknown currency", func(r *input.CreatePaymentRequest) { r.Currency = "XYZ" }, "currency"},
		{"empty currency", func(r *input.CreatePaymentRequest) { r.Currency = "" }, "currency"},
		{"unknown method", func(r *input.CreatePaymentRequest) { r.PaymentMethod = "CHEQUE" }, "paymentMethod"},
		{"bad email", func(r *input.CreatePaymentRequest) { r.CustomerEmail = "not-an-email" }, "customerEmail"},
		{"missing email", func(r *input.CreatePaymentRequest) { r.CustomerEmail = "" }, "customerEmail"},
		{"blank merchant", func(r *input.CreatePaymentRequest) { r.MerchantID = "   " }, "merchantId"},
		{"long description", func(r *input.CreatePaymentRequest) { r.Description = strings.Repeat("x", 501) }, "description"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, msg := newService(t)
			req := validRequest()
			tt.mutate(&req)

			_, err := svc.CreatePayment(context.Background(), req)
			require.Error(t, err)

			var ve *core.ValidationError
			require.True(t, errors.As(err, &ve), "expected validation error, got %v", err)
			assert.Equal(t, tt.field, ve.Field)

			count, err := repo.Count(context.Background())
			require.NoError(t, err)
			assert.Zero(t, count, "nothing may be persisted")
			assert.Empty(t, msg.types())
		})
	}
}

func TestCreatePaymentBelowMinimumMessage(t *testing.T) {
	svc, _, _ := newService(t)
	req := validRequest()
	req.Amount = decimal.RequireFromString("0.001")

	_, err := svc.CreatePayment(context.Background(), req)
	assert.EqualError(t, err, "invalid amount: amount must be at least 0.01")
}

func TestCreatePaymentAmountBoundsInclusive(t *testing.T) {
	svc, _, _ := newService(t)

	for _, amount := range []string{"0.01", "1000000.00"} {
		req := validRequest()
		req.Amount = decimal.RequireFromString(amount)
		_, err := svc.CreatePayment(context.Background(), req)
		assert.NoError(t, err, amount)
	}
}

func TestGetPaymentNotFound(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.GetPayment(ctx, 999)
	var nf *core.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "id", nf.Key)
	assert.Equal(t, "999", nf.Value)

	_, err = svc.GetPaymentByTransactionID(ctx, "TXN-0-NOPE")
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "transactionId", nf.Key)
}

func TestGetPaymentByTransactionID(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	created, err := svc.CreatePayment(ctx, validRequest())
	require.NoError(t, err)

	found, err := svc.GetPaymentByTransactionID(ctx, created.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}

func TestListPayments(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	all, err := svc.ListPayments(ctx)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)

	for _, merchant := range []string{"M1", "M2", "M1"} {
		req := validRequest()
		req.MerchantID = merchant
		_, err := svc.CreatePayment(ctx, req)
		require.NoError(t, err)
	}

	all, err = svc.ListPayments(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	m1, err := svc.ListPaymentsByMerchant(ctx, "M1")
	require.NoError(t, err)
	require.Len(t, m1, 2)
	assert.Equal(t, int64(1), m1[0].ID)
	assert.Equal(t, int64(3), m1[1].ID)

	none, err := svc.ListPaymentsByMerchant(ctx, "unknown")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestListPaymentsByCustomerEmail(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreatePayment(ctx, validRequest())
	require.NoError(t, err)

	found, err := svc.ListPaymentsByCustomerEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	found, err = svc.ListPaymentsByCustomerEmail(ctx, "other@b.com")
	require.NoError(t, err)
	assert.Empty(t, found)

	_, err = svc.ListPaymentsByCustomerEmail(ctx, "nope")
	assert.True(t, core.IsValidation(err))
}

func TestProcessPaymentPersistsBothSteps(t *testing.T) {
	repo := &savingRepository{PaymentRepository: memory.NewPaymentRepository()}
	msg := &recordingMessaging{}
	svc := service.NewPaymentService(repo, msg)
	ctx := context.Background()

	created, err := svc.CreatePayment(ctx, validRequest())
	require.NoError(t, err)

	processed, err := svc.ProcessPayment(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, core.PaymentStatusCompleted, processed.Status)

	assert.Equal(t, []core.PaymentStatus{
		core.PaymentStatusPending,
		core.PaymentStatusProcessing,
		core.PaymentStatusCompleted,
	}, repo.saved)
	assert.Equal(t, []output.PaymentEventType{
		output.PaymentEventCreated,
		output.PaymentEventProcessed,
		output.PaymentEventCompleted,
	}, msg.types())
}

// statusesExcept returns every status other than the given ones
func statusesExcept(excluded ...core.PaymentStatus) []core.PaymentStatus {
	var out []core.PaymentStatus
outer:
	for _, s := range core.PaymentStatuses {
		for _, e := range excluded {
			if s == e {
				continue outer
			}
		}
		out = append(out, s)
	}
	return out
}

// paymentIn creates a payment and forces it into status
func paymentIn(t *testing.T, svc *service.PaymentServiceImpl, status core.PaymentStatus) *core.Payment {
	t.Helper()
	ctx := context.Background()
	p, err := svc.CreatePayment(ctx, validRequest())
	require.NoError(t, err)
	if status == core.PaymentStatusPending {
		return p
	}
	p, err = svc.SetStatus(ctx, p.ID, status)
	require.NoError(t, err)
	return p
}

func TestProcessPaymentRejectsNonPending(t *testing.T) {
	for _, status := range statusesExcept(core.PaymentStatusPending) {
		t.Run(string(status), func(t *testing.T) {
			svc, repo, _ := newService(t)
			p := paymentIn(t, svc, status)

			_, err := svc.ProcessPayment(context.Background(), p.ID)
			var ise *core.InvalidStateError
			require.True(t, errors.As(err, &ise), "got %v", err)
			assert.Equal(t, status, ise.Current)
			assert.Equal(t, "process", ise.Operation)

			stored, err := repo.FindByID(context.Background(), p.ID)
			require.NoError(t, err)
			assert.Equal(t, status, stored.Status)
		})
	}
}

func TestRefundPayment(t *testing.T) {
	t.Run("from completed", func(t *testing.T) {
		svc, _, _ := newService(t)
		p := paymentIn(t, svc, core.PaymentStatusCompleted)

		refunded, err := svc.RefundPayment(context.Background(), p.ID)
		require.NoError(t, err)
		assert.Equal(t, core.PaymentStatusRefunded, refunded.Status)
	})

	for _, status := range statusesExcept(core.PaymentStatusCompleted) {
		t.Run("from "+string(status), func(t *testing.T) {
			svc, repo, _ := newService(t)
			p := paymentIn(t, svc, status)

			_, err := svc.RefundPayment(context.Background(), p.ID)
			require.True(t, core.IsInvalidState(err), "got %v", err)
			assert.EqualError(t, err, "only completed payments can be refunded")

			stored, err := repo.FindByID(context.Background(), p.ID)
			require.NoError(t, err)
			assert.Equal(t, status, stored.Status)
		})
	}
}

func TestCancelPayment(t *testing.T) {
	for _, status := range statusesExcept(core.PaymentStatusCompleted, core.PaymentStatusRefunded) {
		t.Run("from "+string(status), func(t *testing.T) {
			svc, _, _ := newService(t)
			p := paymentIn(t, svc, status)

			cancelled, err := svc.CancelPayment(context.Background(), p.ID)
			require.NoError(t, err)
			assert.Equal(t, core.PaymentStatusCancelled, cancelled.Status)
		})
	}

	for _, status := range []core.PaymentStatus{core.PaymentStatusCompleted, core.PaymentStatusRefunded} {
		t.Run("from "+string(status), func(t *testing.T) {
			svc, _, _ := newService(t)
			p := paymentIn(t, svc, status)

			_, err := svc.CancelPayment(context.Background(), p.ID)
			require.True(t, core.IsInvalidState(err), "got %v", err)
			assert.EqualError(t, err, "cannot cancel completed or refunded payments")
		})
	}
}

func TestTransitionsOnMissingPayment(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	ops := map[string]func(context.Context, int64) (*core.Payment, error){
		"process": svc.ProcessPayment,
		"refund":  svc.RefundPayment,
		"cancel":  svc.CancelPayment,
	}
	for name, op := range ops {
		_, err := op(ctx, 42)
		assert.True(t, core.IsNotFound(err), "%s: got %v", name, err)
	}

	_, err := svc.SetStatus(ctx, 42, core.PaymentStatusFailed)
	assert.True(t, core.IsNotFound(err))
}

func TestSetStatus(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	p := paymentIn(t, svc, core.PaymentStatusRefunded)

	// Overrides ignore the lifecycle, even out of a terminal status
	updated, err := svc.SetStatus(ctx, p.ID, core.PaymentStatusPending)
	require.NoError(t, err)
	assert.Equal(t, core.PaymentStatusPending, updated.Status)

	_, err = svc.SetStatus(ctx, p.ID, core.PaymentStatus("BOGUS"))
	assert.True(t, core.IsValidation(err))
}

func TestUpdatedAtRefreshedOnTransition(t *testing.T) {
	repo := memory.NewPaymentRepository()
	now := fixedNow
	svc := service.NewPaymentService(repo, nil, service.WithClock(func() time.Time { return now }))
	ctx := context.Background()

	p, err := svc.CreatePayment(ctx, validRequest())
	require.NoError(t, err)

	now = fixedNow.Add(time.Minute)
	cancelled, err := svc.CancelPayment(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, fixedNow, cancelled.CreatedAt)
	assert.Equal(t, fixedNow.Add(time.Minute), cancelled.UpdatedAt)
}

func TestStatistics(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 3; i++ {
		p, err := svc.CreatePayment(ctx, validRequest())
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}
	_, err := svc.ProcessPayment(ctx, ids[0])
	require.NoError(t, err)
	_, err = svc.CancelPayment(ctx, ids[1])
	require.NoError(t, err)

	stats, err := svc.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, &input.Statistics{
		TotalPayments:     3,
		PendingPayments:   1,
		CompletedPayments: 1,
	}, stats)
}

func TestLifecycleScenario(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	p, err := svc.CreatePayment(ctx, validRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)
	assert.Equal(t, core.PaymentStatusPending, p.Status)

	p, err = svc.ProcessPayment(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, core.PaymentStatusCompleted, p.Status)

	p, err = svc.RefundPayment(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, core.PaymentStatusRefunded, p.Status)

	_, err = svc.CancelPayment(ctx, 1)
	require.True(t, core.IsInvalidState(err))
	assert.EqualError(t, err, "cannot cancel completed or refunded payments")
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	repo := memory.NewPaymentRepository()
	msg := &recordingMessaging{err: errors.New("broker down")}
	svc := service.NewPaymentService(repo, msg)

	p, err := svc.CreatePayment(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, core.PaymentStatusPending, p.Status)
	assert.Len(t, msg.types(), 1)
}

// racingRepository lets another writer save the record right after every read
type racingRepository struct {
	*memory.PaymentRepository
	raced bool
}

func (r *racingRepository) FindByID(ctx context.Context, id int64) (*core.Payment, error) {
	p, err := r.PaymentRepository.FindByID(ctx, id)
	if err != nil || r.raced {
		return p, err
	}
	r.raced = true
	other := *p
	other.Description = "touched by another writer"
	if err := r.PaymentRepository.Save(ctx, &other); err != nil {
		return nil, err
	}
	return p, nil
}

func TestConcurrentWriteIsReportedAsConflict(t *testing.T) {
	repo := &racingRepository{PaymentRepository: memory.NewPaymentRepository()}
	svc := service.NewPaymentService(repo, nil)
	ctx := context.Background()

	p, err := svc.CreatePayment(ctx, validRequest())
	require.NoError(t, err)

	_, err = svc.CancelPayment(ctx, p.ID)
	var ce *core.ConflictError
	require.True(t, errors.As(err, &ce), "got %v", err)
	assert.Equal(t, p.ID, ce.ID)

	stored, err := repo.PaymentRepository.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, core.PaymentStatusPending, stored.Status)
}

type failingRepository struct {
	*memory.PaymentRepository
}

var errStoreDown = errors.New("store down")

func (failingRepository) Count(context.Context) (int64, error) { return 0, errStoreDown }

func (failingRepository) FindByID(context.Context, int64) (*core.Payment, error) {
	return nil, errStoreDown
}

func TestStoreErrorsPropagate(t *testing.T) {
	svc := service.NewPaymentService(failingRepository{memory.NewPaymentRepository()}, nil)
	ctx := context.Background()

	_, err := svc.GetPayment(ctx, 1)
	assert.ErrorIs(t, err, errStoreDown)
	assert.False(t, core.IsNotFound(err))

	_, err = svc.Statistics(ctx)
	assert.ErrorIs(t, err, errStoreDown)
}
