package metering

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// PeriodLayout formats the monthly billing period key.
const PeriodLayout = "2006-01"

// DefaultAccount is used when a caller does not name an account.
const DefaultAccount = "default"

// Status is a snapshot of an account's plan and usage for the current month.
type Status struct {
	Account   string `json:"account"`
	Plan      Plan   `json:"plan"`
	Period    string `json:"period"`
	Used      int    `json:"used"`
	Remaining int    `json:"remaining"` // -1 for unlimited plans
}

// String formats the status the way it is shown to users.
func (s Status) String() string {
	remaining := "unlimited"
	if !s.Plan.Unlimited {
		remaining = fmt.Sprintf("%d", s.Remaining)
	}
	return fmt.Sprintf("Plan: %s | Used: %d | Remaining: %s | Resets monthly", s.Plan.Name, s.Used, remaining)
}

// Meter enforces monthly credit limits per account.
//
// Usage resets to zero the first time an account is touched in a new
// calendar month. Changing plan keeps the current month's usage.
type Meter struct {
	store       Store
	now         func() time.Time
	defaultPlan Plan
	logger      *zap.Logger
}

// Option customizes a Meter.
type Option func(*Meter)

// WithClock replaces time.Now, for tests and for pinning a timezone.
func WithClock(now func() time.Time) Option {
	return func(m *Meter) { m.now = now }
}

// WithDefaultPlan sets the plan given to accounts that have never chosen one.
func WithDefaultPlan(p Plan) Option {
	return func(m *Meter) { m.defaultPlan = p }
}

// WithLogger sets the logger for plan changes and charges.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Meter) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMeter creates a Meter backed by store. Accounts start on PlanFree.
func NewMeter(store Store, opts ...Option) *Meter {
	m := &Meter{
		store:       store,
		now:         time.Now,
		defaultPlan: PlanFree,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Status returns the account's plan and usage, applying a monthly reset if due.
func (m *Meter) Status(ctx context.Context, account string) (Status, error) {
	return m.update(ctx, account, nil)
}

// SetPlan moves the account to the named plan.
func (m *Meter) SetPlan(ctx context.Context, account, planName string) (Status, error) {
	plan, err := LookupPlan(planName)
	if err != nil {
		return Status{}, err
	}
	st, err := m.update(ctx, account, func(u *Usage, _ Plan) error {
		u.Plan = plan.ID
		return nil
	})
	if err != nil {
		return Status{}, err
	}
	m.logger.Info("plan changed",
		zap.String("account", st.Account),
		zap.String("plan", plan.ID),
	)
	return st, nil
}

// Reservation is a block of credits held for one batch.
type Reservation struct {
	Account string `json:"account"`
	Period  string `json:"period"`
	Credits int    `json:"credits"`
}

// Reserve checks that n more images fit in the account's allowance and
// charges them in the same store transaction, so concurrent batches on one
// account can never overrun the plan. Credits a batch does not use are
// handed back with Release. The error wraps ErrInsufficientCredits.
func (m *Meter) Reserve(ctx context.Context, account string, n int) (Reservation, error) {
	st, err := m.update(ctx, account, func(u *Usage, p Plan) error {
		if !p.Allows(u.Used, n) {
			return fmt.Errorf("%w: %d requested, %d remaining on plan %s",
				ErrInsufficientCredits, n, p.Remaining(u.Used), p.Name)
		}
		if n > 0 {
			u.Used += n
		}
		return nil
	})
	if err != nil {
		return Reservation{}, err
	}
	r := Reservation{Account: st.Account, Period: st.Period, Credits: max(n, 0)}
	m.logger.Debug("credits reserved",
		zap.String("account", r.Account),
		zap.Int("images", r.Credits),
		zap.Int("used", st.Used),
		zap.String("period", r.Period),
	)
	return r, nil
}

// Release returns n of the reservation's credits to the account.
//
// n is clamped to the reserved amount. A reservation from an earlier month is
// not refunded: the monthly reset has already cleared it.
func (m *Meter) Release(ctx context.Context, r Reservation, n int) error {
	n = min(n, r.Credits)
	if n <= 0 {
		return nil
	}
	st, err := m.update(ctx, r.Account, func(u *Usage, _ Plan) error {
		if u.Period != r.Period {
			return nil
		}
		u.Used = max(u.Used-n, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to release credits: %w", err)
	}
	m.logger.Debug("credits released",
		zap.String("account", st.Account),
		zap.Int("images", n),
		zap.Int("used", st.Used),
	)
	return nil
}

// Consume charges n images to the account.
//
// Consume does not check the allowance: it records work that has already
// been done outside a reservation.
func (m *Meter) Consume(ctx context.Context, account string, n int) error {
	if n <= 0 {
		return nil
	}
	st, err := m.update(ctx, account, func(u *Usage, _ Plan) error {
		u.Used += n
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record usage: %w", err)
	}
	m.logger.Debug("credits consumed",
		zap.String("account", st.Account),
		zap.Int("images", n),
		zap.Int("used", st.Used),
		zap.String("period", st.Period),
	)
	return nil
}

// update runs fn inside a store transaction after the monthly reset and
// returns the resulting status. A nil fn only applies the reset.
func (m *Meter) update(ctx context.Context, account string, fn func(*Usage, Plan) error) (Status, error) {
	if account == "" {
		account = DefaultAccount
	}
	period := m.now().Format(PeriodLayout)

	var plan Plan
	u, err := m.store.Update(ctx, account, func(u *Usage) error {
		if u.Period != period {
			u.Period = period
			u.Used = 0
		}
		p, err := m.planFor(u)
		if err != nil {
			return err
		}
		plan = p
		if fn != nil {
			if err := fn(u, p); err != nil {
				return err
			}
			if p2, err := m.planFor(u); err == nil {
				plan = p2
			}
		}
		return nil
	})
	if err != nil {
		return Status{}, err
	}

	return Status{
		Account:   u.Account,
		Plan:      plan,
		Period:    u.Period,
		Used:      u.Used,
		Remaining: plan.Remaining(u.Used),
	}, nil
}

func (m *Meter) planFor(u *Usage) (Plan, error) {
	if u.Plan == "" {
		return m.defaultPlan, nil
	}
	return LookupPlan(u.Plan)
}
