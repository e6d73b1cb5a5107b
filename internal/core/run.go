package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/inovacc/drivesign/internal/drive"
	"github.com/inovacc/drivesign/internal/notify"
	"github.com/inovacc/drivesign/internal/state"
)

// Runner ties the drive client, the notification dispatcher and the state
// store together.
type Runner struct {
	client     *drive.Client
	dispatcher *notify.Dispatcher
	store      state.Store
	logger     *slog.Logger
	now        func() time.Time
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithClock replaces time.Now, used to decide whether a cached access token
// is still valid.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		r.now = now
	}
}

// NewRunner creates a Runner.
func NewRunner(client *drive.Client, dispatcher *notify.Dispatcher, store state.Store, opts ...RunnerOption) *Runner {
	r := &Runner{
		client:     client,
		dispatcher: dispatcher,
		store:      store,
		logger:     slog.Default(),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// AccountResult is the outcome of one account in a run.
type AccountResult struct {
	// Account is the account name, or a masked refresh token when unknown
	Account string

	// Refreshed is true when a new credential was obtained this run
	Refreshed bool

	// Skip is set when the account could not be signed in
	Skip SkipReason

	// Outcome is the sign-in outcome; nil when skipped
	Outcome *drive.Outcome

	// Err is the refresh or sign-in error, if any
	Err error

	// Deliveries holds one result per enabled channel
	Deliveries []notify.Result
}

// SignedIn reports whether the sign-in succeeded.
func (a AccountResult) SignedIn() bool {
	return a.Outcome != nil && a.Outcome.Success
}

// Report summarizes a run.
type Report struct {
	RunID    string
	Accounts []AccountResult
	Saved    bool
	Duration time.Duration
}

// Counts returns the number of signed-in, failed and skipped accounts.
func (r *Report) Counts() (signedIn, failed, skipped int) {
	for _, a := range r.Accounts {
		switch {
		case a.Skip != SkipReasonNone:
			skipped++
		case a.SignedIn():
			signedIn++
		default:
			failed++
		}
	}

	return signedIn, failed, skipped
}

// Run processes every account. It returns an error only when the state
// cannot be loaded or the rotated tokens cannot be saved; per-account
// failures are recorded in the report.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	start := r.now()
	report := &Report{RunID: uuid.NewString()}
	logger := r.logger.With("run_id", report.RunID)

	st, err := r.store.Load(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to load state from %s backend: %w", r.store.Name(), err)
	}

	logger.Info("run started", "accounts", len(st.Accounts), "backend", r.store.Name())

	changed := false

	for i := range st.Accounts {
		before := st.Accounts[i]

		res := r.processAccount(ctx, logger, &st.Accounts[i])
		if st.Accounts[i] != before {
			changed = true
		}

		report.Accounts = append(report.Accounts, res)
	}

	if changed {
		// Save with a fresh context so a canceled run still keeps the rotated tokens.
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()

		if err := r.store.Save(saveCtx, st); err != nil {
			logger.Error("failed to save rotated tokens", "backend", r.store.Name(), "error", err)

			return report, &StateSaveError{Backend: r.store.Name(), Err: err}
		}

		report.Saved = true
		logger.Info("rotated tokens saved", "backend", r.store.Name())
	}

	report.Duration = r.now().Sub(start)

	signedIn, failed, skipped := report.Counts()
	logger.Info("run finished", "signed_in", signedIn, "failed", failed, "skipped", skipped)

	return report, nil
}

// processAccount refreshes, signs in and notifies for one account, updating
// acct in place when a new credential is obtained.
func (r *Runner) processAccount(ctx context.Context, logger *slog.Logger, acct *state.Account) AccountResult {
	res := AccountResult{Account: accountLabel(acct)}

	if err := ctx.Err(); err != nil {
		res.Skip = SkipReasonCanceled
		res.Err = err

		return res
	}

	cached := acct.Valid(r.now())

	cred, err := r.credential(ctx, acct, cached)
	if err != nil {
		return r.skip(ctx, logger, res, err)
	}

	r.apply(acct, cred, &res)

	outcome, err := r.client.SignIn(ctx, cred.AccessToken)
	if err != nil && cached && ctx.Err() == nil {
		logger.Warn("cached access token rejected, refreshing", "account", res.Account, "error", err)

		acct.AccessToken = ""
		acct.ExpiresAt = time.Time{}

		cred, err = r.client.Refresh(ctx, acct.RefreshToken)
		if err != nil {
			return r.skip(ctx, logger, res, err)
		}

		r.apply(acct, cred, &res)
		outcome, err = r.client.SignIn(ctx, cred.AccessToken)
	}

	if err != nil {
		res.Err = err
		logger.Error("sign-in failed", "account", res.Account, "error", err)
	} else {
		logger.Info("sign-in succeeded", "account", res.Account, "monthly_count", outcome.MonthlyCount, "reward", outcome.Reward)
	}

	res.Outcome = outcome
	res.Deliveries = r.dispatcher.Dispatch(ctx, notify.NewMessage(res.Account, outcome))

	return res
}

// skip records a failed credential lookup and sends the failure notification.
func (r *Runner) skip(ctx context.Context, logger *slog.Logger, res AccountResult, err error) AccountResult {
	res.Err = err
	res.Skip = SkipReasonUpstream

	if errors.Is(err, drive.ErrCredentialExpired) {
		res.Skip = SkipReasonExpired
	}

	logger.Error("failed to get access token", "account", res.Account, "reason", res.Skip.String(), "error", err)

	msg := notify.NewMessage(res.Account, drive.Failed(res.Skip.String()+": "+err.Error()))
	res.Deliveries = r.dispatcher.Dispatch(ctx, msg)

	return res
}

// apply stores cred in acct and names the result after the account.
func (r *Runner) apply(acct *state.Account, cred *drive.Credential, res *AccountResult) {
	if cred.RefreshToken != acct.RefreshToken {
		res.Refreshed = true
	}

	*acct = state.Account{
		RefreshToken: cred.RefreshToken,
		AccessToken:  cred.AccessToken,
		ExpiresAt:    cred.ExpiresAt,
		Account:      cred.Account,
	}

	if cred.Account != "" {
		res.Account = cred.Account
	}
}

// credential returns the cached credential when cached is set, otherwise a
// freshly refreshed one.
func (r *Runner) credential(ctx context.Context, acct *state.Account, cached bool) (*drive.Credential, error) {
	if cached {
		return &drive.Credential{
			RefreshToken: acct.RefreshToken,
			AccessToken:  acct.AccessToken,
			ExpiresAt:    acct.ExpiresAt,
			Account:      acct.Account,
		}, nil
	}

	return r.client.Refresh(ctx, acct.RefreshToken)
}

// accountLabel names an account in logs and notifications without exposing
// its refresh token.
func accountLabel(acct *state.Account) string {
	if acct.Account != "" {
		return acct.Account
	}

	if len(acct.RefreshToken) <= 8 {
		return "***"
	}

	return acct.RefreshToken[:4] + "***" + acct.RefreshToken[len(acct.RefreshToken)-4:]
}

// PrintSummary writes a short summary of the report to w.
func PrintSummary(w io.Writer, report *Report) {
	signedIn, failed, skipped := report.Counts()

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "  Signed in: %d\n", signedIn)
	_, _ = fmt.Fprintf(w, "  Failed:    %d\n", failed)
	_, _ = fmt.Fprintf(w, "  Skipped:   %d\n", skipped)
	_, _ = fmt.Fprintf(w, "  Total:     %d accounts in %s\n", len(report.Accounts), report.Duration.Round(time.Millisecond))

	for _, a := range report.Accounts {
		switch {
		case a.Skip != SkipReasonNone:
			_, _ = fmt.Fprintf(w, "  - %s: skipped (%s)\n", a.Account, a.Skip)
		case a.SignedIn():
			_, _ = fmt.Fprintf(w, "  - %s: %d days, %s\n", a.Account, a.Outcome.MonthlyCount, a.Outcome.Reward)
		default:
			_, _ = fmt.Fprintf(w, "  - %s: sign-in failed\n", a.Account)
		}

		for _, d := range notify.Failed(a.Deliveries) {
			_, _ = fmt.Fprintf(w, "      %s: %v\n", d.Channel, d.Err)
		}
	}
}
