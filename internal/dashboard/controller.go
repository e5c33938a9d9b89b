package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Tcordeir0/vpsurge-fin/internal/auth"
	"github.com/Tcordeir0/vpsurge-fin/internal/core"
	"github.com/Tcordeir0/vpsurge-fin/internal/feed"
	"github.com/Tcordeir0/vpsurge-fin/internal/notify"
	"github.com/Tcordeir0/vpsurge-fin/internal/store"
)

// Controller keeps a per-user snapshot of transactions in sync with the
// backing store. It follows the signed-in identity, subscribes to the change
// feed for that identity, and refreshes its cache whenever either side moves.
type Controller struct {
	store    store.Store
	feed     feed.Feed
	auth     auth.Provider
	notifier notify.Notifier

	// nowFn is swapped in tests to pin metric bucketing.
	nowFn func() time.Time

	// generation increments on every refresh trigger. A fetch whose
	// generation is no longer current is discarded instead of applied.
	generation atomic.Int64
	fetchGroup singleflight.Group

	mu       sync.Mutex
	running  bool
	state    State
	user     *auth.User
	list     []core.Transaction
	lastErr  error
	unsubApp auth.Unsubscribe
	unsubFee feed.Unsubscribe
}

func NewController(s store.Store, f feed.Feed, a auth.Provider, n notify.Notifier) *Controller {
	return &Controller{
		store:    s,
		feed:     f,
		auth:     a,
		notifier: n,
		nowFn:    time.Now,
		state:    StateUnauthenticated,
	}
}

// Start attaches the controller to the auth provider. The provider delivers
// the current identity immediately, so by the time Start returns the first
// load for an already-signed-in user has been attempted.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("dashboard controller is already running")
	}
	c.running = true
	c.mu.Unlock()

	c.unsubApp = c.auth.OnChange(func(u *auth.User) {
		c.handleAuthChange(ctx, u)
	})

	slog.InfoContext(ctx, "Dashboard controller started")
	return nil
}

// Stop detaches from the auth provider and the change feed. Safe to call
// more than once.
func (c *Controller) Stop(ctx context.Context) {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	unsubAuth := c.unsubApp
	unsubFeed := c.unsubFee
	c.unsubApp = nil
	c.unsubFee = nil
	c.mu.Unlock()

	if unsubAuth != nil {
		unsubAuth()
	}
	if unsubFeed != nil {
		unsubFeed()
	}
	slog.InfoContext(ctx, "Dashboard controller stopped")
}

// Snapshot returns the current state, the cached transaction list and the
// metrics derived from it. The returned slice is shared; callers must not
// mutate it.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		State:        c.state,
		Transactions: c.list,
		Metrics:      core.ComputeMetrics(c.list, c.nowFn()),
		Err:          c.lastErr,
	}
}

// State reports the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// MonthlySeries returns trailing month totals from the cached list.
func (c *Controller) MonthlySeries(months int) []core.MonthlyPoint {
	c.mu.Lock()
	list := c.list
	now := c.nowFn()
	c.mu.Unlock()
	return core.MonthlySeries(list, now, months)
}

// CategoryBreakdown returns expense totals per category from the cached list.
func (c *Controller) CategoryBreakdown() []core.CategoryTotal {
	c.mu.Lock()
	list := c.list
	c.mu.Unlock()
	return core.CategoryBreakdown(list)
}

// CreateInput carries a new transaction as submitted: a positive magnitude
// plus a kind. The sign is derived from the kind before storage.
type CreateInput struct {
	AmountCents  int64
	Kind         core.Kind
	OccurredAt   time.Time
	Description  string
	Counterparty string
	Category     string
}

// Create validates and stores a new transaction for the signed-in user,
// publishes an insert event and refreshes the snapshot.
func (c *Controller) Create(ctx context.Context, in CreateInput) (core.Transaction, error) {
	owner, err := c.requireOwner()
	if err != nil {
		return core.Transaction{}, err
	}

	amount, err := core.SignedAmount(in.AmountCents, in.Kind)
	if err != nil {
		return core.Transaction{}, err
	}

	t := core.Transaction{
		Owner:        owner,
		Amount:       amount,
		Kind:         in.Kind,
		OccurredAt:   in.OccurredAt,
		Description:  in.Description,
		Counterparty: in.Counterparty,
		Category:     in.Category,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	saved, err := c.store.Insert(ctx, t)
	if err != nil {
		c.notifier.Error(ctx, "Could not save transaction")
		return core.Transaction{}, remoteErr("insert", err)
	}

	c.notifier.Success(ctx, "Transaction added")
	c.publish(ctx, feed.NewEvent(owner, feed.OpInsert, saved.ID))
	c.refresh(ctx, true)
	return saved, nil
}

// Update applies a partial edit to one of the signed-in user's transactions.
func (c *Controller) Update(ctx context.Context, id int64, fields store.UpdateFields) error {
	owner, err := c.requireOwner()
	if err != nil {
		return err
	}
	// An amount needs its kind to derive the stored sign, and a kind change
	// re-signs the amount; one without the other could flip a row's sign.
	if (fields.Amount != nil) != (fields.Kind != nil) {
		return core.ErrPartialAmountChange
	}
	if fields.Amount != nil {
		signed, err := core.SignedAmount(fields.Amount.Abs().Cents, *fields.Kind)
		if err != nil {
			return err
		}
		fields.Amount = &signed
	}

	if err := c.store.Update(ctx, owner, id, fields); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.notifier.Error(ctx, "Transaction not found")
			return remoteErr("update", err)
		}
		c.notifier.Error(ctx, "Could not update transaction")
		return remoteErr("update", err)
	}

	c.notifier.Success(ctx, "Transaction updated")
	c.publish(ctx, feed.NewEvent(owner, feed.OpUpdate, id))
	c.refresh(ctx, true)
	return nil
}

// Remove deletes one of the signed-in user's transactions.
func (c *Controller) Remove(ctx context.Context, id int64) error {
	owner, err := c.requireOwner()
	if err != nil {
		return err
	}

	if err := c.store.Delete(ctx, owner, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.notifier.Error(ctx, "Transaction not found")
			return remoteErr("delete", err)
		}
		c.notifier.Error(ctx, "Could not delete transaction")
		return remoteErr("delete", err)
	}

	c.notifier.Success(ctx, "Transaction deleted")
	c.publish(ctx, feed.NewEvent(owner, feed.OpDelete, id))
	c.refresh(ctx, true)
	return nil
}

// Refresh fetches the signed-in user's transactions and replaces the cached
// snapshot, unless a newer refresh started in the meantime. Without a user
// it is a no-op.
func (c *Controller) Refresh(ctx context.Context) {
	c.refresh(ctx, false)
}

// refresh collapses concurrent fetches for the same owner. A fresh refresh
// forgets the in-flight fetch first: a post-mutation refresh must not join
// a list read issued before the mutation committed and serve it as current.
func (c *Controller) refresh(ctx context.Context, fresh bool) {
	c.mu.Lock()
	if c.user == nil {
		c.mu.Unlock()
		return
	}
	owner := c.user.ID
	c.mu.Unlock()

	gen := c.generation.Add(1)

	if fresh {
		c.fetchGroup.Forget(owner)
	}
	v, err, _ := c.fetchGroup.Do(owner, func() (any, error) {
		return c.store.ListByOwner(ctx, owner)
	})

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen < c.generation.Load() {
		slog.DebugContext(ctx, "Discarding stale refresh",
			"generation", gen, "current", c.generation.Load())
		return
	}
	if c.user == nil || c.user.ID != owner {
		return
	}

	if err != nil {
		c.state = StateError
		c.lastErr = remoteErr("list", err)
		slog.ErrorContext(ctx, "Transaction refresh failed", "owner", owner, "error", err)
		return
	}

	c.list = v.([]core.Transaction)
	c.state = StateReady
	c.lastErr = nil
}

func (c *Controller) requireOwner() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return "", ErrNotAuthenticated
	}
	return c.user.ID, nil
}

func (c *Controller) handleAuthChange(ctx context.Context, u *auth.User) {
	c.mu.Lock()
	oldUnsub := c.unsubFee
	c.unsubFee = nil
	c.generation.Add(1) // in-flight fetches for the old identity are stale
	if u == nil {
		c.user = nil
		c.list = nil
		c.lastErr = nil
		c.state = StateUnauthenticated
		c.mu.Unlock()
		if oldUnsub != nil {
			oldUnsub()
		}
		slog.InfoContext(ctx, "Signed out, dashboard cleared")
		return
	}
	c.user = u
	c.list = nil
	c.lastErr = nil
	c.state = StateLoading
	c.mu.Unlock()

	if oldUnsub != nil {
		oldUnsub()
	}

	unsub, err := c.feed.Subscribe(u.ID, func(ev feed.Event) {
		c.handleFeedEvent(ctx, ev)
	})
	if err != nil {
		slog.ErrorContext(ctx, "Change feed subscription failed",
			"owner", u.ID, "error", err)
	} else {
		c.mu.Lock()
		c.unsubFee = unsub
		c.mu.Unlock()
	}

	slog.InfoContext(ctx, "Signed in, loading dashboard", "owner", u.ID)
	c.Refresh(ctx)
}

func (c *Controller) handleFeedEvent(ctx context.Context, ev feed.Event) {
	c.mu.Lock()
	current := c.user
	c.mu.Unlock()

	// The feed is routed per owner, but a misrouted event must not leak
	// another user's refresh into this snapshot.
	if current == nil || ev.Owner != current.ID {
		slog.WarnContext(ctx, "Ignoring change event for different owner",
			"event_owner", ev.Owner)
		return
	}

	slog.DebugContext(ctx, "Change event received", "op", ev.Op, "id", ev.ID)
	c.Refresh(ctx)
}

func (c *Controller) publish(ctx context.Context, ev feed.Event) {
	if err := c.feed.Publish(ctx, ev); err != nil {
		slog.WarnContext(ctx, "Change event publish failed",
			"op", ev.Op, "id", ev.ID, "error", err)
	}
}
