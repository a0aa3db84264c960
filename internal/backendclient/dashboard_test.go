package backendclient

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDashboard(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/payments/plans", jsonHandler(http.StatusOK, plansJSON))
	mux.HandleFunc("GET /api/v1/payments/subscriptions", jsonHandler(http.StatusOK, subscriptionsJSON))
	c := newBackend(t, mux, nil, nil)

	d, err := c.LoadDashboard(context.Background())
	require.NoError(t, err)
	require.NotNil(t, d.Current)
	require.NotNil(t, d.CurrentPlan)
	assert.Equal(t, "Pro", d.CurrentPlan.Name)
	assert.True(t, CanCancel(d.Current))

	cards := PlanCards(d)
	require.Len(t, cards, 2)
	assert.Equal(t, PlanCard{Plan: d.Plans[0], Price: "$9.99/month", Action: ActionSubscribe}, cards[0])
	assert.Equal(t, "$79.00/year", cards[1].Price)
	assert.Equal(t, ActionCurrent, cards[1].Action)
	assert.True(t, cards[1].Disabled)
}

func TestLoadDashboardReportsEachFailure(t *testing.T) {
	t.Run("plans fail", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/v1/payments/plans", jsonHandler(http.StatusInternalServerError, `{"detail":"db down"}`))
		mux.HandleFunc("GET /api/v1/payments/subscriptions", jsonHandler(http.StatusOK, subscriptionsJSON))
		c := newBackend(t, mux, nil, nil)

		d, err := c.LoadDashboard(context.Background())
		require.ErrorIs(t, err, ErrRequestFailed)
		assert.Error(t, d.PlansErr)
		assert.NoError(t, d.SubscriptionsErr)
		assert.Len(t, d.Subscriptions, 1)
		assert.NotNil(t, d.Current)
		assert.Nil(t, d.CurrentPlan)
	})

	t.Run("subscriptions fail", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/v1/payments/plans", jsonHandler(http.StatusOK, plansJSON))
		mux.HandleFunc("GET /api/v1/payments/subscriptions", jsonHandler(http.StatusUnauthorized, `{"detail":"Not authenticated"}`))
		c := newBackend(t, mux, nil, nil)

		d, err := c.LoadDashboard(context.Background())
		require.ErrorIs(t, err, ErrRequestFailed)
		assert.NoError(t, d.PlansErr)
		assert.Error(t, d.SubscriptionsErr)
		assert.Len(t, d.Plans, 2)
		assert.Nil(t, d.Current)

		for _, card := range PlanCards(d) {
			assert.Equal(t, ActionSubscribe, card.Action)
		}
	})

	t.Run("fast failure leaves the slow fetch running", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/v1/payments/plans", jsonHandler(http.StatusInternalServerError, `{"detail":"db down"}`))
		mux.HandleFunc("GET /api/v1/payments/subscriptions", func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(50 * time.Millisecond):
			case <-r.Context().Done():
				return
			}
			jsonHandler(http.StatusOK, subscriptionsJSON)(w, r)
		})
		c := newBackend(t, mux, nil, nil)

		d, err := c.LoadDashboard(context.Background())
		require.ErrorIs(t, err, ErrRequestFailed)
		assert.Error(t, d.PlansErr)
		require.NoError(t, d.SubscriptionsErr)
		assert.Len(t, d.Subscriptions, 1)
	})

	t.Run("both fail", func(t *testing.T) {
		c := newBackend(t, http.NewServeMux(), nil, nil)

		d, err := c.LoadDashboard(context.Background())
		require.Error(t, err)
		assert.Error(t, d.PlansErr)
		assert.Error(t, d.SubscriptionsErr)
	})
}

func TestPlanCardsReactivate(t *testing.T) {
	d := &Dashboard{
		Plans:   []Plan{{ID: 1, Price: 500, Interval: "month"}},
		Current: &Subscription{PlanID: 1, Status: StatusCanceled},
	}
	cards := PlanCards(d)
	require.Len(t, cards, 1)
	assert.Equal(t, ActionReactivate, cards[0].Action)
	assert.False(t, cards[0].Disabled)
	assert.Equal(t, "$5.00/month", cards[0].Price)
}

func TestCanCancel(t *testing.T) {
	assert.False(t, CanCancel(nil))
	assert.True(t, CanCancel(&Subscription{Status: StatusActive}))
	assert.False(t, CanCancel(&Subscription{Status: StatusActive, CancelAtPeriodEnd: true}))
	assert.False(t, CanCancel(&Subscription{Status: StatusCanceled}))
}
