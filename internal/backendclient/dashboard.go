package backendclient

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Dashboard is the subscriptions page state. Each half carries its own error
// so the page can render whatever loaded.
type Dashboard struct {
	Plans            []Plan
	PlansErr         error
	Subscriptions    []Subscription
	SubscriptionsErr error

	Current     *Subscription
	CurrentPlan *Plan
}

// LoadDashboard fetches plans and subscriptions concurrently. The returned
// error joins whichever of them failed.
//
// Each fetch stores its error in its own Dashboard field and reports nil to
// the group, so one failure neither cancels nor hides the other.
func (c *Client) LoadDashboard(ctx context.Context) (*Dashboard, error) {
	d := &Dashboard{}
	var g errgroup.Group
	g.Go(func() error {
		d.Plans, d.PlansErr = c.Plans(ctx)
		return nil
	})
	g.Go(func() error {
		d.Subscriptions, d.SubscriptionsErr = c.Subscriptions(ctx)
		return nil
	})
	_ = g.Wait() // always nil, see above

	if len(d.Subscriptions) > 0 {
		d.Current = &d.Subscriptions[0]
		for i := range d.Plans {
			if d.Plans[i].ID == d.Current.PlanID {
				d.CurrentPlan = &d.Plans[i]
				break
			}
		}
	}
	return d, errors.Join(d.PlansErr, d.SubscriptionsErr)
}

// PlanCard is one plan as the pricing grid shows it.
type PlanCard struct {
	Plan     Plan
	Price    string
	Action   string
	Disabled bool
}

const (
	ActionSubscribe  = "Subscribe"
	ActionCurrent    = "Current Plan"
	ActionReactivate = "Reactivate"
)

// PlanCards maps the dashboard onto pricing cards. The active current plan is
// disabled; a lapsed current plan offers reactivation.
func PlanCards(d *Dashboard) []PlanCard {
	cards := make([]PlanCard, 0, len(d.Plans))
	for _, p := range d.Plans {
		card := PlanCard{Plan: p, Price: FormatPrice(p), Action: ActionSubscribe}
		if d.Current != nil && d.Current.PlanID == p.ID {
			if d.Current.Status == StatusActive {
				card.Action, card.Disabled = ActionCurrent, true
			} else {
				card.Action = ActionReactivate
			}
		}
		cards = append(cards, card)
	}
	return cards
}

// CanCancel reports whether sub is active and not already set to end.
func CanCancel(sub *Subscription) bool {
	return sub != nil && sub.Status == StatusActive && !sub.CancelAtPeriodEnd
}

// FormatPrice renders a plan price like "$9.99/month".
func FormatPrice(p Plan) string {
	cents := p.Price
	sign := ""
	if cents < 0 {
		sign, cents = "-", -cents
	}
	return fmt.Sprintf("%s$%d.%02d/%s", sign, cents/100, cents%100, p.Interval)
}
