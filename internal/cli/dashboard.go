package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/webapp-skeleton/cms/internal/backendclient"
	"github.com/webapp-skeleton/cms/internal/cmsclient"
	"github.com/webapp-skeleton/cms/internal/pkg/output"
)

func newDashboardCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show plans and the current subscription",
		Long: `dashboard loads plans and subscriptions from the billing API in parallel.
Whatever loaded is printed even when the other half failed; the command then
exits with the failure.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.deps.backend(opts.logger())
			if err != nil {
				return err
			}
			d, loadErr := c.LoadDashboard(cmd.Context())
			if opts.jsonOut {
				if err := writeJSON(cmd.OutOrStdout(), dashboardJSON(d)); err != nil {
					return err
				}
				return loadErr
			}
			if err := printDashboard(cmd.OutOrStdout(), d); err != nil {
				return err
			}
			return loadErr
		},
	}
}

type dashboardView struct {
	Current     *backendclient.Subscription `json:"current"`
	CurrentPlan *backendclient.Plan         `json:"currentPlan"`
	CanCancel   bool                        `json:"canCancel"`
	Plans       []backendclient.PlanCard    `json:"plans"`
	Errors      map[string]string           `json:"errors,omitempty"`
}

func dashboardJSON(d *backendclient.Dashboard) dashboardView {
	v := dashboardView{
		Current:     d.Current,
		CurrentPlan: d.CurrentPlan,
		CanCancel:   backendclient.CanCancel(d.Current),
		Plans:       backendclient.PlanCards(d),
	}
	for name, err := range map[string]error{"plans": d.PlansErr, "subscriptions": d.SubscriptionsErr} {
		if err == nil {
			continue
		}
		if v.Errors == nil {
			v.Errors = map[string]string{}
		}
		v.Errors[name] = err.Error()
	}
	return v
}

func printDashboard(w io.Writer, d *backendclient.Dashboard) error {
	switch {
	case d.SubscriptionsErr != nil:
		fmt.Fprintf(w, "subscription: unavailable (%v)\n", d.SubscriptionsErr)
	case d.Current == nil:
		fmt.Fprintln(w, "subscription: none")
	default:
		name := "unknown plan"
		price := ""
		if d.CurrentPlan != nil {
			name, price = d.CurrentPlan.Name, " "+backendclient.FormatPrice(*d.CurrentPlan)
		}
		fmt.Fprintf(w, "subscription: %s%s, %s\n", name, price, d.Current.Status)
		fmt.Fprintf(w, "period: %s - %s\n",
			cmsclient.FormatDate(&d.Current.CurrentPeriodStart.Time),
			cmsclient.FormatDate(&d.Current.CurrentPeriodEnd.Time))
		if d.Current.CancelAtPeriodEnd {
			fmt.Fprintln(w, "cancels at the end of the period")
		} else if backendclient.CanCancel(d.Current) {
			fmt.Fprintln(w, "can be cancelled")
		}
	}

	if d.PlansErr != nil {
		fmt.Fprintf(w, "plans: unavailable (%v)\n", d.PlansErr)
		return nil
	}
	tbl := output.NewTable(w, "plan", "price", "action")
	for _, card := range backendclient.PlanCards(d) {
		action := card.Action
		if card.Disabled {
			action += " (disabled)"
		}
		tbl.AddRow(card.Plan.Name, card.Price, action)
	}
	return tbl.Render()
}
