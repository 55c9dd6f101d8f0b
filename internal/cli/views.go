package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/franckalain/nutritrack/internal/models"
	"github.com/spf13/cobra"
)

func newDashboardCmd(o *options) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show a day's calories, macros, water and streak",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, db, err := o.open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			d, err := svc.Dashboard(cmd.Context(), o.user(), date)
			if err != nil {
				return err
			}
			return o.print(cmd.OutOrStdout(), d, func(w io.Writer) {
				fmt.Fprintf(w, "%s\n", d.Totals.Date)
				fmt.Fprintf(w, "calories:  %.0f / %.0f (%d%%, %.0f left)\n", d.Totals.Calories, d.CalorieTarget, d.ProgressPercent, d.RemainingCalories)
				fmt.Fprintf(w, "protein:   %.0f / %.0f g\n", d.Totals.Protein, d.MacroTargets.Protein)
				fmt.Fprintf(w, "carbs:     %.0f / %.0f g\n", d.Totals.Carbs, d.MacroTargets.Carbs)
				fmt.Fprintf(w, "fat:       %.0f / %.0f g\n", d.Totals.Fat, d.MacroTargets.Fat)
				fmt.Fprintf(w, "water:     %.0f ml\n", d.Water)
				fmt.Fprintf(w, "streak:    %d\n", d.CurrentStreak)
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Date YYYY-MM-DD (default today)")
	return cmd
}

func newWeekCmd(o *options) *cobra.Command {
	var ref string
	cmd := &cobra.Command{
		Use:   "week",
		Short: "Show calories and water for the last 7 days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, db, err := o.open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			wk, err := svc.Weekly(cmd.Context(), o.user(), ref)
			if err != nil {
				return err
			}
			return o.print(cmd.OutOrStdout(), wk, func(w io.Writer) {
				for i, day := range wk.Calories {
					fmt.Fprintf(w, "%s  %6.0f kcal  %6.0f ml\n", day.Date, day.TotalCalories, wk.Water[i].Amount)
				}
			})
		},
	}
	cmd.Flags().StringVar(&ref, "ref", "", "Last day of the window YYYY-MM-DD (default today)")
	return cmd
}

func newHistoryCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List every meal grouped by day, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, db, err := o.open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			groups, err := svc.History(cmd.Context(), o.user())
			if err != nil {
				return err
			}
			if groups == nil {
				groups = []models.HistoryGroup{}
			}
			return o.print(cmd.OutOrStdout(), groups, func(w io.Writer) {
				if len(groups) == 0 {
					fmt.Fprintln(w, "no meals logged")
					return
				}
				for _, g := range groups {
					fmt.Fprintf(w, "%s  %.0f kcal\n", g.Date, g.TotalCalories)
					for _, m := range g.Meals {
						fmt.Fprintf(w, "  %-9s %-24s %6.0f kcal  %s\n", m.Category, m.FoodName, m.Calories, m.ID)
					}
				}
			})
		},
	}
}

func newAchievementsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "achievements",
		Short: "Show achievement progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, db, err := o.open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			list, err := svc.Achievements(cmd.Context(), o.user())
			if err != nil {
				return err
			}
			return o.print(cmd.OutOrStdout(), list, func(w io.Writer) {
				for _, a := range list {
					mark := " "
					if a.Unlocked {
						mark = "x"
					}
					fmt.Fprintf(w, "[%s] %-18s %s/%s  %s\n", mark, a.Title,
						trimFloat(a.Progress), trimFloat(a.Target), a.Description)
				}
			})
		},
	}
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.1f", v)
	return strings.TrimSuffix(s, ".0")
}
