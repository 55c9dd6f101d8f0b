package cli

import (
	"fmt"
	"io"

	"github.com/franckalain/nutritrack/internal/models"
	"github.com/spf13/cobra"
)

func newProfileCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit the user profile",
	}
	cmd.AddCommand(newProfileShowCmd(o), newProfileSetCmd(o))
	return cmd
}

func newProfileShowCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, db, err := o.open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			p, err := svc.Profile(cmd.Context(), o.user())
			if err != nil {
				return err
			}
			if p == nil {
				p = &models.UserProfile{UserID: o.user()}
			}
			return o.print(cmd.OutOrStdout(), p, func(w io.Writer) {
				fmt.Fprintf(w, "user:    %s\n", p.UserID)
				if p.Name != "" {
					fmt.Fprintf(w, "name:    %s\n", p.Name)
				}
				if p.Goal != "" {
					fmt.Fprintf(w, "goal:    %s\n", p.Goal)
				}
				fmt.Fprintf(w, "target:  %.0f kcal\n", p.Target())
				fmt.Fprintf(w, "streak:  %d\n", p.CurrentStreak)
			})
		},
	}
}

func newProfileSetCmd(o *options) *cobra.Command {
	var (
		name   string
		goal   string
		target float64
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update profile fields; unset flags keep their value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, db, err := o.open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			p, err := svc.Profile(cmd.Context(), o.user())
			if err != nil {
				return err
			}
			if p == nil {
				p = &models.UserProfile{UserID: o.user()}
			}
			flags := cmd.Flags()
			if flags.Changed("name") {
				p.Name = name
			}
			if flags.Changed("goal") {
				p.Goal = goal
			}
			if flags.Changed("target") {
				p.CalorieTarget = target
			}
			p.OnboardingComplete = true

			if err := svc.SaveProfile(cmd.Context(), p); err != nil {
				return err
			}
			return o.print(cmd.OutOrStdout(), p, func(w io.Writer) {
				fmt.Fprintf(w, "profile saved (target %.0f kcal)\n", p.Target())
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&goal, "goal", "", "Free-form goal, e.g. \"lose weight\"")
	cmd.Flags().Float64Var(&target, "target", 0, "Daily calorie target (kcal)")
	return cmd
}
