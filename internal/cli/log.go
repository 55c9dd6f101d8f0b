package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/franckalain/nutritrack/internal/models"
	"github.com/franckalain/nutritrack/internal/tracker"
	"github.com/spf13/cobra"
)

func newLogMealCmd(o *options) *cobra.Command {
	var in tracker.MealInput
	var category string

	cmd := &cobra.Command{
		Use:   "log-meal",
		Short: "Log a meal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, db, err := o.open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			in.Category = models.Category(category)
			out, err := svc.LogMeal(cmd.Context(), o.user(), in)
			if err != nil {
				return err
			}
			return o.print(cmd.OutOrStdout(), out, func(w io.Writer) {
				fmt.Fprintf(w, "logged %s (%s, %.0f kcal) on %s\n", out.Meal.FoodName, out.Meal.Category, out.Meal.Calories, out.Meal.Date)
				fmt.Fprintf(w, "id: %s\n", out.Meal.ID)
				fmt.Fprintf(w, "streak: %d\n", out.Streak.Current)
				for _, id := range out.Unlocked {
					fmt.Fprintf(w, "unlocked: %s\n", id)
				}
			})
		},
	}

	cmd.Flags().StringVarP(&in.FoodName, "name", "n", "", "Food name (required)")
	cmd.Flags().Float64VarP(&in.Calories, "calories", "c", 0, "Calories (kcal)")
	cmd.Flags().Float64Var(&in.Protein, "protein", 0, "Protein (g)")
	cmd.Flags().Float64Var(&in.Carbs, "carbs", 0, "Carbohydrates (g)")
	cmd.Flags().Float64Var(&in.Fat, "fat", 0, "Fat (g)")
	cmd.Flags().StringVar(&category, "category", "", "Breakfast, Lunch, Dinner or Snack (default Snack)")
	cmd.Flags().StringVar(&in.Date, "date", "", "Meal date YYYY-MM-DD (default today)")
	cmd.MarkFlagRequired("name")
	return cmd
}

func newLogWaterCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "log-water <ml>",
		Short: "Add water to today's intake",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("amount %q: %w", args[0], err)
			}

			svc, db, err := o.open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			res, err := svc.LogWater(cmd.Context(), o.user(), amount)
			if err != nil {
				return err
			}
			return o.print(cmd.OutOrStdout(), res, func(w io.Writer) {
				fmt.Fprintf(w, "water on %s: %.0f ml\n", res.Date, res.Amount)
				if res.GoalMet {
					fmt.Fprintln(w, "hydration goal met!")
				}
			})
		},
	}
}

func newDeleteMealCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-meal <id>",
		Short: "Delete a logged meal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, db, err := o.open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := svc.DeleteMeal(cmd.Context(), o.user(), args[0]); err != nil {
				return err
			}
			return o.print(cmd.OutOrStdout(), map[string]string{"deleted": args[0]}, func(w io.Writer) {
				fmt.Fprintf(w, "deleted %s\n", args[0])
			})
		},
	}
}
