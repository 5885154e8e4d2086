package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aguxez/keecal/models"
)

func init() {
	profileCmd := &cobra.Command{Use: "profile", Short: "Profile operations"}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the profile and daily budget",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, false, func(ctx context.Context, a *app) error {
				p, ok := a.tracker.Profile()
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Profile not set up; using defaults.")
				}
				return printJSON(cmd.OutOrStdout(), p)
			})
		},
	}
	profileCmd.AddCommand(showCmd)

	var (
		p     models.UserProfile
		limit int
	)
	var gender, activity, goal, language string
	setupCmd := &cobra.Command{
		Use:   "setup",
		Short: "Save the profile and compute the daily budget",
		RunE: func(cmd *cobra.Command, args []string) error {
			p.Gender = models.Gender(gender)
			p.Activity = models.ActivityLevel(activity)
			p.Goal = models.Goal(goal)
			p.PreferredLanguage = models.Language(language)
			return withApp(cmd, false, func(ctx context.Context, a *app) error {
				saved, err := a.tracker.SetupProfile(ctx, p, limit)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Daily budget: %d kcal\n", saved.DailyLimit)
				return nil
			})
		},
	}
	setupCmd.Flags().StringVarP(&p.Name, "name", "n", "", "Name (required)")
	setupCmd.Flags().IntVar(&p.Age, "age", 0, "Age in years (required)")
	setupCmd.Flags().Float64Var(&p.Weight, "weight", 0, "Weight in kg (required)")
	setupCmd.Flags().Float64Var(&p.Height, "height", 0, "Height in cm (required)")
	setupCmd.Flags().StringVar(&gender, "gender", string(models.Male), "male or female")
	setupCmd.Flags().StringVar(&activity, "activity", string(models.Moderate), "sedentary, light, moderate, active or extra_active")
	setupCmd.Flags().StringVar(&goal, "goal", string(models.Maintain), "lose, maintain or gain")
	setupCmd.Flags().StringVar(&language, "language", string(models.Thai), "th or en")
	setupCmd.Flags().IntVar(&limit, "limit", 0, "Daily budget override in kcal")
	_ = setupCmd.MarkFlagRequired("name")
	profileCmd.AddCommand(setupCmd)

	rootCmd.AddCommand(profileCmd)

	trainerCmd := &cobra.Command{Use: "trainer", Short: "Trainer operations"}

	trainerShowCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the trainer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, false, func(ctx context.Context, a *app) error {
				t, _ := a.tracker.Trainer()
				return printJSON(cmd.OutOrStdout(), t)
			})
		},
	}
	trainerCmd.AddCommand(trainerShowCmd)

	var name, personality, image string
	trainerSetCmd := &cobra.Command{
		Use:   "set",
		Short: "Choose the trainer name and personality",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, false, func(ctx context.Context, a *app) error {
				t := models.Trainer{Name: name, Personality: models.Personality(personality), Image: image}
				if t.Image == "" {
					current, _ := a.tracker.Trainer()
					t.Image = current.Image
				}
				if err := a.tracker.SaveTrainer(ctx, t); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Trainer: %s (%s)\n", t.Name, t.Personality)
				return nil
			})
		},
	}
	trainerSetCmd.Flags().StringVarP(&name, "name", "n", "", "Trainer name (required)")
	trainerSetCmd.Flags().StringVarP(&personality, "personality", "p", string(models.Kind), "kind, aggressive or funny")
	trainerSetCmd.Flags().StringVar(&image, "image", "", "Trainer image URL")
	_ = trainerSetCmd.MarkFlagRequired("name")
	trainerCmd.AddCommand(trainerSetCmd)

	rootCmd.AddCommand(trainerCmd)
}
