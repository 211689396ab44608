package main

import (
	"errors"
	"fmt"
	"strconv"

	"carbonlint/apperr"
	"carbonlint/config"
	"carbonlint/tables"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	var interactive bool
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Create a " + config.FileName + " config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			cfg := config.Default()
			if interactive {
				if err := promptConfig(cfg); err != nil {
					return err
				}
			}
			path, created, err := config.Create(dir, cfg)
			if err != nil {
				return err
			}
			ok := lipgloss.NewStyle().Foreground(lipgloss.Color("#1a9850"))
			warn := lipgloss.NewStyle().Foreground(lipgloss.Color("#fee08b"))
			dim := lipgloss.NewStyle().Faint(true)
			out := cmd.OutOrStdout()
			if created {
				fmt.Fprintf(out, "%s Created %s\n", ok.Render("✓"), path)
				fmt.Fprintln(out, dim.Render("  Edit it to set region, budget, and hardware profile."))
			} else {
				fmt.Fprintf(out, "%s %s already exists at %s\n", warn.Render("!"), config.FileName, dim.Render(path))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "choose settings in an interactive form")
	return cmd
}

func promptConfig(cfg *config.Config) error {
	regionOptions := []huh.Option[string]{}
	for _, r := range tables.Regions() {
		regionOptions = append(regionOptions, huh.NewOption(fmt.Sprintf("%s  %s (%g gCO₂/kWh)", r.Key, r.Name, r.Intensity), r.Key))
	}
	profileOptions := []huh.Option[string]{}
	for _, p := range tables.HardwareProfiles() {
		profileOptions = append(profileOptions, huh.NewOption(p.Key, p.Key))
	}
	budget := strconv.FormatFloat(cfg.MaxCarbon, 'g', -1, 64)
	pue := strconv.FormatFloat(cfg.PUE, 'g', -1, 64)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Grid region").
				Options(regionOptions...).
				Value(&cfg.Region),
			huh.NewSelect[string]().
				Title("Hardware profile").
				Options(profileOptions...).
				Value(&cfg.HardwareProfile),
			huh.NewInput().
				Title("Carbon budget (grams)").
				Value(&budget).
				Validate(validatePositive(0, false)),
			huh.NewInput().
				Title("PUE").
				Description("Data-centre overhead multiplier, 1.0 for a local machine").
				Value(&pue).
				Validate(validatePositive(1, true)),
			huh.NewConfirm().
				Title("Fail CI when over budget?").
				Value(&cfg.FailOnThreshold).
				Affirmative("Yes").
				Negative("No"),
		),
	)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return apperr.ErrCancelled
		}
		return err
	}
	cfg.MaxCarbon, _ = strconv.ParseFloat(budget, 64)
	cfg.PUE, _ = strconv.ParseFloat(pue, 64)
	return nil
}

// validatePositive accepts numbers above lower, or equal to it when inclusive.
func validatePositive(lower float64, inclusive bool) func(string) error {
	return func(s string) error {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("enter a number")
		}
		if v < lower || (!inclusive && v == lower) {
			if inclusive {
				return fmt.Errorf("must be at least %g", lower)
			}
			return fmt.Errorf("must be greater than %g", lower)
		}
		return nil
	}
}
