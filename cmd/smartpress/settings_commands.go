package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"smartpress/internal/config"
	"smartpress/internal/settings"
)

func newSettingsCommand(ctx *commandContext) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect and change compression quality settings",
	}

	settingsCmd.AddCommand(newSettingsShowCommand(ctx))
	settingsCmd.AddCommand(newSettingsSetCommand(ctx))

	return settingsCmd
}

func newSettingsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current quality settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSettings(func(cfg *config.Config, store *settings.Store) error {
				rows := make([][]string, 0, len(settings.Keys()))
				for _, key := range settings.Keys() {
					value, err := store.Get(cmd.Context(), key)
					if err != nil {
						return err
					}
					min, max, def, err := settings.Bounds(key)
					if err != nil {
						return err
					}
					rows = append(rows, []string{
						key,
						strconv.Itoa(value),
						fmt.Sprintf("%d-%d", min, max),
						strconv.Itoa(def),
					})
				}
				table := renderTable([]tableColumn{
					{name: "Key"},
					{name: "Value", right: true},
					{name: "Range"},
					{name: "Default", right: true},
				}, rows)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
}

func newSettingsSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a quality setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid value %q", args[1])
			}
			return ctx.withSettings(func(cfg *config.Config, store *settings.Store) error {
				stored, err := store.Set(cmd.Context(), args[0], value)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if stored != value {
					fmt.Fprintf(out, "Set %s to %d (clamped from %d)\n", args[0], stored, value)
					return nil
				}
				fmt.Fprintf(out, "Set %s to %d\n", args[0], stored)
				return nil
			})
		},
	}
}
