package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seantiz/edgemgmt/internal/edgelet"
	"github.com/seantiz/edgemgmt/internal/model"
)

func newModuleCmd(opts *globalOptions, client clientFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "module",
		Aliases: []string{"modules", "mod"},
		Short:   "Manage modules",
	}

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List modules and their runtime state",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client()
			if err != nil {
				return err
			}
			results, err := edgelet.ListModules[map[string]any](cmd.Context(), c)
			if err != nil {
				return err
			}
			return newPrinter(cmd.OutOrStdout(), opts).modules(results)
		},
	}

	cmd.AddCommand(
		list,
		specCommand(opts, client, "create", "Create a module from a spec file", "created",
			func(ctx context.Context, c *edgelet.Client, spec model.ModuleSpec) error {
				return c.CreateModule(ctx, spec)
			}),
		newModuleUpdateCmd(opts, client),
		specCommand(opts, client, "prepare-update", "Pull what a module update needs without applying it", "prepared for update",
			func(ctx context.Context, c *edgelet.Client, spec model.ModuleSpec) error {
				return c.PrepareUpdate(ctx, spec)
			}),
		nameCommand(opts, client, "delete", "Delete a module", "deleted", (*edgelet.Client).DeleteModule),
		nameCommand(opts, client, "start", "Start a module", "started", (*edgelet.Client).StartModule),
		nameCommand(opts, client, "stop", "Stop a module", "stopped", (*edgelet.Client).StopModule),
		nameCommand(opts, client, "restart", "Restart a module", "restarted", (*edgelet.Client).RestartModule),
	)
	return cmd
}

func newModuleUpdateCmd(opts *globalOptions, client clientFactory) *cobra.Command {
	var (
		file  string
		start bool
	)
	cmd := &cobra.Command{
		Use:   "update -f FILE",
		Short: "Replace a module's spec",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := readModuleSpec(file)
			if err != nil {
				return err
			}
			c, err := client()
			if err != nil {
				return err
			}
			if start {
				err = c.UpdateAndStartModule(cmd.Context(), spec)
			} else {
				err = c.UpdateModule(cmd.Context(), spec)
			}
			if err != nil {
				return err
			}
			newPrinter(cmd.OutOrStdout(), opts).done("module %s updated", spec.Name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "module spec file (YAML or JSON)")
	cmd.Flags().BoolVar(&start, "start", false, "start the module after updating it")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// specCommand builds a command that sends a module spec read from -f.
func specCommand(opts *globalOptions, client clientFactory, use, short, verb string,
	run func(context.Context, *edgelet.Client, model.ModuleSpec) error) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   use + " -f FILE",
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := readModuleSpec(file)
			if err != nil {
				return err
			}
			c, err := client()
			if err != nil {
				return err
			}
			if err := run(cmd.Context(), c, spec); err != nil {
				return err
			}
			newPrinter(cmd.OutOrStdout(), opts).done("module %s %s", spec.Name, verb)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "module spec file (YAML or JSON)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// nameCommand builds a command that acts on one module by name.
func nameCommand(opts *globalOptions, client clientFactory, use, short, verb string,
	run func(*edgelet.Client, context.Context, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   fmt.Sprintf("%s NAME", use),
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client()
			if err != nil {
				return err
			}
			if err := run(c, cmd.Context(), args[0]); err != nil {
				return err
			}
			newPrinter(cmd.OutOrStdout(), opts).done("module %s %s", args[0], verb)
			return nil
		},
	}
}
