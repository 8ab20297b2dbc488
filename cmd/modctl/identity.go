package main

import (
	"github.com/spf13/cobra"

	"github.com/seantiz/edgemgmt/internal/model"
)

const defaultManagedBy = "iotedge"

func newIdentityCmd(opts *globalOptions, client clientFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "identity",
		Aliases: []string{"identities", "id"},
		Short:   "Manage module identities",
	}

	var managedBy string

	create := &cobra.Command{
		Use:   "create NAME",
		Short: "Create an identity for a module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client()
			if err != nil {
				return err
			}
			id, err := c.CreateIdentity(cmd.Context(), args[0], managedBy)
			if err != nil {
				return err
			}
			return newPrinter(cmd.OutOrStdout(), opts).identities([]model.Identity{id})
		},
	}
	create.Flags().StringVar(&managedBy, "managed-by", defaultManagedBy, "owner of the identity")

	var generationID string
	update := &cobra.Command{
		Use:   "update NAME",
		Short: "Rotate the generation of a module identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client()
			if err != nil {
				return err
			}
			id, err := c.UpdateIdentity(cmd.Context(), args[0], generationID, managedBy)
			if err != nil {
				return err
			}
			return newPrinter(cmd.OutOrStdout(), opts).identities([]model.Identity{id})
		},
	}
	update.Flags().StringVar(&generationID, "generation-id", "", "current generation ID of the identity")
	update.Flags().StringVar(&managedBy, "managed-by", defaultManagedBy, "owner of the identity")
	_ = update.MarkFlagRequired("generation-id")

	del := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a module identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client()
			if err != nil {
				return err
			}
			if err := c.DeleteIdentity(cmd.Context(), args[0]); err != nil {
				return err
			}
			newPrinter(cmd.OutOrStdout(), opts).done("identity %s deleted", args[0])
			return nil
		},
	}

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List module identities",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client()
			if err != nil {
				return err
			}
			ids, err := c.ListIdentities(cmd.Context())
			if err != nil {
				return err
			}
			return newPrinter(cmd.OutOrStdout(), opts).identities(ids)
		},
	}

	cmd.AddCommand(create, update, del, list)
	return cmd
}
