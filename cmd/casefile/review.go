package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/casefile/internal/client"
	"github.com/JaimeStill/casefile/internal/versions"
)

type actionFunc func(ctx context.Context, c *client.Client, id uuid.UUID, key string) (*versions.Version, error)

func newActionCommand(root *rootOptions, use, short string, fn actionFunc) *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   use + " <version-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid version id %q: %w", args[0], err)
			}
			v, err := fn(cmd.Context(), root.client(), id, key)
			if err != nil {
				return err
			}
			if root.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), v)
			}
			return writeVersions(cmd.OutOrStdout(), []versions.Version{*v})
		},
	}
	cmd.Flags().StringVar(&key, "idempotency-key", "", "replay key; repeating a request with the same key returns the first result")

	return cmd
}

func newVerifyCommand(root *rootOptions) *cobra.Command {
	cmd := newActionCommand(root, "verify", "Mark a version verified",
		func(ctx context.Context, c *client.Client, id uuid.UUID, key string) (*versions.Version, error) {
			return c.Verify(ctx, id, key)
		})
	return cmd
}

func newRejectCommand(root *rootOptions) *cobra.Command {
	var reason string
	cmd := newActionCommand(root, "reject", "Mark a version rejected",
		func(ctx context.Context, c *client.Client, id uuid.UUID, key string) (*versions.Version, error) {
			return c.Reject(ctx, id, reason, key)
		})
	cmd.Flags().StringVar(&reason, "reason", "", "rejection reason (required)")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

func newDeleteCommand(root *rootOptions) *cobra.Command {
	cmd := newActionCommand(root, "delete", "Soft-delete a version",
		func(ctx context.Context, c *client.Client, id uuid.UUID, key string) (*versions.Version, error) {
			return c.Delete(ctx, id, key)
		})
	return cmd
}

func newRestoreCommand(root *rootOptions) *cobra.Command {
	cmd := newActionCommand(root, "restore", "Make a superseded or deleted version active again",
		func(ctx context.Context, c *client.Client, id uuid.UUID, key string) (*versions.Version, error) {
			change, err := c.Restore(ctx, id, key)
			if err != nil {
				return nil, err
			}
			return &change.Version, nil
		})
	return cmd
}
