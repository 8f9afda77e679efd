// ABOUTME: Sync commands for the Charm-backed document store
// ABOUTME: Provides status, now, wipe, and keys management
package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/ragdoc/internal/config"
	"github.com/harper/ragdoc/internal/storage"
	"github.com/harper/ragdoc/internal/storage/charm"
)

// errNotCharm is returned when sync is used with a store that does not replicate
var errNotCharm = errors.New("sync requires the charm store (set RAGDOC_STORE=charm)")

// NewSyncCmd creates the sync command group
func NewSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Manage Charm cloud synchronization",
		Long: `Manage synchronization of the charm document store.

With RAGDOC_STORE=charm, chunks live in Charm KV and sync across
devices linked to the same Charm account via SSH keys.`,
	}

	cmd.AddCommand(newSyncStatusCmd())
	cmd.AddCommand(newSyncNowCmd())
	cmd.AddCommand(newSyncWipeCmd())
	cmd.AddCommand(newSyncKeysCmd())

	return cmd
}

// charmConfig loads the config and checks the charm store is selected
func charmConfig() (*config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Store != config.StoreCharm {
		return nil, errNotCharm
	}
	return cfg, nil
}

func openCharmClient(cfg *config.Config) (*charm.Client, error) {
	client, err := charm.NewClient(&charm.Config{
		Host:     cfg.CharmHost,
		DBName:   cfg.CharmDBName,
		AutoSync: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Charm: %w", err)
	}
	return client, nil
}

func newSyncStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sync status and connection info",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := charmConfig()
			if err != nil {
				return err
			}
			client, err := openCharmClient(cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			out := cmd.OutOrStdout()
			id, err := client.ID()
			if err != nil {
				fmt.Fprintln(out, "Status: Not connected")
				fmt.Fprintln(out, "Run 'ragdoc sync keys' to check your SSH keys")
				return nil
			}

			fmt.Fprintln(out, "Status: Connected")
			fmt.Fprintf(out, "User ID: %s\n", id)
			fmt.Fprintf(out, "Host: %s\n", cfg.CharmHost)
			fmt.Fprintf(out, "Database: %s\n", cfg.CharmDBName)
			return nil
		},
	}
}

func newSyncNowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "now",
		Short: "Force immediate sync with Charm cloud",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := charmConfig()
			if err != nil {
				return err
			}
			store, err := storage.Open(commandContext(cmd), cfg)
			if err != nil {
				return fmt.Errorf("failed to connect to Charm: %w", err)
			}
			defer store.Close()

			syncer, ok := store.(storage.Syncer)
			if !ok {
				return errNotCharm
			}

			out := cmd.OutOrStdout()
			if !quiet {
				fmt.Fprintln(out, "Syncing...")
			}
			if err := syncer.Sync(); err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}

			n, err := store.Count(commandContext(cmd))
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Sync complete: %d chunk(s) in %q\n", n, store.Collection())
			return nil
		},
	}
}

func newSyncWipeCmd() *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Wipe the local copy of the document store",
		Long: `Completely wipe the locally cached Charm data.

WARNING: This deletes the local copy only. Cloud data remains intact
and is re-synced on next access.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !confirm {
				fmt.Fprintln(out, "This will wipe ALL local data!")
				fmt.Fprintln(out, "Run with --confirm to proceed")
				return nil
			}

			cfg, err := charmConfig()
			if err != nil {
				return err
			}
			client, err := openCharmClient(cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.Reset(); err != nil {
				return fmt.Errorf("failed to wipe data: %w", err)
			}

			fmt.Fprintln(out, "Local data wiped successfully")
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm the wipe operation")

	return cmd
}

func newSyncKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List authorized SSH keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := charmConfig()
			if err != nil {
				return err
			}
			client, err := openCharmClient(cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			keys, err := client.AuthorizedKeys()
			if err != nil {
				return fmt.Errorf("failed to get authorized keys: %w", err)
			}

			out := cmd.OutOrStdout()
			if keys == "" {
				fmt.Fprintln(out, "No authorized keys found")
				return nil
			}

			fmt.Fprintln(out, "Authorized SSH keys:")
			fmt.Fprintln(out, keys)
			return nil
		},
	}
}
