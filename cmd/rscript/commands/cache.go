package commands

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.trai.ch/rscript/internal/core/domain"
	"go.trai.ch/rscript/internal/ui/style"
)

func (c *CLI) newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the compiled script cache",
		Args:  cobra.NoArgs,
	}
	cmd.AddCommand(c.newCacheMigrateCmd())
	cmd.AddCommand(c.newCacheCleanCmd())
	cmd.AddCommand(c.newCacheListCmd())
	return cmd
}

func (c *CLI) newCacheMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Upgrade caches written by older versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			_, err := c.app.Migrate(cmd.Context(), dryRun)
			return err
		},
	}
	cmd.Flags().Bool("dry-run", false, "Show the planned steps without applying them")
	return cmd
}

func (c *CLI) newCacheCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove cached packages and artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			olderThan, _ := cmd.Flags().GetDuration("older-than")
			_, err := c.app.Clean(cmd.Context(), domain.CleanOptions{OlderThan: olderThan})
			return err
		},
	}
	cmd.Flags().Duration("older-than", 0, "Only remove entries built longer ago than this (e.g. 720h)")
	return cmd
}

func (c *CLI) newCacheListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := c.app.ListCache(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			r := c.renderer(out)
			if len(entries) == 0 {
				_, _ = fmt.Fprintln(out, style.Muted.Renderer(r).Render("cache is empty"))
				return nil
			}

			header := style.Header.Renderer(r)
			muted := style.Muted.Renderer(r)
			name := lipgloss.NewStyle().Renderer(r).Width(nameWidth(entries) + 2)
			mode := lipgloss.NewStyle().Renderer(r).Width(9)

			_, _ = fmt.Fprintln(out, header.Render(fmt.Sprintf("%d cached artifacts", len(entries))))
			for _, e := range entries {
				_, _ = fmt.Fprintf(out, "%s  %s%s%s\n",
					muted.Render(e.Fingerprint.Short()),
					name.Render(e.PackageName),
					mode.Render(string(e.Mode)),
					muted.Render(e.BuiltAt.Format(time.RFC3339)),
				)
			}
			return nil
		},
	}
}

func nameWidth(entries []domain.CacheEntry) int {
	w := 0
	for _, e := range entries {
		w = max(w, lipgloss.Width(e.PackageName))
	}
	return w
}
