package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/vbonduro/menuorder/internal/config"
	"github.com/vbonduro/menuorder/internal/db"
	"github.com/vbonduro/menuorder/internal/menutext"
	"github.com/vbonduro/menuorder/internal/ordertext"
	"github.com/vbonduro/menuorder/internal/store"
)

// newParseCmd prints the categories parsed from a menu file, or stdin, as JSON.
func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse a pasted menu and print it as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open menu file: %w", err)
				}
				defer func() { _ = f.Close() }()
				r = f
			}

			raw, err := io.ReadAll(r)
			if err != nil {
				return fmt.Errorf("failed to read menu: %w", err)
			}

			categories := menutext.Parse(string(raw))
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Categories []menutext.Category `json:"categories"`
				ItemCount  int                 `json:"item_count"`
			}{categories, menutext.CountItems(categories)})
		},
	}
}

// newSummaryCmd prints the chat summary of a stored menu's orders.
func newSummaryCmd(cfg *config.Config, logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "summary <menu-id>",
		Short: "Print the order list of a menu as a chat message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			menuID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid menu id %q", args[0])
			}

			database, err := db.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer func() {
				if err := database.Close(); err != nil {
					logger.Error("failed to close database", "error", err)
				}
			}()

			menu, err := store.NewMenuStore(database).GetByID(cmd.Context(), menuID)
			if err != nil {
				return err
			}
			if menu == nil {
				return fmt.Errorf("menu %d not found", menuID)
			}

			orders, err := store.NewOrderStore(database).ListByMenuID(cmd.Context(), menuID)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), ordertext.Format(orders, menu.MenuDate))
			return err
		},
	}
}
