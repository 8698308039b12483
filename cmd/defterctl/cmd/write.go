package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"defter/internal/backend"
	"defter/internal/core"
	"defter/internal/services"
)

func newAddEntityCmd(o *rootOptions) *cobra.Command {
	var phone, note string
	cmd := &cobra.Command{
		Use:   "add-entity <name>",
		Short: "Create an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withBackend(cmd, func(res *backend.BackendResult) error {
				e, err := res.Ledger.CreateEntity(cmd.Context(), core.Entity{Name: args[0], PhoneNumber: phone, Note: note})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created entity %d (%s)\n", e.ID, e.Name)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&phone, "phone", "", "phone number for reminders")
	cmd.Flags().StringVar(&note, "note", "", "free-form note")
	return cmd
}

func newRecordCmd(o *rootOptions) *cobra.Command {
	var date, note string
	cmd := &cobra.Command{
		Use:   "record <id> <type> <amount>",
		Short: "Record a credit or debit transaction",
		Long: `Record a transaction. <type> is one of a, alacak, c, credit (the contact
owes you more) or b, borc, d, debit (you owe the contact more). <amount> is a
positive decimal such as 12.50 or 12,50.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return o.withBackend(cmd, func(res *backend.BackendResult) error {
				tx, err := res.Ledger.RecordTransaction(cmd.Context(), services.RecordInput{
					EntityID: id,
					Type:     args[1],
					Amount:   args[2],
					Date:     date,
					Note:     note,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "recorded transaction %d: %s %s\n", tx.ID, tx.Type, tx.Amount.Decimal())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "transaction date as YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&note, "note", "", "free-form note")
	return cmd
}

func newSettleCmd(o *rootOptions) *cobra.Command {
	var note string
	cmd := &cobra.Command{
		Use:   "settle <id>",
		Short: "Record the credit that clears a negative balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return o.withBackend(cmd, func(res *backend.BackendResult) error {
				tx, err := res.Ledger.Settle(cmd.Context(), id, note)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "settled entity %d with a credit of %s\n", id, tx.Amount.Decimal())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&note, "note", "", "note for the settling transaction")
	return cmd
}

func newDeleteCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an entity and all its transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return o.withBackend(cmd, func(res *backend.BackendResult) error {
				if err := res.Ledger.DeleteEntity(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted entity %d\n", id)
				return nil
			})
		},
	}
}

func newImportCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a legacy JSON or YAML export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open import file: %w", err)
			}
			defer f.Close()

			return o.withBackend(cmd, func(res *backend.BackendResult) error {
				result, err := res.Ledger.Import(cmd.Context(), f, services.FormatFromPath(args[0]))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d entities and %d transactions, skipped %d\n",
					result.Entities, result.Transactions, result.Skipped)
				return nil
			})
		},
	}
}
