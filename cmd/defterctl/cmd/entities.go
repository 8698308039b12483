package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"defter/internal/backend"
	"defter/internal/core"
)

func newEntitiesCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "entities",
		Short: "List every entity with its balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withBackend(cmd, func(res *backend.BackendResult) error {
				summaries, err := res.Ledger.Summaries(cmd.Context())
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tCREDIT\tDEBIT\tBALANCE\tSTATUS")
				for _, s := range summaries {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
						s.Entity.ID, s.Entity.Name,
						s.Totals.Credit.Decimal(), s.Totals.Debit.Decimal(), s.Totals.Balance.Decimal(),
						s.Status.Category)
				}
				return tw.Flush()
			})
		},
	}
}

func newShowCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show an entity's balance, settlement and transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return o.withBackend(cmd, func(res *backend.BackendResult) error {
				ctx := cmd.Context()
				s, err := res.Ledger.Summary(ctx, id)
				if err != nil {
					return err
				}
				txs, err := res.Ledger.Transactions(ctx, id)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s (#%d)\n", s.Entity.Name, s.Entity.ID)
				if s.Entity.PhoneNumber != "" {
					fmt.Fprintf(out, "Phone:      %s\n", s.Entity.PhoneNumber)
				}
				if s.Entity.Note != "" {
					fmt.Fprintf(out, "Note:       %s\n", s.Entity.Note)
				}
				fmt.Fprintf(out, "Credit:     %s\n", s.Totals.Credit.Decimal())
				fmt.Fprintf(out, "Debit:      %s\n", s.Totals.Debit.Decimal())
				fmt.Fprintf(out, "Balance:    %s\n", s.Totals.Balance.Decimal())
				fmt.Fprintf(out, "Status:     %s\n", s.Status.Message)
				if s.Settlement != nil {
					fmt.Fprintf(out, "Settlement: %s (token %s)\n", s.Settlement.Amount().Decimal(), s.SettlementToken())
				}
				fmt.Fprintf(out, "Reminder:   %s\n", s.Reminder)
				if s.Links != nil {
					fmt.Fprintf(out, "WhatsApp:   %s\n", s.Links.WhatsApp)
				}
				if n := len(s.Totals.Unclassified); n > 0 {
					fmt.Fprintf(out, "Warning:    %d transaction(s) with an unknown type are not counted\n", n)
				}

				fmt.Fprintln(out)
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tTYPE\tAMOUNT\tDATE\tNOTE")
				loc := res.Ledger.Locale()
				for _, tx := range txs {
					typ := tx.Type
					if core.Classify(tx.Type) == core.PolarityUnknown {
						typ += "?"
					}
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", tx.ID, typ, tx.Amount.Decimal(), tx.DisplayDate(loc), tx.Note)
				}
				return tw.Flush()
			})
		},
	}
}
