// Package cli implements the paymentctl administrative commands.
package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/cashflow/payment-lifecycle/internal/core"
	"github.com/cashflow/payment-lifecycle/internal/port/input"
	"github.com/spf13/cobra"
)

// OpenFunc connects a payment service and returns a function releasing it
type OpenFunc func() (input.PaymentService, func() error, error)

// NewRootCommand builds the paymentctl command tree on top of open
func NewRootCommand(open OpenFunc) *cobra.Command {
	var (
		svc     input.PaymentService
		release func() error
	)

	root := &cobra.Command{
		Use:           "paymentctl",
		Short:         "Administer payment records",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			svc, release, err = open()
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if release != nil {
				return release()
			}
			return nil
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "get <id>",
			Short: "Show one payment",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				payment, err := svc.GetPayment(cmd.Context(), id)
				if err != nil {
					return err
				}
				return printJSON(cmd, payment)
			},
		},
		&cobra.Command{
			Use:   "stats",
			Short: "Show payment counters",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				stats, err := svc.Statistics(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd, stats)
			},
		},
		&cobra.Command{
			Use:   "set-status <id> <status>",
			Short: "Overwrite a payment status, bypassing the lifecycle rules",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				status, ok := core.ParsePaymentStatus(args[1])
				if !ok {
					return fmt.Errorf("unknown status %q", args[1])
				}
				payment, err := svc.SetStatus(cmd.Context(), id, status)
				if err != nil {
					return err
				}
				return printJSON(cmd, payment)
			},
		},
	)
	return root
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid payment id %q", s)
	}
	return id, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
