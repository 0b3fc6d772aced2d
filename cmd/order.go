package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"gitlab.com/nunet/yarn-data/internal/repositories"
	"gitlab.com/nunet/yarn-data/models"
)

func NewOrderCmd(open opener) *cobra.Command {
	orderCmd := &cobra.Command{
		Use:   "order",
		Short: "Manage the orders of a tenant",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	orderCmd.AddCommand(newOrderAddCmd(open))
	orderCmd.AddCommand(newOrderListCmd(open))
	orderCmd.AddCommand(newOrderGetCmd(open))
	orderCmd.AddCommand(newOrderRemoveCmd(open))
	orderCmd.AddCommand(newOrderSearchCmd(open))
	orderCmd.AddCommand(newOrderShipCmd(open))

	return orderCmd
}

// newOrderNumber returns a short unique order number such as ORD-1A2B3C4D.
func newOrderNumber() string {
	return "ORD-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func newOrderAddCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := tenantFromFlags(cmd)
			if err != nil {
				return err
			}

			customer, _ := cmd.Flags().GetString("customer")
			if strings.TrimSpace(customer) == "" {
				return fmt.Errorf("--customer is required")
			}
			status, _ := cmd.Flags().GetString("status")
			notes, _ := cmd.Flags().GetString("notes")
			total, _ := cmd.Flags().GetFloat64("total")
			lineSpecs, _ := cmd.Flags().GetStringArray("line")

			order := models.Order{
				TenantID: owner.TenantID,
				OwnerID:  owner.OwnerID,
				Number:   newOrderNumber(),
				Customer: customer,
				Status:   status,
				Notes:    notes,
			}
			for _, raw := range lineSpecs {
				line, err := parseLine(raw)
				if err != nil {
					return err
				}
				line.TenantID, line.OwnerID = owner.TenantID, owner.OwnerID
				order.Lines = append(order.Lines, line)
			}
			if !cmd.Flags().Changed("total") {
				for _, line := range order.Lines {
					total += float64(line.Quantity) * line.Price
				}
			}
			order.Total = total

			return withApp(cmd, open, func(ctx context.Context, a *app) error {
				store, err := a.orders(owner)
				if err != nil {
					return err
				}
				created, err := store.Add(ctx, order)
				if err != nil {
					return fmt.Errorf("unable to add order: %w", err)
				}
				detail := fmt.Sprintf("customer=%s total=%.2f lines=%d", created.Customer, created.Total, len(created.Lines))
				if err := a.record(ctx, owner, "order.add", created.Number, detail); err != nil {
					return err
				}

				writeOrders(cmd.OutOrStdout(), []models.Order{created})
				return nil
			})
		},
	}

	cmd.Flags().StringP("customer", "c", "", "customer name")
	cmd.Flags().StringP("status", "s", models.OrderStatusPending, "initial status")
	cmd.Flags().StringP("notes", "n", "", "free text notes")
	cmd.Flags().Float64("total", 0, "order total, computed from the lines when omitted")
	cmd.Flags().StringArrayP("line", "l", nil, "order line as product:quantity:price, repeatable")

	return cmd
}

func newOrderListCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the tenant's orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := tenantFromFlags(cmd)
			if err != nil {
				return err
			}

			status, _ := cmd.Flags().GetString("status")
			customer, _ := cmd.Flags().GetString("customer")
			limit, _ := cmd.Flags().GetInt("limit")
			offset, _ := cmd.Flags().GetInt("offset")
			sortSpec, _ := cmd.Flags().GetString("sort")

			var criteria repositories.Predicate
			if status != "" {
				criteria = repositories.And(criteria, repositories.EQ("Status", status))
			}
			if customer != "" {
				criteria = repositories.And(criteria, repositories.LIKE("Customer", customer))
			}
			page := repositories.Page{Offset: offset, Limit: limit, OrderBy: parseSorting(sortSpec)}

			return withApp(cmd, open, func(ctx context.Context, a *app) error {
				store, err := a.orders(owner)
				if err != nil {
					return err
				}
				orders, err := store.FindAll(ctx, criteria, page)
				if err != nil {
					return fmt.Errorf("unable to list orders: %w", err)
				}
				total, err := store.CountWhere(ctx, criteria)
				if err != nil {
					return fmt.Errorf("unable to count orders: %w", err)
				}

				writeOrders(cmd.OutOrStdout(), orders)
				fmt.Fprintf(cmd.OutOrStdout(), "Showing %d of %d orders\n", len(orders), total)
				return nil
			})
		},
	}

	cmd.Flags().StringP("status", "s", "", "only orders with this status")
	cmd.Flags().StringP("customer", "c", "", "customer pattern, % and _ are wildcards")
	cmd.Flags().Int("limit", 20, "maximum number of orders")
	cmd.Flags().Int("offset", 0, "number of orders to skip")
	cmd.Flags().String("sort", "ID", "comma separated fields, prefix with - for descending")

	return cmd
}

func newOrderGetCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show an order with its lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := tenantFromFlags(cmd)
			if err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withApp(cmd, open, func(ctx context.Context, a *app) error {
				store, err := a.orders(owner)
				if err != nil {
					return err
				}
				svc, err := store.Load(ctx)
				if err != nil {
					return err
				}
				defer svc.Close()

				order, err := svc.Include("Lines").Include("Lines.Product").All().
					Where(repositories.EQ("ID", id)).
					First(ctx)
				if err != nil {
					return fmt.Errorf("unable to get order %d: %w", id, err)
				}

				writeOrders(cmd.OutOrStdout(), []models.Order{order})
				if len(order.Lines) > 0 {
					writeLines(cmd.OutOrStdout(), order.Lines)
				}
				return nil
			})
		},
	}
}

func newOrderRemoveCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete an order and its lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := tenantFromFlags(cmd)
			if err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withApp(cmd, open, func(ctx context.Context, a *app) error {
				store, err := a.orders(owner)
				if err != nil {
					return err
				}
				removed, err := store.RemoveByID(ctx, id)
				if err != nil {
					return fmt.Errorf("unable to remove order %d: %w", id, err)
				}
				if err := a.record(ctx, owner, "order.remove", removed.Number, ""); err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Removed order %s\n", removed.Number)
				return nil
			})
		},
	}
}

func newOrderSearchCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <text>...",
		Short: "Find orders by number, customer or notes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := tenantFromFlags(cmd)
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")

			return withApp(cmd, open, func(ctx context.Context, a *app) error {
				store, err := a.orders(owner)
				if err != nil {
					return err
				}
				orders, err := store.FullText().Search(ctx, strings.Join(args, " "), repositories.Page{
					Limit:   limit,
					OrderBy: repositories.OrderBy("ID"),
				})
				if err != nil {
					return fmt.Errorf("unable to search orders: %w", err)
				}

				writeOrders(cmd.OutOrStdout(), orders)
				return nil
			})
		},
	}

	cmd.Flags().Int("limit", 20, "maximum number of orders")

	return cmd
}

func newOrderShipCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "ship <id>...",
		Short: "Mark pending orders as shipped",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := tenantFromFlags(cmd)
			if err != nil {
				return err
			}
			ids := make([]interface{}, 0, len(args))
			for _, arg := range args {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}

			return withApp(cmd, open, func(ctx context.Context, a *app) error {
				store, err := a.orders(owner)
				if err != nil {
					return err
				}
				shipped, err := store.bulk.UpdateWhere(ctx,
					repositories.And(
						repositories.IN("ID", ids),
						repositories.EQ("Status", models.OrderStatusPending),
					),
					map[string]interface{}{"Status": models.OrderStatusShipped},
				)
				if err != nil {
					return fmt.Errorf("unable to ship orders: %w", err)
				}
				detail := fmt.Sprintf("ids=%s shipped=%d", strings.Join(args, ","), shipped)
				if err := a.record(ctx, owner, "order.ship", strings.Join(args, ","), detail); err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Shipped %d orders\n", shipped)
				return nil
			})
		},
	}
}
