package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"gitlab.com/nunet/yarn-data/internal/repositories"
	"gitlab.com/nunet/yarn-data/models"
)

// withApp opens the stores, runs fn and closes them again, reporting close
// failures next to fn's own error.
func withApp(cmd *cobra.Command, open opener, fn func(ctx context.Context, a *app) error) (err error) {
	a, err := open()
	if err != nil {
		return fmt.Errorf("unable to open stores: %w", err)
	}
	defer func() {
		err = multierr.Append(err, a.Close())
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err = fn(ctx, a); err != nil {
		return err
	}

	if show, _ := cmd.Flags().GetBool("metrics"); show {
		return a.writeMetrics(cmd.OutOrStdout())
	}
	return nil
}

// ownerFromFlags reads --tenant and --owner. Shared data does not need a tenant.
func ownerFromFlags(cmd *cobra.Command) repositories.Owner {
	tenant, _ := cmd.Flags().GetInt64("tenant")
	owner, _ := cmd.Flags().GetInt64("owner")
	return repositories.Owner{TenantID: tenant, OwnerID: owner}
}

// tenantFromFlags is ownerFromFlags for tenant-scoped data, where --tenant is mandatory.
func tenantFromFlags(cmd *cobra.Command) (repositories.Owner, error) {
	owner := ownerFromFlags(cmd)
	if owner.TenantID <= 0 {
		return owner, fmt.Errorf("--tenant is required: %w", repositories.MissingTenantError)
	}
	return owner, nil
}

func setupTable(w io.Writer, headers []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(headers)
	table.SetAutoFormatHeaders(false)
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

func writeOrders(w io.Writer, orders []models.Order) {
	table := setupTable(w, []string{"ID", "Number", "Customer", "Status", "Total", "Created"})
	for _, o := range orders {
		table.Append([]string{
			strconv.FormatUint(uint64(o.ID), 10),
			o.Number,
			o.Customer,
			o.Status,
			fmt.Sprintf("%.2f", o.Total),
			humanize.Time(o.CreatedAt),
		})
	}
	table.Render()
}

func writeLines(w io.Writer, lines []models.OrderLine) {
	table := setupTable(w, []string{"Product", "SKU", "Quantity", "Price"})
	for _, l := range lines {
		sku := ""
		if l.Product != nil {
			sku = l.Product.SKU
		}
		table.Append([]string{
			strconv.FormatUint(uint64(l.ProductID), 10),
			sku,
			strconv.Itoa(l.Quantity),
			fmt.Sprintf("%.2f", l.Price),
		})
	}
	table.Render()
}

func writeProducts(w io.Writer, products []models.Product) {
	table := setupTable(w, []string{"ID", "SKU", "Name", "Price"})
	for _, p := range products {
		table.Append([]string{
			strconv.FormatUint(uint64(p.ID), 10),
			p.SKU,
			p.Name,
			fmt.Sprintf("%.2f", p.Price),
		})
	}
	table.Render()
}

func writeAudit(w io.Writer, entries []models.AuditEntry) {
	table := setupTable(w, []string{"When", "Owner", "Action", "Subject", "Detail"})
	for _, e := range entries {
		table.Append([]string{
			humanize.Time(e.CreatedAt),
			strconv.FormatInt(e.OwnerID, 10),
			e.Action,
			e.Subject,
			e.Detail,
		})
	}
	table.Render()
}

// parseID reads a numeric record key.
func parseID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 0)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return uint(id), nil
}

// parseSorting turns "Customer,-Total" into an ascending sort on Customer then a
// descending sort on Total.
func parseSorting(raw string) repositories.Sorting {
	var sorting repositories.Sorting
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		switch {
		case field == "" || field == "-":
			continue
		case strings.HasPrefix(field, "-"):
			sorting = sorting.ThenByDescending(field[1:])
		default:
			sorting = sorting.ThenBy(field)
		}
	}
	return sorting
}

// parseLine reads an order line written as product:quantity:price.
func parseLine(raw string) (models.OrderLine, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 3 {
		return models.OrderLine{}, fmt.Errorf("invalid line %q, expected product:quantity:price", raw)
	}
	product, err := parseID(parts[0])
	if err != nil {
		return models.OrderLine{}, fmt.Errorf("invalid line %q: %w", raw, err)
	}
	quantity, err := strconv.Atoi(parts[1])
	if err != nil || quantity <= 0 {
		return models.OrderLine{}, fmt.Errorf("invalid quantity in line %q", raw)
	}
	price, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || price < 0 {
		return models.OrderLine{}, fmt.Errorf("invalid price in line %q", raw)
	}
	return models.OrderLine{ProductID: product, Quantity: quantity, Price: price}, nil
}
