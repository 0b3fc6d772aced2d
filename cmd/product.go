package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gitlab.com/nunet/yarn-data/internal/repositories"
	"gitlab.com/nunet/yarn-data/models"
)

func NewProductCmd(open opener) *cobra.Command {
	productCmd := &cobra.Command{
		Use:   "product",
		Short: "Manage the shared product catalogue",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	productCmd.AddCommand(newProductAddCmd(open))
	productCmd.AddCommand(newProductListCmd(open))

	return productCmd
}

func newProductAddCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a product to the catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sku, _ := cmd.Flags().GetString("sku")
			name, _ := cmd.Flags().GetString("name")
			description, _ := cmd.Flags().GetString("description")
			price, _ := cmd.Flags().GetFloat64("price")
			if strings.TrimSpace(sku) == "" || strings.TrimSpace(name) == "" {
				return fmt.Errorf("--sku and --name are required")
			}
			if price < 0 {
				return fmt.Errorf("--price cannot be negative")
			}

			return withApp(cmd, open, func(ctx context.Context, a *app) error {
				products, err := a.products(ownerFromFlags(cmd))
				if err != nil {
					return err
				}
				existing, err := products.CountWhere(ctx, repositories.EQ("SKU", sku))
				if err != nil {
					return err
				}
				if existing > 0 {
					return fmt.Errorf("product %s already exists", sku)
				}

				created, err := products.Add(ctx, models.Product{
					SKU:         sku,
					Name:        name,
					Description: description,
					Price:       price,
				})
				if err != nil {
					return fmt.Errorf("unable to add product: %w", err)
				}

				writeProducts(cmd.OutOrStdout(), []models.Product{created})
				return nil
			})
		},
	}

	cmd.Flags().String("sku", "", "stock keeping unit")
	cmd.Flags().String("name", "", "product name")
	cmd.Flags().String("description", "", "product description")
	cmd.Flags().Float64("price", 0, "unit price")

	return cmd
}

func newProductListCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			offset, _ := cmd.Flags().GetInt("offset")

			return withApp(cmd, open, func(ctx context.Context, a *app) error {
				products, err := a.products(ownerFromFlags(cmd))
				if err != nil {
					return err
				}
				list, err := products.All().
					OrderBy(repositories.OrderBy("SKU")).
					Skip(offset).
					Take(limit).
					List(ctx)
				if err != nil {
					return fmt.Errorf("unable to list products: %w", err)
				}

				writeProducts(cmd.OutOrStdout(), list)
				return nil
			})
		},
	}

	cmd.Flags().Int("limit", 50, "maximum number of products")
	cmd.Flags().Int("offset", 0, "number of products to skip")

	return cmd
}
