package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"text/tabwriter"

	"product-catalog/internal/models"
	"product-catalog/internal/query"
	"product-catalog/internal/stock"

	"github.com/spf13/cobra"
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List and manage products",
}

var listFlags = map[string]*string{}

// storefront products list
var productsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List products, optionally filtered and sorted",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := boot()
		if err != nil {
			return err
		}
		defer a.close()

		values := url.Values{}
		for name, v := range listFlags {
			if cmd.Flags().Changed(name) {
				values.Set(name, *v)
			}
		}

		a.catalog.FetchProducts(cmd.Context(), false)
		if st := a.catalog.State(); st.Err != "" {
			return errors.New(st.Err)
		}
		products := a.catalog.Filter(query.Parse(values))

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE\tAVAILABLE")
		for i := range products {
			p := &products[i]
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Category, p.Price.StringFixed(2), availability(p))
		}
		return w.Flush()
	},
}

// storefront products show <id>
var productsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		a, err := boot()
		if err != nil {
			return err
		}
		defer a.close()

		p, err := a.catalog.FetchProduct(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printJSON(p)
	},
}

var productFile string

// storefront products create -f product.json
var productsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a product from a JSON document",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := readInput(productFile)
		if err != nil {
			return err
		}
		a, err := boot()
		if err != nil {
			return err
		}
		defer a.close()

		p, err := a.catalog.CreateProduct(cmd.Context(), in)
		if err != nil {
			return err
		}
		return printJSON(p)
	},
}

// storefront products update <id> -f patch.json
var productsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Apply a partial update from a JSON document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		in, err := readInput(productFile)
		if err != nil {
			return err
		}
		a, err := boot()
		if err != nil {
			return err
		}
		defer a.close()

		p, err := a.catalog.UpdateProduct(cmd.Context(), id, in)
		if err != nil {
			return err
		}
		return printJSON(p)
	},
}

// storefront products delete <id>
var productsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		a, err := boot()
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.catalog.DeleteProduct(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("Product %d deleted\n", id)
		return nil
	},
}

// storefront categories
var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List categories with their product counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := boot()
		if err != nil {
			return err
		}
		defer a.close()

		a.catalog.FetchCategories(cmd.Context(), false)
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CATEGORY\tPRODUCTS")
		for _, c := range a.catalog.State().Categories {
			fmt.Fprintf(w, "%s\t%d\n", c.Name, c.Count)
		}
		return w.Flush()
	},
}

// storefront upload <file>
var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a product image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		a, err := boot()
		if err != nil {
			return err
		}
		defer a.close()

		img, err := a.api.UploadImage(cmd.Context(), args[0], f)
		if err != nil {
			return err
		}
		return printJSON(img)
	},
}

func init() {
	for _, name := range []string{"category", "brand", "inStock", "minPrice", "maxPrice", "sortBy", "order"} {
		listFlags[name] = productsListCmd.Flags().String(name, "", "filter or sort by "+name)
	}

	for _, c := range []*cobra.Command{productsCreateCmd, productsUpdateCmd} {
		c.Flags().StringVarP(&productFile, "file", "f", "-", "JSON document, - for stdin")
	}

	productsCmd.AddCommand(productsListCmd)
	productsCmd.AddCommand(productsShowCmd)
	productsCmd.AddCommand(productsCreateCmd)
	productsCmd.AddCommand(productsUpdateCmd)
	productsCmd.AddCommand(productsDeleteCmd)
}

func readInput(path string) (*models.ProductInput, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var in models.ProductInput
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, fmt.Errorf("invalid product document: %w", err)
	}
	return &in, nil
}

func availability(p *models.Product) string {
	if !stock.InStock(p) {
		return "out of stock"
	}
	return fmt.Sprintf("%d", stock.Available(p))
}
