package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"product-catalog/internal/cart"
	"product-catalog/internal/storefront"

	"github.com/spf13/cobra"
)

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Show and change the cart",
}

// withCart boots the app, opens the cart and runs fn.
func withCart(ctx context.Context, fn func(a *app, c *cart.Cart) error) error {
	a, err := boot()
	if err != nil {
		return err
	}
	defer a.close()

	c, err := a.openCart(ctx)
	if err != nil {
		return err
	}
	return fn(a, c)
}

// cartProductCmd builds a command that looks up a product and applies op.
func cartProductCmd(use, short string, op func(ctx context.Context, a *app, c *cart.Cart, id int64) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withCart(cmd.Context(), func(a *app, c *cart.Cart) error {
				if err := op(cmd.Context(), a, c, id); err != nil {
					return err
				}
				return printCart(c)
			})
		},
	}
}

// storefront cart show
var cartShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the cart",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCart(cmd.Context(), func(_ *app, c *cart.Cart) error {
			return printCart(c)
		})
	},
}

// storefront cart set <id> <quantity>
var cartSetCmd = &cobra.Command{
	Use:   "set <id> <quantity>",
	Short: "Set the quantity of a cart line",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid quantity %q", args[1])
		}
		return withCart(cmd.Context(), func(_ *app, c *cart.Cart) error {
			if err := storefront.SetQuantity(cmd.Context(), c, id, n); err != nil {
				return err
			}
			return printCart(c)
		})
	},
}

// storefront cart clear
var cartClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the cart",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCart(cmd.Context(), func(_ *app, c *cart.Cart) error {
			return c.ClearCart(cmd.Context())
		})
	},
}

func init() {
	cartCmd.AddCommand(cartShowCmd)
	cartCmd.AddCommand(cartProductCmd("add", "Add one unit of a product", func(ctx context.Context, a *app, c *cart.Cart, id int64) error {
		p, err := a.catalog.FetchProduct(ctx, id)
		if err != nil {
			return err
		}
		return storefront.AddToCart(ctx, c, p)
	}))
	cartCmd.AddCommand(cartProductCmd("inc", "Add one more unit, up to the available stock", func(ctx context.Context, a *app, c *cart.Cart, id int64) error {
		p, err := a.catalog.FetchProduct(ctx, id)
		if err != nil {
			return err
		}
		return storefront.Increase(ctx, c, p)
	}))
	cartCmd.AddCommand(cartProductCmd("dec", "Remove one unit", func(ctx context.Context, _ *app, c *cart.Cart, id int64) error {
		return storefront.Decrease(ctx, c, id)
	}))
	cartCmd.AddCommand(cartProductCmd("remove", "Remove a product from the cart", func(ctx context.Context, _ *app, c *cart.Cart, id int64) error {
		return c.RemoveFromCart(ctx, id)
	}))
	cartCmd.AddCommand(cartSetCmd)
	cartCmd.AddCommand(cartClearCmd)
}

func printCart(c *cart.Cart) error {
	lines := c.Lines()
	if len(lines) == 0 {
		fmt.Println("Cart is empty")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tQTY\tSUBTOTAL")
	for _, l := range lines {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", l.ID, l.Name, l.Price.StringFixed(2), l.Quantity, l.Subtotal().StringFixed(2))
	}
	fmt.Fprintf(w, "\t\t\t%d\t%s\n", c.ItemCount(), c.Total().StringFixed(2))
	return w.Flush()
}
