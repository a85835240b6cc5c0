package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/krislybeauty/storefront/internal/cartsync"
	"github.com/krislybeauty/storefront/internal/catalog"
	pkgerrors "github.com/krislybeauty/storefront/pkg/errors"
	"github.com/krislybeauty/storefront/pkg/pagination"
)

const usage = `usage: storefront <command> [flags] [args]

commands:
  products  [-category C] [-sort S] [-limit N] [-cursor X]   list the catalog
  search    [-sort S] [-limit N] [-cursor X] <query>        search names and descriptions
  featured  [-criteria K] [-limit N]     featured products (featured|rating|sales)
  product   <id>                         show one product
  cart                                   show the cart
  add       [-qty N] [-name S -price P] <productId>
                                         add a product to the cart; -name and -price
                                         stand in when the catalog cannot be reached
  remove    <itemId>                     remove a cart line
  update    <itemId> <quantity>          set a line quantity (0 removes)
  clear                                  empty the cart
  checkout  -email E -first F -address A [-last L -city C -state S -zip Z -country X]
`

var errUsage = errors.New("invalid usage")

type catalogSource interface {
	List(ctx context.Context) []catalog.Product
	Get(ctx context.Context, id int64) (*catalog.Product, bool)
	ByCategory(ctx context.Context, category catalog.Category) []catalog.Product
	Featured(ctx context.Context, criteria catalog.FeaturedCriteria, limit int) []catalog.Product
}

type app struct {
	catalog catalogSource
	cart    *cartsync.Container
	out     io.Writer
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "products":
		return a.products(ctx, rest)
	case "search":
		return a.search(ctx, rest)
	case "featured":
		return a.featured(ctx, rest)
	case "product":
		return a.product(ctx, rest)
	case "cart":
		a.printCart()
		return nil
	case "add":
		return a.add(ctx, rest)
	case "remove":
		return a.cartOp(rest, 1, func(args []string) error {
			return a.cart.RemoveItem(ctx, args[0])
		})
	case "update":
		return a.cartOp(rest, 2, func(args []string) error {
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "quantity must be a number")
			}
			return a.cart.UpdateQuantity(ctx, args[0], qty)
		})
	case "clear":
		return a.cartOp(rest, 0, func([]string) error {
			return a.cart.Clear(ctx)
		})
	case "checkout":
		return a.checkout(ctx, rest)
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	default:
		fmt.Fprintf(a.out, "unknown command %q\n\n%s", cmd, usage)
		return errUsage
	}
}

func (a *app) products(ctx context.Context, args []string) error {
	fs := newFlagSet("products", a.out)
	category := fs.String("category", "", "filter by category")
	order := fs.String("sort", "featured", "featured|price-low|price-high|rating|newest")
	page := pageFlags(fs)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	var list []catalog.Product
	if *category != "" {
		list = a.catalog.ByCategory(ctx, catalog.NormalizeCategory(*category))
	} else {
		list = a.catalog.List(ctx)
	}
	return a.printPage(catalog.Sort(list, catalog.ParseSortOrder(*order)), *page)
}

func (a *app) search(ctx context.Context, args []string) error {
	fs := newFlagSet("search", a.out)
	order := fs.String("sort", "featured", "featured|price-low|price-high|rating|newest")
	page := pageFlags(fs)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	query := strings.Join(fs.Args(), " ")
	return a.printPage(catalog.Sort(catalog.Search(a.catalog.List(ctx), query), catalog.ParseSortOrder(*order)), *page)
}

func (a *app) featured(ctx context.Context, args []string) error {
	fs := newFlagSet("featured", a.out)
	criteria := fs.String("criteria", string(catalog.CriteriaFeatured), "featured|rating|sales")
	limit := fs.Int("limit", catalog.DefaultFeaturedLimit, "maximum products")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	a.printProducts(a.catalog.Featured(ctx, catalog.ParseCriteria(*criteria), *limit))
	return nil
}

func (a *app) product(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "product id must be a number")
	}
	p, ok := a.catalog.Get(ctx, id)
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %d not found", id))
	}
	fmt.Fprintf(a.out, "%s (#%d)\n", p.Name, p.ID)
	fmt.Fprintf(a.out, "category: %s\nprice:    $%s\nstock:    %d\n", p.Category, p.Price.StringFixed(2), p.Stock)
	if p.Rating != nil {
		fmt.Fprintf(a.out, "rating:   %.1f\n", *p.Rating)
	}
	if p.Description != "" {
		fmt.Fprintf(a.out, "\n%s\n", p.Description)
	}
	return nil
}

func (a *app) add(ctx context.Context, args []string) error {
	fs := newFlagSet("add", a.out)
	qty := fs.Int("qty", 1, "quantity")
	name := fs.String("name", "", "product name used when the catalog is unreachable")
	price := fs.String("price", "", "unit price used when the catalog is unreachable")
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		return errUsage
	}
	id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil || id <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id must be a positive number")
	}
	fallback, err := manualProduct(id, *name, *price)
	if err != nil {
		return err
	}

	var ref cartsync.ProductRef
	if p, ok := a.catalog.Get(ctx, id); ok {
		ref = cartsync.ProductRef{ID: p.ID, Name: p.Name, Price: p.Price, Image: p.Image}
	} else if fallback != nil {
		ref = *fallback
	} else {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %d not found (pass -name and -price to add it anyway)", id))
	}
	if err := a.cart.AddItem(ctx, ref, *qty); err != nil {
		return err
	}
	a.printCart()
	return nil
}

// manualProduct builds a product from the -name/-price flags. Both are required together.
func manualProduct(id int64, name, price string) (*cartsync.ProductRef, error) {
	name, price = strings.TrimSpace(name), strings.TrimSpace(price)
	if name == "" && price == "" {
		return nil, nil
	}
	if name == "" || price == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "-name and -price must be given together")
	}
	amount, err := decimal.NewFromString(price)
	if err != nil || amount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be a non-negative decimal")
	}
	return &cartsync.ProductRef{ID: id, Name: name, Price: amount}, nil
}

func (a *app) cartOp(args []string, arity int, fn func([]string) error) error {
	if len(args) != arity {
		return errUsage
	}
	if err := fn(args); err != nil {
		return err
	}
	a.printCart()
	return nil
}

func (a *app) checkout(ctx context.Context, args []string) error {
	fs := newFlagSet("checkout", a.out)
	var customer cartsync.Customer
	fs.StringVar(&customer.Email, "email", "", "customer email")
	fs.StringVar(&customer.FirstName, "first", "", "first name")
	fs.StringVar(&customer.LastName, "last", "", "last name")
	fs.StringVar(&customer.Address, "address", "", "street address")
	fs.StringVar(&customer.City, "city", "", "city")
	fs.StringVar(&customer.State, "state", "", "state")
	fs.StringVar(&customer.ZipCode, "zip", "", "zip code")
	fs.StringVar(&customer.Country, "country", "", "country")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	url, err := a.cart.Checkout(ctx, customer)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "continue to payment: %s\n", url)
	return nil
}

func (a *app) printPage(products []catalog.Product, params pagination.Params) error {
	page, next, err := pagination.Page(products, params)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	a.printProducts(page)
	if next != "" {
		fmt.Fprintf(a.out, "more results: -cursor %s\n", next)
	}
	return nil
}

func (a *app) printProducts(products []catalog.Product) {
	if len(products) == 0 {
		fmt.Fprintln(a.out, "no products")
		return
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK")
	for _, p := range products {
		fmt.Fprintf(tw, "%d\t%s\t%s\t$%s\t%d\n", p.ID, p.Name, p.Category, p.Price.StringFixed(2), p.Stock)
	}
	_ = tw.Flush()
}

func (a *app) printCart() {
	snap := a.cart.Snapshot()
	if msg := a.cart.Err(); msg != "" {
		fmt.Fprintf(a.out, "warning: %s\n", msg)
	}
	if a.cart.Mode() == cartsync.ModeRemoteUnavailable {
		fmt.Fprintln(a.out, "cart service unavailable, changes are saved on this device")
	}
	if snap.IsEmpty() {
		fmt.Fprintln(a.out, "cart is empty")
		return
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ITEM\tNAME\tQTY\tPRICE")
	for _, item := range snap.Items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t$%s\n", item.ID, item.Name, item.Quantity, item.Price.StringFixed(2))
	}
	_ = tw.Flush()
	fmt.Fprintf(a.out, "%d items, total $%s\n", snap.TotalItems(), snap.TotalPrice().StringFixed(2))
}

func pageFlags(fs *flag.FlagSet) *pagination.Params {
	params := &pagination.Params{}
	fs.IntVar(&params.Limit, "limit", pagination.DefaultLimit, "page size")
	fs.StringVar(&params.Cursor, "cursor", "", "cursor from a previous page")
	return params
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}
