package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
	"order-board/internal/client"
	"order-board/internal/models"
)

const usage = `usage: orders [-api URL] <command> [flags]

commands:
  list                          print every order
  add -name N -owner O [...]    create an order
  set-state -id ID -state S     change an order's state
  pay -id ID [-unpaid]          mark an order paid
  rm -id ID                     delete an order
`

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Warning: failed to read .env file: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("orders: %v", err)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	global := flag.NewFlagSet("orders", flag.ContinueOnError)
	global.SetOutput(out)
	global.Usage = func() { fmt.Fprint(out, usage) }
	apiURL := global.String("api", envOr("ORDERS_API_URL", "http://localhost:8080"), "orders server base URL")
	if err := global.Parse(args); err != nil {
		return err
	}

	rest := global.Args()
	if len(rest) == 0 {
		global.Usage()
		return errors.New("missing command")
	}

	c := client.New(*apiURL)
	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "list":
		return listOrders(ctx, c, out)
	case "add":
		return addOrder(ctx, c, cmdArgs, out)
	case "set-state":
		return setState(ctx, c, cmdArgs, out)
	case "pay":
		return pay(ctx, c, cmdArgs, out)
	case "rm":
		return remove(ctx, c, cmdArgs, out)
	default:
		global.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func listOrders(ctx context.Context, c *client.Client, out io.Writer) error {
	orders, err := c.List(ctx)
	if err != nil {
		return err
	}
	return renderOrders(out, orders)
}

func renderOrders(out io.Writer, orders []models.Order) error {
	table := tablewriter.NewWriter(out)
	table.Header("ID", "Group", "Member", "Source", "Owner", "Date", "State", "Paid", "Image")
	for _, o := range orders {
		paid := "No"
		if o.Paid {
			paid = "Yes"
		}
		image := ""
		if o.HasImage() {
			image = *o.ImagePath
		}
		if err := table.Append(o.ID, o.Name, o.Member, o.Source, o.Owner,
			o.Date.Local().Format("2006-01-02"), string(o.State), paid, image); err != nil {
			return fmt.Errorf("failed to add row: %w", err)
		}
	}
	return table.Render()
}

func addOrder(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	flags := flag.NewFlagSet("add", flag.ContinueOnError)
	flags.SetOutput(out)
	name := flags.String("name", "", "group name (required)")
	member := flags.String("member", "", "member")
	source := flags.String("source", "", "source")
	note := flags.String("note", "", "note")
	owner := flags.String("owner", "", "owner (required)")
	state := flags.String("state", "", "New, Pending, OTW or Completed")
	paid := flags.Bool("paid", false, "already paid")
	image := flags.String("image", "", "path to a photo to attach")
	if err := flags.Parse(args); err != nil {
		return err
	}

	draft := models.OrderDraft{
		Name:   *name,
		Member: *member,
		Source: *source,
		Note:   *note,
		Owner:  *owner,
		Paid:   *paid,
	}
	if *state != "" {
		s, err := models.ParseOrderState(*state)
		if err != nil {
			return fmt.Errorf("-state %q: %w", *state, err)
		}
		draft.State = s
	}
	if err := draft.Validate(); err != nil {
		return err
	}

	var upload *models.ImageUpload
	if *image != "" {
		f, err := os.Open(*image)
		if err != nil {
			return fmt.Errorf("failed to open image: %w", err)
		}
		defer f.Close()
		upload = &models.ImageUpload{Filename: filepath.Base(*image), Body: f}
	}

	order, err := c.Create(ctx, draft, upload)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "created %s\n", order.ID)
	return nil
}

func setState(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	flags := flag.NewFlagSet("set-state", flag.ContinueOnError)
	flags.SetOutput(out)
	id := flags.String("id", "", "order id (required)")
	raw := flags.String("state", "", "New, Pending, OTW or Completed")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("-id is required")
	}

	state, err := models.ParseOrderState(*raw)
	if err != nil {
		return fmt.Errorf("-state %q: %w", *raw, err)
	}

	order, err := c.Update(ctx, *id, models.OrderPatch{State: &state}, nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s is now %s\n", order.ID, order.State)
	return nil
}

func pay(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	flags := flag.NewFlagSet("pay", flag.ContinueOnError)
	flags.SetOutput(out)
	id := flags.String("id", "", "order id (required)")
	unpaid := flags.Bool("unpaid", false, "mark as not paid instead")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("-id is required")
	}

	paid := !*unpaid
	order, err := c.Update(ctx, *id, models.OrderPatch{Paid: &paid}, nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s paid=%t\n", order.ID, order.Paid)
	return nil
}

func remove(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	flags := flag.NewFlagSet("rm", flag.ContinueOnError)
	flags.SetOutput(out)
	id := flags.String("id", "", "order id (required)")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("-id is required")
	}

	if err := c.Delete(ctx, *id); err != nil {
		return err
	}
	fmt.Fprintf(out, "deleted %s\n", *id)
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
