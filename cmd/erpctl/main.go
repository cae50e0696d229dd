package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/erp/connector/internal/app"
	"github.com/erp/connector/internal/domain/commerce"
	"github.com/erp/connector/internal/domain/shared"
	"github.com/erp/connector/internal/infrastructure/config"
	"github.com/erp/connector/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// errUsage marks a malformed command line
var errUsage = errors.New("usage error")

func main() {
	var (
		configPath string
		logLevel   string
	)
	flag.StringVar(&configPath, "config", "", "Path to a config.toml (default: search ., /etc/erp-connector, /app)")
	flag.StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync(log)

	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize connector", zap.Error(err))
	}

	err = execute(ctx, container, args, os.Stdout)
	if closeErr := container.Close(context.Background()); closeErr != nil {
		log.Warn("Error releasing connector resources", zap.Error(closeErr))
	}

	switch {
	case errors.Is(err, errUsage):
		fmt.Fprintln(os.Stderr, err)
		printUsage()
		os.Exit(2)
	case err != nil:
		fmt.Fprintf(os.Stderr, "%s: %v\n", shared.CodeOf(err), err)
		os.Exit(1)
	}
}

// execute runs one operator command against the connector services
func execute(ctx context.Context, c *app.Container, args []string, out io.Writer) error {
	command, rest := args[0], args[1:]

	switch command {
	case "export":
		result, err := c.Trigger.RunNow(ctx)
		if err != nil {
			return err
		}
		if result.Orders == 0 && result.Clients == 0 {
			fmt.Fprintln(out, "Nothing to export")
			return nil
		}
		fmt.Fprintf(out, "Exported %d orders and %d clients\n", result.Orders, result.Clients)
		for _, f := range result.Files {
			fmt.Fprintf(out, "  %s\t%s\n", f.Name, f.URL)
		}
		return nil

	case "import":
		if len(rest) != 1 {
			return fmt.Errorf("%w: import takes exactly one file", errUsage)
		}
		report, err := c.Importer.ImportFile(ctx, rest[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d rows: %d updated, %d unchanged, %d skipped\n",
			report.TotalRows, report.Updated, report.Unchanged, report.Skipped)
		for _, row := range report.Rows {
			if row.Message == "" {
				continue
			}
			fmt.Fprintf(out, "  line %d\t%s\t%s\n", row.Line, row.Outcome, row.Message)
		}
		return nil

	case "logs":
		fs := flag.NewFlagSet("logs", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		limit := fs.Int("limit", 50, "Number of entries to show")
		if err := fs.Parse(rest); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		entries, err := c.ActivityLog.Recent(ctx, *limit)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Fprintf(out, "%s  %-7s  %s\n", e.Time.Format("2006-01-02 15:04:05"), e.Level, e.Message)
		}
		return nil

	case "clear-logs":
		if err := c.ActivityLog.Clear(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "Activity log cleared")
		return nil

	case "reset-order", "reset-customer":
		if len(rest) != 1 {
			return fmt.Errorf("%w: %s takes exactly one id", errUsage, command)
		}
		id, err := strconv.ParseInt(rest[0], 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("%w: invalid id %q", errUsage, rest[0])
		}
		if command == "reset-order" {
			err = resetOrder(ctx, c, id)
		} else {
			err = resetCustomer(ctx, c, id)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Export marker of %s %d cleared\n", command[len("reset-"):], id)
		return nil
	}

	return fmt.Errorf("%w: unknown command %q", errUsage, command)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `ERP connector operator tool

Usage:
  erpctl [flags] <command> [arguments]

Commands:
  export                  Run an export now
  import <file>           Apply an order status CSV file
  logs [-limit n]         Show the most recent activity log entries
  clear-logs              Empty the activity log
  reset-order <id>        Clear the export marker of an order
  reset-customer <id>     Clear the export marker of a customer

Flags:
  -config string          Path to a config.toml
  -log-level string       Log level (debug, info, warn, error)`)
}

func resetOrder(ctx context.Context, c *app.Container, id int64) error {
	order, err := c.Orders.FindByID(ctx, commerce.OrderID(id))
	if err != nil {
		return err
	}
	order.ResetExportMarker()
	return c.Orders.Save(ctx, order)
}

func resetCustomer(ctx context.Context, c *app.Container, id int64) error {
	customer, err := c.Customers.FindByID(ctx, commerce.CustomerID(id))
	if err != nil {
		return err
	}
	customer.ResetExportMarker()
	return c.Customers.Save(ctx, customer)
}
