// Command csvprobe describes a pipeline's input files and the fact table a
// run would produce, without writing any output. With -ddl it also prints
// the CREATE TABLE statement for a storage backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"salesetl/internal/config"
	"salesetl/internal/probe"

	_ "salesetl/internal/storage/all"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run parses args and writes the report to stdout.
func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("csvprobe", flag.ContinueOnError)
	var (
		cfgPath = fs.String("config", "", "pipeline config JSON path (built-in defaults when empty)")
		kind    = fs.String("ddl", "", "render CREATE TABLE for this storage kind (postgres, mysql, mssql, sqlite)")
		tbl     = fs.String("table", "", "destination table name used in the DDL")
		asJSON  = fs.Bool("json", false, "emit the report as JSON")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.LoadFile(*cfgPath); err != nil {
			return err
		}
	}

	rep, err := probe.Probe(ctx, cfg, probe.Options{Kind: *kind, Table: *tbl})
	if err != nil {
		return err
	}
	if *asJSON {
		return rep.WriteJSON(stdout)
	}
	return rep.WriteText(stdout)
}
