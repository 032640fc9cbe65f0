// Command urisql is a thin REPL front end to the bridge: it opens an
// in-process database, registers the bundled adapter kinds, then executes
// every statement given on the command line (or read from stdin, one
// statement per line) against whichever URI-named tables they reference,
// materializing each one on first use.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urisql/urisql/internal/adapters"
	"github.com/urisql/urisql/internal/adapters/csvfile"
	"github.com/urisql/urisql/internal/adapters/memory"
	"github.com/urisql/urisql/internal/adapters/s3select"
	"github.com/urisql/urisql/internal/cursor"
	"github.com/urisql/urisql/internal/obslog"
)

func main() {
	var (
		dbPath         = flag.String("db", ":memory:", `database path, or ":memory:" for an ephemeral database`)
		safe           = flag.Bool("safe", false, "only load adapters marked safe (no filesystem or network access)")
		isolationLevel = flag.String("isolation", "", `transaction isolation level passed to BEGIN, e.g. "IMMEDIATE"`)
		logFormat      = flag.String("log-format", "standard", `log format: "standard" or "json"`)
		logLevel       = flag.String("log-level", "info", "log level: debug, info, warn, or error")
	)
	flag.Parse()

	logger, err := obslog.New(*logFormat, *logLevel, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "urisql:", err)
		os.Exit(1)
	}

	registry := adapters.NewRegistry(logger)
	registry.Register(memory.Factory{})
	registry.Register(csvfile.Factory{})
	registry.Register(s3select.Factory{})

	conn, err := cursor.Connect(*dbPath, registry, nil, *safe, *isolationLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "urisql:", err)
		os.Exit(1)
	}
	defer conn.Close()

	if statements := flag.Args(); len(statements) > 0 {
		for _, stmt := range statements {
			if err := run(conn, stmt); err != nil {
				fmt.Fprintln(os.Stderr, "urisql:", err)
				os.Exit(1)
			}
		}
		return
	}

	if err := runStdin(conn, os.Stdin, os.Stdout); err != nil && err != io.EOF {
		fmt.Fprintln(os.Stderr, "urisql:", err)
		os.Exit(1)
	}
}

func runStdin(conn *cursor.Connection, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := run(conn, line); err != nil {
			fmt.Fprintln(out, "error:", err)
		}
	}
	return scanner.Err()
}

func run(conn *cursor.Connection, statement string) error {
	cur, err := conn.Execute(statement, nil)
	if err != nil {
		return err
	}
	defer cur.Close()

	if cur.Description() == nil {
		return nil
	}

	rows, err := cur.FetchAll()
	if err != nil {
		return err
	}
	for _, row := range rows {
		fmt.Println(row)
	}
	return nil
}
