package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/erazemk/drazba/internal/bidding"
	"github.com/erazemk/drazba/internal/db"
	"github.com/erazemk/drazba/internal/setup"
)

const usage = "Usage: drazbactl <init|finalize|phase> [flags] [auction]"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "init":
		err = cmdInit(os.Args[2:])
	case "finalize":
		err = cmdFinalize(os.Args[2:])
	case "phase":
		err = cmdPhase(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n%s\n", os.Args[1], usage)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type dbFlags struct {
	dsn    string
	driver string
}

func newFlagSet(name string) (*flag.FlagSet, *dbFlags) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	f := &dbFlags{}
	fs.StringVar(&f.dsn, "db", setup.Getenv("DRAZBA_DB", "drazba.sqlite3"), "SQLite path or Postgres URL")
	fs.StringVar(&f.driver, "driver", setup.Getenv("DRAZBA_DRIVER", db.DriverSQLite), "sqlite or postgres")
	return fs, f
}

func cmdInit(args []string) error {
	fs, f := newFlagSet("init")
	adminUser := fs.String("user", setup.Getenv("DRAZBA_ADMIN", "Admin"), "admin username")
	fs.Parse(args)

	database, err := setup.OpenDatabase(f.driver, f.dsn)
	if err != nil {
		return err
	}
	defer database.Close()

	password, err := setup.EnsureAdmin(context.Background(), database, *adminUser)
	if err != nil {
		return err
	}

	fmt.Printf("Database ready: %s\n", f.dsn)
	fmt.Println("Schema initialized.")
	fmt.Println()
	if password == "" {
		fmt.Println("An admin account already exists.")
		return nil
	}
	setup.PrintAdmin(*adminUser, password)
	return nil
}

// auctionArg parses the flags and returns the single auction ID argument.
func auctionArg(fs *flag.FlagSet, args []string) (string, error) {
	fs.Parse(args)
	if fs.NArg() != 1 {
		return "", fmt.Errorf("expected exactly one auction id\n%s", usage)
	}
	return fs.Arg(0), nil
}

func cmdFinalize(args []string) error {
	fs, f := newFlagSet("finalize")
	auctionID, err := auctionArg(fs, args)
	if err != nil {
		return err
	}

	closeLog, err := setup.Logger("")
	if err != nil {
		return err
	}
	defer closeLog()

	database, err := setup.OpenDatabase(f.driver, f.dsn)
	if err != nil {
		return err
	}
	defer database.Close()

	svc, err := bidding.NewService(database, nil)
	if err != nil {
		return err
	}

	winners, err := svc.FinalizeAuction(context.Background(), auctionID)
	if err != nil {
		return err
	}

	if len(winners) == 0 {
		fmt.Printf("Auction %s has no bids.\n", auctionID)
		return nil
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LOT\tNAME\tUSER\tAMOUNT")
	for _, w := range winners {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", w.LotID, w.LotName, w.UserID, w.Amount)
	}
	return tw.Flush()
}

func cmdPhase(args []string) error {
	fs, f := newFlagSet("phase")
	auctionID, err := auctionArg(fs, args)
	if err != nil {
		return err
	}

	database, err := db.Open(f.driver, f.dsn)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	svc, err := bidding.NewService(database, nil)
	if err != nil {
		return err
	}
	phase, err := svc.AuctionPhase(context.Background(), auctionID)
	if err != nil {
		return err
	}
	fmt.Println(phase)
	return nil
}
