// bankctl is a command line client for a remote banking API. Every
// subcommand maps to exactly one API operation.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

var (
	version   = "v1.0.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage()
		if len(args) == 0 {
			return exitUsage
		}
		return exitOK
	}

	if args[0] == "version" || args[0] == "--version" {
		fmt.Printf("bankctl %s (commit: %s, built: %s)\n", version, commit, buildDate)
		return exitOK
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch args[0] {
	case "auth":
		return runAuth(ctx, args[1:])
	case "transfer":
		return runTransfer(ctx, args[1:])
	case "validate":
		return runValidate(ctx, args[1:])
	case "balance":
		return runBalance(ctx, args[1:])
	case "list-accounts":
		return runListAccounts(ctx, args[1:])
	case "history":
		return runHistory(ctx, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown subcommand: %s\n\n", args[0])
		printUsage()
		return exitUsage
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  bankctl auth [--username u] [--password p] [--scope transfer|enquiry]")
	fmt.Fprintln(os.Stderr, "  bankctl transfer --from ACC1000 --to ACC1001 --amount 100 [--no-auth]")
	fmt.Fprintln(os.Stderr, "  bankctl validate --account ACC1000")
	fmt.Fprintln(os.Stderr, "  bankctl balance --account ACC1000 [--no-auth]")
	fmt.Fprintln(os.Stderr, "  bankctl list-accounts [--with-balances] [--no-auth]")
	fmt.Fprintln(os.Stderr, "  bankctl history [--local] [--limit n]")
	fmt.Fprintln(os.Stderr, "  bankctl version")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Common flags: --url, --timeout, --config")
}
