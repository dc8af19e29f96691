package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"
)

func runHistory(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("bankctl history", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var common commonFlags
	common.register(fs)
	local := fs.Bool("local", false, "show the local transfer journal instead of the remote history")
	limit := fs.Int("limit", 50, "maximum number of journal entries to show (with --local)")

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	a, err := newApp(ctx, common)
	if err != nil {
		return fail(err)
	}
	defer a.close(ctx)

	if *local {
		return runLocalHistory(ctx, a, *limit)
	}

	history, err := a.client.History(ctx)
	if err != nil {
		return fail(err)
	}

	if len(history.Transactions) == 0 {
		fmt.Println("No transactions.")
		return exitOK
	}
	for _, tx := range history.Transactions {
		fmt.Printf("%s  %s -> %s  %10.2f  %s\n",
			tx.TransactionID, tx.FromAccount, tx.ToAccount, tx.Amount, tx.Status)
	}
	return exitOK
}

func runLocalHistory(ctx context.Context, a *app, limit int) int {
	journal := a.openJournal()
	if journal == nil {
		return fail(errors.New("audit journal unavailable"))
	}
	defer func() { _ = journal.Close() }()

	entries, err := journal.Recent(ctx, limit)
	if err != nil {
		return fail(fmt.Errorf("read audit journal: %w", err))
	}

	if len(entries) == 0 {
		fmt.Println("No journaled transfers.")
		return exitOK
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s  %s  %s -> %s  %10.2f  %s",
			e.Time.Local().Format(time.RFC3339), e.Operation,
			e.FromAccount, e.ToAccount, e.Amount, e.Status)
		if e.TransactionID != "" {
			line += "  " + e.TransactionID
		}
		if e.Error != "" {
			line += "  (" + e.Error + ")"
		}
		fmt.Println(line)
	}
	return exitOK
}
