package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/choiwab/julius-baer-side-quest/internal/audit"
	"github.com/choiwab/julius-baer-side-quest/internal/banking"
	"github.com/choiwab/julius-baer-side-quest/internal/log"
)

func runTransfer(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("bankctl transfer", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var common commonFlags
	common.register(fs)
	from := fs.String("from", "", "source account id")
	to := fs.String("to", "", "destination account id")
	amount := fs.Float64("amount", 0, "amount to transfer")

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	a, err := newApp(ctx, common)
	if err != nil {
		return fail(err)
	}
	defer a.close(ctx)

	req := banking.TransferRequest{
		FromAccount: *from,
		ToAccount:   *to,
		Amount:      *amount,
	}

	resp, opErr := a.client.Transfer(ctx, req, !common.noAuth)

	events := audit.NewLogger()
	if opErr != nil {
		events.TransferFailed(ctx, a.cfg.Username, req.FromAccount, req.ToAccount, req.Amount, opErr.Error())
	} else {
		events.TransferCompleted(ctx, a.cfg.Username, req.FromAccount, req.ToAccount, req.Amount, resp.TransactionID)
	}

	// The journal records the attempt either way. Journal failures are
	// logged and never change the command outcome.
	if journal := a.openJournal(); journal != nil {
		entry := audit.Entry{
			Operation:   "transfer",
			FromAccount: req.FromAccount,
			ToAccount:   req.ToAccount,
			Amount:      req.Amount,
			RequestID:   log.RequestIDFromContext(ctx),
		}
		if opErr != nil {
			entry.Status = "FAILED"
			entry.Error = opErr.Error()
		} else {
			entry.Status = resp.Status
			entry.TransactionID = resp.TransactionID
		}
		if err := journal.Record(ctx, entry); err != nil {
			events.JournalError(ctx, err.Error())
		}
		_ = journal.Close()
	}

	if opErr != nil {
		return fail(opErr)
	}

	fmt.Printf("Transfer %s: %s -> %s, amount %.2f (transaction %s)\n",
		resp.Status, resp.FromAccount, resp.ToAccount, resp.Amount, resp.TransactionID)
	return exitOK
}
