package main

import (
	"context"
	"flag"
	"fmt"
	"os"
)

func runBalance(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("bankctl balance", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var common commonFlags
	common.register(fs)
	account := fs.String("account", "", "account id to query")

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	a, err := newApp(ctx, common)
	if err != nil {
		return fail(err)
	}
	defer a.close(ctx)

	info, err := a.client.Balance(ctx, *account, !common.noAuth)
	if err != nil {
		return fail(err)
	}

	currency := info.Currency
	if currency == "" {
		currency = "USD"
	}
	fmt.Printf("%s: %.2f %s\n", info.AccountID, info.Balance, currency)
	return exitOK
}
