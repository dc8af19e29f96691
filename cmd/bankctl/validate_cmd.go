package main

import (
	"context"
	"flag"
	"fmt"
	"os"
)

func runValidate(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("bankctl validate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var common commonFlags
	common.register(fs)
	account := fs.String("account", "", "account id to validate")

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	a, err := newApp(ctx, common)
	if err != nil {
		return fail(err)
	}
	defer a.close(ctx)

	res, err := a.client.ValidateAccount(ctx, *account)
	if err != nil {
		return fail(err)
	}

	if res.IsValid {
		fmt.Printf("Account %s is valid (%s, %s)\n", res.AccountID, res.AccountType, res.Status)
		return exitOK
	}
	fmt.Printf("Account %s is NOT valid (status %s)\n", res.AccountID, res.Status)
	return exitFailure
}
