package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/choiwab/julius-baer-side-quest/internal/log"
)

// balanceFanout caps concurrent balance lookups so the enrichment step
// stays within the client's rate limit.
const balanceFanout = 4

func runListAccounts(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("bankctl list-accounts", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var common commonFlags
	common.register(fs)
	withBalances := fs.Bool("with-balances", false, "fetch the balance of every listed account")

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	a, err := newApp(ctx, common)
	if err != nil {
		return fail(err)
	}
	defer a.close(ctx)

	list, err := a.client.Accounts(ctx, !common.noAuth)
	if err != nil {
		return fail(err)
	}

	if *withBalances {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(balanceFanout)
		for i := range list.Accounts {
			g.Go(func() error {
				info, err := a.client.Balance(gctx, list.Accounts[i].AccountID, !common.noAuth)
				if err != nil {
					return fmt.Errorf("balance for %s: %w", list.Accounts[i].AccountID, err)
				}
				list.Accounts[i].Balance = &info.Balance
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return fail(err)
		}
		a.logger.Debug().
			Str(log.FieldEvent, "accounts.balances_fetched").
			Int("count", len(list.Accounts)).
			Msg("enriched account listing")
	}

	for _, acc := range list.Accounts {
		if acc.Balance != nil {
			fmt.Printf("%s  %-10s %-8s %12.2f\n", acc.AccountID, acc.AccountType, acc.Status, *acc.Balance)
			continue
		}
		fmt.Printf("%s  %-10s %-8s\n", acc.AccountID, acc.AccountType, acc.Status)
	}
	return exitOK
}
