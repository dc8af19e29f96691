package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/choiwab/julius-baer-side-quest/internal/audit"
	"github.com/choiwab/julius-baer-side-quest/internal/log"
)

func runAuth(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("bankctl auth", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var common commonFlags
	common.register(fs)
	username := fs.String("username", "", "API username (defaults to config)")
	password := fs.String("password", "", "API password (defaults to config)")
	scope := fs.String("scope", "", "token scope, transfer or enquiry (defaults to config)")

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	a, err := newApp(ctx, common)
	if err != nil {
		return fail(err)
	}
	defer a.close(ctx)

	user := *username
	if user == "" {
		user = a.cfg.Username
	}
	pass := *password
	if pass == "" {
		pass = a.cfg.Password
	}
	claim := *scope
	if claim == "" {
		claim = a.cfg.Scope
	}

	events := audit.NewLogger()
	token, err := a.client.Authenticate(ctx, user, pass, claim)
	if err != nil {
		events.AuthFailed(ctx, user, claim, err.Error())
		return fail(err)
	}
	events.AuthIssued(ctx, user, claim)

	a.logger.Info().
		Str(log.FieldEvent, "auth.token_issued").
		Str(log.FieldScope, claim).
		Msg("authenticated")

	snap := a.client.TokenSnapshot()
	fmt.Printf("Token issued for scope %q, valid until %s\n", claim, snap.Expiry.Format(time.RFC3339))
	fmt.Println(token)
	return exitOK
}
