package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/choiwab/julius-baer-side-quest/internal/audit"
	"github.com/choiwab/julius-baer-side-quest/internal/banking"
	"github.com/choiwab/julius-baer-side-quest/internal/tokencache"
)

// setupEnv points the CLI at a mock API and an isolated data directory.
func setupEnv(t *testing.T) (*banking.MockServer, string) {
	t.Helper()
	srv := banking.NewMockServer()
	t.Cleanup(srv.Close)

	dataDir := t.TempDir()
	t.Setenv("BANKING_API_URL", srv.URL)
	t.Setenv("BANKING_DATA", dataDir)
	t.Setenv("LOG_LEVEL", "error")
	return srv, dataDir
}

func TestValidateCommand(t *testing.T) {
	setupEnv(t)

	if got := run([]string{"validate", "--account", "ACC1000"}); got != exitOK {
		t.Fatalf("validate active account: exit %d, want %d", got, exitOK)
	}
	if got := run([]string{"validate", "--account", "ACC1003"}); got != exitFailure {
		t.Fatalf("validate frozen account: exit %d, want %d", got, exitFailure)
	}
	if got := run([]string{"validate", "--account", "bogus"}); got != exitUsage {
		t.Fatalf("validate malformed id: exit %d, want %d", got, exitUsage)
	}
}

func TestBalanceCommand(t *testing.T) {
	setupEnv(t)

	if got := run([]string{"balance", "--account", "ACC1000"}); got != exitOK {
		t.Fatalf("balance: exit %d, want %d", got, exitOK)
	}
	if got := run([]string{"balance", "--account", "ACC9999"}); got != exitFailure {
		t.Fatalf("balance of unknown account: exit %d, want %d", got, exitFailure)
	}
}

func TestListAccountsCommand(t *testing.T) {
	setupEnv(t)

	if got := run([]string{"list-accounts"}); got != exitOK {
		t.Fatalf("list-accounts: exit %d, want %d", got, exitOK)
	}
	if got := run([]string{"list-accounts", "--with-balances"}); got != exitOK {
		t.Fatalf("list-accounts --with-balances: exit %d, want %d", got, exitOK)
	}
}

func TestAuthCommandCachesToken(t *testing.T) {
	_, dataDir := setupEnv(t)

	if got := run([]string{"auth", "--scope", "enquiry"}); got != exitOK {
		t.Fatalf("auth: exit %d, want %d", got, exitOK)
	}

	state, ok, err := tokencache.New(dataDir).Load()
	if err != nil || !ok {
		t.Fatalf("expected cached token after auth, ok=%v err=%v", ok, err)
	}
	if state.Scope != banking.ScopeEnquiry {
		t.Fatalf("cached scope = %q, want %q", state.Scope, banking.ScopeEnquiry)
	}
}

func TestAuthCommandUnknownScope(t *testing.T) {
	setupEnv(t)

	if got := run([]string{"auth", "--scope", "admin"}); got != exitUsage {
		t.Fatalf("auth with unknown scope: exit %d, want %d", got, exitUsage)
	}
}

func TestTransferCommandJournalsOutcome(t *testing.T) {
	_, dataDir := setupEnv(t)

	if got := run([]string{"transfer", "--from", "ACC1000", "--to", "ACC1001", "--amount", "42.50"}); got != exitOK {
		t.Fatalf("transfer: exit %d, want %d", got, exitOK)
	}
	// A failed transfer is journaled too.
	if got := run([]string{"transfer", "--from", "ACC1000", "--to", "ACC9999", "--amount", "5"}); got != exitFailure {
		t.Fatalf("transfer to unknown account: exit %d, want %d", got, exitFailure)
	}
	// Local validation failures exit with a usage error before any request.
	if got := run([]string{"transfer", "--from", "ACC1000", "--to", "ACC1001", "--amount", "-1"}); got != exitUsage {
		t.Fatalf("transfer with negative amount: exit %d, want %d", got, exitUsage)
	}

	journal, err := audit.Open(filepath.Join(dataDir, "audit.db"))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer func() { _ = journal.Close() }()

	entries, err := journal.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("read journal: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 journaled attempts, got %d", len(entries))
	}
	if entries[2].Status != "SUCCESS" || entries[2].TransactionID == "" {
		t.Errorf("first attempt not journaled as success: %+v", entries[2])
	}
	if entries[1].Status != "FAILED" || entries[1].Error == "" {
		t.Errorf("second attempt not journaled as failure: %+v", entries[1])
	}
}

func TestHistoryCommand(t *testing.T) {
	setupEnv(t)

	if got := run([]string{"transfer", "--from", "ACC1000", "--to", "ACC1001", "--amount", "10"}); got != exitOK {
		t.Fatal("seed transfer failed")
	}

	if got := run([]string{"history"}); got != exitOK {
		t.Fatalf("history: exit %d, want %d", got, exitOK)
	}
	if got := run([]string{"history", "--local"}); got != exitOK {
		t.Fatalf("history --local: exit %d, want %d", got, exitOK)
	}
}

func TestTokenReusedAcrossCommands(t *testing.T) {
	srv, _ := setupEnv(t)

	if got := run([]string{"history"}); got != exitOK {
		t.Fatal("first history run failed")
	}
	issued := len(srv.IssuedTokens())

	// The second invocation restores the cached token instead of
	// authenticating again.
	if got := run([]string{"history"}); got != exitOK {
		t.Fatal("second history run failed")
	}
	if got := len(srv.IssuedTokens()); got != issued {
		t.Fatalf("expected no new tokens, had %d now %d", issued, got)
	}
}

func TestUnreachableServerFails(t *testing.T) {
	setupEnv(t)
	t.Setenv("BANKING_API_URL", "http://127.0.0.1:1")
	t.Setenv("BANKING_MAX_RETRIES", "1")
	t.Setenv("BANKING_BACKOFF", "1ms")

	if got := run([]string{"validate", "--account", "ACC1000"}); got != exitFailure {
		t.Fatalf("unreachable server: exit %d, want %d", got, exitFailure)
	}
}
