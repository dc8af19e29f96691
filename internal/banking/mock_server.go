package banking

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"
)

// MockServer provides a configurable banking API mock for testing.
type MockServer struct {
	*httptest.Server
	mu           sync.Mutex
	accounts     map[string]AccountSummary
	balances     map[string]float64
	transactions []TransferResponse
	tokens       map[string]string // issued token -> scope
	nextTxID     int
	delay        map[string]time.Duration // artificial delay per endpoint
	failures     map[string]int           // failures before success per endpoint
	failStatus   int
	requireAuth  map[string]bool // endpoint -> bearer token required
}

// NewMockServer creates a banking API mock with realistic default data.
func NewMockServer() *MockServer {
	mock := &MockServer{
		accounts:    make(map[string]AccountSummary),
		balances:    make(map[string]float64),
		tokens:      make(map[string]string),
		nextTxID:    1,
		delay:       make(map[string]time.Duration),
		failures:    make(map[string]int),
		failStatus:  http.StatusServiceUnavailable,
		requireAuth: map[string]bool{"/transactions/history": true},
	}
	mock.SetDefaultData()

	mux := http.NewServeMux()
	mux.HandleFunc("/authToken", mock.handleAuth)
	mux.HandleFunc("/transfer", mock.handleTransfer)
	mux.HandleFunc("/accounts/validate/", mock.handleValidate)
	mux.HandleFunc("/accounts/balance/", mock.handleBalance)
	mux.HandleFunc("/accounts", mock.handleAccounts)
	mux.HandleFunc("/transactions/history", mock.handleHistory)

	mock.Server = httptest.NewServer(mux)
	return mock
}

// SetDefaultData sets up realistic test data.
func (m *MockServer) SetDefaultData() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.accounts = map[string]AccountSummary{
		"ACC1000": {AccountID: "ACC1000", AccountType: "CHECKING", Status: "ACTIVE"},
		"ACC1001": {AccountID: "ACC1001", AccountType: "SAVINGS", Status: "ACTIVE"},
		"ACC1002": {AccountID: "ACC1002", AccountType: "CHECKING", Status: "ACTIVE"},
		"ACC1003": {AccountID: "ACC1003", AccountType: "CHECKING", Status: "FROZEN"},
	}
	m.balances = map[string]float64{
		"ACC1000": 1000.00,
		"ACC1001": 250.50,
		"ACC1002": 75.25,
		"ACC1003": 0,
	}
	m.transactions = nil
	m.nextTxID = 1
}

// SetDelay adds an artificial delay to an endpoint.
func (m *MockServer) SetDelay(endpoint string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay[endpoint] = d
}

// SetFailures makes an endpoint fail n times with the given status before
// succeeding. A zero status keeps the previous failure status.
func (m *MockServer) SetFailures(endpoint string, n, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[endpoint] = n
	if status != 0 {
		m.failStatus = status
	}
}

// IssuedTokens returns every token the mock has handed out so far.
func (m *MockServer) IssuedTokens() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.tokens))
	for token := range m.tokens {
		out = append(out, token)
	}
	sort.Strings(out)
	return out
}

// RequireAuth toggles bearer-token enforcement for an endpoint.
func (m *MockServer) RequireAuth(endpoint string, required bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requireAuth[endpoint] = required
}

// Transactions returns a copy of the transfers recorded so far.
func (m *MockServer) Transactions() []TransferResponse {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]TransferResponse, len(m.transactions))
	copy(out, m.transactions)
	return out
}

// gate applies delay, failure injection and auth enforcement. It reports
// whether the request may proceed.
func (m *MockServer) gate(w http.ResponseWriter, r *http.Request, endpoint string) bool {
	m.mu.Lock()
	delay := m.delay[endpoint]
	fail := false
	if m.failures[endpoint] > 0 {
		m.failures[endpoint]--
		fail = true
	}
	status := m.failStatus
	needAuth := m.requireAuth[endpoint]
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if fail {
		http.Error(w, "injected failure", status)
		return false
	}
	if needAuth {
		header := r.Header.Get("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		m.mu.Lock()
		_, ok := m.tokens[token]
		m.mu.Unlock()
		if header == "" || !ok {
			http.Error(w, "missing or unknown bearer token", http.StatusUnauthorized)
			return false
		}
	}
	return true
}

func (m *MockServer) handleAuth(w http.ResponseWriter, r *http.Request) {
	if !m.gate(w, r, "/authToken") {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		http.Error(w, "missing credentials", http.StatusUnauthorized)
		return
	}

	scope := r.URL.Query().Get("claim")
	if scope == "" {
		scope = ScopeTransfer
	}

	m.mu.Lock()
	token := fmt.Sprintf("mock-token-%s-%d", scope, len(m.tokens)+1)
	m.tokens[token] = scope
	m.mu.Unlock()

	writeJSON(w, authResponse{Token: token})
}

func (m *MockServer) handleTransfer(w http.ResponseWriter, r *http.Request) {
	if !m.gate(w, r, "/transfer") {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[req.FromAccount]; !ok {
		http.Error(w, "unknown source account", http.StatusNotFound)
		return
	}
	if _, ok := m.accounts[req.ToAccount]; !ok {
		http.Error(w, "unknown destination account", http.StatusNotFound)
		return
	}

	resp := TransferResponse{
		TransactionID: fmt.Sprintf("tx-%04d", m.nextTxID),
		Status:        "SUCCESS",
		Message:       "Transfer completed",
		FromAccount:   req.FromAccount,
		ToAccount:     req.ToAccount,
		Amount:        req.Amount,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}
	m.nextTxID++
	m.balances[req.FromAccount] -= req.Amount
	m.balances[req.ToAccount] += req.Amount
	m.transactions = append(m.transactions, resp)

	writeJSON(w, resp)
}

func (m *MockServer) handleValidate(w http.ResponseWriter, r *http.Request) {
	if !m.gate(w, r, "/accounts/validate/") {
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/accounts/validate/")

	m.mu.Lock()
	acct, ok := m.accounts[id]
	m.mu.Unlock()

	if !ok {
		writeJSON(w, AccountValidation{AccountID: id, IsValid: false, AccountType: "UNKNOWN", Status: "NOT_FOUND"})
		return
	}
	writeJSON(w, AccountValidation{
		AccountID:   acct.AccountID,
		IsValid:     acct.Status == "ACTIVE",
		AccountType: acct.AccountType,
		Status:      acct.Status,
	})
}

func (m *MockServer) handleBalance(w http.ResponseWriter, r *http.Request) {
	if !m.gate(w, r, "/accounts/balance/") {
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/accounts/balance/")

	m.mu.Lock()
	balance, ok := m.balances[id]
	m.mu.Unlock()

	if !ok {
		http.Error(w, "account not found", http.StatusNotFound)
		return
	}
	writeJSON(w, BalanceInfo{AccountID: id, Balance: balance, Currency: "USD"})
}

func (m *MockServer) handleAccounts(w http.ResponseWriter, r *http.Request) {
	if !m.gate(w, r, "/accounts") {
		return
	}

	m.mu.Lock()
	list := AccountList{Accounts: make([]AccountSummary, 0, len(m.accounts))}
	for _, id := range sortedAccountIDs(m.accounts) {
		list.Accounts = append(list.Accounts, m.accounts[id])
	}
	m.mu.Unlock()

	writeJSON(w, list)
}

func (m *MockServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	if !m.gate(w, r, "/transactions/history") {
		return
	}

	m.mu.Lock()
	history := TransactionHistory{Transactions: append([]TransferResponse(nil), m.transactions...)}
	m.mu.Unlock()

	writeJSON(w, history)
}

func sortedAccountIDs(accounts map[string]AccountSummary) []string {
	ids := make([]string, 0, len(accounts))
	for id := range accounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
