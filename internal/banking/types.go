package banking

import (
	"encoding/json"
	"fmt"
	"strings"
)

const accountPrefix = "ACC"

// TransferRequest is the payload for POST /transfer.
type TransferRequest struct {
	FromAccount string  `json:"fromAccount"`
	ToAccount   string  `json:"toAccount"`
	Amount      float64 `json:"amount"`
}

// Validate checks the request fields before any network traffic happens.
func (r TransferRequest) Validate() error {
	if r.FromAccount == "" || r.ToAccount == "" {
		return &ValidationError{Field: "account", Reason: "both fromAccount and toAccount are required"}
	}
	if !strings.HasPrefix(r.FromAccount, accountPrefix) {
		return &ValidationError{Field: "fromAccount", Reason: fmt.Sprintf("invalid format: %s", r.FromAccount)}
	}
	if !strings.HasPrefix(r.ToAccount, accountPrefix) {
		return &ValidationError{Field: "toAccount", Reason: fmt.Sprintf("invalid format: %s", r.ToAccount)}
	}
	if r.Amount <= 0 {
		return &ValidationError{Field: "amount", Reason: fmt.Sprintf("must be positive, got %v", r.Amount)}
	}
	return nil
}

// ValidateAccountID checks a single account identifier.
func ValidateAccountID(id string) error {
	if id == "" {
		return &ValidationError{Field: "account", Reason: "account id is required"}
	}
	if !strings.HasPrefix(id, accountPrefix) {
		return &ValidationError{Field: "account", Reason: fmt.Sprintf("invalid format: %s", id)}
	}
	return nil
}

// TransferResponse is the result of a transfer. Missing wire fields decode to
// their zero value; Status additionally defaults to "UNKNOWN".
type TransferResponse struct {
	TransactionID string  `json:"transactionId"`
	Status        string  `json:"status"`
	Message       string  `json:"message"`
	FromAccount   string  `json:"fromAccount"`
	ToAccount     string  `json:"toAccount"`
	Amount        float64 `json:"amount"`
	Timestamp     string  `json:"timestamp,omitempty"`
}

// UnmarshalJSON applies response defaults for absent fields.
func (t *TransferResponse) UnmarshalJSON(b []byte) error {
	type alias TransferResponse
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*t = TransferResponse(a)
	if t.Status == "" {
		t.Status = "UNKNOWN"
	}
	return nil
}

// AccountValidation is the result of GET /accounts/validate/{id}.
type AccountValidation struct {
	AccountID   string `json:"accountId"`
	IsValid     bool   `json:"isValid"`
	AccountType string `json:"accountType"`
	Status      string `json:"status"`
	BonusPoints string `json:"bonusPoints,omitempty"`
}

// BalanceInfo is the result of GET /accounts/balance/{id}.
type BalanceInfo struct {
	AccountID string  `json:"accountId"`
	Balance   float64 `json:"balance"`
	Currency  string  `json:"currency"`
}

// AccountSummary describes one entry of the account listing.
type AccountSummary struct {
	AccountID   string   `json:"accountId"`
	AccountType string   `json:"accountType"`
	Status      string   `json:"status"`
	Balance     *float64 `json:"balance,omitempty"`
}

// AccountList is the result of GET /accounts.
type AccountList struct {
	Accounts []AccountSummary `json:"accounts"`
}

// TransactionHistory is the result of GET /transactions/history.
type TransactionHistory struct {
	Transactions []TransferResponse `json:"transactions"`
}

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string `json:"token"`
}
