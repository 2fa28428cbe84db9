package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gotransfer/internal/domain"
)

func TestAccountFromDomain(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	resp := AccountFromDomain(&domain.AccountSnapshot{
		ID:        "Id-1",
		Balance:   decimal.RequireFromString("90.25"),
		CreatedAt: created,
	})

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	want := `{"accountId":"Id-1","balance":"90.25","createdAt":"2024-05-01T12:00:00Z"}`
	if string(data) != want {
		t.Fatalf("got %s, want %s", data, want)
	}
}

func TestTransferFromDomain(t *testing.T) {
	data, err := json.Marshal(TransferFromDomain(&domain.TransferReceipt{TransactionID: "01HZX"}))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	if string(data) != `{"transactionId":"01HZX"}` {
		t.Fatalf("unexpected body %s", data)
	}
}
