package checkpoint

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	solana "github.com/gagliardetto/solana-go"
)

func TestJournalWritesLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "checkpoint.jsonl")

	journal, err := Create(path)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	addr := solana.NewWallet().PublicKey()
	if err := journal.Record(Entry{Step: "asset-mint", Key: "xBTC", Address: addr}); err != nil {
		t.Fatalf("Record error: %v", err)
	}
	if err := journal.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	if !scanner.Scan() {
		t.Fatalf("expected one line in journal")
	}
	var decoded Entry
	if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
		t.Fatalf("json decode: %v", err)
	}
	if decoded.Step != "asset-mint" || decoded.Key != "xBTC" || !decoded.Address.Equals(addr) {
		t.Fatalf("unexpected decoded entry %+v", decoded)
	}
	if decoded.At.IsZero() {
		t.Fatalf("timestamp not stamped")
	}
}

func TestJournalReopenRestoresIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.jsonl")
	first := solana.NewWallet().PublicKey()
	second := solana.NewWallet().PublicKey()

	journal, err := Create(path)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	_ = journal.Record(Entry{Step: "collateral-feed", Address: first})
	_ = journal.Record(Entry{Step: "collateral-feed", Address: second})
	_ = journal.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	defer reopened.Close()
	e, ok := reopened.Lookup("collateral-feed", "")
	if !ok || !e.Address.Equals(second) {
		t.Fatalf("expected latest entry to win, got %+v", e)
	}
	if n := len(reopened.Entries()); n != 2 {
		t.Fatalf("expected 2 entries, got %d", n)
	}
	if _, ok := reopened.Lookup("init-exchange", ""); ok {
		t.Fatalf("unexpected entry for unrecorded step")
	}

	fresh, err := Create(path)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	defer fresh.Close()
	if len(fresh.Entries()) != 0 {
		t.Fatalf("Create should discard previous entries")
	}
}

func TestJournalRejectsCorruptLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.jsonl")
	if err := os.WriteFile(path, []byte("{not json}\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Open(path); err == nil {
		t.Fatalf("expected corrupt journal error")
	}
}

func TestRecordAfterClose(t *testing.T) {
	journal, err := Create(filepath.Join(t.TempDir(), "c.jsonl"))
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	_ = journal.Close()
	if err := journal.Record(Entry{Step: "x"}); err == nil {
		t.Fatalf("expected error after close")
	}
}
