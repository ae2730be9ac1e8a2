package hydrate

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/poolcore/ckdb/internal/domain"
)

func seedDB(t *testing.T, path string) {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	stmts := []string{
		`CREATE TABLE users (username TEXT, salt TEXT, passwordhash TEXT, email TEXT, expirydate TEXT)`,
		`INSERT INTO users VALUES ('alice', 'deadbeef', 'abc123', 'alice@example.com', '')`,
		`CREATE TABLE workers (userid INTEGER, workername TEXT, difficulty INTEGER, idlenotificationmins INTEGER, expirydate TEXT)`,
		`INSERT INTO workers VALUES (1, 'rig1', 16384, 10, '')`,
		`CREATE TABLE paymentaddresses (userid INTEGER, payaddress TEXT, expirydate TEXT)`,
		`INSERT INTO paymentaddresses VALUES (1, 'bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq', '')`,
		`CREATE TABLE blocks (height INTEGER, blockhash TEXT, confirms INTEGER, expirydate TEXT)`,
		`INSERT INTO blocks VALUES (700000, '00000000000000000000000000000000000000000000000000000000abcd1234', 50, '')`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("exec %q: %v", s, err)
		}
	}
}

func TestFromFileEmptyPathIsNotAnError(t *testing.T) {
	stores := domain.NewStores()
	if err := FromFile("", stores); err != nil {
		t.Fatalf("expected no error for empty path, got %v", err)
	}
	if _, ok := stores.Users.FindCurrentByUsername("nobody"); ok {
		t.Fatal("expected an empty store")
	}
}

func TestFromFileReplaysKnownTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.db")
	seedDB(t, path)

	stores := domain.NewStores()
	if err := FromFile(path, stores); err != nil {
		t.Fatalf("FromFile: %v", err)
	}

	if _, ok := stores.Users.FindCurrentByUsername("alice"); !ok {
		t.Fatal("expected alice to be hydrated")
	}
	if _, ok := stores.Workers.FindCurrent(1, "rig1"); !ok {
		t.Fatal("expected rig1 to be hydrated")
	}
	addr, ok := stores.PaymentAddresses.FindCurrent(1)
	if !ok || addr.PayAddress != "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq" {
		t.Fatal("expected payment address to be hydrated")
	}
	blk, ok := stores.Blocks.FindCurrent(700000, "00000000000000000000000000000000000000000000000000000000abcd1234")
	if !ok {
		t.Fatal("expected block to be hydrated")
	}
	if blk.State != domain.BlockConfirmed {
		t.Fatalf("expected block with 50 confirms to be Confirmed, got %s", blk.State)
	}
}

func TestFromFileMissingTablesAreSkipped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db.Close()

	stores := domain.NewStores()
	if err := FromFile(path, stores); err != nil {
		t.Fatalf("expected missing tables to be tolerated, got %v", err)
	}
}
