package datastores

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

// exercisePersister runs a store on p, then reopens a store on reopen
// and checks that contacts, order and the id counter survived.
func exercisePersister(t *testing.T, p, reopen Persister) {
	t.Helper()
	ctx := context.Background()

	s := newTestStore(t, p)
	mustCreate(t, s, "Smith", "555-0100")
	mustCreate(t, s, "Jones", "555-0199")
	last := mustCreate(t, s, "Brown", "555-0123")
	if _, err := s.Update(ctx, 1, ContactPatch{Phone: ptr("555-0000")}); err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if err := s.Delete(ctx, last.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}

	s = newTestStore(t, reopen)
	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if got := ids(list); !slices.Equal(got, []ContactID{1, 2}) {
		t.Fatalf("reloaded ids = %v, want [1 2]", got)
	}
	if list[0].Phone != "555-0000" {
		t.Errorf("reloaded phone = %q, want 555-0000", list[0].Phone)
	}

	c := mustCreate(t, s, "White", "555-0150")
	if c.ID != 4 {
		t.Errorf("id after reload = %d, want 4 (3 was deleted, not reused)", c.ID)
	}
}

func TestContactsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.json")
	exercisePersister(t, &ContactsFile{Path: path}, &ContactsFile{Path: path})

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory holds %d entries, want only the document", len(entries))
	}
}

func TestContactsFile_Missing(t *testing.T) {
	f := &ContactsFile{Path: filepath.Join(t.TempDir(), "absent.json")}
	d, err := f.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll() error: %v", err)
	}
	if len(d.Contacts) != 0 || d.NextID != 0 {
		t.Errorf("LoadAll() = %+v, want empty directory", d)
	}
}

func TestContactsFile_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	_, err := NewContactsInmem(context.Background(), &ContactsFile{Path: path})
	if err == nil {
		t.Error("NewContactsInmem() on corrupt file succeeded, want error")
	}
}

func TestContactsSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "contacts.db")

	first, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLite() error: %v", err)
	}
	defer first.Close()
	second, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLite() reopen error: %v", err)
	}
	defer second.Close()

	exercisePersister(t, first, second)

	if err := second.Ping(ctx); err != nil {
		t.Errorf("Ping() error: %v", err)
	}
}

func TestContactsPostgres(t *testing.T) {
	dsn := os.Getenv("TELEPHONE_BOOK_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TELEPHONE_BOOK_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	p, err := OpenPostgres(ctx, dsn)
	if err != nil {
		t.Fatalf("OpenPostgres() error: %v", err)
	}
	defer p.Close()
	if err := p.Persist(ctx, Directory{NextID: 1}); err != nil {
		t.Fatalf("Persist() reset error: %v", err)
	}

	exercisePersister(t, p, p)
}
