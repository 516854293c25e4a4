package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"strings"
	"testing"
)

func TestDigest(t *testing.T) {
	if Digest(nil) != "" {
		t.Fatalf("expected empty digest for no data")
	}
	got := Digest([]byte("abc"))
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestNewIDIsUnique(t *testing.T) {
	a, b := NewID(), NewID()
	if a == b || !strings.HasPrefix(a, "audit-") {
		t.Fatalf("unexpected ids %q %q", a, b)
	}
}

func TestLogWriter(t *testing.T) {
	var buf bytes.Buffer
	writer := NewLogWriter(log.New(&buf, "", 0))
	meta, _ := json.Marshal(map[string]string{"cheapest": "Alfa"})

	err := writer.Log(context.Background(), Entry{Action: ActionCompare, RunID: "run-1", PriceVersion: "v1", Metadata: meta})
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	line := buf.String()
	for _, want := range []string{"action=compare", "actor=anonymous", "run=run-1", "prices=v1", `"cheapest":"Alfa"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
}

func TestRepositoryNilDB(t *testing.T) {
	if NewRepository(nil) != nil {
		t.Fatalf("expected nil repository for nil db")
	}
	var repo *Repository
	if err := repo.Log(context.Background(), Entry{}); err == nil {
		t.Fatalf("expected error from nil repository")
	}
}
