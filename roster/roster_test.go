package roster

import (
	"os"
	"path/filepath"
	"testing"
)

func writeRoster(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "roster.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write roster: %v", err)
	}
	return path
}

func TestLoadAndFilter(t *testing.T) {
	path := writeRoster(t, `{
		"nodes": [
			{"ip": "127.0.0.1", "port": 9001, "role": "sender"},
			{"ip": "127.0.0.1", "port": 9002, "role": "receiver"},
			{"ip": "127.0.0.1", "port": 9003, "role": "receiver"}
		]
	}`)

	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	recv := r.Receivers()
	if len(recv) != 2 {
		t.Fatalf("Receivers: got %d, want 2", len(recv))
	}

	self := r.ExcludingSelf("127.0.0.1", 9002)
	if len(self) != 1 || self[0].Port != 9003 {
		t.Fatalf("ExcludingSelf: got %+v", self)
	}
}

func TestLoadRejectsUnknownRole(t *testing.T) {
	path := writeRoster(t, `{"nodes": [{"ip":"127.0.0.1","port":1,"role":"bogus"}]}`)
	if _, err := Load(path); err == nil {
		t.Fatalf("Load: expected error for unknown role")
	}
}
