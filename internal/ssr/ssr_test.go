package ssr

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCatalog(t *testing.T, lines ...string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "ssr_codes.txt")
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRangeExpansion(t *testing.T) {
	path := writeCatalog(t, "0100-0102. TRANSIT — LONDON")
	cat, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := cat.Lookup("0101")
	if !ok {
		t.Fatal("expected 0101 to resolve from range expansion")
	}
	if !got.hasCategory(CategoryTransit) {
		t.Fatalf("expected TRANSIT category, got %+v", got.Categories)
	}
}

func TestEmergencyTriadAlwaysCritical(t *testing.T) {
	path := writeCatalog(t, "0001. CONSPICUITY")
	cat, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := cat.Lookup("7700")
	if !ok {
		t.Fatal("expected 7700 to resolve even though absent from catalog")
	}
	if got.Priority != PriorityCritical || !got.Alert {
		t.Fatalf("expected CRITICAL+alert for 7700, got %+v", got)
	}
}

func TestPriorityTable(t *testing.T) {
	path := writeCatalog(t,
		"0020. EMERGENCY USE ONLY",
		"0021. POLICE AIR SUPPORT UNIT",
		"0022. RAF MILITARY TRANSPORT",
		"0023. GENERAL CONSPICUITY CODE",
	)
	cat, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	cases := map[string]Priority{"0020": PriorityCritical, "0021": PriorityHigh, "0022": PriorityMedium, "0023": PriorityLow}
	for code, want := range cases {
		got, ok := cat.Lookup(code)
		if !ok {
			t.Fatalf("%s: expected lookup to succeed", code)
		}
		if got.Priority != want {
			t.Errorf("%s: priority = %s, want %s", code, got.Priority, want)
		}
	}
}
