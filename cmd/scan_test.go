package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mdscan/mdscan/pkg/storage"
	"github.com/tidwall/gjson"
)

func writePackage(t *testing.T, root string) {
	t.Helper()
	files := map[string]string{
		"package.xml": `<?xml version="1.0" encoding="UTF-8"?>
<Package xmlns="http://soap.sforce.com/2006/04/metadata">
    <types>
        <members>*</members>
        <name>ApexClass</name>
    </types>
    <version>58.0</version>
</Package>`,
		"classes/Jobs.cls": `public class Jobs {
    @future
    public static void run() {}
}`,
		"classes/Jobs.cls-meta.xml": `<?xml version="1.0" encoding="UTF-8"?>
<ApexClass xmlns="http://soap.sforce.com/2006/04/metadata">
    <apiVersion>40.0</apiVersion>
    <status>Active</status>
</ApexClass>`,
	}
	for name, body := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestScanCommand(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	pkg := t.TempDir()
	writePackage(t, pkg)
	out := filepath.Join(t.TempDir(), "report.json")
	dbPath := filepath.Join(t.TempDir(), "history.sqlite")

	rootCmd.SetArgs([]string{"scan", "-d", pkg, "--json", "-o", out, "--db", "--dbpath", dbPath, "-l", "error"})
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	if n := gjson.GetBytes(b, "inventory.ApexClass.count").Int(); n != 1 {
		t.Fatalf("expected 1 ApexClass, got %d", n)
	}
	if n := gjson.GetBytes(b, "inventory.ApexClass.FutureCalls").Int(); n != 1 {
		t.Fatalf("expected 1 future call, got %d", n)
	}
	if v := gjson.GetBytes(b, "apiVersions.ApexClass.Jobs").Int(); v != 40 {
		t.Fatalf("expected API version 40, got %d", v)
	}

	db, err := storage.Open(dbPath)
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	defer db.Close()
	scans, err := db.ListScans(context.Background(), storage.ListOptions{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(scans) != 1 || scans[0].Source != pkg {
		t.Fatalf("expected one stored scan of %s, got %+v", pkg, scans)
	}
}
