package settings

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fonts.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFonts(t *testing.T) {
	path := writeFile(t, "- Arial\n- \"Times New Roman\"\n- ' '\n- Georgia\n")

	fonts, err := LoadFonts(path)
	if err != nil {
		t.Fatalf("LoadFonts failed: %v", err)
	}

	want := []string{"Arial", "Times New Roman", "Georgia"}
	if !reflect.DeepEqual(fonts, want) {
		t.Errorf("LoadFonts() = %v, want %v", fonts, want)
	}
}

func TestLoadFonts_Errors(t *testing.T) {
	if _, err := LoadFonts(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Error("Expected error for missing file")
	}

	path := writeFile(t, "fonts: {not: a list}\n")
	if _, err := LoadFonts(path); err == nil {
		t.Error("Expected error for non-sequence document")
	}
}

func TestLoadFonts_ShippedDefaults(t *testing.T) {
	fonts, err := LoadFonts(filepath.Join("..", "..", "settings", "fonts.yml"))
	if err != nil {
		t.Fatalf("LoadFonts failed: %v", err)
	}
	if len(fonts) == 0 {
		t.Error("Expected shipped font list to be non-empty")
	}
}
