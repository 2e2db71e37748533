package main

import (
	"bytes"
	"strings"
	"testing"
)

// TestGenerateLogsSummaryOnce — итог генерации выводится одной строкой.
func TestGenerateLogsSummaryOnce(t *testing.T) {
	var stderr bytes.Buffer
	rootCmd.SetErr(&stderr)
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"generate", "--catalog", "../../configs/catalog.yaml", "--out", t.TempDir()})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("crudgen generate: %v", err)
	}

	if n := strings.Count(stderr.String(), "Генерация завершена"); n != 1 {
		t.Errorf("строк итога генерации: %d, ожидается 1\n%s", n, stderr.String())
	}
}
