package main

import (
	"strings"
	"testing"
)

func TestCompressRequiresTarget(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"compress"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "specify an item id or --all") {
		t.Fatalf("expected target error, got %v", err)
	}

	_, _, err = runCLI(t, []string{"compress", "--all", "5"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "specify an item id or --all") {
		t.Fatalf("expected target error, got %v", err)
	}

	_, _, err = runCLI(t, []string{"compress", "abc"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "invalid item id") {
		t.Fatalf("expected invalid id error, got %v", err)
	}
}

func TestCompressUnknownItem(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"compress", "9999"}, env.configPath)
	if err == nil {
		t.Fatal("expected error for missing item")
	}
}
