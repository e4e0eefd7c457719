package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunWithArgs(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"DIS_10-CHAIR_BLUE", "GHOST"}, nil, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	var out map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	require.Equal(t, 26.99, out["totalPrice"])
	require.Equal(t, []any{"GHOST"}, out["unknownCodes"])
}

func TestRunFromStdinWithRankedStrategy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "products.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"name":"foo","price":25.99,"productCode":"BULK_BUY_2_GET_1-FOO"},
		{"name":"bar","price":66.99,"productCode":"BULK_BUY_2_GET_1-BAR"}
	]`), 0o600))

	var stdout, stderr bytes.Buffer
	stdin := strings.NewReader(`["BULK_BUY_2_GET_1-FOO","BULK_BUY_2_GET_1-BAR"]`)
	code := run(context.Background(), []string{"-catalog", path, "-strategy", "ranked"}, stdin, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	require.Contains(t, stdout.String(), `"totalPrice": 66.99`)
	require.Contains(t, stdout.String(), `"loyaltyPoints": 13.40`)
}

func TestRunFailures(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.Equal(t, 1, run(context.Background(), nil, strings.NewReader(`{`), &stdout, &stderr))
	require.Equal(t, 2, run(context.Background(), []string{"-catalog", filepath.Join(t.TempDir(), "missing.json"), "X"}, nil, &stdout, &stderr))
	require.Equal(t, 2, run(context.Background(), []string{"-strategy", "random", "X"}, nil, &stdout, &stderr))
	require.Equal(t, 1, run(context.Background(), []string{"-nope"}, nil, &stdout, &stderr))
}
