package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"defter/internal/backend"
	"defter/internal/core"
	"defter/internal/store"
)

// sharedBackend keeps one memory ledger across command invocations.
func sharedBackend(t *testing.T) Opener {
	t.Helper()
	res, err := backend.NewFactory(nil).CreateBackend(context.Background(), backend.Config{
		Type:   backend.MemoryBackend,
		Locale: core.LocaleEN,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Cleanup() })

	return func(context.Context) (*backend.BackendResult, error) {
		return &backend.BackendResult{
			Store:   res.Store,
			Ledger:  res.Ledger,
			Ping:    res.Ping,
			Cleanup: func() error { return nil },
		}, nil
	}
}

func run(t *testing.T, open Opener, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(open)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--env-file", ""}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestLedgerCommands(t *testing.T) {
	open := sharedBackend(t)

	out, err := run(t, open, "add-entity", "Ayşe", "--phone", "532 000 00 00", "--note", "neighbour")
	require.NoError(t, err)
	assert.Equal(t, "created entity 1 (Ayşe)\n", out)

	out, err = run(t, open, "record", "1", "c", "100", "--date", "2026-10-01")
	require.NoError(t, err)
	assert.Contains(t, out, "recorded transaction 1: c 100.00")

	out, err = run(t, open, "record", "1", "borc", "223,45", "--note", "market")
	require.NoError(t, err)
	assert.Contains(t, out, "d 223.45")

	out, err = run(t, open, "show", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Balance:    -123.45")
	assert.Contains(t, out, "token 123_45")
	assert.Contains(t, out, "WhatsApp:   https://wa.me/905320000000")
	assert.Contains(t, out, "market")

	out, err = run(t, open, "entities")
	require.NoError(t, err)
	assert.Contains(t, out, "BALANCE")
	assert.Contains(t, out, string(core.CategoryDebitOwedByOwner))

	out, err = run(t, open, "settle", "1")
	require.NoError(t, err)
	assert.Equal(t, "settled entity 1 with a credit of 123.45\n", out)

	_, err = run(t, open, "settle", "1")
	assert.ErrorIs(t, err, core.ErrNotInDebt)

	out, err = run(t, open, "delete", "1")
	require.NoError(t, err)
	assert.Equal(t, "deleted entity 1\n", out)

	_, err = run(t, open, "show", "1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestImportCommand(t *testing.T) {
	open := sharedBackend(t)
	path := filepath.Join(t.TempDir(), "export.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
entities:
  - id: 7
    name: Yusuf
transactions:
  - id: 1
    customerId: 7
    type: alacak
    amount: 12.5
    date: "2024-02-29"
  - id: 2
    customerId: 8
    type: a
    amount: 1
`), 0o600))

	out, err := run(t, open, "import", path)
	require.NoError(t, err)
	assert.Equal(t, "imported 1 entities and 1 transactions, skipped 1\n", out)

	_, err = run(t, open, "import", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestArgumentErrors(t *testing.T) {
	open := sharedBackend(t)

	_, err := run(t, open, "show", "abc")
	assert.ErrorContains(t, err, "invalid entity id")

	_, err = run(t, open, "record", "1", "c")
	assert.Error(t, err)

	_, err = run(t, open, "add-entity", "Ali")
	require.NoError(t, err)
	_, err = run(t, open, "record", "1", "gift", "5")
	assert.ErrorIs(t, err, core.ErrUnknownType)
}

func TestOpenFailure(t *testing.T) {
	boom := errors.New("boom")
	_, err := run(t, func(context.Context) (*backend.BackendResult, error) { return nil, boom }, "entities")
	assert.ErrorIs(t, err, boom)
}
