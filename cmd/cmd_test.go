package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estimation/collections"
	"estimation/config"
	"estimation/interchange"
	"estimation/project"
	"estimation/store"
)

func newTestApp(t *testing.T) (*App, *store.Memory) {
	t.Helper()
	cfg := config.Default()
	p, err := collections.DemoProject(cfg.Recap())
	require.NoError(t, err)
	data, err := interchange.ExportJSON(p)
	require.NoError(t, err)

	st := store.NewMemory()
	require.NoError(t, st.Put(context.Background(), "villa", data))

	return &App{
		cfg: cfg,
		open: func() (store.Store, func() error, error) {
			return st, func() error { return nil }, nil
		},
	}, st
}

func run(t *testing.T, a *App, args ...string) (string, error) {
	t.Helper()
	root := &cobra.Command{Use: "estimation", SilenceUsage: true, SilenceErrors: true}
	root.AddCommand(a.commands()...)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestList(t *testing.T) {
	a, st := newTestApp(t)
	require.NoError(t, st.Put(context.Background(), "casse", []byte("{")))

	out, err := run(t, a, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Villa R+1 Keur Massar")
	assert.Contains(t, out, "14 556 900,00 €")
	assert.Contains(t, out, "(illisible)")
}

func TestRecap(t *testing.T) {
	a, _ := newTestApp(t)

	out, err := run(t, a, "recap", "villa")
	require.NoError(t, err)
	assert.Contains(t, out, "Coût total")
	assert.Contains(t, out, "14 556 900,00 €")
	assert.Contains(t, out, "Maçonnerie")

	out, err = run(t, a, "recap", "villa", "--json")
	require.NoError(t, err)
	var s project.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.InDelta(t, 14556900, s.CoutTotalProjet, 1e-6)
	assert.Equal(t, 14, s.NombreLignesDevis)

	_, err = run(t, a, "recap", "absente")
	assert.ErrorContains(t, err, `no estimation "absente"`)
}

func TestExport(t *testing.T) {
	a, _ := newTestApp(t)
	dir := t.TempDir()

	for format, prefix := range map[string]string{"json": "{", "xlsx": "PK", "pdf": "%PDF"} {
		path := filepath.Join(dir, "villa."+format)
		out, err := run(t, a, "export", "villa", format, "-o", path)
		require.NoError(t, err, format)
		assert.Contains(t, out, path)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte(prefix)), "%s does not start with %q", format, prefix)
	}

	_, err := run(t, a, "export", "villa", "csv", "-o", filepath.Join(dir, "villa.csv"))
	assert.ErrorContains(t, err, "unknown export format")
}

func TestImport(t *testing.T) {
	a, st := newTestApp(t)
	dir := t.TempDir()

	next := project.New(project.Info{Nom: "Extension garage"})
	data, err := interchange.ExportJSON(next)
	require.NoError(t, err)
	path := filepath.Join(dir, "garage.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	out, err := run(t, a, "import", "villa", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Import réussi")

	stored, err := st.Get(context.Background(), "villa")
	require.NoError(t, err)
	p, err := interchange.ImportJSON(stored)
	require.NoError(t, err)
	assert.Equal(t, "Extension garage", p.Info.Nom)
}

func TestImport_Malformed(t *testing.T) {
	a, st := newTestApp(t)
	path := filepath.Join(t.TempDir(), "casse.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"id":`), 0o600))
	before, _ := st.Get(context.Background(), "villa")

	out, err := run(t, a, "import", "villa", path)
	require.Error(t, err)
	assert.Contains(t, out, "Import impossible")

	after, _ := st.Get(context.Background(), "villa")
	assert.Equal(t, before, after)
}

func TestImport_UnknownFormat(t *testing.T) {
	a, _ := newTestApp(t)
	_, err := run(t, a, "import", "villa", "devis.ods")
	assert.ErrorContains(t, err, `unknown import format "ods"`)
}
