package transform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LilVoxy/obeya_headcount/ETL/models"
)

func TestNormalize_CanonicalFrameIsNoOp(t *testing.T) {
	f := frameOf(t, []string{"almacen", "longitud", "año"}, []string{"S1", "-74.0", "2026"})

	out := NewNormalizer(nil).Normalize(f)

	assert.Equal(t, f.Columns(), out.Columns())
	assert.Equal(t, "-74.0", out.Cell(0, models.ColLongitude).String)
	assert.Equal(t, "2026", out.Cell(0, models.ColYear).String)
}

func TestNormalize_AlternateNamesMatchCanonical(t *testing.T) {
	canonical := frameOf(t, []string{"almacen", "longitud", "año"}, []string{"S1", "-74.0", "2026"})
	alternate := frameOf(t, []string{"almacen", "logitud", "ano"}, []string{"S1", "-74.0", "2026"})

	n := NewNormalizer(nil)
	a := n.Normalize(canonical)
	b := n.Normalize(alternate)

	require.Equal(t, a.Columns(), b.Columns())
	for _, col := range a.Columns() {
		assert.Equal(t, a.Cell(0, col), b.Cell(0, col), col)
	}
	assert.True(t, alternate.Has("logitud"), "input frame must not change")
	assert.False(t, alternate.Has(models.ColLongitude))
}

func TestNormalize_Idempotent(t *testing.T) {
	f := frameOf(t, []string{"almacen", "logitud", "ano"}, []string{"S1", "-74.0", "2026"})
	n := NewNormalizer(nil)

	once := n.Normalize(f)
	twice := n.Normalize(once)

	assert.Equal(t, once.Columns(), twice.Columns())
}

func TestNormalize_CanonicalWinsOverAlternate(t *testing.T) {
	f := frameOf(t, []string{"almacen", "longitud", "logitud"}, []string{"S1", "-74.0", "-99.9"})

	out := NewNormalizer(nil).Normalize(f)

	assert.Equal(t, "-74.0", out.Cell(0, models.ColLongitude).String)
	assert.True(t, out.Has("logitud"))
}

func TestNormalize_ExtraAliases(t *testing.T) {
	f := frameOf(t, []string{"store", "Empleado_ID "}, []string{"S1", "E1"})
	n := NewNormalizer(map[string]string{
		"store":         "almacen",
		" EMPLEADO_ID ": "empleado",
		"same":          "same",
	})

	out := n.Normalize(f)

	assert.True(t, out.Has(models.ColStore))
	// headers are lower-cased by the extractor, not by the normalizer
	assert.True(t, out.Has("Empleado_ID "))
}

func TestLoadAliasFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.yaml")
	require.NoError(t, os.WriteFile(path, []byte("aliases:\n  longitude: longitud\n  store: almacen\n"), 0o600))

	aliases, err := LoadAliasFile(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"longitude": "longitud", "store": "almacen"}, aliases)

	_, err = LoadAliasFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("aliases: [1, 2"), 0o600))
	_, err = LoadAliasFile(bad)
	require.Error(t, err)
}
