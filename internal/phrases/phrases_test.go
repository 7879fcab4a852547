package phrases

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	require.Equal(t, 12, c.Len())
	require.Contains(t, c.phrases, "Treat your mother right.")
}

func TestNewDropsBlanksAndRejectsEmpty(t *testing.T) {
	c, err := New([]string{"  hello ", "", "   "})
	require.NoError(t, err)
	require.Equal(t, []string{"hello"}, c.phrases)

	_, err = New([]string{" "})
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty")
}

func TestPickStaysInCatalog(t *testing.T) {
	c := Default()
	rng := rand.New(rand.NewSource(1))
	seen := map[string]bool{}
	for i := 0; i < 500; i++ {
		p := c.Pick(rng)
		require.Contains(t, c.phrases, p)
		seen[p] = true
	}
	require.Len(t, seen, c.Len())
}

func TestPickEmptyCatalog(t *testing.T) {
	require.Equal(t, "", Catalog{}.Pick(rand.New(rand.NewSource(1))))
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phrases.yaml")
	require.NoError(t, os.WriteFile(path, []byte("phrases:\n  - First one.\n  - Second one.\n"), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{"First one.", "Second one."}, c.phrases)
}

func TestLoadEmptyPathUsesBuiltin(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default().phrases, c.phrases)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "read phrase catalog")

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("phrases: [unterminated\n"), 0o600))
	_, err = Load(broken)
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse phrase catalog")

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("phrases: []\n"), 0o600))
	_, err = Load(empty)
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty")
}
