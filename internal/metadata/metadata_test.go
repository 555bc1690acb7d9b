package metadata_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/Mohsinsiddi/savingctl/internal/logging"
	"github.com/Mohsinsiddi/savingctl/internal/metadata"
	"github.com/Mohsinsiddi/savingctl/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateWritesFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "metadata")
	g := metadata.NewGenerator(protocol.Default(), metadata.Options{}, logging.Discard())

	written, err := g.Generate(dir)
	require.NoError(t, err)
	assert.Len(t, written, 4*2+1)
	assert.Equal(t, filepath.Join(dir, metadata.CollectionFile), written[len(written)-1])

	for _, name := range []string{"1.json", "1.svg", "4.json", "4.svg", "collection.json"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
	assert.NoFileExists(t, filepath.Join(dir, "5.json"))
}

func TestTokenDocument(t *testing.T) {
	dir := t.TempDir()
	g := metadata.NewGenerator(protocol.Default(), metadata.Options{ImageBaseURI: "ipfs://cid/"}, logging.Discard())
	_, err := g.Generate(dir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "2.json"))
	require.NoError(t, err)
	assert.Equal(t, byte('\n'), data[len(data)-1])

	var tok metadata.Token
	require.NoError(t, json.Unmarshal(data, &tok))
	assert.Equal(t, "Savings Deposit Certificate #2", tok.Name)
	assert.Equal(t, "ipfs://cid/2.svg", tok.Image)
	assert.Contains(t, tok.Description, "Growth 90D")

	traits := map[string]any{}
	for _, a := range tok.Attributes {
		traits[a.TraitType] = a.Value
	}
	assert.Equal(t, "90d", traits["Tenor"])
	assert.Equal(t, "8", traits["APR (%)"])
	assert.EqualValues(t, 3, traits["Grace Period (days)"])
	assert.Equal(t, "Active", traits["Status"])
}

func TestImageEscapesText(t *testing.T) {
	p := protocol.Default()
	g := metadata.NewGenerator(p, metadata.Options{Name: "Saver <&> Club"}, logging.Discard())

	svg, err := g.Image(1, p.DefaultPlans[0])
	require.NoError(t, err)
	assert.Contains(t, string(svg), "Saver &lt;&amp;&gt; Club")
	assert.Contains(t, string(svg), "APR 5%")
	assert.Contains(t, string(svg), "Tenor 30d")
}

func TestCollection(t *testing.T) {
	g := metadata.NewGenerator(protocol.Default(), metadata.Options{ExternalURL: "https://example.org"}, logging.Discard())
	c := g.Collection()
	assert.Equal(t, "Savings Deposit Certificate", c.Name)
	assert.Equal(t, "https://example.org", c.ExternalLink)
	assert.Equal(t, "ipfs://REPLACE_WITH_IMAGES_CID/1.svg", c.Image)
}

func TestGenerateIsDeterministic(t *testing.T) {
	g := metadata.NewGenerator(protocol.Default(), metadata.Options{}, logging.Discard())
	a, b := t.TempDir(), t.TempDir()
	_, err := g.Generate(a)
	require.NoError(t, err)
	_, err = g.Generate(b)
	require.NoError(t, err)

	for _, name := range []string{"3.json", "3.svg", "collection.json"} {
		x, err := os.ReadFile(filepath.Join(a, name))
		require.NoError(t, err)
		y, err := os.ReadFile(filepath.Join(b, name))
		require.NoError(t, err)
		assert.Equal(t, x, y, name)
	}
}

func TestGenerateFailsOnUnwritableDir(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	g := metadata.NewGenerator(protocol.Default(), metadata.Options{}, logging.Discard())
	_, err := g.Generate(filepath.Join(blocker, "out"))
	assert.Error(t, err)
}
