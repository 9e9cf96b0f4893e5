package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	cat := DefaultCatalog()

	assert.Equal(t, []string{"Trinity", "trk"}, cat.Clusters())
	assert.True(t, cat.HasCluster("Trinity"))
	assert.True(t, cat.HasCluster("trk"))
	assert.False(t, cat.HasCluster("trinity"), "cluster matching is exact")
	assert.False(t, cat.HasCluster("Unknown"))
}

func TestResolveProject(t *testing.T) {
	cat := DefaultCatalog()

	tests := []struct {
		segment string
		want    string
	}{
		{"sabinas", "Sabinas Project"},
		{"Sabinas", "Sabinas Project"},
		{"SABINAS", "Sabinas Project"},
		{"Sabinas Project", "Sabinas Project"},
		{"Sabinas%20Project", "Sabinas Project"},
		{"trinity%2Fsabinas", "Sabinas Project"},
		{"sabinas/trinity", "Sabinas Project"},
		{"trinity", "Trinity"},
		{"Trinity", "Trinity"},
		{"Monclova", "Monclova Project"},
		{"Nueva Rosita", "Nueva Rosita"},
	}

	for _, tt := range tests {
		t.Run(tt.segment, func(t *testing.T) {
			got, ok := cat.ResolveProject("Trinity", tt.segment)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := cat.ResolveProject("Nowhere", "sabinas")
	assert.False(t, ok, "unknown cluster")
	_, ok = cat.ResolveProject("Trinity", "")
	assert.False(t, ok, "empty project")
}

func TestFolder(t *testing.T) {
	cat := DefaultCatalog()

	assert.Equal(t, "sabinas", cat.Folder("Sabinas Project"))
	assert.Equal(t, "trinity", cat.Folder("Trinity"))
	assert.Equal(t, "monclova", cat.Folder("Monclova Project"))
	assert.Equal(t, "nueva-rosita", cat.Folder("Nueva Rosita"))
	assert.Equal(t, "a-b", cat.Folder("a/b"))
	assert.Equal(t, "_", cat.Folder(".."))
}

func TestParseCatalog_Strict(t *testing.T) {
	cat, err := ParseCatalog([]byte(`
clusters:
  - name: North
    strict: true
    projects: [alpha]
projects:
  - name: Alpha Site
    aliases: [alpha]
`))
	require.NoError(t, err)

	got, ok := cat.ResolveProject("North", "ALPHA")
	assert.True(t, ok)
	assert.Equal(t, "Alpha Site", got)
	assert.Equal(t, "alpha-site", cat.Folder("Alpha Site"))

	_, ok = cat.ResolveProject("North", "beta")
	assert.False(t, ok, "strict cluster rejects unlisted projects")
}

func TestParseCatalog_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no clusters", "projects: []"},
		{"duplicate cluster", "clusters: [{name: a}, {name: a}]"},
		{"conflicting alias", `
clusters: [{name: a}]
projects:
  - {name: One, aliases: [x]}
  - {name: Two, aliases: [x]}`},
		{"case conflict", `
clusters: [{name: a}]
projects:
  - {name: One, aliases: [x]}
  - {name: Two, aliases: [X]}`},
		{"unsafe folder", `
clusters: [{name: a}]
projects: [{name: One, folder: "../etc"}]`},
		{"strict without projects", "clusters: [{name: a, strict: true}]"},
		{"unknown listed project", "clusters: [{name: a, projects: [ghost]}]"},
		{"malformed yaml", "clusters: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadCatalog_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("clusters: [{name: Lab}]\n"), 0o600))

	cat, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Lab"}, cat.Clusters())

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	cat, err = LoadCatalog("")
	require.NoError(t, err)
	assert.True(t, cat.HasCluster("Trinity"))
}
