package config

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is the immutable set of clusters and projects the portal serves.
// Build one with LoadCatalog or ParseCatalog.
type Catalog struct {
	clusters []string
	byName   map[string]clusterEntry
	projects map[string]projectEntry // keyed by canonical name
	aliases  map[string]string       // alias or name -> canonical name
	folded   map[string]string       // lower-cased alias -> canonical name
}

type clusterEntry struct {
	strict   bool
	projects map[string]struct{}
}

type projectEntry struct {
	name   string
	folder string
}

type catalogFile struct {
	Clusters []struct {
		Name     string   `yaml:"name"`
		Strict   bool     `yaml:"strict"`
		Projects []string `yaml:"projects"`
	} `yaml:"clusters"`
	Projects []struct {
		Name    string   `yaml:"name"`
		Folder  string   `yaml:"folder"`
		Aliases []string `yaml:"aliases"`
	} `yaml:"projects"`
}

// LoadCatalog reads a YAML catalog from path, or the built-in catalog when
// path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return ParseCatalog(defaultCatalog)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	cat, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return cat, nil
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	cat, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("built-in catalog is invalid: %v", err))
	}
	return cat
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	cat := &Catalog{
		byName:   make(map[string]clusterEntry, len(f.Clusters)),
		projects: make(map[string]projectEntry, len(f.Projects)),
		aliases:  make(map[string]string),
		folded:   make(map[string]string),
	}
	var errs []string

	for _, p := range f.Projects {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			errs = append(errs, "project with empty name")
			continue
		}
		if _, dup := cat.projects[name]; dup {
			errs = append(errs, fmt.Sprintf("duplicate project %q", name))
			continue
		}
		folder := strings.TrimSpace(p.Folder)
		if folder == "" {
			folder = folderFor(name)
		}
		if !safeSegment(folder) {
			errs = append(errs, fmt.Sprintf("project %q: folder %q must be a single path segment", name, folder))
			continue
		}
		cat.projects[name] = projectEntry{name: name, folder: folder}

		for _, a := range append([]string{name}, p.Aliases...) {
			a = strings.TrimSpace(a)
			if a == "" {
				continue
			}
			if prev, ok := cat.aliases[a]; ok && prev != name {
				errs = append(errs, fmt.Sprintf("alias %q maps to both %q and %q", a, prev, name))
				continue
			}
			cat.aliases[a] = name
			if prev, ok := cat.folded[strings.ToLower(a)]; ok && prev != name {
				errs = append(errs, fmt.Sprintf("alias %q is ambiguous ignoring case", a))
				continue
			}
			cat.folded[strings.ToLower(a)] = name
		}
	}

	for _, c := range f.Clusters {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			errs = append(errs, "cluster with empty name")
			continue
		}
		if _, dup := cat.byName[name]; dup {
			errs = append(errs, fmt.Sprintf("duplicate cluster %q", name))
			continue
		}
		entry := clusterEntry{strict: c.Strict, projects: make(map[string]struct{}, len(c.Projects))}
		for _, p := range c.Projects {
			canonical, ok := cat.aliases[strings.TrimSpace(p)]
			if !ok {
				errs = append(errs, fmt.Sprintf("cluster %q lists unknown project %q", name, p))
				continue
			}
			entry.projects[canonical] = struct{}{}
		}
		if c.Strict && len(entry.projects) == 0 {
			errs = append(errs, fmt.Sprintf("strict cluster %q lists no projects", name))
		}
		cat.byName[name] = entry
		cat.clusters = append(cat.clusters, name)
	}

	if len(cat.clusters) == 0 {
		errs = append(errs, "at least one cluster is required")
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid catalog:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return cat, nil
}

// Clusters returns the cluster names in catalog order.
func (c *Catalog) Clusters() []string {
	return append([]string(nil), c.clusters...)
}

// HasCluster reports whether name is a known cluster. Matching is exact.
func (c *Catalog) HasCluster(name string) bool {
	_, ok := c.byName[name]
	return ok
}

// ResolveProject maps a URL path segment to the stored project name. The
// segment is URL-decoded and matched against names and aliases, exactly first
// and then ignoring case. Unknown projects pass through unchanged unless the
// cluster is strict, in which case ok is false.
func (c *Catalog) ResolveProject(cluster, segment string) (project string, ok bool) {
	decoded, err := url.PathUnescape(segment)
	if err != nil {
		decoded = segment
	}
	decoded = strings.TrimSpace(decoded)

	project, known := c.aliases[decoded]
	if !known {
		project, known = c.folded[strings.ToLower(decoded)]
	}
	if !known {
		project = decoded
	}

	entry, exists := c.byName[cluster]
	if !exists {
		return project, false
	}
	if entry.strict {
		if _, listed := entry.projects[project]; !listed {
			return project, false
		}
	}
	return project, project != ""
}

// Folder returns the asset/link folder name of a stored project name.
// Projects outside the catalog are lower-cased with spaces and slashes
// replaced by dashes.
func (c *Catalog) Folder(project string) string {
	if p, ok := c.projects[project]; ok {
		return p.folder
	}
	return folderFor(project)
}

var folderReplacer = strings.NewReplacer(" ", "-", "/", "-", `\`, "-")

func folderFor(name string) string {
	f := folderReplacer.Replace(strings.ToLower(strings.TrimSpace(name)))
	if !safeSegment(f) {
		return "_"
	}
	return f
}

func safeSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}
