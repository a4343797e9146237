package source

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/tidwall/gjson"
)

const (
	manifestFile = "package.xml"
	projectFile  = "sfdx-project.json"
	metaSuffix   = "-meta.xml"
)

var skipDirs = map[string]bool{
	".git":         true,
	".sf":          true,
	".sfdx":        true,
	"node_modules": true,
}

// Dir reads a package folder in either the metadata API layout
// (package.xml next to classes/, objects/, ...) or the source layout
// (sfdx-project.json with package directories).
type Dir struct {
	root     string
	fsys     fs.FS
	files    []string
	manifest string

	// PackageDirs are the package directories declared in sfdx-project.json.
	PackageDirs []string
	// SourceAPIVersion is sfdx-project.json's sourceApiVersion, if any.
	SourceAPIVersion string

	parents map[string]Detail
}

// Open indexes the files under root.
func Open(root string) (*Dir, error) {
	st, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	d := &Dir{root: root, fsys: os.DirFS(root), parents: make(map[string]Detail)}

	var all []string
	err = fs.WalkDir(d.fsys, ".", func(p string, e fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if e.IsDir() {
			if p != "." && skipDirs[e.Name()] {
				return fs.SkipDir
			}
			return nil
		}
		all = append(all, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", root, err)
	}
	sort.Strings(all)

	if b, err := fs.ReadFile(d.fsys, projectFile); err == nil {
		for _, p := range gjson.GetBytes(b, "packageDirectories.#.path").Array() {
			if dir := strings.Trim(path.Clean(p.String()), "/"); dir != "" && dir != "." {
				d.PackageDirs = append(d.PackageDirs, dir)
			}
		}
		d.SourceAPIVersion = gjson.GetBytes(b, "sourceApiVersion").String()
	}

	for _, p := range all {
		if path.Base(p) == manifestFile && (d.manifest == "" || p == manifestFile) {
			d.manifest = p
		}
		if d.inPackageDirs(p) {
			d.files = append(d.files, p)
		}
	}
	return d, nil
}

func (d *Dir) inPackageDirs(p string) bool {
	if len(d.PackageDirs) == 0 {
		return true
	}
	for _, dir := range d.PackageDirs {
		if strings.HasPrefix(p, dir+"/") {
			return true
		}
	}
	return false
}

// Root returns the folder the Dir was opened on.
func (d *Dir) Root() string {
	return d.root
}

// HasManifest reports whether a package.xml was found.
func (d *Dir) HasManifest() bool {
	return d.manifest != ""
}

// Manifest returns the declared members, with wildcard member lists expanded
// from disk. Without a package.xml every known type is enumerated.
func (d *Dir) Manifest() (Manifest, error) {
	if d.manifest == "" {
		man := NewManifest()
		for _, ti := range KnownTypes() {
			if members := d.Enumerate(ti.Name); len(members) > 0 {
				man.Add(ti.Name, members...)
			}
		}
		return man, nil
	}

	b, err := fs.ReadFile(d.fsys, d.manifest)
	if err != nil {
		return Manifest{}, err
	}
	declared, err := ParsePackageXML(b)
	if err != nil {
		return Manifest{}, err
	}

	man := NewManifest()
	man.Version = declared.Version
	for _, t := range declared.Order {
		members := declared.Types[t]
		if !declared.HasWildcard(t) {
			man.Add(t, members...)
			continue
		}
		seen := make(map[string]bool)
		var expanded []string
		for _, m := range members {
			if m != WildcardMember {
				if !seen[m] {
					seen[m] = true
					expanded = append(expanded, m)
				}
				continue
			}
			for _, e := range d.Enumerate(t) {
				if !seen[e] {
					seen[e] = true
					expanded = append(expanded, e)
				}
			}
		}
		man.Add(t, expanded...)
	}
	return man, nil
}

// Enumerate lists the members of a type found on disk, sorted.
func (d *Dir) Enumerate(metadataType string) []string {
	ti, ok := LookupType(metadataType)
	if !ok {
		return nil
	}

	seen := make(map[string]bool)
	add := func(m string) {
		if m != "" {
			seen[m] = true
		}
	}

	switch {
	case ti.Child():
		parent, _ := LookupType(ti.Parent)
		for _, p := range d.glob(fmt.Sprintf("**/%s/*/%s/*.%s%s", parent.Folder, ti.Folder, ti.Suffix, metaSuffix)) {
			obj := path.Base(path.Dir(path.Dir(p)))
			add(obj + "." + trimSuffix(path.Base(p), ti.Suffix))
		}
		for _, p := range d.glob(fmt.Sprintf("**/%s/*.%s", parent.Folder, parent.Suffix)) {
			obj := trimSuffix(path.Base(p), parent.Suffix)
			for _, c := range d.parentDetail(p).Children(ti.ParentTag) {
				add(obj + "." + c.String("fullName"))
			}
		}
	case ti.Bundle:
		for _, p := range d.glob(fmt.Sprintf("**/%s/*/*%s", ti.Folder, metaSuffix)) {
			add(path.Base(path.Dir(p)))
		}
	default:
		patterns := []string{
			fmt.Sprintf("**/%s/*.%s%s", ti.Folder, ti.Suffix, metaSuffix),
			fmt.Sprintf("**/%s/*/*.%s%s", ti.Folder, ti.Suffix, metaSuffix),
		}
		if !ti.Content {
			patterns = append(patterns, fmt.Sprintf("**/%s/*.%s", ti.Folder, ti.Suffix))
		}
		for _, pattern := range patterns {
			for _, p := range d.glob(pattern) {
				add(trimSuffix(path.Base(p), ti.Suffix))
			}
		}
	}

	members := make([]string, 0, len(seen))
	for m := range seen {
		members = append(members, m)
	}
	sort.Strings(members)
	return members
}

// Detail loads the XML detail of a member. It returns an error wrapping
// ErrDetailNotFound when no companion file exists.
func (d *Dir) Detail(metadataType, member string) (Detail, error) {
	ti, ok := LookupType(metadataType)
	if !ok {
		return Detail{}, notFound(metadataType, member)
	}

	if ti.Child() {
		return d.childDetail(ti, member)
	}

	p := d.first(d.detailPatterns(ti, member)...)
	if p == "" {
		return Detail{}, notFound(metadataType, member)
	}
	return d.readDetail(p)
}

// Content returns the raw files of a member: the body of code types, every
// file but the descriptor for bundles, and the XML file itself otherwise.
func (d *Dir) Content(metadataType, member string) ([]File, error) {
	ti, ok := LookupType(metadataType)
	if !ok {
		return nil, notFound(metadataType, member)
	}

	var paths []string
	switch {
	case ti.Content:
		paths = d.glob(fmt.Sprintf("**/%s/%s.%s", ti.Folder, globEscape(member), ti.Suffix))
	case ti.Bundle:
		for _, p := range d.glob(fmt.Sprintf("**/%s/%s/**", ti.Folder, globEscape(member))) {
			if !strings.HasSuffix(p, metaSuffix) {
				paths = append(paths, p)
			}
		}
	case ti.Child():
		obj, name, _ := strings.Cut(member, ".")
		parent, _ := LookupType(ti.Parent)
		paths = d.glob(fmt.Sprintf("**/%s/%s/%s/%s.%s%s", parent.Folder, globEscape(obj), ti.Folder, globEscape(name), ti.Suffix, metaSuffix))
	default:
		if p := d.first(d.detailPatterns(ti, member)...); p != "" {
			paths = []string{p}
		}
	}
	if len(paths) == 0 {
		return nil, notFound(metadataType, member)
	}

	files := make([]File, 0, len(paths))
	for _, p := range paths {
		b, err := fs.ReadFile(d.fsys, p)
		if err != nil {
			return nil, err
		}
		files = append(files, File{Name: p, Data: b})
	}
	return files, nil
}

func (d *Dir) detailPatterns(ti TypeInfo, member string) []string {
	m := globEscape(member)
	if ti.Bundle {
		return []string{fmt.Sprintf("**/%s/%s/*%s", ti.Folder, m, metaSuffix)}
	}
	patterns := []string{
		fmt.Sprintf("**/%s/%s.%s%s", ti.Folder, m, ti.Suffix, metaSuffix),
		fmt.Sprintf("**/%s/%s/%s.%s%s", ti.Folder, m, m, ti.Suffix, metaSuffix),
	}
	if !ti.Content {
		patterns = append(patterns, fmt.Sprintf("**/%s/%s.%s", ti.Folder, m, ti.Suffix))
	}
	return patterns
}

func (d *Dir) childDetail(ti TypeInfo, member string) (Detail, error) {
	obj, name, ok := strings.Cut(member, ".")
	if !ok {
		return Detail{}, notFound(ti.Name, member)
	}
	parent, _ := LookupType(ti.Parent)

	if p := d.first(fmt.Sprintf("**/%s/%s/%s/%s.%s%s", parent.Folder, globEscape(obj), ti.Folder, globEscape(name), ti.Suffix, metaSuffix)); p != "" {
		return d.readDetail(p)
	}

	p := d.first(fmt.Sprintf("**/%s/%s.%s", parent.Folder, globEscape(obj), parent.Suffix))
	if p == "" {
		return Detail{}, notFound(ti.Name, member)
	}
	for _, c := range d.parentDetail(p).Children(ti.ParentTag) {
		if c.String("fullName") == name {
			c.root = ti.Name
			return c, nil
		}
	}
	return Detail{}, notFound(ti.Name, member)
}

// parentDetail parses a metadata API parent file once per Dir. A file that
// fails to parse yields the zero Detail.
func (d *Dir) parentDetail(p string) Detail {
	if det, ok := d.parents[p]; ok {
		return det
	}
	det, _ := d.readDetail(p)
	d.parents[p] = det
	return det
}

func (d *Dir) readDetail(p string) (Detail, error) {
	b, err := fs.ReadFile(d.fsys, p)
	if err != nil {
		return Detail{}, err
	}
	det, err := ParseDetail(b)
	if err != nil {
		return Detail{}, fmt.Errorf("parse %s: %w", p, err)
	}
	return det, nil
}

func (d *Dir) glob(pattern string) []string {
	var out []string
	for _, p := range d.files {
		if ok, err := doublestar.Match(pattern, p); err == nil && ok {
			out = append(out, p)
		}
	}
	return out
}

func (d *Dir) first(patterns ...string) string {
	for _, pattern := range patterns {
		if hits := d.glob(pattern); len(hits) > 0 {
			return hits[0]
		}
	}
	return ""
}

func trimSuffix(base, suffix string) string {
	base = strings.TrimSuffix(base, metaSuffix)
	return strings.TrimSuffix(base, "."+suffix)
}

func globEscape(s string) string {
	if !strings.ContainsAny(s, `*?[]{}\`) {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`*?[]{}\`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
