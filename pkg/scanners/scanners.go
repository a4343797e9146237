// Package scanners holds the per-type scan strategies. Each file registers
// the strategies for one family of metadata types; Registry binds them all.
package scanners

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/mdscan/mdscan/pkg/inventory"
	"github.com/mdscan/mdscan/pkg/pathstore"
	"github.com/mdscan/mdscan/pkg/source"
)

// StructuralParseError is recorded when a member lacks a structure its
// scanner requires, such as a trigger header. The member is skipped.
type StructuralParseError struct {
	Type   string
	Member string
	Reason string
}

func (e *StructuralParseError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Type, e.Member, e.Reason)
}

var strategies = make(map[string]inventory.ScannerFunc)

func register(metadataType string, f inventory.ScannerFunc) {
	strategies[metadataType] = f
}

// Registry returns a registry holding every built-in scanner.
func Registry() *inventory.Registry {
	reg := inventory.NewRegistry()
	for t, f := range strategies {
		reg.Register(t, f)
	}
	return reg
}

// objectRefPattern finds custom object and field identifiers embedded in
// source text: an optional namespace, a base name and a known suffix.
var objectRefPattern = regexp.MustCompile(`\b(?:([A-Za-z][A-Za-z0-9]*(?:_[A-Za-z0-9]+)*)__)?([A-Za-z][A-Za-z0-9]*(?:_[A-Za-z0-9]+)*)__(c|e|x|b|mdt|kav|ka|r|s)\b`)

// objectRefs returns the distinct identifiers in text, in order of first
// appearance.
func objectRefs(text []byte) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range objectRefPattern.FindAll(text, -1) {
		id := string(m)
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func inc(inv *inventory.Inventory, keys ...string) error {
	_, err := inv.Types.Increment(pathstore.Join(keys...))
	return err
}

func setProperty(inv *inventory.Inventory, v any, keys ...string) error {
	return inv.Properties.Set(pathstore.Join(keys...), v)
}

// tallyRefs counts every embedded identifier once per member under
// <key>.<id> and records it as a dependency.
func tallyRefs(inv *inventory.Inventory, metadataType, key string, text []byte) error {
	for _, id := range objectRefs(text) {
		if err := inc(inv, metadataType, key, id, "count"); err != nil {
			return err
		}
		inv.Dependencies.AddComponent(id)
	}
	return nil
}

// tallyURLs counts every hard-coded platform URL under hardcodedURLs.<host>.
func tallyURLs(inv *inventory.Inventory, metadataType string, text []byte) error {
	for _, host := range platformHosts(text) {
		if err := inc(inv, metadataType, "hardcodedURLs", host); err != nil {
			return err
		}
	}
	return nil
}

func addChars(inv *inventory.Inventory, metadataType string, text []byte) error {
	_, err := inv.Types.Accumulate(pathstore.Join(metadataType, "CharacterCount"), int64(utf8.RuneCount(text)))
	return err
}

func joinFiles(files []source.File) []byte {
	if len(files) == 1 {
		return files[0].Data
	}
	var out []byte
	for _, f := range files {
		out = append(out, f.Data...)
		out = append(out, '\n')
	}
	return out
}
