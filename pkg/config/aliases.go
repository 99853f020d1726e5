package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/odvcencio/revplan/pkg/revset"
)

const aliasTable = "revset-aliases"

// readDocument decodes the whole file at path so keys revplan doesn't know
// about survive a rewrite. A missing file yields an empty document.
func readDocument(path string) (map[string]any, error) {
	doc := make(map[string]any)
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return doc, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return doc, nil
}

// writeDocument atomically replaces path with doc.
func writeDocument(path string, doc map[string]any) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return fmt.Errorf("write config: encode: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("write config: mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".config-tmp-*")
	if err != nil {
		return fmt.Errorf("write config: tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write config: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: close: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: rename: %w", err)
	}
	return nil
}

func aliasesOf(doc map[string]any) (map[string]any, error) {
	raw, ok := doc[aliasTable]
	if !ok {
		return make(map[string]any), nil
	}
	table, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s is not a table", aliasTable)
	}
	return table, nil
}

// SetAlias defines decl as body in the config file at path, creating the
// file if needed.
func SetAlias(path, decl, body string) error {
	if err := revset.NewAliasMap().Insert(decl, body); err != nil {
		return fmt.Errorf("set alias: %w", err)
	}
	if _, err := revset.ParseSyntax(body); err != nil {
		return fmt.Errorf("set alias %s: %w", decl, err)
	}

	doc, err := readDocument(path)
	if err != nil {
		return fmt.Errorf("set alias: %w", err)
	}
	aliases, err := aliasesOf(doc)
	if err != nil {
		return fmt.Errorf("set alias: %w", err)
	}
	aliases[decl] = body
	doc[aliasTable] = aliases
	return writeDocument(path, doc)
}

// UnsetAlias removes decl from the config file at path, reporting whether it
// was defined there.
func UnsetAlias(path, decl string) (bool, error) {
	doc, err := readDocument(path)
	if err != nil {
		return false, fmt.Errorf("unset alias: %w", err)
	}
	aliases, err := aliasesOf(doc)
	if err != nil {
		return false, fmt.Errorf("unset alias: %w", err)
	}
	if _, ok := aliases[decl]; !ok {
		return false, nil
	}
	delete(aliases, decl)
	doc[aliasTable] = aliases
	return true, writeDocument(path, doc)
}

// Alias is one revset alias together with the layer that defined it last.
type Alias struct {
	Decl   string
	Body   string
	Source string
}

// ListAliases returns the merged aliases of the same layers Load reads,
// sorted by declaration.
func ListAliases(opts Options) ([]Alias, error) {
	cfg, err := Load(opts)
	if err != nil {
		return nil, err
	}
	origin := map[string]string{}
	var builtin layer
	if _, err := toml.Decode(defaultConfig, &builtin); err != nil {
		return nil, fmt.Errorf("list aliases: builtin: %w", err)
	}
	for decl := range builtin.RevsetAliases {
		origin[decl] = "<builtin>"
	}
	for _, path := range cfg.Sources[1:] {
		l, _, err := readLayer(path)
		if err != nil {
			return nil, fmt.Errorf("list aliases: %w", err)
		}
		for decl := range l.RevsetAliases {
			origin[decl] = path
		}
	}

	out := make([]Alias, 0, len(cfg.Aliases))
	for decl, body := range cfg.Aliases {
		out = append(out, Alias{Decl: decl, Body: body, Source: origin[decl]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Decl < out[j].Decl })
	return out, nil
}
