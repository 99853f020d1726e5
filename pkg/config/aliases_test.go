package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetAndUnsetAlias(t *testing.T) {
	path := filepath.Join(t.TempDir(), "revplan", "config.toml")
	writeFile(t, path, "[user]\nemail = \"me@example.com\"\n")

	if err := SetAlias(path, "trunk()", "main"); err != nil {
		t.Fatalf("SetAlias: %v", err)
	}
	if err := SetAlias(path, "wip", `description(glob:"wip*")`); err != nil {
		t.Fatalf("SetAlias: %v", err)
	}

	l, ok, err := readLayer(path)
	if err != nil || !ok {
		t.Fatalf("readLayer = %v, %v", ok, err)
	}
	if got := l.RevsetAliases["trunk()"]; got != "main" {
		t.Fatalf("trunk() = %q, want main", got)
	}
	if got := l.RevsetAliases["wip"]; got != `description(glob:"wip*")` {
		t.Fatalf("wip = %q", got)
	}
	if l.User.Email != "me@example.com" {
		t.Fatalf("user.email = %q, rewrite dropped it", l.User.Email)
	}

	removed, err := UnsetAlias(path, "trunk()")
	if err != nil || !removed {
		t.Fatalf("UnsetAlias = %v, %v; want true, nil", removed, err)
	}
	removed, err = UnsetAlias(path, "trunk()")
	if err != nil || removed {
		t.Fatalf("second UnsetAlias = %v, %v; want false, nil", removed, err)
	}

	l, _, err = readLayer(path)
	if err != nil {
		t.Fatalf("readLayer: %v", err)
	}
	if _, ok := l.RevsetAliases["trunk()"]; ok {
		t.Fatal("trunk() still defined after UnsetAlias")
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".config-tmp-") {
			t.Fatalf("temporary file %s left behind", e.Name())
		}
	}
}

func TestSetAliasCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := SetAlias(path, "f(x)", "x | main"); err != nil {
		t.Fatalf("SetAlias: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not created: %v", err)
	}
}

func TestSetAliasRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := SetAlias(path, "f(x, x)", "x"); err == nil {
		t.Fatal("expected invalid declaration to be rejected")
	}
	if err := SetAlias(path, "f", "a |"); err == nil {
		t.Fatal("expected invalid body to be rejected")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("config written despite errors: %v", err)
	}
}

func TestUnsetAliasMissingFile(t *testing.T) {
	removed, err := UnsetAlias(filepath.Join(t.TempDir(), "config.toml"), "trunk()")
	if err != nil || removed {
		t.Fatalf("UnsetAlias = %v, %v; want false, nil", removed, err)
	}
}

func TestListAliases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	t.Setenv("REVPLAN_CONFIG", path)
	if err := SetAlias(path, "trunk()", "main"); err != nil {
		t.Fatalf("SetAlias: %v", err)
	}

	aliases, err := ListAliases(Options{})
	if err != nil {
		t.Fatalf("ListAliases: %v", err)
	}
	sources := map[string]Alias{}
	for i, a := range aliases {
		if i > 0 && aliases[i-1].Decl >= a.Decl {
			t.Fatalf("aliases not sorted: %q before %q", aliases[i-1].Decl, a.Decl)
		}
		sources[a.Decl] = a
	}
	if got := sources["trunk()"]; got.Body != "main" || got.Source != path {
		t.Fatalf("trunk() = %+v, want user override", got)
	}
	if got := sources["mutable()"]; got.Source != "<builtin>" {
		t.Fatalf("mutable() source = %q, want <builtin>", got.Source)
	}
}
