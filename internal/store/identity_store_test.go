package store

import (
	"errors"
	"testing"

	"palaver/internal/crypto"
)

func TestSaveLoadIdentityRoundTrip(t *testing.T) {
	dir := t.TempDir()
	st := NewIdentityFileStore(dir)

	id, err := crypto.GenerateIdentity()
	if err != nil {
		t.Fatalf("generate identity: %v", err)
	}
	if err := st.SaveIdentity("correct horse battery staple", id); err != nil {
		t.Fatalf("save identity: %v", err)
	}

	got, err := st.LoadIdentity("correct horse battery staple")
	if err != nil {
		t.Fatalf("load identity: %v", err)
	}
	if got != id {
		t.Fatalf("loaded identity differs from saved identity")
	}
}

func TestLoadIdentityWrongPassphrase(t *testing.T) {
	dir := t.TempDir()
	st := NewIdentityFileStore(dir)

	id, err := crypto.GenerateIdentity()
	if err != nil {
		t.Fatalf("generate identity: %v", err)
	}
	if err := st.SaveIdentity("correct horse battery staple", id); err != nil {
		t.Fatalf("save identity: %v", err)
	}

	if _, err := st.LoadIdentity("incorrect horse"); !errors.Is(err, ErrWrongPassphrase) {
		t.Fatalf("want ErrWrongPassphrase, got %v", err)
	}
}

func TestLoadIdentityMissingFile(t *testing.T) {
	st := NewIdentityFileStore(t.TempDir())
	if _, err := st.LoadIdentity("whatever"); err == nil {
		t.Fatalf("want error for missing identity file")
	}
}

func TestSaveIdentityOverwrites(t *testing.T) {
	dir := t.TempDir()
	st := NewIdentityFileStore(dir)

	first, err := crypto.GenerateIdentity()
	if err != nil {
		t.Fatalf("generate identity: %v", err)
	}
	second, err := crypto.GenerateIdentity()
	if err != nil {
		t.Fatalf("generate identity: %v", err)
	}
	if err := st.SaveIdentity("pass one", first); err != nil {
		t.Fatalf("save identity: %v", err)
	}
	if err := st.SaveIdentity("pass two", second); err != nil {
		t.Fatalf("save identity: %v", err)
	}

	got, err := st.LoadIdentity("pass two")
	if err != nil {
		t.Fatalf("load identity: %v", err)
	}
	if got != second {
		t.Fatalf("overwrite did not take effect")
	}
}
