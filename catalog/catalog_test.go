package catalog

import "testing"

func TestRegisterAndLookup(t *testing.T) {
	Register(LanguageInfo{ID: "testlang", Extensions: []string{".tl", "TL", " .tl "}})

	info, ok := Lookup("TestLang")
	if !ok {
		t.Fatal("registered language not found")
	}
	if len(info.Extensions) != 1 || info.Extensions[0] != ".tl" {
		t.Errorf("extensions not normalized: %v", info.Extensions)
	}

	if _, ok := LookupByExtension("tl"); !ok {
		t.Error("extension lookup without dot failed")
	}
	if _, ok := LookupByExtension(".tl"); !ok {
		t.Error("extension lookup with dot failed")
	}
	if _, ok := LookupByExtension(".zz"); ok {
		t.Error("unknown extension resolved")
	}
}

func TestRegisterIgnoresEmptyID(t *testing.T) {
	before := len(Languages())
	Register(LanguageInfo{Extensions: []string{".ghost"}})
	if len(Languages()) != before {
		t.Error("empty language ID registered")
	}
}

func TestLanguagesSorted(t *testing.T) {
	Register(LanguageInfo{ID: "zeta"})
	Register(LanguageInfo{ID: "alpha"})
	langs := Languages()
	for i := 1; i < len(langs); i++ {
		if langs[i-1].ID > langs[i].ID {
			t.Fatalf("languages not sorted: %v", langs)
		}
	}
}
