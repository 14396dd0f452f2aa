package export

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const adsExport = `@ARTICLE{2020ApJ...900....1A,
       author = {{Author}, A.},
        title = "{A paper}",
      journal = {\apj},
}

@ARTICLE{2021ApJ...901....2B,
       author = {{Other}, B.},
}
`

func TestMerge(t *testing.T) {
	tests := []struct {
		name         string
		remote, supp string
		want         string
	}{
		{"both", "@a{X,\n}\n", "@b{Y,\n}\n", "@a{X,\n}\n@b{Y,\n}\n"},
		{"remote without newline", "@a{X,\n}", "@b{Y,\n}\n", "@a{X,\n}\n@b{Y,\n}\n"},
		{"no supplement", "@a{X,\n}", "", "@a{X,\n}"},
		{"no remote", "", "@b{Y,\n}\n", "@b{Y,\n}\n"},
		{"neither", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Merge(tt.remote, tt.supp); got != tt.want {
				t.Errorf("Merge() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "references.bib")

	if err := WriteFileAtomic(path, "first"); err != nil {
		t.Fatalf("WriteFileAtomic() error = %v", err)
	}
	if err := WriteFileAtomic(path, "second"); err != nil {
		t.Fatalf("WriteFileAtomic() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "second" {
		t.Errorf("content = %q, want second", data)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want only the output file", len(entries))
	}
}

func TestWriteFileAtomic_MissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "references.bib")
	if err := WriteFileAtomic(path, "x"); err == nil {
		t.Error("WriteFileAtomic() expected error for missing directory")
	}
}

func TestEntryKeys(t *testing.T) {
	want := []string{"2020ApJ...900....1A", "2021ApJ...901....2B"}
	if got := EntryKeys(adsExport); !reflect.DeepEqual(got, want) {
		t.Errorf("EntryKeys() = %v, want %v", got, want)
	}
	if got := EntryKeys(""); got != nil {
		t.Errorf("EntryKeys(\"\") = %v, want nil", got)
	}
}

func TestMissingKeys(t *testing.T) {
	bibcodes := []string{"2020ApJ...900....1A", "2022Bad.....000....0X", "2021ApJ...901....2B"}
	want := []string{"2022Bad.....000....0X"}
	if got := MissingKeys(bibcodes, adsExport); !reflect.DeepEqual(got, want) {
		t.Errorf("MissingKeys() = %v, want %v", got, want)
	}
	if got := MissingKeys(bibcodes[:1], adsExport); got != nil {
		t.Errorf("MissingKeys() = %v, want nil", got)
	}
}
