package common

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestContentHash(t *testing.T) {
	// sha256("abc")
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := ContentHash([]byte("abc")); got != want {
		t.Errorf("ContentHash() = %s, want %s", got, want)
	}
}

func TestMarshal(t *testing.T) {
	v := struct {
		Name string `json:"name" yaml:"name"`
	}{Name: "chat"}

	tests := []struct {
		name    string
		format  string
		want    string
		wantErr bool
	}{
		{name: "default json", format: "", want: "{\n  \"name\": \"chat\"\n}"},
		{name: "json", format: "JSON", want: "{\n  \"name\": \"chat\"\n}"},
		{name: "yaml", format: "yaml", want: "name: chat\n"},
		{name: "unknown", format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Marshal(v, tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Marshal() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && string(got) != tt.want {
				t.Errorf("Marshal() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := WriteOutput(path, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("WriteOutput() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), `"a":1`) {
		t.Errorf("WriteOutput() wrote %q", data)
	}
}
