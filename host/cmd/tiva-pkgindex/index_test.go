package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var testOptions = Options{
	Arch:            "tivac",
	Version:         "1.0.4",
	CompilerName:    "gcc-arm-none-eabi",
	CompilerVersion: "8.3.1-20190703",
	URL:             "https://example.org/dl",
}

func TestBuildIndex(t *testing.T) {
	idx, err := BuildIndex(testOptions)
	if err != nil {
		t.Fatalf("BuildIndex failed: %v", err)
	}
	if len(idx.Packages) != 1 {
		t.Fatalf("Expected 1 package, got %d", len(idx.Packages))
	}
	pkg := idx.Packages[0]
	if pkg.Name != "energia" {
		t.Errorf("Expected default package name energia, got %s", pkg.Name)
	}

	p := pkg.Platforms[0]
	if p.URL != "https://example.org/dl/tivac-1.0.4.tar.bz2" || p.ArchiveFileName != "tivac-1.0.4.tar.bz2" {
		t.Errorf("Unexpected platform archive %s %s", p.URL, p.ArchiveFileName)
	}
	if diff := cmp.Diff(supportedBoards, p.Boards); diff != "" {
		t.Errorf("Boards mismatch (-want +got):\n%s", diff)
	}

	want := []System{
		{
			Host:            "i686-mingw32",
			URL:             "https://example.org/dl/windows/gcc-arm-none-eabi-8.3.1-20190703-windows.tar.bz2",
			ArchiveFileName: "gcc-arm-none-eabi-8.3.1-20190703-windows.tar.bz2",
		},
		{
			Host:            "x86_64-apple-darwin",
			URL:             "https://example.org/dl/macosx/gcc-arm-none-eabi-8.3.1-20190703-mac.tar.bz2",
			ArchiveFileName: "gcc-arm-none-eabi-8.3.1-20190703-mac.tar.bz2",
		},
		{
			Host:            "x86_64-pc-linux-gnu",
			URL:             "https://example.org/dl/linux64/gcc-arm-none-eabi-8.3.1-20190703-x86_64-pc-linux-gnu.tar.bz2",
			ArchiveFileName: "gcc-arm-none-eabi-8.3.1-20190703-x86_64-pc-linux-gnu.tar.bz2",
		},
	}
	tool := pkg.Tools[0]
	if tool.Name != "arm-none-eabi-gcc" || tool.Version != "8.3.1-20190703" {
		t.Errorf("Unexpected tool %s %s", tool.Name, tool.Version)
	}
	if diff := cmp.Diff(want, tool.Systems); diff != "" {
		t.Errorf("Systems mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildIndexMissingOptions(t *testing.T) {
	_, err := BuildIndex(Options{Arch: "tivac"})
	if err == nil {
		t.Fatal("Expected an error")
	}
	if got := err.Error(); got != "missing options: cname, cversion, url, version" {
		t.Errorf("Unexpected error %q", got)
	}
}

func TestWriteIndex(t *testing.T) {
	idx, err := BuildIndex(testOptions)
	if err != nil {
		t.Fatal(err)
	}

	var stdout bytes.Buffer
	if err := writeIndex(idx, "-", &stdout); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "package_energia_index.json")
	if err := writeIndex(idx, path, nil); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(stdout.Bytes(), data) {
		t.Error("File and stdout output differ")
	}

	var back Index
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Index is not valid JSON: %v", err)
	}
	if diff := cmp.Diff(idx, &back); diff != "" {
		t.Errorf("Round trip mismatch (-want +got):\n%s", diff)
	}
	if !bytes.Contains(data, []byte(`"toolsDependencies": []`)) {
		t.Error("Expected an empty toolsDependencies array")
	}
}
