package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/google/renameio/v2"
)

const compilerTool = "arm-none-eabi-gcc"

// Options are the release coordinates the index is built from
type Options struct {
	Package         string
	Arch            string
	Version         string
	CompilerName    string
	CompilerVersion string
	URL             string // base download URL, with trailing slash
}

type Index struct {
	Packages []Package `json:"packages"`
}

type Package struct {
	Name       string     `json:"name"`
	Maintainer string     `json:"maintainer"`
	WebsiteURL string     `json:"websiteURL"`
	Platforms  []Platform `json:"platforms"`
	Tools      []Tool     `json:"tools"`
}

type Board struct {
	Name string `json:"name"`
}

type ToolRef struct {
	Packager string `json:"packager"`
	Name     string `json:"name"`
	Version  string `json:"version"`
}

// Platform is one core release. Field order follows the boards-manager
// format.
type Platform struct {
	Name              string    `json:"name"`
	Architecture      string    `json:"architecture"`
	Version           string    `json:"version"`
	Category          string    `json:"category"`
	URL               string    `json:"url"`
	ArchiveFileName   string    `json:"archiveFileName"`
	Checksum          string    `json:"checksum"`
	Size              string    `json:"size"`
	Boards            []Board   `json:"boards"`
	ToolsDependencies []ToolRef `json:"toolsDependencies"`
}

type System struct {
	Host            string `json:"host"`
	URL             string `json:"url"`
	ArchiveFileName string `json:"archiveFileName"`
}

type Tool struct {
	Name    string   `json:"name"`
	Version string   `json:"version"`
	Systems []System `json:"systems"`
}

// supportedBoards are the LaunchPads the core supports
var supportedBoards = []Board{
	{Name: "EK-TM4C123GXL"},
	{Name: "EK-TM4C1294XL"},
	{Name: "EK-LM4F120XL"},
}

func (o Options) validate() error {
	var missing []string
	for name, v := range map[string]string{
		"arch": o.Arch, "version": o.Version, "cname": o.CompilerName,
		"cversion": o.CompilerVersion, "url": o.URL,
	} {
		if v == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("missing options: %s", strings.Join(missing, ", "))
	}
	return nil
}

func platform(o Options) Platform {
	archive := o.Arch + "-" + o.Version + ".tar.bz2"
	return Platform{
		Name:              "Energia TivaC boards",
		Architecture:      o.Arch,
		Version:           o.Version,
		Category:          "Energia",
		URL:               o.URL + archive,
		ArchiveFileName:   archive,
		Checksum:          "0",
		Size:              "",
		Boards:            supportedBoards,
		ToolsDependencies: []ToolRef{},
	}
}

func compiler(o Options) Tool {
	base := o.CompilerName + "-" + o.CompilerVersion
	system := func(host, dir, suffix string) System {
		archive := base + suffix + ".tar.bz2"
		return System{Host: host, URL: o.URL + dir + "/" + archive, ArchiveFileName: archive}
	}
	return Tool{
		Name:    compilerTool,
		Version: o.CompilerVersion,
		Systems: []System{
			system("i686-mingw32", "windows", "-windows"),
			system("x86_64-apple-darwin", "macosx", "-mac"),
			system("x86_64-pc-linux-gnu", "linux64", "-x86_64-pc-linux-gnu"),
		},
	}
}

// BuildIndex assembles the package index for one release
func BuildIndex(o Options) (*Index, error) {
	if err := o.validate(); err != nil {
		return nil, err
	}
	if !strings.HasSuffix(o.URL, "/") {
		o.URL += "/"
	}
	name := o.Package
	if name == "" {
		name = "energia"
	}
	return &Index{Packages: []Package{{
		Name:       name,
		Maintainer: "Energia",
		WebsiteURL: "http://energia.nu/",
		Platforms:  []Platform{platform(o)},
		Tools:      []Tool{compiler(o)},
	}}}, nil
}

// writeIndex writes idx as indented JSON. path "-" is stdout; files are
// replaced atomically so a web server never serves a partial index.
func writeIndex(idx *Index, path string, stdout io.Writer) error {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	data = append(data, '\n')
	if path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
