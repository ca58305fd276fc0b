// Command tiva-pkgindex writes the boards-manager package index for a core
// release.
package main

import (
	"flag"
	"os"

	"github.com/rs/zerolog"
)

func main() {
	var o Options
	flag.StringVar(&o.Package, "package", "energia", "Package name")
	flag.StringVar(&o.Arch, "arch", "tivac", "Core architecture")
	flag.StringVar(&o.Version, "version", "", "Core release version")
	flag.StringVar(&o.CompilerName, "cname", "gcc-arm-none-eabi", "Compiler archive base name")
	flag.StringVar(&o.CompilerVersion, "cversion", "", "Compiler version")
	flag.StringVar(&o.URL, "url", "", "Base download URL")
	out := flag.String("o", "-", "Output file, - for stdout")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	idx, err := BuildIndex(o)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid options")
	}
	if err := writeIndex(idx, *out, os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("failed to write index")
	}
	if *out != "-" {
		log.Info().Str("file", *out).Str("version", o.Version).Msg("index written")
	}
}
