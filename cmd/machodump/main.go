// Command machodump decodes a Mach-O file or fat binary given on argv
// and prints its table of contents plus cross-reference counts.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	macho "github.com/osok/apple-core"
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: machodump <path>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	if ff, err := macho.OpenFat(path); err == nil {
		defer ff.Close()
		fmt.Printf("%s: fat binary, %d arch(es)\n", path, len(ff.Arches))
		for i, arch := range ff.Arches {
			if arch.Err != nil {
				log.Printf("arch %d (%s): %v", i, arch.CPU, arch.Err)
				continue
			}
			dump(arch.File)
		}
		return
	}

	f, err := macho.OpenContext(context.Background(), path, macho.DecodeOptions{})
	if err != nil {
		log.Fatalf("%s: %v", path, err)
	}
	defer f.Close()
	dump(f)
}

func dump(f *macho.File) {
	fmt.Println(f.FileTOC.String())
	fmt.Printf("cross-references: %d\n", len(f.CrossReferences))
	for _, w := range f.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
}
