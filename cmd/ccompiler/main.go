// Command ccompiler prints every stage of the pipeline for one source file:
// tokens, AST and the generated instruction listing.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"goc4/pkg/asm"
	"goc4/pkg/compiler"
	"goc4/pkg/diag"
	"goc4/pkg/utils"
)

const testSource = `int x = 10;
int y = 20;
main() {
    return x + y;
}
`

func main() {
	logLevel := flag.String("log-level", "", "log level: trace, debug, info, warn, error")
	flag.Parse()

	if err := utils.ConfigureLogging(os.Stderr, *logLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	compiler.Logger = log.Logger

	src := testSource
	if flag.NArg() > 0 {
		var err error
		var fullPath string
		src, fullPath, err = utils.ReadSource(flag.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		log.Debug().Str("file", fullPath).Msg("read source")
	}

	fmt.Printf("Source:\n%s\n", src)

	tokens, err := compiler.Lex(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, diag.WithSource(err, src))
		os.Exit(1)
	}

	fmt.Printf("Tokens (%d)\n", len(tokens))
	for _, tok := range tokens {
		fmt.Println(" ", tok)
	}
	fmt.Println()

	nodes, err := compiler.Parse(tokens)
	fmt.Println("AST")
	fmt.Print(compiler.Dump(nodes))
	fmt.Println()
	if err != nil {
		fmt.Fprintln(os.Stderr, diag.WithSource(err, src))
		os.Exit(1)
	}

	prog, err := compiler.Generate(nodes)
	if err != nil {
		fmt.Fprintln(os.Stderr, diag.WithSource(err, src))
		os.Exit(1)
	}

	fmt.Println("Listing")
	fmt.Print(asm.Disassemble(prog))
	if len(prog.Strings) > 0 {
		fmt.Println()
		fmt.Println("Strings")
		for i, s := range prog.Strings {
			fmt.Printf("  %d  %q\n", i, s)
		}
	}
}
