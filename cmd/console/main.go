// Command console is an interactive prompt: C code typed at the prompt is
// accumulated into one program that :run compiles and executes.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"
	"github.com/rs/zerolog/log"

	"goc4/pkg/compiler"
	"goc4/pkg/utils"
	"goc4/pkg/vfs"
)

const (
	historyFile = ".goc4_history"
	snippetDir  = ".goc4/snippets"
	promptMain  = "c4> "
	promptCont  = "... "
	banner      = "goc4 console. Enter declarations and functions, then :run. :quit exits."
)

func main() {
	logLevel := flag.String("log-level", "", "log level: trace, debug, info, warn, error")
	flag.Parse()
	if err := utils.ConfigureLogging(os.Stderr, *logLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	compiler.Logger = log.Logger
	os.Exit(repl())
}

func repl() int {
	fmt.Println(banner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	snipPath := filepath.Join(home, snippetDir)
	snippets := vfs.NewStore()
	if err := snippets.LoadFrom(snipPath); err != nil {
		log.Warn().Err(err).Str("dir", snipPath).Msg("could not load snippets")
	}
	defer func() {
		if !snippets.Dirty() {
			return
		}
		if err := snippets.Persist(snipPath); err != nil {
			log.Error().Err(err).Str("dir", snipPath).Msg("could not save snippets")
		}
	}()

	session := NewSession(os.Stdout)
	session.Snippets = snippets
	for {
		code, ok := readChunk(ln)
		if !ok {
			fmt.Println()
			return 0
		}
		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))

		if strings.HasPrefix(trimmed, ":") {
			more, err := session.Command(trimmed)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
			if !more {
				return 0
			}
			continue
		}
		if err := session.Add(code); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}

// readChunk reads one line, and continuation lines while braces are open.
func readChunk(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		code := b.String()
		if strings.HasPrefix(strings.TrimSpace(code), ":") || !NeedsMore(code) {
			return code, true
		}
	}
}
