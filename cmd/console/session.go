package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"goc4/pkg/asm"
	"goc4/pkg/compiler"
	"goc4/pkg/diag"
	"goc4/pkg/vfs"
	"goc4/pkg/vm"
)

// Session accumulates source entered at the prompt. Each accepted chunk
// must parse together with everything entered before it.
type Session struct {
	chunks []string
	out    io.Writer
	last   *vm.VM

	// Snippets backs :save, :load and :ls. Nil disables them.
	Snippets *vfs.Store
}

func NewSession(out io.Writer) *Session {
	return &Session{out: out}
}

// Source returns the accumulated program text.
func (s *Session) Source() string {
	return strings.Join(s.chunks, "\n")
}

// braceDepth counts unclosed '{' in src. Text that does not lex is treated
// as complete so the error gets reported.
func braceDepth(src string) int {
	tokens, err := compiler.Lex(src)
	if err != nil {
		return 0
	}
	depth := 0
	for _, tok := range tokens {
		switch tok.Type {
		case compiler.LBRACE:
			depth++
		case compiler.RBRACE:
			depth--
		}
	}
	return depth
}

// NeedsMore reports whether code is an unfinished chunk.
func NeedsMore(code string) bool {
	return braceDepth(code) > 0
}

// Add appends code to the session if the combined source still parses.
func (s *Session) Add(code string) error {
	candidate := code
	if len(s.chunks) > 0 {
		candidate = s.Source() + "\n" + code
	}
	tokens, err := compiler.Lex(candidate)
	if err != nil {
		return diag.WithSource(err, candidate)
	}
	if _, err := compiler.Parse(tokens); err != nil {
		return diag.WithSource(err, candidate)
	}
	s.chunks = append(s.chunks, code)
	log.Debug().Int("chunks", len(s.chunks)).Msg("session extended")
	return nil
}

func (s *Session) compile() (*vm.Program, error) {
	src := s.Source()
	prog, err := compiler.Compile(src)
	if err != nil {
		return nil, diag.WithSource(err, src)
	}
	return prog, nil
}

// Command runs a ':' command. It reports false for :quit.
func (s *Session) Command(line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true, nil
	}
	switch strings.ToLower(fields[0]) {
	case ":quit", ":q":
		return false, nil

	case ":reset":
		s.chunks = nil
		s.last = nil
		fmt.Fprintln(s.out, "session cleared")

	case ":run":
		prog, err := s.compile()
		if err != nil {
			return true, err
		}
		m := vm.New(prog)
		m.Output = s.out
		m.Logger = log.Logger
		s.last = m
		result, err := m.Run()
		if err != nil {
			return true, err
		}
		fmt.Fprintf(s.out, "=> %d\n", result)

	case ":asm":
		prog, err := s.compile()
		if err != nil {
			return true, err
		}
		fmt.Fprint(s.out, asm.Disassemble(prog))

	case ":ast":
		tokens, err := compiler.Lex(s.Source())
		if err != nil {
			return true, err
		}
		nodes, err := compiler.Parse(tokens)
		if err != nil {
			return true, err
		}
		fmt.Fprint(s.out, compiler.Dump(nodes))

	case ":state":
		if s.last == nil {
			fmt.Fprintln(s.out, "nothing has run yet")
			return true, nil
		}
		data, err := json.MarshalIndent(s.last.Snapshot(), "", "  ")
		if err != nil {
			return true, err
		}
		fmt.Fprintln(s.out, string(data))

	case ":source":
		fmt.Fprintln(s.out, s.Source())

	case ":save", ":load", ":ls", ":rm":
		return true, s.snippetCommand(fields)

	default:
		fmt.Fprintln(s.out, "commands: :run :asm :ast :state :source :save :load :ls :rm :reset :quit")
	}
	return true, nil
}

func (s *Session) snippetCommand(fields []string) error {
	if s.Snippets == nil {
		return errors.New("snippet store is not available")
	}
	cmd := strings.ToLower(fields[0])
	if cmd == ":ls" {
		for _, name := range s.Snippets.List() {
			fmt.Fprintln(s.out, name)
		}
		return nil
	}
	if len(fields) != 2 {
		return fmt.Errorf("usage: %s name", cmd)
	}
	name := fields[1]

	switch cmd {
	case ":save":
		if err := s.Snippets.Save(name, s.Source()); err != nil {
			return fmt.Errorf("save %s: %w", name, err)
		}
		fmt.Fprintf(s.out, "saved %s\n", name)
	case ":rm":
		if err := s.Snippets.Delete(name); err != nil {
			return fmt.Errorf("rm %s: %w", name, err)
		}
	case ":load":
		src, err := s.Snippets.Load(name)
		if err != nil {
			return fmt.Errorf("load %s: %w", name, err)
		}
		prevChunks, prevLast := s.chunks, s.last
		s.chunks, s.last = nil, nil
		if strings.TrimSpace(src) != "" {
			if err := s.Add(src); err != nil {
				s.chunks, s.last = prevChunks, prevLast
				return err
			}
		}
		fmt.Fprintf(s.out, "loaded %s\n", name)
	}
	return nil
}
