package main

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"goc4/pkg/vm"
)

const (
	defaultStepsPerFrame = 200
	codeWindowBefore     = 8
	codeWindowAfter      = 16
	maxStackRows         = 24
)

// Debugger drives a VM one frame at a time and renders its state as text
// panes. It knows nothing about the window.
type Debugger struct {
	prog    *vm.Program
	vm      *vm.VM
	listing []string
	labels  map[int]string

	out bytes.Buffer

	Running       bool
	StepsPerFrame int
	Fault         error
}

func NewDebugger(prog *vm.Program) *Debugger {
	d := &Debugger{
		prog:          prog,
		StepsPerFrame: defaultStepsPerFrame,
		labels:        make(map[int]string),
	}
	d.listing = make([]string, len(prog.Code))
	for i, in := range prog.Code {
		d.listing[i] = in.String()
	}
	for _, fn := range prog.Funcs.All() {
		d.labels[fn.Entry] = fn.Name
	}
	d.Reset()
	return d
}

// Reset starts the program again from address 0.
func (d *Debugger) Reset() {
	d.vm = vm.New(d.prog)
	d.out.Reset()
	d.vm.Output = &d.out
	d.vm.Logger = log.Logger
	d.Running = false
	d.Fault = nil
	log.Debug().Str("run", d.vm.RunID.String()).Msg("debugger reset")
}

func (d *Debugger) Halted() bool { return d.vm.Halted }

// Step executes one instruction.
func (d *Debugger) Step() {
	if d.vm.Halted {
		d.Running = false
		return
	}
	if err := d.vm.Step(); err != nil {
		d.Fault = err
		d.Running = false
		log.Warn().Err(err).Msg("program faulted")
	}
	if d.vm.Halted {
		d.Running = false
	}
}

// Tick advances a running program by StepsPerFrame instructions.
func (d *Debugger) Tick() {
	for i := 0; i < d.StepsPerFrame && d.Running; i++ {
		d.Step()
	}
}

// CodePane lists the instructions around the program counter, marking the
// next one with '>'.
func (d *Debugger) CodePane() []string {
	pc := d.vm.State.PC
	lo := max(pc-codeWindowBefore, 0)
	hi := min(pc+codeWindowAfter, len(d.listing))

	var lines []string
	for addr := lo; addr < hi; addr++ {
		if name, ok := d.labels[addr]; ok {
			lines = append(lines, name+":")
		}
		marker := " "
		if addr == pc {
			marker = ">"
		}
		lines = append(lines, fmt.Sprintf("%s %04d  %s", marker, addr, d.listing[addr]))
	}
	return lines
}

// RegisterPane shows the scalar machine state.
func (d *Debugger) RegisterPane() []string {
	st := d.vm.State
	status := "paused"
	switch {
	case d.Fault != nil:
		status = "faulted"
	case d.vm.Halted:
		status = "halted"
	case d.Running:
		status = "running"
	}
	return []string{
		"status " + status,
		fmt.Sprintf("pc     %d", st.PC),
		fmt.Sprintf("acc    %d", st.Acc),
		fmt.Sprintf("steps  %d", d.vm.Steps),
		fmt.Sprintf("depth  %d", len(st.Calls)),
	}
}

// StackPane lists the operand stack, top first.
func (d *Debugger) StackPane() []string {
	stack := d.vm.State.Stack
	lines := []string{fmt.Sprintf("stack (%d)", len(stack))}
	for i := len(stack) - 1; i >= 0 && len(lines) <= maxStackRows; i-- {
		lines = append(lines, fmt.Sprintf("  [%d] %d", i, stack[i]))
	}
	return lines
}

// FramePane lists the scope frames, innermost first, with sorted bindings.
func (d *Debugger) FramePane() []string {
	frames := d.vm.State.Frames
	var lines []string
	for i := len(frames) - 1; i >= 0; i-- {
		f := frames[i]
		title := fmt.Sprintf("frame %d", f.ID)
		if i == 0 {
			title += " (global)"
		}
		lines = append(lines, title)

		names := make([]string, 0, len(f.Vars))
		for name := range f.Vars {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			lines = append(lines, fmt.Sprintf("  %s = %d", name, f.Vars[name]))
		}
	}
	return lines
}

// OutputPane returns the program's printf output plus any fault.
func (d *Debugger) OutputPane() []string {
	text := strings.TrimRight(d.out.String(), "\n")
	var lines []string
	if text != "" {
		lines = strings.Split(text, "\n")
	}
	if d.Fault != nil {
		lines = append(lines, "fault: "+d.Fault.Error())
	} else if d.vm.Halted {
		lines = append(lines, fmt.Sprintf("exit %d", d.vm.State.Acc))
	}
	return lines
}
