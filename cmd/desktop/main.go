// Command desktop is a windowed step debugger for compiled programs.
// Space steps one instruction, R runs or pauses, Esc restarts.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"os"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/font/basicfont"

	"goc4/pkg/asm"
	"goc4/pkg/compiler"
	"goc4/pkg/diag"
	"goc4/pkg/utils"
	"goc4/pkg/vm"
)

const (
	screenWidth  = 960
	screenHeight = 600
	lineHeight   = 14
	margin       = 8
)

var (
	faceSource = text.NewGoXFace(basicfont.Face7x13)

	titleColor = color.RGBA{0xff, 0xd0, 0x60, 0xff}
	textColor  = color.RGBA{0xe0, 0xe0, 0xe0, 0xff}
	background = color.RGBA{0x18, 0x1c, 0x24, 0xff}
)

type Game struct {
	dbg *Debugger
}

func (g *Game) Update() error {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		g.dbg.Reset()
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		g.dbg.Running = !g.dbg.Running && !g.dbg.Halted()
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		g.dbg.Running = false
		g.dbg.Step()
	}
	g.dbg.Tick()
	return nil
}

func drawPane(screen *ebiten.Image, title string, lines []string, x, y int) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(x), float64(y))
	op.ColorScale.ScaleWithColor(titleColor)
	text.Draw(screen, title, faceSource, op)

	op = &text.DrawOptions{}
	op.GeoM.Translate(float64(x), float64(y+lineHeight+4))
	op.ColorScale.ScaleWithColor(textColor)
	op.LineSpacing = lineHeight
	text.Draw(screen, strings.Join(lines, "\n"), faceSource, op)
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(background)

	col := screenWidth / 3
	drawPane(screen, "CODE", g.dbg.CodePane(), margin, margin)
	drawPane(screen, "MACHINE", append(g.dbg.RegisterPane(), g.dbg.StackPane()...), col+margin, margin)
	drawPane(screen, "FRAMES", g.dbg.FramePane(), 2*col+margin, margin)

	out := g.dbg.OutputPane()
	if n := len(out); n > 8 {
		out = out[n-8:]
	}
	drawPane(screen, "OUTPUT", out, margin, screenHeight-10*lineHeight-margin)

	ebitenutil.DebugPrintAt(screen, "SPACE step   R run/pause   ESC reset", col, screenHeight-lineHeight-margin)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

func load(path string) (*vm.Program, error) {
	src, fullPath, err := utils.ReadSource(path)
	if err != nil {
		return nil, err
	}
	log.Info().Str("file", fullPath).Msg("loading")

	var prog *vm.Program
	if utils.KindOf(path) == utils.SourceAsm {
		prog, err = asm.Assemble(src)
	} else {
		prog, err = compiler.Compile(src)
	}
	if err != nil {
		return nil, diag.WithSource(err, src)
	}
	return prog, nil
}

func main() {
	logLevel := flag.String("log-level", "", "log level: trace, debug, info, warn, error")
	steps := flag.Int("steps", defaultStepsPerFrame, "instructions per frame while running")
	flag.Parse()

	if err := utils.ConfigureLogging(os.Stderr, *logLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	compiler.Logger = log.Logger
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: desktop [flags] file.c|file.asm")
		os.Exit(2)
	}

	prog, err := load(flag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	dbg := NewDebugger(prog)
	dbg.StepsPerFrame = *steps

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("goc4 debugger")

	if err := ebiten.RunGame(&Game{dbg: dbg}); err != nil {
		log.Fatal().Err(err).Msg("window closed with error")
	}
}
