package main

import (
	"flag"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/muralwl/mural/internal/ipc"
)

func runQuery(args []string) error {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return userError("%w", err)
	}

	infos, err := queryInfos()
	if err != nil {
		return err
	}

	width := terminalWidth()
	for _, info := range infos {
		printInfoLine(info, width)
	}
	return nil
}

// terminalWidth reports stdout's column width, falling back to 80 when
// stdout isn't a terminal (piped to a file, redirected in a script).
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 80
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

func printInfoLine(info ipc.Info, width int) {
	scale := "1"
	if info.Scale.Fractional {
		scale = fmt.Sprintf("%.2f", float64(info.Scale.Value)/120)
	} else {
		scale = fmt.Sprintf("%d", info.Scale.Value)
	}

	what := "no wallpaper set"
	if info.Img.IsColor {
		what = fmt.Sprintf("color: %02x%02x%02x", info.Img.Color[0], info.Img.Color[1], info.Img.Color[2])
	} else if info.Img.Path != "" {
		what = fmt.Sprintf("image: %s", info.Img.Path)
	}

	line := fmt.Sprintf("%s: %dx%d, scale %s, currently displaying: %s",
		info.Name, info.Dim.X, info.Dim.Y, scale, what)
	if width > 0 && len(line) > width {
		line = line[:width-1] + "…"
	}
	fmt.Println(line)
}
