package main

import (
	"fmt"
	"os"

	"github.com/muralwl/mural/internal/codec"
)

// version is stamped at build time; left as a placeholder here the way a
// single-binary daemon without a release pipeline in this repo would.
const version = "0.1.0"

const helpText = `murald

Options:

  -f|--format <xrgb|xbgr|rgb|bgr>
          force the use of a specific wl_shm format.

          It is generally better to let murald chose for itself.
          Only use this as a workaround when you run into problems.
          Whatever you chose, make sure you compositor actually supports it!
          'xrgb' is the most compatible one.

  --no-cache
         Don't search the cache for the last wallpaper for each output.
          Useful if you always want to select which image 'mural' loads manually using 'mural img'

  -q|--quiet    log without timestamps (messages are not filtered)
  -h|--help     print help
  -V|--version  print version
`

// cliOptions is the daemon's parsed command line, mirroring the original
// swww-daemon CLI's flag set and exit-code conventions exactly: -1 for an
// unrecognized argument, -2 for a malformed --format value.
type cliOptions struct {
	format    codec.PixelFormat
	hasFormat bool
	quiet     bool
	noCache   bool
}

// parseCLI walks args (os.Args[1:]) the way the original's hand-rolled
// std::env::args() loop does: no flag library, immediate exit on -h/-V/bad
// input, so the observable help text and exit codes match it exactly.
func parseCLI(args []string) cliOptions {
	var opts cliOptions
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-f", "--format":
			i++
			if i >= len(args) {
				badFormat()
			}
			f, err := parseFormat(args[i])
			if err != nil {
				badFormat()
			}
			opts.format = f
			opts.hasFormat = true
		case "-q", "--quiet":
			opts.quiet = true
		case "--no-cache":
			opts.noCache = true
		case "-h", "--help":
			fmt.Print(helpText)
			os.Exit(0)
		case "-V", "--version":
			fmt.Printf("murald %s\n", version)
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unrecognized command line argument: %s\n", args[i])
			fmt.Fprintln(os.Stderr, "Run -h|--help to know what arguments are recognized!")
			os.Exit(255) // mirrors the original's exit(-1)
		}
	}
	return opts
}

func badFormat() {
	fmt.Fprintln(os.Stderr, "`--format` command line option must be one of: 'xrgb', 'xbgr', 'rgb' or 'bgr'")
	os.Exit(254) // mirrors the original's exit(-2)
}
