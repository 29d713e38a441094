// combustion converts retail Halo PC maps to Custom Edition maps.
//
// Bitmap and sound tags whose payloads live in the retail shared resource
// maps are either pointed at an identical resource in the Custom Edition
// resource maps or have their payloads copied into the converted map.
//
// Subcommands:
//
//	combustion convert [flags]        convert a map (the default)
//	combustion inspect [flags] FILE   list the contents of a map, resource map or report
//	combustion verify [flags] FILE    check a converted map against its report
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		printUsage(stdout)
		return nil
	}
	switch args[0] {
	case "convert":
		return runConvert(args[1:], stdout, stderr)
	case "inspect":
		return runInspect(args[1:], stdout)
	case "verify":
		return runVerify(args[1:], stdout)
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	default:
		return runConvert(args, stdout, stderr)
	}
}

// parse parses args with fs and reports whether help was requested.
func parse(fs *pflag.FlagSet, args []string, stdout io.Writer) (bool, error) {
	fs.SetOutput(stdout)
	fs.BoolP("help", "h", false, "show help")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return true, nil
		}
		return false, err
	}
	help, _ := fs.GetBool("help")
	if help {
		fmt.Fprintf(stdout, "Usage of %s:\n", fs.Name())
		fs.PrintDefaults()
	}
	return help, nil
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `combustion - convert Halo PC maps to Custom Edition

USAGE
    combustion [convert] [flags]
    combustion inspect [--kind map|resources|report] FILE...
    combustion verify --report FILE [--input MAP] CONVERTED

CONVERT FLAGS
    -c, --config <path>          YAML configuration file
    -m, --map <path>             retail map to convert
    -a, --aux <path>             map to import user interface tags from
        --source-bitmaps <path>  retail bitmaps.map
        --source-sounds <path>   retail sounds.map
        --target-bitmaps <path>  Custom Edition bitmaps.map
        --target-sounds <path>   Custom Edition sounds.map
    -o, --output <path>          converted map (default: <map>.ce.map)
        --compression <name>     none, zstd or lz4
        --engine <name>          custom-edition, retail or xbox
        --report <path>          write a binary conversion report
        --summary <path>         write a YAML conversion summary
        --skip-import            do not import tags from --aux
        --log-level <level>      debug, info, warn or error
    -v, --verbose                shorthand for --log-level debug

Inputs may be zstd or LZ4 compressed.
`)
}
