// Command melody tracks the pitch of a monophonic voice or instrument and writes
// one note per metronome beat onto a staff.
//
// Usage:
//
//	melody run     [-config melody.yaml] [-input mic|file] [-bpm 120] [-realtime]
//	melody analyze -input file [-frame 2048]
package main

import (
	"fmt"
	"os"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 1 {
		printUsage()
		return 2
	}

	switch args[0] {
	case "run":
		return runLive(args[1:])
	case "analyze":
		return runAnalyze(args[1:], os.Stdout)
	case "version":
		fmt.Println(version)
		return 0
	case "-h", "--help", "help":
		printUsage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "melody: unknown command %q\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `Usage: melody <command> [flags]

Commands:
  run       track pitch live and commit one note per beat
  analyze   print the per-frame pitch of an audio file
  version   print the version

Run "melody <command> -h" for the flags of a command.
`)
}
