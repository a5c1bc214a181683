package main

import (
	"os"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed, color.Bold)
)

// reportError prints the §7 diagnostic line to stderr and returns the exit
// code the caller should use. sc.Error's own Error() method already
// formats as "<kind>: <detail>"; any other error (I/O, flag validation)
// prints through its own Error() unchanged.
func reportError(err error) int {
	errorColor.Fprintf(os.Stderr, "[ERROR] %s\n", err)
	return 1
}

func reportSuccess(format string, args ...interface{}) {
	successColor.Fprintf(os.Stdout, format+"\n", args...)
}
