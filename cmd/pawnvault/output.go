package main

import (
	"fmt"
	"io"

	"github.com/forest6511/pawnvault/internal/api"

	"github.com/fatih/color"
)

func infof(w io.Writer, msg string, args ...any) {
	fmt.Fprintf(w, color.GreenString("[info] ")+msg+"\n", args...)
}

func warnf(w io.Writer, msg string, args ...any) {
	fmt.Fprintf(w, color.YellowString("[warn] ")+msg+"\n", args...)
}

func errorf(w io.Writer, msg string, args ...any) {
	fmt.Fprintf(w, color.RedString("[error] ")+msg+"\n", args...)
}

// errorMessage is the text shown for an engine error.
func errorMessage(err error) string {
	return api.Message(err)
}

// printError reports a failed command. Engine errors already carry their
// stable message; flag and argument errors are shown as they are.
func printError(w io.Writer, err error) {
	errorf(w, "%s", err.Error())
}
