package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	_ = godotenv.Load()
	ctx := context.Background()

	rootCmd := NewRootCmd(version, newApp())
	if err := fang.Execute(ctx, rootCmd, fang.WithErrorHandler(reportError)); err != nil {
		os.Exit(1)
	}
}

func reportError(w io.Writer, _ fang.Styles, err error) {
	fmt.Fprintf(w, "Something went wrong: %v\n", err)
}
