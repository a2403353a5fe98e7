package main

import (
	"context"
	"os"

	"github.com/dmitrijs2005/passkeeper/internal/cli"
)

func main() {

	app := cli.NewApp()
	rootCmd := cli.NewRootCmd(app)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		rootCmd.PrintErrln("Error:", err)
		os.Exit(1)
	}

}
