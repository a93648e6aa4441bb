package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBuildCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "build <graph>",
		Short: "Compile every acceptor of a graph and print the recipes",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			g, err := a.loadGraph(args[0])
			if err != nil {
				return err
			}
			recipes, compileErr := g.CompileAll()
			for _, r := range recipes {
				printRecipe(a.out, g, r)
			}
			if compileErr != nil {
				return fmt.Errorf("%d of %d recipes compiled: %w", len(recipes), len(recipes)+countJoined(compileErr), compileErr)
			}
			return nil
		},
	}
}

// countJoined returns how many errors an errors.Join result carries.
func countJoined(err error) int {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return len(joined.Unwrap())
	}
	return 1
}
