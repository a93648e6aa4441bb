package main

import (
	"errors"
	"fmt"

	"github.com/randalmurphal/recipegraph/pkg/recipegraph"
	"github.com/spf13/cobra"
)

func newRunCmd(a *app) *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "run <graph>",
		Short: "Compile and execute every acceptor of a graph",
		Long: `run compiles a recipe for every acceptor and executes them in acceptor
id order, printing each acceptor's result. A failing recipe does not stop
the others.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.loadGraph(args[0])
			if err != nil {
				return err
			}
			recipes, compileErr := g.CompileAll()
			errs := []error{compileErr}

			for i, r := range recipes {
				var opts []recipegraph.RunOption
				if runID != "" {
					opts = append(opts, recipegraph.WithRunID(fmt.Sprintf("%s-%d", runID, i)))
				}
				result, err := g.Execute(cmd.Context(), r, opts...)
				if err != nil {
					fmt.Fprintf(a.out, "%s: failed (%s): %v\n", recipeLabel(g, r), recipegraph.Classify(err), err)
					errs = append(errs, err)
					continue
				}
				fmt.Fprintf(a.out, "%s: %s\n", recipeLabel(g, r), formatValue(result))
			}
			return errors.Join(errs...)
		},
	}
	cmd.Flags().StringVar(&runID, "run-id", "", "run id prefix for logs and spans (default: random per recipe)")
	return cmd
}
