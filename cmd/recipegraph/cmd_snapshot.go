package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/randalmurphal/recipegraph/pkg/recipegraph/snapshot"
	"github.com/spf13/cobra"
)

func newSnapshotCmd(a *app) *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save, load, list and prune graph snapshots in the configured store",
	}
	cmd.PersistentFlags().StringVar(&project, "project", "", "snapshot project (default: from settings)")

	projectOf := func() string {
		if project != "" {
			return project
		}
		return a.settings.Store.Project
	}

	withStore := func(fn func(store snapshot.Store) error) error {
		store, err := a.settings.OpenStore()
		if err != nil {
			return fmt.Errorf("open snapshot store: %w", err)
		}
		defer store.Close()
		return fn(store)
	}

	var label string
	save := &cobra.Command{
		Use:   "save <graph>",
		Short: "Store a graph document as a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			g, err := a.loadGraph(args[0])
			if err != nil {
				return err
			}
			if label == "" {
				label = time.Now().UTC().Format("20060102T150405Z")
			}
			return withStore(func(store snapshot.Store) error {
				if err := g.SaveSnapshot(store, projectOf(), label); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "saved %s/%s (%d nodes, %d links)\n", projectOf(), label, g.NodeCount(), g.LinkCount())
				return nil
			})
		},
	}
	save.Flags().StringVar(&label, "label", "", "snapshot label (default: current UTC time)")

	var outPath string
	load := &cobra.Command{
		Use:   "load [label]",
		Short: "Restore a snapshot and write it as a graph document",
		Long: `load restores a snapshot, the most recent one when no label is given,
and writes it to --out as JSON or YAML depending on the file extension.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			want := ""
			if len(args) == 1 {
				want = args[0]
			}
			g := a.newGraph()
			return withStore(func(store snapshot.Store) error {
				if err := g.LoadSnapshot(store, projectOf(), want, a.catalog); err != nil {
					return err
				}
				if err := g.WriteFile(outPath); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "wrote %s (%d nodes, %d links)\n", outPath, g.NodeCount(), g.LinkCount())
				return nil
			})
		},
	}
	load.Flags().StringVarP(&outPath, "out", "o", "", "graph document to write")
	_ = load.MarkFlagRequired("out")

	list := &cobra.Command{
		Use:   "list",
		Short: "List the snapshots of a project, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return withStore(func(store snapshot.Store) error {
				infos, err := store.List(projectOf())
				if err != nil {
					return err
				}
				if len(infos) == 0 {
					fmt.Fprintf(a.out, "no snapshots for project %q\n", projectOf())
					return nil
				}
				tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "SEQ\tLABEL\tSAVED\tNODES\tLINKS\tBYTES")
				for _, info := range infos {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\n", info.Sequence, info.Label,
						info.SavedAt.UTC().Format(time.RFC3339), info.Nodes, info.Links, info.Size)
				}
				return tw.Flush()
			})
		},
	}

	var keep int
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest snapshots of a project",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if keep < 0 {
				return fmt.Errorf("--keep must not be negative, got %d", keep)
			}
			return withStore(func(store snapshot.Store) error {
				removed, err := store.Prune(projectOf(), keep)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "pruned %d snapshots from %s\n", removed, projectOf())
				return nil
			})
		},
	}
	prune.Flags().IntVar(&keep, "keep", 5, "number of newest snapshots to keep")

	cmd.AddCommand(save, load, list, prune)
	return cmd
}
