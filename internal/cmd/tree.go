package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"groupptr/pkg/memory"
	"groupptr/pkg/tree"
)

func newTreeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show a whole tree kept alive by a single leaf",
		Long: `Builds a tree of the configured depth and fanout, drops every handle
except one to the deepest, last leaf, shows that the whole tree is still
reachable from it, then drops the leaf and shows the tree destroyed at once.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTree(cmd, a)
		},
	}
	cmd.Flags().Int("depth", 0, "tree depth (default from config)")
	cmd.Flags().Int("fanout", 0, "children per node (default from config)")
	_ = a.v.BindPFlag("tree.depth", cmd.Flags().Lookup("depth"))
	_ = a.v.BindPFlag("tree.fanout", cmd.Flags().Lookup("fanout"))
	return cmd
}

func runTree(cmd *cobra.Command, a *app) error {
	out := cmd.OutOrStdout()
	before := memory.ReadStats()

	root, err := tree.Build(a.log, "root", a.cfg.Tree.Depth, a.cfg.Tree.Fanout)
	if err != nil {
		return err
	}

	leaf := &memory.Ptr[tree.Node]{}
	root.Get().Walk(func(depth int, n *tree.Node) bool {
		fmt.Fprintf(out, "%s%s\n", strings.Repeat("  ", depth), n.Name())
		if n.Len() == 0 {
			leaf.Reset()
			leaf = n.Self()
		}
		return true
	})

	total := tree.Count(root.Get())
	root.Reset()

	top := leaf.Clone()
	for {
		up := top.Get().Parent()
		if !up.Valid() {
			break
		}
		top.MoveFrom(up)
	}
	reachable := tree.Count(top.Get())
	top.Reset()

	a.log.Info("root handle dropped",
		"leaf", leaf.Get().Name(),
		"nodes", total,
		"reachable_from_leaf", reachable,
		"group_size", leaf.GroupSize(),
		"group_count", leaf.GroupUseCount(),
	)

	leaf.Reset()
	after := memory.ReadStats()
	a.log.Info("leaf handle dropped",
		"destroyed", after.MembersDestroyed-before.MembersDestroyed,
		"live", after.LiveMembers()-before.LiveMembers(),
	)
	return nil
}
