package cmd

import (
	"github.com/spf13/cobra"

	"groupptr/pkg/demo"
	"groupptr/pkg/memory"
)

func newDemoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Replay the migrate-and-merge walkthrough",
		Long: `Creates A(G1a), A(G1b) and A(G1c), migrates G1b and G1c into G1a's
group, groups B(G2a) with B(G2b) and merges that group into G1a's. Every
payload is announced when created and when destroyed; all five are
destroyed together once the last handle into the merged group is dropped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			before := memory.ReadStats()
			if err := demo.Run(demo.NewJournal(a.log)); err != nil {
				return err
			}
			after := memory.ReadStats()
			a.log.Info("demo finished",
				"members_created", after.MembersCreated-before.MembersCreated,
				"members_destroyed", after.MembersDestroyed-before.MembersDestroyed,
				"migrations", after.Migrations-before.Migrations,
				"merges", after.Merges-before.Merges,
			)
			return nil
		},
	}
}
