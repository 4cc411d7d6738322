package main

import (
	"github.com/ErlanBelekov/agent-dashboard/internal/domain"
	"github.com/spf13/cobra"
)

func newAgentCmd(build builder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "List and invoke the dashboard's agents",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the configured agents",
		Args:  cobra.NoArgs,
		RunE: withDeps(build, func(cmd *cobra.Command, d *deps, _ []string) error {
			return printJSON(cmd.OutOrStdout(), map[string]any{"agents": d.agents.Agents()})
		}),
	}

	var instruction string
	runCmd := &cobra.Command{
		Use:       "run <kind>",
		Short:     "Send an instruction to an agent and print the normalized record",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(domain.AgentStudyPlan), string(domain.AgentRepository), string(domain.AgentDeadlines), string(domain.AgentResources)},
		RunE: withDeps(build, func(cmd *cobra.Command, d *deps, args []string) error {
			rec, err := d.agents.Invoke(cmd.Context(), domain.AgentKind(args[0]), instruction)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rec)
		}),
	}
	runCmd.Flags().StringVarP(&instruction, "instruction", "i", "", "instruction text sent to the agent")
	_ = runCmd.MarkFlagRequired("instruction")

	cmd.AddCommand(listCmd, runCmd)
	return cmd
}
