package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/adsbib/internal/journal"
)

func init() {
	rootCmd.AddCommand(macrosCmd)
}

var macrosCmd = &cobra.Command{
	Use:   "macros",
	Short: "List the ADS journal macros and their full names",
	Long: `List the journal macros ADS writes into BibTeX (e.g. \apj) with the full
names used by --journal full, in the order they are substituted.`,
	Args: cobra.NoArgs,
	RunE: runMacros,
}

// MacroResponse is one row of the macros command.
type MacroResponse struct {
	Macro    string `json:"macro"`
	FullName string `json:"full_name"`
}

func runMacros(cmd *cobra.Command, args []string) error {
	macros := journal.Macros()
	if humanOutput {
		for _, m := range macros {
			outputHuman("\\%-10s %s\n", m.Name, m.FullName)
		}
		return nil
	}
	resp := make([]MacroResponse, len(macros))
	for i, m := range macros {
		resp[i] = MacroResponse{Macro: `\` + m.Name, FullName: m.FullName}
	}
	return outputJSON(resp)
}
