package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/atlasdatatech/arctile/style"
)

var styleCmd = &cobra.Command{
	Use:   "style",
	Short: "Style document utilities",
}

var styleCheckCmd = &cobra.Command{
	Use:   "check [style.json]",
	Short: "Compile a style document and report what it produces",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		doc, err := style.ParseDocument(data)
		if err != nil {
			return err
		}
		compiled, err := style.Compile(doc, style.Options{})
		if err != nil {
			return err
		}

		fmt.Printf("%v: %v paint rules, %v label rules\n", args[0], len(compiled.PaintRules), len(compiled.LabelRules))
		if compiled.Background != nil {
			fmt.Println("has a background rule")
		}
		if len(compiled.Tasks) > 0 {
			fmt.Printf("%v sprite sheets to load\n", len(compiled.Tasks))
		}
		return nil
	},
}

func init() {
	styleCmd.AddCommand(styleCheckCmd)
}
