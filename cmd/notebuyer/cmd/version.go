package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the notebuyer CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("notebuyer version %s\n", version)
		fmt.Println("Unattended buyer of fractional loan notes")
		fmt.Println("https://github.com/rustyeddy/notebuyer")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
