package main

import (
	"github.com/spf13/cobra"
)

func main() {
	var root = &cobra.Command{Use: "trendscout"}

	root.AddCommand(serveCMD())
	_ = root.Execute()
}
