// Command rahalctl is the operator tool for profile roles and gate rules.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load(".env.local")

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rahalctl",
		Short:         "Operate on Rahal profiles and admission rules",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("dsn", "", "Postgres DSN (default: $DATABASE_URL)")

	root.AddCommand(
		promoteCmd(),
		showCmd(),
		rolesCmd(),
		gateCheckCmd(),
	)
	return root
}
