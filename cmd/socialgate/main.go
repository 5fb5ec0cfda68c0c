package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var (
		flagConfig  string
		flagEnvFile string
	)

	root := &cobra.Command{
		Use:   "socialgate",
		Short: "Social login gateway: diez providers OAuth2/OIDC detrás de una identidad canónica",
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "config.yaml", "ruta del config YAML")
	root.PersistentFlags().StringVar(&flagEnvFile, "env-file", ".env", "archivo .env opcional")

	root.AddCommand(newServeCmd(&flagConfig, &flagEnvFile))
	root.AddCommand(newMigrateCmd(&flagConfig, &flagEnvFile))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
