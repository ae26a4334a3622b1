package server

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mainajackson95/gau-tools/api/routes"
	"github.com/mainajackson95/gau-tools/internal/config"
	"github.com/mainajackson95/gau-tools/internal/database"
)

type ServerOpts struct {
	Port int
	Ip   string
}

func NewServerCommand() *cobra.Command {
	ServerConfig := &ServerOpts{}

	serverCmd := &cobra.Command{
		Use:   "server",
		Short: "Start the run-history API server",
		Long:  `Start the HTTP server that lists past recon runs and serves their artifacts`,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.SilenceUsage = true
			cfg := config.LoadConfig()
			database.InitDB(cfg)
			router := routes.InitRouter(database.DB)
			router.Run(fmt.Sprintf("%s:%d", ServerConfig.Ip, ServerConfig.Port))
		},
	}

	serverCmd.Flags().IntVarP(&ServerConfig.Port, "port", "p", 8080, "Port to run the server on")
	serverCmd.Flags().StringVarP(&ServerConfig.Ip, "ip", "i", "localhost", "IP address to bind the server to")

	return serverCmd
}
