package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"abchart/internal/logging"
	"abchart/internal/target"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run only the target HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := logging.New(viper.GetString("log-level"))
		if err != nil {
			return err
		}
		defer log.Sync()

		srv, err := target.NewServer(targetConfig(), log)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		return srv.StartWithCallback(ctx, func(ctx context.Context) error {
			fmt.Printf("Target server running on http://%s\n", srv.Addr())
			fmt.Println("   Endpoints: /, /sizer?size=N, /static/index.html")
			fmt.Println("   Press Ctrl+C to stop")
			<-ctx.Done()
			return nil
		})
	},
}
