package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var flagServer string

var rootCmd = &cobra.Command{
	Use:   "screencast",
	Short: "Screen sharing signaling server and room tools",
	Long: `screencast runs the signaling and room coordination service for
peer-to-peer screen sharing, and talks to a running server to manage rooms.

Examples:
  screencast serve
  screencast room create --device laptop
  screencast room participants AB12C3
  screencast watch AB12C3 --device tv`,
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", envOr("SCREENCAST_SERVER", "http://localhost:8080"), "base URL of the screencast server")
	rootCmd.AddCommand(serveCmd, roomCmd, watchCmd)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
