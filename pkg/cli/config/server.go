package config

import "github.com/urfave/cli/v3"

// Server holds server configuration
type Server struct {
	Addr          string
	TriggerSecret string
}

// Flags returns CLI flags for server configuration
func (c *Server) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Server address",
			Value:       "localhost:8080",
			Destination: &c.Addr,
			Sources:     cli.EnvVars("EASY_MINGW_ADDR"),
		},
		&cli.StringFlag{
			Name:        "trigger-secret",
			Usage:       "HMAC-SHA256 secret required on build triggers (X-Hub-Signature-256)",
			Destination: &c.TriggerSecret,
			Sources:     cli.EnvVars("EASY_MINGW_TRIGGER_SECRET"),
		},
	}
}
