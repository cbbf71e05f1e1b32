package main

import (
	"github.com/Versifine/mcprobe/internal/session"
	"github.com/spf13/cobra"
)

func statusCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Query the server list entry and ping",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			addr := a.cfg.Addr()
			s, err := session.Dial(ctx, addr,
				session.WithProtocolVersion(a.cfg.Client.ProtocolVersion),
				session.WithMetrics(a.metrics),
			)
			if err != nil {
				return err
			}
			defer s.Close()

			result, err := s.Status(ctx)
			if err != nil {
				return err
			}
			a.printer.Status(addr, result)
			return nil
		},
	}
}
