package main

import (
	"github.com/Versifine/mcprobe/internal/session"
	"github.com/spf13/cobra"
)

func loginCmd(flags *globalFlags) *cobra.Command {
	var (
		username string
		play     bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Join in offline mode and report spawns until disconnected",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.close()

			if cmd.Flags().Changed("username") {
				a.cfg.Client.Username = username
			}
			a.printer.ExpectUsername(a.cfg.Client.Username)

			ctx := cmd.Context()
			s, err := session.Dial(ctx, a.cfg.Addr(),
				session.WithProtocolVersion(a.cfg.Client.ProtocolVersion),
				session.WithObserver(a.printer),
				session.WithMetrics(a.metrics),
			)
			if err != nil {
				return err
			}
			defer s.Close()

			if _, err := s.Login(ctx, a.cfg.Client.Username); err != nil {
				return err
			}
			if !play {
				return nil
			}

			err = s.Play(ctx)
			a.printer.Summary(s.Summary())
			if err != nil && !interrupted(err) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "offline-mode username (1-16 characters)")
	cmd.Flags().BoolVar(&play, "play", true, "stay connected after login and report play packets")

	return cmd
}
