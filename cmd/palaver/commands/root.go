package commands

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"palaver/internal/app"
)

var (
	home       string
	passphrase string
	roomURL    string

	wire *app.Wire
	cfg  app.Config
)

func Execute() error {
	root := &cobra.Command{
		Use:   "palaver",
		Short: "Multiparty off-the-record chat CLI",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".palaver")
			}
			if err := os.MkdirAll(home, 0o700); err != nil {
				return err
			}

			var err error
			cfg, err = app.LoadConfig(home)
			if err != nil {
				return err
			}
			if roomURL != "" {
				cfg.RoomURL = roomURL
			}

			wire, err = app.NewWire(cfg)
			return err
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "config dir (default ~/.palaver)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase to protect keys")
	root.PersistentFlags().StringVar(&roomURL, "room", "", "room server base URL (e.g. http://127.0.0.1:8080)")

	root.AddCommand(initCmd(), fingerprintCmd(), chatCmd())
	return root.Execute()
}
