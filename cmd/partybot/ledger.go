package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/susu3304/partybot/internal/api"
	"github.com/susu3304/partybot/internal/export"
	"github.com/susu3304/partybot/internal/filestore"
)

func exportCmd() *cobra.Command {
	var (
		sessionID string
		party     string
		output    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a party's settlement summary as text",
		Example: `  partybot export --session 123456789 --party BBQ
  partybot export --session 123456789 --party BBQ -o bbq.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			p, err := store.Party(sessionID, party)
			if err != nil {
				return fmt.Errorf("party %q in session %s: %w", party, sessionID, err)
			}
			doc := export.Render(p, time.Now())

			if output == "" {
				_, err = io.WriteString(cmd.OutOrStdout(), doc.Body+"\n")
				return err
			}
			if err := os.WriteFile(output, []byte(doc.Body), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session (channel) ID")
	cmd.Flags().StringVar(&party, "party", "", "Party name")
	cmd.Flags().StringVarP(&output, "out", "o", "", "Output file (default stdout)")
	_ = cmd.MarkFlagRequired("session")
	_ = cmd.MarkFlagRequired("party")
	return cmd
}

func importLegacyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-legacy FILE",
		Short: "Import chats from a data.json written by the previous bot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			chats, err := filestore.ReadLegacy(f)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			store, closeStore, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			if err := store.Import(cmd.Context(), chats); err != nil {
				return fmt.Errorf("import failed: %w", err)
			}
			logger.Info("legacy data imported", zap.String("file", args[0]), zap.Int("chats", len(chats)))
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d chats\n", len(chats))
			return nil
		},
	}
}

func tokenCmd() *cobra.Command {
	var (
		userID   string
		username string
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a web API token for a Discord user",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := api.IssueToken([]byte(cfg.JWTSecret), userID, username, time.Now(), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user-id", "", "Discord user ID")
	cmd.Flags().StringVar(&username, "username", "operator", "Username claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("user-id")
	return cmd
}
