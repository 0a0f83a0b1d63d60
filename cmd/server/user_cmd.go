package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/openmined/davbox/internal/server"
	"github.com/openmined/davbox/internal/server/auth"
	"github.com/spf13/cobra"
)

var errNoUserDB = errors.New("`auth.db_path` is not configured")

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users in the credential database",
	}
	cmd.AddCommand(newUserAddCmd(), newUserRemoveCmd(), newUserListCmd())
	return cmd
}

func newUserAddCmd() *cobra.Command {
	var password string
	var replace bool

	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Add a user, reading the password from --password or stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				p, err := readPassword(cmd.InOrStdin())
				if err != nil {
					return err
				}
				password = p
			}

			return withUserStore(cmd, func(users *auth.SQLStore) error {
				if err := users.PutUser(cmd.Context(), args[0], password, replace); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "user %s saved\n", args[0])
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password for the user")
	cmd.Flags().BoolVar(&replace, "replace", false, "Reset the password of an existing user")
	return cmd
}

func newUserRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <username>",
		Aliases: []string{"rm"},
		Short:   "Remove a user",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUserStore(cmd, func(users *auth.SQLStore) error {
				if err := users.RemoveUser(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "user %s removed\n", args[0])
				return nil
			})
		},
	}
}

func newUserListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List users",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUserStore(cmd, func(users *auth.SQLStore) error {
				list, err := users.ListUsers(cmd.Context())
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "USERNAME\tCREATED\tUPDATED")
				for _, u := range list {
					fmt.Fprintf(w, "%s\t%s\t%s\n", u.Username, humanize.Time(u.CreatedAt), humanize.Time(u.UpdatedAt))
				}
				return w.Flush()
			})
		},
	}
}

func withUserStore(cmd *cobra.Command, fn func(*auth.SQLStore) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Auth.DBPath == "" {
		return errNoUserDB
	}
	cmd.SilenceUsage = true

	users, err := server.OpenUserStore(cfg.Auth.DBPath)
	if err != nil {
		return err
	}
	defer users.DB().Close()

	return fn(users)
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	return password, nil
}
