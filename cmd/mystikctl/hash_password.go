package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mystik-app/backend/pkg/utils"
)

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
	Long: `Print a bcrypt hash for ADMIN_PASSWORD_HASH.

The password is read from the first argument, or from the first line of stdin.

Examples:
  mystikctl hash-password 's3nha'
  echo 's3nha' | mystikctl hash-password`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var password string
		if len(args) == 1 {
			password = args[0]
		} else {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("reading password from stdin: %w", err)
			}
			password = strings.TrimRight(line, "\r\n")
		}
		hash, err := utils.HashPassword(password)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
		return err
	},
}

func init() {
	rootCmd.AddCommand(hashPasswordCmd)
}
