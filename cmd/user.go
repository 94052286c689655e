package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	config "time-bank.com/time-bank/internal/configs"
	repository "time-bank.com/time-bank/internal/repositories"
	"time-bank.com/time-bank/internal/services"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user records",
}

var (
	userID      string
	userName    string
	userEmail   string
	userBalance string
)

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a user with an opening time balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		balance, err := decimal.NewFromString(userBalance)
		if err != nil {
			return fmt.Errorf("invalid --balance %q: %w", userBalance, err)
		}

		users, err := newUserService()
		if err != nil {
			return err
		}

		user, err := users.Register(cmd.Context(), services.RegisterUserInput{
			ID:             userID,
			Name:           userName,
			Email:          userEmail,
			InitialBalance: balance,
		})
		if err != nil {
			return err
		}

		return printJSON(cmd, user)
	},
}

var userShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a user's balance and earned hours",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		users, err := newUserService()
		if err != nil {
			return err
		}

		profile, err := users.Profile(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		return printJSON(cmd, profile)
	},
}

func newUserService() (*services.UserService, error) {
	cfg := config.Load()

	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}

	return services.NewUserService(repository.NewStore(db), cfg.StoreTimeout), nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	userCreateCmd.Flags().StringVar(&userID, "id", "", "user id (generated when empty)")
	userCreateCmd.Flags().StringVar(&userName, "name", "", "display name")
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "email address")
	userCreateCmd.Flags().StringVar(&userBalance, "balance", "0", "opening time balance in hours")
	_ = userCreateCmd.MarkFlagRequired("name")

	userCmd.AddCommand(userCreateCmd, userShowCmd)
	rootCmd.AddCommand(userCmd)
}
