package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arnavshah/shift-planner-go/internal/app"
	"github.com/arnavshah/shift-planner-go/internal/config"
	"github.com/arnavshah/shift-planner-go/internal/logger"
	"github.com/arnavshah/shift-planner-go/pkg/auth"
	"github.com/arnavshah/shift-planner-go/pkg/database"
	"github.com/arnavshah/shift-planner-go/pkg/models"
)

func main() {
	root, c := newRootCmd()
	err := root.Execute()
	c.close()
	if err != nil {
		os.Exit(1)
	}
}

// cli carries the application built by the root command's pre-run hook.
type cli struct {
	app *app.App
}

// close releases the application whether or not the command succeeded.
func (c *cli) close() {
	if c.app == nil {
		return
	}
	_ = c.app.Log.Sync()
	_ = c.app.Close()
	c.app = nil
}

func newRootCmd() (*cobra.Command, *cli) {
	c := &cli{}

	root := &cobra.Command{
		Use:          "shiftctl",
		Short:        "Shift planner admin CLI",
		Long:         `Administrative tasks for the shift planner: schema migration, account creation and token minting.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			log, err := logger.New(cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			c.app, err = app.New(cmd.Context(), cfg, log)
			return err
		},
	}
	root.AddCommand(migrateCmd(c))
	root.AddCommand(createUserCmd(c))
	root.AddCommand(tokenCmd(c))
	return root, c
}

func migrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := database.Migrate(c.app.DB); err != nil {
				return err
			}
			c.app.Log.Info("schema up to date")
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func createUserCmd(c *cli) *cobra.Command {
	var r auth.Registration
	var role string

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create an admin or employee account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r.Role = models.Role(role)
			user, err := c.app.Auth.Register(cmd.Context(), r)
			if err != nil {
				return err
			}
			c.app.Log.Info("user created via cli", zap.String("user_id", user.ID))
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s (%s)\n", user.Role, user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&r.Name, "name", "", "display name")
	cmd.Flags().StringVar(&r.Email, "email", "", "login email")
	cmd.Flags().StringVar(&r.Password, "password", "", "login password")
	cmd.Flags().StringVar(&role, "role", string(models.RoleEmployee), "admin or employee")
	cmd.Flags().StringVar(&r.Timezone, "timezone", "UTC", "IANA timezone")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func tokenCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "token <email>",
		Short: "Print a bearer token for an existing user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := c.app.Auth.LookupByEmail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			token, err := c.app.Auth.Tokens().CreateToken(user)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}
