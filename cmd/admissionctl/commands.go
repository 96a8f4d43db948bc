package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sahilchouksey/admission-api/database"
	"github.com/sahilchouksey/admission-api/services"
	"github.com/sahilchouksey/admission-api/services/storage"
	"github.com/sahilchouksey/admission-api/utils/auth"
	"github.com/sahilchouksey/admission-api/utils/cache"
	"github.com/sahilchouksey/admission-api/utils/validation"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update all tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			fmt.Fprintln(cmd.OutOrStdout(), "✅ Migrations applied")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the admin user and demo universities",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, env, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			return database.NewSeeder(store.GetDB(), env.ADMIN_EMAIL, env.ADMIN_PASSWORD).SeedAll()
		},
	}
}

func importCmd() *cobra.Command {
	var archive bool

	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Merge a university/college/department CSV into the hierarchy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			store, _, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			var archiver services.Archiver
			if archive {
				spacesConfig, ok := storage.ConfigFromEnv()
				if !ok {
					return errors.New("--archive needs DO_SPACES_* to be configured")
				}
				client, err := storage.NewSpacesClient(spacesConfig)
				if err != nil {
					return err
				}
				archiver = client
			}

			result, err := services.NewImportService(store.GetDB(), archiver).ImportCSV(cmd.Context(), services.ImportRequest{
				FileName: filepath.Base(args[0]),
				Data:     data,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}

	cmd.Flags().BoolVar(&archive, "archive", false, "Archive the file to Spaces")
	return cmd
}

func createAdminCmd() *cobra.Command {
	var email, password, name string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin, replacing any account with the same email",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !validation.ValidateEmail(email) {
				return fmt.Errorf("invalid email %q", email)
			}

			store, _, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			accounts := newAccountService(store)
			admin, err := accounts.CreateAdmin(cmd.Context(), email, password, name)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✅ Created admin %s (id %d)\n", admin.Email, admin.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Admin email")
	cmd.Flags().StringVar(&password, "password", "", "Admin password (min 8 characters)")
	cmd.Flags().StringVar(&name, "name", "Administrator", "Display name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func checkAdminCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "check-admin",
		Short: "Verify an admin account and its password",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			admin, err := newAccountService(store).CheckAdmin(cmd.Context(), email, password)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✅ %s is an admin (id %d, created %s)\n",
				admin.Email, admin.ID, admin.CreatedAt.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Admin email")
	cmd.Flags().StringVar(&password, "password", "", "Admin password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func issueTokenCmd() *cobra.Command {
	var email, name string
	var create bool
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "issue-token",
		Short: "Issue an access token for an existing user",
		Long: `Issue an access token on behalf of the identity provider. With --create a
student identity without a GPA is provisioned when the email is unknown.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, env, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			if env.JWT_SECRET == "" {
				return errors.New("JWT_SECRET is not set")
			}

			accounts := newAccountService(store)
			user, err := accounts.FindByEmail(cmd.Context(), email)
			if errors.Is(err, services.ErrNotFound) && create {
				user, _, err = accounts.EnsureStudent(cmd.Context(), email, name)
			}
			if err != nil {
				return err
			}

			manager := auth.NewJWTManager(auth.JWTConfig{
				Secret: env.JWT_SECRET,
				Expiry: ttl,
				Issuer: env.JWT_ISSUER,
			})
			token, _, err := manager.GenerateAccessToken(user.ID, user.Email, user.IsAdmin, user.TokenVersion)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "User email")
	cmd.Flags().StringVar(&name, "name", "", "Name for a newly created student")
	cmd.Flags().BoolVar(&create, "create", false, "Create a student when the email is unknown")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Recount applications and repair department counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			db := store.GetDB()
			allocation := services.NewAllocationService(db, services.NewRankingService(db), nil)
			report, err := allocation.ReconcileCounters(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, report)
		},
	}
}

func newAccountService(store *database.GORMStore) *services.AccountService {
	db := store.GetDB()
	allocation := services.NewAllocationService(db, services.NewRankingService(db), cache.NewLocalLocker())
	return services.NewAccountService(db, allocation)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
