package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"civicpulse/config"
	"civicpulse/models"
	"civicpulse/repository"
	"civicpulse/service"
	"civicpulse/utils"
)

func newStaffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staff",
		Short: "Manage admin and worker accounts (uses DB_* settings)",
	}

	var (
		staff    models.Staff
		role     string
		password string
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a staff account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			db, err := sql.Open("mysql", cfg.Database.MySQLDSN())
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				return fmt.Errorf("ping database: %w", err)
			}

			if staff.StaffID == "" {
				staff.StaffID = uuid.New().String()
			}
			staff.Role = models.ActorRole(role)
			staff.IsActive = true

			auth := service.NewAuthService(repository.NewStaffRepository(db), cfg.JWTSecret)
			if err := auth.RegisterStaff(ctx, &staff, password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", staff.Role, staff.Email, staff.StaffID)
			return nil
		},
	}
	add.Flags().StringVar(&staff.StaffID, "id", "", "staff id (generated when empty)")
	add.Flags().StringVar(&staff.Email, "email", "", "login email")
	add.Flags().StringVar(&staff.FullName, "name", "", "full name")
	add.Flags().StringVar(&role, "role", string(models.RoleWorker), "admin or worker")
	add.Flags().StringSliceVar(&staff.Skills, "skills", nil, "worker skill keywords")
	add.Flags().IntVar(&staff.MaxTasksPerDay, "max-tasks", 8, "worker daily task limit")
	add.Flags().StringVar(&password, "password", "", "initial password (min 8 chars)")
	_ = add.MarkFlagRequired("email")
	_ = add.MarkFlagRequired("password")

	cmd.AddCommand(add)
	return cmd
}

func newTokenCmd() *cobra.Command {
	var (
		subject string
		role    string
		hours   int
		secret  string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed token for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch models.ActorRole(role) {
			case models.RoleCitizen, models.RoleAdmin, models.RoleWorker:
			default:
				return fmt.Errorf("unknown role %q", role)
			}
			if secret == "" {
				cfg, err := config.LoadConfig()
				if err != nil {
					return err
				}
				secret = cfg.JWTSecret
			}
			tok, err := utils.GenerateJWT(subject, role, []byte(secret), hours)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "sub", "", "actor id")
	cmd.Flags().StringVar(&role, "role", string(models.RoleCitizen), "citizen, admin or worker")
	cmd.Flags().IntVar(&hours, "hours", 24, "lifetime in hours")
	cmd.Flags().StringVar(&secret, "secret", "", "signing secret (JWT_SECRET when empty)")
	_ = cmd.MarkFlagRequired("sub")
	return cmd
}
