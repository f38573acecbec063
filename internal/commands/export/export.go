package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/user/release-portal/internal/config"
	"github.com/user/release-portal/internal/logger"
	"github.com/user/release-portal/pkg/access"
	"github.com/user/release-portal/pkg/portal"
	"github.com/user/release-portal/pkg/report"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a release status report as CSV",
		RunE:  run,
	}

	cmd.Flags().String("release", "", "release ID to export")
	cmd.Flags().String("role", string(access.RoleReleaseManager), "role to act as")
	cmd.Flags().String("out", "", "output file (defaults to a name derived from the release)")
	_ = cmd.MarkFlagRequired("release")

	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	logger.SetDebug(cfg.Debug)

	releaseID, _ := cmd.Flags().GetString("release")
	role, _ := cmd.Flags().GetString("role")
	outPath, _ := cmd.Flags().GetString("out")

	ctrl := access.NewController(access.DefaultProfiles())
	if err := ctrl.Login(access.Role(role)); err != nil {
		return err
	}
	if !ctrl.HasRole(access.RoleReleaseManager, access.RoleApplicationOwner) {
		return errors.New("only release managers and application owners can export reports")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	client := portal.NewClient(cfg.Client.BaseURL)

	healthCtx, healthCancel := context.WithTimeout(ctx, time.Duration(cfg.Client.HealthInterval))
	defer healthCancel()
	if err := client.Health(healthCtx); err != nil {
		return fmt.Errorf("portal API unreachable: %w", err)
	}

	release, err := client.GetRelease(ctx, releaseID)
	if err != nil {
		return err
	}
	if release == nil {
		return fmt.Errorf("release %s not found", releaseID)
	}

	if outPath == "" {
		outPath = report.Filename(*release)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()

	if err := report.WriteReleaseStatus(f, *release); err != nil {
		return err
	}

	logger.Info().Str("release_id", releaseID).Str("file", outPath).Msg("exported release status")
	return nil
}
