package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vietddude/abiregistry/internal/core/config"
	"github.com/vietddude/abiregistry/internal/core/domain"
	"github.com/vietddude/abiregistry/internal/export"
)

var (
	exportOut  string
	exportDest string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Copy every ABI from a Foundry build output directory",
	Run:   runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "build output directory (default: first build-output root)")
	exportCmd.Flags().StringVar(&exportDest, "dest", "", "destination directory (default: registry.export_dir)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig(cmd)

	out := exportOut
	if out == "" {
		out = buildOutputRoot(cfg)
	}
	if out == "" {
		slog.Error("No build output directory: pass --out or declare a build-output root")
		os.Exit(1)
	}
	dest := exportDest
	if dest == "" {
		dest = cfg.ExportDir()
	}

	result, err := export.ExportBuildOutput(out, dest)
	if err != nil {
		slog.Error("Export failed", "error", err)
		os.Exit(1)
	}
	for _, e := range result.Errors {
		slog.Warn("Artifact error", "path", e.Path, "reason", e.Reason)
	}
	slog.Info("Foundry ABIs exported",
		"dest", dest,
		"exported", len(result.Exported),
		"unchanged", len(result.Unchanged),
		"skipped", len(result.Skipped),
	)
}

func buildOutputRoot(cfg *config.AppConfig) string {
	for _, root := range cfg.Roots {
		if domain.SourceKind(root.Kind) == domain.SourceBuildOutput {
			return cfg.Path(root.Path)
		}
	}
	return ""
}
