package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vietddude/abiregistry/internal/core/domain"
	"github.com/vietddude/abiregistry/internal/registry"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show the ABIs and addresses held by the registry",
	Run:   runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig(cmd)

	snapshot, err := registry.Load(cfg.RegistryDir())
	if err != nil {
		slog.Error("Failed to read registry", "error", err)
		os.Exit(1)
	}
	printSnapshot(os.Stdout, snapshot)
}

func printSnapshot(out io.Writer, snapshot *registry.Snapshot) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "ENTITY\tABI\tCHAIN\tADDRESS")

	for _, name := range snapshot.Names() {
		abiCol := "-"
		if descriptor, ok := snapshot.Descriptors[name]; ok {
			summary, err := registry.Summarize(descriptor)
			if err != nil {
				abiCol = "unparsable"
			} else {
				abiCol = summary.String()
			}
		}

		addresses := snapshot.Addresses[name]
		if len(addresses) == 0 {
			_, _ = fmt.Fprintf(w, "%s\t%s\t-\t-\n", name, abiCol)
			continue
		}
		chains := make([]domain.ChainID, 0, len(addresses))
		for chain := range addresses {
			chains = append(chains, chain)
		}
		slices.Sort(chains)
		for i, chain := range chains {
			if i > 0 {
				name, abiCol = "", ""
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, abiCol, chain.Label(), addresses[chain])
		}
	}
	_ = w.Flush()
}
