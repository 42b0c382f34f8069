package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/vulntor/fabricscan/cmd/fabricscan/internal/format"
	"github.com/vulntor/fabricscan/pkg/appctx"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Short:   "Inspect the effective configuration",
		GroupID: "info",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the merged configuration (defaults, file, environment and flags)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, ok := appctx.Config(cmd.Context())
			if !ok {
				return fmt.Errorf("configuration not loaded")
			}
			out := format.FromCommand(cmd)
			all := mgr.All()
			if out.Mode() == format.ModeJSON {
				return out.PrintJSON(all)
			}

			keys := make([]string, 0, len(all))
			for k := range all {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			rows := make([][]string, 0, len(keys))
			for _, k := range keys {
				v, err := cast.ToStringE(all[k])
				if err != nil {
					v = fmt.Sprintf("%v", all[k])
				}
				rows = append(rows, []string{k, v})
			}
			return out.PrintTable([]string{"Key", "Value"}, rows)
		},
	})
	return cmd
}
