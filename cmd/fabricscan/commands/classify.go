package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vulntor/fabricscan/cmd/fabricscan/internal/format"
	"github.com/vulntor/fabricscan/pkg/classify"
	"github.com/vulntor/fabricscan/pkg/cursor"
)

type classifiedPair struct {
	PortSymb *string         `json:"port_symb,omitempty"`
	NodeSymb *string         `json:"node_symb,omitempty"`
	Device   classify.Result `json:"device"`
}

func newClassifyCommand() *cobra.Command {
	var (
		port, node string
		file       string
	)

	cmd := &cobra.Command{
		Use:     "classify",
		Short:   "Classify symbolic names without a dump",
		GroupID: "core",
		Long: `Runs the device signature cascade over one port/node symbolic-name pair, or over a
file of tab-separated "port<TAB>node" lines. An empty column is an absent name.`,
		Example: `  fabricscan classify --node "HPE_3PAR 8200 - 4UW0001234 - fw:3.3.1"
  fabricscan classify --port "HPE_3PAR 8200 - 4UW0001234 - 1:2:3"
  fabricscan classify --file names.tsv --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			_, cascade, err := loadCatalogs(cfg)
			if err != nil {
				return err
			}
			out := format.FromCommand(cmd)

			if file == "" {
				if !cmd.Flags().Changed("port") && !cmd.Flags().Changed("node") {
					return fmt.Errorf("one of --port, --node or --file is required")
				}
				pair := classify.Pair{}
				if cmd.Flags().Changed("port") {
					pair.PortSymb = &port
				}
				if cmd.Flags().Changed("node") {
					pair.NodeSymb = &node
				}
				return renderSingle(out, pair, cascade.Classify(pair.PortSymb, pair.NodeSymb))
			}

			cursorOpts, err := cursorOptions(cfg)
			if err != nil {
				return err
			}
			pairs, err := readPairs(file, cursorOpts...)
			if err != nil {
				return err
			}
			results, err := cascade.ClassifyAll(cmd.Context(), pairs, workerCount(cfg))
			if err != nil {
				return err
			}
			return renderBatch(out, pairs, results)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "Port symbolic name")
	cmd.Flags().StringVar(&node, "node", "", "Node symbolic name")
	cmd.Flags().StringVarP(&file, "file", "f", "", "File of tab-separated port/node pairs")
	cmd.MarkFlagsMutuallyExclusive("file", "port")
	cmd.MarkFlagsMutuallyExclusive("file", "node")

	return cmd
}

// readPairs reads "port<TAB>node" lines with the same line reader as dump parsing.
// Blank lines and lines starting with # are skipped; a line without a tab is a port
// name only.
func readPairs(path string, opts ...cursor.Option) ([]classify.Pair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pairs []classify.Pair
	cur := cursor.NewReader(f, opts...)
	for line, ok := cur.Current(); ok; line, ok = cur.Advance() {
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		portName, nodeName, _ := strings.Cut(line, "\t")
		pairs = append(pairs, classify.Pair{PortSymb: nonEmpty(portName), NodeSymb: nonEmpty(nodeName)})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("read %s line %d: %w", path, cur.LineNo()+1, err)
	}
	return pairs, nil
}

func nonEmpty(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func renderSingle(out format.Formatter, pair classify.Pair, res classify.Result) error {
	if out.Mode() == format.ModeJSON {
		return out.PrintJSON(classifiedPair{PortSymb: pair.PortSymb, NodeSymb: pair.NodeSymb, Device: res})
	}
	var rows [][]string
	for _, name := range classify.Fields() {
		if v, ok := res.Get(name); ok {
			rows = append(rows, []string{name, v})
		}
	}
	if err := out.PrintTable([]string{"Field", "Value"}, rows); err != nil {
		return err
	}
	return out.PrintSummary(fmt.Sprintf("match: %s, rule: %s", matchType(res), ruleLabel(res)))
}

func renderBatch(out format.Formatter, pairs []classify.Pair, results []classify.Result) error {
	cov := classify.Summarize(results)
	if out.Mode() == format.ModeJSON {
		items := make([]classifiedPair, len(pairs))
		for i := range pairs {
			items[i] = classifiedPair{PortSymb: pairs[i].PortSymb, NodeSymb: pairs[i].NodeSymb, Device: results[i]}
		}
		return out.PrintJSON(map[string]any{"results": items, "coverage": cov})
	}

	rows := make([][]string, len(results))
	for i, d := range results {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			matchType(d),
			ruleLabel(d),
			cell(d.DeviceManufacturer),
			cell(d.DeviceModel),
			cell(d.DeviceSN),
			cell(firstSet(d.DeviceName, d.HostName)),
			cell(d.DevicePort),
		}
	}
	if err := out.PrintTable([]string{"#", "Match", "Rule", "Manufacturer", "Model", "Serial", "Name", "Port"}, rows); err != nil {
		return err
	}
	return out.PrintCoverage("Classification coverage", cov)
}
