package commands

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vulntor/fabricscan/cmd/fabricscan/internal/format"
	"github.com/vulntor/fabricscan/pkg/classify"
	"github.com/vulntor/fabricscan/pkg/config"
	"github.com/vulntor/fabricscan/pkg/cursor"
	"github.com/vulntor/fabricscan/pkg/dump"
	"github.com/vulntor/fabricscan/pkg/stringutil"
)

const maxCellWidth = 32

// parseRun is the machine-readable result of one parse invocation.
type parseRun struct {
	RunID      string            `json:"run_id"`
	Profile    string            `json:"profile"`
	Reports    []*dump.Report    `json:"reports"`
	Coverage   classify.Coverage `json:"coverage"`
	Duplicates []string          `json:"duplicates,omitempty"`
	Failures   []parseFailure    `json:"failures,omitempty"`
}

type parseFailure struct {
	File  string `json:"file"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error"`
}

func newParseCommand() *cobra.Command {
	var details bool

	cmd := &cobra.Command{
		Use:     "parse <dump>...",
		Short:   "Parse support dumps and classify Name Server entries",
		GroupID: "core",
		Example: `  fabricscan parse switch01_supportshow.txt switch02_supportshow.txt
  fabricscan parse --profile hpe_3par --output json array01.txt
  fabricscan parse --details --trace-file trace.jsonl sw*.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			run, runErr := runParse(cmd.Context(), cfg, args)
			if run == nil {
				return runErr
			}
			out := format.FromCommand(cmd)
			if err := renderParse(out, run, details); err != nil {
				return err
			}
			if runErr != nil && out.Mode() == format.ModeJSON {
				return renderedError{runErr}
			}
			return runErr
		},
	}

	def := config.DefaultConfig()
	f := cmd.Flags()
	f.StringP("profile", "p", def.Parse.Profile, "Dump profile (see: fabricscan patterns --profiles)")
	f.IntP("workers", "w", def.Parse.Workers, "Concurrent dumps and classification workers, 0 = number of CPUs")
	f.String("charset", def.Parse.Charset, "Charset for lines that are not valid UTF-8, or none")
	f.Int("max-line-size", def.Parse.MaxLineSize, "Longest accepted input line in bytes")
	f.String("trace-file", "", "Append every classification outcome to this JSONL file")
	f.BoolVar(&details, "details", false, "Print the classified Name Server entries of each dump")

	return cmd
}

// parserOptions turns the parse configuration into dump parser options. The returned
// trace writer may be nil and must be closed by the caller.
func parserOptions(cfg config.Config) ([]dump.Option, *classify.TraceWriter, error) {
	cursorOpts, err := cursorOptions(cfg)
	if err != nil {
		return nil, nil, err
	}

	trace, err := classify.NewTraceWriter(cfg.Parse.TraceFile)
	if err != nil {
		return nil, nil, err
	}

	opts := []dump.Option{
		dump.WithCursorOptions(cursorOpts...),
		dump.WithWorkers(workerCount(cfg)),
		dump.WithTrace(trace),
	}
	if len(cfg.Sections) > 0 {
		opts = append(opts, dump.WithSections(cfg.Sections...))
	}
	return opts, trace, nil
}

// cursorOptions applies the charset and line size limits shared by every line reader.
func cursorOptions(cfg config.Config) ([]cursor.Option, error) {
	enc, err := cursor.CharsetByName(cfg.Parse.Charset)
	if err != nil {
		return nil, fmt.Errorf("%w: parse.charset: %v", config.ErrInvalidConfig, err)
	}
	opts := []cursor.Option{cursor.WithFallbackCharset(enc)}
	if cfg.Parse.MaxLineSize > 0 {
		opts = append(opts, cursor.WithMaxLineSize(cfg.Parse.MaxLineSize))
	}
	return opts, nil
}

func workerCount(cfg config.Config) int {
	if cfg.Parse.Workers > 0 {
		return cfg.Parse.Workers
	}
	return runtime.NumCPU()
}

// runParse parses files concurrently. A file that fails to parse or repeats the business
// key of a file listed before it is reported and does not stop the others; the returned error aggregates them and
// is nil only when every file was recorded. A nil run means nothing could be parsed.
func runParse(ctx context.Context, cfg config.Config, files []string) (*parseRun, error) {
	reg, cascade, err := loadCatalogs(cfg)
	if err != nil {
		return nil, err
	}
	opts, trace, err := parserOptions(cfg)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := trace.Close(); err != nil {
			log.Warn().Err(err).Msg("closing trace file")
		}
	}()

	parser, err := dump.NewParser(reg, cascade, cfg.Parse.Profile, opts...)
	if err != nil {
		return nil, err
	}

	run := &parseRun{RunID: uuid.NewString(), Profile: parser.Profile()}
	logger := log.With().Str("run_id", run.RunID).Str("profile", run.Profile).Logger()
	logger.Info().Int("files", len(files)).Msg("parse started")

	// Workers fill their own slot; failures and duplicates resolve in argument order.
	reports := make([]*dump.Report, len(files))
	errs := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount(cfg))
	for i, path := range files {
		g.Go(func() error {
			rep, err := parser.ParseFile(gctx, path)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				logger.Error().Err(err).Str("file", path).Msg("dump failed")
				errs[i] = err
				return nil
			}
			reports[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var readErrs, dupErrs []error
	inv := dump.NewInventory()
	for i, path := range files {
		if err := errs[i]; err != nil {
			readErrs = append(readErrs, err)
			run.Failures = append(run.Failures, parseFailure{File: path, Code: dump.ErrorCode(err), Error: err.Error()})
			continue
		}
		if err := inv.Add(reports[i]); err != nil {
			dupErrs = append(dupErrs, err)
			run.Duplicates = append(run.Duplicates, reports[i].Source)
		}
	}

	run.Reports = inv.Reports()
	for _, rep := range run.Reports {
		if rep.Coverage != nil {
			run.Coverage.Merge(*rep.Coverage)
		}
	}
	logger.Info().
		Int("reports", len(run.Reports)).
		Int("duplicates", len(run.Duplicates)).
		Int("failures", len(run.Failures)).
		Int("ns_rows", run.Coverage.Total).
		Msg("parse finished")

	switch {
	case len(readErrs) > 0:
		return run, fmt.Errorf("%d of %d dumps failed: %w", len(readErrs), len(files), errors.Join(readErrs...))
	case len(dupErrs) > 0:
		return run, fmt.Errorf("%d duplicate dumps skipped: %w", len(dupErrs), errors.Join(dupErrs...))
	default:
		return run, nil
	}
}

func renderParse(out format.Formatter, run *parseRun, details bool) error {
	if out.Mode() == format.ModeJSON {
		return out.PrintJSON(run)
	}

	rows := make([][]string, 0, len(run.Reports))
	for _, rep := range run.Reports {
		rows = append(rows, []string{
			rep.Source,
			rep.Profile,
			stringutil.Deref(rep.Key, "-"),
			strconv.Itoa(len(rep.Order)),
			strconv.Itoa(len(rep.NameServer)),
			dashIfEmpty(strings.Join(rep.Truncated, ",")),
			strconv.Itoa(rep.Lines),
		})
	}
	if err := out.PrintTable([]string{"Source", "Profile", "Key", "Sections", "NS Rows", "Truncated", "Lines"}, rows); err != nil {
		return err
	}

	if details {
		for _, rep := range run.Reports {
			if len(rep.NameServer) == 0 {
				continue
			}
			if err := out.PrintSummary("\n" + rep.Source); err != nil {
				return err
			}
			if err := out.PrintTable(deviceHeaders, deviceRows(rep)); err != nil {
				return err
			}
		}
	}

	if run.Coverage.Total > 0 {
		if err := out.PrintCoverage("Name Server coverage", run.Coverage); err != nil {
			return err
		}
	}

	msg := fmt.Sprintf("%d dumps parsed", len(run.Reports))
	if n := len(run.Duplicates); n > 0 {
		msg += fmt.Sprintf(", %d duplicates skipped", n)
	}
	if n := len(run.Failures); n > 0 {
		msg += fmt.Sprintf(", %d failed", n)
	}
	return out.PrintSummary(msg + " (run " + run.RunID + ")")
}

var deviceHeaders = []string{"PID", "Port WWN", "Match", "Rule", "Manufacturer", "Model", "Serial", "Name", "Port"}

func deviceRows(rep *dump.Report) [][]string {
	rows := make([][]string, 0, len(rep.NameServer))
	for _, e := range rep.NameServer {
		d := e.Device
		rows = append(rows, []string{
			e.Row.PID,
			e.Row.PortWWN,
			matchType(d),
			ruleLabel(d),
			cell(d.DeviceManufacturer),
			cell(d.DeviceModel),
			cell(d.DeviceSN),
			cell(firstSet(d.DeviceName, d.HostName)),
			cell(d.DevicePort),
		})
	}
	return rows
}

func matchType(d classify.Result) string {
	switch {
	case d.NodeSymbUsed:
		return "node"
	case d.PortSymbUsed:
		return "port"
	case d.DeviceName != nil || d.DevicePort != nil:
		return "raw"
	default:
		return "-"
	}
}

func ruleLabel(d classify.Result) string {
	var ids []string
	if d.NodeSymbRuleID != nil {
		ids = append(ids, strconv.Itoa(*d.NodeSymbRuleID))
	}
	if d.PortSymbRuleID != nil {
		ids = append(ids, strconv.Itoa(*d.PortSymbRuleID))
	}
	return dashIfEmpty(strings.Join(ids, "+"))
}

func cell(p *string) string {
	return stringutil.Ellipsis(stringutil.Deref(p, "-"), maxCellWidth)
}

func firstSet(ps ...*string) *string {
	for _, p := range ps {
		if p != nil {
			return p
		}
	}
	return nil
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
