package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jonathan/policy-generator/internal/config"
	"github.com/jonathan/policy-generator/internal/logging"
	"github.com/jonathan/policy-generator/internal/observability"
	"github.com/jonathan/policy-generator/internal/orchestrator"
	"github.com/jonathan/policy-generator/internal/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// typeAll selects every policy type.
const typeAll = "all"

var (
	genType            string
	genDescription     string
	genDescriptionFile string
	genOutDir          string
	genCopy            bool
	genFallback        bool
	genPrint           bool
	genLocal           bool
	genGatewayURL      string
	genToken           string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a policy document",
	Long: `Generate a privacy policy, terms of service or cookie policy from a business
description. By default the request goes to a running gateway; --local calls
the provider directly.`,
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringVarP(&genType, "type", "t", string(types.PolicyPrivacy), "Policy type: privacy, terms, cookies or all")
	f.StringVarP(&genDescription, "description", "d", "", "Business description")
	f.StringVar(&genDescriptionFile, "description-file", "", "Read the business description from a file (- for stdin)")
	f.StringVarP(&genOutDir, "out", "o", "", "Save each document as markdown in this directory (overrides client.output_dir)")
	f.BoolVar(&genCopy, "copy", false, "Copy the document to the clipboard (single type only)")
	f.BoolVar(&genFallback, "fallback", false, "Use the built-in template if generation fails (overrides client.fallback_enabled)")
	f.BoolVar(&genPrint, "print", false, "Write the document to stdout (default when neither --out nor --copy is set)")
	f.BoolVar(&genLocal, "local", false, "Call the provider in-process instead of a gateway")
	f.StringVar(&genGatewayURL, "gateway-url", "", "Gateway endpoint (overrides client.gateway_url)")
	f.StringVar(&genToken, "token", "", "Bearer credential sent to the gateway (overrides client.credential)")
	generateCmd.MarkFlagsMutuallyExclusive("description", "description-file")
	rootCmd.AddCommand(generateCmd)
}

// generateOptions is the resolved form of the generate flags.
type generateOptions struct {
	Types       []types.PolicyType
	Description string
	OutDir      string
	Copy        bool
	Print       bool
	Fallback    bool
	Credential  string
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	opts, err := resolveGenerateOptions(cmd, cfg)
	if err != nil {
		return err
	}

	var gw orchestrator.GatewayClient
	if genLocal {
		g, closeClient, err := buildGateway(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer closeClient()
		gw = &orchestrator.InProcessClient{Gateway: g}
	} else {
		url := cfg.Client.GatewayURL
		if genGatewayURL != "" {
			url = genGatewayURL
		}
		gw = orchestrator.NewHTTPGatewayClient(url, cfg.Client.Timeout)
	}

	return generatePolicies(cmd.Context(), opts, gw, orchestrator.SystemClipboard{}, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

func resolveGenerateOptions(cmd *cobra.Command, cfg *config.Config) (generateOptions, error) {
	pts, err := parseTypes(genType)
	if err != nil {
		return generateOptions{}, err
	}

	description := genDescription
	if genDescriptionFile != "" {
		description, err = readDescription(genDescriptionFile, cmd.InOrStdin())
		if err != nil {
			return generateOptions{}, err
		}
	}

	if genCopy && len(pts) > 1 {
		return generateOptions{}, fmt.Errorf("--copy works with a single policy type")
	}

	outDir := cfg.Client.OutputDir
	if genOutDir != "" {
		outDir = genOutDir
	}

	opts := generateOptions{
		Types:       pts,
		Description: description,
		OutDir:      outDir,
		Copy:        genCopy,
		Print:       genPrint || (outDir == "" && !genCopy),
		Fallback:    cfg.Client.FallbackEnabled,
		Credential:  cfg.Client.Credential,
	}
	if cmd.Flags().Changed("fallback") {
		opts.Fallback = genFallback
	}
	if genToken != "" {
		opts.Credential = genToken
	}
	return opts, nil
}

// parseTypes accepts a single policy type or "all".
func parseTypes(s string) ([]types.PolicyType, error) {
	if strings.EqualFold(strings.TrimSpace(s), typeAll) {
		return types.AllPolicyTypes(), nil
	}
	pt, err := types.ParsePolicyType(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return nil, err
	}
	return []types.PolicyType{pt}, nil
}

func readDescription(path string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read description: %w", err)
	}
	return string(data), nil
}

// generatePolicies runs one orchestrator per type concurrently, then exports
// and prints the results in type order.
func generatePolicies(ctx context.Context, opts generateOptions, gw orchestrator.GatewayClient, clip orchestrator.Clipboard, logger *zap.Logger, stdout, stderr io.Writer) error {
	printer := observability.NewPrinter(stderr)
	start := time.Now()

	entries := make([]observability.Entry, len(opts.Types))
	var g errgroup.Group
	for i, pt := range opts.Types {
		o := orchestrator.New(gw, orchestrator.Options{
			FallbackEnabled: opts.Fallback,
			Credentials:     orchestrator.StaticCredential(opts.Credential),
			Notifier:        orchestrator.NotifierFunc(printer.PrintNotice),
			Saver:           orchestrator.DirSaver{Dir: opts.OutDir},
			Clipboard:       clip,
			Logger:          logger,
		})

		g.Go(func() error {
			entry := observability.Entry{Result: &orchestrator.Result{PolicyType: pt}}
			res, err := o.Submit(ctx, opts.Description, pt)
			if err != nil {
				entry.Err = err
				entries[i] = entry
				return nil
			}
			entry.Result = res

			if opts.OutDir != "" {
				name, err := o.ExportAsFile(res.Policy, pt)
				if err != nil {
					entry.Err = err
				}
				entry.Filename = name
			}
			if opts.Copy {
				if err := o.CopyToClipboard(res.Policy); err != nil {
					entry.Err = err
				} else {
					entry.Copied = true
				}
			}
			entries[i] = entry
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, e := range entries {
		if e.Err != nil {
			failed++
			continue
		}
		if opts.Print {
			if len(entries) > 1 {
				fmt.Fprintf(stdout, "<!-- %s -->\n", e.Result.PolicyType.Label())
			}
			fmt.Fprintln(stdout, strings.TrimRight(e.Result.Policy, "\n"))
		} else {
			printer.PrintPreview(e.Result)
		}
	}

	if len(entries) > 1 || opts.OutDir != "" {
		printer.PrintSummary(entries, time.Since(start))
	}

	if failed > 0 {
		if len(entries) == 1 {
			return entries[0].Err
		}
		return fmt.Errorf("%d of %d policies failed", failed, len(entries))
	}
	return nil
}
