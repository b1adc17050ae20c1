package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ember/internal/diag"
	"ember/internal/driver"
	"ember/internal/gencache"
	"ember/internal/layout"
	"ember/internal/observ"
	"ember/internal/prof"
	"ember/internal/sample"
	"ember/internal/target"
)

var genCmd = &cobra.Command{
	Use:   "gen [flags] [module...]",
	Short: "Generate IR artifacts for built-in modules",
	Long: "Generate lowers the named built-in modules to LLVM-flavored IR\n" +
		"and writes one .ll file per module. With no arguments every\n" +
		"built-in module is generated. See 'ember targets' for triples.",
	Args:      cobra.ArbitraryArgs,
	ValidArgs: sample.Names(),
	RunE:      genExecution,
}

func genExecution(cmd *cobra.Command, args []string) error {
	tripleFlag, err := cmd.Flags().GetString("target")
	if err != nil {
		return err
	}
	outFlag, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	verify, err := cmd.Flags().GetBool("verify")
	if err != nil {
		return err
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return err
	}
	cacheDir, err := cmd.Flags().GetString("cache-dir")
	if err != nil {
		return err
	}
	unsafeClaims, err := cmd.Flags().GetBool("unsafe-claims")
	if err != nil {
		return err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	showStats, err := cmd.Flags().GetBool("stats")
	if err != nil {
		return err
	}
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}
	timings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return err
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	colorValue, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return err
	}
	colored, err := applyColorMode(colorValue)
	if err != nil {
		return err
	}
	uiModeValue, err := readUIMode(uiValue)
	if err != nil {
		return err
	}

	timer := observ.NewTimer()
	setupIdx := timer.Begin("setup")

	tracer, traceCleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer traceCleanup()

	session, err := startProfiles(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if serr := session.Stop(); serr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%v\n", serr)
		}
	}()

	manifest, err := target.LoadManifest(configPath)
	if err != nil {
		return err
	}
	registry := target.NewRegistry()
	manifest.Apply(registry)

	triple := tripleFlag
	if triple == "" {
		triple = manifest.Build.Target
	}
	var tgt layout.Target
	if triple == "" {
		tgt = registry.Default()
	} else {
		tgt, err = registry.Resolve(triple)
		if err != nil {
			return fmt.Errorf("%w (known: %s)", err, strings.Join(registry.Triples(), ", "))
		}
	}

	outDir := outFlag
	if outDir == "" {
		outDir = manifest.Build.OutDir
	}
	if !cmd.Root().PersistentFlags().Changed("quiet") && manifest.Build.LogLevel == 0 {
		quiet = true
	}

	mods, err := sample.Modules(args...)
	if err != nil {
		return fmt.Errorf("%w (available: %s)", err, strings.Join(sample.Names(), ", "))
	}

	bag := diag.NewBag(maxDiagnostics)
	opts := driver.Options{
		Target:      tgt,
		OutDir:      outDir,
		Jobs:        jobs,
		Verify:      verify,
		TrustClaims: unsafeClaims || manifest.Build.UnsafeClaims,
		Tracer:      tracer,
		Reporter:    diag.BagReporter{Bag: bag},
	}
	if !noCache {
		dir := cacheDir
		if dir == "" {
			dir, err = gencache.DefaultDir("ember")
			if err != nil {
				return fmt.Errorf("cache dir: %w", err)
			}
		}
		cache, cerr := gencache.Open(dir)
		if cerr != nil {
			diag.Warnf(opts.Reporter, diag.DrvCacheReset, "cache disabled: %v", cerr)
		} else {
			opts.Cache = cache
		}
	}
	timer.End(setupIdx, "")

	genIdx := timer.Begin("generate")
	var res *driver.Result
	if shouldUseTUI(uiModeValue) && !quiet && len(mods) > 0 {
		res, err = runGenWithUI(cmd.Context(), "ember gen", mods, opts)
	} else {
		res, err = driver.Build(cmd.Context(), mods, opts)
	}
	timer.End(genIdx, "")
	if err != nil {
		return err
	}

	printer := diag.NewPrinter(cmd.ErrOrStderr(), colored)
	printer.Print(bag)
	printer.Summary(bag)

	if !quiet {
		for _, m := range res.Modules {
			switch {
			case m.Err != nil:
				fmt.Fprintf(cmd.OutOrStdout(), "failed %s\n", m.Name)
			case m.Path != "" && m.Cached:
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (cached)\n", m.Path)
			case m.Path != "":
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", m.Path)
			}
		}
	}
	if showStats {
		printStats(cmd.OutOrStdout(), res, colored)
	}
	if timings {
		printStageTimings(cmd.OutOrStdout(), res.Timings)
		fmt.Fprint(cmd.OutOrStdout(), timer.Summary())
	}

	if res.Failed > 0 {
		return fmt.Errorf("generation failed for %d of %d modules", res.Failed, len(mods))
	}
	return nil
}

func startProfiles(cmd *cobra.Command) (*prof.Session, error) {
	cpuPath, err := cmd.Flags().GetString("cpuprofile")
	if err != nil {
		return nil, err
	}
	memPath, err := cmd.Flags().GetString("memprofile")
	if err != nil {
		return nil, err
	}
	tracePath, err := cmd.Flags().GetString("runtime-trace")
	if err != nil {
		return nil, err
	}
	return prof.Start(prof.Config{CPUPath: cpuPath, MemPath: memPath, TracePath: tracePath})
}

func init() {
	genCmd.Flags().String("target", "", "target triple (default from ember.toml)")
	genCmd.Flags().String("out", "", "output directory (default from ember.toml)")
	genCmd.Flags().Int("jobs", 0, "parallel module translations (0 = all cores)")
	genCmd.Flags().Bool("verify", true, "run the IR checker over the output")
	genCmd.Flags().Bool("no-cache", false, "bypass the artifact cache")
	genCmd.Flags().String("cache-dir", "", "artifact cache location (default per-user)")
	genCmd.Flags().Bool("unsafe-claims", false, "elide claimed checks")
	genCmd.Flags().String("ui", "auto", "user interface (auto|on|off)")
	genCmd.Flags().Bool("stats", false, "print per-module translation statistics")
	genCmd.Flags().String("config", "ember.toml", "manifest path")
	genCmd.Flags().String("cpuprofile", "", "write a CPU profile")
	genCmd.Flags().String("memprofile", "", "write a heap profile")
	genCmd.Flags().String("runtime-trace", "", "write a Go runtime trace")
}
