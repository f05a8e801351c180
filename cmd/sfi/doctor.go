package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/franz/storefront-insights/internal/dataset"
	"github.com/franz/storefront-insights/internal/store"
	"github.com/franz/storefront-insights/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks on the environment and configuration",
	Long: `Run diagnostic checks to ensure sfi can operate correctly.

This command checks:
- SQLite version compatibility
- Database accessibility, integrity and recorded runs
- Input tables (readable, required header columns present)
- Report directory permissions
- Disk space availability

Use this command to troubleshoot issues before running an analysis.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)

	doctorCmd.Flags().String("out", "", "Report directory to check (default: report-dir or artifacts/reports)")
}

type checkResult struct {
	name    string
	message string
	error   bool
	warning bool
}

func passed(name, format string, args ...interface{}) checkResult {
	return checkResult{name: name, message: fmt.Sprintf(format, args...)}
}

func warned(name, format string, args ...interface{}) checkResult {
	return checkResult{name: name, message: fmt.Sprintf(format, args...), warning: true}
}

func failed(name, format string, args ...interface{}) checkResult {
	return checkResult{name: name, message: fmt.Sprintf(format, args...), error: true}
}

// inputCheck names an input table and the columns the loader requires
type inputCheck struct {
	label    string
	path     string
	columns  []string
	optional bool
}

func runDoctor(cmd *cobra.Command, args []string) error {
	setupLogging()
	util.InfoLog("=== SFI Doctor - System Diagnostics ===")
	util.InfoLog("")

	listings, snapshots, requirements, tags := inputPaths()
	outDir, _ := cmd.Flags().GetString("out")
	if outDir == "" {
		outDir = GetConfigString("report-dir", filepath.Join("artifacts", "reports"))
	}

	results := []checkResult{
		checkSQLite(),
		checkDatabase(cmd.Context(), viper.GetString("db")),
	}
	for _, in := range []inputCheck{
		{label: "Listings", path: listings, columns: dataset.ListingColumns},
		{label: "Snapshots", path: snapshots, columns: dataset.SnapshotColumns},
		{label: "Requirements", path: requirements, columns: dataset.RequirementColumns},
		{label: "Tag matrix", path: tags, columns: dataset.TagMatrixColumns, optional: true},
	} {
		results = append(results, checkInputFile(in))
	}
	results = append(results, checkOutputDirectory(outDir), checkDiskSpace(outDir, "reports"))

	util.InfoLog("")
	util.InfoLog("=== Diagnostic Results ===")
	util.InfoLog("")

	errors, warnings := 0, 0
	for _, r := range results {
		line := r.name
		if r.message != "" {
			line += ": " + r.message
		}
		switch {
		case r.error:
			errors++
			util.ErrorLog("[✗] %s", line)
		case r.warning:
			warnings++
			util.WarnLog("[⚠] %s", line)
		default:
			util.SuccessLog("[✓] %s", line)
		}
	}

	util.InfoLog("")
	switch {
	case errors > 0:
		util.ErrorLog("❌ %d critical check(s) failed. Please resolve them before running sfi.", errors)
		return fmt.Errorf("system diagnostics failed")
	case warnings > 0:
		util.WarnLog("⚠️  %d check(s) produced warnings. Review them before proceeding.", warnings)
	default:
		util.SuccessLog("✅ All checks passed! Ready to analyze.")
	}
	return nil
}

func checkSQLite() checkResult {
	version := store.SQLiteVersion()
	if version == "" {
		return failed("SQLite", "unable to determine version")
	}
	return passed("SQLite", "version %s (built-in)", version)
}

// checkDatabase opens an existing results database, verifies its integrity
// and counts recorded runs. A missing file is fine; analyze creates it.
func checkDatabase(ctx context.Context, dbPath string) checkResult {
	const name = "Database"
	if dbPath == "" {
		return warned(name, "no database path specified (use --db flag or config)")
	}

	info, err := os.Stat(dbPath)
	switch {
	case os.IsNotExist(err):
		return passed(name, "%s (will be created on first run)", dbPath)
	case err != nil:
		return failed(name, "cannot access %s: %v", dbPath, err)
	case !info.Mode().IsRegular():
		return failed(name, "%s is not a regular file", dbPath)
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return failed(name, "cannot open %s: %v", dbPath, err)
	}
	defer db.Close()

	if err := db.CheckIntegrity(); err != nil {
		return failed(name, "integrity check failed: %v", err)
	}

	succeeded, _ := db.CountRunsByStatus(ctx, store.RunSucceeded)
	failedRuns, _ := db.CountRunsByStatus(ctx, store.RunFailed)
	msg := fmt.Sprintf("%s (%s, %d runs, %d failed)", dbPath, util.FormatBytes(info.Size()), succeeded, failedRuns)
	if failedRuns > 0 && succeeded == 0 {
		return warned(name, "%s", msg)
	}
	return passed(name, "%s", msg)
}

// checkInputFile reads the header row of an input table and compares it
// with the columns the loader requires
func checkInputFile(in inputCheck) checkResult {
	name := in.label + " table"
	if in.path == "" {
		if in.optional {
			return warned(name, "not found (tag trends will be skipped)")
		}
		return failed(name, "no path configured")
	}

	f, err := os.Open(in.path)
	if err != nil {
		return failed(name, "cannot read %s: %v", in.path, err)
	}
	defer f.Close()

	n, missing, err := dataset.CheckHeader(f, in.columns)
	if err != nil {
		return failed(name, "cannot read header of %s: %v", in.path, err)
	}
	if len(missing) > 0 {
		return failed(name, "%s is missing columns: %s", in.path, strings.Join(missing, ", "))
	}

	size := "unknown size"
	if info, err := f.Stat(); err == nil {
		size = util.FormatBytes(info.Size())
	}
	return passed(name, "%s (%s, %d columns)", in.path, size, n)
}

// checkOutputDirectory creates the report directory when needed and
// probes it with a scratch file
func checkOutputDirectory(path string) checkResult {
	const name = "Report directory"

	created := false
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(path, 0755); err != nil {
			return failed(name, "cannot create %s: %v", path, err)
		}
		created = true
	case err != nil:
		return failed(name, "cannot access %s: %v", path, err)
	case !info.IsDir():
		return failed(name, "%s is not a directory", path)
	}

	probe, err := os.CreateTemp(path, ".sfi_write_test")
	if err != nil {
		return failed(name, "cannot write to %s: %v", path, err)
	}
	probe.Close()
	os.Remove(probe.Name())

	if created {
		return passed(name, "%s (created)", path)
	}
	return passed(name, "%s (writable)", path)
}

// checkDiskSpace warns below 500 MB free or above 95% use; reports and
// the database stay small
func checkDiskSpace(path string, label string) checkResult {
	name := fmt.Sprintf("Disk space (%s)", label)

	var st syscall.Statfs_t
	if err := syscall.Statfs(path, &st); err != nil {
		return warned(name, "cannot determine disk space: %v", err)
	}

	avail := st.Bavail * uint64(st.Bsize)
	total := st.Blocks * uint64(st.Bsize)
	used := total - st.Bfree*uint64(st.Bsize)

	free := util.FormatBytes(int64(avail))
	switch {
	case avail < 500*1024*1024:
		return warned(name, "%s available (low space!)", free)
	case total > 0 && float64(used)/float64(total) > 0.95:
		return warned(name, "%s available (>95%% used)", free)
	}
	return passed(name, "%s available", free)
}
