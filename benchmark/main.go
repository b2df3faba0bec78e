// Package main provides a performance benchmarking tool for the codehealth CLI.
// It measures analyze wall time per project and worker count, treating the first
// successful run as cold and averaging the rest as warm, and writes the results as CSV.
//
// Prerequisites:
// - codehealth binary installed and available in PATH
// - JavaScript/TypeScript projects checked out under the base directory
//
// Usage: go run benchmark/main.go [project-base-dir] [project...]
//
//	project-base-dir: Directory containing the projects
//	project:          Directory names under the base (default: every subdirectory)
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
)

// BenchmarkResult holds the cold and warm timings of one project at one worker count.
type BenchmarkResult struct {
	Project  string
	Workers  int
	ColdTime string
	WarmTime string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	ProjectBase string
	Projects    []string
	Timeout     time.Duration
	WorkerSets  []int
	Runs        int
}

func main() {
	if len(os.Args) < 2 {
		fmt.Printf("Usage: %s [project-base-dir] [project...]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		ProjectBase: os.Args[1],
		Projects:    os.Args[2:],
		Timeout:     5 * time.Minute,
		WorkerSets:  workerSets(runtime.NumCPU()),
		Runs:        4,
	}

	if err := checkPrerequisites(&config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	if err := printSummary(results); err != nil {
		fmt.Printf("Failed to print summary: %v\n", err)
		os.Exit(1)
	}
}

// workerSets returns 1, 4 and the CPU count without duplicates.
func workerSets(cpus int) []int {
	sets := []int{1}
	for _, n := range []int{4, cpus} {
		if n > sets[len(sets)-1] {
			sets = append(sets, n)
		}
	}
	return sets
}

// checkPrerequisites verifies the binary and fills in the project list.
func checkPrerequisites(config *BenchmarkConfig) error {
	if _, err := exec.LookPath("codehealth"); err != nil {
		return fmt.Errorf("codehealth binary not found in PATH")
	}

	if len(config.Projects) == 0 {
		entries, err := os.ReadDir(config.ProjectBase)
		if err != nil {
			return fmt.Errorf("cannot list %s: %w", config.ProjectBase, err)
		}
		for _, entry := range entries {
			if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
				config.Projects = append(config.Projects, entry.Name())
			}
		}
	}
	if len(config.Projects) == 0 {
		return fmt.Errorf("no projects found under %s", config.ProjectBase)
	}

	for _, project := range config.Projects {
		projectPath := filepath.Join(config.ProjectBase, project)
		if _, err := os.Stat(projectPath); os.IsNotExist(err) {
			return fmt.Errorf("project %s not found at %s", project, projectPath)
		}
	}
	return nil
}

// runBenchmarks executes every project at every worker count.
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d projects, %v timeout, workers %v, %d runs each\n",
		len(config.Projects), config.Timeout, config.WorkerSets, config.Runs)

	for _, project := range config.Projects {
		projectPath := filepath.Join(config.ProjectBase, project)
		for _, workers := range config.WorkerSets {
			fmt.Printf("Benchmarking %s with %d workers\n", project, workers)
			results = append(results, runBenchmarkSuite(config, project, projectPath, workers))
		}
	}
	return results
}

// runBenchmarkSuite turns the run timings into a result row.
func runBenchmarkSuite(config BenchmarkConfig, project, projectPath string, workers int) BenchmarkResult {
	times := runBenchmark(config, projectPath, workers)

	result := BenchmarkResult{Project: project, Workers: workers, ColdTime: "TIMEOUT", WarmTime: "TIMEOUT"}
	if len(times) > 0 {
		result.ColdTime = fmt.Sprintf("%.3fs", times[0])
	}
	if len(times) > 1 {
		var sum float64
		for _, t := range times[1:] {
			sum += t
		}
		result.WarmTime = fmt.Sprintf("%.3fs", sum/float64(len(times)-1))
	}

	fmt.Printf("  Cold time: %s, Warm average: %s\n", result.ColdTime, result.WarmTime)
	return result
}

// runBenchmark runs analyze numRuns times and returns the successful timings in seconds.
// Stores are disabled so only the engine and rendering are measured.
func runBenchmark(config BenchmarkConfig, projectPath string, workers int) []float64 {
	args := []string{
		"analyze", projectPath,
		"--workers", strconv.Itoa(workers),
		"--report-backend", "none",
		"--history-backend", "none",
	}

	var times []float64
	for range config.Runs {
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		start := time.Now()
		output, err := exec.CommandContext(ctx, "codehealth", args...).CombinedOutput()
		elapsed := time.Since(start)
		cancel()

		if err == nil && isSuccess(output) {
			times = append(times, elapsed.Seconds())
		}
	}
	return times
}

// isSuccess checks if command output indicates successful completion.
func isSuccess(output []byte) bool {
	outputStr := string(output)
	return strings.Contains(outputStr, "Analysis completed in") && strings.Contains(outputStr, "workers")
}

// saveResults writes benchmark results to a timestamped CSV file.
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("codehealth_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"project", "workers", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Project, strconv.Itoa(result.Workers), result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary renders the results as a table.
func printSummary(results []BenchmarkResult) error {
	fmt.Println("Benchmark complete")

	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{"Project", "Workers", "Cold", "Warm"})
	data := make([][]string, 0, len(results))
	for _, result := range results {
		data = append(data, []string{result.Project, strconv.Itoa(result.Workers), result.ColdTime, result.WarmTime})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
