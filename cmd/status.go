package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var (
	serverURL string
)

var statusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Query server status or specific job",
	Long: `Queries the server for job status information.
If no job-id is provided, lists all jobs.
If job-id is provided, shows detailed status for that job.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return listJobs(cmd.OutOrStdout(), fmt.Sprintf("%s/api/v1/jobs", serverURL))
	}
	jobID := args[0]
	return getJobStatus(cmd.OutOrStdout(), fmt.Sprintf("%s/api/v1/jobs/%s/status", serverURL, jobID), jobID)
}

// jobSummary is the subset of a job the CLI displays
type jobSummary struct {
	ID         string  `json:"id"`
	State      string  `json:"state"`
	Status     string  `json:"status"`
	BestValue  float64 `json:"bestValue"`
	Iterations int     `json:"iterations"`
	Elapsed    float64 `json:"elapsed"`
	Rate       float64 `json:"rate"`
	Error      string  `json:"error"`
	Best       *struct {
		Position struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
		} `json:"position"`
	} `json:"best"`
	Config struct {
		Particles  int     `json:"particles"`
		Iterations int     `json:"iterations"`
		W          float64 `json:"w"`
		C1         float64 `json:"c1"`
		C2         float64 `json:"c2"`
		Seed       int64   `json:"seed"`
		Reseed     string  `json:"reseed"`
		Objective  string  `json:"objective"`
	} `json:"config"`
}

func fetchJSON(url string, v interface{}) (int, error) {
	resp, err := http.Get(url)
	if err != nil {
		return 0, fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, fmt.Errorf("server returned error: %s", string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp.StatusCode, nil
}

func listJobs(out io.Writer, url string) error {
	var jobs []jobSummary
	if _, err := fetchJSON(url, &jobs); err != nil {
		return err
	}

	if len(jobs) == 0 {
		fmt.Fprintln(out, "No jobs found")
		return nil
	}

	fmt.Fprintf(out, "Found %d job(s):\n\n", len(jobs))
	for _, job := range jobs {
		fmt.Fprintf(out, "Job ID: %s\n", job.ID)
		fmt.Fprintf(out, "  State: %s\n", job.State)
		fmt.Fprintf(out, "  Particles: %d, Iterations: %d/%d\n", job.Config.Particles, job.Iterations, job.Config.Iterations)
		if job.Iterations > 0 {
			fmt.Fprintf(out, "  Best: %.6g\n", job.BestValue)
		}
		fmt.Fprintln(out)
	}

	return nil
}

func getJobStatus(out io.Writer, url, jobID string) error {
	var status jobSummary
	code, err := fetchJSON(url, &status)
	if code == http.StatusNotFound {
		return fmt.Errorf("job not found: %s", jobID)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Job: %s\n", status.ID)
	fmt.Fprintf(out, "State: %s\n", status.State)
	fmt.Fprintln(out)

	objective := status.Config.Objective
	if objective == "" {
		objective = "paraboloid"
	}
	fmt.Fprintln(out, "Configuration:")
	fmt.Fprintf(out, "  Objective: %s\n", objective)
	fmt.Fprintf(out, "  Particles: %d\n", status.Config.Particles)
	fmt.Fprintf(out, "  Iterations: %d\n", status.Config.Iterations)
	fmt.Fprintf(out, "  Coefficients: w=%v c1=%v c2=%v\n", status.Config.W, status.Config.C1, status.Config.C2)
	fmt.Fprintf(out, "  Seed: %d\n", status.Config.Seed)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Progress:")
	fmt.Fprintf(out, "  Iterations: %d\n", status.Iterations)
	if status.Iterations > 0 {
		fmt.Fprintf(out, "  Best Value: %.6g\n", status.BestValue)
	}
	if status.Best != nil {
		fmt.Fprintf(out, "  Best Position: (%v, %v)\n", status.Best.Position.X, status.Best.Position.Y)
	}
	if status.Status != "" {
		fmt.Fprintf(out, "  Status: %s\n", status.Status)
	}

	elapsed := time.Duration(status.Elapsed * float64(time.Second))
	fmt.Fprintf(out, "  Elapsed: %s\n", elapsed.Round(time.Millisecond))
	if status.Rate > 0 {
		fmt.Fprintf(out, "  Throughput: %.0f iterations/sec\n", status.Rate)
	}

	if status.Error != "" {
		fmt.Fprintf(out, "\nError: %s\n", status.Error)
	}

	return nil
}
