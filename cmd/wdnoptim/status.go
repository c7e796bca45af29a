package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var serverURL string

var statusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Query server status or a specific job",
	Long: `Queries the job server for status information.
If no job-id is provided, lists all jobs.
If a job-id is provided, shows detailed status for that job.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return listJobs(fmt.Sprintf("%s/api/v1/jobs", serverURL))
	}
	jobID := args[0]
	return getJobStatus(fmt.Sprintf("%s/api/v1/jobs/%s", serverURL, jobID), jobID)
}

func listJobs(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned error: %s", string(body))
	}

	var jobs []struct {
		ID     string `json:"id"`
		State  string `json:"state"`
		Config struct {
			Mode        string `json:"mode"`
			PopSize     int    `json:"popSize"`
			Generations int    `json:"generations"`
		} `json:"config"`
		Generation int           `json:"generation"`
		Best       []jobSolution `json:"best"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&jobs); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if len(jobs) == 0 {
		fmt.Println("No jobs found")
		return nil
	}

	fmt.Printf("Found %d job(s):\n\n", len(jobs))
	for _, job := range jobs {
		fmt.Printf("Job ID: %s\n", job.ID)
		fmt.Printf("  State: %s\n", job.State)
		fmt.Printf("  Mode: %s\n", job.Config.Mode)
		fmt.Printf("  Generation: %d/%d\n", job.Generation, job.Config.Generations)
		if len(job.Best) > 0 {
			fmt.Printf("  Best: %s\n", formatObjectives(job.Best[0].Objectives))
		}
		fmt.Println()
	}

	return nil
}

// jobSolution mirrors the server's solution payload for display.
type jobSolution struct {
	Genome     []int     `json:"genome"`
	Objectives []float64 `json:"objectives"`
}

func getJobStatus(url, jobID string) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("job not found: %s", jobID)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned error: %s", string(body))
	}

	var status struct {
		ID     string `json:"id"`
		State  string `json:"state"`
		Config struct {
			Mode        string `json:"mode"`
			StatusTable string `json:"statusTable"`
			PopSize     int    `json:"popSize"`
			Generations int    `json:"generations"`
			Seed        int64  `json:"seed"`
		} `json:"config"`
		Generation int       `json:"generation"`
		Best       []float64 `json:"best"`
		FrontSize  int       `json:"frontSize"`
		Elapsed    float64   `json:"elapsed"`
		Error      string    `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Printf("Job: %s\n", status.ID)
	fmt.Printf("State: %s\n", status.State)
	fmt.Println()

	fmt.Println("Configuration:")
	table := status.Config.StatusTable
	if table == "" {
		table = "(demo network)"
	}
	fmt.Printf("  Status table: %s\n", table)
	fmt.Printf("  Mode: %s\n", status.Config.Mode)
	fmt.Printf("  Population: %d\n", status.Config.PopSize)
	fmt.Printf("  Generations: %d\n", status.Config.Generations)
	fmt.Printf("  Seed: %d\n", status.Config.Seed)
	fmt.Println()

	fmt.Println("Progress:")
	fmt.Printf("  Generation: %d\n", status.Generation)
	if len(status.Best) > 0 {
		fmt.Printf("  Best: %s\n", formatObjectives(status.Best))
	}
	if status.FrontSize > 0 {
		fmt.Printf("  Front size: %d\n", status.FrontSize)
	}
	if status.Elapsed > 0 {
		elapsed := time.Duration(status.Elapsed * float64(time.Second))
		fmt.Printf("  Elapsed: %s\n", elapsed.Round(time.Millisecond))
	}

	if status.Error != "" {
		fmt.Printf("\nError: %s\n", status.Error)
	}

	return nil
}
