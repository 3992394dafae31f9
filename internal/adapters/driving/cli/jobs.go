package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	jobsJSON      bool
	jobsPurgeAge  time.Duration
	jobsStatusTpl = "%-38s %-11s %-24s %s\n"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect ingestion jobs",
	Long: `Lists ingestion jobs and their pipeline state.

Jobs live in memory for the lifetime of the process that submitted them
and are retained after completion until purged.`,
	RunE: runJobsList,
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingestion jobs, newest first",
	RunE:  runJobsList,
}

var jobsShowCmd = &cobra.Command{
	Use:   "show [job-id]",
	Short: "Show one job in detail",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsShow,
}

var jobsPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove finished jobs",
	Long:  `Removes completed and failed jobs older than the given age. Running jobs are never purged.`,
	RunE:  runJobsPurge,
}

func init() {
	jobsCmd.PersistentFlags().BoolVar(&jobsJSON, "json", false, "output as JSON")
	jobsPurgeCmd.Flags().DurationVar(&jobsPurgeAge, "older-than", 0, "only purge jobs finished longer ago than this")
	jobsCmd.AddCommand(jobsListCmd)
	jobsCmd.AddCommand(jobsShowCmd)
	jobsCmd.AddCommand(jobsPurgeCmd)
	rootCmd.AddCommand(jobsCmd)
}

func runJobsList(cmd *cobra.Command, _ []string) error {
	if ingestOrchestrator == nil {
		return errors.New("ingestion not configured")
	}

	jobs, err := ingestOrchestrator.Jobs(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing jobs: %w", err)
	}

	if jobsJSON {
		data, err := json.MarshalIndent(jobs, "", "  ")
		if err != nil {
			return fmt.Errorf("marshalling jobs: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(jobs) == 0 {
		cmd.Println("No jobs.")
		return nil
	}

	cmd.Printf(jobsStatusTpl, "ID", "STATE", "FILENAME", "DETAIL")
	for i := range jobs {
		detail := ""
		switch {
		case jobs[i].Error != "":
			detail = jobs[i].Error
		case jobs[i].PassageCount > 0:
			detail = fmt.Sprintf("%d passages", jobs[i].PassageCount)
		}
		cmd.Printf(jobsStatusTpl, jobs[i].ID, jobs[i].State, jobs[i].Filename, detail)
	}
	return nil
}

func runJobsShow(cmd *cobra.Command, args []string) error {
	if ingestOrchestrator == nil {
		return errors.New("ingestion not configured")
	}

	job, err := ingestOrchestrator.Job(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("loading job: %w", err)
	}

	if jobsJSON {
		data, err := json.MarshalIndent(job, "", "  ")
		if err != nil {
			return fmt.Errorf("marshalling job: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Job:        %s\n", job.ID)
	cmd.Printf("Filename:   %s\n", job.Filename)
	cmd.Printf("Collection: %s\n", job.Collection)
	cmd.Printf("Document:   %s\n", job.DocumentID)
	cmd.Printf("State:      %s\n", job.State)
	if job.Method != "" {
		cmd.Printf("Extraction: %s\n", job.Method)
	}
	if job.Title != "" {
		cmd.Printf("Title:      %s\n", job.Title)
	}
	if job.Author != "" {
		cmd.Printf("Author:     %s\n", job.Author)
	}
	if job.PageCount > 0 {
		cmd.Printf("Pages:      %d\n", job.PageCount)
	}
	if job.PassageCount > 0 {
		cmd.Printf("Passages:   %d (%d tokens, %d points)\n",
			job.PassageCount, job.TokenCount, job.PointCount)
	}
	if job.Error != "" {
		cmd.Printf("Error:      %s\n", job.Error)
	}
	cmd.Printf("Created:    %s\n", job.CreatedAt.Format(time.RFC3339))
	if job.CompletedAt != nil {
		cmd.Printf("Finished:   %s\n", job.CompletedAt.Format(time.RFC3339))
	}
	return nil
}

func runJobsPurge(cmd *cobra.Command, _ []string) error {
	if ingestOrchestrator == nil {
		return errors.New("ingestion not configured")
	}

	removed, err := ingestOrchestrator.Purge(cmd.Context(), jobsPurgeAge)
	if err != nil {
		return fmt.Errorf("purging jobs: %w", err)
	}

	cmd.Printf("Purged %d job(s).\n", removed)
	return nil
}
