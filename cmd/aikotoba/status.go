// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Aikotoba Contributors

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/aikotoba/aikotoba/internal/config"
	"github.com/aikotoba/aikotoba/internal/store"
)

// ComponentStatus holds the status information for one component.
type ComponentStatus struct {
	Component string `json:"component"`
	Up        bool   `json:"up"`
	Detail    string `json:"detail,omitempty"`
	Error     string `json:"error,omitempty"`
}

// statusConfig holds configuration for the status command.
type statusConfig struct {
	jsonOutput bool
}

// NewStatusCmd creates the status subcommand with all flags configured.
func NewStatusCmd() *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show status of a running aikotoba service",
		Long:  `Show the health of the running service and the database schema version.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, cfg)
		},
	}

	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")

	return cmd
}

// runStatus executes the status command.
func runStatus(cmd *cobra.Command, cfg *statusConfig) error {
	conf, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	statuses := map[string]ComponentStatus{
		"service":  queryServiceStatus(conf.Observability.Addr),
		"database": queryDatabaseStatus(conf.Database.URL),
	}

	var output string
	if cfg.jsonOutput {
		output, err = formatStatusJSON(statuses)
		if err != nil {
			return fmt.Errorf("failed to format JSON: %w", err)
		}
	} else {
		output = formatStatusTable(statuses)
	}

	cmd.Println(output)
	return nil
}

// queryServiceStatus probes the observability endpoints of a running
// service.
func queryServiceStatus(addr string) ComponentStatus {
	status := ComponentStatus{Component: "service"}

	client := &http.Client{Timeout: 2 * time.Second}

	liveResp, err := client.Get(fmt.Sprintf("http://%s/healthz/liveness", addr))
	if err != nil {
		status.Error = fmt.Sprintf("failed to connect: %v", err)
		return status
	}
	defer func() { _ = liveResp.Body.Close() }()

	if liveResp.StatusCode != http.StatusOK {
		status.Error = fmt.Sprintf("liveness returned %d", liveResp.StatusCode)
		return status
	}
	status.Up = true

	readyResp, err := client.Get(fmt.Sprintf("http://%s/healthz/readiness", addr))
	if err != nil {
		// Live but readiness unreachable - still consider running.
		status.Detail = "readiness unknown"
		return status
	}
	defer func() { _ = readyResp.Body.Close() }()

	if readyResp.StatusCode == http.StatusOK {
		status.Detail = "ready"
	} else {
		status.Detail = "not ready"
	}
	return status
}

// queryDatabaseStatus reports the migration state of the database.
func queryDatabaseStatus(databaseURL string) ComponentStatus {
	status := ComponentStatus{Component: "database"}

	if databaseURL == "" {
		status.Error = "database.url not configured"
		return status
	}

	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		status.Error = fmt.Sprintf("failed to connect: %v", err)
		return status
	}
	defer func() { _ = migrator.Close() }()

	version, dirty, err := migrator.Version()
	if err != nil {
		status.Error = fmt.Sprintf("failed to read schema version: %v", err)
		return status
	}

	status.Up = true
	switch {
	case dirty:
		status.Detail = fmt.Sprintf("schema version %d (dirty)", version)
	case version == 0:
		status.Detail = "no migrations applied"
	default:
		status.Detail = fmt.Sprintf("schema version %d", version)
	}
	return status
}

// formatStatusTable formats the status as a human-readable table.
func formatStatusTable(statuses map[string]ComponentStatus) string {
	var buf []byte
	w := tabwriter.NewWriter((*byteWriter)(&buf), 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "COMPONENT\tSTATUS\tDETAIL")
	_, _ = fmt.Fprintln(w, "---------\t------\t------")

	for _, component := range []string{"service", "database"} {
		status := statuses[component]
		if status.Up {
			_, _ = fmt.Fprintf(w, "%s\tup\t%s\n", component, status.Detail)
		} else {
			reason := "down"
			if status.Error != "" {
				reason = status.Error
			}
			_, _ = fmt.Fprintf(w, "%s\tdown\t%s\n", component, reason)
		}
	}

	_ = w.Flush()
	return string(buf)
}

// formatStatusJSON formats the status as JSON.
func formatStatusJSON(statuses map[string]ComponentStatus) (string, error) {
	data, err := json.MarshalIndent(statuses, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal status: %w", err)
	}
	return string(data), nil
}

// byteWriter is a simple writer that appends to a byte slice.
type byteWriter []byte

func (w *byteWriter) Write(p []byte) (int, error) {
	*w = append(*w, p...)
	return len(p), nil
}
