package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"mealmatch-workers/internal/common/validation"
	sendmessage "mealmatch-workers/internal/workers/chat/send-message"
	queryelasticsearch "mealmatch-workers/internal/workers/data-access/query-elasticsearch"
	querypostgresql "mealmatch-workers/internal/workers/data-access/query-postgresql"
	calculatecompatibilityscore "mealmatch-workers/internal/workers/matching/calculate-compatibility-score"
	rankcandidateprofiles "mealmatch-workers/internal/workers/matching/rank-candidate-profiles"
	recordswipe "mealmatch-workers/internal/workers/matching/record-swipe"
	sendnotification "mealmatch-workers/internal/workers/notification/send-notification"
	updateprofile "mealmatch-workers/internal/workers/profile/update-profile"
	generaterecipes "mealmatch-workers/internal/workers/recipe/generate-recipes"
	managefavorites "mealmatch-workers/internal/workers/recipe/manage-favorites"
	"mealmatch-workers/pkg/registry"

	"github.com/spf13/cobra"
)

// workerTaskTypes are the task types the worker manager subscribes to.
var workerTaskTypes = []string{
	calculatecompatibilityscore.TaskType,
	rankcandidateprofiles.TaskType,
	recordswipe.TaskType,
	sendmessage.TaskType,
	updateprofile.TaskType,
	generaterecipes.TaskType,
	managefavorites.TaskType,
	querypostgresql.TaskType,
	queryelasticsearch.TaskType,
	sendnotification.TaskType,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the registry against the registered workers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.LoadRegistry(registryPath)
		if err != nil {
			return fmt.Errorf("load registry: %w", err)
		}

		problems := checkRegistry(reg)
		if len(problems) > 0 {
			for _, p := range problems {
				fmt.Fprintf(cmd.ErrOrStderr(), "  - %s\n", p)
			}
			return fmt.Errorf("registry has %d problem(s)", len(problems))
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Registry OK: %d activities\n", len(reg.Activities))
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List activities grouped by category",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.LoadRegistry(registryPath)
		if err != nil {
			return fmt.Errorf("load registry: %w", err)
		}
		printByCategory(cmd.OutOrStdout(), reg)
		return nil
	},
}

var (
	setTimeout     string
	setRetries     int
	setDescription string
)

var setCmd = &cobra.Command{
	Use:   "set <taskType>",
	Short: "Update the timeout, retries or description of an activity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.LoadRegistry(registryPath)
		if err != nil {
			return fmt.Errorf("load registry: %w", err)
		}

		changes := activityChanges{}
		if cmd.Flags().Changed("timeout") {
			changes.Timeout = &setTimeout
		}
		if cmd.Flags().Changed("retries") {
			changes.Retries = &setRetries
		}
		if cmd.Flags().Changed("description") {
			changes.Description = &setDescription
		}

		if err := applyChanges(reg, args[0], changes); err != nil {
			return err
		}
		reg.LastUpdated = time.Now().Format("2006-01-02")

		if err := saveRegistry(reg, registryPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", args[0])
		return nil
	},
}

func init() {
	setCmd.Flags().StringVar(&setTimeout, "timeout", "", "job timeout, e.g. 30s")
	setCmd.Flags().IntVar(&setRetries, "retries", 0, "job retries")
	setCmd.Flags().StringVar(&setDescription, "description", "", "activity description")
}

// checkRegistry returns one line per problem found in reg.
func checkRegistry(reg *registry.ActivityRegistry) []string {
	var problems []string

	for _, a := range reg.Activities {
		if a.DisplayName == "" {
			problems = append(problems, fmt.Sprintf("%s: missing displayName", a.TaskType))
		}
		if a.Category == "" {
			problems = append(problems, fmt.Sprintf("%s: missing category", a.TaskType))
		}
		if _, err := time.ParseDuration(a.Timeout); err != nil {
			problems = append(problems, fmt.Sprintf("%s: invalid timeout %q", a.TaskType, a.Timeout))
		}
		if a.Retries < 0 {
			problems = append(problems, fmt.Sprintf("%s: negative retries", a.TaskType))
		}
	}

	if err := validation.NewValidator().LoadFromRegistry(reg); err != nil {
		problems = append(problems, err.Error())
	}

	for _, taskType := range workerTaskTypes {
		if _, ok := reg.FindByTaskType(taskType); !ok {
			problems = append(problems, fmt.Sprintf("%s: worker has no registry entry", taskType))
		}
	}
	return problems
}

type activityChanges struct {
	Timeout     *string
	Retries     *int
	Description *string
}

func applyChanges(reg *registry.ActivityRegistry, taskType string, c activityChanges) error {
	a, ok := reg.FindByTaskType(taskType)
	if !ok {
		return fmt.Errorf("no activity with taskType %q", taskType)
	}
	if c.Timeout == nil && c.Retries == nil && c.Description == nil {
		return fmt.Errorf("nothing to update: pass --timeout, --retries or --description")
	}

	if c.Timeout != nil {
		if _, err := time.ParseDuration(*c.Timeout); err != nil {
			return fmt.Errorf("invalid timeout %q: %w", *c.Timeout, err)
		}
		a.Timeout = *c.Timeout
	}
	if c.Retries != nil {
		if *c.Retries < 0 {
			return fmt.Errorf("retries must not be negative")
		}
		a.Retries = *c.Retries
	}
	if c.Description != nil {
		a.Description = *c.Description
	}
	return nil
}

func printByCategory(w io.Writer, reg *registry.ActivityRegistry) {
	groups := reg.ByCategory()
	categories := make([]string, 0, len(groups))
	for c := range groups {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	for _, c := range categories {
		fmt.Fprintf(w, "%s\n", c)
		for _, taskType := range groups[c] {
			a, _ := reg.FindByTaskType(taskType)
			fmt.Fprintf(w, "  %-32s %6s  retries=%d\n", taskType, a.Timeout, a.Retries)
		}
	}
	fmt.Fprintln(w, strings.Repeat("-", 20))
	fmt.Fprintf(w, "%d activities\n", len(reg.Activities))
}

func saveRegistry(reg *registry.ActivityRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write registry: %w", err)
	}
	return nil
}
