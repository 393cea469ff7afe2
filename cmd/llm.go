package cmd

// cmd/llm.go: machine-readable context document for LLM onboarding.
//
// Usage:
//   workwatch llm                          # start bundle
//   workwatch llm --topic toc              # topic index
//   workwatch llm --topic commands         # command tree with flags
//   workwatch llm --topic filters,gotchas  # comma-separated multi-topic
//   workwatch llm --topic all              # everything

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/derickschaefer/workwatch/internal/entity"
	"github.com/derickschaefer/workwatch/internal/model"
)

// ─── Topic registry ───────────────────────────────────────────────────────────

type llmTopic struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

var topicRegistry = []llmTopic{
	{"start", "Curated onboarding bundle: commands, filters and gotchas."},
	{"toc", "Topic index and interaction guide."},
	{"commands", "Every command with its flags, generated from the live command tree."},
	{"filters", "Filter, sort and saved-view semantics shared by list commands."},
	{"data-model", "Employee, report and Result envelope fields, status and sort-key vocabularies."},
	{"gotchas", "Sharp edges: inclusive ranges, empty search, violation threshold."},
	{"version", "Build metadata for provenance."},
}

// ─── Command ──────────────────────────────────────────────────────────────────

var llmTopicFlag string

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Emit a machine-readable context document for LLM onboarding",
	Long: `Emit a structured JSON document describing workwatch's commands, filter
semantics and data model, formatted for ingestion by an LLM session.

Topics:
  start       Curated onboarding bundle (default)
  toc         Topic index
  commands    Command tree with flags
  filters     Filter, sort and saved-view semantics
  data-model  Record fields and vocabularies
  gotchas     Sharp edges
  version     Build metadata
  all         Everything`,
	Example: `  workwatch llm
  workwatch llm --topic toc
  workwatch llm --topic filters,gotchas
  workwatch llm --topic version --format jsonl >> audit.jsonl`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		topics, err := parseLLMTopics(llmTopicFlag)
		if err != nil {
			return err
		}
		doc := buildLLMDoc(topics)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetEscapeHTML(false)
		if globalFlags.Format != "jsonl" {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(doc)
	},
}

func init() {
	rootCmd.AddCommand(llmCmd)
	llmCmd.Flags().StringVar(&llmTopicFlag, "topic", "start",
		"topic(s) to emit: start|toc|commands|filters|data-model|gotchas|version|all (comma-separated)")
}

// ─── Topic parsing ────────────────────────────────────────────────────────────

func parseLLMTopics(flag string) ([]string, error) {
	if strings.TrimSpace(flag) == "" {
		flag = "start"
	}
	if flag == "all" {
		all := make([]string, len(topicRegistry))
		for i, t := range topicRegistry {
			all[i] = t.Name
		}
		return all, nil
	}
	known := make(map[string]bool, len(topicRegistry))
	for _, t := range topicRegistry {
		known[t.Name] = true
	}
	parts := strings.Split(flag, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !known[p] {
			return nil, fmt.Errorf("unknown topic %q (see 'workwatch llm --topic toc')", p)
		}
		out = append(out, p)
	}
	return out, nil
}

// ─── Document builder ─────────────────────────────────────────────────────────

func buildLLMDoc(topics []string) map[string]any {
	set := make(map[string]bool, len(topics))
	for _, t := range topics {
		set[t] = true
	}

	doc := map[string]any{
		"tool":    "workwatch",
		"version": Version,
		"llm_note": "This document was generated by `workwatch llm`. " +
			"It is the authoritative source for workwatch's CLI semantics.",
	}
	if set["start"] {
		doc["start"] = map[string]any{
			"suggested_prompt": "I am pasting the output of `workwatch llm`. " +
				"workwatch is a CLI that filters, sorts and summarizes employee monitoring data. " +
				"Use --format json or jsonl when you need to parse output. " +
				"Tell me when you are ready.",
			"commands": buildCommands(rootCmd),
			"filters":  buildFilters(),
			"gotchas":  buildGotchas(),
		}
	}
	if set["toc"] {
		doc["toc"] = buildTOC()
	}
	if set["commands"] {
		doc["commands"] = buildCommands(rootCmd)
	}
	if set["filters"] {
		doc["filters"] = buildFilters()
	}
	if set["data-model"] {
		doc["data_model"] = buildDataModel()
	}
	if set["gotchas"] {
		doc["gotchas"] = buildGotchas()
	}
	if set["version"] {
		doc["version_detail"] = map[string]any{
			"version":    Version,
			"build_time": BuildTime,
		}
	}
	return doc
}

func buildTOC() map[string]any {
	topics := make([]map[string]any, len(topicRegistry))
	for i, t := range topicRegistry {
		topics[i] = map[string]any{
			"name":        t.Name,
			"description": t.Description,
			"fetch":       fmt.Sprintf("workwatch llm --topic %s", t.Name),
		}
	}
	return map[string]any{
		"description": "workwatch filters, sorts and summarizes employees and productivity reports " +
			"held in a local bbolt database. Every data command emits a Result envelope.",
		"topics":      topics,
		"multi_topic": "workwatch llm --topic filters,gotchas",
	}
}

// llmCommand describes one runnable command.
type llmCommand struct {
	Path    string            `json:"path"`
	Short   string            `json:"short"`
	Args    string            `json:"args,omitempty"`
	Flags   map[string]string `json:"flags,omitempty"`
	Example string            `json:"example,omitempty"`
}

// buildCommands walks the command tree under root and lists every runnable
// command in path order.
func buildCommands(root *cobra.Command) []llmCommand {
	var out []llmCommand
	var walk func(c *cobra.Command)
	walk = func(c *cobra.Command) {
		if c.Hidden || c.Name() == "help" {
			return
		}
		if c.Runnable() && c != root {
			lc := llmCommand{
				Path:    c.CommandPath(),
				Short:   c.Short,
				Example: c.Example,
			}
			if i := strings.IndexByte(c.Use, ' '); i > 0 {
				lc.Args = c.Use[i+1:]
			}
			c.LocalFlags().VisitAll(func(f *pflag.Flag) {
				if lc.Flags == nil {
					lc.Flags = make(map[string]string)
				}
				lc.Flags["--"+f.Name] = f.Usage
			})
			out = append(out, lc)
		}
		for _, sub := range c.Commands() {
			walk(sub)
		}
	}
	walk(root)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func buildFilters() map[string]any {
	return map[string]any{
		"order": "search, then category, then status set, then numeric range, then date range, then a stable sort",
		"flags": map[string]string{
			"--search":              "case-insensitive substring over name, email, position and department (title, author and type for reports)",
			"--department / --type": "exact category match; empty means any",
			"--status":              "repeatable; empty means every status",
			"--min / --max":         "inclusive productivity bounds, clamped to 0..100",
			"--from / --to":         "inclusive YYYY-MM-DD bounds on last activity (employees) or generation date (reports)",
			"--sort / --desc":       "sort key and direction; ties break on ascending id",
			"--view":                "start from a saved view; explicit flags narrow it further",
		},
		"sort_keys": map[string][]string{
			entity.Employees.Kind: keyNames(entity.Employees.KeyOrder),
			entity.Reports.Kind:   keyNames(entity.Reports.KeyOrder),
		},
		"saved_views": "workwatch view save employees|reports <NAME> [filter flags]; list, show and delete by name or id",
	}
}

func buildDataModel() map[string]any {
	return map[string]any{
		"employee": map[string]any{
			"fields":   []string{"id", "name", "email", "department", "position", "status", "productivity", "last_activity", "is_active"},
			"statuses": statusNames(model.EmployeeStatuses),
		},
		"report": map[string]any{
			"fields":   []string{"id", "title", "type", "status", "date_range", "filters", "summary", "generated_at", "generated_by"},
			"types":    statusNames(model.ReportTypes),
			"statuses": statusNames(model.ReportStatuses),
		},
		"result_envelope": map[string]any{
			"fields": []string{"kind", "generated_at", "command", "data", "warnings", "stats"},
			"note":   "--format json emits the whole envelope; jsonl emits one record per line",
		},
	}
}

func buildGotchas() []string {
	return []string{
		"Range and date bounds are inclusive on both ends; --min 80 --max 20 is rejected.",
		"An empty or absent --search matches everything. Whitespace is not trimmed.",
		"A violation is a productivity score strictly below the threshold (default 50).",
		"Summary cards describe the filtered list, not the whole store.",
		"The first command against a new database seeds it with demo data; 'workwatch store reset' restores it.",
		"Table output goes to stdout and the timing footer to stderr; use --format json for parsing.",
	}
}

func keyNames(keys []entity.Key) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k)
	}
	return out
}
