package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dealdesk/internal/config"
	"dealdesk/internal/dispatch"
	"dealdesk/internal/registry"
	"dealdesk/internal/server"
	"dealdesk/internal/store"
	"dealdesk/internal/tools"
)

var rootCmd = &cobra.Command{
	Use:   "dealdesk",
	Short: "Dealdesk MCP server",
	Long: `Dealdesk serves project-context operations over the MCP stdio
transport: project aggregates (documents, tasks, risks, notes,
stakeholders), tracked deadlines, active issues, an activity log, plus
plain-text utilities for task/date extraction, risk scanning, budget
arithmetic and clause templates. State lives in memory for the life of
the process.`,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("DEALDESK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory (holds dealdesk.yml)")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func registerCommands() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(opsCmd())
	rootCmd.AddCommand(callCmd())
}

// buildDispatcher wires the full operation set against a fresh store.
// stdout belongs to the stdio transport, so the dispatch log goes to
// stderr.
func buildDispatcher(cfg *config.Config) (*dispatch.Dispatcher, error) {
	st := store.New()
	st.SetActivityCap(cfg.Activity.Cap)
	st.SetDefaultDeadlineWindow(cfg.Deadlines.DefaultWindowDays)
	reg := registry.New()
	for _, op := range tools.Registry(st) {
		if err := reg.Register(op); err != nil {
			return nil, err
		}
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	d := dispatch.New(reg, logger)
	d.Timeout = time.Duration(cfg.Dispatch.TimeoutSeconds) * time.Second
	return d, nil
}

func loadConfig() (*config.Config, error) {
	return config.LoadOptional(viper.GetString("workspace"))
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve operations over MCP stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			d, err := buildDispatcher(cfg)
			if err != nil {
				return err
			}
			s, err := server.New(cfg.Server.Name, cfg.Server.Version, d)
			if err != nil {
				return err
			}
			return server.ServeStdio(s)
		},
	}
}

func opsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ops",
		Short: "List the operations the server exposes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			d, err := buildDispatcher(cfg)
			if err != nil {
				return err
			}
			ops := d.Registry.Describe()
			if viper.GetBool("json") {
				type opInfo struct {
					Name        string   `json:"name"`
					Description string   `json:"description"`
					Required    []string `json:"required,omitempty"`
				}
				out := make([]opInfo, 0, len(ops))
				for _, op := range ops {
					out = append(out, opInfo{Name: op.Name, Description: op.Description, Required: op.Schema.Required})
				}
				return printJSON(out)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"Operation", "Required", "Description"})
			for _, op := range ops {
				tw.AppendRow(table.Row{op.Name, strings.Join(op.Schema.Required, ", "), op.Description})
			}
			tw.Render()
			return nil
		},
	}
}

func callCmd() *cobra.Command {
	var argsJSON string
	cmd := &cobra.Command{
		Use:   "call <operation>",
		Short: "Dispatch one operation locally and print the result",
		Long: `Runs a single operation against a fresh in-memory store. Useful for
the stateless text utilities (extract_tasks, analyze_risks,
calculate_budget, generate_clause, extract_dates) and for inspecting
envelopes without an MCP client.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			d, err := buildDispatcher(cfg)
			if err != nil {
				return err
			}
			opArgs := map[string]any{}
			if argsJSON != "" {
				if err := json.Unmarshal([]byte(argsJSON), &opArgs); err != nil {
					return fmt.Errorf("invalid --args: %w", err)
				}
			}
			env := d.Handle(cmd.Context(), args[0], opArgs)
			if viper.GetBool("json") {
				return printJSON(env)
			}
			for _, c := range env.Content {
				fmt.Println(c.Text)
			}
			if env.IsError {
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&argsJSON, "args", "", "operation arguments as a JSON object")
	return cmd
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
