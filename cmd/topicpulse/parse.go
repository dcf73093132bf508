package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/TopicPulse/internal/config"
	"github.com/IshaanNene/TopicPulse/internal/parser"
	"github.com/IshaanNene/TopicPulse/internal/types"
)

var (
	parseTopic   string
	parseSuggest string
)

// parseCmd creates the "parse" subcommand.
func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <file.html>",
		Short: "Parse a saved topic page and print the metrics as JSON",
		Long: `Run the topic parser over an HTML file saved from a browser. Useful for
checking selectors and label mappings without launching a browser.`,
		Args: cobra.ExactArgs(1),
		RunE: runParse,
	}

	cmd.Flags().StringVar(&parseTopic, "topic", "", "topic name (defaults to the file name)")
	cmd.Flags().StringVar(&parseSuggest, "suggest", "", "print candidate selectors for elements containing this text instead")

	return cmd
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closeLog, err := setupLogger(config.LoggingConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return err
	}
	defer closeLog()

	path := args[0]
	body, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read page: %w", err)
	}

	topic := parseTopic
	if topic == "" {
		topic = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	abs, _ := filepath.Abs(path)
	resp := types.NewBrowserResponse(nil, 200, body, "file://"+filepath.ToSlash(abs), 0)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	if parseSuggest != "" {
		candidates, err := parser.SuggestSelectors(resp, parseSuggest, 10)
		if err != nil {
			return err
		}
		return enc.Encode(candidates)
	}

	stats, err := parser.NewTopicParser(cfg.Parser, logger).Parse(resp, topic)
	if err != nil {
		return err
	}
	return enc.Encode(stats)
}
