// cmd/generate.go
package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/npucs/npucs/cache"
	"github.com/npucs/npucs/compile"
	"github.com/npucs/npucs/config"
	"github.com/npucs/npucs/register"
)

var (
	graphPath   string
	optionsPath string
	outPath     string
	cachePath   string
	logLevel    string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Compile a planned operator graph into a command stream",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		graph, err := loadGraph(graphPath)
		if err != nil {
			logrus.Fatalf("Failed to load graph: %v", err)
		}

		opts, err := loadOptions(optionsPath)
		if err != nil {
			logrus.Fatalf("Failed to load options: %v", err)
		}

		logrus.Infof("Compiling graph with %d ops (device=%q)", len(graph.Ops), opts.Device)
		result, err := compile.Generate(graph, opts, register.DefaultCapabilities())
		if err != nil {
			logrus.Fatalf("Compilation failed: %v", err)
		}
		logrus.Infof("Produced %d bytes of command stream, %d intermediate buffer(s)",
			len(result.CommandStream), len(result.Lifetimes))

		if err := os.WriteFile(outPath, result.CommandStream, 0o644); err != nil {
			logrus.Fatalf("Failed to write command stream to %s: %v", outPath, err)
		}

		if cachePath != "" {
			subgraphs := []cache.Subgraph{{
				Index:        0,
				CompiledBlob: result.CommandStream,
			}}
			if err := cache.WriteFile(cachePath, subgraphs); err != nil {
				logrus.Fatalf("Failed to write cache file to %s: %v", cachePath, err)
			}
			logrus.Infof("Wrote cached network to %s", cachePath)
		}

		logrus.Info("Compilation complete.")
	},
}

// loadGraph reads and decodes a YAML-described operator graph. The planner that
// produces this file is out of scope here; generate only consumes it.
func loadGraph(path string) (compile.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return compile.Graph{}, err
	}
	var graph compile.Graph
	if err := yaml.Unmarshal(data, &graph); err != nil {
		return compile.Graph{}, err
	}
	return graph, nil
}

// loadOptions resolves the backend option channel: an explicit --options file takes
// precedence over config.EnvFileVar, falling back to an empty Options if neither is
// set, matching config.LoadFromEnv's own "nothing to honour" behaviour.
func loadOptions(path string) (config.Options, error) {
	if path == "" {
		return config.LoadFromEnv()
	}
	f, err := os.Open(path)
	if err != nil {
		return config.Options{}, err
	}
	defer f.Close()
	return config.Parse(f)
}

func init() {
	generateCmd.Flags().StringVar(&graphPath, "graph", "", "Path to the YAML-described operator graph (required)")
	generateCmd.Flags().StringVar(&optionsPath, "options", "", "Path to a KEY = VALUE options file (defaults to $NPUCS_OPTIONS_FILE)")
	generateCmd.Flags().StringVar(&outPath, "out", "command_stream.bin", "Path to write the packaged binary command stream")
	generateCmd.Flags().StringVar(&cachePath, "cache", "", "Optional path to also write a cached-network file")
	generateCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (debug, info, warn, error)")

	generateCmd.MarkFlagRequired("graph")
}
