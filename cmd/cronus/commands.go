package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/NoahCxrest/ERMSupport/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect cronus configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration (secrets hidden)",
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tENV VAR\tVALUE")
		for _, info := range config.ShowAll(cfg) {
			fmt.Fprintf(w, "%s\t%s\t%s\n", info.Key, info.EnvVar, info.Value)
		}
		return w.Flush()
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Persist a config value to the .env file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		envVar, ok := config.EnvVarFor(key)
		if !ok {
			return fmt.Errorf("unknown config key %q (see `cronus config show`)", key)
		}
		if err := setEnvFileVar(".env", envVar, value); err != nil {
			return err
		}
		printSuccess("Set %s (%s) in .env", key, envVar)
		return nil
	},
}

// setEnvFileVar rewrites the VAR=value line in an env file, appending it
// when absent. Other lines, comments included, pass through untouched.
func setEnvFileVar(path, envVar, value string) error {
	var lines []string
	if data, err := os.ReadFile(path); err == nil {
		lines = strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	} else if !os.IsNotExist(err) {
		return err
	}

	entry := envVar + "=" + value
	replaced := false
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), envVar+"=") {
			lines[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		lines = append(lines, entry)
	}

	return os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600)
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd)
}
