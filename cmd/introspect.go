package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/samhoang/skillkit/internal/lock"
)

const (
	introspectionVersion = "1.0"
	draft07              = "http://json-schema.org/draft-07/schema#"

	// choicesAnnotation lists the accepted values of a flag
	choicesAnnotation = "skillkit_choices"
)

// commandInfo describes a command for tooling integration
type commandInfo struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Subcommands []commandInfo  `json:"subcommands,omitempty"`
	Arguments   []argumentInfo `json:"arguments,omitempty"`
}

type argumentInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Required    bool     `json:"required"`
	Choices     []string `json:"choices,omitempty"`
}

// introspection wraps data in the envelope shared by every machine-readable
// output: {"schemaVersion", "type", "ok", ...data}
func introspection(kind string, data map[string]any) map[string]any {
	out := map[string]any{
		"schemaVersion": introspectionVersion,
		"type":          kind,
		"ok":            true,
	}
	for k, v := range data {
		out[k] = v
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func describeCommands(root *cobra.Command) []commandInfo {
	var out []commandInfo
	for _, c := range root.Commands() {
		if c.Hidden || c.Name() == "help" {
			continue
		}
		out = append(out, describeCommand(c))
	}
	return out
}

func describeCommand(c *cobra.Command) commandInfo {
	info := commandInfo{
		Name:        c.Name(),
		Description: c.Short,
		Subcommands: describeCommands(c),
	}
	visit := func(f *pflag.Flag) {
		if f.Hidden || f.Name == "help" || f.Name == "version" {
			return
		}
		info.Arguments = append(info.Arguments, argumentInfo{
			Name:        f.Name,
			Description: f.Usage,
			Type:        flagType(f),
			Required:    len(f.Annotations[cobra.BashCompOneRequiredFlag]) > 0,
			Choices:     f.Annotations[choicesAnnotation],
		})
	}
	c.LocalFlags().VisitAll(visit)
	c.InheritedFlags().VisitAll(visit)
	return info
}

// flagType maps a pflag value type to its JSON schema type
func flagType(f *pflag.Flag) string {
	switch f.Value.Type() {
	case "bool":
		return "boolean"
	case "int", "int8", "int16", "int32", "int64", "uint", "uint8", "uint16", "uint32", "uint64", "count":
		return "integer"
	case "float32", "float64":
		return "number"
	case "stringSlice", "stringArray":
		return "array"
	}
	return "string"
}

func findCommand(root *cobra.Command, name string) (commandInfo, bool) {
	for _, c := range describeCommands(root) {
		if c.Name == name {
			return c, true
		}
	}
	return commandInfo{}, false
}

// commandSchema builds the draft-07 object schema of a command's flags
func commandSchema(c commandInfo) *jsonschema.Schema {
	props := jsonschema.NewProperties()
	required := []string{}
	for _, a := range c.Arguments {
		prop := &jsonschema.Schema{
			Type:        a.Type,
			Description: a.Description,
		}
		if a.Type == "array" {
			prop.Items = &jsonschema.Schema{Type: "string"}
		}
		for _, choice := range a.Choices {
			prop.Enum = append(prop.Enum, choice)
		}
		props.Set(a.Name, prop)
		if a.Required {
			required = append(required, a.Name)
		}
	}
	return &jsonschema.Schema{
		Version:              draft07,
		Type:                 "object",
		Description:          c.Description,
		Properties:           props,
		Required:             required,
		AdditionalProperties: jsonschema.FalseSchema,
	}
}

// lockSchema reflects the on-disk lock file
func lockSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	s := reflector.Reflect(&lock.SkillLock{})
	s.Version = draft07
	return s
}

var commandsOutput string

var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List all available commands",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		commands := describeCommands(cmd.Root())
		if commandsOutput == "json" {
			return writeJSON(w, introspection("commands", map[string]any{"commands": commands}))
		}

		fmt.Fprintln(w, "Available commands:")
		for _, c := range commands {
			fmt.Fprintf(w, "  %-14s %s\n", c.Name, c.Description)
		}
		return nil
	},
}

var (
	schemaCommand string
	schemaOutput  string
)

var schemaCmd = &cobra.Command{
	Use:   "schema [command]",
	Short: "Get JSON schema for a command",
	Long: `Print the JSON schema of a command's flags. The pseudo-command "lock"
prints the schema of the .skill-lock.json file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := schemaCommand
		if name == "" && len(args) == 1 {
			name = args[0]
		}
		if name == "" {
			return errors.New("a command name is required (--command <name>)")
		}

		var schema *jsonschema.Schema
		if name == "lock" {
			schema = lockSchema()
		} else {
			c, ok := findCommand(cmd.Root(), name)
			if !ok {
				return errors.Errorf("Command not found: %s", name)
			}
			schema = commandSchema(c)
		}

		w := cmd.OutOrStdout()
		if schemaOutput != "json-schema" {
			fmt.Fprintln(w, "Use --output json-schema to get the schema")
			return nil
		}
		return writeJSON(w, introspection("schema", map[string]any{"schema": schema}))
	},
}

func setChoices(fs *pflag.FlagSet, name string, choices ...string) {
	_ = fs.SetAnnotation(name, choicesAnnotation, choices)
}

func init() {
	commandsCmd.Flags().StringVarP(&commandsOutput, "output", "o", "", "Output format (json)")
	setChoices(commandsCmd.Flags(), "output", "json")

	schemaCmd.Flags().StringVar(&schemaCommand, "command", "", "Command name to get schema for")
	schemaCmd.Flags().StringVarP(&schemaOutput, "output", "o", "", "Output format (json-schema)")
	setChoices(schemaCmd.Flags(), "output", "json-schema")

	rootCmd.AddCommand(commandsCmd, schemaCmd)
}
