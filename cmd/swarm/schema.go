package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"

	"github.com/kadirpekel/swarm/config"
)

// SchemaCmd generates JSON Schema from the config structs. Output goes
// to stdout so it can be redirected.
type SchemaCmd struct {
	Compact bool `short:"c" help:"Compact JSON output (no indentation)."`
}

func (c *SchemaCmd) Run(cli *CLI) error {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	schema := reflector.Reflect(&config.Config{})
	schema.ID = "https://github.com/kadirpekel/swarm/schemas/config.json"
	schema.Title = "Swarm Configuration Schema"
	schema.Description = "Configuration schema for the swarm runtime"
	schema.Version = "http://json-schema.org/draft-07/schema#"
	schema.Examples = []interface{}{
		map[string]interface{}{
			"swarm": map[string]interface{}{
				"coordinator": "Eric",
			},
			"providers": map[string]interface{}{
				"main": map[string]interface{}{
					"type":    "openai",
					"model":   "gpt-4o",
					"api_key": "${OPENAI_API_KEY}",
				},
			},
			"agents": map[string]interface{}{
				"Eric": map[string]interface{}{
					"provider":  "main",
					"cards_dir": "./cards",
					"tools":     []string{"current_time"},
				},
			},
		},
	}

	encoder := json.NewEncoder(os.Stdout)
	if !c.Compact {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(schema); err != nil {
		return fmt.Errorf("failed to encode schema: %w", err)
	}
	return nil
}
