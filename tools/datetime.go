package tools

import (
	"context"
	"fmt"
	"time"
)

// DateTimeTool reports the current date and time
type DateTimeTool struct {
	now func() time.Time
}

// NewDateTimeTool creates a date/time tool
func NewDateTimeTool() *DateTimeTool {
	return &DateTimeTool{now: time.Now}
}

func (t *DateTimeTool) GetName() string { return "current_time" }

func (t *DateTimeTool) GetDescription() string {
	return "Returns the current date and time, optionally in a given IANA timezone"
}

func (t *DateTimeTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        t.GetName(),
		Description: t.GetDescription(),
		Parameters: []ToolParameter{
			{
				Name:        "timezone",
				Type:        TypeString,
				Description: "IANA timezone name, defaults to UTC",
				Required:    false,
				Default:     "UTC",
			},
		},
	}
}

func (t *DateTimeTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	tz, _ := args["timezone"].(string)
	if tz == "" {
		tz = "UTC"
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return "", fmt.Errorf("unknown timezone '%s': %w", tz, err)
	}

	return t.now().In(loc).Format("2006-01-02 15:04:05 MST"), nil
}
