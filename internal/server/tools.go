package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Enhancement
		{
			Name: "photo_enhance",
			Description: "Enhance listing photos and write them as a ZIP archive or as individual JPEGs. " +
				"Outputs are named 01.jpg, 02.jpg, ... in input order. The batch is refused up front if the " +
				"account lacks credits for every photo; only successfully enhanced photos are charged.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"paths": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Absolute paths to the source photos (JPEG, PNG, GIF, WebP, BMP or TIFF)",
					},
					"variant": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"safe", "pro"},
						"description": "safe: global tone, color and sharpness boost. pro: local contrast (CLAHE) plus gamma lift. Defaults to the server's configured variant.",
					},
					"output": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path of the ZIP file or output directory",
					},
					"mode": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"zip", "files"},
						"description": "Delivery mode. Default: zip when output ends in .zip, otherwise files",
					},
					"account": map[string]interface{}{
						"type":        "string",
						"description": "Account to charge. Defaults to the server's configured account",
					},
				},
				"required": []string{"paths", "output"},
			},
		},

		// Inspection
		{
			Name:        "photo_inspect",
			Description: "Report a photo's dimensions, format, color mode and bit depth without enhancing it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},

		// Plans
		{
			Name:        "photo_plan_status",
			Description: "Show an account's subscription plan, credits used this month and credits remaining.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"account": map[string]interface{}{
						"type":        "string",
						"description": "Account name. Defaults to the server's configured account",
					},
				},
			},
		},
		{
			Name:        "photo_set_plan",
			Description: "Switch an account to another plan: Free (10 photos/month), Level 1 (100/month) or Level 2 (unlimited). Usage this month is kept.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"account": map[string]interface{}{
						"type":        "string",
						"description": "Account name. Defaults to the server's configured account",
					},
					"plan": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"free", "level1", "level2"},
						"description": "Plan to switch to",
					},
				},
				"required": []string{"plan"},
			},
		},
	}
}
