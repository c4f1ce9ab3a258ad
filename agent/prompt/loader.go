package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/vision.txt
	visionRaw string

	//go:embed template/fabric.txt
	fabricRaw string

	//go:embed template/combined.txt
	combinedRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Vision   string
	Fabric   string
	Combined string
}

// LoadPromptSet returns the embedded prompts, trimmed.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Vision:   strings.TrimSpace(visionRaw),
		Fabric:   strings.TrimSpace(fabricRaw),
		Combined: strings.TrimSpace(combinedRaw),
	}
}
