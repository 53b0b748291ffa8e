// Package prompt holds the versioned analysis prompt templates sent to the
// AI vision providers. Versions exist for A/B comparison; an unknown version
// falls back to the default so an outdated client never breaks analysis.
package prompt

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

const DefaultVersion = "v1"

type Template struct {
	Name        string
	Version     string
	Text        string
	Description string
	Notes       string
}

type Registry struct {
	mu        sync.RWMutex
	templates map[string]Template
}

func NewRegistry() *Registry {
	r := &Registry{templates: make(map[string]Template)}
	r.templates["v1"] = Template{
		Name:        "drawing_analysis",
		Version:     "v1",
		Text:        v1Template,
		Description: "Original prompt focusing on direct object recognition",
		Notes:       "Baseline performance",
	}
	r.templates["v2"] = Template{
		Name:        "drawing_analysis",
		Version:     "v2",
		Text:        v2Template,
		Description: "Enhanced prompt with reasoning chain",
		Notes:       "Improved accuracy on abstract drawings",
	}
	r.templates["v3"] = Template{
		Name:        "drawing_analysis",
		Version:     "v3",
		Text:        v3Template,
		Description: "JSON response format for better parsing",
		Notes:       "Better structured responses",
	}
	return r
}

// Render builds the provider prompt for the given template version, embedding
// a zero-based numbered candidate list and the maximum valid index. An
// unknown version renders with the default template.
func (r *Registry) Render(version string, candidates []string) string {
	r.mu.RLock()
	t, ok := r.templates[version]
	if !ok {
		t = r.templates[DefaultVersion]
	}
	r.mu.RUnlock()

	var list strings.Builder
	for i, c := range candidates {
		if i > 0 {
			list.WriteByte('\n')
		}
		fmt.Fprintf(&list, "%d: %s", i, c)
	}
	return fmt.Sprintf(t.Text, list.String(), len(candidates)-1)
}

// Versions returns the available template versions in sorted order.
func (r *Registry) Versions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	versions := make([]string, 0, len(r.templates))
	for v := range r.templates {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	return versions
}

// Info returns the metadata for a template version.
func (r *Registry) Info(version string) (Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[version]
	return t, ok
}

// Add registers a new template version at runtime. It refuses to overwrite
// an existing version and reports whether the template was added.
func (r *Registry) Add(version, text, description string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.templates[version]; exists {
		return false
	}
	r.templates[version] = Template{
		Name:        "drawing_analysis",
		Version:     version,
		Text:        text,
		Description: description,
		Notes:       "Added at runtime",
	}
	return true
}

const v1Template = `This is a drawing from a word-guessing game. The drawing represents one of these numbered options:

%[1]s

Please respond with just the number (0-%[2]d) of the option you think is being drawn. Respond with only the number, nothing else.`

const v2Template = `This is a drawing from a word-guessing game. The drawing represents one of these numbered options:

%[1]s

Analyze the drawing carefully and identify the key visual elements. Consider:
- Basic shapes and forms
- Distinctive features or characteristics
- Overall composition and style

Based on your analysis, which option does this drawing most likely represent?

Respond with just the number (0-%[2]d) of your choice, followed by a brief explanation of your reasoning.`

const v3Template = `This is a drawing from a word-guessing game. The drawing represents one of these numbered options:

%[1]s

Analyze the drawing and respond with a JSON object in this format:
{
    "index": <number between 0 and %[2]d>,
    "reasoning": "<brief explanation of why you chose this option>",
    "confidence": "<high/medium/low>",
    "visual_elements": ["<key element 1>", "<key element 2>", "..."]
}

Be sure to provide a valid JSON response.`
