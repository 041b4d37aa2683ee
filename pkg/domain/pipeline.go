package domain

// Pipeline is a declarative multi-step workflow definition. It is immutable
// once loaded: the engine resolves variables into per-run copies rather than
// mutating the definition, so one definition can back multiple runs.
type Pipeline struct {
	Name        string
	Description string
	Steps       []Step
}

// Step is one unit of pipeline work: an external command plus its declared
// output location and dependencies. Command and OutputDir are template
// strings; {key} placeholders are expanded at execution time.
type Step struct {
	ID        string
	Skill     string // informational, names the skill/tool the step wraps
	Command   string
	OutputDir string
	DependsOn []string
	Gates     string // path to a gate definition document, empty when none
}

// StepIndex returns a lookup map from step ID to its declaration position.
func (p *Pipeline) StepIndex() map[string]int {
	idx := make(map[string]int, len(p.Steps))
	for i, s := range p.Steps {
		idx[s.ID] = i
	}
	return idx
}
