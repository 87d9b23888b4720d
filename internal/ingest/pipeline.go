package ingest

import (
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// Processor is one text clean-up step applied to document content
type Processor interface {
	Name() string
	// Order positions the processor in the pipeline; lower runs first
	Order() int
	Process(content string) string
}

// Pipeline chains processors in order.
type Pipeline struct {
	mu         sync.RWMutex
	processors []Processor
	sorted     bool
}

// NewPipeline creates a new content pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{
		processors: make([]Processor, 0),
	}
}

// DefaultPipeline strips control characters, then normalises whitespace.
func DefaultPipeline() *Pipeline {
	p := NewPipeline()
	p.Add(ControlStripper{})
	p.Add(WhitespaceNormaliser{})
	return p
}

// Add adds a processor to the pipeline.
// Processors are sorted by Order() before processing.
func (p *Pipeline) Add(processor Processor) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processors = append(p.processors, processor)
	p.sorted = false
}

// Process applies all processors in order.
func (p *Pipeline) Process(content string) string {
	for _, proc := range p.ordered() {
		content = proc.Process(content)
	}
	return content
}

// List returns processor names in order.
func (p *Pipeline) List() []string {
	procs := p.ordered()
	names := make([]string, len(procs))
	for i, proc := range procs {
		names[i] = proc.Name()
	}
	return names
}

func (p *Pipeline) ordered() []Processor {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.sorted {
		sort.SliceStable(p.processors, func(i, j int) bool {
			return p.processors[i].Order() < p.processors[j].Order()
		})
		p.sorted = true
	}
	processors := make([]Processor, len(p.processors))
	copy(processors, p.processors)
	return processors
}

// ControlStripper removes control characters except newlines and tabs
type ControlStripper struct{}

func (ControlStripper) Name() string { return "control-stripper" }

func (ControlStripper) Order() int { return 0 }

func (ControlStripper) Process(content string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r == ' ' {
			return ' '
		}
		if unicode.IsControl(r) || r == unicode.ReplacementChar {
			return -1
		}
		return r
	}, content)
}

var (
	horizontalSpace = regexp.MustCompile(`[ \t]+`)
	blankLines      = regexp.MustCompile(`\n{3,}`)
)

// WhitespaceNormaliser collapses runs of spaces and keeps at most one blank line
// between paragraphs.
type WhitespaceNormaliser struct{}

func (WhitespaceNormaliser) Name() string { return "whitespace" }

func (WhitespaceNormaliser) Order() int { return 10 }

func (WhitespaceNormaliser) Process(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = horizontalSpace.ReplaceAllString(content, " ")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	content = strings.Join(lines, "\n")
	return strings.TrimSpace(blankLines.ReplaceAllString(content, "\n\n"))
}
