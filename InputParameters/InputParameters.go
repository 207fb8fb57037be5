package InputParameters

import (
	"fmt"
	"sort"

	"github.com/ghodss/yaml"
)

// Parameters obtained from the YAML pipeline file
type PipelineParameters struct {
	Title string `json:"Title"`
	// Final names the generator whose output is the pipeline result, it may
	// be left empty when the pipeline has a single sink
	Final      string           `json:"Final"`
	Ranks      int              `json:"Ranks"`
	Generators []GeneratorBlock `json:"Generators"`
}

// GeneratorBlock is one pipeline stage
type GeneratorBlock struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Params Params `json:"params"`
}

func (pp *PipelineParameters) Parse(data []byte) error {
	*pp = PipelineParameters{}
	if err := yaml.Unmarshal(data, pp); err != nil {
		return err
	}
	seen := make(map[string]bool)
	for i, gb := range pp.Generators {
		if gb.Name == "" {
			return fmt.Errorf("generator block %d has no name", i)
		}
		if gb.Type == "" {
			return fmt.Errorf("generator %q has no type", gb.Name)
		}
		if seen[gb.Name] {
			return fmt.Errorf("generator name %q is used twice", gb.Name)
		}
		seen[gb.Name] = true
		if gb.Params == nil {
			pp.Generators[i].Params = Params{}
		}
	}
	return nil
}

func (pp *PipelineParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", pp.Title)
	fmt.Printf("[%s]\t\t= Final\n", pp.Final)
	fmt.Printf("[%d]\t\t\t= Ranks\n", pp.Ranks)
	for _, gb := range pp.Generators {
		fmt.Printf("%s (%s)\n", gb.Name, gb.Type)
		keys := make([]string, 0, len(gb.Params))
		for k := range gb.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Printf("\t%s = %v\n", key, gb.Params[key])
		}
	}
}
