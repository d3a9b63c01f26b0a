package domain

import "slices"

// ProjectKeyPrefix precedes the project name in persisted keys.
const ProjectKeyPrefix = "proj-"

// Project groups tasks under a unique, case-sensitive name.
type Project struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Tasks       []string `json:"tasks" yaml:"tasks"`
}

func (p Project) Clone() Project {
	p.Tasks = slices.Clone(p.Tasks)
	if p.Tasks == nil {
		p.Tasks = []string{}
	}
	return p
}

func (p *Project) HasTask(id string) bool {
	return p != nil && slices.Contains(p.Tasks, id)
}
