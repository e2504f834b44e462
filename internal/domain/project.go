package domain

// Column is a workboard column of a project.
type Column struct {
	Name string `json:"name"`
	PHID string `json:"phid"`
}

// Project is a planning project known to the server.
type Project struct {
	Name    string   `json:"name"`
	PHID    string   `json:"phid"`
	Columns []Column `json:"columns"`
}

// ColumnByPHID returns the column with the given identifier.
func (p *Project) ColumnByPHID(phid string) (Column, bool) {
	for _, c := range p.Columns {
		if c.PHID == phid {
			return c, true
		}
	}
	return Column{}, false
}
