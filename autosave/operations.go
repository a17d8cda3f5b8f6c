package autosave

import (
	"fmt"
	"slices"

	"estimation/devis"
	"estimation/interchange"
	"estimation/notify"
	"estimation/project"
	"estimation/takeoff"
)

// AddTableRow appends a row to a table and returns its id.
func (s *Session) AddTableRow(tableID string) (string, error) {
	var id string
	err := s.Mutate(func(p *project.Project) error {
		t, err := p.Table(tableID)
		if err != nil {
			return err
		}
		id = s.takeoff.AddRow(t).ID
		return nil
	})
	return id, err
}

// UpdateCell edits one cell of a table row.
func (s *Session) UpdateCell(tableID, rowID, key string, value any) error {
	return s.Mutate(func(p *project.Project) error {
		t, err := p.Table(tableID)
		if err != nil {
			return err
		}
		return s.takeoff.UpdateCell(t, rowID, key, value)
	})
}

func (s *Session) DeleteTableRow(tableID, rowID string) error {
	return s.Mutate(func(p *project.Project) error {
		t, err := p.Table(tableID)
		if err != nil {
			return err
		}
		return s.takeoff.DeleteRow(t, rowID)
	})
}

// AddTable appends a copy of t. An empty id is assigned; columns are
// validated and the calculated columns of existing rows are derived.
func (s *Session) AddTable(t *project.TableDefinition) (string, error) {
	if err := takeoff.ValidateColumns(t.Columns); err != nil {
		return "", err
	}
	t = t.Clone()
	if t.ID == "" {
		t.ID = project.NewID()
	}
	if t.Rows == nil {
		t.Rows = []*project.Row{}
	}
	err := s.Mutate(func(p *project.Project) error {
		if _, err := p.Table(t.ID); err == nil {
			return fmt.Errorf("table %q already exists", t.ID)
		}
		s.takeoff.RecalculateAll(t)
		p.Tables = append(p.Tables, t)
		return nil
	})
	return t.ID, err
}

func (s *Session) RemoveTable(tableID string) error {
	return s.Mutate(func(p *project.Project) error {
		i := slices.IndexFunc(p.Tables, func(t *project.TableDefinition) bool { return t.ID == tableID })
		if i < 0 {
			return fmt.Errorf("table %q: %w", tableID, project.ErrTableNotFound)
		}
		p.Tables = slices.Delete(p.Tables, i, i+1)
		return nil
	})
}

// AddColumn appends a column to a table.
func (s *Session) AddColumn(tableID string, col project.ColumnDefinition) error {
	return s.Mutate(func(p *project.Project) error {
		t, err := p.Table(tableID)
		if err != nil {
			return err
		}
		return s.takeoff.AddColumn(t, col)
	})
}

// SetFormula replaces the formula of a calculated column.
func (s *Session) SetFormula(tableID, key, formula string) error {
	return s.Mutate(func(p *project.Project) error {
		t, err := p.Table(tableID)
		if err != nil {
			return err
		}
		return s.takeoff.SetFormula(t, key, formula)
	})
}

// AddSection appends an empty devis section and returns its id.
func (s *Session) AddSection(category, title string) (string, error) {
	section := devis.NewSection(category, title)
	err := s.Mutate(func(p *project.Project) error {
		p.DevisSections = append(p.DevisSections, section)
		return nil
	})
	return section.ID, err
}

func (s *Session) RemoveSection(sectionID string) error {
	return s.Mutate(func(p *project.Project) error {
		i := slices.IndexFunc(p.DevisSections, func(d *project.DevisSection) bool { return d.ID == sectionID })
		if i < 0 {
			return fmt.Errorf("section %q: %w", sectionID, project.ErrSectionNotFound)
		}
		p.DevisSections = slices.Delete(p.DevisSections, i, i+1)
		return nil
	})
}

// AddDevisRow appends a row to a devis section and returns its id.
func (s *Session) AddDevisRow(sectionID string) (string, error) {
	var id string
	err := s.Mutate(func(p *project.Project) error {
		sec, err := p.Section(sectionID)
		if err != nil {
			return err
		}
		id = s.devis.AddRow(sec).ID
		return nil
	})
	return id, err
}

// UpdateDevisRow edits one field of a devis row.
func (s *Session) UpdateDevisRow(sectionID, rowID, field string, value any) error {
	return s.Mutate(func(p *project.Project) error {
		sec, err := p.Section(sectionID)
		if err != nil {
			return err
		}
		return s.devis.UpdateRow(sec, rowID, field, value)
	})
}

func (s *Session) DeleteDevisRow(sectionID, rowID string) error {
	return s.Mutate(func(p *project.Project) error {
		sec, err := p.Section(sectionID)
		if err != nil {
			return err
		}
		return s.devis.DeleteRow(sec, rowID)
	})
}

// UpdateInfo replaces the descriptive record of the project.
func (s *Session) UpdateInfo(info project.Info) error {
	return s.Mutate(func(p *project.Project) error {
		p.Info = info
		return nil
	})
}

// ImportJSON replaces the project with a snapshot document whose derived
// values are recomputed. A document that cannot be read is reported and
// leaves the project unchanged.
func (s *Session) ImportJSON(data []byte) error {
	p, err := interchange.ImportJSON(data)
	if err != nil {
		s.opts.notifier().Notify(notify.Error, "Import impossible", err.Error())
		return err
	}
	interchange.Rederive(p, s.opts.Interchange)
	if err := s.replace(p); err != nil {
		return err
	}
	s.opts.notifier().Notify(notify.Success, "Import réussi", fmt.Sprintf("%d tableaux, %d sections de devis", len(p.Tables), len(p.DevisSections)))
	return nil
}

// ImportXLSX reads a workbook into a copy of the project and replaces the
// project with it. A workbook that cannot be read is reported and leaves the
// project unchanged.
func (s *Session) ImportXLSX(data []byte) (interchange.ImportReport, error) {
	p, report, err := interchange.ImportXLSX(data, s.Snapshot(), s.opts.Interchange)
	if err != nil {
		s.opts.notifier().Notify(notify.Error, "Import impossible", err.Error())
		return report, err
	}
	if err := s.replace(p); err != nil {
		return report, err
	}
	msg := fmt.Sprintf("%d sections, %d lignes de devis, %d tableaux", report.Sections, report.DevisRows, report.Tables)
	if n := len(report.SkippedTables); n > 0 {
		msg += fmt.Sprintf(", %d ignorés", n)
	}
	s.opts.notifier().Notify(notify.Success, "Import réussi", msg)
	return report, nil
}
