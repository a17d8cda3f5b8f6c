package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"estimation/autosave"
	"estimation/project"
	"estimation/takeoff"
)

// runEdit applies edit in an autosave session on the estimation of the
// request and writes it before returning the resulting project. Sessions
// linked to the same key receive the new snapshot.
func runEdit(e *core.RequestEvent, mgr *autosave.Manager, edit func(*autosave.Session) error) (*project.Project, error) {
	ctx := e.Request.Context()
	session, err := mgr.OpenWith(ctx, e.Request.PathValue("key"), NewToaster(e))
	if err != nil {
		return nil, err
	}
	editErr := edit(session)
	snapshot := session.Snapshot()
	if err := session.Close(ctx); err != nil && editErr == nil {
		return nil, err
	}
	return snapshot, editErr
}

// editError maps an edit failure to an error toast.
func editError(e *core.RequestEvent, scope string, err error) error {
	var writeErr *autosave.PersistenceWriteError
	switch {
	case errors.Is(err, project.ErrTableNotFound),
		errors.Is(err, project.ErrSectionNotFound),
		errors.Is(err, project.ErrRowNotFound):
		return ErrorToast(e, http.StatusNotFound, "Élément introuvable")
	case errors.Is(err, project.ErrInvalidValue),
		errors.Is(err, project.ErrInvalidColumn):
		return ErrorToast(e, http.StatusBadRequest, err.Error())
	case errors.As(err, &writeErr):
		// the session already raised the save failure toast
		log.Printf("%s: %v", scope, err)
		e.Response.Header().Set("HX-Reswap", "none")
		return e.String(http.StatusInternalServerError, "Échec de l'enregistrement")
	}
	log.Printf("%s: %v", scope, err)
	return ErrorToast(e, http.StatusInternalServerError, "Une erreur est survenue. Veuillez réessayer.")
}

func sectionTotals(p *project.Project, sectionID string) map[string]any {
	out := map[string]any{"coutTotal": p.Summary.CoutTotalProjet}
	if s, err := p.Section(sectionID); err == nil {
		out["totalSection"] = s.TotalSection
	}
	return out
}

// HandleAddDevisRow appends an empty line to a devis section.
func HandleAddDevisRow(mgr *autosave.Manager) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		sectionID := e.Request.PathValue("sectionId")
		var rowID string
		p, err := runEdit(e, mgr, func(s *autosave.Session) error {
			var err error
			rowID, err = s.AddDevisRow(sectionID)
			return err
		})
		if err != nil {
			return editError(e, "add_devis_row", err)
		}
		out := sectionTotals(p, sectionID)
		out["id"] = rowID
		return e.JSON(http.StatusOK, out)
	}
}

// HandlePatchDevisRow updates one field of a devis line from the form
// values "field" and "value" and returns the derived amounts.
func HandlePatchDevisRow(mgr *autosave.Manager) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		sectionID := e.Request.PathValue("sectionId")
		rowID := e.Request.PathValue("rowId")
		field := e.Request.FormValue("field")
		if field == "" {
			return ErrorToast(e, http.StatusBadRequest, "Champ manquant")
		}

		p, err := runEdit(e, mgr, func(s *autosave.Session) error {
			return s.UpdateDevisRow(sectionID, rowID, field, e.Request.FormValue("value"))
		})
		if err != nil {
			return editError(e, "patch_devis_row", err)
		}

		SetToast(e, "info", "Ligne enregistrée")
		out := sectionTotals(p, sectionID)
		if sec, err := p.Section(sectionID); err == nil {
			if i := sec.RowIndex(rowID); i >= 0 {
				out["prixTotal"] = sec.Rows[i].PrixTotal
			}
		}
		return e.JSON(http.StatusOK, out)
	}
}

// HandleDeleteDevisRow removes a devis line.
func HandleDeleteDevisRow(mgr *autosave.Manager) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		sectionID := e.Request.PathValue("sectionId")
		rowID := e.Request.PathValue("rowId")
		p, err := runEdit(e, mgr, func(s *autosave.Session) error {
			return s.DeleteDevisRow(sectionID, rowID)
		})
		if err != nil {
			return editError(e, "delete_devis_row", err)
		}
		SetToast(e, "success", "Ligne supprimée")
		return e.JSON(http.StatusOK, sectionTotals(p, sectionID))
	}
}

func tableState(p *project.Project, tableID, rowID string) map[string]any {
	out := map[string]any{}
	t, err := p.Table(tableID)
	if err != nil {
		return out
	}
	out["totals"] = takeoff.ColumnTotals(t)
	if i := t.RowIndex(rowID); i >= 0 {
		values := make(map[string]string, len(t.Columns))
		for _, c := range t.Columns {
			values[c.Key] = t.Rows[i].Values[c.Key].Display(c)
		}
		out["values"] = values
	}
	return out
}

// HandleAddTableRow appends an empty row to a technical table.
func HandleAddTableRow(mgr *autosave.Manager) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		tableID := e.Request.PathValue("tableId")
		var rowID string
		p, err := runEdit(e, mgr, func(s *autosave.Session) error {
			var err error
			rowID, err = s.AddTableRow(tableID)
			return err
		})
		if err != nil {
			return editError(e, "add_table_row", err)
		}
		out := tableState(p, tableID, rowID)
		out["id"] = rowID
		return e.JSON(http.StatusOK, out)
	}
}

// HandlePatchTableCell updates one cell from the form values "column" and
// "value" and returns the row as displayed with the column totals.
func HandlePatchTableCell(mgr *autosave.Manager) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		tableID := e.Request.PathValue("tableId")
		rowID := e.Request.PathValue("rowId")
		column := e.Request.FormValue("column")
		if column == "" {
			return ErrorToast(e, http.StatusBadRequest, "Colonne manquante")
		}

		p, err := runEdit(e, mgr, func(s *autosave.Session) error {
			return s.UpdateCell(tableID, rowID, column, e.Request.FormValue("value"))
		})
		if err != nil {
			return editError(e, "patch_table_cell", err)
		}
		SetToast(e, "info", "Cellule enregistrée")
		return e.JSON(http.StatusOK, tableState(p, tableID, rowID))
	}
}

// HandleDeleteTableRow removes a technical table row.
func HandleDeleteTableRow(mgr *autosave.Manager) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		tableID := e.Request.PathValue("tableId")
		rowID := e.Request.PathValue("rowId")
		p, err := runEdit(e, mgr, func(s *autosave.Session) error {
			return s.DeleteTableRow(tableID, rowID)
		})
		if err != nil {
			return editError(e, "delete_table_row", err)
		}
		SetToast(e, "success", "Ligne supprimée")
		return e.JSON(http.StatusOK, tableState(p, tableID, rowID))
	}
}
