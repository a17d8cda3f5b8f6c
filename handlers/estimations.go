package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/pocketbase/pocketbase/core"

	"estimation/autosave"
	"estimation/interchange"
	"estimation/project"
	"estimation/store"
)

// maxImportSize bounds uploaded workbooks and snapshot documents.
const maxImportSize = 32 << 20

// loadProject reads and decodes the snapshot stored under key.
func loadProject(e *core.RequestEvent, st store.Store, key string) (*project.Project, error) {
	data, err := st.Get(e.Request.Context(), key)
	if err != nil {
		return nil, err
	}
	return interchange.ImportJSON(data)
}

// projectError maps a loadProject failure to a response.
func projectError(e *core.RequestEvent, scope, key string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return e.String(http.StatusNotFound, "Estimation introuvable")
	}
	log.Printf("%s: could not load %q: %v", scope, key, err)
	return e.String(http.StatusInternalServerError, "Estimation illisible")
}

// isHTMX reports whether the request comes from an HTMX swap.
func isHTMX(e *core.RequestEvent) bool {
	return e.Request.Header.Get("HX-Request") == "true"
}

// HandleEstimationList returns a handler that lists the stored estimations.
func HandleEstimationList(st store.Store, cfg interchange.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		lister, ok := st.(store.Lister)
		if !ok {
			return e.String(http.StatusNotImplemented, "Ce stockage ne permet pas de lister les estimations")
		}
		keys, err := lister.Keys(e.Request.Context())
		if err != nil {
			log.Printf("estimation_list: %v", err)
			return e.String(http.StatusInternalServerError, "Internal error")
		}

		items := make([]EstimationItem, 0, len(keys))
		for _, key := range keys {
			item := EstimationItem{Key: key}
			p, err := loadProject(e, st, key)
			if err != nil {
				log.Printf("estimation_list: skipping %q: %v", key, err)
				items = append(items, item)
				continue
			}
			item.Readable = true
			item.Nom = p.Info.Nom
			item.Client = p.Info.Client
			item.Cout = interchange.FormatAmount(p.Summary.CoutTotalProjet, cfg.CurrencySymbol, cfg.Decimals)
			items = append(items, item)
		}

		if isHTMX(e) {
			return EstimationListContent(items).Render(e.Request.Context(), e.Response)
		}
		return EstimationListPage(items).Render(e.Request.Context(), e.Response)
	}
}

// HandleRecap returns a handler that renders the recapitulation of one
// estimation.
func HandleRecap(st store.Store, cfg interchange.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		key := e.Request.PathValue("key")
		if key == "" {
			return e.String(http.StatusBadRequest, "Missing estimation key")
		}
		p, err := loadProject(e, st, key)
		if err != nil {
			return projectError(e, "recap", key, err)
		}

		view := newRecapView(key, p, cfg)
		if isHTMX(e) {
			return RecapContent(view).Render(e.Request.Context(), e.Response)
		}
		return RecapPage(view).Render(e.Request.Context(), e.Response)
	}
}

// exportFormat describes one download format.
type exportFormat struct {
	contentType string
	encode      func(*project.Project, interchange.Config) ([]byte, error)
}

var exportFormats = map[string]exportFormat{
	"json": {
		contentType: "application/json",
		encode: func(p *project.Project, _ interchange.Config) ([]byte, error) {
			return interchange.ExportJSON(p)
		},
	},
	"xlsx": {
		contentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		encode:      interchange.ExportXLSX,
	},
	"pdf": {
		contentType: "application/pdf",
		encode:      interchange.ExportDevisPDF,
	},
}

// sanitizeFilename removes characters that are unsafe for filenames.
func sanitizeFilename(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '/', '\\', ':', '"', '*', '?', '<', '>', '|':
			return '-'
		}
		return r
	}, s)
	return s
}

// exportFilename names a download after the project, or the key when the
// project has no name.
func exportFilename(key string, p *project.Project, ext string) string {
	name := sanitizeFilename(p.Info.Nom)
	if name == "" {
		name = sanitizeFilename(key)
	}
	return fmt.Sprintf("Devis_%s.%s", name, ext)
}

// HandleExport returns a handler that downloads an estimation as json, xlsx
// or pdf.
func HandleExport(st store.Store, cfg interchange.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		key := e.Request.PathValue("key")
		ext := strings.ToLower(e.Request.PathValue("format"))
		format, ok := exportFormats[ext]
		if key == "" || !ok {
			return e.String(http.StatusBadRequest, "Format d'export inconnu")
		}

		p, err := loadProject(e, st, key)
		if err != nil {
			return projectError(e, "export", key, err)
		}

		data, err := format.encode(p, cfg)
		if err != nil {
			log.Printf("export_%s: failed to generate %q: %v", ext, key, err)
			return e.String(http.StatusInternalServerError, "Échec de la génération du fichier")
		}

		e.Response.Header().Set("Content-Type", format.contentType)
		e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exportFilename(key, p, ext)))
		_, err = e.Response.Write(data)
		return err
	}
}

// importKind picks the import format from the form field "format", else
// from the uploaded file extension.
func importKind(e *core.RequestEvent, filename string) string {
	if f := strings.ToLower(e.Request.FormValue("format")); f != "" {
		return f
	}
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}

// HandleImport returns a handler that replaces an estimation with an
// uploaded json snapshot or xlsx workbook. The import runs in an autosave
// session, so other open views of the estimation receive the new snapshot.
// The outcome is reported as a toast and the response carries the new
// recapitulation.
func HandleImport(mgr *autosave.Manager, cfg interchange.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		key := e.Request.PathValue("key")
		if key == "" {
			return e.String(http.StatusBadRequest, "Missing estimation key")
		}

		e.Request.Body = http.MaxBytesReader(e.Response, e.Request.Body, maxImportSize)
		file, header, err := e.Request.FormFile("file")
		if err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Aucun fichier reçu")
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Fichier illisible")
		}

		kind := importKind(e, header.Filename)
		if kind != "json" && kind != "xlsx" {
			return ErrorToast(e, http.StatusBadRequest, "Format d'import inconnu: "+kind)
		}

		ctx := e.Request.Context()
		session, err := mgr.OpenWith(ctx, key, NewToaster(e))
		if err != nil {
			log.Printf("import: could not open %q: %v", key, err)
			return ErrorToast(e, http.StatusInternalServerError, "Estimation illisible")
		}

		switch kind {
		case "json":
			err = session.ImportJSON(data)
		case "xlsx":
			var report interchange.ImportReport
			report, err = session.ImportXLSX(data)
			for _, w := range report.Warnings {
				log.Printf("import: %q: %s", key, w)
			}
		}
		snapshot := session.Snapshot()
		closeErr := session.Close(ctx)

		if err != nil {
			e.Response.Header().Set("HX-Reswap", "none")
			return e.String(http.StatusBadRequest, err.Error())
		}
		if closeErr != nil {
			log.Printf("import: could not save %q: %v", key, closeErr)
			e.Response.Header().Set("HX-Reswap", "none")
			return e.String(http.StatusInternalServerError, "Échec de l'enregistrement")
		}
		return RecapContent(newRecapView(key, snapshot, cfg)).Render(ctx, e.Response)
	}
}
