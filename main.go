package main

import (
	"context"
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"estimation/autosave"
	"estimation/cmd"
	"estimation/collections"
	"estimation/config"
	"estimation/handlers"
	"estimation/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	app := pocketbase.New()
	cmd.Register(app, cfg)

	// Create the snapshot collection, seed and migrate on startup
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		if cfg.Store != config.StorePocketBase {
			return se.Next()
		}
		collections.Setup(app)
		if err := collections.Seed(app, cfg.Recap()); err != nil {
			log.Printf("Warning: seed data failed: %v", err)
		}
		if err := collections.MigrateSnapshots(app, cfg.Interchange(app.Logger())); err != nil {
			log.Printf("Warning: snapshot migration failed: %v", err)
		}
		return se.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		st, release, err := cmd.OpenStore(app, cfg)
		if err != nil {
			return err
		}

		// Writes made through the admin UI or the REST API reach open sessions
		broker := store.NewBroker()
		if records, ok := st.(*store.Records); ok {
			records.BindHooks(broker, app.Logger())
		}
		sessions := autosave.NewManager(st, broker, cfg.Autosave(app.Logger()))

		app.OnTerminate().BindFunc(func(e *core.TerminateEvent) error {
			if err := sessions.Close(context.Background()); err != nil {
				log.Printf("Warning: flushing open estimations failed: %v", err)
			}
			if err := release(); err != nil {
				log.Printf("Warning: closing the store failed: %v", err)
			}
			return e.Next()
		})

		ic := cfg.Interchange(app.Logger())

		// ── Estimations ──────────────────────────────────────────
		se.Router.GET("/estimations", handlers.HandleEstimationList(st, ic))
		se.Router.GET("/estimations/{key}/recap", handlers.HandleRecap(st, ic))
		se.Router.GET("/estimations/{key}/export/{format}", handlers.HandleExport(st, ic))
		se.Router.POST("/estimations/{key}/import", handlers.HandleImport(sessions, ic))

		// ── Devis lines ──────────────────────────────────────────
		se.Router.POST("/estimations/{key}/sections/{sectionId}/rows", handlers.HandleAddDevisRow(sessions))
		se.Router.PATCH("/estimations/{key}/sections/{sectionId}/rows/{rowId}", handlers.HandlePatchDevisRow(sessions))
		se.Router.DELETE("/estimations/{key}/sections/{sectionId}/rows/{rowId}", handlers.HandleDeleteDevisRow(sessions))

		// ── Technical table rows ─────────────────────────────────
		se.Router.POST("/estimations/{key}/tables/{tableId}/rows", handlers.HandleAddTableRow(sessions))
		se.Router.PATCH("/estimations/{key}/tables/{tableId}/rows/{rowId}", handlers.HandlePatchTableCell(sessions))
		se.Router.DELETE("/estimations/{key}/tables/{tableId}/rows/{rowId}", handlers.HandleDeleteTableRow(sessions))

		// Redirect home to the estimation list
		se.Router.GET("/{$}", func(e *core.RequestEvent) error {
			return e.Redirect(http.StatusFound, "/estimations")
		})

		return se.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
