// Package cmd adds the estimation subcommands to the PocketBase command line.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/pocketbase/pocketbase"
	"github.com/spf13/cobra"

	"estimation/autosave"
	"estimation/collections"
	"estimation/config"
	"estimation/interchange"
	"estimation/notify"
	"estimation/project"
	"estimation/recap"
	"estimation/store"
)

// OpenStore returns the snapshot store selected by cfg and the function that
// releases it. The PocketBase store needs a bootstrapped app.
func OpenStore(app *pocketbase.PocketBase, cfg *config.Config) (store.Store, func() error, error) {
	switch cfg.Store {
	case config.StoreBolt:
		db, err := store.OpenBolt(cfg.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	default:
		collections.Setup(app)
		return store.NewRecords(app), func() error { return nil }, nil
	}
}

// App carries what the subcommands share.
type App struct {
	cfg    *config.Config
	logger func() *slog.Logger
	open   func() (store.Store, func() error, error)
}

// Register adds the list, recap, export and import subcommands to the root
// command of app.
func Register(app *pocketbase.PocketBase, cfg *config.Config) {
	a := &App{
		cfg:    cfg,
		logger: app.Logger, // set once the app is bootstrapped
		open:   func() (store.Store, func() error, error) { return OpenStore(app, cfg) },
	}
	app.RootCmd.AddCommand(a.commands()...)
}

func (a *App) commands() []*cobra.Command {
	return []*cobra.Command{
		a.newListCmd(),
		a.newRecapCmd(),
		a.newExportCmd(),
		a.newImportCmd(),
	}
}

func (a *App) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the stored estimations with their total cost",
		Args:  cobra.NoArgs,
		RunE:  a.handleList,
	}
}

func (a *App) newRecapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recap <key>",
		Short: "Print the recapitulation of an estimation",
		Args:  cobra.ExactArgs(1),
		RunE:  a.handleRecap,
	}
	cmd.Flags().Bool("json", false, "print the summary as JSON")
	return cmd
}

func (a *App) newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <key> <json|xlsx|pdf>",
		Short: "Write an estimation as a JSON snapshot, an xlsx workbook or a devis PDF",
		Args:  cobra.ExactArgs(2),
		RunE:  a.handleExport,
	}
	cmd.Flags().StringP("output", "o", "", "output file (default <key>.<format>)")
	return cmd
}

func (a *App) newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <key> <file>",
		Short: "Replace an estimation with a JSON snapshot or an xlsx workbook",
		Args:  cobra.ExactArgs(2),
		RunE:  a.handleImport,
	}
	cmd.Flags().String("format", "", "json or xlsx (default from the file extension)")
	return cmd
}

func (a *App) log() *slog.Logger {
	if a.logger == nil {
		return nil
	}
	return a.logger()
}

// withStore opens the store for the duration of fn.
func (a *App) withStore(fn func(store.Store) error) (err error) {
	st, release, err := a.open()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := release(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(st)
}

func load(ctx context.Context, st store.Store, key string) (*project.Project, error) {
	data, err := st.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("no estimation %q", key)
	}
	if err != nil {
		return nil, err
	}
	return interchange.ImportJSON(data)
}

func (a *App) amount(f float64) string {
	return interchange.FormatAmount(f, a.cfg.CurrencySymbol, a.cfg.CurrencyDecimals)
}

func (a *App) handleList(cmd *cobra.Command, _ []string) error {
	return a.withStore(func(st store.Store) error {
		lister, ok := st.(store.Lister)
		if !ok {
			return errors.New("this store cannot list its estimations")
		}
		keys, err := lister.Keys(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CLÉ\tPROJET\tCLIENT\tCOÛT TOTAL")
		for _, key := range keys {
			p, err := load(cmd.Context(), st, key)
			if err != nil {
				fmt.Fprintf(w, "%s\t(illisible)\t\t\n", key)
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", key, p.Info.Nom, p.Info.Client, a.amount(p.Summary.CoutTotalProjet))
		}
		return w.Flush()
	})
}

func (a *App) handleRecap(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	return a.withStore(func(st store.Store) error {
		p, err := load(cmd.Context(), st, args[0])
		if err != nil {
			return err
		}
		s := recap.Compute(p, a.cfg.Recap())
		out := cmd.OutOrStdout()

		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(s)
		}

		r := recap.ComputeRatios(s)
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "Projet\t%s\n", p.Info.Nom)
		fmt.Fprintf(w, "Surface totale\t%s m²\n", interchange.FormatQuantity(s.SurfaceTotale))
		fmt.Fprintf(w, "Volume de béton\t%s m³\n", interchange.FormatQuantity(s.VolumeBetonTotal))
		fmt.Fprintf(w, "Acier estimé\t%s kg\n", interchange.FormatQuantity(s.QuantiteAcierEstimee))
		fmt.Fprintf(w, "Éléments structurels\t%d\n", s.NombreElementsStructurels)
		fmt.Fprintf(w, "Lignes de devis\t%d\n", s.NombreLignesDevis)
		fmt.Fprintf(w, "Coût total\t%s\n", a.amount(s.CoutTotalProjet))
		fmt.Fprintf(w, "Coût au m²\t%s\n", a.amount(r.CostPerSurface))
		fmt.Fprintf(w, "Coût au m³\t%s\n", a.amount(r.CostPerVolume))
		for _, c := range recap.ByCategory(p, a.cfg.Recap()) {
			fmt.Fprintf(w, "  %s\t%s\n", c.Label, a.amount(c.Cout))
		}
		return w.Flush()
	})
}

func (a *App) handleExport(cmd *cobra.Command, args []string) error {
	key, format := args[0], strings.ToLower(args[1])
	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = key + "." + format
	}
	ic := a.cfg.Interchange(a.log())

	return a.withStore(func(st store.Store) error {
		p, err := load(cmd.Context(), st, key)
		if err != nil {
			return err
		}
		var data []byte
		switch format {
		case "json":
			data, err = interchange.ExportJSON(p)
		case "xlsx":
			data, err = interchange.ExportXLSX(p, ic)
		case "pdf":
			data, err = interchange.ExportDevisPDF(p, ic)
		default:
			return fmt.Errorf("unknown export format %q", format)
		}
		if err != nil {
			return err
		}
		if err := os.WriteFile(output, data, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s écrit (%d octets)\n", output, len(data))
		return nil
	})
}

func (a *App) handleImport(cmd *cobra.Command, args []string) error {
	key, path := args[0], args[1]
	format, _ := cmd.Flags().GetString("format")
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(path), ".")
	}
	format = strings.ToLower(format)
	if format != "json" && format != "xlsx" {
		return fmt.Errorf("unknown import format %q", format)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	opts := a.cfg.Autosave(a.log())
	opts.Notifier = notify.Func(func(kind notify.Kind, title, message string) {
		fmt.Fprintf(out, "%s: %s\n", title, message)
	})

	return a.withStore(func(st store.Store) error {
		mgr := autosave.NewManager(st, nil, opts)
		session, err := mgr.Open(cmd.Context(), key)
		if err != nil {
			return err
		}

		var importErr error
		switch format {
		case "json":
			importErr = session.ImportJSON(data)
		case "xlsx":
			var report interchange.ImportReport
			report, importErr = session.ImportXLSX(data)
			for _, w := range report.Warnings {
				fmt.Fprintf(out, "  attention: %s\n", w)
			}
		}
		if err := session.Close(cmd.Context()); err != nil && importErr == nil {
			return err
		}
		return importErr
	})
}
