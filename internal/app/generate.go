package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vk/appmodel/internal/confdb"
	"github.com/vk/appmodel/internal/ctxlog"
	"github.com/vk/appmodel/internal/dal"
	"github.com/vk/appmodel/internal/hcl"
	"github.com/vk/appmodel/internal/publish"
)

// Result is the outcome of generating the modules of one application.
type Result struct {
	App     dal.Object
	Modules []dal.Object
	// Created holds every object the generator added, queues and network
	// connections included, in creation order.
	Created []*confdb.Object
	// File is where Created was written, if anywhere.
	File string
}

// Generate runs module generation for the configured application, or for
// every enabled application of the session that has a generator. Each
// application is generated on its own copy of the database, so generators
// never see each other's objects and can run on concurrent workers. Results
// keep the order of the session's applications.
func (a *App) Generate(ctx context.Context) ([]*Result, error) {
	apps, err := a.selectApplications(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]*Result, len(apps))
	errs := make([]error, len(apps))
	jobs := make(chan int)

	workers := max(1, min(a.config.Workers, len(apps)))
	var wg sync.WaitGroup
	for id := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.worker(ctx, id, apps, jobs, results, errs, cancel)
		}()
	}
	for i := range apps {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if err := firstError(errs); err != nil {
		return nil, err
	}
	return results, nil
}

// firstError returns the first error in session order, preferring real
// failures over the cancellations they caused in other workers.
func firstError(errs []error) error {
	var canceled error
	for _, err := range errs {
		switch {
		case err == nil:
		case errors.Is(err, context.Canceled):
			if canceled == nil {
				canceled = err
			}
		default:
			return err
		}
	}
	return canceled
}

// worker generates the applications whose indexes arrive on jobs.
func (a *App) worker(ctx context.Context, workerID int, apps []dal.Object, jobs <-chan int, results []*Result, errs []error, cancel context.CancelFunc) {
	logger := ctxlog.FromContext(ctx).With("workerID", workerID)
	for i := range jobs {
		if ctx.Err() != nil {
			errs[i] = ctx.Err()
			continue
		}
		res, err := a.generateOne(ctx, apps[i])
		if err != nil {
			logger.Error("Module generation failed.", "app", apps[i].ID(), "error", err)
			errs[i] = err
			cancel()
			continue
		}
		logger.Info("Generated modules.", "app", res.App.ID(), "class", res.App.ClassName(), "modules", len(res.Modules))
		results[i] = res
	}
}

func (a *App) generateOne(ctx context.Context, app dal.Object) (*Result, error) {
	clone := a.db.Clone()
	appView, err := dal.Get(clone, app.ClassName(), app.ID())
	if err != nil {
		return nil, err
	}
	sessView, err := dal.Get(clone, "Session", a.config.SessionID)
	if err != nil {
		return nil, err
	}
	modules, err := a.factory.GenerateModules(ctx, clone, appView, sessView)
	if err != nil {
		return nil, err
	}
	return &Result{App: appView, Modules: modules, Created: clone.Created()}, nil
}

// selectApplications returns the applications to generate. An explicitly
// named application is always returned, so a missing generator surfaces as
// an error; otherwise applications without a generator are skipped.
func (a *App) selectApplications(ctx context.Context) ([]dal.Object, error) {
	logger := ctxlog.FromContext(ctx)

	sessObj, err := dal.Get(a.db, "Session", a.config.SessionID)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	session, ok := sessObj.(*dal.Session)
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessObj.ID(), dal.ErrWrongType)
	}

	if a.config.AppID != "" {
		app, err := dal.Get(a.db, "Application", a.config.AppID)
		if err != nil {
			return nil, fmt.Errorf("application: %w", err)
		}
		return []dal.Object{app}, nil
	}

	enabled, err := session.EnabledApplications()
	if err != nil {
		return nil, err
	}
	var apps []dal.Object
	for _, app := range enabled {
		if _, ok := a.factory.Lookup(app.ClassName()); !ok {
			logger.Debug("Skipping application without a generator.", "app", app.ID(), "class", app.ClassName())
			continue
		}
		apps = append(apps, dal.Wrap(app.ConfigObject()))
	}
	return apps, nil
}

func (a *App) generate(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	results, err := a.Generate(ctx)
	if err != nil {
		return err
	}

	if a.config.OutDir != "" {
		if err := a.writeResults(ctx, results); err != nil {
			return err
		}
	}

	for _, r := range results {
		fmt.Fprintf(a.outW, "%s@%s: %d modules\n", r.App.ID(), r.App.ClassName(), len(r.Modules))
		for _, m := range r.Modules {
			fmt.Fprintf(a.outW, "  %s@%s\n", m.ID(), m.ClassName())
		}
	}

	if a.config.PublishURL == "" {
		return nil
	}
	pub, err := a.dial(ctx, publish.Options{
		URL:                a.config.PublishURL,
		Namespace:          a.config.PublishNamespace,
		InsecureSkipVerify: a.config.PublishInsecure,
		Timeout:            a.config.PublishTimeout,
	})
	if err != nil {
		return fmt.Errorf("publishing: %w", err)
	}
	var errs []error
	for _, r := range results {
		if err := pub.Publish(ctx, announcement(a.config.SessionID, r)); err != nil {
			errs = append(errs, fmt.Errorf("publishing %s: %w", r.App.ID(), err))
		}
	}
	errs = append(errs, pub.Close())
	if err := errors.Join(errs...); err != nil {
		return err
	}
	logger.Info("Published generated modules.", "apps", len(results))
	return nil
}

// writeResults writes the objects created for each application into
// <OutDir>/<app>.data.hcl. Each file includes the source database when it is
// a single file, so it can be loaded on its own.
func (a *App) writeResults(ctx context.Context, results []*Result) error {
	if err := os.MkdirAll(a.config.OutDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	writer := hcl.NewWriter(a.includeFor(a.config.OutDir)...)
	for _, r := range results {
		path := filepath.Join(a.config.OutDir, r.App.ID()+".data.hcl")
		if err := writeFile(ctx, writer, path, r.Created); err != nil {
			return err
		}
		r.File = path
	}
	return nil
}

func writeFile(ctx context.Context, writer *hcl.Writer, path string, objects []*confdb.Object) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err := writer.Write(ctx, f, confdb.Definitions(objects)); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// includeFor returns the include list for files written into dir.
func (a *App) includeFor(dir string) []string {
	info, err := os.Stat(a.config.DBPath)
	if err != nil || info.IsDir() {
		return nil
	}
	src, err := filepath.Abs(a.config.DBPath)
	if err != nil {
		return nil
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return []string{src}
	}
	if rel, err := filepath.Rel(absDir, src); err == nil {
		return []string{rel}
	}
	return []string{src}
}

func announcement(session string, r *Result) publish.Announcement {
	a := publish.Announcement{
		Session: session,
		App:     r.App.ID(),
		Class:   r.App.ClassName(),
		File:    r.File,
		Modules: make([]publish.Module, 0, len(r.Modules)),
	}
	for _, m := range r.Modules {
		a.Modules = append(a.Modules, publish.Module{ID: m.ID(), Class: m.ClassName()})
	}
	return a
}

// describe prints every generated module with its attributes and
// relationships.
func (a *App) describe(ctx context.Context) error {
	results, err := a.Generate(ctx)
	if err != nil {
		return err
	}
	for _, r := range results {
		fmt.Fprintf(a.outW, "Application %s@%s\n", r.App.ID(), r.App.ClassName())
		for _, m := range r.Modules {
			if err := m.ConfigObject().Print(a.outW, "  "); err != nil {
				return err
			}
		}
	}
	return nil
}
