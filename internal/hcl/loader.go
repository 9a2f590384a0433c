package hcl

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/appmodel/internal/config"
	"github.com/vk/appmodel/internal/ctxlog"
	"github.com/vk/appmodel/internal/fsutil"
	"github.com/vk/appmodel/internal/schema"
)

// builtinPrefix marks builtin class files in Model.Files.
const builtinPrefix = "builtin:"

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	// SkipBuiltin disables loading of the embedded class definitions.
	SkipBuiltin bool
}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// loadState carries the per-call parser and the set of files already read, so
// that files included more than once are only translated once.
type loadState struct {
	parser *hclparse.Parser
	model  *config.Model
	seen   map[string]struct{}
}

// Load reads the builtin classes, then every .hcl file reachable from the
// given paths. Directories are walked recursively; files named in an
// `include` attribute are resolved relative to the including file.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	st := &loadState{
		parser: hclparse.NewParser(),
		model:  config.NewModel(),
		seen:   make(map[string]struct{}),
	}

	if !l.SkipBuiltin {
		if err := l.loadBuiltin(ctx, st); err != nil {
			return nil, err
		}
	}

	hclFiles, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	for _, file := range hclFiles {
		if err := l.loadFile(ctx, st, file); err != nil {
			return nil, err
		}
	}

	logger.Debug("HCL loading complete.", "files", len(st.model.Files), "classes", len(st.model.Classes), "objects", len(st.model.Objects))
	return st.model, nil
}

func (l *Loader) loadBuiltin(ctx context.Context, st *loadState) error {
	names, err := fs.Glob(schema.Builtin, "classes/*.hcl")
	if err != nil {
		return fmt.Errorf("failed to list builtin classes: %w", err)
	}
	sort.Strings(names)
	for _, name := range names {
		src, err := fs.ReadFile(schema.Builtin, name)
		if err != nil {
			return fmt.Errorf("failed to read builtin file %s: %w", name, err)
		}
		filename := builtinPrefix + path.Base(name)
		hclFile, diags := st.parser.ParseHCL(src, filename)
		if diags.HasErrors() {
			return fmt.Errorf("failed to parse builtin file %s: %w", name, diags)
		}
		if err := l.merge(ctx, st, hclFile, filename); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) loadFile(ctx context.Context, st *loadState, file string) error {
	file = filepath.Clean(file)
	if _, ok := st.seen[file]; ok {
		return nil
	}
	st.seen[file] = struct{}{}

	hclFile, diags := st.parser.ParseHCLFile(file)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
	}
	return l.merge(ctx, st, hclFile, file)
}

// merge decodes one parsed file and adds its classes and objects to the
// model. Includes are loaded before the including file's own content.
func (l *Loader) merge(ctx context.Context, st *loadState, hclFile *hcl.File, filename string) error {
	var root schema.File
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
		return fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	for _, inc := range root.Include {
		target := fsutil.ResolveRelative(filename, inc)
		if _, err := os.Stat(target); err != nil {
			return fmt.Errorf("file %s includes %s: %w", filename, inc, err)
		}
		if err := l.loadFile(ctx, st, target); err != nil {
			return err
		}
	}

	st.model.Files = append(st.model.Files, filename)

	for _, c := range root.Classes {
		if _, dup := st.model.Classes[c.Name]; dup {
			return fmt.Errorf("class '%s' in %s is already defined", c.Name, filename)
		}
		def, err := translateClass(ctx, c)
		if err != nil {
			return fmt.Errorf("%s: %w", filename, err)
		}
		st.model.Classes[def.Name] = def
	}
	for _, o := range root.Objects {
		def, err := translateObject(o, filename)
		if err != nil {
			return fmt.Errorf("%s: %w", filename, err)
		}
		st.model.Objects = append(st.model.Objects, def)
	}
	return nil
}

// findAllHCLFiles walks all given paths and returns a flat list of all .hcl files found.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, wasSeen := seen[p]; !wasSeen {
			allFiles = append(allFiles, p)
			seen[p] = struct{}{}
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", p, err)
		}
		if !info.IsDir() {
			add(p)
			continue
		}
		found, err := fsutil.FindFilesByExtension(p, ".hcl")
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			add(f)
		}
	}
	return allFiles, nil
}
