package hcl

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/appmodel/internal/config"
	"github.com/zclconf/go-cty/cty"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func findObject(t *testing.T, m *config.Model, id string) *config.ObjectDefinition {
	t.Helper()
	for _, o := range m.Objects {
		if o.ID == id {
			return o
		}
	}
	t.Fatalf("object %q not found", id)
	return nil
}

func TestLoader_LoadsBuiltinClasses(t *testing.T) {
	model, err := NewLoader().Load(context.Background())

	require.NoError(t, err)
	require.Contains(t, model.Classes, "Queue")
	require.Contains(t, model.Classes, "ReadoutApplication")

	queue := model.Classes["Queue"]
	assert.Equal(t, []string{"Connection"}, queue.Superclasses)
	require.NotNil(t, queue.Attributes["capacity"].Default)
	assert.True(t, queue.Attributes["capacity"].Default.Equals(cty.NumberIntVal(10)).True())
	assert.True(t, model.Classes["SmartDaqApplication"].Abstract)

	params := model.Classes["Application"].Attributes["commandline_parameters"]
	assert.True(t, params.Type.Equals(cty.List(cty.String)))
	require.NotNil(t, params.Default)
	assert.True(t, params.Default.Type().Equals(cty.List(cty.String)))
	assert.Equal(t, 0, params.Default.LengthInt())
}

func TestLoader_SkipBuiltin(t *testing.T) {
	model, err := (&Loader{SkipBuiltin: true}).Load(context.Background())

	require.NoError(t, err)
	assert.Empty(t, model.Classes)
	assert.Empty(t, model.Files)
}

func TestLoader_ObjectsAttributesAndRefs(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "db.hcl", `
		object "Service" "svc" {
			port = 5000
		}

		object "NetworkConnectionDescriptor" "frag-desc" {
			uid_base           = "fragments-"
			data_type          = "Fragment"
			associated_service = ref("Service", "svc")
		}

		object "NetworkConnectionRule" "frag-rule" {
			endpoint_class = "FragmentAggregatorModule"
			descriptor     = ref("NetworkConnectionDescriptor", "frag-desc")
		}

		object "DFOApplication" "dfo-01" {
			network_rules = [ref("NetworkConnectionRule", "frag-rule"), ref("NetworkConnectionRule", "frag-rule")]
			queue_rules   = []
		}
	`)

	model, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, model.Objects, 4)

	desc := findObject(t, model, "frag-desc")
	assert.Equal(t, path, desc.File)
	assert.Equal(t, "fragments-", desc.Attributes["uid_base"].AsString())
	if diff := cmp.Diff([]config.Ref{{Class: "Service", ID: "svc"}}, desc.Relationships["associated_service"]); diff != "" {
		t.Errorf("associated_service mismatch (-want +got):\n%s", diff)
	}

	app := findObject(t, model, "dfo-01")
	assert.Len(t, app.Relationships["network_rules"], 2)
	// An empty tuple cannot be told apart from an empty list attribute here.
	assert.Contains(t, app.Attributes, "queue_rules")
	assert.Equal(t, 0, app.Attributes["queue_rules"].LengthInt())
}

func TestLoader_FollowsIncludesOnce(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "schema/extra.hcl", `
		class "Widget" {
			attribute "size" {
				type    = number
				default = 3
			}
		}
	`)
	writeFile(t, dir, "common.hcl", `
		include = ["schema/extra.hcl"]
		object "Widget" "w1" {}
	`)
	main := writeFile(t, dir, "main.hcl", `
		include = ["common.hcl", "schema/extra.hcl"]
		object "Widget" "w2" { size = 4 }
	`)

	model, err := NewLoader().Load(context.Background(), main)

	require.NoError(t, err)
	require.Contains(t, model.Classes, "Widget")
	require.Len(t, model.Objects, 2)
	assert.Equal(t, "w1", model.Objects[0].ID)
	assert.Equal(t, "w2", model.Objects[1].ID)
	assert.Equal(t, filepath.Join(dir, "schema", "extra.hcl"), model.Files[len(model.Files)-3])
}

func TestLoader_DirectoryIsWalked(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.hcl", `object "Service" "b" {}`)
	writeFile(t, dir, "a.hcl", `object "Service" "a" {}`)

	model, err := (&Loader{SkipBuiltin: true}).Load(context.Background(), dir)

	require.NoError(t, err)
	require.Len(t, model.Objects, 2)
	assert.Equal(t, "a", model.Objects[0].ID)
}

func TestLoader_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "syntax error",
			content: `object "Service" {`,
			wantErr: "failed to parse",
		},
		{
			name:    "duplicate class",
			content: `class "Queue" {}`,
			wantErr: "class 'Queue'",
		},
		{
			name: "bad type keyword",
			content: `class "X" {
				attribute "a" { type = integer }
			}`,
			wantErr: `unknown type keyword "integer"`,
		},
		{
			name: "default does not convert",
			content: `class "X" {
				attribute "a" {
					type    = number
					default = "ten"
				}
			}`,
			wantErr: "default value for attribute 'a'",
		},
		{
			name:    "ref with wrong arity",
			content: `object "Service" "s" { x = ref("Service") }`,
			wantErr: "attribute 'x'",
		},
		{
			name:    "missing include",
			content: `include = ["nope.hcl"]`,
			wantErr: "includes nope.hcl",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "db.hcl", tc.content)

			_, err := NewLoader().Load(context.Background(), path)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoader_MissingPath(t *testing.T) {
	_, err := NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "absent.hcl"))
	require.Error(t, err)
}

func TestWriter_RoundTrip(t *testing.T) {
	objects := []*config.ObjectDefinition{
		{
			Class: "Queue",
			ID:    "q-1",
			Attributes: map[string]cty.Value{
				"capacity":  cty.NumberIntVal(1000),
				"data_type": cty.StringVal("DataRequest"),
			},
		},
		{
			Class: "DataHandlerModule",
			ID:    "DLH-7",
			Attributes: map[string]cty.Value{
				"source_id":      cty.NumberIntVal(7),
				"emulation_mode": cty.True,
			},
			Relationships: map[string][]config.Ref{
				"inputs":  {{Class: "Queue", ID: "q-1"}, {Class: "Queue", ID: "q-2"}},
				"geo_id":  {{Class: "GeoId", ID: "geo"}},
				"outputs": {},
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, NewWriter().Write(context.Background(), &buf, objects))
	out := buf.String()
	assert.Contains(t, out, `object "DataHandlerModule" "DLH-7"`)
	assert.Contains(t, out, `geo_id`)
	assert.Contains(t, out, `ref("GeoId", "geo")`)

	path := writeFile(t, t.TempDir(), "out.hcl", out)
	model, err := (&Loader{SkipBuiltin: true}).Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, model.Objects, 2)

	dlh := model.Objects[1]
	assert.Equal(t, "DLH-7", dlh.ID)
	assert.True(t, dlh.Attributes["emulation_mode"].True())
	if diff := cmp.Diff(objects[1].Relationships["inputs"], dlh.Relationships["inputs"]); diff != "" {
		t.Errorf("inputs mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(objects[1].Relationships["geo_id"], dlh.Relationships["geo_id"]); diff != "" {
		t.Errorf("geo_id mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 0, dlh.Attributes["outputs"].LengthInt())
}

func TestWriter_Include(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, NewWriter("session.hcl").Write(context.Background(), &buf, nil))

	assert.Contains(t, buf.String(), `include = ["session.hcl"]`)
}

func TestLoader_TypeKeywords(t *testing.T) {
	path := writeFile(t, t.TempDir(), "db.hcl", `
		class "Link" {
			attribute "id"      { type = u32 }
			attribute "kind"    { type = enum }
			attribute "enabled" { type = bool }
			attribute "lanes"   { type = list(u16) }
			attribute "tags"    { type = set(string) }
		}
	`)

	model, err := (&Loader{SkipBuiltin: true}).Load(context.Background(), path)
	require.NoError(t, err)

	got := map[string]cty.Type{}
	for name, a := range model.Classes["Link"].Attributes {
		got[name] = a.Type
	}
	want := map[string]cty.Type{
		"id":      cty.Number,
		"kind":    cty.String,
		"enabled": cty.Bool,
		"lanes":   cty.List(cty.Number),
		"tags":    cty.Set(cty.String),
	}
	if diff := cmp.Diff(want, got, cmp.Comparer(func(a, b cty.Type) bool { return a.Equals(b) })); diff != "" {
		t.Errorf("attribute types mismatch (-want +got):\n%s", diff)
	}
}

func TestLoader_TypeErrors(t *testing.T) {
	testCases := map[string]string{
		"list(list(string))": "nested collections",
		"list(string, bool)": "exactly one element type",
		"tuple(string)":      `unknown collection type "tuple"`,
		`"string"`:           "type must be a keyword",
	}
	for expr, wantErr := range testCases {
		t.Run(expr, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "db.hcl", `class "X" {
				attribute "a" { type = `+expr+` }
			}`)

			_, err := (&Loader{SkipBuiltin: true}).Load(context.Background(), path)

			require.Error(t, err)
			assert.Contains(t, err.Error(), wantErr)
		})
	}
}
