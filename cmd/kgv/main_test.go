package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/kgview/pkg/config"
	"github.com/vanderheijden86/kgview/pkg/model"
)

const chatBody = `{
  "answer": "Caste is an enclosed class.",
  "metrics": {"confidence": 0.82, "source_count": 2},
  "graph_data": {
    "nodes": [{"id": "Caste", "val": 10}, {"id": "Endogamy"}],
    "links": [{"source": "Caste", "target": "Endogamy"}]
  },
  "context": {
    "local": [{"text": "Endogamy is the essence of caste.", "score": 0.87}],
    "global": [{"text": "Themes of social reform."}]
  }
}`

const graphBody = `{
  "nodes": [{"id": "a"}, {"id": "b"}, {"id": "c"}],
  "links": [{"source": "a", "target": "b"}, {"source": "b", "target": "c"}]
}`

// isolate points the config lookup at an empty directory.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	t.Setenv(config.EnvEngineURL, "")
}

func fakeEngine(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/chat":
			_, _ = w.Write([]byte(chatBody))
		case "/graph":
			_, _ = w.Write([]byte(graphBody))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &paths
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAsk_PrintsAnswerAndEvidence(t *testing.T) {
	isolate(t)
	srv, paths := fakeEngine(t)

	out, err := execute(t, "ask", "--engine-url", srv.URL, "what", "is", "caste?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	for _, want := range []string{
		"Caste is an enclosed class.",
		"Confidence: 82%",
		"Graph: 2 nodes, 1 links",
		"MATCH SCORE: 0.87",
		"COMMUNITY SUMMARY",
		"LOCAL CONTEXT (SPECIFICS)",
		"Central concepts: Caste, Endogamy",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if len(*paths) != 1 || (*paths)[0] != "POST /chat" {
		t.Errorf("requests = %v", *paths)
	}
}

func TestAsk_JSON(t *testing.T) {
	isolate(t)
	srv, _ := fakeEngine(t)

	out, err := execute(t, "ask", "--json", "--engine-url", srv.URL, "caste")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	var resp model.ChatResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if resp.Metrics.SourceCount != 2 || len(resp.GraphData.Nodes) != 2 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestAsk_EngineErrorFails(t *testing.T) {
	isolate(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := execute(t, "ask", "--engine-url", srv.URL, "caste"); err == nil {
		t.Fatal("expected an error")
	}
}

func TestWriteAnswer_Placeholders(t *testing.T) {
	var b bytes.Buffer
	if err := writeAnswer(&b, model.ChatResponse{Answer: "none"}, nil); err != nil {
		t.Fatal(err)
	}
	out := b.String()
	if !strings.Contains(out, "No specific text found.") || !strings.Contains(out, "No thematic summaries found.") {
		t.Errorf("placeholders missing:\n%s", out)
	}
	if !strings.Contains(out, "Confidence: 0%") {
		t.Errorf("zero confidence missing:\n%s", out)
	}
}

func TestSnapshot_FullGraph(t *testing.T) {
	isolate(t)
	srv, paths := fakeEngine(t)
	path := filepath.Join(t.TempDir(), "full.svg")

	out, err := execute(t, "snapshot", "--engine-url", srv.URL, "-o", path, "--width", "400", "--height", "300")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if !strings.Contains(out, "3 nodes, 2 links") {
		t.Errorf("output = %q", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte("<svg")) {
		t.Error("expected an SVG document")
	}
	if (*paths)[0] != "GET /graph" {
		t.Errorf("requests = %v", *paths)
	}
}

func TestSnapshot_QueryScopedGraph(t *testing.T) {
	isolate(t)
	srv, paths := fakeEngine(t)
	path := filepath.Join(t.TempDir(), "scoped.png")

	out, err := execute(t, "snapshot", "--engine-url", srv.URL, "-q", "caste", "-o", path)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if !strings.Contains(out, "2 nodes, 1 links") {
		t.Errorf("output = %q", out)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Errorf("png not written: %v", err)
	}
	if (*paths)[0] != "POST /chat" {
		t.Errorf("requests = %v", *paths)
	}
}

func TestSnapshot_LocalSource(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "graph.json")
	if err := os.WriteFile(src, []byte(graphBody), 0o644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "out.png")

	out, err := execute(t, "snapshot", "--source", src, "-o", path)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if !strings.Contains(out, "3 nodes") {
		t.Errorf("output = %q", out)
	}
}

func TestFlagsOverrideConfig(t *testing.T) {
	isolate(t)
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "engine:\n  base_url: http://file.example:9000\n  timeout: 5s\nsource:\n  path: /tmp/file.json\n"
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	parse := func(args ...string) config.Config {
		t.Helper()
		g := &globalFlags{}
		root := newRootCmd(g)
		sub, rest, err := root.Find(args)
		if err != nil {
			t.Fatal(err)
		}
		if err := sub.ParseFlags(rest); err != nil {
			t.Fatal(err)
		}
		cfg, err := g.load(sub)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		return cfg
	}

	cfg := parse("ask", "--config", cfgPath, "q")
	if cfg.Engine.BaseURL != "http://file.example:9000" || cfg.Engine.Timeout != 5*time.Second {
		t.Errorf("file values not applied: %+v", cfg.Engine)
	}
	if cfg.Source.Path != "/tmp/file.json" {
		t.Errorf("source = %q", cfg.Source.Path)
	}

	cfg = parse("ask", "--config", cfgPath, "--engine-url", "http://flag.example", "--timeout", "2s", "--source", "", "q")
	if cfg.Engine.BaseURL != "http://flag.example" || cfg.Engine.Timeout != 2*time.Second {
		t.Errorf("flags not applied: %+v", cfg.Engine)
	}
	if cfg.Source.Path != "" {
		t.Errorf("explicit empty --source should clear the file value, got %q", cfg.Source.Path)
	}
}

func TestFlags_InvalidEngineURL(t *testing.T) {
	isolate(t)
	_, err := execute(t, "ask", "--engine-url", "not a url", "q")
	if err == nil || !strings.Contains(err.Error(), "invalid configuration") {
		t.Fatalf("err = %v, want an invalid configuration error", err)
	}

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("engine:\n  base_url: nope\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = execute(t, "ask", "--config", cfgPath, "q")
	if err == nil || !strings.Contains(err.Error(), "invalid config") {
		t.Fatalf("err = %v, want the file named as invalid config", err)
	}
}

func TestExport_Formats(t *testing.T) {
	isolate(t)
	srv, _ := fakeEngine(t)

	out, err := execute(t, "export", "--engine-url", srv.URL)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	var res struct {
		Format string `json:"format"`
		Nodes  int    `json:"nodes"`
		Edges  int    `json:"edges"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("json export: %v\n%s", err, out)
	}
	if res.Format != "json" || res.Nodes != 3 || res.Edges != 2 {
		t.Errorf("res = %+v", res)
	}

	out, err = execute(t, "export", "--engine-url", srv.URL, "-f", "dot", "--root", "a", "--depth", "1")
	if err != nil {
		t.Fatalf("dot export: %v", err)
	}
	if !strings.HasPrefix(out, "digraph") || strings.Contains(out, `"c"`) {
		t.Errorf("dot output should hold only a's neighbourhood:\n%s", out)
	}

	if _, err := execute(t, "export", "--engine-url", srv.URL, "-f", "png"); err == nil {
		t.Error("unknown format should fail")
	}
}

func TestExport_ToFile(t *testing.T) {
	isolate(t)
	srv, _ := fakeEngine(t)
	path := filepath.Join(t.TempDir(), "graph.mmd")

	out, err := execute(t, "export", "--engine-url", srv.URL, "-f", "mermaid", "-o", path)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out, "3 nodes, 2 links, mermaid") {
		t.Errorf("output = %q", out)
	}
	data, err := os.ReadFile(path)
	if err != nil || !strings.Contains(string(data), "graph") {
		t.Errorf("mermaid file: %v %q", err, data)
	}
}

func writeProjectHooks(t *testing.T, yaml string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ".kgv"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".kgv", "hooks.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	return dir
}

func TestSnapshot_RunsExportHooks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("hook commands use sh")
	}
	isolate(t)
	srv, _ := fakeEngine(t)
	dir := writeProjectHooks(t, `
hooks:
  post-export:
    - name: record
      command: echo "$KGV_EXPORT_FORMAT $KGV_NODE_COUNT $KGV_LINK_COUNT" > hook.out
`)

	if _, err := execute(t, "snapshot", "--engine-url", srv.URL, "-o", "graph.svg"); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "hook.out"))
	if err != nil {
		t.Fatalf("post-export hook did not run: %v", err)
	}
	if got := strings.TrimSpace(string(data)); got != "svg 3 2" {
		t.Errorf("hook saw %q", got)
	}
}

func TestExport_PreExportHookCancels(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("hook commands use sh")
	}
	isolate(t)
	srv, _ := fakeEngine(t)
	dir := writeProjectHooks(t, `
hooks:
  pre-export:
    - name: gate
      command: exit 1
`)

	out, err := execute(t, "export", "--engine-url", srv.URL, "-o", "graph.json")
	if err == nil || !strings.Contains(err.Error(), `"gate"`) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(out, "0 succeeded, 1 failed") {
		t.Errorf("summary missing:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "graph.json")); !os.IsNotExist(err) {
		t.Error("export should not be written when a pre-export hook fails")
	}

	if _, err := execute(t, "export", "--engine-url", srv.URL, "-o", "graph.json", "--no-hooks"); err != nil {
		t.Fatalf("--no-hooks: %v", err)
	}
}
